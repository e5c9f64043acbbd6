package part

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/sketch"
)

// ValidationSeverity indicates whether a validation finding blocks
// computation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks computation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Feature  string             // flange/fold id (empty if part-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Feature == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Feature, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks (ids, references, cycles) and the
// geometric checks (ranges, profile, fold lines) and returns every finding.
// An empty slice means the snapshot is valid. It never mutates s.
func Validate(s Snapshot) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateMaterial(s)...)
	errs = append(errs, validateProfile(s)...)
	errs = append(errs, validateIDs(s)...)
	errs = append(errs, validateReferences(s)...)
	errs = append(errs, validateAcyclic(s)...)
	errs = append(errs, validateFlanges(s)...)
	errs = append(errs, validateFolds(s)...)
	errs = append(errs, validateCutouts(s)...)
	return errs
}

// ValidateAll runs Validate and separates errors from warnings.
func ValidateAll(s Snapshot) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(s) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

func errorf(feature, format string, args ...any) ValidationError {
	return ValidationError{Feature: feature, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(feature, format string, args ...any) ValidationError {
	return ValidationError{Feature: feature, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

func validateMaterial(s Snapshot) []ValidationError {
	var errs []ValidationError
	if !(s.Thickness > 0) {
		errs = append(errs, errorf("", "thickness must be positive, got %g", s.Thickness))
	}
	if s.KFactor < 0 || s.KFactor > 0.5 || math.IsNaN(s.KFactor) {
		errs = append(errs, errorf("", "k-factor must be in [0, 0.5], got %g", s.KFactor))
	}
	return errs
}

func validateProfile(s Snapshot) []ValidationError {
	if len(s.Profile) < 3 {
		return []ValidationError{errorf("", "profile needs at least 3 vertices, got %d", len(s.Profile))}
	}
	var errs []ValidationError
	if math.Abs(geom.SignedArea(s.Profile)) < geom.Epsilon {
		errs = append(errs, errorf("", "profile has zero area"))
	}
	for i := range s.Profile {
		a, b := s.Profile.Edge(i)
		if a.Dist(b) <= geom.Tolerance {
			errs = append(errs, warnf("", "profile edge %d is shorter than %gmm", i, geom.Tolerance))
		}
	}
	return errs
}

// validateIDs checks that every flange and fold has a non-empty id unique
// across both lists.
func validateIDs(s Snapshot) []ValidationError {
	var errs []ValidationError
	seen := map[string]bool{}
	check := func(id, what string) {
		if id == "" {
			errs = append(errs, errorf("", "%s with empty id", what))
			return
		}
		if seen[id] {
			errs = append(errs, errorf(id, "duplicate feature id"))
		}
		seen[id] = true
	}
	for _, f := range s.Flanges {
		check(f.ID, "flange")
	}
	for _, f := range s.Folds {
		check(f.ID, "fold")
	}
	return errs
}

// validateReferences checks that every flange parent edge is a well-formed
// id naming a known feature of the right type. Base edges are indexed on
// the profile left flat by folds, which only the topology knows, so their
// range is checked once the edge model is built.
func validateReferences(s Snapshot) []ValidationError {
	var errs []ValidationError
	for _, f := range s.Flanges {
		key, err := ParseEdgeID(f.EdgeID)
		if err != nil {
			errs = append(errs, errorf(f.ID, "parent edge %q is not a valid edge id", f.EdgeID))
			continue
		}
		switch {
		case key.Kind.IsBase():
		case key.Kind.IsFold():
			if _, ok := s.FoldByID(key.Feature); !ok {
				errs = append(errs, errorf(f.ID, "parent edge %s references unknown fold %q", f.EdgeID, key.Feature))
			}
		default:
			if _, ok := s.FlangeByID(key.Feature); !ok {
				errs = append(errs, errorf(f.ID, "parent edge %s references unknown flange %q", f.EdgeID, key.Feature))
			}
		}
	}
	return errs
}

// validateAcyclic checks feature dependencies for cycles using DFS with
// 3-color marking. A flange depends on the feature owning its parent edge,
// a fold on the feature owning its face. White = unvisited, gray = on the
// current path, black = fully explored.
func validateAcyclic(s Snapshot) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	parent := map[string]string{}
	ids := make([]string, 0, len(s.Flanges)+len(s.Folds))
	for _, f := range s.Flanges {
		ids = append(ids, f.ID)
		key, err := ParseEdgeID(f.EdgeID)
		if err == nil && !key.Kind.IsBase() {
			parent[f.ID] = key.Feature
		}
	}
	for _, f := range s.Folds {
		ids = append(ids, f.ID)
		if owner, _, err := ParseFaceID(f.FaceID); err == nil && owner != "" {
			parent[f.ID] = owner
		}
	}
	sort.Strings(ids)

	color := map[string]int{}
	var errs []ValidationError
	var visit func(id string) bool
	visit = func(id string) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, errorf(id, "feature is part of a parent cycle"))
			return true
		}
		color[id] = gray
		if p, ok := parent[id]; ok {
			if visit(p) {
				return true
			}
		}
		color[id] = black
		return false
	}
	for _, id := range ids {
		if color[id] == white && visit(id) {
			// One cycle error is sufficient.
			break
		}
	}
	return errs
}

func validateBend(id string, angle, radius float64, dir Direction) []ValidationError {
	var errs []ValidationError
	if !(angle > 0 && angle <= 180) {
		errs = append(errs, errorf(id, "angle must be in (0, 180], got %g", angle))
	}
	if !(radius > 0) {
		errs = append(errs, errorf(id, "bend radius must be positive, got %g", radius))
	}
	if !dir.Valid() {
		errs = append(errs, errorf(id, "unknown direction %q", dir))
	}
	return errs
}

func validateFlanges(s Snapshot) []ValidationError {
	var errs []ValidationError
	hosts := map[string][]string{}
	for _, f := range s.Flanges {
		errs = append(errs, validateBend(f.ID, f.Angle, f.BendRadius, f.Direction)...)
		if !(f.Height > 0) {
			errs = append(errs, errorf(f.ID, "height must be positive, got %g", f.Height))
		}
		if f.Direction == Down {
			if key, err := ParseEdgeID(f.EdgeID); err == nil && key.Kind.IsSide() {
				errs = append(errs, errorf(f.ID, "direction down needs an edge with an opposite; side edge %s has none", f.EdgeID))
			}
		}
		hosts[f.EdgeID] = append(hosts[f.EdgeID], f.ID)
	}
	edges := make([]string, 0, len(hosts))
	for e := range hosts {
		edges = append(edges, e)
	}
	sort.Strings(edges)
	for _, e := range edges {
		ids := hosts[e]
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		for _, id := range ids[1:] {
			errs = append(errs, warnf(id, "edge %s already carries flange %s; this flange is ignored", e, ids[0]))
		}
	}
	return errs
}

func validateFolds(s Snapshot) []ValidationError {
	var errs []ValidationError
	face := s.BaseFace()
	for _, f := range s.Folds {
		errs = append(errs, validateBend(f.ID, f.Angle, f.BendRadius, f.Direction)...)
		if !f.FoldLocation.Valid() {
			errs = append(errs, errorf(f.ID, "unknown fold location %q", f.FoldLocation))
		}
		if !f.OnBaseFace() {
			// Bent faces are only sized once the edge model is built; the
			// topology checks the line against them.
			if err := faceExists(s, f.FaceID); err != nil {
				errs = append(errs, errorf(f.ID, "%v", err))
			}
			continue
		}
		if face.IsEmpty() {
			continue
		}
		line := sketch.Line{ID: f.SketchLineID, Start: f.LineStart, End: f.LineEnd}
		fl, ok := sketch.ClassifySketchLineAsFold(line, face.Width(), face.Height())
		if !ok || !spans(fl, f.LineStart, f.LineEnd) {
			errs = append(errs, errorf(f.ID, "fold line must span the face between two different sides"))
		}
	}
	return errs
}

// faceExists checks that a face id names the base face or the face of a
// flange or fold in s.
func faceExists(s Snapshot, id string) error {
	owner, fold, err := ParseFaceID(id)
	if err != nil {
		return err
	}
	if owner == "" {
		return nil
	}
	if fold {
		if _, ok := s.FoldByID(owner); !ok {
			return fmt.Errorf("face %s references unknown fold %q", id, owner)
		}
		return nil
	}
	if _, ok := s.FlangeByID(owner); !ok {
		return fmt.Errorf("face %s references unknown flange %q", id, owner)
	}
	return nil
}

// spans reports whether a and b are the endpoints of fl in either order.
func spans(fl sketch.FoldLine, a, b geom.Point2D) bool {
	tol := geom.Tolerance
	return (fl.Start.Near(a, tol) && fl.End.Near(b, tol)) ||
		(fl.Start.Near(b, tol) && fl.End.Near(a, tol))
}

func validateCutouts(s Snapshot) []ValidationError {
	var errs []ValidationError
	for i, c := range s.AllCutouts() {
		if len(c.Polygon) < 3 {
			errs = append(errs, errorf("", "cutout %d has fewer than 3 vertices", i))
			continue
		}
		if len(s.Profile) >= 3 && !s.Profile.Contains(geom.Centroid(c.Polygon)) {
			errs = append(errs, warnf("", "cutout %d lies outside the profile", i))
		}
	}
	for _, fs := range s.FaceSketches {
		if err := faceExists(s, fs.FaceID); err != nil {
			errs = append(errs, warnf("", "face sketch ignored: %v", err))
		}
	}
	return errs
}
