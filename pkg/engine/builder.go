package engine

import (
	"fmt"

	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
)

// pendingFold is a fold whose line may still need classifying against the
// base face, which is only known once the whole profile is in.
type pendingFold struct {
	fold part.Fold
	line *sketch.Line
}

// builder accumulates what a script declares. One builder lives for one
// evaluation.
type builder struct {
	cfg       Config
	sheet     bool
	thickness float64
	kFactor   float64
	profile   []sketch.Entity
	faces     []sketch.FaceSketch
	flanges   []part.Flange
	folds     []pendingFold
	counters  map[string]int
	warnings  []EvalWarning
}

func newBuilder(cfg Config) *builder {
	return &builder{
		cfg:       cfg,
		thickness: cfg.Thickness,
		kFactor:   cfg.KFactor,
		counters:  map[string]int{},
	}
}

// nextID returns prefix followed by a per-prefix sequence number, so ids
// are stable across evaluations of the same source.
func (b *builder) nextID(prefix string) string {
	b.counters[prefix]++
	return fmt.Sprintf("%s%d", prefix, b.counters[prefix])
}

func (b *builder) isFold(id string) bool {
	for _, pf := range b.folds {
		if pf.fold.ID == id {
			return true
		}
	}
	return false
}

func (b *builder) warn(feature, format string, args ...any) {
	b.warnings = append(b.warnings, EvalWarning{Feature: feature, Message: fmt.Sprintf(format, args...)})
}

// snapshot assembles the part. The profile is the largest closed loop of
// the profile entities, every other loop a cutout. Folds given by a
// sketched line are classified against the base face here.
func (b *builder) snapshot() (part.Snapshot, []EvalError) {
	if !b.sheet {
		b.warn("", "no (sheet ...) form; using thickness %g and k-factor %g", b.thickness, b.kFactor)
	}
	if len(b.profile) == 0 {
		return part.Snapshot{}, []EvalError{{Message: "no profile: add a (profile ...) form with a closed outline"}}
	}
	ext, ok := sketch.ExtractProfileAndCutouts(b.profile)
	if !ok {
		return part.Snapshot{}, []EvalError{{Message: "profile: entities do not form a closed loop"}}
	}

	s := part.Snapshot{
		Profile:      ext.Profile,
		Thickness:    b.thickness,
		KFactor:      b.kFactor,
		Cutouts:      ext.Cutouts,
		Flanges:      b.flanges,
		FaceSketches: b.faces,
	}
	face := s.BaseFace()

	var errs []EvalError
	used := map[string]bool{}
	for _, pf := range b.folds {
		f := pf.fold
		if pf.line != nil && !f.OnBaseFace() {
			// Bent faces are sized by the model; the topology checks the line.
			f.LineStart, f.LineEnd = pf.line.Start, pf.line.End
			f.SketchLineID = pf.line.ID
		} else if pf.line != nil {
			fl, ok := sketch.ClassifySketchLineAsFold(*pf.line, face.Width(), face.Height())
			if !ok {
				errs = append(errs, EvalError{Message: fmt.Sprintf("fold %s: line %s does not cross the face between two sides", f.ID, pf.line.ID)})
				continue
			}
			f.LineStart, f.LineEnd = fl.Start, fl.End
			f.SketchLineID = pf.line.ID
			used[pf.line.ID] = true
		}
		s.Folds = append(s.Folds, f)
	}

	for _, fs := range b.faces {
		if fs.FaceID != part.BaseFaceID {
			continue
		}
		for _, c := range sketch.FoldCandidates(fs, face.Width(), face.Height()) {
			if !used[c.SketchLineID] {
				b.warn(c.SketchLineID, "line spans the base face and can be used as a fold line")
			}
		}
	}
	return s, errs
}
