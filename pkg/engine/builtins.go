package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPoint wraps a 2D point returned by `pt`.
type sexpPoint struct {
	p geom.Point2D
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pt %g %g)", p.p.X, p.p.Y)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpEntity wraps a sketch entity so it can be collected by `profile`,
// `face-sketch` and `fold :line`.
type sexpEntity struct {
	e sketch.Entity
}

func (e *sexpEntity) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", e.e.Kind(), e.e.EntityID())
}
func (e *sexpEntity) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string and returns the
// keyword name without its prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// keyword always takes the next argument as its value; a trailing keyword
// is a flag.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case !ok:
			result.positional = append(result.positional, args[i])
		case i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		default:
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

func (a kwArgs) has(name string) bool {
	_, ok := a.kw[name]
	return ok
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_up) and plain strings ("up").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toDirection(s zygo.Sexp) (part.Direction, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	d := part.Direction(name)
	if name == "" || !d.Valid() {
		return "", fmt.Errorf("invalid direction %q, expected up or down", name)
	}
	return d, nil
}

func toLocation(s zygo.Sexp) (part.FoldLocation, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	l := part.FoldLocation(name)
	if name == "" || !l.Valid() {
		return "", fmt.Errorf("invalid location %q, expected centerline, material-inside or material-outside", name)
	}
	return l, nil
}

func toPoint(s zygo.Sexp) (geom.Point2D, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.p, nil
	}
	return geom.Point2D{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
}

// coords flattens positional arguments into numbers: a point contributes
// its X and Y, a number itself.
func coords(args []zygo.Sexp) ([]float64, error) {
	var out []float64
	for _, a := range args {
		if p, ok := a.(*sexpPoint); ok {
			out = append(out, p.p.X, p.p.Y)
			continue
		}
		f, err := toFloat64(a)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toEntities collects entities from args, descending into lists.
func toEntities(args []zygo.Sexp) ([]sketch.Entity, error) {
	var out []sketch.Entity
	for _, a := range args {
		switch v := a.(type) {
		case *sexpEntity:
			out = append(out, v.e)
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, err
			}
			nested, err := toEntities(items)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		default:
			return nil, fmt.Errorf("expected sketch entity, got %T (%s)", a, a.SexpString(nil))
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtinFunc is the signature zygomys expects for Go builtins.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the part-script builtins into env. They record
// into b as the script runs. Source must be preprocessed with
// preprocessSource so :keyword tokens are recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	for name, fn := range map[string]builtinFunc{
		"sheet":       b.sheetFn,
		"pt":          b.ptFn,
		"line":        b.lineFn,
		"rect":        b.rectFn,
		"circle":      b.circleFn,
		"arc":         b.arcFn,
		"point":       b.pointFn,
		"profile":     b.profileFn,
		"face_sketch": b.faceSketchFn,
		"flange":      b.flangeFn,
		"fold":        b.foldFn,
		"edge":        b.edgeFn,
		"tip":         b.tipFn,
		"side":        b.sideFn,
	} {
		env.AddFunction(name, fn)
	}
}

// entityID returns the :id keyword when given, otherwise a sequential id.
func (b *builder) entityID(pa kwArgs, prefix string) (string, error) {
	if v, ok := pa.kw["id"]; ok {
		return toString(v)
	}
	return b.nextID(prefix), nil
}

// (sheet :thickness 1.5 :k-factor 0.4)
func (b *builder) sheetFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if v, ok := pa.kw["thickness"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sheet: thickness: %w", err)
		}
		b.thickness = f
	}
	if v, ok := pa.kw["k-factor"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sheet: k-factor: %w", err)
		}
		b.kFactor = f
	}
	b.sheet = true
	return zygo.SexpNull, nil
}

// (pt 10 20)
func (b *builder) ptFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	c, err := coords(args)
	if err != nil || len(c) != 2 {
		return zygo.SexpNull, fmt.Errorf("pt requires x and y")
	}
	return &sexpPoint{p: geom.Pt(c[0], c[1])}, nil
}

// (line (pt 0 0) (pt 100 0)) or (line 0 0 100 0)
func (b *builder) lineFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	c, err := coords(pa.positional)
	if err != nil || len(c) != 4 {
		return zygo.SexpNull, fmt.Errorf("line requires two points or x1 y1 x2 y2")
	}
	id, err := b.entityID(pa, "line")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("line: id: %w", err)
	}
	return &sexpEntity{e: sketch.Line{ID: id, Start: geom.Pt(c[0], c[1]), End: geom.Pt(c[2], c[3])}}, nil
}

// (rect 0 0 100 60) or (rect (pt 0 0) 100 60)
func (b *builder) rectFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	c, err := coords(pa.positional)
	if err != nil || len(c) != 4 {
		return zygo.SexpNull, fmt.Errorf("rect requires an origin, a width and a height")
	}
	id, err := b.entityID(pa, "rect")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rect: id: %w", err)
	}
	return &sexpEntity{e: sketch.Rect{ID: id, Origin: geom.Pt(c[0], c[1]), Width: c[2], Height: c[3]}}, nil
}

// (circle 50 30 5) or (circle (pt 50 30) 5)
func (b *builder) circleFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	c, err := coords(pa.positional)
	if err != nil || len(c) != 3 {
		return zygo.SexpNull, fmt.Errorf("circle requires a center and a radius")
	}
	if c[2] <= 0 {
		return zygo.SexpNull, fmt.Errorf("circle: radius must be positive, got %g", c[2])
	}
	id, err := b.entityID(pa, "circle")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("circle: id: %w", err)
	}
	return &sexpEntity{e: sketch.Circle{ID: id, Center: geom.Pt(c[0], c[1]), Radius: c[2]}}, nil
}

// (arc 0 0 10 0 90): center, radius, start and end angle in degrees.
func (b *builder) arcFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	c, err := coords(pa.positional)
	if err != nil || len(c) != 5 {
		return zygo.SexpNull, fmt.Errorf("arc requires a center, a radius and start/end angles")
	}
	id, err := b.entityID(pa, "arc")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("arc: id: %w", err)
	}
	return &sexpEntity{e: sketch.Arc{
		ID:         id,
		Center:     geom.Pt(c[0], c[1]),
		Radius:     c[2],
		StartAngle: c[3] * math.Pi / 180,
		EndAngle:   c[4] * math.Pi / 180,
	}}, nil
}

// (point 10 10)
func (b *builder) pointFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	c, err := coords(pa.positional)
	if err != nil || len(c) != 2 {
		return zygo.SexpNull, fmt.Errorf("point requires x and y")
	}
	id, err := b.entityID(pa, "point")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("point: id: %w", err)
	}
	return &sexpEntity{e: sketch.Point{ID: id, Position: geom.Pt(c[0], c[1])}}, nil
}

// (profile (rect 0 0 100 60) (circle 50 30 5))
func (b *builder) profileFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	es, err := toEntities(args)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("profile: %w", err)
	}
	b.profile = append(b.profile, es...)
	return zygo.SexpNull, nil
}

// (face-sketch "base" (circle 20 20 3) (line 0 40 100 40))
func (b *builder) faceSketchFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("face-sketch requires a face id")
	}
	face, err := toKeywordString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("face-sketch: face: %w", err)
	}
	es, err := toEntities(args[1:])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("face-sketch: %w", err)
	}
	b.faces = append(b.faces, sketch.FaceSketch{FaceID: face, Entities: es})
	return zygo.SexpNull, nil
}

// bendArgs reads the :angle, :radius and :direction keywords shared by
// flange and fold.
func (b *builder) bendArgs(form string, pa kwArgs) (angle, radius float64, dir part.Direction, err error) {
	angle, radius, dir = 90, b.cfg.BendRadius, part.Up
	if v, ok := pa.kw["angle"]; ok {
		if angle, err = toFloat64(v); err != nil {
			return 0, 0, "", fmt.Errorf("%s: angle: %w", form, err)
		}
	}
	if v, ok := pa.kw["radius"]; ok {
		if radius, err = toFloat64(v); err != nil {
			return 0, 0, "", fmt.Errorf("%s: radius: %w", form, err)
		}
	}
	if v, ok := pa.kw["direction"]; ok {
		if dir, err = toDirection(v); err != nil {
			return 0, 0, "", fmt.Errorf("%s: direction: %w", form, err)
		}
	}
	return angle, radius, dir, nil
}

// featureID reads the optional leading id string of flange and fold.
func (b *builder) featureID(pa kwArgs, prefix string) (string, error) {
	if len(pa.positional) == 0 {
		return b.nextID(prefix), nil
	}
	return toString(pa.positional[0])
}

// (flange "f1" :edge "edge_top_0" :height 20 :angle 90 :radius 1 :direction :up)
func (b *builder) flangeFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	id, err := b.featureID(pa, "f")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("flange: id: %w", err)
	}
	f := part.Flange{ID: id}

	v, ok := pa.kw["edge"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("flange %s: :edge is required", id)
	}
	if f.EdgeID, err = toString(v); err != nil {
		return zygo.SexpNull, fmt.Errorf("flange %s: edge: %w", id, err)
	}
	v, ok = pa.kw["height"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("flange %s: :height is required", id)
	}
	if f.Height, err = toFloat64(v); err != nil {
		return zygo.SexpNull, fmt.Errorf("flange %s: height: %w", id, err)
	}
	if f.Angle, f.BendRadius, f.Direction, err = b.bendArgs("flange "+id, pa); err != nil {
		return zygo.SexpNull, err
	}

	b.flanges = append(b.flanges, f)
	return &zygo.SexpStr{S: id}, nil
}

// (fold "d1" :from (pt 0 40) :to (pt 100 40) :angle 90 :location :centerline)
// (fold "d1" :line l1)   where l1 is a line sketched on the base face
// (fold "d2" :face "flange_f1" :from (pt 0 10) :to (pt 100 10))
func (b *builder) foldFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	id, err := b.featureID(pa, "d")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("fold: id: %w", err)
	}
	pf := pendingFold{fold: part.Fold{ID: id, FaceID: part.BaseFaceID}}
	f := &pf.fold

	if v, ok := pa.kw["face"]; ok {
		if f.FaceID, err = toKeywordString(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("fold %s: face: %w", id, err)
		}
	}
	if v, ok := pa.kw["line"]; ok {
		e, isEntity := v.(*sexpEntity)
		ln, isLine := sketch.Line{}, false
		if isEntity {
			ln, isLine = e.e.(sketch.Line)
		}
		if !isLine {
			return zygo.SexpNull, fmt.Errorf("fold %s: line: expected a sketch line, got %s", id, v.SexpString(nil))
		}
		pf.line = &ln
	} else {
		from, ok1 := pa.kw["from"]
		to, ok2 := pa.kw["to"]
		if !ok1 || !ok2 {
			return zygo.SexpNull, fmt.Errorf("fold %s: needs :line or both :from and :to", id)
		}
		if f.LineStart, err = toPoint(from); err != nil {
			return zygo.SexpNull, fmt.Errorf("fold %s: from: %w", id, err)
		}
		if f.LineEnd, err = toPoint(to); err != nil {
			return zygo.SexpNull, fmt.Errorf("fold %s: to: %w", id, err)
		}
	}
	if v, ok := pa.kw["location"]; ok {
		if f.FoldLocation, err = toLocation(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("fold %s: location: %w", id, err)
		}
	}
	if f.Angle, f.BendRadius, f.Direction, err = b.bendArgs("fold "+id, pa); err != nil {
		return zygo.SexpNull, err
	}

	b.folds = append(b.folds, pf)
	return &zygo.SexpStr{S: id}, nil
}

// (edge 0) or (edge 2 :bottom) names a base profile edge.
func (b *builder) edgeFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("edge requires an index")
	}
	i, err := toFloat64(pa.positional[0])
	if err != nil || i < 0 || i != math.Trunc(i) {
		return zygo.SexpNull, fmt.Errorf("edge: index must be a non-negative integer")
	}
	kind := part.BaseTop
	if pa.has("bottom") {
		kind = part.BaseBottom
	}
	return &zygo.SexpStr{S: part.EdgeKey{Kind: kind, Index: int(i)}.ID()}, nil
}

// (tip "f1") or (tip "f1" :inner) names the tip edge of a flange or fold
// declared earlier in the script.
func (b *builder) tipFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	keys, pa, err := b.tipKeys("tip", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	if pa.has("inner") {
		return &zygo.SexpStr{S: keys[1].ID()}, nil
	}
	return &zygo.SexpStr{S: keys[0].ID()}, nil
}

// (side "f1" :start) or (side "f1" :end) names a side edge.
func (b *builder) sideFn(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	keys, pa, err := b.tipKeys("side", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	if pa.has("end") {
		return &zygo.SexpStr{S: keys[3].ID()}, nil
	}
	return &zygo.SexpStr{S: keys[2].ID()}, nil
}

func (b *builder) tipKeys(form string, args []zygo.Sexp) ([4]part.EdgeKey, kwArgs, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return [4]part.EdgeKey{}, pa, fmt.Errorf("%s requires a feature id", form)
	}
	id, err := toString(pa.positional[0])
	if err != nil {
		return [4]part.EdgeKey{}, pa, fmt.Errorf("%s: %w", form, err)
	}
	return part.TipEdgeIDs(id, b.isFold(id)), pa, nil
}
