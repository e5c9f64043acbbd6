package sketch

import (
	"math"
	"sort"

	"github.com/chazu/tinsnip/pkg/geom"
)

// FoldLine is a sketched line trimmed to the face it crosses.
type FoldLine struct {
	Start geom.Point2D `json:"lineStart"`
	End   geom.Point2D `json:"lineEnd"`
}

// Boundary sides of the face rectangle, as bit flags so a corner can belong
// to two of them.
const (
	sideBottom = 1 << iota
	sideRight
	sideTop
	sideLeft
)

type crossing struct {
	t     float64
	p     geom.Point2D
	sides int
}

// ClassifySketchLineAsFold treats line as infinite and intersects it with
// the face rectangle [0,w]x[0,h]. It qualifies as a fold line only when it
// crosses the boundary at exactly two distinct points that do not lie on
// the same side. The crossings, clamped to the face and ordered along the
// line's direction, become the fold endpoints.
func ClassifySketchLineAsFold(line Line, faceWidth, faceHeight float64) (FoldLine, bool) {
	dir := line.End.Sub(line.Start)
	if dir.Len() < geom.Epsilon || faceWidth <= 0 || faceHeight <= 0 {
		return FoldLine{}, false
	}
	dir = dir.Unit()
	o := line.Start
	const eps = 1e-6

	var hits []crossing
	add := func(t float64, side int) {
		p := o.Add(dir.Scale(t))
		p = geom.Pt(clamp(p.X, 0, faceWidth), clamp(p.Y, 0, faceHeight))
		side |= sidesOf(p, faceWidth, faceHeight, eps)
		for i := range hits {
			if hits[i].p.Near(p, eps) {
				hits[i].sides |= side
				return
			}
		}
		hits = append(hits, crossing{t: t, p: p, sides: side})
	}
	// Horizontal sides.
	if math.Abs(dir.Y) > geom.Epsilon {
		for _, s := range []struct {
			y    float64
			side int
		}{{0, sideBottom}, {faceHeight, sideTop}} {
			t := (s.y - o.Y) / dir.Y
			if x := o.X + t*dir.X; x >= -eps && x <= faceWidth+eps {
				add(t, s.side)
			}
		}
	}
	// Vertical sides.
	if math.Abs(dir.X) > geom.Epsilon {
		for _, s := range []struct {
			x    float64
			side int
		}{{0, sideLeft}, {faceWidth, sideRight}} {
			t := (s.x - o.X) / dir.X
			if y := o.Y + t*dir.Y; y >= -eps && y <= faceHeight+eps {
				add(t, s.side)
			}
		}
	}

	if len(hits) != 2 || hits[0].sides&hits[1].sides != 0 {
		return FoldLine{}, false
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	return FoldLine{Start: hits[0].p, End: hits[1].p}, true
}

// sidesOf reports every face side p lies on.
func sidesOf(p geom.Point2D, w, h, eps float64) int {
	var s int
	if math.Abs(p.Y) <= eps {
		s |= sideBottom
	}
	if math.Abs(p.X-w) <= eps {
		s |= sideRight
	}
	if math.Abs(p.Y-h) <= eps {
		s |= sideTop
	}
	if math.Abs(p.X) <= eps {
		s |= sideLeft
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// FoldCandidate is a face-sketch line accepted as a fold line.
type FoldCandidate struct {
	SketchLineID string `json:"sketchLineId"`
	FoldLine
}

// FoldCandidates classifies every line of fs against a w x h face.
func FoldCandidates(fs FaceSketch, faceWidth, faceHeight float64) []FoldCandidate {
	var out []FoldCandidate
	for _, l := range lines(fs.Entities) {
		if fl, ok := ClassifySketchLineAsFold(l, faceWidth, faceHeight); ok {
			out = append(out, FoldCandidate{SketchLineID: l.ID, FoldLine: fl})
		}
	}
	return out
}

// Cutouts returns the circles and rectangles of fs as cutouts, translated
// from face-local coordinates by offset.
func (fs FaceSketch) Cutouts(offset geom.Point2D) []Cutout {
	var out []Cutout
	for _, e := range fs.Entities {
		switch v := e.(type) {
		case Circle:
			v.Center = v.Center.Add(offset)
			out = append(out, CircleCutout(v))
		case Rect:
			v.Origin = v.Origin.Add(offset)
			out = append(out, RectCutout(v))
		}
	}
	return out
}
