package sketch

import (
	"math"

	"github.com/chazu/tinsnip/pkg/geom"
)

// CircleSegments is the number of vertices used to approximate a circle.
const CircleSegments = 32

// ExtractProfile returns the closed base profile described by entities, CCW
// wound. A rectangle wins outright; otherwise the line entities are walked
// endpoint to endpoint until the path closes. When neither yields a loop the
// largest loop found by ExtractProfileAndCutouts is used, which covers
// circles and arcs. ok is false when no closed loop exists.
func ExtractProfile(entities []Entity) (geom.Polygon, bool) {
	for _, e := range entities {
		if r, ok := e.(Rect); ok {
			return r.Corners(), true
		}
	}
	if p, ok := traceLines(lines(entities)); ok {
		return p, true
	}
	ex, ok := ExtractProfileAndCutouts(entities)
	if !ok {
		return nil, false
	}
	return ex.Profile, true
}

func lines(entities []Entity) []Line {
	var out []Line
	for _, e := range entities {
		if l, ok := e.(Line); ok {
			out = append(out, l)
		}
	}
	return out
}

// traceLines walks unused lines from each possible start until one path
// returns to its origin. Every step consumes a line, so the walk ends after
// at most len(ls) steps per start.
func traceLines(ls []Line) (geom.Polygon, bool) {
	if len(ls) < 3 {
		return nil, false
	}
	for start := range ls {
		if p, ok := traceFrom(ls, start); ok {
			return geom.EnsureCCW(p), true
		}
	}
	return nil, false
}

func traceFrom(ls []Line, start int) (geom.Polygon, bool) {
	used := make([]bool, len(ls))
	used[start] = true
	path := geom.Polygon{ls[start].Start, ls[start].End}
	edges := 1
	for {
		tail := path[len(path)-1]
		next := -1
		var far geom.Point2D
		for i, l := range ls {
			if used[i] {
				continue
			}
			if l.Start.Near(tail, geom.Tolerance) {
				next, far = i, l.End
				break
			}
			if l.End.Near(tail, geom.Tolerance) {
				next, far = i, l.Start
				break
			}
		}
		if next < 0 {
			return nil, false
		}
		used[next] = true
		edges++
		if edges >= 3 && far.Near(path[0], geom.Tolerance) {
			return path, true
		}
		path = append(path, far)
	}
}

// CirclePolygon samples a circle into CircleSegments vertices, CCW,
// starting at angle zero.
func CirclePolygon(c geom.Point2D, r float64) geom.Polygon {
	out := make(geom.Polygon, CircleSegments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / CircleSegments
		out[i] = geom.Pt(c.X+r*math.Cos(a), c.Y+r*math.Sin(a))
	}
	return out
}

// ArcPoints samples an arc with the circle's angular density (at least two
// segments), endpoints included.
func ArcPoints(a Arc) []geom.Point2D {
	sweep := a.EndAngle - a.StartAngle
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	n := int(math.Ceil(sweep / (2 * math.Pi) * CircleSegments))
	if n < 2 {
		n = 2
	}
	out := make([]geom.Point2D, n+1)
	for i := range out {
		t := a.StartAngle + sweep*float64(i)/float64(n)
		out[i] = geom.Pt(a.Center.X+a.Radius*math.Cos(t), a.Center.Y+a.Radius*math.Sin(t))
	}
	return out
}
