package geom

import (
	"math"
	"sort"
)

// Polygon is a simple closed polygon. The last vertex implicitly connects
// back to the first.
type Polygon []Point2D

// Edge returns the i-th edge (vertex i to vertex i+1, wrapping).
func (p Polygon) Edge(i int) (Point2D, Point2D) {
	return p[i], p[(i+1)%len(p)]
}

// Clone returns a copy of p.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// SignedArea returns the shoelace area of p; positive for CCW winding.
func SignedArea(p Polygon) float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, b := p.Edge(i)
		sum += a.Cross(b)
	}
	return sum / 2
}

// Reverse returns p with its winding reversed, keeping the first vertex.
func Reverse(p Polygon) Polygon {
	out := make(Polygon, 0, len(p))
	if len(p) == 0 {
		return out
	}
	out = append(out, p[0])
	for i := len(p) - 1; i > 0; i-- {
		out = append(out, p[i])
	}
	return out
}

// EnsureCCW returns p with counter-clockwise winding. The first vertex is
// kept so that callers matching on it (circle cutouts) still can.
func EnsureCCW(p Polygon) Polygon {
	if SignedArea(p) < 0 {
		return Reverse(p)
	}
	return p.Clone()
}

// Centroid returns the area centroid of p, or the vertex mean for
// degenerate polygons.
func Centroid(p Polygon) Point2D {
	a := SignedArea(p)
	if math.Abs(a) < Epsilon {
		var c Point2D
		for _, v := range p {
			c = c.Add(v)
		}
		if len(p) > 0 {
			c = c.Scale(1 / float64(len(p)))
		}
		return c
	}
	var cx, cy float64
	for i := range p {
		u, v := p.Edge(i)
		cross := u.Cross(v)
		cx += (u.X + v.X) * cross
		cy += (u.Y + v.Y) * cross
	}
	return Point2D{X: cx / (6 * a), Y: cy / (6 * a)}
}

// Contains reports whether pt lies strictly inside p (even-odd rule).
func (p Polygon) Contains(pt Point2D) bool {
	inside := false
	n := len(p)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y) + a.X
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// BBox is an axis-aligned bounding rectangle.
type BBox struct {
	Min Point2D `json:"min"`
	Max Point2D `json:"max"`
}

// Width returns the X extent.
func (b BBox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the Y extent.
func (b BBox) Height() float64 { return b.Max.Y - b.Min.Y }

// IsEmpty reports whether the box holds no points.
func (b BBox) IsEmpty() bool { return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y }

// Extend returns b grown to include p.
func (b BBox) Extend(p Point2D) BBox {
	if b.IsEmpty() {
		return BBox{Min: p, Max: p}
	}
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	return b
}

// Expand returns b grown by margin on every side.
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		Min: Point2D{X: b.Min.X - margin, Y: b.Min.Y - margin},
		Max: Point2D{X: b.Max.X + margin, Y: b.Max.Y + margin},
	}
}

// EmptyBBox returns a box that Extend treats as holding no points.
func EmptyBBox() BBox {
	return BBox{
		Min: Point2D{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point2D{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// Bounds returns the bounding box of every vertex of polys.
func Bounds(polys ...Polygon) BBox {
	b := EmptyBBox()
	for _, p := range polys {
		for _, v := range p {
			b = b.Extend(v)
		}
	}
	return b
}

// SignedDistance returns the distance of p from the line through origin with
// unit normal n; positive on the side n points to.
func SignedDistance(p, origin, n Point2D) float64 {
	return p.Sub(origin).Dot(n)
}

// ClipPolygonByLine is a Sutherland–Hodgman half-plane clip keeping the
// vertices whose signed distance to the line (origin, unit normal n) is <= 0.
// An intersection point is inserted wherever consecutive vertices straddle
// the line. Results with fewer than 3 vertices mean no material remains.
func ClipPolygonByLine(poly Polygon, origin, n Point2D) Polygon {
	var out Polygon
	count := len(poly)
	for i := 0; i < count; i++ {
		cur := poly[i]
		next := poly[(i+1)%count]
		dc := SignedDistance(cur, origin, n)
		dn := SignedDistance(next, origin, n)
		if dc <= 0 {
			out = append(out, cur)
		}
		if (dc < 0 && dn > 0) || (dc > 0 && dn < 0) {
			t := dc / (dc - dn)
			out = append(out, cur.Lerp(next, t))
		}
	}
	return dedupe(out, Epsilon)
}

// dedupe drops consecutive vertices closer than tol, including the
// wrap-around pair.
func dedupe(p Polygon, tol float64) Polygon {
	if len(p) == 0 {
		return p
	}
	out := Polygon{p[0]}
	for _, v := range p[1:] {
		if !v.Near(out[len(out)-1], tol) {
			out = append(out, v)
		}
	}
	for len(out) > 1 && out[len(out)-1].Near(out[0], tol) {
		out = out[:len(out)-1]
	}
	return out
}

// Dedupe drops consecutive vertices closer than tol.
func Dedupe(p Polygon, tol float64) Polygon { return dedupe(p, tol) }

// lineHits returns the parameters t (along dir from origin) at which the
// infinite line crosses the boundary of poly, sorted ascending.
func lineHits(poly Polygon, origin, dir Point2D) []float64 {
	var ts []float64
	for i := range poly {
		a, b := poly.Edge(i)
		e := b.Sub(a)
		den := dir.Cross(e)
		if math.Abs(den) < Epsilon {
			continue
		}
		w := a.Sub(origin)
		t := w.Cross(e) / den
		s := w.Cross(dir) / den
		if s >= -Epsilon && s <= 1+Epsilon {
			ts = append(ts, t)
		}
	}
	sort.Float64s(ts)
	return ts
}

// LineSpan intersects the infinite line (origin, dir) with poly and returns
// the outermost crossing points, ordered along dir. ok is false when the
// line misses the polygon.
func LineSpan(poly Polygon, origin, dir Point2D) (start, end Point2D, ok bool) {
	d := dir.Unit()
	ts := lineHits(poly, origin, d)
	if len(ts) < 2 || ts[len(ts)-1]-ts[0] < Epsilon {
		return Point2D{}, Point2D{}, false
	}
	return origin.Add(d.Scale(ts[0])), origin.Add(d.Scale(ts[len(ts)-1])), true
}

// RayExtent returns how far the ray from origin along dir travels before it
// leaves poly for the last time. Zero when the ray never crosses poly.
func RayExtent(poly Polygon, origin, dir Point2D) float64 {
	ts := lineHits(poly, origin, dir.Unit())
	if len(ts) == 0 {
		return 0
	}
	return math.Max(0, ts[len(ts)-1])
}
