package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x, y, w, h float64) Polygon {
	return Polygon{Pt(x, y), Pt(x+w, y), Pt(x+w, y+h), Pt(x, y+h)}
}

func TestSignedAreaWinding(t *testing.T) {
	r := rect(0, 0, 100, 60)
	assert.InDelta(t, 6000, SignedArea(r), 1e-9)
	assert.InDelta(t, -6000, SignedArea(Reverse(r)), 1e-9)

	ccw := EnsureCCW(Reverse(r))
	assert.Greater(t, SignedArea(ccw), 0.0)
	assert.Equal(t, r[0], ccw[0], "first vertex is kept")
}

func TestBoundsAndCentroid(t *testing.T) {
	b := Bounds(rect(10, 20, 30, 40), Polygon{Pt(-5, 0)})
	assert.Equal(t, Pt(-5, 0), b.Min)
	assert.Equal(t, Pt(40, 60), b.Max)
	assert.InDelta(t, 45, b.Width(), 1e-9)
	assert.True(t, EmptyBBox().IsEmpty())

	c := Centroid(rect(0, 0, 10, 4))
	assert.InDelta(t, 5, c.X, 1e-9)
	assert.InDelta(t, 2, c.Y, 1e-9)
}

func TestClipPolygonByLine(t *testing.T) {
	r := rect(0, 0, 100, 60)

	// Keep y <= 40.
	kept := ClipPolygonByLine(r, Pt(0, 40), Pt(0, 1))
	require.Len(t, kept, 4)
	assert.InDelta(t, 4000, SignedArea(kept), 1e-9)

	// Keep the part above the line by flipping the normal.
	moving := ClipPolygonByLine(r, Pt(0, 40), Pt(0, -1))
	assert.InDelta(t, 2000, SignedArea(moving), 1e-9)

	// Line outside the polygon on the kept side leaves it untouched.
	assert.Len(t, ClipPolygonByLine(r, Pt(0, 100), Pt(0, 1)), 4)

	// Line outside on the discarded side removes everything.
	assert.Less(t, len(ClipPolygonByLine(r, Pt(0, -10), Pt(0, 1))), 3)
}

func TestClipDiagonal(t *testing.T) {
	r := rect(0, 0, 10, 10)
	n := Pt(1, 1).Unit()
	got := ClipPolygonByLine(r, Pt(5, 5), n)
	require.Len(t, got, 3)
	assert.InDelta(t, 50, SignedArea(got), 1e-9)
}

func TestLineSpan(t *testing.T) {
	r := rect(0, 0, 100, 60)
	s, e, ok := LineSpan(r, Pt(50, 30), Pt(1, 0))
	require.True(t, ok)
	assert.InDelta(t, 0, s.X, 1e-9)
	assert.InDelta(t, 100, e.X, 1e-9)

	_, _, ok = LineSpan(r, Pt(0, 200), Pt(1, 0))
	assert.False(t, ok)
}

func TestRayExtent(t *testing.T) {
	r := rect(0, 40, 100, 20)
	assert.InDelta(t, 20, RayExtent(r, Pt(10, 40), Pt(0, 1)), 1e-9)
	assert.InDelta(t, 0, RayExtent(r, Pt(10, 0), Pt(0, -1)), 1e-9)
}

func triArea(v []Point2D, tris [][3]int) float64 {
	var sum float64
	for _, t := range tris {
		sum += SignedArea(Polygon{v[t[0]], v[t[1]], v[t[2]]})
	}
	return sum
}

func circle(c Point2D, r float64, n int) Polygon {
	out := make(Polygon, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = Pt(c.X+r*math.Cos(a), c.Y+r*math.Sin(a))
	}
	return out
}

func TestTriangulateConvex(t *testing.T) {
	v, tris := Triangulate(rect(0, 0, 100, 60), nil)
	assert.Len(t, tris, 2)
	assert.InDelta(t, 6000, triArea(v, tris), 1e-6)
}

func TestTriangulateConcave(t *testing.T) {
	l := Polygon{Pt(0, 0), Pt(60, 0), Pt(60, 20), Pt(20, 20), Pt(20, 60), Pt(0, 60)}
	v, tris := Triangulate(l, nil)
	assert.Len(t, tris, 4)
	assert.InDelta(t, SignedArea(l), triArea(v, tris), 1e-6)
	for _, tr := range tris {
		assert.Greater(t, SignedArea(Polygon{v[tr[0]], v[tr[1]], v[tr[2]]}), 0.0)
	}
}

func TestTriangulateWithHoles(t *testing.T) {
	outer := rect(0, 0, 100, 60)
	holes := []Polygon{rect(10, 10, 20, 20), circle(Pt(70, 30), 10, 32)}
	v, tris := Triangulate(outer, holes)

	want := SignedArea(outer) - SignedArea(holes[0]) - SignedArea(holes[1])
	assert.InDelta(t, want, triArea(v, tris), 1e-6)
	// n + Σm + 2h − 2 triangles for a bridged polygon.
	assert.Len(t, tris, 4+4+32+2*2-2)
}
