package geom

import (
	"math"
	"sort"
)

// Triangulate ear-clips outer (with optional holes) into triangles. The
// returned vertex list is outer followed by each hole; triangles index into
// it and are wound CCW. Holes are stitched into the outer ring through a
// bridge edge to the nearest visible vertex before clipping.
func Triangulate(outer Polygon, holes []Polygon) ([]Point2D, [][3]int) {
	outer = EnsureCCW(outer)
	verts := append([]Point2D(nil), outer...)
	ring := make([]int, len(outer))
	for i := range ring {
		ring[i] = i
	}

	type hole struct {
		idx  []int
		maxI int
	}
	var hs []hole
	for _, h := range holes {
		if len(h) < 3 {
			continue
		}
		cw := Reverse(EnsureCCW(h))
		base := len(verts)
		verts = append(verts, cw...)
		idx := make([]int, len(cw))
		best := 0
		for i := range cw {
			idx[i] = base + i
			if cw[i].X > cw[best].X {
				best = i
			}
		}
		hs = append(hs, hole{idx: idx, maxI: best})
	}
	sort.SliceStable(hs, func(a, b int) bool {
		return verts[hs[a].idx[hs[a].maxI]].X > verts[hs[b].idx[hs[b].maxI]].X
	})

	for hi, h := range hs {
		m := verts[h.idx[h.maxI]]
		pending := [][]int{h.idx}
		for _, other := range hs[hi+1:] {
			pending = append(pending, other.idx)
		}
		bridge := bridgeVertex(verts, ring, pending, m)
		merged := make([]int, 0, len(ring)+len(h.idx)+2)
		merged = append(merged, ring[:bridge+1]...)
		for k := 0; k <= len(h.idx); k++ {
			merged = append(merged, h.idx[(h.maxI+k)%len(h.idx)])
		}
		merged = append(merged, ring[bridge])
		merged = append(merged, ring[bridge+1:]...)
		ring = merged
	}

	return verts, earClip(verts, ring)
}

// bridgeVertex returns the position in ring of the closest vertex that can
// be joined to m without crossing the ring, the hole itself or any hole
// still to be merged.
func bridgeVertex(verts []Point2D, ring []int, pending [][]int, m Point2D) int {
	order := make([]int, len(ring))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return verts[ring[order[a]]].Dist(m) < verts[ring[order[b]]].Dist(m)
	})
	for _, pos := range order {
		v := verts[ring[pos]]
		if !crossesRing(verts, ring, m, v) && !crossesAny(verts, pending, m, v) {
			return pos
		}
	}
	return order[0]
}

func crossesAny(verts []Point2D, rings [][]int, a, b Point2D) bool {
	for _, r := range rings {
		if crossesRing(verts, r, a, b) {
			return true
		}
	}
	return false
}

func crossesRing(verts []Point2D, ring []int, a, b Point2D) bool {
	for i := range ring {
		c := verts[ring[i]]
		d := verts[ring[(i+1)%len(ring)]]
		if segmentsCross(a, b, c, d) {
			return true
		}
	}
	return false
}

// segmentsCross reports a proper crossing; shared endpoints do not count.
func segmentsCross(a, b, c, d Point2D) bool {
	for _, p := range []Point2D{c, d} {
		if p.Near(a, Epsilon) || p.Near(b, Epsilon) {
			return false
		}
	}
	d1 := b.Sub(a).Cross(c.Sub(a))
	d2 := b.Sub(a).Cross(d.Sub(a))
	d3 := d.Sub(c).Cross(a.Sub(c))
	d4 := d.Sub(c).Cross(b.Sub(c))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func earClip(verts []Point2D, ring []int) [][3]int {
	var tris [][3]int
	r := append([]int(nil), ring...)
	stall := 0
	i := 0
	for len(r) > 3 {
		n := len(r)
		prev, cur, next := r[(i+n-1)%n], r[i%n], r[(i+1)%n]
		if isEar(verts, r, prev, cur, next) || stall >= n {
			tris = append(tris, [3]int{prev, cur, next})
			r = append(r[:i%n], r[i%n+1:]...)
			stall = 0
			if i >= len(r) {
				i = 0
			}
			continue
		}
		stall++
		i = (i + 1) % n
	}
	if len(r) == 3 {
		tris = append(tris, [3]int{r[0], r[1], r[2]})
	}
	return tris
}

func isEar(verts []Point2D, ring []int, ia, ib, ic int) bool {
	a, b, c := verts[ia], verts[ib], verts[ic]
	if b.Sub(a).Cross(c.Sub(b)) <= Epsilon {
		return false
	}
	for _, k := range ring {
		p := verts[k]
		if p.Near(a, Epsilon) || p.Near(b, Epsilon) || p.Near(c, Epsilon) {
			continue
		}
		if inTriangle(p, a, b, c) {
			return false
		}
	}
	return true
}

func inTriangle(p, a, b, c Point2D) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))
	return d1 >= -Epsilon && d2 >= -Epsilon && d3 >= -Epsilon &&
		math.Abs(d1)+math.Abs(d2)+math.Abs(d3) > Epsilon
}
