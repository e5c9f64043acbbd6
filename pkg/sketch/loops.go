package sketch

import (
	"math"
	"sort"

	"github.com/chazu/tinsnip/pkg/geom"
)

// CutoutKind tags how a cutout can be regenerated.
type CutoutKind string

const (
	CutoutCircle  CutoutKind = "circle"
	CutoutRect    CutoutKind = "rect"
	CutoutPolygon CutoutKind = "polygon"
)

// Cutout is a closed loop inside the profile. Center/Radius are set for
// circles, Origin/Width/Height for rectangles; Polygon is always set.
type Cutout struct {
	Kind    CutoutKind   `json:"type"`
	Center  geom.Point2D `json:"center"`
	Radius  float64      `json:"radius,omitempty"`
	Origin  geom.Point2D `json:"origin"`
	Width   float64      `json:"width,omitempty"`
	Height  float64      `json:"height,omitempty"`
	Polygon geom.Polygon `json:"polygon"`
}

// Extraction is the result of ExtractProfileAndCutouts.
type Extraction struct {
	Profile geom.Polygon `json:"profile"`
	Cutouts []Cutout     `json:"cutouts"`
}

// ExtractProfileAndCutouts finds every closed loop in entities. Lines,
// rectangle sides and sampled arcs are merged into one edge graph whose
// vertices are matched within geom.Tolerance; circles are standalone loops.
// The loop with the largest area is the profile, the rest are cutouts.
func ExtractProfileAndCutouts(entities []Entity) (Extraction, bool) {
	g := newEdgeGraph(geom.Tolerance)
	var circles []Circle
	var rects []Rect
	for _, e := range entities {
		switch v := e.(type) {
		case Line:
			g.addSegment(v.Start, v.End)
		case Rect:
			rects = append(rects, v)
			c := v.Corners()
			for i := range c {
				a, b := c.Edge(i)
				g.addSegment(a, b)
			}
		case Arc:
			pts := ArcPoints(v)
			for i := 1; i < len(pts); i++ {
				g.addSegment(pts[i-1], pts[i])
			}
		case Circle:
			circles = append(circles, v)
		}
	}

	loops := g.loops()
	for _, c := range circles {
		loops = append(loops, CirclePolygon(c.Center, c.Radius))
	}
	if len(loops) == 0 {
		return Extraction{}, false
	}
	for i := range loops {
		loops[i] = geom.EnsureCCW(loops[i])
	}
	sort.SliceStable(loops, func(a, b int) bool {
		return geom.SignedArea(loops[a]) > geom.SignedArea(loops[b])
	})

	ex := Extraction{Profile: loops[0]}
	for _, l := range loops[1:] {
		ex.Cutouts = append(ex.Cutouts, tagCutout(l, circles, rects))
	}
	return ex, true
}

func tagCutout(loop geom.Polygon, circles []Circle, rects []Rect) Cutout {
	for _, c := range circles {
		if len(loop) == CircleSegments && loop[0].Near(geom.Pt(c.Center.X+c.Radius, c.Center.Y), geom.Tolerance) {
			return Cutout{Kind: CutoutCircle, Center: c.Center, Radius: c.Radius, Polygon: loop}
		}
	}
	for _, r := range rects {
		if sameLoop(loop, r.Corners()) {
			c := r.Corners()
			return Cutout{Kind: CutoutRect, Origin: c[0], Width: c[2].X - c[0].X, Height: c[2].Y - c[0].Y, Polygon: loop}
		}
	}
	return Cutout{Kind: CutoutPolygon, Polygon: loop}
}

// sameLoop reports whether a and b hold the same vertices within tolerance,
// regardless of starting vertex.
func sameLoop(a, b geom.Polygon) bool {
	if len(a) != len(b) {
		return false
	}
	for _, p := range a {
		found := false
		for _, q := range b {
			if p.Near(q, geom.Tolerance) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RectCutout builds a rectangle cutout directly from an entity.
func RectCutout(r Rect) Cutout {
	c := r.Corners()
	return Cutout{Kind: CutoutRect, Origin: c[0], Width: c[2].X - c[0].X, Height: c[2].Y - c[0].Y, Polygon: c}
}

// Map returns c with every point passed through fn, a rigid motion.
// Rectangles may end up rotated and come back as polygons.
func (c Cutout) Map(fn func(geom.Point2D) geom.Point2D) Cutout {
	out := Cutout{Kind: c.Kind, Radius: c.Radius, Polygon: make(geom.Polygon, len(c.Polygon))}
	for i, v := range c.Polygon {
		out.Polygon[i] = fn(v)
	}
	switch c.Kind {
	case CutoutCircle:
		out.Center = fn(c.Center)
	case CutoutRect:
		out.Kind = CutoutPolygon
	}
	return out
}

// CircleCutout builds a circle cutout directly from an entity.
func CircleCutout(c Circle) Cutout {
	return Cutout{Kind: CutoutCircle, Center: c.Center, Radius: c.Radius, Polygon: CirclePolygon(c.Center, c.Radius)}
}

type bucket struct{ x, y int64 }

// edgeGraph merges segment endpoints into vertices by bucketing coordinates
// on a tol-sized grid and searching the 3x3 neighbourhood.
type edgeGraph struct {
	tol     float64
	verts   []geom.Point2D
	buckets map[bucket][]int
	edges   [][2]int
	adj     map[int][]int // vertex -> edge indices
}

func newEdgeGraph(tol float64) *edgeGraph {
	return &edgeGraph{tol: tol, buckets: map[bucket][]int{}, adj: map[int][]int{}}
}

func (g *edgeGraph) key(p geom.Point2D) bucket {
	return bucket{int64(math.Round(p.X / g.tol)), int64(math.Round(p.Y / g.tol))}
}

func (g *edgeGraph) vertex(p geom.Point2D) int {
	k := g.key(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, v := range g.buckets[bucket{k.x + dx, k.y + dy}] {
				if g.verts[v].Near(p, g.tol) {
					return v
				}
			}
		}
	}
	id := len(g.verts)
	g.verts = append(g.verts, p)
	g.buckets[k] = append(g.buckets[k], id)
	return id
}

func (g *edgeGraph) addSegment(a, b geom.Point2D) {
	va, vb := g.vertex(a), g.vertex(b)
	if va == vb {
		return
	}
	e := len(g.edges)
	g.edges = append(g.edges, [2]int{va, vb})
	g.adj[va] = append(g.adj[va], e)
	g.adj[vb] = append(g.adj[vb], e)
}

// loops walks each unused edge until the walk returns to its first vertex.
// Walks that dead-end are dropped; their edges stay consumed.
func (g *edgeGraph) loops() []geom.Polygon {
	used := make([]bool, len(g.edges))
	var out []geom.Polygon
	for e0 := range g.edges {
		if used[e0] {
			continue
		}
		used[e0] = true
		origin, cur := g.edges[e0][0], g.edges[e0][1]
		path := []int{origin}
		closed := false
		for {
			if cur == origin {
				closed = true
				break
			}
			path = append(path, cur)
			next := -1
			for _, e := range g.adj[cur] {
				if !used[e] {
					next = e
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			if g.edges[next][0] == cur {
				cur = g.edges[next][1]
			} else {
				cur = g.edges[next][0]
			}
		}
		if !closed || len(path) < 3 {
			continue
		}
		poly := make(geom.Polygon, len(path))
		for i, v := range path {
			poly[i] = g.verts[v]
		}
		out = append(out, poly)
	}
	return out
}
