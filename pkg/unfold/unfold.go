// Package unfold computes the flat pattern of a sheet-metal part: the
// planar regions of material laid out in 2D, with the paired bend lines
// that bound each bend-allowance zone.
package unfold

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/chazu/tinsnip/pkg/bend"
	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
	"github.com/chazu/tinsnip/pkg/topology"
)

// RegionType distinguishes the base face from bent material.
type RegionType string

const (
	RegionBase   RegionType = "base"
	RegionFlange RegionType = "flange"
)

// FlatRegion is one planar piece of the unfolded pattern.
type FlatRegion struct {
	ID      string       `json:"id"`
	Type    RegionType   `json:"type"`
	Polygon geom.Polygon `json:"polygon"`
}

// BendLine marks one boundary of a bend-allowance zone. Lines come in
// pairs sharing a label: zone start, then zone end.
type BendLine struct {
	Start  geom.Point2D `json:"start"`
	End    geom.Point2D `json:"end"`
	Angle  float64      `json:"angle"` // degrees; negative for downward bends
	Radius float64      `json:"radius"`
	Label  string       `json:"label"`
}

// Length returns the Euclidean length of the line.
func (b BendLine) Length() float64 { return b.Start.Dist(b.End) }

// FlatPattern is the unfolded part. It is derived wholesale from a
// snapshot and never mutated.
type FlatPattern struct {
	Regions       []FlatRegion    `json:"regions"`
	BendLines     []BendLine      `json:"bendLines"`
	Cutouts       []sketch.Cutout `json:"cutouts,omitempty"`
	BoundingBox   geom.BBox       `json:"boundingBox"`
	OverallWidth  float64         `json:"overallWidth"`
	OverallHeight float64         `json:"overallHeight"`
}

// Bends returns the canonical line of each bend: every second bend line.
func (p FlatPattern) Bends() []BendLine {
	return lo.Filter(p.BendLines, func(_ BendLine, i int) bool { return i%2 == 1 })
}

// flatEdge is an edge of the flat pattern that a flange can grow from.
type flatEdge struct {
	start, end geom.Point2D
	outward    geom.Point2D
	face       string
}

// flatFace lays a face of the 3D model into the pattern: face point p
// lands at origin + x*p.X + y*p.Y.
type flatFace struct {
	origin, x, y geom.Point2D
}

var identity = flatFace{x: geom.Pt(1, 0), y: geom.Pt(0, 1)}

func (f flatFace) at(p geom.Point2D) geom.Point2D {
	return f.origin.Add(f.x.Scale(p.X)).Add(f.y.Scale(p.Y))
}

func (f flatFace) dir(d geom.Point2D) geom.Point2D {
	return f.x.Scale(d.X).Add(f.y.Scale(d.Y))
}

// local is the inverse of at.
func (f flatFace) local(v geom.Point2D) geom.Point2D {
	d := v.Sub(f.origin)
	return geom.Pt(d.Dot(f.x), d.Dot(f.y))
}

// unfolder carries the flat-edge and flat-face maps across one pattern.
type unfolder struct {
	p     FlatPattern
	edges map[string]flatEdge
	faces map[string]flatFace
}

// ComputeFlatPattern unfolds s. The base region is the original profile;
// each fold translates its moving material outward by its bend allowance
// and each flange becomes a strip BA + height long on its parent edge.
// Features are laid out from the same 3D model the mesh is built from, so
// every placed flange and fold appears here, including folds drawn on bent
// faces. Cutouts follow the face they were settled onto.
func ComputeFlatPattern(s part.Snapshot) FlatPattern {
	s = part.Normalize(s)
	m := topology.Build(s)
	u := &unfolder{
		edges: map[string]flatEdge{},
		faces: map[string]flatFace{part.BaseFaceID: identity},
	}
	if len(s.Profile) >= 3 {
		u.p.Regions = append(u.p.Regions, FlatRegion{ID: "base", Type: RegionBase, Polygon: s.Profile.Clone()})
	}

	for i := range m.Fixed {
		a, b := m.Fixed.Edge(i)
		fe := flatEdge{start: a, end: b, outward: b.Sub(a).Perp().Unit(), face: part.BaseFaceID}
		u.edges[part.EdgeKey{Kind: part.BaseTop, Index: i}.ID()] = fe
		u.edges[part.EdgeKey{Kind: part.BaseBottom, Index: i}.ID()] = fe
	}

	folds, flanges := 0, 0
	for _, b := range m.Bends() {
		if b.Fold {
			g, _ := m.Fold(b.Feature)
			folds++
			u.unfoldFold(g, fmt.Sprintf("F%d", folds))
			continue
		}
		f, _ := s.FlangeByID(b.Feature)
		parent, ok := u.edges[f.EdgeID]
		if !ok {
			continue
		}
		flanges++
		ba := bend.BendAllowance(f.BendRadius, s.KFactor, s.Thickness, f.Angle)
		angle := f.Angle
		if topology.UserFacingDirection(f.EdgeID) == part.Down {
			angle = -angle
		}
		u.unfoldStrip(f.ID, parent, ba, f.Height, angle, f.BendRadius, fmt.Sprintf("B%d", flanges))
	}

	for _, pc := range m.Cutouts() {
		if pc.Face == part.BaseFaceID {
			u.p.Cutouts = append(u.p.Cutouts, pc.Cutout)
			continue
		}
		if ff, ok := u.faces[pc.Face]; ok {
			u.p.Cutouts = append(u.p.Cutouts, pc.Cutout.Map(ff.at))
		}
	}

	p := u.p
	p.BoundingBox = geom.Bounds(lo.Map(p.Regions, func(r FlatRegion, _ int) geom.Polygon { return r.Polygon })...)
	if !p.BoundingBox.IsEmpty() {
		p.OverallWidth = p.BoundingBox.Width()
		p.OverallHeight = p.BoundingBox.Height()
	}
	return p
}

// unfoldFold lays the moving material of a fold flat beyond the bend zone.
// Reflecting a vertex at signed distance d across the effective line and
// pushing it out by 2d + BA along the normal leaves it displaced by BA.
// Geometry is in the host face's coordinates and mapped through its flat
// placement.
func (u *unfolder) unfoldFold(g topology.FoldGeometry, label string) {
	host, ok := u.faces[g.Host]
	if !ok {
		return
	}
	n := g.Normal
	moved := make(geom.Polygon, len(g.Moving))
	for i, v := range g.Moving {
		d := geom.SignedDistance(v, g.Start, n)
		mirrored := v.Sub(n.Scale(2 * d))
		moved[i] = host.at(mirrored.Add(n.Scale(2*d + g.Allowance)))
	}
	u.p.Regions = append(u.p.Regions, FlatRegion{ID: g.Fold.ID, Type: RegionFlange, Polygon: moved})

	angle := g.Fold.Angle
	if g.Fold.Direction == part.Down {
		angle = -angle
	}
	flatN := host.dir(n)
	off := flatN.Scale(g.Allowance)
	start, end := host.at(g.Start), host.at(g.End)
	u.p.BendLines = append(u.p.BendLines,
		BendLine{Start: start, End: end, Angle: angle, Radius: g.Fold.BendRadius, Label: label},
		BendLine{Start: start.Add(off), End: end.Add(off), Angle: angle, Radius: g.Fold.BendRadius, Label: label},
	)

	face := part.FoldFaceID(g.Fold.ID)
	u.carry(g, host, face, off)
	u.faces[face] = flatFace{origin: start.Add(off), x: host.dir(g.Axis()), y: flatN}
	u.registerTips(g.Fold.ID, true, face,
		start.Add(flatN.Scale(g.Allowance+g.HeightStart)),
		end.Add(flatN.Scale(g.Allowance+g.HeightEnd)),
		start.Add(off), end.Add(off), flatN)
}

// carry shifts the flat edges of the host face lying beyond fold g along
// with the material the fold moves, and trims edges crossing its line.
func (u *unfolder) carry(g topology.FoldGeometry, host flatFace, face string, shift geom.Point2D) {
	const eps = 1e-6
	for id, e := range u.edges {
		if e.face != g.Host {
			continue
		}
		ds, de := g.Beyond(host.local(e.start)), g.Beyond(host.local(e.end))
		switch {
		case ds > eps && de < -eps:
			e.start = e.start.Lerp(e.end, ds/(ds-de))
		case de > eps && ds < -eps:
			e.end = e.end.Lerp(e.start, de/(de-ds))
		case (ds > eps || de > eps) && ds >= -eps && de >= -eps:
			e.start, e.end = e.start.Add(shift), e.end.Add(shift)
			e.face = face
		default:
			continue
		}
		u.edges[id] = e
	}
}

// unfoldStrip extends parent outward by BA + height into a quadrilateral
// region and records its bend lines, flat face and tip edges.
func (u *unfolder) unfoldStrip(id string, parent flatEdge, ba, height, angle, radius float64, label string) {
	o := parent.outward
	a, b := parent.start, parent.end
	tipA := a.Add(o.Scale(ba + height))
	tipB := b.Add(o.Scale(ba + height))
	u.p.Regions = append(u.p.Regions, FlatRegion{ID: id, Type: RegionFlange, Polygon: geom.Polygon{a, b, tipB, tipA}})

	zoneA, zoneB := a.Add(o.Scale(ba)), b.Add(o.Scale(ba))
	u.p.BendLines = append(u.p.BendLines,
		BendLine{Start: a, End: b, Angle: angle, Radius: radius, Label: label},
		BendLine{Start: zoneA, End: zoneB, Angle: angle, Radius: radius, Label: label},
	)
	face := part.FlangeFaceID(id)
	u.faces[face] = flatFace{origin: zoneA, x: b.Sub(a).Unit(), y: o}
	u.registerTips(id, false, face, tipA, tipB, a, b, o)
}

// registerTips records a feature's tip and side edges under the same ids
// the 3D model uses. Both tip surfaces unfold onto the same flat edge.
func (u *unfolder) registerTips(id string, fold bool, face string, tipA, tipB, rootA, rootB, outward geom.Point2D) {
	keys := part.TipEdgeIDs(id, fold)
	tip := flatEdge{start: tipA, end: tipB, outward: outward, face: face}
	u.edges[keys[0].ID()] = tip
	u.edges[keys[1].ID()] = tip
	along := tipB.Sub(tipA).Unit()
	if along.Len() < geom.Epsilon {
		along = rootB.Sub(rootA).Unit()
	}
	u.edges[keys[2].ID()] = flatEdge{start: tipA, end: rootA, outward: along.Scale(-1), face: face}
	u.edges[keys[3].ID()] = flatEdge{start: rootB, end: tipB, outward: along, face: face}
}

// FoldBack rotates a flat strip point about the parent edge by angleDeg,
// the inverse of unfolding a flange: the point at distance BA + h from the
// parent edge lands at the 3D position of the flange's inner surface.
// It returns the (u, w) cross-section coordinates.
func FoldBack(distance, allowance, radius, angleDeg float64) geom.Point2D {
	sec := topology.NewSection(angleDeg, radius)
	if distance <= allowance {
		t := angleDeg * math.Pi / 180 * distance / math.Max(allowance, geom.Epsilon)
		return geom.Pt(radius*math.Sin(t), radius*(1-math.Cos(t)))
	}
	return sec.InnerTip(distance - allowance)
}
