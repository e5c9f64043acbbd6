// Package topology derives the addressable 3D edges of a sheet-metal part:
// the base profile edges, the tip and side edges of every flange and fold,
// and the parent/opposite relations between them. Edges live in an arena
// built once per snapshot.
package topology

import (
	"math"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
)

// PartEdge is one selectable edge. Normal is the outward in-plane
// direction of its face; FaceNormal is perpendicular to the face surface.
type PartEdge struct {
	ID         string    `json:"id"`
	Start      geom.Vec3 `json:"start"`
	End        geom.Vec3 `json:"end"`
	FaceID     string    `json:"faceId"`
	Normal     geom.Vec3 `json:"normal"`
	FaceNormal geom.Vec3 `json:"faceNormal"`
}

// Dir returns the unit direction from Start to End.
func (e PartEdge) Dir() geom.Vec3 { return e.End.Sub(e.Start).Unit() }

// Length returns the edge length.
func (e PartEdge) Length() float64 { return e.End.Sub(e.Start).Len() }

// BaseEdges emits edge_top_i (z = thickness, facing +Z) and edge_bot_i
// (z = 0, facing -Z) for every edge of a CCW profile.
func BaseEdges(profile geom.Polygon, thickness float64) []PartEdge {
	out := make([]PartEdge, 0, 2*len(profile))
	for i := range profile {
		a, b := profile.Edge(i)
		n := b.Sub(a).Perp().Unit().At3(0)
		top := part.EdgeKey{Kind: part.BaseTop, Index: i}
		bot := part.EdgeKey{Kind: part.BaseBottom, Index: i}
		out = append(out,
			PartEdge{ID: top.ID(), Start: a.At3(thickness), End: b.At3(thickness), FaceID: part.BaseFaceID, Normal: n, FaceNormal: geom.UnitZ},
			PartEdge{ID: bot.ID(), Start: a.At3(0), End: b.At3(0), FaceID: part.BaseFaceID, Normal: n, FaceNormal: geom.UnitZ.Scale(-1)},
		)
	}
	return out
}

// Frame is the bend cross-section frame at a parent edge: U points away
// from the parent face in its plane, W is the side the bend rotates toward.
type Frame struct {
	Start, End geom.Vec3
	U, W       geom.Vec3
}

// NewFrame builds the frame for a bend hosted on parent.
func NewFrame(parent PartEdge, dir part.Direction) Frame {
	return Frame{
		Start: parent.Start,
		End:   parent.End,
		U:     parent.Normal.Unit(),
		W:     parent.FaceNormal.Unit().Scale(dir.Sign()),
	}
}

// At maps a cross-section offset (u, w) at the start (t=0) or end (t=1) of
// the parent edge into world space.
func (f Frame) At(t float64, off geom.Point2D) geom.Vec3 {
	base := f.Start.Add(f.End.Sub(f.Start).Scale(t))
	return base.Add(f.U.Scale(off.X)).Add(f.W.Scale(off.Y))
}

// Dir maps a cross-section direction into world space.
func (f Frame) Dir(d geom.Point2D) geom.Vec3 {
	return f.U.Scale(d.X).Add(f.W.Scale(d.Y)).Unit()
}

// Section holds the cross-section vectors of a bend of angle a (radians)
// and inner radius r.
type Section struct {
	ArcEnd  geom.Point2D // inner surface at the end of the arc
	Tangent geom.Point2D // flat extension direction
	Perp    geom.Point2D // inner to outer surface
}

// NewSection computes the cross-section for angleDeg and radius.
func NewSection(angleDeg, radius float64) Section {
	a := angleDeg * math.Pi / 180
	sin, cos := math.Sin(a), math.Cos(a)
	return Section{
		ArcEnd:  geom.Pt(radius*sin, radius*(1-cos)),
		Tangent: geom.Pt(cos, sin),
		Perp:    geom.Pt(sin, -cos),
	}
}

// InnerTip returns the inner surface point after a flat run of h.
func (s Section) InnerTip(h float64) geom.Point2D { return s.ArcEnd.Add(s.Tangent.Scale(h)) }

// OuterTip returns the outer surface point after a flat run of h.
func (s Section) OuterTip(h, thickness float64) geom.Point2D {
	return s.InnerTip(h).Add(s.Perp.Scale(thickness))
}

// tipEdges builds the outer tip, inner tip and the two side edges of a
// bend whose flat run is hs at the parent start and he at the parent end.
func tipEdges(keys [4]part.EdgeKey, faceID string, fr Frame, sec Section, thickness, hs, he float64) [4]PartEdge {
	innerS, innerE := fr.At(0, sec.InnerTip(hs)), fr.At(1, sec.InnerTip(he))
	outerS, outerE := fr.At(0, sec.OuterTip(hs, thickness)), fr.At(1, sec.OuterTip(he, thickness))
	tangent := fr.Dir(sec.Tangent)
	perp := fr.Dir(sec.Perp)
	along := fr.End.Sub(fr.Start).Unit()
	return [4]PartEdge{
		{ID: keys[0].ID(), Start: outerS, End: outerE, FaceID: faceID, Normal: tangent, FaceNormal: perp},
		{ID: keys[1].ID(), Start: innerS, End: innerE, FaceID: faceID, Normal: tangent, FaceNormal: perp.Scale(-1)},
		{ID: keys[2].ID(), Start: innerS, End: outerS, FaceID: faceID, Normal: along.Scale(-1), FaceNormal: tangent},
		{ID: keys[3].ID(), Start: innerE, End: outerE, FaceID: faceID, Normal: along, FaceNormal: tangent},
	}
}

// ComputeFlangeTipEdges returns the outer tip, inner tip, start side and
// end side edges of flange f hosted on parent. A flange always bends toward
// the face normal of its parent so its root spans the parent's thickness;
// part.Normalize moves downward flanges to the opposite edge.
func ComputeFlangeTipEdges(parent PartEdge, f part.Flange, thickness float64) [4]PartEdge {
	fr := NewFrame(parent, part.Up)
	sec := NewSection(f.Angle, f.BendRadius)
	return tipEdges(part.TipEdgeIDs(f.ID, false), part.FlangeFaceID(f.ID), fr, sec, thickness, f.Height, f.Height)
}

// ComputeFoldTipEdges is ComputeFlangeTipEdges for a fold, whose moving
// region may have a different height at each end of the fold line.
func ComputeFoldTipEdges(parent PartEdge, f part.Fold, thickness, heightStart, heightEnd float64) [4]PartEdge {
	fr := NewFrame(parent, f.Direction)
	sec := NewSection(f.Angle, f.BendRadius)
	return tipEdges(part.TipEdgeIDs(f.ID, true), part.FoldFaceID(f.ID), fr, sec, thickness, heightStart, heightEnd)
}
