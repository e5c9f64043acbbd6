package topology

import (
	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
)

// Face is a flat face of the part: the base plate, the flat run of a
// flange, or the material a fold moves. Outline, fold lines and holes are
// in face coordinates; Origin, X, Y and Normal embed them in 3D with w = 0
// on the lower surface and w = thickness on the top surface.
//
// Sketch and fold-line coordinates are face-local: relative to the minimum
// corner of the outline's bounding box (see Min).
type Face struct {
	ID      string
	Owner   string       // feature that created the face; empty for the base
	Outline geom.Polygon // all material of the face
	Fixed   geom.Polygon // Outline less the material folds on it move
	Rooted  bool         // joined along y = 0 to the bend that made it
	Folds   []string     // placed folds drawn on the face, in order
	Holes   []geom.Polygon

	Origin geom.Vec3
	X, Y   geom.Vec3
	Normal geom.Vec3 // lower to top surface
}

// Bounds returns the bounding box of the outline.
func (f *Face) Bounds() geom.BBox { return geom.Bounds(f.Outline) }

// Min is the face coordinate of the face-local origin.
func (f *Face) Min() geom.Point2D { return f.Bounds().Min }

// At places face point p at depth w above the lower surface.
func (f *Face) At(p geom.Point2D, w float64) geom.Vec3 {
	return f.Origin.Add(f.X.Scale(p.X)).Add(f.Y.Scale(p.Y)).Add(f.Normal.Scale(w))
}

// Dir maps an in-plane face direction into 3D.
func (f *Face) Dir(d geom.Point2D) geom.Vec3 {
	return f.X.Scale(d.X).Add(f.Y.Scale(d.Y))
}

// Project is the inverse of At.
func (f *Face) Project(v geom.Vec3) (geom.Point2D, float64) {
	d := v.Sub(f.Origin)
	return geom.Pt(d.Dot(f.X), d.Dot(f.Y)), d.Dot(f.Normal)
}

// ProjectDir splits a 3D direction into its in-plane face components and
// its component along the face normal.
func (f *Face) ProjectDir(d geom.Vec3) (geom.Point2D, float64) {
	return geom.Pt(d.Dot(f.X), d.Dot(f.Y)), d.Dot(f.Normal)
}

// BaseFace returns the base plate of s. Its face coordinates are profile
// coordinates.
func BaseFace(s part.Snapshot) *Face {
	return &Face{
		ID:      part.BaseFaceID,
		Outline: s.Profile.Clone(),
		Fixed:   FixedProfile(s),
		Origin:  geom.Vec3{},
		X:       geom.Vec3{X: 1},
		Y:       geom.Vec3{Y: 1},
		Normal:  geom.UnitZ,
	}
}

// bendFace builds the face beyond a bend. Its x axis runs along the parent
// edge from its start and its y axis away from the bend along the flat
// run. topInner says whether the top surface continues the inner surface
// of the bend, the surface on the parent side.
func bendFace(id, owner string, outline geom.Polygon, fr Frame, sec Section, thickness float64, topInner bool) *Face {
	perp := fr.Dir(sec.Perp)
	f := &Face{
		ID:      id,
		Owner:   owner,
		Outline: outline,
		Fixed:   outline.Clone(),
		Rooted:  true,
		X:       fr.End.Sub(fr.Start).Unit(),
		Y:       fr.Dir(sec.Tangent),
	}
	if topInner {
		f.Normal = perp.Scale(-1)
		f.Origin = fr.At(0, sec.OuterTip(0, thickness))
	} else {
		f.Normal = perp
		f.Origin = fr.At(0, sec.ArcEnd)
	}
	return f
}

// flangeFace is the flat run of flange f on parent, a rectangle as long as
// the parent edge and as tall as the flange.
func flangeFace(host *Face, parent PartEdge, f part.Flange, thickness float64) *Face {
	fr := NewFrame(parent, part.Up)
	sec := NewSection(f.Angle, f.BendRadius)
	l := parent.Length()
	outline := geom.Polygon{geom.Pt(0, 0), geom.Pt(l, 0), geom.Pt(l, f.Height), geom.Pt(0, f.Height)}
	topInner := host == nil || parent.FaceNormal.Dot(host.Normal) >= -geom.Epsilon
	return bendFace(part.FlangeFaceID(f.ID), f.ID, outline, fr, sec, thickness, topInner)
}

// foldFace is the material fold g moves, placed beyond its bend.
func foldFace(g FoldGeometry, parent PartEdge, thickness float64) *Face {
	fr := NewFrame(parent, g.Fold.Direction)
	sec := NewSection(g.Fold.Angle, g.Fold.BendRadius)
	return bendFace(part.FoldFaceID(g.Fold.ID), g.Fold.ID, g.FaceOutline(), fr, sec, thickness, g.Fold.Direction != part.Down)
}

// containsPolygon reports whether every vertex of inner lies inside outer.
func containsPolygon(outer, inner geom.Polygon) bool {
	if len(outer) < 3 || len(inner) < 3 {
		return false
	}
	for _, v := range inner {
		if !outer.Contains(v) {
			return false
		}
	}
	return true
}
