package topology

import (
	"math"

	"github.com/chazu/tinsnip/pkg/bend"
	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
)

// FoldNormal returns the unit normal of the fold line (face-local
// coordinates) oriented toward the face corner farthest from the line's
// midpoint. That side of the line is the one that moves.
func FoldNormal(lineStart, lineEnd geom.Point2D, faceWidth, faceHeight float64) geom.Point2D {
	n := lineEnd.Sub(lineStart).Perp().Unit()
	mid := lineStart.Lerp(lineEnd, 0.5)
	corners := [4]geom.Point2D{
		geom.Pt(0, 0), geom.Pt(faceWidth, 0), geom.Pt(faceWidth, faceHeight), geom.Pt(0, faceHeight),
	}
	far := corners[0]
	best := -1.0
	for _, c := range corners {
		if d := c.Dist(mid); d > best+geom.Epsilon {
			far, best = c, d
		}
	}
	if far.Sub(mid).Dot(n) < 0 {
		n = n.Scale(-1)
	}
	return n
}

// zoneStart is the offset of the bend-allowance zone start from the
// sketched line, along the fold normal. The zone start is the effective
// fold line used by the fixed profile, the 3D edges and the flat pattern.
func zoneStart(loc part.FoldLocation, allowance float64) float64 {
	switch loc {
	case part.MaterialInside:
		return 0
	case part.MaterialOutside:
		return -allowance
	default:
		return -allowance / 2
	}
}

// rootedNormal orients the normal of a fold line on a bent face away from
// the bend the face hangs from. ok is false when the line runs straight
// away from the bend and neither side is farther from it.
func rootedNormal(lineStart, lineEnd geom.Point2D) (geom.Point2D, bool) {
	n := lineEnd.Sub(lineStart).Perp().Unit()
	if math.Abs(n.Y) < 1e-6 {
		return geom.Point2D{}, false
	}
	if n.Y < 0 {
		n = n.Scale(-1)
	}
	return n, true
}

// FoldGeometry is a fold resolved against the face it is drawn on. All
// points are in the host face's coordinates.
type FoldGeometry struct {
	Fold        part.Fold
	Host        string       // face the fold is drawn on
	Start, End  geom.Point2D // effective line clipped to the face
	Normal      geom.Point2D // toward the moving side
	Allowance   float64
	Moving      geom.Polygon // material beyond the effective line
	HeightStart float64
	HeightEnd   float64
}

// Length returns the length of the effective fold line.
func (g FoldGeometry) Length() float64 { return g.Start.Dist(g.End) }

// Axis returns the unit direction of the effective fold line.
func (g FoldGeometry) Axis() geom.Point2D { return g.End.Sub(g.Start).Unit() }

// Beyond returns the signed distance of host point p past the effective
// line, positive on the moving side.
func (g FoldGeometry) Beyond(p geom.Point2D) float64 {
	return geom.SignedDistance(p, g.Start, g.Normal)
}

// ToFace maps a host face point to the face the fold creates: x along the
// fold line from Start, y away from it.
func (g FoldGeometry) ToFace(p geom.Point2D) geom.Point2D {
	d := p.Sub(g.Start)
	return geom.Pt(d.Dot(g.Axis()), d.Dot(g.Normal))
}

// FaceOutline is the moving material in the coordinates of the fold's face.
func (g FoldGeometry) FaceOutline() geom.Polygon {
	out := make(geom.Polygon, len(g.Moving))
	for i, v := range g.Moving {
		out[i] = g.ToFace(v)
	}
	return out
}

// ResolveFoldOn clips face at the effective line of f. The base face takes
// its moving side from FoldNormal; on a bent face the side away from the
// bend moves, and a line that meets the bend is rejected. ok is false with
// a reason when the fold cannot be placed.
func ResolveFoldOn(face *Face, f part.Fold, kFactor, thickness float64) (FoldGeometry, Reason, bool) {
	box := face.Bounds()
	ls, le := f.LineStart.Add(box.Min), f.LineEnd.Add(box.Min)
	dir := le.Sub(ls)
	if dir.Len() < geom.Epsilon {
		return FoldGeometry{}, ReasonFoldLine, false
	}
	n := FoldNormal(f.LineStart, f.LineEnd, box.Width(), box.Height())
	if face.Rooted {
		var ok bool
		if n, ok = rootedNormal(ls, le); !ok {
			return FoldGeometry{}, ReasonFoldLine, false
		}
	}
	ba := bend.BendAllowance(f.BendRadius, kFactor, thickness, f.Angle)
	ls = ls.Add(n.Scale(zoneStart(f.Location(), ba)))

	start, end, ok := geom.LineSpan(face.Outline, ls, dir)
	if !ok {
		return FoldGeometry{}, ReasonNoMaterial, false
	}
	if face.Rooted && (start.Y <= geom.Tolerance || end.Y <= geom.Tolerance) {
		return FoldGeometry{}, ReasonFoldLine, false
	}
	moving := geom.ClipPolygonByLine(face.Outline, start, n.Scale(-1))
	fixed := geom.ClipPolygonByLine(face.Outline, start, n)
	if len(moving) < 3 || len(fixed) < 3 {
		return FoldGeometry{}, ReasonNoMaterial, false
	}
	return FoldGeometry{
		Fold:        f,
		Host:        face.ID,
		Start:       start,
		End:         end,
		Normal:      n,
		Allowance:   ba,
		Moving:      moving,
		HeightStart: geom.RayExtent(moving, start, n),
		HeightEnd:   geom.RayExtent(moving, end, n),
	}, "", true
}

// profileFace is the base face without its folds applied.
func profileFace(s part.Snapshot) *Face {
	return &Face{
		ID:      part.BaseFaceID,
		Outline: s.Profile,
		X:       geom.Vec3{X: 1},
		Y:       geom.Vec3{Y: 1},
		Normal:  geom.UnitZ,
	}
}

// ResolveFold resolves a fold drawn on the base face of s.
func ResolveFold(s part.Snapshot, f part.Fold) (FoldGeometry, bool) {
	s = part.Normalize(s)
	g, _, ok := ResolveFoldOn(profileFace(s), f, s.KFactor, s.Thickness)
	return g, ok
}

// VirtualParent is the edge a fold bends about: the effective fold line on
// the top surface of host for upward folds, on its lower surface for
// downward ones.
func (g FoldGeometry) VirtualParent(host *Face, thickness float64) PartEdge {
	w := thickness
	if g.Fold.Direction == part.Down {
		w = 0
	}
	return PartEdge{
		ID:         part.FoldFaceID(g.Fold.ID),
		Start:      host.At(g.Start, w),
		End:        host.At(g.End, w),
		FaceID:     host.ID,
		Normal:     host.Dir(g.Normal).Unit(),
		FaceNormal: host.Normal,
	}
}

// FixedProfile clips the profile at every resolvable base-face fold,
// leaving the material that stays flat.
func FixedProfile(s part.Snapshot) geom.Polygon {
	s = part.Normalize(s)
	base := profileFace(s)
	fixed := s.Profile.Clone()
	for _, f := range sortedFolds(s.Folds) {
		if !f.OnBaseFace() {
			continue
		}
		g, _, ok := ResolveFoldOn(base, f, s.KFactor, s.Thickness)
		if !ok {
			continue
		}
		clipped := geom.ClipPolygonByLine(fixed, g.Start, g.Normal)
		if len(clipped) >= 3 {
			fixed = clipped
		}
	}
	return fixed
}
