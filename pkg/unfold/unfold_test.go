package unfold

import (
	"math"
	"math/rand"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/tinsnip/pkg/bend"
	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
	"github.com/chazu/tinsnip/pkg/topology"
)

func plate() part.Snapshot {
	return part.Snapshot{
		Profile:   geom.Polygon{geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(100, 60), geom.Pt(0, 60)},
		Thickness: 1,
		KFactor:   0.44,
	}
}

func flange(id, edge string, h float64) part.Flange {
	return part.Flange{ID: id, EdgeID: edge, Height: h, Angle: 90, Direction: part.Up, BendRadius: 1}
}

var ba90 = bend.BendAllowance(1, 0.44, 1, 90)

func TestSingleFlangeScenario(t *testing.T) {
	s := plate()
	s.Flanges = []part.Flange{flange("f1", "edge_top_0", 20)}
	p := ComputeFlatPattern(s)

	require.Len(t, p.Regions, 2)
	require.Len(t, p.BendLines, 2)
	assert.InDelta(t, 82.26, p.OverallHeight, 0.01)
	assert.InDelta(t, 100, p.OverallWidth, 1e-9)
	assert.Equal(t, RegionBase, p.Regions[0].Type)
	assert.Equal(t, "B1", p.BendLines[0].Label)
	assert.Equal(t, p.BendLines[0].Label, p.BendLines[1].Label)
	assert.InDelta(t, -ba90, p.BendLines[1].Start.Y, 1e-9)
	assert.Len(t, p.Bends(), 1)
}

func TestFlangeRoundTrip(t *testing.T) {
	s := plate()
	s.Flanges = []part.Flange{flange("f1", "edge_top_0", 20)}
	p := ComputeFlatPattern(s)
	m := topology.Build(s)

	parent, ok := m.Edge("edge_top_0")
	require.True(t, ok)
	inner, ok := m.Edge("flange_tip_inner_f1")
	require.True(t, ok)

	// Distance of the flat tip from the parent edge is BA + height.
	strip := p.Regions[1].Polygon
	dist := -strip[2].Y
	assert.InDelta(t, ba90+20, dist, 1e-9)

	fr := topology.NewFrame(parent, part.Up)
	for i, tt := range []float64{0, 1} {
		got := fr.At(tt, FoldBack(dist, ba90, 1, 90))
		want := []geom.Vec3{inner.Start, inner.End}[i]
		assert.True(t, got.Near(want, 1e-9), "refolded %v, want %v", got, want)
	}

	// Points inside the allowance zone land on the bend arc.
	mid := FoldBack(ba90/2, ba90, 1, 90)
	assert.InDelta(t, 1, mid.Sub(geom.Pt(0, 1)).Len(), 1e-9)
}

func TestNestedFlanges(t *testing.T) {
	s := plate()
	s.Flanges = []part.Flange{
		flange("f2", "flange_tip_outer_f1", 10),
		flange("f1", "edge_top_0", 20),
	}
	p := ComputeFlatPattern(s)
	require.Len(t, p.Regions, 3)
	require.Len(t, p.BendLines, 4)
	assert.InDelta(t, 60+2*ba90+30, p.OverallHeight, 1e-9)
	assert.Equal(t, "B2", p.BendLines[3].Label)
}

func TestFoldBendLines(t *testing.T) {
	s := plate()
	s.Folds = []part.Fold{{ID: "d1", LineStart: geom.Pt(0, 40), LineEnd: geom.Pt(100, 40), Angle: 90, Direction: part.Up, BendRadius: 1}}
	p := ComputeFlatPattern(s)

	require.Len(t, p.Regions, 2)
	require.Len(t, p.BendLines, 2)
	a, b := p.BendLines[0], p.BendLines[1]
	assert.Equal(t, "F1", a.Label)

	da := a.End.Sub(a.Start).Unit()
	db := b.End.Sub(b.Start).Unit()
	assert.InDelta(t, 0, da.Cross(db), 1e-12, "bend lines are parallel")

	n := topology.FoldNormal(s.Folds[0].LineStart, s.Folds[0].LineEnd, 100, 60)
	assert.InDelta(t, ba90, b.Start.Sub(a.Start).Dot(n), 1e-9)
	assert.InDelta(t, ba90, b.End.Sub(a.End).Dot(n), 1e-9)

	// The moving material is displaced by BA beyond the original outline.
	assert.InDelta(t, 60+ba90, p.OverallHeight, 1e-9)
}

func TestDiagonalFoldBendLinesParallel(t *testing.T) {
	s := plate()
	s.Folds = []part.Fold{{ID: "d", LineStart: geom.Pt(0, 10), LineEnd: geom.Pt(100, 50), Angle: 60, BendRadius: 2, FoldLocation: part.MaterialOutside}}
	p := ComputeFlatPattern(s)
	require.Len(t, p.BendLines, 2)
	ba := bend.BendAllowance(2, 0.44, 1, 60)
	n := topology.FoldNormal(s.Folds[0].LineStart, s.Folds[0].LineEnd, 100, 60)
	a, b := p.BendLines[0], p.BendLines[1]
	assert.InDelta(t, 0, a.End.Sub(a.Start).Cross(b.End.Sub(b.Start)), 1e-9)
	assert.InDelta(t, ba, b.Start.Sub(a.Start).Dot(n), 1e-9)
}

func TestFlangeOnFoldTip(t *testing.T) {
	s := plate()
	s.Folds = []part.Fold{{ID: "d1", LineStart: geom.Pt(0, 40), LineEnd: geom.Pt(100, 40), Angle: 90, BendRadius: 1, FoldLocation: part.MaterialInside}}
	s.Flanges = []part.Flange{flange("f1", "fold_tip_outer_d1", 5)}
	p := ComputeFlatPattern(s)
	require.Len(t, p.Regions, 3)
	// Fold moves 40mm of material BA outward; the flange adds BA + 5 more.
	assert.InDelta(t, 60+2*ba90+5, p.OverallHeight, 1e-9)
	assert.Equal(t, []string{"F1", "F1", "B1", "B1"}, []string{
		p.BendLines[0].Label, p.BendLines[1].Label, p.BendLines[2].Label, p.BendLines[3].Label,
	})
}

func TestDownFacingFlangeAngle(t *testing.T) {
	s := plate()
	s.Flanges = []part.Flange{flange("f1", "edge_bot_2", 10), flange("f2", "edge_top_1", 10)}
	p := ComputeFlatPattern(s)
	bends := p.Bends()
	require.Len(t, bends, 2)
	angles := map[string]float64{}
	for _, b := range bends {
		angles[b.Label] = b.Angle
	}
	// Flanges resolve in id order: f1 is B1.
	assert.Equal(t, -90.0, angles["B1"])
	assert.Equal(t, 90.0, angles["B2"])
}

func TestFlatPatternOrderIndependent(t *testing.T) {
	base := plate()
	base.Flanges = []part.Flange{
		flange("a", "edge_top_0", 20),
		flange("b", "flange_tip_outer_a", 10),
		flange("c", "edge_top_2", 5),
		flange("d", "flange_tip_inner_c", 7),
		flange("e", "flange_side_s_a", 3),
	}
	want := ComputeFlatPattern(base)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		s := base
		s.Flanges = append([]part.Flange(nil), base.Flanges...)
		rng.Shuffle(len(s.Flanges), func(i, j int) { s.Flanges[i], s.Flanges[j] = s.Flanges[j], s.Flanges[i] })
		assert.Equal(t, want, ComputeFlatPattern(s))
	}
}

func TestEmptyProfile(t *testing.T) {
	p := ComputeFlatPattern(part.Snapshot{Thickness: 1})
	assert.Empty(t, p.Regions)
	assert.Zero(t, p.OverallWidth)
	assert.False(t, math.IsInf(p.OverallHeight, 0))
}

func TestDownwardFlangeUnfoldsLikeOppositeEdge(t *testing.T) {
	down := plate()
	f := flange("f1", "edge_top_0", 20)
	f.Direction = part.Down
	down.Flanges = []part.Flange{f}

	up := plate()
	up.Flanges = []part.Flange{flange("f1", "edge_bot_0", 20)}

	p := ComputeFlatPattern(down)
	assert.Equal(t, ComputeFlatPattern(up), p)
	require.Len(t, p.Bends(), 1)
	assert.Equal(t, -90.0, p.Bends()[0].Angle)
}

func TestFoldOnFlangeFace(t *testing.T) {
	s := plate()
	s.Flanges = []part.Flange{
		flange("f1", "edge_top_0", 20),
		flange("f2", "flange_tip_outer_f1", 5),
	}
	s.Folds = []part.Fold{{
		ID: "d", FaceID: "flange_f1", LineStart: geom.Pt(0, 10), LineEnd: geom.Pt(100, 10),
		Angle: 90, Direction: part.Up, BendRadius: 1, FoldLocation: part.MaterialInside,
	}}
	s.FaceSketches = []sketch.FaceSketch{{FaceID: "flange_f1", Entities: []sketch.Entity{
		sketch.Circle{ID: "near", Center: geom.Pt(50, 5), Radius: 2},
		sketch.Circle{ID: "far", Center: geom.Pt(50, 15), Radius: 2},
	}}}
	p := ComputeFlatPattern(s)

	require.Len(t, p.Regions, 4)
	labels := lo.Map(p.BendLines, func(b BendLine, _ int) string { return b.Label })
	assert.Equal(t, []string{"B1", "B1", "F1", "F1", "B2", "B2"}, labels)

	// The fold line sits 10mm up the flange, past the flange's own zone.
	assert.InDelta(t, -ba90-10, p.BendLines[2].Start.Y, 1e-9)
	assert.InDelta(t, -2*ba90-10, p.BendLines[3].Start.Y, 1e-9)

	fold := p.Regions[2]
	assert.Equal(t, "d", fold.ID)
	box := geom.Bounds(fold.Polygon)
	assert.InDelta(t, -2*ba90-20, box.Min.Y, 1e-9)
	assert.InDelta(t, -2*ba90-10, box.Max.Y, 1e-9)

	// f2 grows from the flange tip, which moved with the folded material.
	assert.InDelta(t, 60+3*ba90+25, p.OverallHeight, 1e-9)

	require.Len(t, p.Cutouts, 2)
	assert.InDelta(t, 50, p.Cutouts[0].Center.X, 1e-9)
	assert.InDelta(t, -ba90-5, p.Cutouts[0].Center.Y, 1e-9)
	assert.InDelta(t, -2*ba90-15, p.Cutouts[1].Center.Y, 1e-9)
}

func TestClockwiseProfileUnfolds(t *testing.T) {
	s := plate()
	s.Profile = geom.Reverse(s.Profile)
	// Edge 3 of the clockwise ring is the bottom side.
	s.Flanges = []part.Flange{flange("f1", "edge_top_3", 20)}
	p := ComputeFlatPattern(s)
	require.Len(t, p.Regions, 2)
	assert.InDelta(t, 82.26, p.OverallHeight, 0.01)
	assert.Greater(t, geom.SignedArea(p.Regions[0].Polygon), 0.0)
}
