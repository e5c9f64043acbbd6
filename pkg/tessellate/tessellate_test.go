package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/kernel"
	"github.com/chazu/tinsnip/pkg/kernel/sdfx"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
	"github.com/chazu/tinsnip/pkg/tessellate"
	"github.com/chazu/tinsnip/pkg/topology"
)

// newKernel returns a fresh sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New()
}

// makePlate returns a 100x60x1 plate snapshot.
func makePlate() part.Snapshot {
	return part.Snapshot{
		Profile:   geom.Polygon{geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(100, 60), geom.Pt(0, 60)},
		Thickness: 1,
		KFactor:   0.44,
	}
}

// signedVolume integrates the enclosed volume of a closed triangle set.
// It is positive when every triangle faces outward.
func signedVolume(tris []kernel.Triangle) float64 {
	var v float64
	for _, t := range tris {
		v += t[0].Dot(t[1].Cross(t[2])) / 6
	}
	return v
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestBaseMeshBox(t *testing.T) {
	s := makePlate()
	tris := tessellate.BaseMesh(s.Profile, nil, s.Thickness)
	// 2 triangles per cap, 2 per wall.
	if len(tris) != 12 {
		t.Fatalf("triangle count = %d, want 12", len(tris))
	}
	if v := signedVolume(tris); abs(v-6000) > 1e-6 {
		t.Errorf("volume = %v, want 6000", v)
	}
}

func TestBaseMeshWithHole(t *testing.T) {
	s := makePlate()
	hole := sketch.CirclePolygon(geom.Pt(50, 30), 10)
	tris := tessellate.BaseMesh(s.Profile, []geom.Polygon{hole}, s.Thickness)

	capTris := 4 + 32 + 2 - 2
	walls := 2 * (4 + 32)
	if len(tris) != 2*capTris+walls {
		t.Fatalf("triangle count = %d, want %d", len(tris), 2*capTris+walls)
	}
	want := 6000 - geom.SignedArea(hole)
	if v := signedVolume(tris); abs(v-want) > 1e-6 {
		t.Errorf("volume = %v, want %v", v, want)
	}
}

func TestBaseHolesFromModel(t *testing.T) {
	s := makePlate()
	s.Cutouts = []sketch.Cutout{
		sketch.CircleCutout(sketch.Circle{Center: geom.Pt(50, 30), Radius: 5}),
		sketch.CircleCutout(sketch.Circle{Center: geom.Pt(99, 30), Radius: 5}),
	}
	m := topology.Build(s)
	face, ok := m.Face(part.BaseFaceID)
	if !ok {
		t.Fatal("no base face")
	}
	if len(face.Holes) != 1 {
		t.Fatalf("base holes = %d, want 1", len(face.Holes))
	}
	want := 6000 - geom.SignedArea(face.Holes[0])
	if v := signedVolume(tessellate.BaseMesh(m.Fixed, face.Holes, s.Thickness)); abs(v-want) > 1e-6 {
		t.Errorf("volume = %v, want %v", v, want)
	}
}

func TestBendMesh(t *testing.T) {
	s := makePlate()
	s.Flanges = []part.Flange{{ID: "f1", EdgeID: "edge_top_0", Height: 20, Angle: 90, Direction: part.Up, BendRadius: 1}}
	m := topology.Build(s)
	bends := m.Bends()
	if len(bends) != 1 {
		t.Fatalf("expected 1 bend, got %d", len(bends))
	}

	tris := tessellate.BendMesh(bends[0], s.Thickness)
	// 13 strips of 8 triangles plus two capped ends.
	if len(tris) != 13*8+4 {
		t.Fatalf("triangle count = %d, want %d", len(tris), 13*8+4)
	}

	arc := 100 * (math.Pi / 2) * ((2*2 - 1*1) / 2.0)
	flat := 100.0 * 20 * 1
	if v := signedVolume(tris); abs(v-(arc+flat)) > 5 {
		t.Errorf("volume = %v, want about %v", v, arc+flat)
	}

	// The tip reaches z = thickness + radius + height.
	var maxZ float64
	for _, tr := range tris {
		for _, p := range tr {
			maxZ = math.Max(maxZ, p.Z)
		}
	}
	if abs(maxZ-22) > 1e-6 {
		t.Errorf("max z = %v, want 22", maxZ)
	}
}

func TestTessellatePart(t *testing.T) {
	k := newKernel()
	s := makePlate()
	s.Flanges = []part.Flange{
		{ID: "f1", EdgeID: "edge_top_1", Height: 15, Angle: 90, Direction: part.Up, BendRadius: 1},
		{ID: "f2", EdgeID: "flange_tip_outer_f1", Height: 5, Angle: 45, Direction: part.Up, BendRadius: 1},
	}
	s.Folds = []part.Fold{{ID: "d1", LineStart: geom.Pt(0, 40), LineEnd: geom.Pt(100, 40), Angle: 90, Direction: part.Down, BendRadius: 1}}
	s.Cutouts = []sketch.Cutout{sketch.CircleCutout(sketch.Circle{Center: geom.Pt(50, 52), Radius: 3})}

	m := topology.Build(s)
	meshes, err := tessellate.Tessellate(s, m, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 4 {
		t.Fatalf("expected 4 meshes (base + 3 bends), got %d", len(meshes))
	}
	if meshes[0].Kind != kernel.MeshBase || meshes[0].Feature != "base" {
		t.Errorf("first mesh = %s/%s, want base/base", meshes[0].Kind, meshes[0].Feature)
	}
	kinds := map[string]kernel.MeshKind{}
	for _, mesh := range meshes {
		kinds[mesh.Feature] = mesh.Kind
		if mesh.IsEmpty() {
			t.Errorf("mesh %s is empty", mesh.Feature)
		}
		if len(mesh.Vertices) != len(mesh.Normals) {
			t.Errorf("mesh %s: vertices %d != normals %d", mesh.Feature, len(mesh.Vertices), len(mesh.Normals))
		}
	}
	if kinds["d1"] != kernel.MeshFold || kinds["f2"] != kernel.MeshFlange {
		t.Errorf("unexpected kinds: %v", kinds)
	}

	// The downward fold hangs below the sheet.
	for _, mesh := range meshes {
		if mesh.Feature != "d1" {
			continue
		}
		min, _ := mesh.Bounds()
		if min.Z > -10 {
			t.Errorf("fold min z = %v, want well below 0", min.Z)
		}
	}
}

func TestTessellateNilModel(t *testing.T) {
	meshes, err := tessellate.Tessellate(makePlate(), nil, newKernel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}

func TestDownwardFlangeMeshHangsFromSheet(t *testing.T) {
	s := makePlate()
	s.Flanges = []part.Flange{{ID: "f1", EdgeID: "edge_top_0", Height: 20, Angle: 90, Direction: part.Down, BendRadius: 1}}
	m := topology.Build(s)
	bends := m.Bends()
	if len(bends) != 1 {
		t.Fatalf("expected 1 bend, got %d", len(bends))
	}

	tris := tessellate.BendMesh(bends[0], s.Thickness)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, tr := range tris {
		for _, p := range tr {
			minZ = math.Min(minZ, p.Z)
			maxZ = math.Max(maxZ, p.Z)
		}
	}
	if maxZ > s.Thickness+1e-9 {
		t.Errorf("max z = %v, want the root inside the sheet (<= %v)", maxZ, s.Thickness)
	}
	if abs(minZ+21) > 1e-6 {
		t.Errorf("min z = %v, want -21", minZ)
	}
	if v := signedVolume(tris); v <= 0 {
		t.Errorf("volume = %v, want positive", v)
	}
}

func TestFoldOnFlangeFaceTrimsFlangeMesh(t *testing.T) {
	s := makePlate()
	s.Flanges = []part.Flange{{ID: "f1", EdgeID: "edge_top_0", Height: 20, Angle: 90, Direction: part.Up, BendRadius: 1}}
	s.Folds = []part.Fold{{
		ID: "d", FaceID: "flange_f1", LineStart: geom.Pt(0, 10), LineEnd: geom.Pt(100, 10),
		Angle: 90, Direction: part.Up, BendRadius: 1, FoldLocation: part.MaterialInside,
	}}
	s.FaceSketches = []sketch.FaceSketch{{FaceID: "flange_f1", Entities: []sketch.Entity{
		sketch.Circle{ID: "c1", Center: geom.Pt(50, 5), Radius: 2},
	}}}

	m := topology.Build(s)
	if u := m.Unresolved(); len(u) != 0 {
		t.Fatalf("unresolved: %v", u)
	}
	face, ok := m.Face("flange_f1")
	if !ok || len(face.Holes) != 1 {
		t.Fatalf("flange face = %+v, want one hole", face)
	}
	want := 100*10*1 - geom.SignedArea(face.Holes[0])
	if v := signedVolume(tessellate.FaceMesh(face, s.Thickness)); abs(v-want) > 1e-6 {
		t.Errorf("face volume = %v, want %v", v, want)
	}

	meshes, err := tessellate.Tessellate(s, m, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	for _, mesh := range meshes {
		_, max := mesh.Bounds()
		switch mesh.Feature {
		case "f1":
			// Only the material below the fold line stays on the flange.
			if abs(max.Z-12) > 1e-6 {
				t.Errorf("f1 max z = %v, want 12", max.Z)
			}
		case "d":
			// The fold's frame points up, so the surface nudge lifts it.
			if abs(max.Z-14) > 2*tessellate.SurfaceOffset {
				t.Errorf("fold max z = %v, want 14", max.Z)
			}
		}
	}
}
