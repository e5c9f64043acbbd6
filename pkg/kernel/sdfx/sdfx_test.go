package sdfx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/kernel"
)

func quad() []kernel.Triangle {
	a := geom.Vec3{X: 0, Y: 0, Z: 0}
	b := geom.Vec3{X: 10, Y: 0, Z: 0}
	c := geom.Vec3{X: 10, Y: 10, Z: 0}
	d := geom.Vec3{X: 0, Y: 10, Z: 0}
	return []kernel.Triangle{{a, b, c}, {a, c, d}}
}

func TestFlatShade(t *testing.T) {
	k := New()
	mesh, err := k.FlatShade("base", quad())
	if err != nil {
		t.Fatalf("FlatShade failed: %v", err)
	}
	if mesh.TriangleCount() != 2 {
		t.Fatalf("triangle count = %d, want 2", mesh.TriangleCount())
	}
	if mesh.VertexCount() != 6 {
		t.Fatalf("vertex count = %d, want 6 (non-indexed stream)", mesh.VertexCount())
	}
	// Verify vertex and normal array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	for i := 0; i < len(mesh.Normals); i += 3 {
		if math.Abs(float64(mesh.Normals[i+2])-1) > 1e-6 {
			t.Errorf("normal %d = %v, want +Z", i/3, mesh.Normals[i:i+3])
		}
	}
	if mesh.Feature != "base" {
		t.Errorf("feature = %q, want base", mesh.Feature)
	}
}

func TestFlatShadeDegenerate(t *testing.T) {
	k := New()
	p := geom.Vec3{X: 1, Y: 1, Z: 1}
	mesh, err := k.FlatShade("f", []kernel.Triangle{{p, p, p}})
	if err != nil {
		t.Fatalf("FlatShade failed: %v", err)
	}
	for _, n := range mesh.Normals {
		if math.IsNaN(float64(n)) {
			t.Fatal("degenerate triangle produced a NaN normal")
		}
	}
}

func TestFlatShadeRejectsNaN(t *testing.T) {
	k := New()
	bad := geom.Vec3{X: math.NaN()}
	if _, err := k.FlatShade("f", []kernel.Triangle{{bad, bad, bad}}); err == nil {
		t.Fatal("expected error for non-finite vertex")
	}
}

func TestSaveSTL(t *testing.T) {
	k := New()
	mesh, err := k.FlatShade("base", quad())
	if err != nil {
		t.Fatalf("FlatShade failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "part.stl")
	if err := k.SaveSTL(path, []*kernel.Mesh{mesh}); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Binary STL: 80-byte header, 4-byte count, 50 bytes per triangle.
	if want := int64(84 + 50*2); info.Size() != want {
		t.Errorf("file size = %d, want %d", info.Size(), want)
	}
}

func TestSaveSTLEmpty(t *testing.T) {
	k := New()
	if err := k.SaveSTL(filepath.Join(t.TempDir(), "x.stl"), nil); err == nil {
		t.Fatal("expected error for empty mesh list")
	}
}
