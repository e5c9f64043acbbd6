// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx CAD library: its triangle type supplies the facet
// normals and its STL writer the mesh export.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

func toV3(v geom.Vec3) v3.Vec { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func toSdf(t kernel.Triangle) *sdf.Triangle3 {
	return &sdf.Triangle3{toV3(t[0]), toV3(t[1]), toV3(t[2])}
}

// FlatShade converts triangles to a non-indexed stream with per-triangle
// normals. Degenerate triangles keep their vertices and get a zero normal.
func (k *SdfxKernel) FlatShade(feature string, tris []kernel.Triangle) (*kernel.Mesh, error) {
	numVerts := len(tris) * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, t := range tris {
		tri := toSdf(t)
		for j := 0; j < 3; j++ {
			if !t[j].IsFinite() {
				return nil, fmt.Errorf("sdfx: %s: triangle %d has a non-finite vertex", feature, i)
			}
		}

		// Compute face normal.
		n := tri.Normal()
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			n = v3.Vec{}
		}
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Feature:  feature,
	}, nil
}

// SaveSTL writes all meshes as one binary STL file.
func (k *SdfxKernel) SaveSTL(path string, meshes []*kernel.Mesh) error {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		for _, t := range m.Triangles() {
			tris = append(tris, toSdf(t))
		}
	}
	if len(tris) == 0 {
		return fmt.Errorf("sdfx: save %s: no triangles", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("sdfx: save %s: %w", path, err)
	}
	return nil
}
