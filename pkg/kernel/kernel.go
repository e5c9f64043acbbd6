// Package kernel defines the mesh buffers handed to renderers and the
// geometry kernel interface that produces them. The mesh builder emits
// world-space triangles; a Kernel turns them into flat-shaded buffers and
// writes them to mesh files. The abstraction allows swapping backends
// without changing the rest of the system.
package kernel

import "github.com/chazu/tinsnip/pkg/geom"

// Triangle is one facet in world coordinates, wound counter-clockwise
// when seen from outside the material.
type Triangle [3]geom.Vec3

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// FlatShade converts triangles into a non-indexed vertex stream with
	// one normal per triangle, repeated for each of its vertices.
	FlatShade(feature string, tris []Triangle) (*Mesh, error)

	// SaveSTL writes every mesh into one STL file.
	SaveSTL(path string, meshes []*Mesh) error
}
