package kernel

import "github.com/chazu/tinsnip/pkg/geom"

// MeshKind says which part of the model a mesh was built from.
type MeshKind string

const (
	MeshBase   MeshKind = "base"
	MeshFlange MeshKind = "flange"
	MeshFold   MeshKind = "fold"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Feature  string    `json:"feature"`  // flange/fold id, or "base"
	Kind     MeshKind  `json:"kind"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

func (m *Mesh) vertex(i uint32) geom.Vec3 {
	return geom.Vec3{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

// Triangles expands the indexed buffers back into world triangles.
func (m *Mesh) Triangles() []Triangle {
	out := make([]Triangle, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		out = append(out, Triangle{
			m.vertex(m.Indices[i]),
			m.vertex(m.Indices[i+1]),
			m.vertex(m.Indices[i+2]),
		})
	}
	return out
}

// Bounds returns the min and max corners over all vertices.
func (m *Mesh) Bounds() (min, max geom.Vec3) {
	for i := 0; i < m.VertexCount(); i++ {
		v := m.vertex(uint32(i))
		if i == 0 {
			min, max = v, v
			continue
		}
		min = geom.Vec3{X: minf(min.X, v.X), Y: minf(min.Y, v.Y), Z: minf(min.Z, v.Z)}
		max = geom.Vec3{X: maxf(max.X, v.X), Y: maxf(max.Y, v.Y), Z: maxf(max.Z, v.Z)}
	}
	return min, max
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
