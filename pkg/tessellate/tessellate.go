// Package tessellate builds triangle meshes for a sheet-metal part: the
// extruded base face and one cross-section sweep per flange or fold. One
// mesh is produced per feature. A bent face that carries folds or holes is
// meshed as its bend arc plus an extrusion of the material that stays on
// the face.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/kernel"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/topology"
)

// BendSegments is the number of arc steps in a bend cross-section.
const BendSegments = 12

// SurfaceOffset nudges bend geometry off the base face it starts on so the
// two never share a surface on screen.
const SurfaceOffset = 0.01

// Tessellate produces the base mesh followed by one mesh per placed bend,
// in resolution order, using the provided geometry kernel. The tessellator
// is read-only and never mutates the model.
func Tessellate(s part.Snapshot, m *topology.Model, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	if len(m.Fixed) >= 3 {
		face, _ := m.Face(part.BaseFaceID)
		base, err := k.FlatShade("base", BaseMesh(m.Fixed, face.Holes, m.Thickness))
		if err != nil {
			return nil, fmt.Errorf("tessellate: base: %w", err)
		}
		base.Kind = kernel.MeshBase
		meshes = append(meshes, base)
	}

	for _, b := range m.Bends() {
		mesh, err := k.FlatShade(b.Feature, bendTriangles(m, b))
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", b.Feature, err)
		}
		mesh.Kind = kernel.MeshFlange
		if b.Fold {
			mesh.Kind = kernel.MeshFold
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// bendTriangles meshes one bend, trimming its face when later folds or
// holes take material off it.
func bendTriangles(m *topology.Model, b topology.Bend) []kernel.Triangle {
	face, ok := m.Face(b.Face)
	if !ok || (len(face.Folds) == 0 && len(face.Holes) == 0) {
		return BendMesh(b, m.Thickness)
	}
	arc := b
	arc.HeightStart, arc.HeightEnd = 0, 0
	return append(BendMesh(arc, m.Thickness), FaceMesh(face, m.Thickness)...)
}

// quad appends the two triangles of a-b-c-d, wound so their normal points
// along outward.
func quad(tris []kernel.Triangle, a, b, c, d, outward geom.Vec3) []kernel.Triangle {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Dot(outward) < 0 {
		return append(tris, kernel.Triangle{a, c, b}, kernel.Triangle{a, d, c})
	}
	return append(tris, kernel.Triangle{a, b, c}, kernel.Triangle{a, c, d})
}

// BaseMesh extrudes a CCW profile with holes from z = 0 to z = thickness.
func BaseMesh(profile geom.Polygon, holes []geom.Polygon, thickness float64) []kernel.Triangle {
	at := func(p geom.Point2D, w float64) geom.Vec3 { return p.At3(w) }
	dir := func(d geom.Point2D) geom.Vec3 { return d.At3(0) }
	return prism(profile, holes, thickness, at, dir, false)
}

// FaceMesh extrudes the material that stays on a face, with its holes,
// from its lower surface to its top surface.
func FaceMesh(f topology.Face, thickness float64) []kernel.Triangle {
	mirrored := f.X.Cross(f.Y).Dot(f.Normal) < 0
	return prism(f.Fixed, f.Holes, thickness, f.At, f.Dir, mirrored)
}

// prism extrudes outline with holes along w. at places a face point at
// depth w and dir maps in-plane directions; mirrored is set when the face
// axes are left-handed about the extrusion direction.
func prism(outline geom.Polygon, holes []geom.Polygon, thickness float64,
	at func(geom.Point2D, float64) geom.Vec3, dir func(geom.Point2D) geom.Vec3, mirrored bool) []kernel.Triangle {
	outline = geom.EnsureCCW(outline)
	verts, idx := geom.Triangulate(outline, holes)

	tris := make([]kernel.Triangle, 0, 2*len(idx)+2*len(outline))
	for _, t := range idx {
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		if mirrored {
			b, c = c, b
		}
		tris = append(tris,
			kernel.Triangle{at(a, thickness), at(b, thickness), at(c, thickness)},
			kernel.Triangle{at(a, 0), at(c, 0), at(b, 0)},
		)
	}

	wall := func(ring geom.Polygon, inward bool) {
		for i := range ring {
			a, b := ring.Edge(i)
			out := dir(b.Sub(a).Perp())
			if inward {
				out = out.Scale(-1)
			}
			tris = quad(tris, at(a, 0), at(b, 0), at(b, thickness), at(a, thickness), out)
		}
	}
	wall(outline, false)
	for _, h := range holes {
		// Hole walls face into the hole.
		wall(geom.EnsureCCW(h), true)
	}
	return tris
}

// BendMesh sweeps the bend cross-section along its parent edge: BendSegments
// arc steps from the parent edge followed by the flat run to the tip, when
// the bend has one. Each section contributes four vertices (inner and outer
// surface at each end of the edge); consecutive sections are joined by
// inner, outer and two side strips, and the first and last sections are
// capped.
func BendMesh(b topology.Bend, thickness float64) []kernel.Triangle {
	fr := topology.NewFrame(b.Parent, b.Direction)
	sec := topology.NewSection(b.Angle, b.Radius)
	a := b.Angle * math.Pi / 180
	nudge := fr.U.Scale(SurfaceOffset)

	type section struct {
		innerS, innerE, outerS, outerE geom.Vec3
		radial                         geom.Point2D // inner to outer
	}
	at := func(t float64, off geom.Point2D) geom.Vec3 { return fr.At(t, off).Add(nudge) }

	sections := make([]section, 0, BendSegments+2)
	for i := 0; i <= BendSegments; i++ {
		t := a * float64(i) / BendSegments
		inner := geom.Pt(b.Radius*math.Sin(t), b.Radius*(1-math.Cos(t)))
		radial := geom.Pt(math.Sin(t), -math.Cos(t))
		outer := inner.Add(radial.Scale(thickness))
		sections = append(sections, section{
			innerS: at(0, inner), innerE: at(1, inner),
			outerS: at(0, outer), outerE: at(1, outer),
			radial: radial,
		})
	}
	if b.HeightStart > geom.Epsilon || b.HeightEnd > geom.Epsilon {
		sections = append(sections, section{
			innerS: at(0, sec.InnerTip(b.HeightStart)), innerE: at(1, sec.InnerTip(b.HeightEnd)),
			outerS: at(0, sec.OuterTip(b.HeightStart, thickness)), outerE: at(1, sec.OuterTip(b.HeightEnd, thickness)),
			radial: sec.Perp,
		})
	}

	along := fr.End.Sub(fr.Start).Unit()
	tris := make([]kernel.Triangle, 0, 8*(len(sections)-1)+4)
	for i := 0; i+1 < len(sections); i++ {
		p, q := sections[i], sections[i+1]
		out := fr.Dir(p.radial)
		tris = quad(tris, p.innerS, p.innerE, q.innerE, q.innerS, out.Scale(-1))
		tris = quad(tris, p.outerS, p.outerE, q.outerE, q.outerS, out)
		tris = quad(tris, p.innerS, q.innerS, q.outerS, p.outerS, along.Scale(-1))
		tris = quad(tris, p.innerE, q.innerE, q.outerE, p.outerE, along)
	}
	first, last := sections[0], sections[len(sections)-1]
	tris = quad(tris, first.innerS, first.innerE, first.outerE, first.outerS, fr.U.Scale(-1))
	tris = quad(tris, last.innerS, last.innerE, last.outerE, last.outerS, fr.Dir(sec.Tangent))
	return tris
}
