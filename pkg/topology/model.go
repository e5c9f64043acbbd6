package topology

import (
	"sort"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
)

// EdgeRef is a stable index into a Model's edge arena.
type EdgeRef int

// NoEdge marks an absent parent or opposite.
const NoEdge EdgeRef = -1

// Node is one arena entry.
type Node struct {
	Key      part.EdgeKey
	Edge     PartEdge
	Parent   EdgeRef // hosting edge of the feature that created this edge
	Opposite EdgeRef // same edge on the other surface of the sheet
}

// Bend is a placed flange or fold with everything needed to mesh it.
type Bend struct {
	Feature     string
	Fold        bool
	Host        string   // face the bend grows from
	Face        string   // flat face beyond the bend
	Parent      PartEdge // hosting edge; a virtual edge along the line for folds
	Direction   part.Direction
	Angle       float64 // degrees
	Radius      float64
	HeightStart float64
	HeightEnd   float64
	Tips        [4]EdgeRef // outer tip, inner tip, start side, end side
}

// PlacedCutout is a cutout on the face it ended up on, in that face's
// coordinates. Hole is set when it lies inside material that stays flat on
// the face and is cut through the mesh.
type PlacedCutout struct {
	Face   string
	Cutout sketch.Cutout
	Hole   bool
}

// Model is the resolved edge topology of one snapshot.
type Model struct {
	Thickness  float64
	Fixed      geom.Polygon // base material that stays flat
	nodes      []Node
	index      map[string]EdgeRef
	bends      []Bend
	folds      map[string]FoldGeometry
	faces      map[string]*Face
	faceOrder  []string
	cutouts    []PlacedCutout
	unresolved []Unresolved
}

// Build resolves every flange and fold of s into an edge arena. Features
// that cannot be placed are reported by Unresolved, never dropped silently.
// s is normalized first; see part.Normalize.
func Build(s part.Snapshot) *Model {
	s = part.Normalize(s)
	base := BaseFace(s)
	m := &Model{
		Thickness: s.Thickness,
		Fixed:     base.Fixed,
		index:     map[string]EdgeRef{},
		folds:     map[string]FoldGeometry{},
		faces:     map[string]*Face{},
	}
	m.addFace(base)
	for _, e := range BaseEdges(m.Fixed, s.Thickness) {
		key, _ := part.ParseEdgeID(e.ID)
		m.add(key, e, NoEdge)
	}

	order, unresolved := ResolveOrder(s)
	m.unresolved = unresolved
	for _, ft := range order {
		if ft.Fold {
			f, _ := s.FoldByID(ft.ID)
			m.placeFold(s, f)
			continue
		}
		f, _ := s.FlangeByID(ft.ID)
		m.placeFlange(s, f)
	}
	m.placeCutouts(s)

	for i := range m.nodes {
		if opp, ok := m.nodes[i].Key.Opposite(); ok {
			if ref, ok := m.index[opp.ID()]; ok {
				m.nodes[i].Opposite = ref
			}
		}
	}
	sort.SliceStable(m.unresolved, func(i, j int) bool { return m.unresolved[i].Feature < m.unresolved[j].Feature })
	return m
}

func (m *Model) add(key part.EdgeKey, e PartEdge, parent EdgeRef) EdgeRef {
	ref := EdgeRef(len(m.nodes))
	m.nodes = append(m.nodes, Node{Key: key, Edge: e, Parent: parent, Opposite: NoEdge})
	m.index[e.ID] = ref
	return ref
}

func (m *Model) drop(feature, parent string, reason Reason) {
	m.unresolved = append(m.unresolved, Unresolved{Feature: feature, Parent: parent, Reason: reason})
}

func (m *Model) addFace(f *Face) {
	m.faces[f.ID] = f
	m.faceOrder = append(m.faceOrder, f.ID)
}

func (m *Model) placeFold(s part.Snapshot, f part.Fold) {
	host, ok := m.faces[f.Face()]
	if !ok {
		m.drop(f.ID, f.Face(), ReasonMissingParent)
		return
	}
	g, reason, ok := ResolveFoldOn(host, f, s.KFactor, s.Thickness)
	if !ok {
		m.drop(f.ID, f.Face(), reason)
		return
	}
	// The base face was clipped up front by FixedProfile.
	if host.ID != part.BaseFaceID {
		if clipped := geom.ClipPolygonByLine(host.Fixed, g.Start, g.Normal); len(clipped) >= 3 {
			host.Fixed = clipped
		}
	}
	host.Folds = append(host.Folds, f.ID)
	m.folds[f.ID] = g

	parent := g.VirtualParent(host, s.Thickness)
	face := foldFace(g, parent, s.Thickness)
	m.carry(host, face, g)
	m.addFace(face)

	edges := ComputeFoldTipEdges(parent, f, s.Thickness, g.HeightStart, g.HeightEnd)
	keys := part.TipEdgeIDs(f.ID, true)
	b := Bend{
		Feature: f.ID, Fold: true, Host: host.ID, Face: face.ID, Parent: parent, Direction: f.Direction,
		Angle: f.Angle, Radius: f.BendRadius, HeightStart: g.HeightStart, HeightEnd: g.HeightEnd,
	}
	for i, e := range edges {
		b.Tips[i] = m.add(keys[i], e, NoEdge)
	}
	m.bends = append(m.bends, b)
}

// carry moves the edges of host lying beyond fold g onto the fold's face
// and trims edges crossing the fold line to the part that stays.
func (m *Model) carry(host, face *Face, g FoldGeometry) {
	const eps = 1e-6
	for i := range m.nodes {
		e := &m.nodes[i].Edge
		if e.FaceID != host.ID {
			continue
		}
		ps, ws := host.Project(e.Start)
		pe, we := host.Project(e.End)
		ds, de := g.Beyond(ps), g.Beyond(pe)
		switch {
		case ds > eps && de < -eps:
			e.Start = e.Start.Add(e.End.Sub(e.Start).Scale(ds / (ds - de)))
		case de > eps && ds < -eps:
			e.End = e.End.Add(e.Start.Sub(e.End).Scale(de / (de - ds)))
		case (ds > eps || de > eps) && ds >= -eps && de >= -eps:
			e.Start = face.At(g.ToFace(ps), ws)
			e.End = face.At(g.ToFace(pe), we)
			e.Normal = carryDir(host, face, g, e.Normal)
			e.FaceNormal = carryDir(host, face, g, e.FaceNormal)
			e.FaceID = face.ID
		}
	}
}

// carryDir maps a direction attached to host onto the face fold g creates.
func carryDir(host, face *Face, g FoldGeometry, d geom.Vec3) geom.Vec3 {
	in, out := host.ProjectDir(d)
	local := geom.Pt(in.Dot(g.Axis()), in.Dot(g.Normal))
	return face.Dir(local).Add(face.Normal.Scale(out))
}

func (m *Model) placeFlange(s part.Snapshot, f part.Flange) {
	pref, ok := m.index[f.EdgeID]
	if !ok {
		m.drop(f.ID, f.EdgeID, ReasonMissingParent)
		return
	}
	parent := m.nodes[pref].Edge
	face := flangeFace(m.faces[parent.FaceID], parent, f, s.Thickness)
	m.addFace(face)
	edges := ComputeFlangeTipEdges(parent, f, s.Thickness)
	keys := part.TipEdgeIDs(f.ID, false)
	b := Bend{
		Feature: f.ID, Host: parent.FaceID, Face: face.ID, Parent: parent, Direction: part.Up,
		Angle: f.Angle, Radius: f.BendRadius, HeightStart: f.Height, HeightEnd: f.Height,
	}
	for i, e := range edges {
		b.Tips[i] = m.add(keys[i], e, pref)
	}
	m.bends = append(m.bends, b)
}

// placeCutouts settles the base cutouts and the circles and rectangles
// sketched on bent faces. Sketches on faces that were not placed are
// skipped.
func (m *Model) placeCutouts(s part.Snapshot) {
	base := m.faces[part.BaseFaceID]
	for _, c := range s.AllCutouts() {
		m.settle(base, c)
	}
	for _, fs := range s.FaceSketches {
		if fs.FaceID == "" || fs.FaceID == part.BaseFaceID {
			continue
		}
		face, ok := m.faces[fs.FaceID]
		if !ok {
			continue
		}
		for _, c := range fs.Cutouts(face.Min()) {
			m.settle(face, c)
		}
	}
}

// settle follows cutout c past every fold on face it lies wholly beyond
// and records it on the face it lands on.
func (m *Model) settle(face *Face, c sketch.Cutout) {
	for _, id := range face.Folds {
		g := m.folds[id]
		if beyondLine(g, c.Polygon) {
			m.settle(m.faces[part.FoldFaceID(id)], c.Map(g.ToFace))
			return
		}
	}
	hole := containsPolygon(face.Fixed, c.Polygon)
	if hole {
		face.Holes = append(face.Holes, c.Polygon)
	}
	m.cutouts = append(m.cutouts, PlacedCutout{Face: face.ID, Cutout: c, Hole: hole})
}

func beyondLine(g FoldGeometry, poly geom.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	for _, v := range poly {
		if g.Beyond(v) <= geom.Epsilon {
			return false
		}
	}
	return true
}

// Edges returns every selectable edge in arena order.
func (m *Model) Edges() []PartEdge {
	out := make([]PartEdge, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = n.Edge
	}
	return out
}

// Len returns the number of edges.
func (m *Model) Len() int { return len(m.nodes) }

// Node returns the arena entry for ref.
func (m *Model) Node(ref EdgeRef) Node { return m.nodes[ref] }

// Lookup returns the ref of the edge with the given id.
func (m *Model) Lookup(id string) (EdgeRef, bool) {
	ref, ok := m.index[id]
	return ref, ok
}

// Edge returns the edge with the given id.
func (m *Model) Edge(id string) (PartEdge, bool) {
	ref, ok := m.index[id]
	if !ok {
		return PartEdge{}, false
	}
	return m.nodes[ref].Edge, true
}

// Bends returns the placed flanges and folds in resolution order.
func (m *Model) Bends() []Bend { return m.bends }

// Fold returns the resolved geometry of a placed fold.
func (m *Model) Fold(id string) (FoldGeometry, bool) {
	g, ok := m.folds[id]
	return g, ok
}

// Face returns the flat face with the given id.
func (m *Model) Face(id string) (Face, bool) {
	f, ok := m.faces[id]
	if !ok {
		return Face{}, false
	}
	return *f, true
}

// Faces returns every flat face in placement order, base first.
func (m *Model) Faces() []Face {
	out := make([]Face, len(m.faceOrder))
	for i, id := range m.faceOrder {
		out[i] = *m.faces[id]
	}
	return out
}

// Cutouts returns every cutout on the face it was settled onto.
func (m *Model) Cutouts() []PlacedCutout { return m.cutouts }

// Unresolved returns the features that could not be placed.
func (m *Model) Unresolved() []Unresolved { return m.unresolved }

// GetAllSelectableEdges returns every edge a further flange could be
// attached to, including nested flange and fold tips.
func GetAllSelectableEdges(s part.Snapshot) []PartEdge {
	return Build(s).Edges()
}

// OppositeEdgeID maps an edge id to the same edge on the other surface of
// the sheet: top to bottom, outer tip to inner tip. Side edges, and ids
// that do not parse, have no opposite.
func OppositeEdgeID(id string) (string, bool) {
	key, err := part.ParseEdgeID(id)
	if err != nil {
		return "", false
	}
	opp, ok := key.Opposite()
	if !ok {
		return "", false
	}
	return opp.ID(), true
}

// UserFacingDirection is the direction a flange placed on edge id appears
// to bend to the user: Down for bottom and inner-tip edges, Up otherwise.
func UserFacingDirection(id string) part.Direction {
	key, err := part.ParseEdgeID(id)
	if err == nil && key.Kind.FacesDown() {
		return part.Down
	}
	return part.Up
}
