// Package sketch turns raw 2D sketch strokes into closed loops: the base
// profile of a part and the cutouts inside it. It also classifies lines drawn
// on a flat face as fold lines.
package sketch

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/tinsnip/pkg/geom"
)

// Kind enumerates the sketch entity variants.
type Kind int

const (
	KindLine   Kind = iota // straight segment
	KindRect               // axis-aligned rectangle
	KindCircle             // full circle
	KindArc                // circular arc
	KindPoint              // construction point
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindRect:
		return "rect"
	case KindCircle:
		return "circle"
	case KindArc:
		return "arc"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

func parseKind(s string) (Kind, error) {
	for k := KindLine; k <= KindPoint; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("sketch: unknown entity type %q", s)
}

// Entity is one immutable sketch primitive.
type Entity interface {
	EntityID() string
	Kind() Kind
	entity() // marker method restricting implementations to this package
}

// Line is a straight segment.
type Line struct {
	ID    string       `json:"id"`
	Start geom.Point2D `json:"start"`
	End   geom.Point2D `json:"end"`
}

// Rect is an axis-aligned rectangle anchored at Origin. Negative sizes
// extend toward -X/-Y.
type Rect struct {
	ID     string       `json:"id"`
	Origin geom.Point2D `json:"origin"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
}

// Circle is a full circle.
type Circle struct {
	ID     string       `json:"id"`
	Center geom.Point2D `json:"center"`
	Radius float64      `json:"radius"`
}

// Arc runs counter-clockwise from StartAngle to EndAngle (radians).
type Arc struct {
	ID         string       `json:"id"`
	Center     geom.Point2D `json:"center"`
	Radius     float64      `json:"radius"`
	StartAngle float64      `json:"startAngle"`
	EndAngle   float64      `json:"endAngle"`
}

// Point is a construction point; it never contributes to a loop.
type Point struct {
	ID       string       `json:"id"`
	Position geom.Point2D `json:"position"`
}

func (e Line) EntityID() string   { return e.ID }
func (e Rect) EntityID() string   { return e.ID }
func (e Circle) EntityID() string { return e.ID }
func (e Arc) EntityID() string    { return e.ID }
func (e Point) EntityID() string  { return e.ID }

func (Line) Kind() Kind   { return KindLine }
func (Rect) Kind() Kind   { return KindRect }
func (Circle) Kind() Kind { return KindCircle }
func (Arc) Kind() Kind    { return KindArc }
func (Point) Kind() Kind  { return KindPoint }

func (Line) entity()   {}
func (Rect) entity()   {}
func (Circle) entity() {}
func (Arc) entity()    {}
func (Point) entity()  {}

// NewID returns a fresh entity id.
func NewID() string { return uuid.NewString() }

// Corners returns the rectangle's corners in CCW order starting at the
// lowest-left corner.
func (e Rect) Corners() geom.Polygon {
	x0, y0 := e.Origin.X, e.Origin.Y
	x1, y1 := x0+e.Width, y0+e.Height
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return geom.Polygon{geom.Pt(x0, y0), geom.Pt(x1, y0), geom.Pt(x1, y1), geom.Pt(x0, y1)}
}

// envelope is the wire form of an Entity: the variant's fields plus a
// "type" discriminator.
type envelope struct {
	Type string `json:"type"`
}

// MarshalEntities encodes entities as a JSON array of tagged objects.
func MarshalEntities(entities []Entity) ([]byte, error) {
	out := make([]json.RawMessage, 0, len(entities))
	for _, e := range entities {
		raw, err := marshalEntity(e)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func marshalEntity(e Entity) (json.RawMessage, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("sketch: marshal %s %s: %w", e.Kind(), e.EntityID(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("sketch: marshal %s %s: %w", e.Kind(), e.EntityID(), err)
	}
	fields["type"], _ = json.Marshal(e.Kind().String())
	return json.Marshal(fields)
}

// UnmarshalEntities decodes the output of MarshalEntities. Entities
// without an id are assigned a fresh one.
func UnmarshalEntities(data []byte) ([]Entity, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("sketch: decode entities: %w", err)
	}
	out := make([]Entity, 0, len(raws))
	for i, raw := range raws {
		e, err := unmarshalEntity(raw)
		if err != nil {
			return nil, fmt.Errorf("sketch: entity %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func unmarshalEntity(raw json.RawMessage) (Entity, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	kind, err := parseKind(env.Type)
	if err != nil {
		return nil, err
	}
	var e Entity
	switch kind {
	case KindLine:
		var v Line
		err = json.Unmarshal(raw, &v)
		if v.ID == "" {
			v.ID = NewID()
		}
		e = v
	case KindRect:
		var v Rect
		err = json.Unmarshal(raw, &v)
		if v.ID == "" {
			v.ID = NewID()
		}
		e = v
	case KindCircle:
		var v Circle
		err = json.Unmarshal(raw, &v)
		if v.ID == "" {
			v.ID = NewID()
		}
		e = v
	case KindArc:
		var v Arc
		err = json.Unmarshal(raw, &v)
		if v.ID == "" {
			v.ID = NewID()
		}
		e = v
	case KindPoint:
		var v Point
		err = json.Unmarshal(raw, &v)
		if v.ID == "" {
			v.ID = NewID()
		}
		e = v
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// FaceSketch is a set of entities drawn on one flat face of the part, in
// that face's local coordinates.
type FaceSketch struct {
	FaceID   string   `json:"faceId"`
	Entities []Entity `json:"-"`
}

type faceSketchJSON struct {
	FaceID   string          `json:"faceId"`
	Entities json.RawMessage `json:"entities"`
}

// MarshalJSON encodes the entity list with type discriminators.
func (fs FaceSketch) MarshalJSON() ([]byte, error) {
	ents, err := MarshalEntities(fs.Entities)
	if err != nil {
		return nil, err
	}
	return json.Marshal(faceSketchJSON{FaceID: fs.FaceID, Entities: ents})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (fs *FaceSketch) UnmarshalJSON(data []byte) error {
	var w faceSketchJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fs.FaceID = w.FaceID
	fs.Entities = nil
	if len(w.Entities) == 0 || string(w.Entities) == "null" {
		return nil
	}
	ents, err := UnmarshalEntities(w.Entities)
	if err != nil {
		return err
	}
	fs.Entities = ents
	return nil
}
