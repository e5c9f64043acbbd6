// Package part defines the sheet-metal part snapshot: the base profile,
// its cutouts, and the flanges and folds bent from it. A Snapshot is the
// complete input of one engine invocation and is never mutated by it.
package part

import (
	"fmt"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/sketch"
)

// Direction is the side of the sheet a bend rotates toward.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Sign returns +1 for Up (and the empty default) and -1 for Down.
func (d Direction) Sign() float64 {
	if d == Down {
		return -1
	}
	return 1
}

// Valid reports whether d is a known direction or empty.
func (d Direction) Valid() bool { return d == "" || d == Up || d == Down }

// FoldLocation places the bend-allowance zone relative to the sketched
// fold line.
type FoldLocation string

const (
	Centerline      FoldLocation = "centerline"
	MaterialInside  FoldLocation = "material-inside"
	MaterialOutside FoldLocation = "material-outside"
)

// Valid reports whether l is a known location or empty (centerline).
func (l FoldLocation) Valid() bool {
	switch l {
	case "", Centerline, MaterialInside, MaterialOutside:
		return true
	}
	return false
}

// Flange bends a strip of material off an existing edge.
type Flange struct {
	ID         string    `json:"id"`
	EdgeID     string    `json:"edgeId"`
	Height     float64   `json:"height"`
	Angle      float64   `json:"angle"` // degrees
	Direction  Direction `json:"direction"`
	BendRadius float64   `json:"bendRadius"`
}

// Fold bends the base face along a sketched line. LineStart and LineEnd are
// face-local: relative to the minimum corner of the profile's bounding box.
type Fold struct {
	ID           string       `json:"id"`
	LineStart    geom.Point2D `json:"lineStart"`
	LineEnd      geom.Point2D `json:"lineEnd"`
	Angle        float64      `json:"angle"` // degrees
	Direction    Direction    `json:"direction"`
	BendRadius   float64      `json:"bendRadius"`
	SketchLineID string       `json:"sketchLineId,omitempty"`
	FaceID       string       `json:"faceId,omitempty"`
	FoldLocation FoldLocation `json:"foldLocation,omitempty"`
}

// BaseFaceID names the flat base face. Flanges and folds own faces of
// their own, named by FlangeFaceID and FoldFaceID.
const BaseFaceID = "base"

// OnBaseFace reports whether the fold is drawn on the base face.
func (f Fold) OnBaseFace() bool { return f.FaceID == "" || f.FaceID == BaseFaceID }

// Face returns the id of the face the fold is drawn on.
func (f Fold) Face() string {
	if f.OnBaseFace() {
		return BaseFaceID
	}
	return f.FaceID
}

// Snapshot is everything one computation needs. Its JSON form is the
// request shape shared with remote computation services.
type Snapshot struct {
	Profile      geom.Polygon        `json:"profile"`
	Thickness    float64             `json:"thickness"`
	Cutouts      []sketch.Cutout     `json:"cutouts"`
	Folds        []Fold              `json:"folds"`
	Flanges      []Flange            `json:"flanges"`
	FaceSketches []sketch.FaceSketch `json:"faceSketches"`
	KFactor      float64             `json:"kFactor"`
}

// BaseFace returns the bounding box of the profile. Fold lines and base
// face sketches are expressed relative to its Min corner.
func (s Snapshot) BaseFace() geom.BBox { return geom.Bounds(s.Profile) }

// ToProfile converts a face-local point on the base face to profile
// coordinates.
func (s Snapshot) ToProfile(p geom.Point2D) geom.Point2D {
	return p.Add(s.BaseFace().Min)
}

// AllCutouts returns the snapshot's cutouts followed by the circles and
// rectangles sketched on the base face, in profile coordinates. Sketches on
// bent faces are placed by the topology.
func (s Snapshot) AllCutouts() []sketch.Cutout {
	out := append([]sketch.Cutout(nil), s.Cutouts...)
	min := s.BaseFace().Min
	for _, fs := range s.FaceSketches {
		if fs.FaceID == BaseFaceID || fs.FaceID == "" {
			out = append(out, fs.Cutouts(min)...)
		}
	}
	return out
}

// FlangeByID returns the flange with the given id.
func (s Snapshot) FlangeByID(id string) (Flange, bool) {
	for _, f := range s.Flanges {
		if f.ID == id {
			return f, true
		}
	}
	return Flange{}, false
}

// FoldByID returns the fold with the given id.
func (s Snapshot) FoldByID(id string) (Fold, bool) {
	for _, f := range s.Folds {
		if f.ID == id {
			return f, true
		}
	}
	return Fold{}, false
}

// Normalize returns s in the form the engine computes on. A clockwise
// profile is rewound counter-clockwise and base edge references are
// renumbered so they name the same physical edge. A downward flange is
// moved to the opposite edge of its parent and stored as upward; flanges
// on side edges have no opposite and keep their direction. s is not
// modified.
func Normalize(s Snapshot) Snapshot {
	out := s
	n := len(s.Profile)
	reversed := n >= 3 && geom.SignedArea(s.Profile) < 0
	if reversed {
		out.Profile = geom.Reverse(s.Profile)
	}
	out.Flanges = append([]Flange(nil), s.Flanges...)
	for i := range out.Flanges {
		f := &out.Flanges[i]
		key, err := ParseEdgeID(f.EdgeID)
		if err != nil {
			continue
		}
		changed := false
		if reversed && key.Kind.IsBase() && key.Index < n {
			key.Index = n - 1 - key.Index
			changed = true
		}
		if f.Direction == Down {
			if opp, ok := key.Opposite(); ok {
				key, f.Direction = opp, Up
				changed = true
			}
		}
		if changed {
			f.EdgeID = key.ID()
		}
	}
	return out
}

func (f Flange) String() string {
	return fmt.Sprintf("flange %s on %s (h=%g, %g°, %s, r=%g)", f.ID, f.EdgeID, f.Height, f.Angle, f.dir(), f.BendRadius)
}

func (f Fold) String() string {
	return fmt.Sprintf("fold %s (%g°, %s, r=%g)", f.ID, f.Angle, f.dir(), f.BendRadius)
}

func (f Flange) dir() Direction {
	if f.Direction == "" {
		return Up
	}
	return f.Direction
}

func (f Fold) dir() Direction {
	if f.Direction == "" {
		return Up
	}
	return f.Direction
}

// Location returns the fold location with the centerline default applied.
func (f Fold) Location() FoldLocation {
	if f.FoldLocation == "" {
		return Centerline
	}
	return f.FoldLocation
}
