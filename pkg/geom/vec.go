// Package geom holds the plain coordinate types shared by the sheet-metal
// engine: 2D profile points, 3D edge vectors, bounding boxes, and the
// polygon operations (clipping, spans, triangulation) the engine is built on.
// All lengths are millimeters.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerance is the coincidence distance used when matching sketch endpoints
// and comparing profile vertices.
const Tolerance = 1.0

// Epsilon is the numeric zero for signed distances and parallel tests.
const Epsilon = 1e-9

// Point2D is a face-local or profile-local coordinate.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

func (p Point2D) r2() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromR2(v r2.Vec) Point2D { return Point2D{X: v.X, Y: v.Y} }

// Add returns p+q.
func (p Point2D) Add(q Point2D) Point2D { return fromR2(r2.Add(p.r2(), q.r2())) }

// Sub returns p-q.
func (p Point2D) Sub(q Point2D) Point2D { return fromR2(r2.Sub(p.r2(), q.r2())) }

// Scale returns p*s.
func (p Point2D) Scale(s float64) Point2D { return fromR2(r2.Scale(s, p.r2())) }

// Dot returns the dot product p·q.
func (p Point2D) Dot(q Point2D) float64 { return r2.Dot(p.r2(), q.r2()) }

// Cross returns the z component of p×q.
func (p Point2D) Cross(q Point2D) float64 { return r2.Cross(p.r2(), q.r2()) }

// Len returns the Euclidean length of p.
func (p Point2D) Len() float64 { return r2.Norm(p.r2()) }

// Dist returns the distance between p and q.
func (p Point2D) Dist(q Point2D) float64 { return p.Sub(q).Len() }

// Unit returns p scaled to unit length. The zero vector is returned unchanged.
func (p Point2D) Unit() Point2D {
	if p.Len() < Epsilon {
		return p
	}
	return fromR2(r2.Unit(p.r2()))
}

// Perp returns p rotated by -90 degrees, (y, -x). For a CCW polygon edge
// direction this is the outward normal.
func (p Point2D) Perp() Point2D { return Point2D{X: p.Y, Y: -p.X} }

// Near reports whether p and q are within tol of each other.
func (p Point2D) Near(q Point2D, tol float64) bool { return p.Dist(q) <= tol }

// Lerp interpolates between p (t=0) and q (t=1).
func (p Point2D) Lerp(q Point2D, t float64) Point2D {
	return p.Add(q.Sub(p).Scale(t))
}

// At3 lifts p into 3D at height z.
func (p Point2D) At3(z float64) Vec3 { return Vec3{X: p.X, Y: p.Y, Z: z} }

// Vec3 is a 3D position or direction.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// R3 converts v to a gonum vector.
func (v Vec3) R3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// FromR3 converts a gonum vector to a Vec3.
func FromR3(v r3.Vec) Vec3 { return Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 { return FromR3(r3.Add(v.R3(), w.R3())) }

// Sub returns v-w.
func (v Vec3) Sub(w Vec3) Vec3 { return FromR3(r3.Sub(v.R3(), w.R3())) }

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 { return FromR3(r3.Scale(s, v.R3())) }

// Dot returns v·w.
func (v Vec3) Dot(w Vec3) float64 { return r3.Dot(v.R3(), w.R3()) }

// Cross returns v×w.
func (v Vec3) Cross(w Vec3) Vec3 { return FromR3(r3.Cross(v.R3(), w.R3())) }

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 { return r3.Norm(v.R3()) }

// Unit returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec3) Unit() Vec3 {
	if v.Len() < Epsilon {
		return v
	}
	return FromR3(r3.Unit(v.R3()))
}

// Near reports whether v and w are within tol of each other.
func (v Vec3) Near(w Vec3, tol float64) bool { return v.Sub(w).Len() <= tol }

// XY drops the Z component.
func (v Vec3) XY() Point2D { return Point2D{X: v.X, Y: v.Y} }

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// UnitZ is the +Z axis, the face normal of the top surface.
var UnitZ = Vec3{Z: 1}
