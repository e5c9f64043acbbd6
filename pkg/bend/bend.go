// Package bend holds the sheet-metal bend formulas. Angles are in degrees,
// lengths in millimeters. Inputs are not validated here; see part.Validate.
package bend

import "math"

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// BendAllowance is the arc length of the neutral axis through a bend:
// π·(R + K·T)·(angle/180).
func BendAllowance(radius, kFactor, thickness, angleDeg float64) float64 {
	return math.Pi * (radius + kFactor*thickness) * (angleDeg / 180)
}

// BendDeduction is the length removed from the sum of the outside flange
// lengths to get the flat length: 2·(R+T)·tan(angle/2) − BA.
func BendDeduction(radius, kFactor, thickness, angleDeg float64) float64 {
	return 2*(radius+thickness)*math.Tan(rad(angleDeg)/2) -
		BendAllowance(radius, kFactor, thickness, angleDeg)
}

// FlatLength converts an outside flange length into the flat length it
// consumes, including its share of the bend.
func FlatLength(flangeLen, radius, kFactor, thickness, angleDeg float64) float64 {
	return flangeLen - (radius+thickness)*math.Tan(rad(angleDeg)/2) +
		BendAllowance(radius, kFactor, thickness, angleDeg)
}
