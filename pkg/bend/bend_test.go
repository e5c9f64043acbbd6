package bend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBendAllowance180(t *testing.T) {
	for _, tc := range []struct{ r, k, th float64 }{
		{1, 0.44, 1}, {2.5, 0.33, 1.5}, {0.5, 0, 3}, {10, 0.5, 2},
	} {
		got := BendAllowance(tc.r, tc.k, tc.th, 180)
		assert.InDelta(t, math.Pi*(tc.r+tc.k*tc.th), got, 1e-12)
	}
}

func TestBendAllowance90(t *testing.T) {
	assert.InDelta(t, 2.2619, BendAllowance(1, 0.44, 1, 90), 1e-4)
}

func TestBendDeduction(t *testing.T) {
	// 90°: tan(45°) = 1, so BD = 2(R+T) - BA.
	ba := BendAllowance(1, 0.44, 1, 90)
	assert.InDelta(t, 4-ba, BendDeduction(1, 0.44, 1, 90), 1e-12)
}

func TestFlatLength(t *testing.T) {
	ba := BendAllowance(2, 0.4, 1, 90)
	got := FlatLength(50, 2, 0.4, 1, 90)
	assert.InDelta(t, 50-3+ba, got, 1e-12)

	// Half the deduction per side: two outside lengths minus BD equals the
	// sum of both flat lengths minus the single shared allowance.
	bd := BendDeduction(2, 0.4, 1, 90)
	sum := FlatLength(50, 2, 0.4, 1, 90) + FlatLength(30, 2, 0.4, 1, 90) - ba
	assert.InDelta(t, 80-bd, sum, 1e-12)
}
