// Package mathx holds small generic numeric helpers used by the apps.
package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MapRange maps x from [inMin,inMax] onto [outMin,outMax] linearly,
// clamping to the output range.
func MapRange[T constraints.Float](x, inMin, inMax, outMin, outMax T) T {
	if inMax == inMin {
		return outMin
	}
	y := outMin + (x-inMin)*(outMax-outMin)/(inMax-inMin)
	return Clamp(y, outMin, outMax)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
