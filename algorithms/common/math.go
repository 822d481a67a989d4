package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Grid and vector helpers shared by the pricing packages, built on gonum

// Linspace returns n evenly spaced values start, start+step, ..., start+(n-1)*step.
func Linspace(start, step float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, start+float64(n-1)*step)
}

// Exp returns a new slice holding exp(x) for every element of x
func Exp(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Exp(v)
	}
	return out
}

// AllFinite reports whether no element is NaN or infinite
func AllFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NearestIndex returns the index of the element of the ascending slice x
// closest to target, or -1 for an empty slice.
func NearestIndex(x []float64, target float64) int {
	if len(x) == 0 {
		return -1
	}
	i := sort.SearchFloat64s(x, target)
	if i == 0 {
		return 0
	}
	if i == len(x) {
		return len(x) - 1
	}
	if target-x[i-1] <= x[i]-target {
		return i - 1
	}
	return i
}

// Interpolate performs linear interpolation of y(x) at xi; x must be ascending.
// Outside the range the boundary value is returned.
func Interpolate(x, y []float64, xi float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0.0
	}

	if xi <= x[0] {
		return y[0]
	}
	if xi >= x[len(x)-1] {
		return y[len(y)-1]
	}

	// Binary search for the interval
	left := 0
	right := len(x) - 1

	for right-left > 1 {
		mid := (left + right) / 2
		if x[mid] <= xi {
			left = mid
		} else {
			right = mid
		}
	}

	t := (xi - x[left]) / (x[right] - x[left])
	return y[left] + t*(y[right]-y[left])
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
