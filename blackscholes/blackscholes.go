package blackscholes

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInvalidInputs is returned for non-positive spot, strike or maturity
	// and negative volatility
	ErrInvalidInputs = errors.New("invalid inputs")

	// ErrNoImpliedVol is returned when the price lies outside the no-arbitrage
	// bounds or the search does not bracket a root
	ErrNoImpliedVol = errors.New("implied volatility not found")
)

const (
	ivLower     = 1e-6
	ivUpper     = 5.0
	ivTolerance = 1e-10
	ivMaxIter   = 200
)

// Price returns the Black-Scholes price of a European option without dividends
func Price(isCall bool, s, k, r, vol, T float64) (float64, error) {
	if !(s > 0) || !(k > 0) || !(T > 0) || !(vol >= 0) {
		return 0, fmt.Errorf("%w: s=%v k=%v vol=%v T=%v", ErrInvalidInputs, s, k, vol, T)
	}

	df := math.Exp(-r * T)
	if vol == 0 {
		if isCall {
			return math.Max(s-k*df, 0), nil
		}
		return math.Max(k*df-s, 0), nil
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(s/k) + (r+0.5*vol*vol)*T) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT

	if isCall {
		return s*distuv.UnitNormal.CDF(d1) - k*df*distuv.UnitNormal.CDF(d2), nil
	}
	return k*df*distuv.UnitNormal.CDF(-d2) - s*distuv.UnitNormal.CDF(-d1), nil
}

// ImpliedVol inverts Price by bisection on [1e-6, 5]
func ImpliedVol(isCall bool, price, s, k, r, T float64) (float64, error) {
	lowPrice, err := Price(isCall, s, k, r, ivLower, T)
	if err != nil {
		return 0, err
	}
	highPrice, _ := Price(isCall, s, k, r, ivUpper, T)
	if math.IsNaN(price) || price < lowPrice || price > highPrice {
		return 0, fmt.Errorf("%w: price %v outside [%v, %v]", ErrNoImpliedVol, price, lowPrice, highPrice)
	}

	lo, hi := ivLower, ivUpper
	for iter := 0; iter < ivMaxIter; iter++ {
		mid := 0.5 * (lo + hi)
		p, _ := Price(isCall, s, k, r, mid, T)
		if p > price {
			hi = mid
		} else {
			lo = mid
		}
		if hi-lo < ivTolerance {
			break
		}
	}
	return 0.5 * (lo + hi), nil
}
