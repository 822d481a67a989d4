package heston

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// Simulator prices European options by Monte Carlo on the Heston dynamics
// using a full-truncation Euler scheme in log-spot. It is an independent
// check on the Fourier prices, not a production pricer.
type Simulator struct {
	Params ModelParams
	Steps  int    // time steps per path
	Paths  int    // number of simulated paths
	Seed   uint64 // fixed seed keeps runs reproducible
}

// MCResult is a discounted Monte Carlo price and its standard error
type MCResult struct {
	Price  float64 `json:"price"`
	StdErr float64 `json:"std_err"`
	Paths  int     `json:"paths"`
}

// NewSimulator creates a simulator with 200 steps and 20000 paths
func NewSimulator(params ModelParams, seed uint64) *Simulator {
	return &Simulator{
		Params: params,
		Steps:  200,
		Paths:  20000,
		Seed:   seed,
	}
}

// TerminalPrices simulates Paths terminal spot prices
func (s *Simulator) TerminalPrices(r, s0, v0, T float64) ([]float64, error) {
	if s.Steps <= 0 || s.Paths <= 0 {
		return nil, errors.New("steps and paths must be positive")
	}
	if T <= 0 {
		return nil, fmt.Errorf("maturity must be positive, got %v", T)
	}

	rng := rand.New(rand.NewSource(s.Seed))
	dt := T / float64(s.Steps)
	sqrtDt := math.Sqrt(dt)
	rhoBar := math.Sqrt(1 - s.Params.Rho*s.Params.Rho)

	prices := make([]float64, s.Paths)
	for path := range prices {
		x := math.Log(s0)
		v := v0
		for iter := 0; iter < s.Steps; iter++ {
			z1 := rng.NormFloat64()
			z2 := s.Params.Rho*z1 + rhoBar*rng.NormFloat64()

			vPos := math.Max(v, 0) // full truncation
			sqrtV := math.Sqrt(vPos)
			x += (r-0.5*vPos)*dt + sqrtV*sqrtDt*z1
			v += s.Params.Kappa*(s.Params.Theta-vPos)*dt + s.Params.Sigma*sqrtV*sqrtDt*z2
		}
		prices[path] = math.Exp(x)
	}

	return prices, nil
}

// Price returns the discounted Monte Carlo price of a European option
func (s *Simulator) Price(r, s0, v0, T, strike float64, isCall bool) (MCResult, error) {
	terminal, err := s.TerminalPrices(r, s0, v0, T)
	if err != nil {
		return MCResult{}, err
	}

	payoffs := make([]float64, len(terminal))
	for i, st := range terminal {
		if isCall {
			payoffs[i] = math.Max(st-strike, 0)
		} else {
			payoffs[i] = math.Max(strike-st, 0)
		}
	}

	df := math.Exp(-r * T)
	mean, std := stat.MeanStdDev(payoffs, nil)
	return MCResult{
		Price:  df * mean,
		StdErr: df * std / math.Sqrt(float64(len(payoffs))),
		Paths:  len(payoffs),
	}, nil
}
