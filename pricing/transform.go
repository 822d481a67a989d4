package pricing

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/heston-fft/algorithms/common"
)

// MarketState is the market observed at valuation time
type MarketState struct {
	R  float64 `json:"r"`  // continuously compounded risk-free rate
	S0 float64 `json:"s0"` // spot price
	V0 float64 `json:"v0"` // instantaneous variance
}

func (m MarketState) validate() error {
	switch {
	case !(m.R > 0):
		return invalid(ErrConstruction, "risk-free rate must be positive, got %v", m.R)
	case !(m.S0 > 0):
		return invalid(ErrConstruction, "starting spot price must be positive, got %v", m.S0)
	case !(m.V0 > 0):
		return invalid(ErrConstruction, "starting variance must be positive, got %v", m.V0)
	}
	return nil
}

// TransformConfig is an immutable set of Carr-Madan grid parameters. The
// log-strike step is always derived as dk = 2*pi / (N*du); the only way to
// obtain a config is NewTransformConfig.
type TransformConfig struct {
	alpha float64
	n     int
	du    float64
	dk    float64
}

// NewTransformConfig validates alpha > 0, N > 0 and even, du > 0
func NewTransformConfig(alpha float64, n int, du float64) (TransformConfig, error) {
	switch {
	case !(alpha > 0):
		return TransformConfig{}, invalid(ErrParameter, "parameter alpha must be positive, got %v", alpha)
	case n <= 0:
		return TransformConfig{}, invalid(ErrParameter, "grid size must be positive, got %d", n)
	case n%2 != 0:
		return TransformConfig{}, invalid(ErrParameter, "grid size must be even, got %d", n)
	case !(du > 0):
		return TransformConfig{}, invalid(ErrParameter, "grid step must be positive, got %v", du)
	}

	return TransformConfig{
		alpha: alpha,
		n:     n,
		du:    du,
		dk:    2 * math.Pi / (float64(n) * du),
	}, nil
}

// Alpha is the Carr-Madan damping factor
func (c TransformConfig) Alpha() float64 { return c.alpha }

// N is the number of grid points
func (c TransformConfig) N() int { return c.n }

// DU is the frequency grid step
func (c TransformConfig) DU() float64 { return c.du }

// DK is the log-strike grid step
func (c TransformConfig) DK() float64 { return c.dk }

// LogStrikeGrid returns k_j = -N*dk/2 + j*dk, j = 0..N-1
func (c TransformConfig) LogStrikeGrid() []float64 {
	return common.Linspace(-float64(c.n)*c.dk/2, c.dk, c.n)
}

// FrequencyGrid returns u_i = i*du, i = 0..N-1
func (c TransformConfig) FrequencyGrid() []float64 {
	return common.Linspace(0, c.du, c.n)
}

func (c TransformConfig) String() string {
	return fmt.Sprintf("alpha=%g N=%d du=%g dk=%g", c.alpha, c.n, c.du, c.dk)
}
