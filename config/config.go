package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xhhuango/json"

	"github.com/RyanBlaney/heston-fft/algorithms/spectral"
	"github.com/RyanBlaney/heston-fft/heston"
	"github.com/RyanBlaney/heston-fft/pricing"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid run configuration")

// RunConfig describes one pricing run from market data to output files
type RunConfig struct {
	Market    pricing.MarketState `json:"market"`
	Model     heston.ModelParams  `json:"model"`
	Transform TransformConfig     `json:"transform"`
	Option    OptionConfig        `json:"option"`
	Output    OutputConfig        `json:"output"`
	LogLevel  string              `json:"log_level,omitempty"` // "debug", "info", "warn", "error"
}

type TransformConfig struct {
	Alpha      float64 `json:"alpha"`
	N          int     `json:"n"`
	DU         float64 `json:"du"`
	FFTMethod  string  `json:"fft_method"` // "dsp", "split"
	Quadrature string  `json:"quadrature"` // "rectangle", "simpson"
}

type OptionConfig struct {
	Call     bool    `json:"call"`
	Maturity float64 `json:"maturity"`
	Strike   float64 `json:"strike"`
}

// OutputConfig controls which strikes are exported and where to. Empty
// names skip the corresponding file.
type OutputConfig struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	CSV   string  `json:"csv,omitempty"`  // written as CSV + ".csv"
	PNG   string  `json:"png,omitempty"`  // written as PNG + ".png"
	JSON  string  `json:"json,omitempty"` // written as-is
}

// DefaultRunConfig returns the call-pricing run on a unit spot
func DefaultRunConfig() *RunConfig {
	return Example1Config()
}

// Example1Config prices calls for T=0.5 on a 2^14 grid and prints
// strikes in [0.65, 1.35]
func Example1Config() *RunConfig {
	return &RunConfig{
		Market: pricing.MarketState{R: 0.02, S0: 1, V0: 0.3},
		Model:  heston.ModelParams{Rho: -0.2, Kappa: 2, Theta: 0.1, Sigma: 0.7},
		Transform: TransformConfig{
			Alpha:      2.5,
			N:          16384,
			DU:         0.1,
			FFTMethod:  string(spectral.MethodDSP),
			Quadrature: pricing.QuadratureRectangle.String(),
		},
		Option:   OptionConfig{Call: true, Maturity: 0.5, Strike: 1},
		Output:   OutputConfig{Lower: 0.65, Upper: 1.35, PNG: "plot/example-1"},
		LogLevel: "info",
	}
}

// Example2Config prices a one year put struck at 80 on an 8192 grid and
// writes strikes in [65, 135] to plot/example-2.csv
func Example2Config() *RunConfig {
	return &RunConfig{
		Market: pricing.MarketState{R: 0.05, S0: 100, V0: 0.2},
		Model:  heston.ModelParams{Rho: -0.5, Kappa: 10, Theta: 0.2, Sigma: 0.7},
		Transform: TransformConfig{
			Alpha:      2.5,
			N:          8192,
			DU:         0.1,
			FFTMethod:  string(spectral.MethodDSP),
			Quadrature: pricing.QuadratureRectangle.String(),
		},
		Option:   OptionConfig{Call: false, Maturity: 1, Strike: 80},
		Output:   OutputConfig{Lower: 65, Upper: 135, CSV: "plot/example-2"},
		LogLevel: "info",
	}
}

// Preset returns a copy of a named preset: "example-1" or "example-2"
func Preset(name string) (*RunConfig, error) {
	switch strings.ToLower(name) {
	case "", "default", "example-1", "example1":
		return Example1Config(), nil
	case "example-2", "example2":
		return Example2Config(), nil
	default:
		return nil, fmt.Errorf("unknown preset: %q", name)
	}
}

// Load reads a JSON run configuration. Fields missing from the file keep
// the values of base, or the defaults when base is nil.
func Load(path string, base *RunConfig) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := base
	if cfg == nil {
		cfg = DefaultRunConfig()
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks everything the pricer would otherwise reject later
func (c *RunConfig) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := pricing.NewTransformConfig(c.Transform.Alpha, c.Transform.N, c.Transform.DU); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := spectral.NewFFTWithMethod(spectral.Method(c.Transform.FFTMethod)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := pricing.ParseQuadrature(c.Transform.Quadrature); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch {
	case !(c.Market.R > 0), !(c.Market.S0 > 0), !(c.Market.V0 > 0):
		return fmt.Errorf("%w: r, s0 and v0 must be positive", ErrInvalidConfig)
	case !(c.Option.Maturity > 0):
		return fmt.Errorf("%w: maturity must be positive, got %v", ErrInvalidConfig, c.Option.Maturity)
	case !(c.Option.Strike > 0):
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidConfig, c.Option.Strike)
	case c.Output.Lower < 0 || !(c.Output.Lower < c.Output.Upper):
		return fmt.Errorf("%w: output bounds [%v, %v]", ErrInvalidConfig, c.Output.Lower, c.Output.Upper)
	}
	return nil
}
