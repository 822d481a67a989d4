package pricing

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/heston-fft/algorithms/common"
	"github.com/RyanBlaney/heston-fft/algorithms/spectral"
	"github.com/RyanBlaney/heston-fft/heston"
	"github.com/RyanBlaney/heston-fft/logging"
)

// OptionSpec is what the calculator reads from an option descriptor
type OptionSpec interface {
	IsCall() bool
	Maturity() float64
}

// Calculator prices European options under Heston with the Carr-Madan FFT
// method. Every call to Calculate returns prices for the whole log-strike
// grid, whatever strike the option carries.
//
// Calculate may run concurrently with itself. SetCalculatorParams swaps in a
// whole new TransformConfig; a pricing call that already started keeps the
// config it began with.
type Calculator struct {
	market     MarketState
	params     heston.ModelParams
	fft        *spectral.FFT
	quadrature Quadrature
	logger     logging.Logger

	mu     sync.RWMutex
	config TransformConfig
}

// CalculatorOption configures optional collaborators of a Calculator
type CalculatorOption func(*Calculator)

// WithLogger replaces the component logger
func WithLogger(logger logging.Logger) CalculatorOption {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFFT replaces the transform engine
func WithFFT(f *spectral.FFT) CalculatorOption {
	return func(c *Calculator) {
		if f != nil {
			c.fft = f
		}
	}
}

// WithQuadrature selects the frequency-grid weights
func WithQuadrature(q Quadrature) CalculatorOption {
	return func(c *Calculator) {
		c.quadrature = q
	}
}

// NewCalculator validates the market state and transform parameters
func NewCalculator(market MarketState, params heston.ModelParams, alpha float64, n int, du float64, opts ...CalculatorOption) (*Calculator, error) {
	if err := market.validate(); err != nil {
		return nil, err
	}

	c := &Calculator{
		market:     market,
		params:     params,
		fft:        spectral.NewFFT(),
		quadrature: QuadratureRectangle,
		logger: logging.WithFields(logging.Fields{
			"component": "heston_calculator",
		}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.SetCalculatorParams(alpha, n, du); err != nil {
		return nil, err
	}
	return c, nil
}

// SetCalculatorParams validates and installs new transform parameters,
// recomputing dk. On error the previous parameters stay in place.
func (c *Calculator) SetCalculatorParams(alpha float64, n int, du float64) error {
	cfg, err := NewTransformConfig(alpha, n, du)
	if err != nil {
		c.logger.Error(err, "Rejected calculator parameters")
		return err
	}

	if !common.IsPowerOfTwo(n) {
		c.logger.Warn("Grid size is not a power of two, transform will be slower", logging.Fields{
			"n": n,
		})
	}

	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()

	c.logger.Debug("Calculator parameters set", logging.Fields{
		"alpha": cfg.Alpha(),
		"n":     cfg.N(),
		"du":    cfg.DU(),
		"dk":    cfg.DK(),
	})
	return nil
}

// Config returns the transform parameters currently in use
func (c *Calculator) Config() TransformConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *Calculator) Alpha() float64 { return c.Config().Alpha() }
func (c *Calculator) N() int         { return c.Config().N() }
func (c *Calculator) DU() float64    { return c.Config().DU() }
func (c *Calculator) DK() float64    { return c.Config().DK() }

// Market returns the market state
func (c *Calculator) Market() MarketState {
	return c.market
}

// Params returns the Heston parameters
func (c *Calculator) Params() heston.ModelParams {
	return c.params
}

// Quadrature returns the frequency-grid weighting in use
func (c *Calculator) Quadrature() Quadrature {
	return c.quadrature
}

// DiscountFactor returns exp(-r*(T-t))
func (c *Calculator) DiscountFactor(t, T float64) float64 {
	return math.Exp(-c.market.R * (T - t))
}

// LogStrikeGrid returns the log-strike grid the prices are aligned with
func (c *Calculator) LogStrikeGrid() []float64 {
	return c.Config().LogStrikeGrid()
}

// Strikes returns exp of the log-strike grid
func (c *Calculator) Strikes() []float64 {
	return common.Exp(c.LogStrikeGrid())
}

// Calculate prices the option over the whole strike grid. The result is
// index-aligned with LogStrikeGrid.
func (c *Calculator) Calculate(opt OptionSpec) ([]float64, error) {
	return c.CalculateContext(context.Background(), opt)
}

// CalculateContext is Calculate with a context checked before the transform
func (c *Calculator) CalculateContext(ctx context.Context, opt OptionSpec) ([]float64, error) {
	prices, _, err := c.calculate(ctx, opt)
	return prices, err
}

func (c *Calculator) calculate(ctx context.Context, opt OptionSpec) ([]float64, TransformConfig, error) {
	cfg := c.Config()
	T := opt.Maturity()

	logger := c.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Calculate",
		"maturity": T,
		"call":     opt.IsCall(),
	})

	feasible, critical := heston.CheckMomentCondition(T, cfg.Alpha(), c.params)
	if !feasible {
		err := invalid(ErrFeasibility, "maturity %v reaches critical time %v for alpha %v", T, critical, cfg.Alpha())
		logger.Error(err, "Pricing refused")
		return nil, cfg, err
	}

	logStrikes := cfg.LogStrikeGrid()
	uGrid := cfg.FrequencyGrid()

	// log of the forward price
	x := math.Log(c.market.S0 * c.DiscountFactor(T, 0))

	psi := make([]complex128, cfg.N())
	for i, u := range uGrid {
		w := complex(c.quadrature.weight(i), 0)
		psi[i] = w * heston.ExpOptionCF(u, x, c.market.V0, cfg.Alpha(), T, c.params)
	}

	if err := ctx.Err(); err != nil {
		return nil, cfg, err
	}

	logger.Debug("Characteristic function evaluated", logging.Fields{
		"n":          cfg.N(),
		"quadrature": c.quadrature.String(),
	})

	transformed, err := c.fft.Compute(psi)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransform, err)
		logger.Error(err, "Transform failed")
		return nil, cfg, err
	}

	prices := make([]float64, cfg.N())
	damping := make([]float64, cfg.N())
	for j, k := range logStrikes {
		prices[j] = real(transformed[j])
		damping[j] = math.Exp(-cfg.Alpha() * k)
	}
	df := c.DiscountFactor(0, T)
	floats.Mul(prices, damping)
	floats.Scale(df*cfg.DU()/math.Pi, prices)

	if opt.IsCall() {
		return prices, cfg, nil
	}

	// put-call parity: P = C + K*df - S0
	for j, k := range logStrikes {
		prices[j] += math.Exp(k)*df - c.market.S0
	}
	return prices, cfg, nil
}

// PricePoint is the grid price closest to a requested strike
type PricePoint struct {
	Strike       float64 `json:"strike"`       // requested strike
	GridStrike   float64 `json:"grid_strike"`  // nearest grid strike
	Price        float64 `json:"price"`        // price at GridStrike
	Interpolated float64 `json:"interpolated"` // linear interpolation at Strike
	Index        int     `json:"index"`
}

// PriceAt runs Calculate and picks out the grid point nearest to strike
func (c *Calculator) PriceAt(opt OptionSpec, strike float64) (PricePoint, error) {
	prices, cfg, err := c.calculate(context.Background(), opt)
	if err != nil {
		return PricePoint{}, err
	}

	strikes := common.Exp(cfg.LogStrikeGrid())
	idx := common.NearestIndex(strikes, strike)
	return PricePoint{
		Strike:       strike,
		GridStrike:   strikes[idx],
		Price:        prices[idx],
		Interpolated: common.Interpolate(strikes, prices, strike),
		Index:        idx,
	}, nil
}
