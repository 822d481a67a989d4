package pricing

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/RyanBlaney/heston-fft/algorithms/spectral"
	"github.com/RyanBlaney/heston-fft/blackscholes"
	"github.com/RyanBlaney/heston-fft/heston"
	"github.com/RyanBlaney/heston-fft/logging"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(nil)
	os.Exit(m.Run())
}

type testOption struct {
	call     bool
	maturity float64
	strike   float64
}

func (o testOption) IsCall() bool      { return o.call }
func (o testOption) Maturity() float64 { return o.maturity }

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

var (
	example1Market = MarketState{R: 0.02, S0: 1, V0: 0.3}
	example1Params = heston.ModelParams{Rho: -0.2, Kappa: 2, Theta: 0.1, Sigma: 0.7}
	example2Market = MarketState{R: 0.05, S0: 100, V0: 0.2}
	example2Params = heston.ModelParams{Rho: -0.5, Kappa: 10, Theta: 0.2, Sigma: 0.7}
)

func newExample1(t *testing.T, opts ...CalculatorOption) *Calculator {
	t.Helper()
	c, err := NewCalculator(example1Market, example1Params, 2.5, 16384, 0.1, opts...)
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return c
}

func newExample2(t *testing.T, opts ...CalculatorOption) *Calculator {
	t.Helper()
	c, err := NewCalculator(example2Market, example2Params, 2.5, 8192, 0.1, opts...)
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return c
}

func TestNewCalculatorRejectsMarketState(t *testing.T) {
	cases := []struct {
		name   string
		market MarketState
	}{
		{"zero rate", MarketState{R: 0, S0: 1, V0: 0.1}},
		{"negative rate", MarketState{R: -0.01, S0: 1, V0: 0.1}},
		{"zero spot", MarketState{R: 0.01, S0: 0, V0: 0.1}},
		{"zero variance", MarketState{R: 0.01, S0: 1, V0: 0}},
		{"NaN spot", MarketState{R: 0.01, S0: math.NaN(), V0: 0.1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewCalculator(c.market, example1Params, 1, 8, 0.1)
			if !errors.Is(err, ErrConstruction) || !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrConstruction, got %v", err)
			}
		})
	}
}

func TestSetCalculatorParamsValidation(t *testing.T) {
	cases := []struct {
		name  string
		alpha float64
		n     int
		du    float64
	}{
		{"zero alpha", 0, 8, 0.1},
		{"negative alpha", -1, 8, 0.1},
		{"zero grid size", 1, 0, 0.1},
		{"negative grid size", 1, -4, 0.1},
		{"odd grid size", 1, 7, 0.1},
		{"zero grid step", 1, 8, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewCalculator(example1Market, example1Params, c.alpha, c.n, c.du)
			if !errors.Is(err, ErrParameter) || !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrParameter, got %v", err)
			}
		})
	}
}

func TestMinimalParametersAccepted(t *testing.T) {
	eps := 1e-12
	c, err := NewCalculator(MarketState{R: eps, S0: eps, V0: eps}, example1Params, eps, 2, eps)
	if err != nil {
		t.Fatalf("minimal parameters rejected: %v", err)
	}
	if c.N() != 2 {
		t.Errorf("N = %d, want 2", c.N())
	}
}

func TestSetCalculatorParamsKeepsOldConfigOnError(t *testing.T) {
	c := newExample2(t)
	before := c.Config()

	if err := c.SetCalculatorParams(1.5, 9, 0.2); err == nil {
		t.Fatal("expected error for odd grid size")
	}
	if c.Config() != before {
		t.Fatalf("config changed after failed update: %v -> %v", before, c.Config())
	}
}

func TestGridDualityInvariant(t *testing.T) {
	c := newExample2(t)
	settings := []struct {
		alpha float64
		n     int
		du    float64
	}{
		{2.5, 8192, 0.1},
		{1.5, 4096, 0.25},
		{0.75, 2, 3},
		{3, 1000, 0.01},
	}
	for _, s := range settings {
		if err := c.SetCalculatorParams(s.alpha, s.n, s.du); err != nil {
			t.Fatal(err)
		}
		want := 2 * math.Pi / (float64(s.n) * s.du)
		if c.DK() != want {
			t.Errorf("dk = %v, want %v", c.DK(), want)
		}
		if c.Alpha() != s.alpha || c.N() != s.n || c.DU() != s.du {
			t.Errorf("config not applied: %v", c.Config())
		}
	}
}

func TestLogStrikeGrid(t *testing.T) {
	c := newExample2(t)
	grid := c.LogStrikeGrid()
	n, dk := c.N(), c.DK()

	if len(grid) != n {
		t.Fatalf("len = %d, want %d", len(grid), n)
	}
	if !almostEqual(grid[0], -float64(n)*dk/2, 1e-12) {
		t.Errorf("first = %v, want %v", grid[0], -float64(n)*dk/2)
	}
	if !almostEqual(grid[n/2], 0, 1e-12) {
		t.Errorf("middle = %v, want 0", grid[n/2])
	}
	if !almostEqual(grid[n-1], float64(n/2-1)*dk, 1e-12) {
		t.Errorf("last = %v, want %v", grid[n-1], float64(n/2-1)*dk)
	}
	for j := 1; j < n; j++ {
		if !almostEqual(grid[j]-grid[j-1], dk, 1e-12) {
			t.Fatalf("step %d = %v, want %v", j, grid[j]-grid[j-1], dk)
		}
	}

	strikes := c.Strikes()
	if !almostEqual(strikes[n/2], 1, 1e-12) {
		t.Errorf("at-the-money grid strike = %v, want 1", strikes[n/2])
	}
}

func TestCalculateExample2Put(t *testing.T) {
	c := newExample2(t)
	prices, err := c.Calculate(testOption{call: false, maturity: 1, strike: 80})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(prices) != 8192 {
		t.Fatalf("len = %d, want 8192", len(prices))
	}

	strikes := c.Strikes()
	const idx = 4667
	if !almostEqual(strikes[idx], 79.79933327041324, 1e-9) {
		t.Fatalf("grid strike %d = %v", idx, strikes[idx])
	}
	p := prices[idx]
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		t.Fatalf("put price near K=80 = %v, want finite and positive", p)
	}
	if !almostEqual(p, 7.250967502186128, 1e-8) {
		t.Errorf("put price near K=80 = %v, want 7.250967502186128", p)
	}
}

func TestCalculateIgnoresStrike(t *testing.T) {
	c := newExample2(t)
	a, err := c.Calculate(testOption{call: true, maturity: 1, strike: 80})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Calculate(testOption{call: true, maturity: 1, strike: 120})
	if err != nil {
		t.Fatal(err)
	}
	for j := range a {
		if a[j] != b[j] {
			t.Fatalf("price %d depends on the option strike: %v vs %v", j, a[j], b[j])
		}
	}
}

func TestPutCallParity(t *testing.T) {
	c := newExample2(t)
	T := 1.0
	calls, err := c.Calculate(testOption{call: true, maturity: T})
	if err != nil {
		t.Fatal(err)
	}
	puts, err := c.Calculate(testOption{call: false, maturity: T})
	if err != nil {
		t.Fatal(err)
	}

	s0 := example2Market.S0
	df := math.Exp(-example2Market.R * T)
	for j, k := range c.Strikes() {
		if k < 40 || k > 250 {
			continue
		}
		want := calls[j] - s0 + k*df
		if !almostEqual(puts[j], want, 1e-9) {
			t.Fatalf("K=%v: put %v, call - S0 + K*df = %v", k, puts[j], want)
		}
	}
}

func TestFeasibilityGate(t *testing.T) {
	c := newExample1(t)
	critical := heston.CriticalTime(2.5, example1Params)

	_, err := c.Calculate(testOption{call: true, maturity: 2})
	if !errors.Is(err, ErrFeasibility) || !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("T=2 > T*=%v: expected ErrFeasibility, got %v", critical, err)
	}

	_, err = c.Calculate(testOption{call: true, maturity: critical})
	if !errors.Is(err, ErrFeasibility) {
		t.Fatalf("T == T*: expected ErrFeasibility, got %v", err)
	}

	// lowering alpha pushes T* out beyond 2 years
	if err := c.SetCalculatorParams(0.75, 4096, 0.1); err != nil {
		t.Fatal(err)
	}
	if ok, tStar := heston.CheckMomentCondition(2, 0.75, example1Params); !ok {
		t.Fatalf("alpha=0.75 should be feasible at T=2, T*=%v", tStar)
	}
	if _, err := c.Calculate(testOption{call: true, maturity: 2}); err != nil {
		t.Fatalf("feasible pricing failed: %v", err)
	}
}

func TestEndToEndExample1(t *testing.T) {
	c := newExample1(t)
	prices, err := c.Calculate(testOption{call: true, maturity: 0.5, strike: 1})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(prices) != 16384 {
		t.Fatalf("len = %d, want 16384", len(prices))
	}

	for j, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("price %d is not finite: %v", j, p)
		}
		if p < 0 {
			t.Fatalf("price %d is negative: %v", j, p)
		}
	}

	strikes := c.Strikes()
	for j := 1; j < len(prices); j++ {
		if strikes[j] < 0.05 || strikes[j] > 20 {
			continue
		}
		if prices[j] > prices[j-1]+1e-12 {
			t.Fatalf("call price increases at K=%v: %v -> %v", strikes[j], prices[j-1], prices[j])
		}
	}

	if !almostEqual(prices[8192], 0.13689995582591852, 1e-10) {
		t.Errorf("at-the-money call = %v, want 0.13689995582591852", prices[8192])
	}
}

func TestPriceAt(t *testing.T) {
	c := newExample2(t)
	opt := testOption{call: false, maturity: 1, strike: 80}

	point, err := c.PriceAt(opt, 80)
	if err != nil {
		t.Fatal(err)
	}
	prices, _ := c.Calculate(opt)

	if point.Index != 4667 || point.Price != prices[4667] {
		t.Fatalf("unexpected point: %+v", point)
	}
	if point.Strike != 80 || !almostEqual(point.GridStrike, 79.79933327041324, 1e-9) {
		t.Errorf("strikes wrong: %+v", point)
	}
	lo, hi := prices[4667], prices[4668]
	if point.Interpolated < math.Min(lo, hi) || point.Interpolated > math.Max(lo, hi) {
		t.Errorf("interpolated %v outside [%v, %v]", point.Interpolated, lo, hi)
	}

	if _, err := newExample1(t).PriceAt(testOption{call: true, maturity: 5}, 1); !errors.Is(err, ErrFeasibility) {
		t.Errorf("expected ErrFeasibility, got %v", err)
	}
}

func TestCalculateContextCanceled(t *testing.T) {
	c := newExample2(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.CalculateContext(ctx, testOption{call: true, maturity: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSplitEngineMatchesDefault(t *testing.T) {
	split, err := spectral.NewFFTWithMethod(spectral.MethodSplit)
	if err != nil {
		t.Fatal(err)
	}
	market := MarketState{R: 0.03, S0: 1, V0: 0.04}
	params := heston.ModelParams{Rho: -0.7, Kappa: 1.5, Theta: 0.04, Sigma: 0.5}

	fast, err := NewCalculator(market, params, 1.5, 512, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	slow, err := NewCalculator(market, params, 1.5, 512, 0.25, WithFFT(split))
	if err != nil {
		t.Fatal(err)
	}

	opt := testOption{call: true, maturity: 1}
	a, _ := fast.Calculate(opt)
	b, _ := slow.Calculate(opt)
	for j := range a {
		if !almostEqual(a[j], b[j], 1e-9*math.Max(1, math.Abs(a[j]))) {
			t.Fatalf("price %d: dsp %v, split %v", j, a[j], b[j])
		}
	}
}

func TestTransformErrorWrapped(t *testing.T) {
	c := newExample2(t)
	// bypass NewTransformConfig to reach the engine's own length check
	c.config = TransformConfig{alpha: 2.5, n: 3, du: 0.1, dk: 2 * math.Pi / 0.3}

	_, err := c.Calculate(testOption{call: true, maturity: 1})
	if !errors.Is(err, ErrTransform) || !errors.Is(err, spectral.ErrOddLength) {
		t.Fatalf("expected ErrTransform wrapping ErrOddLength, got %v", err)
	}
}

func TestSimpsonMatchesBlackScholesLimit(t *testing.T) {
	// vanishing vol-of-vol with v0 = theta is Black-Scholes with vol sqrt(theta)
	market := MarketState{R: 0.03, S0: 100, V0: 0.04}
	params := heston.ModelParams{Rho: 0, Kappa: 1, Theta: 0.04, Sigma: 0.001}
	c, err := NewCalculator(market, params, 1.5, 4096, 0.25, WithQuadrature(QuadratureSimpson))
	if err != nil {
		t.Fatal(err)
	}

	for _, strike := range []float64{80, 100, 120} {
		point, err := c.PriceAt(testOption{call: true, maturity: 1}, strike)
		if err != nil {
			t.Fatal(err)
		}
		want, err := blackscholes.Price(true, 100, point.GridStrike, 0.03, 0.2, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(point.Price, want, 1e-4) {
			t.Errorf("K=%v: heston %v, black-scholes %v", point.GridStrike, point.Price, want)
		}
	}
}

func TestSimpsonAgreesWithMonteCarlo(t *testing.T) {
	c := newExample2(t, WithQuadrature(QuadratureSimpson))
	point, err := c.PriceAt(testOption{call: true, maturity: 1}, 100)
	if err != nil {
		t.Fatal(err)
	}

	sim := heston.NewSimulator(example2Params, 42)
	mc, err := sim.Price(example2Market.R, example2Market.S0, example2Market.V0, 1, point.GridStrike, true)
	if err != nil {
		t.Fatal(err)
	}

	// Euler discretisation adds a small bias on top of the sampling error
	if tol := 4*mc.StdErr + 0.15; !almostEqual(point.Price, mc.Price, tol) {
		t.Fatalf("fft %v vs monte carlo %v (tolerance %v)", point.Price, mc.Price, tol)
	}
}

func TestQuadratureWeights(t *testing.T) {
	rect := []float64{1, -1, 1, -1, 1}
	simpson := []float64{1.0 / 3, -4.0 / 3, 2.0 / 3, -4.0 / 3, 2.0 / 3}
	for i := range rect {
		if got := QuadratureRectangle.weight(i); got != rect[i] {
			t.Errorf("rectangle weight %d = %v, want %v", i, got, rect[i])
		}
		if got := QuadratureSimpson.weight(i); !almostEqual(got, simpson[i], 1e-15) {
			t.Errorf("simpson weight %d = %v, want %v", i, got, simpson[i])
		}
	}

	q, err := ParseQuadrature("Simpson")
	if err != nil || q != QuadratureSimpson {
		t.Errorf("ParseQuadrature(Simpson) = %v, %v", q, err)
	}
	if _, err := ParseQuadrature("gauss"); err == nil {
		t.Error("expected error for unknown quadrature")
	}
}

func TestConcurrentPricingAndReconfiguration(t *testing.T) {
	market := MarketState{R: 0.03, S0: 1, V0: 0.04}
	params := heston.ModelParams{Rho: -0.7, Kappa: 1.5, Theta: 0.04, Sigma: 0.5}
	c, err := NewCalculator(market, params, 1.5, 256, 0.25)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for iter := 0; iter < 10; iter++ {
				prices, err := c.Calculate(testOption{call: w%2 == 0, maturity: 0.5})
				if err != nil {
					errs <- err
					return
				}
				if len(prices) != 256 && len(prices) != 512 {
					errs <- errors.New("result length matches neither config")
					return
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			n := 256
			if i%2 == 0 {
				n = 512
			}
			if err := c.SetCalculatorParams(1.5, n, 0.25); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
