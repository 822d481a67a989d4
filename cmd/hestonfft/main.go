package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/RyanBlaney/heston-fft/algorithms/spectral"
	"github.com/RyanBlaney/heston-fft/blackscholes"
	"github.com/RyanBlaney/heston-fft/config"
	"github.com/RyanBlaney/heston-fft/export"
	"github.com/RyanBlaney/heston-fft/heston"
	"github.com/RyanBlaney/heston-fft/logging"
	"github.com/RyanBlaney/heston-fft/option"
	"github.com/RyanBlaney/heston-fft/pricing"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	value   = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, failure("error:"), err)
		os.Exit(1)
	}
}

type cliOptions struct {
	preset   string
	config   string
	dotenv   string
	csv      string
	png      string
	json     string
	quiet    bool
	verify   bool
	paths    int
	seed     uint64
	noColor  bool
	logLevel string
}

func parseFlags(args []string) (*cliOptions, error) {
	o := &cliOptions{}
	fs := flag.NewFlagSet("hestonfft", flag.ContinueOnError)
	fs.StringVar(&o.preset, "preset", "example-1", "Built-in run: example-1 (calls, S0=1) or example-2 (puts, S0=100)")
	fs.StringVar(&o.config, "config", "", "JSON run configuration overlaid on the preset")
	fs.StringVar(&o.dotenv, "env", ".env", "Optional .env file with HESTON_* overrides")
	fs.StringVar(&o.csv, "csv", "", "CSV output name without extension (overrides config)")
	fs.StringVar(&o.png, "png", "", "PNG plot name without extension (overrides config)")
	fs.StringVar(&o.json, "json", "", "JSON output path (overrides config)")
	fs.BoolVar(&o.quiet, "q", false, "Do not print the price rows")
	fs.BoolVar(&o.verify, "verify", false, "Cross-check the requested strike with Monte Carlo and Black-Scholes implied vol")
	fs.IntVar(&o.paths, "paths", 20000, "Monte Carlo paths for -verify")
	fs.Uint64Var(&o.seed, "seed", 1, "Monte Carlo seed for -verify")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable coloured output")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func loadConfig(o *cliOptions) (*config.RunConfig, error) {
	if err := config.LoadDotEnv(o.dotenv); err != nil {
		return nil, err
	}

	cfg, err := config.Preset(o.preset)
	if err != nil {
		return nil, err
	}
	if o.config != "" {
		if cfg, err = config.Load(o.config, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if o.csv != "" {
		cfg.Output.CSV = o.csv
	}
	if o.png != "" {
		cfg.Output.PNG = o.png
	}
	if o.json != "" {
		cfg.Output.JSON = o.json
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCalculator(cfg *config.RunConfig) (*pricing.Calculator, error) {
	engine, err := spectral.NewFFTWithMethod(spectral.Method(cfg.Transform.FFTMethod))
	if err != nil {
		return nil, err
	}
	quadrature, err := pricing.ParseQuadrature(cfg.Transform.Quadrature)
	if err != nil {
		return nil, err
	}
	return pricing.NewCalculator(cfg.Market, cfg.Model,
		cfg.Transform.Alpha, cfg.Transform.N, cfg.Transform.DU,
		pricing.WithFFT(engine),
		pricing.WithQuadrature(quadrature),
	)
}

func run(args []string, out io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.noColor {
		color.NoColor = true
		logging.DisableColors()
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	logger := logging.WithFields(logging.Fields{
		"component": "hestonfft",
	})

	opt, err := option.New(cfg.Option.Call, cfg.Option.Maturity, cfg.Option.Strike)
	if err != nil {
		return err
	}
	calc, err := newCalculator(cfg)
	if err != nil {
		return err
	}

	feasible, critical := heston.CheckMomentCondition(opt.Maturity(), calc.Alpha(), calc.Params())
	fmt.Fprintf(out, "%s %s\n", heading("option:"), opt)
	fmt.Fprintf(out, "%s %s, critical time %s, feller %v\n",
		heading("grid:"), calc.Config(), value(critical), calc.Params().FellerSatisfied())
	if !feasible {
		fmt.Fprintln(out, warning("maturity is past the critical time, lower alpha or the maturity"))
	}

	prices, err := calc.Calculate(opt)
	if err != nil {
		return err
	}
	strikes := calc.Strikes()

	point, err := calc.PriceAt(opt, opt.Strike())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s K=%v (grid K=%.12g) price %s, interpolated %.12g\n",
		heading("nearest:"), point.Strike, point.GridStrike, value(fmt.Sprintf("%.12g", point.Price)), point.Interpolated)

	printer, err := export.NewPricesPrinter(cfg.Output.Lower, cfg.Output.Upper)
	if err != nil {
		return err
	}
	if !o.quiet {
		fmt.Fprintln(out, heading(fmt.Sprintf("prices for K in [%v, %v]:", printer.Lower(), printer.Upper())))
		if err := printer.ToOut(out, strikes, prices); err != nil {
			return err
		}
	}

	if err := writeOutputs(cfg, printer, strikes, prices, out); err != nil {
		return err
	}

	if o.verify {
		if err := verify(cfg, opt, point, o, out); err != nil {
			return err
		}
	}

	logger.Info("Run complete", logging.Fields{
		"n":      calc.N(),
		"strike": point.GridStrike,
		"price":  point.Price,
	})
	return nil
}

func writeOutputs(cfg *config.RunConfig, printer *export.PricesPrinter, strikes, prices []float64, out io.Writer) error {
	if cfg.Output.CSV != "" {
		if err := printer.ToCSV(cfg.Output.CSV, strikes, prices); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s.csv\n", heading("wrote"), cfg.Output.CSV)
	}

	if cfg.Output.PNG != "" {
		kind := "put"
		if cfg.Option.Call {
			kind = "call"
		}
		title := fmt.Sprintf("Heston %s prices, T=%v", kind, cfg.Option.Maturity)
		if err := printer.ToPNG(cfg.Output.PNG, title, strikes, prices); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s.png\n", heading("wrote"), cfg.Output.PNG)
	}

	if cfg.Output.JSON != "" {
		if dir := filepath.Dir(cfg.Output.JSON); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		f, err := os.Create(cfg.Output.JSON)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := printer.ToJSON(f, strikes, prices); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", heading("wrote"), cfg.Output.JSON)
	}
	return nil
}

func verify(cfg *config.RunConfig, opt *option.EuropeanOption, point pricing.PricePoint, o *cliOptions, out io.Writer) error {
	sim := heston.NewSimulator(cfg.Model, o.seed)
	sim.Paths = o.paths
	mc, err := sim.Price(cfg.Market.R, cfg.Market.S0, cfg.Market.V0, opt.Maturity(), point.GridStrike, opt.IsCall())
	if err != nil {
		return err
	}

	fmt.Fprintln(out, heading("verify:"))
	fmt.Fprintf(out, "  fft          %.8f\n", point.Price)
	fmt.Fprintf(out, "  monte carlo  %.8f +/- %.8f (%d paths)\n", mc.Price, mc.StdErr, mc.Paths)
	if diff := point.Price - mc.Price; diff > 4*mc.StdErr || diff < -4*mc.StdErr {
		fmt.Fprintln(out, warning("  fft price is more than 4 standard errors from monte carlo"))
	}

	iv, err := blackscholes.ImpliedVol(opt.IsCall(), point.Price, cfg.Market.S0, point.GridStrike, cfg.Market.R, opt.Maturity())
	if err != nil {
		fmt.Fprintf(out, "  implied vol  %s\n", warning(err.Error()))
		return nil
	}
	fmt.Fprintf(out, "  implied vol  %.6f\n", iv)
	return nil
}
