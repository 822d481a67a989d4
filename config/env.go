package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable ApplyEnv reads
const EnvPrefix = "HESTON_"

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding variables already set. Missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays HESTON_* environment variables onto the config, e.g.
// HESTON_N=4096 or HESTON_CALL=false.
func (c *RunConfig) ApplyEnv() error {
	floatVars := map[string]*float64{
		"R":        &c.Market.R,
		"S0":       &c.Market.S0,
		"V0":       &c.Market.V0,
		"RHO":      &c.Model.Rho,
		"KAPPA":    &c.Model.Kappa,
		"THETA":    &c.Model.Theta,
		"SIGMA":    &c.Model.Sigma,
		"ALPHA":    &c.Transform.Alpha,
		"DU":       &c.Transform.DU,
		"MATURITY": &c.Option.Maturity,
		"STRIKE":   &c.Option.Strike,
		"LOWER":    &c.Output.Lower,
		"UPPER":    &c.Output.Upper,
	}
	for name, dst := range floatVars {
		raw, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %w", ErrInvalidConfig, EnvPrefix, name, raw, err)
		}
		*dst = v
	}

	if raw, ok := os.LookupEnv(EnvPrefix + "N"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %sN=%q: %w", ErrInvalidConfig, EnvPrefix, raw, err)
		}
		c.Transform.N = n
	}
	if raw, ok := os.LookupEnv(EnvPrefix + "CALL"); ok {
		call, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %sCALL=%q: %w", ErrInvalidConfig, EnvPrefix, raw, err)
		}
		c.Option.Call = call
	}

	stringVars := map[string]*string{
		"FFT_METHOD": &c.Transform.FFTMethod,
		"QUADRATURE": &c.Transform.Quadrature,
		"CSV":        &c.Output.CSV,
		"PNG":        &c.Output.PNG,
		"JSON":       &c.Output.JSON,
		"LOG_LEVEL":  &c.LogLevel,
	}
	for name, dst := range stringVars {
		if raw, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = raw
		}
	}
	return nil
}
