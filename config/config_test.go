package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/heston-fft/heston"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range []string{"example-1", "example-2", ""} {
		cfg, err := Preset(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%q does not validate: %v", name, err)
		}
	}
	if _, err := Preset("example-3"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetsAreIndependent(t *testing.T) {
	a := Example2Config()
	a.Market.S0 = 1
	if Example2Config().Market.S0 != 100 {
		t.Error("preset shares state between calls")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*RunConfig){
		"rho":        func(c *RunConfig) { c.Model.Rho = 1 },
		"odd n":      func(c *RunConfig) { c.Transform.N = 1001 },
		"alpha":      func(c *RunConfig) { c.Transform.Alpha = 0 },
		"fft method": func(c *RunConfig) { c.Transform.FFTMethod = "radix4" },
		"quadrature": func(c *RunConfig) { c.Transform.Quadrature = "gauss" },
		"spot":       func(c *RunConfig) { c.Market.S0 = 0 },
		"maturity":   func(c *RunConfig) { c.Option.Maturity = -1 },
		"strike":     func(c *RunConfig) { c.Option.Strike = 0 },
		"bounds":     func(c *RunConfig) { c.Output.Lower = c.Output.Upper },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Example2Config()
			mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	cfg := Example1Config()
	cfg.Model.Sigma = -1
	if err := cfg.Validate(); !errors.Is(err, heston.ErrInvalidParams) {
		t.Errorf("model error not wrapped: %v", err)
	}
}

func TestLoadOverlaysBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	body := `{"transform": {"n": 4096, "quadrature": "simpson"}, "option": {"strike": 95}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, Example2Config())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transform.N != 4096 || cfg.Transform.Quadrature != "simpson" || cfg.Option.Strike != 95 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Transform.Alpha != 2.5 || cfg.Market.S0 != 100 || cfg.Option.Call {
		t.Errorf("base values lost: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)
	if _, err := Load(bad, nil); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HESTON_N", "2048")
	t.Setenv("HESTON_CALL", "true")
	t.Setenv("HESTON_STRIKE", "105.5")
	t.Setenv("HESTON_FFT_METHOD", "split")

	cfg := Example2Config()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.Transform.N != 2048 || !cfg.Option.Call || cfg.Option.Strike != 105.5 || cfg.Transform.FFTMethod != "split" {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if cfg.Market.R != 0.05 {
		t.Errorf("unset variable changed config: r=%v", cfg.Market.R)
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("HESTON_ALPHA", "two")
	if err := Example1Config().ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("HESTON_TEST_DOTENV=4096\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HESTON_TEST_DOTENV", "")
	os.Unsetenv("HESTON_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("HESTON_TEST_DOTENV"); got != "4096" {
		t.Errorf("HESTON_TEST_DOTENV = %q, want 4096", got)
	}
}
