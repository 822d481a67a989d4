package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xhhuango/json"

	"github.com/RyanBlaney/heston-fft/logging"
)

var (
	// ErrInvalidBounds is returned for a negative bound or lower >= upper
	ErrInvalidBounds = errors.New("invalid strike bounds")

	// ErrLengthMismatch is returned when strikes and prices differ in length
	ErrLengthMismatch = errors.New("strikes and prices differ in length")
)

// Row is one exported (strike, price) pair
type Row struct {
	Strike float64 `json:"K"`
	Price  float64 `json:"C"`
}

// PricesPrinter writes the part of a price grid that falls inside
// [lower, upper]. Strikes must be ascending; output stops at the first
// strike above upper.
type PricesPrinter struct {
	lower  float64
	upper  float64
	logger logging.Logger
}

// NewPricesPrinter returns a printer for strikes in [lower, upper]
func NewPricesPrinter(lower, upper float64) (*PricesPrinter, error) {
	p := &PricesPrinter{
		logger: logging.WithFields(logging.Fields{
			"component": "prices_printer",
		}),
	}
	if err := p.SetBounds(lower, upper); err != nil {
		return nil, err
	}
	return p, nil
}

// SetBounds replaces the strike window. On error the old window is kept.
func (p *PricesPrinter) SetBounds(lower, upper float64) error {
	switch {
	case lower < 0:
		return fmt.Errorf("%w: lower bound is negative: %v", ErrInvalidBounds, lower)
	case upper < 0:
		return fmt.Errorf("%w: upper bound is negative: %v", ErrInvalidBounds, upper)
	case !(lower < upper):
		return fmt.Errorf("%w: lower bound %v is not below upper bound %v", ErrInvalidBounds, lower, upper)
	}
	p.lower, p.upper = lower, upper
	return nil
}

func (p *PricesPrinter) Lower() float64 { return p.lower }
func (p *PricesPrinter) Upper() float64 { return p.upper }

// Rows returns the bounded rows shared by every output format
func (p *PricesPrinter) Rows(strikes, prices []float64) ([]Row, error) {
	if len(strikes) != len(prices) {
		return nil, fmt.Errorf("%w: %d strikes, %d prices", ErrLengthMismatch, len(strikes), len(prices))
	}

	rows := make([]Row, 0)
	for i, k := range strikes {
		if k > p.upper {
			break
		}
		if k >= p.lower {
			rows = append(rows, Row{Strike: k, Price: prices[i]})
		}
	}
	return rows, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// ToOut writes one "K=<strike>\tC=<price>" line per bounded row
func (p *PricesPrinter) ToOut(w io.Writer, strikes, prices []float64) error {
	rows, err := p.Rows(strikes, prices)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, r := range rows {
		if _, err := fmt.Fprintf(bw, "K=%s\tC=%s\n", formatValue(r.Strike), formatValue(r.Price)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ToCSV writes name + ".csv" with a "K,C" header, creating parent
// directories as needed.
func (p *PricesPrinter) ToCSV(name string, strikes, prices []float64) error {
	rows, err := p.Rows(strikes, prices)
	if err != nil {
		return err
	}

	path := name + ".csv"
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	fmt.Fprintln(bw, "K,C")
	for _, r := range rows {
		fmt.Fprintf(bw, "%s,%s\n", formatValue(r.Strike), formatValue(r.Price))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	p.logger.Debug("CSV written", logging.Fields{
		"path": path,
		"rows": len(rows),
	})
	return f.Close()
}

// ToJSON writes the bounded rows as a JSON array
func (p *PricesPrinter) ToJSON(w io.Writer, strikes, prices []float64) error {
	rows, err := p.Rows(strikes, prices)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

func create(path string) (*os.File, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}
