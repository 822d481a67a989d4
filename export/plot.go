package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/RyanBlaney/heston-fft/logging"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// ToPNG plots the bounded price curve against strike into name + ".png"
func (p *PricesPrinter) ToPNG(name, title string, strikes, prices []float64) error {
	rows, err := p.Rows(strikes, prices)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no strikes in [%v, %v] to plot", p.lower, p.upper)
	}

	pts := make(plotter.XYs, len(rows))
	for i, r := range rows {
		pts[i].X = r.Strike
		pts[i].Y = r.Price
	}

	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = "K"
	plt.Y.Label.Text = "price"
	plt.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build price line: %w", err)
	}
	plt.Add(line)

	path := name + ".png"
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := plt.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	p.logger.Debug("Plot written", logging.Fields{
		"path":   path,
		"points": len(pts),
	})
	return nil
}
