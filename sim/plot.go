package sim

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewSeriesPlot creates new plot of a series against its smoothed estimate:
// obs:      observations; missing observations (NaN) are not drawn
// smoothed: smoothed signal
// std:      standard deviation of the smoothed signal; nil draws no confidence band
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of obs or smoothed is empty
// * the supplied data do not have the same length
// * gonum plot fails to be created
func NewSeriesPlot(obs, smoothed, std []float64) (*plot.Plot, error) {
	if len(obs) == 0 || len(smoothed) == 0 {
		return nil, fmt.Errorf("invalid data supplied")
	}

	if len(obs) != len(smoothed) || (std != nil && len(std) != len(obs)) {
		return nil, fmt.Errorf("invalid data dimensions")
	}

	p := plot.New()

	p.Title.Text = "Simulation"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "y"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// Make a scatter plotter for observations
	obsScatter, err := plotter.NewScatter(makePoints(obs, nil, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	obsScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	obsScatter.Shape = draw.CircleGlyph{}
	obsScatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(obsScatter)
	p.Legend.Add("observations", obsScatter)

	// Make a line plotter for the smoothed signal
	smoothLine, err := plotter.NewLine(makePoints(smoothed, nil, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %v", err)
	}
	smoothLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	smoothLine.LineStyle.Width = vg.Points(1)

	p.Add(smoothLine)
	p.Legend.Add("smoothed", smoothLine)

	if std == nil {
		return p, nil
	}

	// Make line plotters for the two standard deviation band
	for _, k := range []float64{-2, 2} {
		band, err := plotter.NewLine(makePoints(smoothed, std, k))
		if err != nil {
			return nil, fmt.Errorf("failed to create line: %v", err)
		}
		band.LineStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
		band.LineStyle.Dashes = plotutil.Dashes(1)
		p.Add(band)
		if k > 0 {
			p.Legend.Add("2 std", band)
		}
	}

	return p, nil
}

// makePoints returns the points (t, v[t] + k*std[t]) skipping undefined values
func makePoints(v, std []float64, k float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(v))
	for i, y := range v {
		if std != nil {
			y += k * std[i]
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: y})
	}

	return pts
}
