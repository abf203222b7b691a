// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package histogram

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot draws the null distribution
// as a histogram with the given number of bins,
// with a vertical line at the observed cost.
// The returned plot can be saved
// in any format supported by gonum/plot.
func (r *Result) Plot(bins int) (*plot.Plot, error) {
	if len(r.Costs) == 0 {
		return nil, errors.New("histogram: no feasible replicate to plot")
	}
	if bins <= 0 {
		bins = 20
	}

	p := plot.New()
	p.Title.Text = "null distribution of reconciliation costs"
	p.X.Label.Text = "minimum cost"
	p.Y.Label.Text = "replicates"

	h, err := plotter.NewHist(plotter.Values(r.Costs), bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = color.RGBA{127, 188, 165, 255}
	p.Add(h)

	_, _, _, yMax := h.DataRange()
	obs := plotter.XYs{
		{X: r.Observed, Y: 0},
		{X: r.Observed, Y: yMax},
	}
	l, err := plotter.NewLine(obs)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = color.RGBA{200, 40, 40, 255}
	p.Add(l)
	p.Legend.Add("observed", l)

	return p, nil
}
