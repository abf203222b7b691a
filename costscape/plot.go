// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package costscape

import (
	"errors"

	"github.com/js-arias/blind"
	"golang.org/x/exp/slices"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// Plot draws the regions of a cost rectangle.
// Each region is filled with a distinct color
// of a color-blind friendly scale
// and keyed by its signature in the legend.
// Degenerate (zero area) regions are skipped:
// their signatures are visible
// as the boundaries of their neighbors.
func Plot(regions []Region, cfg Config) (*plot.Plot, error) {
	if len(regions) == 0 {
		return nil, errors.New("costscape: no region to plot")
	}

	p := plot.New()
	p.Title.Text = "cost regions"
	p.X.Label.Text = "duplication cost"
	p.Y.Label.Text = "transfer cost"
	p.X.Min, p.X.Max = cfg.DupMin, cfg.DupMax
	p.Y.Min, p.Y.Max = cfg.TransferMin, cfg.TransferMax

	// large regions first,
	// so thin ones stay visible
	rs := slices.Clone(regions)
	slices.SortStableFunc(rs, func(a, b Region) int {
		if d := b.Area() - a.Area(); d != 0 {
			if d > 0 {
				return 1
			}
			return -1
		}
		return 0
	})

	drawn := 0
	for i, r := range rs {
		if len(r.Vertices) < 3 {
			continue
		}
		xys := make(plotter.XYs, len(r.Vertices))
		for j, v := range r.Vertices {
			xys[j].X = v.Dup
			xys[j].Y = v.Transfer
		}
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return nil, err
		}
		poly.Color = blind.Sequential(blind.Iridescent, float64(i+1)/float64(len(rs)+1))
		p.Add(poly)
		p.Legend.Add(r.Signatures[0].String(), poly)
		drawn++
	}
	if drawn == 0 {
		return nil, errors.New("costscape: only degenerate regions to plot")
	}
	return p, nil
}
