/*
DESCRIPTION
  trend.go renders a PNG time-series of beam centroid/width history for
  offline diagnostics, using gonum/plot.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cignus/beamprofiler/beamcalc"
)

// TrendPoint is one sample in a trend export: a beam result tagged with
// its sequence index.
type TrendPoint struct {
	Index int
	Result beamcalc.Result
}

// SaveTrendPNG renders xc, yc, dx and dy over the given history to a PNG
// file at path. This is a batch, non-interactive export — distinct from
// the GUI charting widget spec.md §1 keeps out of scope — intended for
// post-session review of a capture run.
func SaveTrendPNG(path string, history []TrendPoint) error {
	p := plot.New()
	p.Title.Text = "beam trend"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "pixels"

	series := map[string]plotter.XYs{
		"xc": make(plotter.XYs, 0, len(history)),
		"yc": make(plotter.XYs, 0, len(history)),
		"dx": make(plotter.XYs, 0, len(history)),
		"dy": make(plotter.XYs, 0, len(history)),
	}
	for _, pt := range history {
		if pt.Result.NaN {
			continue
		}
		x := float64(pt.Index)
		series["xc"] = append(series["xc"], plotter.XY{X: x, Y: pt.Result.Xc})
		series["yc"] = append(series["yc"], plotter.XY{X: x, Y: pt.Result.Yc})
		series["dx"] = append(series["dx"], plotter.XY{X: x, Y: pt.Result.Dx})
		series["dy"] = append(series["dy"], plotter.XY{X: x, Y: pt.Result.Dy})
	}

	for _, name := range []string{"xc", "yc", "dx", "dy"} {
		line, err := plotter.NewLine(series[name])
		if err != nil {
			return fmt.Errorf("render: build %s line: %w", name, err)
		}
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}
