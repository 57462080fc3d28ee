// Package background implements the ISO 11146 corner-sampled baseline
// estimation, noise-threshold subtraction, and iterative aperture
// refinement loop that drives the beam calculator frame to frame
// (spec.md §4.3).
//
// Grounded on libs/beam_calc/beam_calc.c's cgn_subtract_bkgnd and
// cgn_calc_beam_bkgnd macros, and on calc/base/bg0.c's cgn_calc_beam/
// lbs_calc_beam comparison of the "approximation" vs. "statistical"
// ISO 11146-3 baseline methods (the approximation method, corner-patch
// mean/σ with no unilluminated-pixel re-averaging pass, is what the
// production code and this package both use).
package background

import (
	"math"

	"github.com/cignus/beamprofiler/beamcalc"
)

// minIlluminated is the hard floor below which a frame is reported as
// degenerate (spec.md §3, Beam Result invariants).
const minIlluminated = 10

// Config holds the per-session/per-reconfiguration tunables of spec.md §6.
type Config struct {
	SubtractBackground bool
	MaxIters           int
	Precision          float64 // convergence tolerance factor, range (0,1)
	CornerFraction     float64 // range (0, 0.5)
	NT                 float64 // noise-threshold multiplier, range (0,10)
	MaskDiameter       float64 // range (1,10)
	Aperture           beamcalc.ROI
}

// Baseline is the background state estimated from the aperture's four
// corner patches (spec.md §3, "Background State").
type Baseline struct {
	Mean, Sdev     float64
	Min, Max       float64
	Illuminated    int
	Iters          int
	Threshold      float64
}

// Run performs baseline estimation, subtraction and iterative refinement
// over buf (a w×h image) and writes the background-corrected image into
// scratch, which must have length w*h and is owned by the caller (the
// capture worker's per-camera scratch buffer, spec.md §5 "Resource
// scopes"). It returns the final Beam Result and the Baseline state used
// to produce it.
func Run[P beamcalc.Pixel](buf []P, w, h int, cfg Config, scratch []float64) (beamcalc.Result, Baseline) {
	aperture := cfg.Aperture
	if aperture.Empty() {
		aperture = beamcalc.ROI{X1: 0, Y1: 0, X2: w, Y2: h}
	}
	aperture = aperture.Clamp(w, h)

	bg := subtract(buf, w, h, aperture, cfg.CornerFraction, cfg.NT, scratch)
	if bg.Illuminated < minIlluminated {
		return beamcalc.Result{NaN: true, ROI: aperture}, bg
	}

	res := beamcalc.Calc(scratch, w, h, aperture)
	if res.NaN {
		return res, bg
	}

	for bg.Iters = 0; bg.Iters < cfg.MaxIters; bg.Iters++ {
		xc0, yc0, dx0, dy0 := res.Xc, res.Yc, res.Dx, res.Dy

		next := beamcalc.ROI{
			X1: int(xc0 - dx0/2*cfg.MaskDiameter),
			X2: int(xc0 + dx0/2*cfg.MaskDiameter),
			Y1: int(yc0 - dy0/2*cfg.MaskDiameter),
			Y2: int(yc0 + dy0/2*cfg.MaskDiameter),
		}
		if next.X1 < aperture.X1 {
			next.X1 = aperture.X1
		}
		if next.X2 > aperture.X2 {
			next.X2 = aperture.X2
		}
		if next.Y1 < aperture.Y1 {
			next.Y1 = aperture.Y1
		}
		if next.Y2 > aperture.Y2 {
			next.Y2 = aperture.Y2
		}

		res = beamcalc.Calc(scratch, w, h, next)
		if res.NaN {
			return res, bg
		}

		tol := math.Min(dx0, dy0) * cfg.Precision
		if math.Abs(res.Xc-xc0) < tol && math.Abs(res.Yc-yc0) < tol &&
			math.Abs(res.Dx-dx0) < tol && math.Abs(res.Dy-dy0) < tol {
			bg.Iters++
			break
		}
	}

	return res, bg
}

// subtract estimates the corner-patch baseline and writes the
// background-corrected image into scratch. Pixels outside aperture are
// copied verbatim (spec.md §4.3.2).
func subtract[P beamcalc.Pixel](buf []P, w, h int, aperture beamcalc.ROI, cornerFraction, nT float64, scratch []float64) Baseline {
	x1, y1, x2, y2 := aperture.X1, aperture.Y1, aperture.X2, aperture.Y2
	dw := int(float64(x2-x1) * cornerFraction)
	dh := int(float64(y2-y1) * cornerFraction)
	bx1, bx2 := x1+dw, x2-dw
	by1, by2 := y1+dh, y2-dh

	var k int
	var m float64
	for i := y1; i < y2; i++ {
		if i >= by1 && i < by2 {
			continue
		}
		offset := i * w
		for j := x1; j < x2; j++ {
			if j >= bx1 && j < bx2 {
				continue
			}
			m += float64(buf[offset+j])
			k++
		}
	}
	if k > 0 {
		m /= float64(k)
	}

	var s float64
	for i := y1; i < y2; i++ {
		if i >= by1 && i < by2 {
			continue
		}
		offset := i * w
		for j := x1; j < x2; j++ {
			if j >= bx1 && j < bx2 {
				continue
			}
			d := float64(buf[offset+j]) - m
			s += d * d
		}
	}
	if k > 0 {
		s = math.Sqrt(s / float64(k))
	}

	// Pixels outside the analysis aperture are copied verbatim.
	for i := 0; i < y1; i++ {
		copyRow(buf, scratch, i*w, w)
	}
	for i := y1; i < y2; i++ {
		offset := i * w
		copyRow(buf, scratch, offset, x1)
		for j := x2; j < w; j++ {
			scratch[offset+j] = float64(buf[offset+j])
		}
	}
	for i := y2; i < h; i++ {
		copyRow(buf, scratch, i*w, w)
	}

	th := m + nT*s
	bg := Baseline{Mean: m, Sdev: s, Threshold: th, Min: math.Inf(1), Max: math.Inf(-1)}
	for i := y1; i < y2; i++ {
		offset := i * w
		for j := x1; j < x2; j++ {
			v := float64(buf[offset+j])
			k := offset + j
			if v > th {
				scratch[k] = v - m
				bg.Illuminated++
			} else {
				scratch[k] = 0
			}
			if scratch[k] > bg.Max {
				bg.Max = scratch[k]
			}
			if scratch[k] < bg.Min {
				bg.Min = scratch[k]
			}
		}
	}
	return bg
}

// copyRow widens n raw pixels starting at offset into scratch.
func copyRow[P beamcalc.Pixel](buf []P, scratch []float64, offset, n int) {
	for j := 0; j < n; j++ {
		scratch[offset+j] = float64(buf[offset+j])
	}
}
