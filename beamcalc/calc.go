// Package beamcalc implements the ISO 11146 two-pass centroid and
// second-moment beam calculation (spec.md §4.2).
//
// Grounded on libs/beam_calc/beam_calc.c's cgn_calc_beam macro
// (instantiated there for uint8_t, uint16_t and double sources) from
// AusOcean/orion-project/beam-inspector's original C implementation, and
// on calc/base/beam0.c's calc_real/calc_bytes comparison, which is where
// the 2√2 diameter constant and the sign/atan2 azimuth formula come from.
package beamcalc

import "math"

// d4sigma is 2*sqrt(2), the ISO 11146 D4σ diameter constant.
const d4sigma = 2.8284271247461903

// Pixel is the set of source sample types the calculator accepts. The
// accumulators are always float64 regardless of this type, per spec.md
// §4.2 ("32-bit drifts visibly for 2k×2k images").
type Pixel interface {
	~uint8 | ~uint16 | ~float64
}

// ROI is a region of interest in pixel coordinates, x1<x2, y1<y2.
type ROI struct {
	X1, Y1, X2, Y2 int
}

// Empty reports whether the ROI encloses no pixels.
func (r ROI) Empty() bool { return r.X1 >= r.X2 || r.Y1 >= r.Y2 }

// Clamp constrains r to lie within bounds [0,w)x[0,h).
func (r ROI) Clamp(w, h int) ROI {
	if r.X1 < 0 {
		r.X1 = 0
	}
	if r.Y1 < 0 {
		r.Y1 = 0
	}
	if r.X2 > w {
		r.X2 = w
	}
	if r.Y2 > h {
		r.Y2 = h
	}
	return r
}

// Result is a beam measurement: centroid, D4σ widths, azimuth and the
// second central moments it was derived from.
type Result struct {
	Xc, Yc     float64
	Dx, Dy     float64
	Phi        float64 // degrees, [-90, 90]
	Xx, Yy, Xy float64 // second central moments, normalized by Power
	Power      float64
	ROI        ROI
	NaN        bool // set when the illuminated/power floor was not met
}

// Calc runs the two-pass centroid and second-moment calculation over roi
// of a w×h image stored row-major in buf. Pixel values are widened to
// float64 before accumulation. If the ROI sums to zero power, Result.NaN
// is set and all other numeric fields are zero.
func Calc[P Pixel](buf []P, w, h int, roi ROI) Result {
	roi = roi.Clamp(w, h)
	if roi.Empty() {
		return Result{NaN: true, ROI: roi}
	}

	var p, sx, sy float64
	for i := roi.Y1; i < roi.Y2; i++ {
		offset := i * w
		for j := roi.X1; j < roi.X2; j++ {
			v := float64(buf[offset+j])
			p += v
			sx += v * float64(j)
			sy += v * float64(i)
		}
	}
	if p == 0 {
		return Result{NaN: true, ROI: roi}
	}
	xc := sx / p
	yc := sy / p

	var xx, yy, xy float64
	for i := roi.Y1; i < roi.Y2; i++ {
		offset := i * w
		di := float64(i) - yc
		for j := roi.X1; j < roi.X2; j++ {
			v := float64(buf[offset+j])
			dj := float64(j) - xc
			xx += v * dj * dj
			xy += v * dj * di
			yy += v * di * di
		}
	}
	xx /= p
	xy /= p
	yy /= p

	dx, dy, phi := axes(xx, yy, xy)

	return Result{
		Xc: xc, Yc: yc,
		Dx: dx, Dy: dy, Phi: phi,
		Xx: xx, Yy: yy, Xy: xy,
		Power: p,
		ROI:   roi,
	}
}

// axes derives the D4σ widths and azimuth from the second central moments,
// per spec.md §4.2 step 4.
func axes(xx, yy, xy float64) (dx, dy, phi float64) {
	s := sign(xx-yy) * math.Sqrt(sqr(xx-yy)+4*sqr(xy))
	dx = d4sigma * math.Sqrt(xx+yy+s)
	dy = d4sigma * math.Sqrt(xx+yy-s)
	if xx == yy && xy == 0 {
		return dx, dy, 0
	}
	phi = 0.5 * math.Atan2(2*xy, xx-yy) * 180 / math.Pi
	return dx, dy, phi
}

func sqr(v float64) float64 { return v * v }

// sign is the trichotomy -1/0/+1, matching the C `sign` macro used
// throughout the original implementation.
func sign(v float64) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// Ellipticity returns min(dx,dy)/max(dx,dy), the ISO 11146 measure of how
// close the beam cross-section is to circular (1 is a perfect circle).
func Ellipticity(dx, dy float64) float64 {
	if dx == 0 && dy == 0 {
		return 0
	}
	if dx < dy {
		return dx / dy
	}
	return dy / dx
}
