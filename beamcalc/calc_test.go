package beamcalc

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestCalcSymmetricGaussianIsCircular(t *testing.T) {
	const w, h = 64, 64
	img := make([]float64, w*h)
	cx, cy, sigma := 32.0, 32.0, 6.0
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			dx := float64(j) - cx
			dy := float64(i) - cy
			img[i*w+j] = math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
		}
	}

	res := Calc(img, w, h, ROI{X1: 0, Y1: 0, X2: w, Y2: h})
	if res.NaN {
		t.Fatal("unexpected NaN result on a well-illuminated frame")
	}
	if math.Abs(res.Xc-cx) > 0.05 {
		t.Errorf("Xc = %v, want close to %v", res.Xc, cx)
	}
	if math.Abs(res.Yc-cy) > 0.05 {
		t.Errorf("Yc = %v, want close to %v", res.Yc, cy)
	}
	if math.Abs(res.Dx-res.Dy) > 0.05 {
		t.Errorf("Dx=%v Dy=%v, want near-equal for a circular beam", res.Dx, res.Dy)
	}
	if e := Ellipticity(res.Dx, res.Dy); e < 0.99 {
		t.Errorf("Ellipticity = %v, want close to 1 for a circular beam", e)
	}
}

func TestCalcZeroPowerIsNaN(t *testing.T) {
	img := make([]float64, 16*16)
	res := Calc(img, 16, 16, ROI{X1: 0, Y1: 0, X2: 16, Y2: 16})
	if !res.NaN {
		t.Fatal("want NaN result for an all-zero frame")
	}
}

func TestCalcEmptyROIIsNaN(t *testing.T) {
	img := make([]float64, 16*16)
	for i := range img {
		img[i] = 1
	}
	res := Calc(img, 16, 16, ROI{X1: 10, Y1: 10, X2: 10, Y2: 12})
	if !res.NaN {
		t.Fatal("want NaN result for an empty ROI")
	}
}

func TestCalcUint8Source(t *testing.T) {
	const w, h = 8, 8
	img := make([]uint8, w*h)
	img[3*w+3] = 200
	img[3*w+4] = 200
	img[4*w+3] = 200
	img[4*w+4] = 200

	res := Calc(img, w, h, ROI{X1: 0, Y1: 0, X2: w, Y2: h})
	if res.NaN {
		t.Fatal("unexpected NaN")
	}
	if math.Abs(res.Xc-3.5) > 1e-9 || math.Abs(res.Yc-3.5) > 1e-9 {
		t.Errorf("Xc=%v Yc=%v, want 3.5,3.5", res.Xc, res.Yc)
	}
}

func TestAxesDegenerateToZeroAzimuth(t *testing.T) {
	_, _, phi := axes(4, 4, 0)
	if phi != 0 {
		t.Errorf("phi = %v, want 0 for xx==yy and xy==0", phi)
	}
}

func TestCalcIsDeterministic(t *testing.T) {
	const w, h = 32, 32
	img := make([]uint16, w*h)
	img[15*w+15] = 500
	img[15*w+16] = 500
	img[16*w+15] = 500
	img[16*w+16] = 500

	roi := ROI{X1: 0, Y1: 0, X2: w, Y2: h}
	a := Calc(img, w, h, roi)
	b := Calc(img, w, h, roi)

	if diff := cmp.Diff(a, b, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Calc is not deterministic (-first +second):\n%s", diff)
	}
}

func TestROIClamp(t *testing.T) {
	r := ROI{X1: -5, Y1: -5, X2: 200, Y2: 200}.Clamp(100, 80)
	if r.X1 != 0 || r.Y1 != 0 || r.X2 != 100 || r.Y2 != 80 {
		t.Errorf("Clamp = %+v, want {0 0 100 80}", r)
	}
}
