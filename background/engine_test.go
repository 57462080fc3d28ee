package background

import (
	"math"
	"testing"

	"github.com/cignus/beamprofiler/beamcalc"
)

func flatWithSquare(w, h int, base, bright uint16, x1, y1, x2, y2 int) []uint16 {
	img := make([]uint16, w*h)
	for i := range img {
		img[i] = base
	}
	for i := y1; i < y2; i++ {
		for j := x1; j < x2; j++ {
			img[i*w+j] = bright
		}
	}
	return img
}

func TestRunFindsIlluminatedSquare(t *testing.T) {
	const w, h = 64, 64
	img := flatWithSquare(w, h, 10, 250, 28, 28, 36, 36)
	scratch := make([]float64, w*h)

	cfg := Config{
		MaxIters:       5,
		Precision:      0.01,
		CornerFraction: 0.25,
		NT:             3,
		MaskDiameter:   3,
		Aperture:       beamcalc.ROI{X1: 0, Y1: 0, X2: w, Y2: h},
	}

	res, bg := Run(img, w, h, cfg, scratch)
	if res.NaN {
		t.Fatal("unexpected NaN result over an illuminated frame")
	}
	if bg.Illuminated < minIlluminated {
		t.Fatalf("Illuminated = %d, want >= %d", bg.Illuminated, minIlluminated)
	}
	if math.Abs(bg.Mean-10) > 1e-9 {
		t.Errorf("Mean = %v, want 10 (flat background)", bg.Mean)
	}
	wantCx, wantCy := 32.0, 32.0
	if math.Abs(res.Xc-wantCx) > 0.5 {
		t.Errorf("Xc = %v, want close to %v", res.Xc, wantCx)
	}
	if math.Abs(res.Yc-wantCy) > 0.5 {
		t.Errorf("Yc = %v, want close to %v", res.Yc, wantCy)
	}
}

func TestRunBelowIlluminatedFloorIsNaN(t *testing.T) {
	const w, h = 32, 32
	img := make([]uint16, w*h)
	for i := range img {
		img[i] = 10
	}
	scratch := make([]float64, w*h)

	cfg := Config{
		MaxIters:       5,
		Precision:      0.01,
		CornerFraction: 0.25,
		NT:             3,
		MaskDiameter:   3,
		Aperture:       beamcalc.ROI{X1: 0, Y1: 0, X2: w, Y2: h},
	}

	res, bg := Run(img, w, h, cfg, scratch)
	if !res.NaN {
		t.Fatal("want NaN result for a frame with no illuminated pixels")
	}
	if bg.Illuminated != 0 {
		t.Errorf("Illuminated = %d, want 0", bg.Illuminated)
	}
}

func TestRunDefaultsApertureToFullFrame(t *testing.T) {
	const w, h = 48, 48
	img := flatWithSquare(w, h, 5, 200, 20, 20, 28, 28)
	scratch := make([]float64, w*h)

	cfg := Config{
		MaxIters:       3,
		Precision:      0.05,
		CornerFraction: 0.2,
		NT:             3,
		MaskDiameter:   3,
	}

	res, _ := Run(img, w, h, cfg, scratch)
	if res.NaN {
		t.Fatal("unexpected NaN with a zero-value (defaulted) aperture")
	}
	if res.ROI.X1 < 0 || res.ROI.Y1 < 0 || res.ROI.X2 > w || res.ROI.Y2 > h {
		t.Errorf("ROI = %+v escapes the defaulted full-frame aperture %dx%d", res.ROI, w, h)
	}
}
