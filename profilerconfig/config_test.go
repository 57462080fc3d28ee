package profilerconfig

import (
	"testing"

	"github.com/cignus/beamprofiler/internal/logging"
)

func TestUpdateAndValidate(t *testing.T) {
	c := New(logging.NoOp())
	c.Update(map[string]string{
		KeyNormalize:          "true",
		KeySubtractBackground: "true",
		KeyMaxIters:           "5",
		KeyPrecision:          "0.02",
		KeyCornerFraction:     "0.15",
		KeyNT:                 "4",
		KeyMaskDiameter:       "2.5",
		KeyApertureEnabled:    "true",
		KeyApertureX1:         "10",
		KeyApertureY1:         "20",
		KeyApertureX2:         "500",
		KeyApertureY2:         "400",
	})
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !c.Normalize || !c.SubtractBackground {
		t.Fatal("bool fields did not update")
	}
	if c.MaxIters != 5 {
		t.Errorf("MaxIters = %d, want 5", c.MaxIters)
	}
	roi := c.Aperture()
	if roi.X1 != 10 || roi.Y1 != 20 || roi.X2 != 500 || roi.Y2 != 400 {
		t.Errorf("Aperture = %+v, want {10 20 500 400}", roi)
	}
}

func TestValidateClampsOutOfRangeFields(t *testing.T) {
	c := New(logging.NoOp())
	c.Update(map[string]string{
		KeyMaxIters:       "999",
		KeyPrecision:      "5",
		KeyCornerFraction: "0.9",
		KeyNT:             "50",
		KeyMaskDiameter:   "0.1",
	})
	if err := c.Validate(); err == nil {
		t.Fatal("Validate: want a non-nil error describing the clamps applied")
	}
	if c.MaxIters != defaultMaxIters {
		t.Errorf("MaxIters = %d, want clamped default %d", c.MaxIters, defaultMaxIters)
	}
	if c.Precision != defaultPrecision {
		t.Errorf("Precision = %v, want clamped default %v", c.Precision, defaultPrecision)
	}
	if c.CornerFraction != defaultCornerFraction {
		t.Errorf("CornerFraction = %v, want clamped default %v", c.CornerFraction, defaultCornerFraction)
	}
	if c.NT != defaultNT {
		t.Errorf("NT = %v, want clamped default %v", c.NT, defaultNT)
	}
	if c.MaskDiameter != defaultMaskDiameter {
		t.Errorf("MaskDiameter = %v, want clamped default %v", c.MaskDiameter, defaultMaskDiameter)
	}
}

func TestApertureDisabledReturnsEmptyROI(t *testing.T) {
	c := New(logging.NoOp())
	roi := c.Aperture()
	if !roi.Empty() {
		t.Errorf("Aperture() = %+v, want empty when ApertureEnabled is false", roi)
	}
}
