package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cignus/beamprofiler/beamcalc"
)

func TestOverlaySnapshotFallback(t *testing.T) {
	o := NewOverlay(false)
	o.InitGraph(32, 32)

	plane := o.RawGraph()
	for i := range plane {
		plane[i] = float64(i % 100)
	}
	o.InvalidateGraph()
	o.SetResult(beamcalc.Result{Xc: 16, Yc: 16, Dx: 8, Dy: 8}, 0, 100)

	img, err := o.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("snapshot size = %v, want 32x32", img.Bounds())
	}
}

func TestOverlaySnapshotBeforeInitGraphFails(t *testing.T) {
	o := NewOverlay(false)
	if _, err := o.Snapshot(); err == nil {
		t.Fatal("want error calling Snapshot before InitGraph")
	}
}

func TestSaveTrendPNG(t *testing.T) {
	history := []TrendPoint{
		{Index: 0, Result: beamcalc.Result{Xc: 1, Yc: 2, Dx: 3, Dy: 4}},
		{Index: 1, Result: beamcalc.Result{Xc: 2, Yc: 3, Dx: 3, Dy: 4}},
		{Index: 2, Result: beamcalc.Result{NaN: true}},
	}
	path := filepath.Join(t.TempDir(), "trend.png")
	if err := SaveTrendPNG(path, history); err != nil {
		t.Fatalf("SaveTrendPNG: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}
