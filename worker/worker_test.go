package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cignus/beamprofiler/beamcalc"
	"github.com/cignus/beamprofiler/device"
	"github.com/cignus/beamprofiler/internal/logging"
	"github.com/cignus/beamprofiler/profilerconfig"
)

type fakeDisplay struct {
	mu      sync.Mutex
	w, h    int
	plane   []float64
	results int
}

func (d *fakeDisplay) InitGraph(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.w, d.h = w, h
	d.plane = make([]float64, w*h)
}

func (d *fakeDisplay) RawGraph() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.plane
}

func (d *fakeDisplay) InvalidateGraph() {}

func (d *fakeDisplay) SetResult(res beamcalc.Result, lo, hi float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results++
}

func TestWorkerCapturesFrames(t *testing.T) {
	cam := device.NewSynthetic(device.SyntheticOptions{
		Width: 48, Height: 48, Sigma: 5, Peak: 3000, Background: 50,
		FrameInterval: 2 * time.Millisecond,
	})
	cfg := profilerconfig.New(logging.NoOp())
	cfg.SubtractBackground = true
	cfg.Validate()

	disp := &fakeDisplay{}
	w := New(cam, disp, cfg, logging.NoOp())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if w.State() != Capturing {
		t.Fatalf("State = %v, want Capturing", w.State())
	}

	time.Sleep(300 * time.Millisecond)

	w.Cancel()
	cancel()
	w.Join()

	if w.State() != Stopped {
		t.Fatalf("State = %v, want Stopped", w.State())
	}
	st := w.Stats()
	if st.FramesTotal == 0 {
		t.Fatal("want at least one frame processed")
	}

	disp.mu.Lock()
	got := disp.results
	disp.mu.Unlock()
	if got == 0 {
		t.Error("want at least one display result posted")
	}
}
