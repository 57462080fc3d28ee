/*
DESCRIPTION
  worker.go implements the Capture Worker (spec.md §4.4): a dedicated
  goroutine per camera that paces frame acquisition, runs the background
  engine and beam calculator, posts results to a Display Sink, and
  optionally feeds a Measurement Sink.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package worker implements the Capture Worker state machine and
// scheduling loop of spec.md §4.4.
//
// Grounded on revid/revid.go's Start/Stop/processFrom producer-goroutine
// idiom (one long-lived goroutine reading from an AVDevice, signalled by a
// stop channel and reporting fatal errors on an error channel) and on
// src/cameras/CameraWorker.h's state machine and timing-stat bookkeeping.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cignus/beamprofiler/background"
	"github.com/cignus/beamprofiler/beamcalc"
	"github.com/cignus/beamprofiler/device"
	"github.com/cignus/beamprofiler/internal/logging"
	"github.com/cignus/beamprofiler/pixelcodec"
	"github.com/cignus/beamprofiler/profilerconfig"
	"github.com/cignus/beamprofiler/sink"
)

// Timing constants, per spec.md §4.4.
const (
	FrameIntervalMs = 30
	LoopTickMs      = 5
	FrameTimeoutMs  = 5000
	StatIntervalMs  = 1000
	PlotIntervalMs  = 200
	ewmaAlpha       = 0.1

	// maxSensorCode is the fixed display range used when Config.Normalize
	// is false (raw 12-bit sensor levels, the widest packed format this
	// package decodes) rather than auto-scaling to the current frame's max.
	maxSensorCode = 4095
)

// State is the Capture Worker's lifecycle state (spec.md §4.4).
type State int32

const (
	Created State = iota
	Capturing
	Measuring
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Capturing:
		return "Capturing"
	case Measuring:
		return "Measuring"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// DisplaySink is the display boundary the worker posts results to
// (spec.md §6).
type DisplaySink interface {
	InitGraph(w, h int)
	RawGraph() []float64
	InvalidateGraph()
	SetResult(res beamcalc.Result, displayMin, displayMax float64)
}

// Stats is the atomically-published timing snapshot the UI/caller may poll
// (spec.md §5's "Statistics snapshot").
type Stats struct {
	FrameIntervalMs float64
	ProcessMs       float64
	FramesTotal     uint64
	ErrorsTotal     uint64
}

// Worker drives one camera's capture/measure loop.
type Worker struct {
	cam     device.Camera
	display DisplaySink
	logger  logging.Logger

	cfgMu           sync.Mutex
	cfg             *profilerconfig.Config
	reconfigPending bool

	sinkMu  sync.Mutex
	measure *sink.Sink

	state   atomic.Int32
	cancel  atomic.Bool
	errc    chan error
	wg      sync.WaitGroup
	stats   atomic.Pointer[Stats]
	frameNo atomic.Uint32
}

// New returns a Worker in the Created state. cfg is owned by the caller
// but read under the worker's internal mutex; use Reconfigure to change it
// safely while the worker is running.
func New(cam device.Camera, display DisplaySink, cfg *profilerconfig.Config, logger logging.Logger) *Worker {
	w := &Worker{
		cam:     cam,
		display: display,
		logger:  logger,
		cfg:     cfg,
		errc:    make(chan error, 1),
	}
	w.state.Store(int32(Created))
	w.stats.Store(&Stats{})
	return w
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Stats returns the most recent timing snapshot.
func (w *Worker) Stats() Stats { return *w.stats.Load() }

// Errors returns the channel fatal driver errors are posted to.
func (w *Worker) Errors() <-chan error { return w.errc }

// Reconfigure atomically replaces the active config and marks a
// reconfiguration pending; the loop picks it up at its next STAT tick
// (spec.md §4.4.3).
func (w *Worker) Reconfigure(cfg *profilerconfig.Config) {
	w.cfgMu.Lock()
	w.cfg = cfg
	w.reconfigPending = true
	w.cfgMu.Unlock()
}

func (w *Worker) configSnapshot() *profilerconfig.Config {
	w.cfgMu.Lock()
	defer w.cfgMu.Unlock()
	return w.cfg
}

// Start opens the camera and spawns the capture loop. Created → Capturing.
func (w *Worker) Start(ctx context.Context) error {
	if State(w.state.Load()) != Created {
		return fmt.Errorf("worker: start called in state %s", w.State())
	}
	if err := w.cam.Open(); err != nil {
		return fmt.Errorf("worker: open camera: %w", err)
	}
	if _, err := w.cam.NegotiatePixelFormat(device.Mono8); err != nil {
		w.cam.Close()
		return fmt.Errorf("worker: negotiate pixel format: %w", err)
	}
	if err := w.cam.StartAcquisition(); err != nil {
		w.cam.Close()
		return fmt.Errorf("worker: start acquisition: %w", err)
	}

	w.state.Store(int32(Capturing))
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// StartMeasure atomically attaches s; Capturing → Measuring. Idempotent.
func (w *Worker) StartMeasure(s *sink.Sink) {
	w.sinkMu.Lock()
	w.measure = s
	w.sinkMu.Unlock()
	w.state.CompareAndSwap(int32(Capturing), int32(Measuring))
}

// StopMeasure atomically detaches the sink and flushes its final partial
// batch; Measuring → Capturing.
func (w *Worker) StopMeasure() {
	w.sinkMu.Lock()
	s := w.measure
	w.measure = nil
	w.sinkMu.Unlock()
	if s != nil {
		s.Flush()
	}
	w.state.CompareAndSwap(int32(Measuring), int32(Capturing))
}

// Cancel requests the loop stop; it will exit at the next STAT tick
// (≤1s, spec.md §5). Callers must call Join afterward.
func (w *Worker) Cancel() {
	w.cancel.Store(true)
}

// Join waits for the capture loop to exit and releases the camera.
func (w *Worker) Join() {
	w.wg.Wait()
	w.cam.StopAcquisition()
	w.cam.Close()
	w.state.Store(int32(Stopped))
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	var (
		decoded   []uint16
		scratch   []float64
		lastFrame = time.Now()
		lastStat  time.Time
		lastPlot  time.Time
		ewmaFrame float64
		ewmaProc  float64
	)
	cfg := w.configSnapshot()

	tick := time.NewTicker(LoopTickMs * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		now := time.Now()
		if now.Sub(lastStat) >= StatIntervalMs*time.Millisecond {
			lastStat = now
			if w.cancel.Load() {
				return
			}
			w.cfgMu.Lock()
			pending := w.reconfigPending
			w.reconfigPending = false
			if pending {
				cfg = w.cfg
			}
			w.cfgMu.Unlock()
			if pending && w.logger != nil {
				w.logger.Info("worker: picked up reconfiguration")
			}
		}

		if now.Sub(lastFrame) < FrameIntervalMs*time.Millisecond {
			continue
		}
		prevFrame := lastFrame
		lastFrame = now

		deadline := now.Add(FrameTimeoutMs * time.Millisecond)
		f, err := w.cam.WaitForFrame(deadline)
		if err != nil {
			if err == device.ErrNoFrame {
				w.bumpError()
				continue
			}
			select {
			case w.errc <- fmt.Errorf("worker: wait for frame: %w", err):
			default:
			}
			return
		}

		start := time.Now()

		if len(decoded) != f.Width*f.Height {
			decoded = make([]uint16, f.Width*f.Height)
			scratch = make([]float64, f.Width*f.Height)
			w.display.InitGraph(f.Width, f.Height)
		}

		switch f.Format {
		case device.Mono10g40:
			pixelcodec.UnpackMono10g40(decoded, f.Buf)
		case device.Mono12g24:
			pixelcodec.UnpackMono12g24(decoded, f.Buf)
		default:
			for i, v := range f.Buf {
				decoded[i] = uint16(v)
			}
		}
		w.cam.ReleaseFrame(f)

		bgCfg := background.Config{
			MaxIters:       cfg.MaxIters,
			Precision:      cfg.Precision,
			CornerFraction: cfg.CornerFraction,
			NT:             cfg.NT,
			MaskDiameter:   cfg.MaskDiameter,
			Aperture:       cfg.Aperture(),
		}

		var res beamcalc.Result
		if cfg.SubtractBackground {
			res, _ = background.Run(decoded, f.Width, f.Height, bgCfg, scratch)
		} else {
			for i, v := range decoded {
				scratch[i] = float64(v)
			}
			res = beamcalc.Calc(scratch, f.Width, f.Height, bgCfg.Aperture)
		}

		proc := time.Since(start).Seconds() * 1000
		frameDt := now.Sub(prevFrame).Seconds() * 1000
		ewmaProc = ewma(ewmaProc, proc)
		ewmaFrame = ewma(ewmaFrame, frameDt)
		w.stats.Store(&Stats{
			FrameIntervalMs: ewmaFrame,
			ProcessMs:       ewmaProc,
			FramesTotal:     uint64(w.frameNo.Load()) + 1,
			ErrorsTotal:     w.stats.Load().ErrorsTotal,
		})

		if now.Sub(lastPlot) >= PlotIntervalMs*time.Millisecond {
			lastPlot = now
			hi := float64(maxSensorCode)
			if cfg.Normalize {
				hi = pixelcodec.FindMaxF64(scratch)
			}
			copy(w.display.RawGraph(), scratch)
			w.display.InvalidateGraph()
			w.display.SetResult(res, 0, hi)
		}

		idx := w.frameNo.Add(1)
		w.sinkMu.Lock()
		s := w.measure
		w.sinkMu.Unlock()
		if s != nil {
			s.Append(sink.FromResult(idx, f.Timestamp, res))
		}
	}
}

func (w *Worker) bumpError() {
	prev := w.stats.Load()
	next := *prev
	next.ErrorsTotal++
	w.stats.Store(&next)
}

func ewma(prev, sample float64) float64 {
	if prev == 0 {
		return sample
	}
	return ewmaAlpha*sample + (1-ewmaAlpha)*prev
}
