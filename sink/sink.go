/*
DESCRIPTION
  sink.go implements the Measurement Sink (spec.md §4.5): a double
  buffered ring the capture worker appends records to under a short
  mutex, handed off in BATCH_SIZE batches to a writer goroutine that
  appends them to a CSV file.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sink implements the double-buffered measurement ring and the CSV
// writer goroutine that drains it, matching spec.md §4.5.
//
// Grounded on src/cameras/MeasureSaver.{h,cpp} for the file-format and
// failure-semantics contract, and on CameraWorker.h's double buffer for
// the batch handoff; the goroutine/channel idiom is the teacher's, seen in
// revid.go's producer/consumer split between the capture goroutine and the
// psi/muxer goroutines that drain its ring buffer.
package sink

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/cignus/beamprofiler/beamcalc"
	"github.com/cignus/beamprofiler/internal/logging"
)

// BatchSize is the record count of each of the two ring buffers
// (spec.md §4.5).
const BatchSize = 1000

// Record is the fixed POD measurement record written to the ring, matching
// spec.md §3's Measurement Record.
type Record struct {
	Index       uint32
	TimestampMs int64
	NaN         bool
	Xc, Yc      float64
	Dx, Dy      float64
	Phi         float64
}

// FromResult builds a Record from a beam calculation result.
func FromResult(index uint32, ts time.Time, res beamcalc.Result) Record {
	return Record{
		Index:       index,
		TimestampMs: ts.UnixMilli(),
		NaN:         res.NaN,
		Xc:          res.Xc,
		Yc:          res.Yc,
		Dx:          res.Dx,
		Dy:          res.Dy,
		Phi:         res.Phi,
	}
}

// batch is one filled buffer handed from the ring to the writer.
type batch struct {
	number int
	n      int
	recs   [BatchSize]Record
}

// Sink is the measurement sink: a mutex-guarded double buffer plus a
// background writer goroutine. The zero value is not usable; use Open.
type Sink struct {
	scale  float64
	logger logging.Logger

	mu     sync.Mutex
	active int
	cursor int
	bufs   [2][BatchSize]Record
	seq    int

	batches chan batch
	done    chan struct{}

	f *os.File
	w *bufio.Writer
}

// Open creates (truncating) path, writes the CSV header, and starts the
// writer goroutine. scale is the sensor's physical-units-per-pixel factor
// applied to xc/yc/dx/dy before they're written. File-open failure is
// returned synchronously, per spec.md §4.5's failure semantics.
func Open(path string, scale float64, logger logging.Logger) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString("Index,Timestamp,Center X,Center Y,Width X,Width Y,Azimuth,Ellipticity\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: write header %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: flush header %s: %w", path, err)
	}

	s := &Sink{
		scale:   scale,
		logger:  logger,
		batches: make(chan batch, 4),
		done:    make(chan struct{}),
		f:       f,
		w:       w,
	}
	go s.writeLoop()
	return s, nil
}

// Append adds rec to the active buffer, flipping and posting a batch to
// the writer whenever the active buffer fills.
func (s *Sink) Append(rec Record) {
	s.mu.Lock()
	buf := &s.bufs[s.active]
	buf[s.cursor] = rec
	s.cursor++
	if s.cursor == BatchSize {
		s.postLocked(BatchSize)
	}
	s.mu.Unlock()
}

// postLocked must be called with s.mu held; it copies n records out of the
// active buffer into a batch, flips the active index, and resets the
// cursor.
func (s *Sink) postLocked(n int) {
	var b batch
	b.number = s.seq
	b.n = n
	copy(b.recs[:n], s.bufs[s.active][:n])
	s.seq++

	select {
	case s.batches <- b:
	default:
		if s.logger != nil {
			s.logger.Warning("sink: writer falling behind, dropping batch", "batch", b.number)
		}
	}

	s.active = 1 - s.active
	s.cursor = 0
}

// Flush posts any partial batch remaining in the active buffer. Call this
// from stop_measure (spec.md §4.4/§4.5's "flushed best-effort").
func (s *Sink) Flush() {
	s.mu.Lock()
	if s.cursor > 0 {
		s.postLocked(s.cursor)
	}
	s.mu.Unlock()
}

// Close flushes any pending batch, waits for the writer to drain, and
// closes the output file.
func (s *Sink) Close() error {
	s.Flush()
	close(s.batches)
	<-s.done
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("sink: flush: %w", err)
	}
	return s.f.Close()
}

func (s *Sink) writeLoop() {
	defer close(s.done)
	for b := range s.batches {
		for i := 0; i < b.n; i++ {
			if err := s.writeRecord(b.recs[i]); err != nil {
				if s.logger != nil {
					s.logger.Error("sink: write failed", "err", err)
				}
				break
			}
		}
		if err := s.w.Flush(); err != nil && s.logger != nil {
			s.logger.Error("sink: flush failed", "err", err)
		}
	}
}

func (s *Sink) writeRecord(r Record) error {
	ts := time.UnixMilli(r.TimestampMs).Local().Format("2006-01-02T15:04:05.000")
	if r.NaN {
		_, err := fmt.Fprintf(s.w, "%d,%s,0,0,0,0,0.0,0.000\n", r.Index, ts)
		return err
	}

	xc := int(math.Round(r.Xc * s.scale))
	yc := int(math.Round(r.Yc * s.scale))
	dx := int(math.Round(r.Dx * s.scale))
	dy := int(math.Round(r.Dy * s.scale))
	eps := beamcalc.Ellipticity(r.Dx, r.Dy)

	_, err := fmt.Fprintf(s.w, "%d,%s,%d,%d,%d,%d,%.1f,%.3f\n", r.Index, ts, xc, yc, dx, dy, r.Phi, eps)
	return err
}
