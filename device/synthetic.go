/*
DESCRIPTION
  synthetic.go provides Synthetic, a Camera implementation that generates
  a moving Gaussian test pattern in place of a physical sensor.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package device

import (
	"math"
	"sync"
	"time"
)

// Grounded on src/cameras/VirtualDemoCamera.{h,cpp}, which synthesizes a
// moving Gaussian spot in lieu of a sensor for development and for the
// property tests in spec.md §8 that need a beam of known shape.
type Synthetic struct {
	info Info

	w, h       int
	sigma      float64
	peak       float64
	background float64
	frameDur   time.Duration

	mu      sync.Mutex
	running bool
	format  PixelFormat
	roi     [4]int
	start   time.Time
}

// SyntheticOptions configures NewSynthetic.
type SyntheticOptions struct {
	Width, Height      int
	Sigma              float64       // Gaussian standard deviation of the spot, in pixels
	Peak               float64       // peak intensity, in [0,4095]
	Background         float64       // flat noise floor added everywhere
	FrameInterval      time.Duration // simulated frame pacing
}

// NewSynthetic returns a Camera that produces a Gaussian spot orbiting the
// center of the frame, widening and narrowing slowly, so that property
// tests can assert on known centroid/width trajectories.
func NewSynthetic(opt SyntheticOptions) *Synthetic {
	if opt.FrameInterval <= 0 {
		opt.FrameInterval = 30 * time.Millisecond
	}
	if opt.Sigma <= 0 {
		opt.Sigma = float64(opt.Width) / 16
	}
	return &Synthetic{
		info:       Info{Name: "synthetic", Model: "gaussian-spot"},
		w:          opt.Width,
		h:          opt.Height,
		sigma:      opt.Sigma,
		peak:       opt.Peak,
		background: opt.Background,
		frameDur:   opt.FrameInterval,
		roi:        [4]int{0, 0, opt.Width, opt.Height},
		format:     Mono12g24,
	}
}

func (s *Synthetic) Info() Info { return s.info }

func (s *Synthetic) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = time.Time{}
	return nil
}

func (s *Synthetic) Close() error { return nil }

func (s *Synthetic) NegotiatePixelFormat(want PixelFormat) (PixelFormat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch want {
	case Mono8, Mono10g40, Mono12g24:
		s.format = want
	default:
		s.format = Mono12g24
	}
	return s.format, nil
}

func (s *Synthetic) SetROI(x1, y1, x2, y2 int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roi = [4]int{x1, y1, x2, y2}
	return nil
}

func (s *Synthetic) GetROI() (x1, y1, x2, y2 int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roi[0], s.roi[1], s.roi[2], s.roi[3]
}

func (s *Synthetic) StartAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.start = time.Now()
	return nil
}

func (s *Synthetic) StopAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *Synthetic) WaitForFrame(deadline time.Time) (Frame, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return Frame{}, ErrNoFrame
	}
	elapsed := time.Since(s.start)
	format := s.format
	s.mu.Unlock()

	if wait := s.frameDur - elapsed%s.frameDur; wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-time.After(time.Until(deadline)):
			return Frame{}, ErrNoFrame
		}
	}

	buf := s.render(elapsed, format)
	return Frame{
		Buf:       buf,
		Width:     s.w,
		Height:    s.h,
		Format:    format,
		Timestamp: time.Now(),
	}, nil
}

func (s *Synthetic) ReleaseFrame(f Frame) error { return nil }

// render draws the Gaussian spot at time t in the requested raw wire
// format. Mono8 is written directly; Mono10g40/Mono12g24 are packed the
// same way the real sensor SDKs pack them, so pixelcodec round-trips them.
func (s *Synthetic) render(t time.Duration, format PixelFormat) []byte {
	secs := t.Seconds()
	cx := float64(s.w)/2 + float64(s.w)/6*math.Cos(secs*0.3)
	cy := float64(s.h)/2 + float64(s.h)/6*math.Sin(secs*0.2)
	sigma := s.sigma * (1 + 0.15*math.Sin(secs*0.1))

	samples := make([]uint16, s.w*s.h)
	for y := 0; y < s.h; y++ {
		dy := float64(y) - cy
		for x := 0; x < s.w; x++ {
			dx := float64(x) - cx
			v := s.background + s.peak*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			if v > 4095 {
				v = 4095
			}
			samples[y*s.w+x] = uint16(v)
		}
	}

	switch format {
	case Mono8:
		out := make([]byte, s.w*s.h)
		for i, v := range samples {
			out[i] = byte(v >> 4)
		}
		return out
	case Mono10g40:
		return packMono10g40(samples)
	default:
		return packMono12g24(samples)
	}
}

// packMono12g24 is the inverse of pixelcodec.UnpackMono12g24: two 12-bit
// samples per 3 packed bytes.
func packMono12g24(samples []uint16) []byte {
	n := len(samples) / 2
	out := make([]byte, n*3)
	for g := 0; g < n; g++ {
		s0 := samples[g*2+0] & 0x0FFF
		s1 := samples[g*2+1] & 0x0FFF
		out[g*3+0] = byte(s0 >> 4)
		out[g*3+1] = byte(s1 >> 4)
		out[g*3+2] = byte((s0 & 0x0F) | (s1&0x0F)<<4)
	}
	return out
}

// packMono10g40 is the inverse of pixelcodec.UnpackMono10g40: four 10-bit
// samples per 5 packed bytes.
func packMono10g40(samples []uint16) []byte {
	n := len(samples) / 4
	out := make([]byte, n*5)
	for g := 0; g < n; g++ {
		s0 := samples[g*4+0] & 0x03FF
		s1 := samples[g*4+1] & 0x03FF
		s2 := samples[g*4+2] & 0x03FF
		s3 := samples[g*4+3] & 0x03FF
		out[g*5+0] = byte(s0 >> 2)
		out[g*5+1] = byte(s1 >> 2)
		out[g*5+2] = byte(s2 >> 2)
		out[g*5+3] = byte(s3 >> 2)
		out[g*5+4] = byte(s0&0x03) | byte(s1&0x03)<<2 | byte(s2&0x03)<<4 | byte(s3&0x03)<<6
	}
	return out
}
