/*
DESCRIPTION
  stillimage.go provides StillImage, a Camera implementation that loops
  playback of a seed image from disk instead of querying hardware.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package device

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sync"
	"time"

	"golang.org/x/image/bmp"
)

// StillImage is a Camera implementation that plays back a single seed
// image repeatedly, widened to 16-bit grayscale. It is grounded on
// src/cameras/StillImageCamera.{h,cpp} and VirtualImageCamera.{h,cpp},
// which load a file from disk in place of querying a sensor — useful for
// regression tests against a known reference frame.
//
// Decoding goes through the standard image/png and image/jpeg decoders
// (registered via blank import) plus golang.org/x/image/bmp for legacy
// seed captures; gocv is reserved for the headless preview-rendering path
// in package render, since StillImage's own job is pixel-exact playback,
// not the resizing/annotation gocv is suited for.
type StillImage struct {
	info Info
	path string

	mu       sync.Mutex
	gray     []uint16
	w, h     int
	running  bool
	format   PixelFormat
	interval time.Duration
}

// NewStillImage loads img (a PNG, JPEG or BMP file already decoded by the
// caller) as the seed frame played back on every WaitForFrame call.
func NewStillImage(name string, img image.Image, interval time.Duration) *StillImage {
	if interval <= 0 {
		interval = 30 * time.Millisecond
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bch, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// Rec. 601 luma, scaled down from RGBA's 16-bit-per-channel range
			// to the 12-bit range of a real sensor.
			lum := (299*r + 587*g + 114*bch) / 1000
			gray[y*w+x] = uint16(lum >> 4)
		}
	}
	return &StillImage{
		info:     Info{Name: "stillimage", Model: name},
		gray:     gray,
		w:        w,
		h:        h,
		format:   Mono12g24,
		interval: interval,
	}
}

// DecodeBMP is a convenience wrapper for seed files that predate general
// PNG/JPEG support in the capture rig (spec.md never requires this, but
// the original StillImageCamera shipped its calibration frames as BMP).
func DecodeBMP(path string, r io.Reader) (image.Image, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("device: decode bmp %s: %w", path, err)
	}
	return img, nil
}

func (s *StillImage) Info() Info { return s.info }

func (s *StillImage) Open() error  { return nil }
func (s *StillImage) Close() error { return nil }

func (s *StillImage) NegotiatePixelFormat(want PixelFormat) (PixelFormat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch want {
	case Mono8, Mono10g40, Mono12g24:
		s.format = want
	}
	return s.format, nil
}

func (s *StillImage) SetROI(x1, y1, x2, y2 int) error { return nil }

func (s *StillImage) GetROI() (x1, y1, x2, y2 int) { return 0, 0, s.w, s.h }

func (s *StillImage) StartAcquisition() error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

func (s *StillImage) StopAcquisition() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *StillImage) WaitForFrame(deadline time.Time) (Frame, error) {
	s.mu.Lock()
	running := s.running
	format := s.format
	samples := s.gray
	w, h := s.w, s.h
	s.mu.Unlock()
	if !running {
		return Frame{}, ErrNoFrame
	}

	t := time.NewTimer(s.interval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-time.After(time.Until(deadline)):
		return Frame{}, ErrNoFrame
	}

	var buf []byte
	switch format {
	case Mono8:
		buf = make([]byte, len(samples))
		for i, v := range samples {
			buf[i] = byte(v >> 4)
		}
	case Mono10g40:
		buf = packMono10g40(samples)
	default:
		buf = packMono12g24(samples)
	}

	return Frame{Buf: buf, Width: w, Height: h, Format: format, Timestamp: time.Now()}, nil
}

func (s *StillImage) ReleaseFrame(f Frame) error { return nil }
