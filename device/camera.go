/*
DESCRIPTION
  camera.go defines Camera, the interface every concrete sensor driver in
  this package implements, and the pixel-format/frame types the capture
  worker negotiates and exchanges with it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides the Camera interface used by the capture worker
// (package worker) and the concrete drivers behind it: a synthetic Gaussian
// test-pattern generator, a still-image/seed-file player, and a Linux V4L2
// webcam driver.
//
// Grounded on src/cameras/Camera.h and CameraTypes.h
// (AusOcean/orion-project/beam-inspector's original C++ implementation),
// reshaped into the teacher's AVDevice idiom (device/device.go).
package device

import (
	"errors"
	"fmt"
	"time"
)

// PixelFormat identifies the wire layout of frames a Camera produces.
// Mono8 is unpacked; Mono10g40 and Mono12g24 are the packed formats
// pixelcodec unpacks.
type PixelFormat int

const (
	Mono8 PixelFormat = iota
	Mono10g40
	Mono12g24
)

// String implements fmt.Stringer.
func (f PixelFormat) String() string {
	switch f {
	case Mono8:
		return "Mono8"
	case Mono10g40:
		return "Mono10g40"
	case Mono12g24:
		return "Mono12g24"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// ErrNoFrame is returned by WaitForFrame when no frame arrived within the
// deadline (spec.md §4.4's FRAME_TIMEOUT_MS).
var ErrNoFrame = errors.New("device: no frame before deadline")

// ErrNotSupported is returned by optional capability methods a given
// Camera implementation doesn't provide (binning, decimation, pixel size).
var ErrNotSupported = errors.New("device: capability not supported")

// Info describes a camera's static identity, surfaced for logging and for
// the UI device list; it carries no operational meaning.
type Info struct {
	Name         string
	Model        string
	SerialNumber string
}

// Frame is a single captured image handed from a Camera to the capture
// worker. Buf is only valid until the matching ReleaseFrame call; the
// worker must copy out of it (into its own decode scratch buffer) before
// releasing it.
type Frame struct {
	Buf       []byte
	Width     int
	Height    int
	Format    PixelFormat
	Timestamp time.Time
}

// Camera is the driver interface the capture worker operates against. It
// deliberately excludes anything a vendor SDK would be responsible for
// beyond this shape (discovery UI, licensing, firmware update) — those are
// out of scope per spec.md §1.
type Camera interface {
	// Info returns the camera's static identity.
	Info() Info

	// Open acquires the underlying device handle. It must be called before
	// any other method except Info.
	Open() error

	// Close releases the underlying device handle. The Camera must not be
	// reused afterwards.
	Close() error

	// NegotiatePixelFormat selects the sensor's packed output format,
	// returning the format actually selected (a driver may only support
	// one).
	NegotiatePixelFormat(want PixelFormat) (PixelFormat, error)

	// SetROI requests that the sensor restrict acquisition to the given
	// region, in full-sensor pixel coordinates. Drivers that can't crop in
	// hardware may accept any ROI and instead crop in WaitForFrame.
	SetROI(x1, y1, x2, y2 int) error

	// GetROI returns the currently active sensor ROI.
	GetROI() (x1, y1, x2, y2 int)

	// StartAcquisition begins streaming frames internally; WaitForFrame
	// becomes valid to call once this returns nil.
	StartAcquisition() error

	// StopAcquisition halts streaming. WaitForFrame must return promptly
	// with an error after this call.
	StopAcquisition() error

	// WaitForFrame blocks until a frame is available, the deadline
	// elapses (returning ErrNoFrame), or the camera is stopped.
	WaitForFrame(deadline time.Time) (Frame, error)

	// ReleaseFrame returns ownership of a Frame's buffer to the driver,
	// which may reuse or free it. Callers must not touch f.Buf afterward.
	ReleaseFrame(f Frame) error
}

// BinningCamera is implemented by drivers that support sensor binning.
type BinningCamera interface {
	SetBinning(x, y int) error
	GetBinning() (x, y int)
}

// DecimationCamera is implemented by drivers that support frame decimation
// (capturing at a sub-multiple of the sensor's native frame rate).
type DecimationCamera interface {
	SetDecimation(n int) error
	GetDecimation() int
}

// PixelSizeCamera is implemented by drivers that know their sensor's
// physical pixel pitch, in micrometers, needed to report beam widths in
// physical units rather than pixels.
type PixelSizeCamera interface {
	PixelSizeUM() (x, y float64)
}
