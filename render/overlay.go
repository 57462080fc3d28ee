/*
DESCRIPTION
  overlay.go provides a headless DisplaySink implementation: a writable
  pixel plane plus a crosshair/1-e^2-ellipse overlay rendered with gocv,
  or, when the Overlay is created with useGocv false, a crosshair-only
  image/draw compositor.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package render provides reference worker.DisplaySink implementations and
// a diagnostic trend-export helper. It is the Go-native stand-in for the
// GUI chrome and charting-library rendering engine spec.md §1 explicitly
// keeps out of scope: these types satisfy the Display Sink boundary
// (spec.md §6) headlessly, writing images/PNGs to disk rather than to a
// window.
//
// Grounded on src/cameras/CameraWorker.h's showResults (which hands the
// pixel plane and BeamResult to the GUI) and libs/beam_render/beam_render.c
// (centroid crosshair + 1/e² ellipse painting), reimplemented with gocv's
// Mat-drawing primitives per the build's gocv.io/x/gocv dependency, with an
// image/draw fallback path that makes no gocv calls (the package still
// imports gocv, so building it requires cgo/OpenCV).
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"gocv.io/x/gocv"

	"github.com/cignus/beamprofiler/beamcalc"
	"github.com/cignus/beamprofiler/pixelcodec"
)

// Overlay is a worker.DisplaySink that keeps a float64 intensity plane and
// renders an annotated preview frame on demand.
type Overlay struct {
	mu    sync.Mutex
	w, h  int
	plane []float64
	dirty bool
	res   beamcalc.Result
	lo    float64
	hi    float64

	useGocv bool
}

// NewOverlay returns an Overlay. If useGocv is false, Snapshot renders
// through the image/draw fallback path instead of gocv.
func NewOverlay(useGocv bool) *Overlay {
	return &Overlay{useGocv: useGocv}
}

func (o *Overlay) InitGraph(w, h int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.w, o.h = w, h
	o.plane = make([]float64, w*h)
}

func (o *Overlay) RawGraph() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plane
}

func (o *Overlay) InvalidateGraph() {
	o.mu.Lock()
	o.dirty = true
	o.mu.Unlock()
}

func (o *Overlay) SetResult(res beamcalc.Result, lo, hi float64) {
	o.mu.Lock()
	o.res, o.lo, o.hi = res, lo, hi
	o.mu.Unlock()
}

// Snapshot renders the current plane as an 8-bit grayscale preview with a
// centroid crosshair and 1/e² ellipse overlay, normalized against the
// last-reported display range.
func (o *Overlay) Snapshot() (*image.Gray, error) {
	o.mu.Lock()
	w, h := o.w, o.h
	plane := make([]float64, len(o.plane))
	copy(plane, o.plane)
	res, lo, hi := o.res, o.lo, o.hi
	o.mu.Unlock()

	if w == 0 || h == 0 {
		return nil, fmt.Errorf("render: InitGraph not called")
	}

	norm := make([]float64, len(plane))
	pixelcodec.NormalizeToUnit(norm, plane, lo, hi)

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range norm {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		gray.Pix[i] = uint8(v * 255)
	}
	if res.NaN {
		return gray, nil
	}

	if o.useGocv {
		return overlayGocv(gray, res)
	}
	return overlayDraw(gray, res), nil
}

// overlayGocv paints the crosshair and ellipse with gocv's Mat drawing
// primitives, grounded on beam_render.c's crosshair/ellipse routine.
func overlayGocv(gray *image.Gray, res beamcalc.Result) (*image.Gray, error) {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("render: gray to mat: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)

	center := image.Pt(int(res.Xc), int(res.Yc))
	axes := image.Pt(int(res.Dx/2), int(res.Dy/2))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	gocv.Ellipse(&bgr, center, axes, res.Phi, 0, 360, white, 1)
	gocv.Line(&bgr, image.Pt(center.X-10, center.Y), image.Pt(center.X+10, center.Y), white, 1)
	gocv.Line(&bgr, image.Pt(center.X, center.Y-10), image.Pt(center.X, center.Y+10), white, 1)

	out, err := bgr.ToImage()
	if err != nil {
		return nil, fmt.Errorf("render: mat to image: %w", err)
	}
	dst := image.NewGray(gray.Bounds())
	draw.Draw(dst, dst.Bounds(), out, image.Point{}, draw.Src)
	return dst, nil
}

// overlayDraw is the cgo-free fallback: a plain crosshair drawn with
// image/draw, skipping the ellipse (gocv.Ellipse has no stdlib
// equivalent worth hand-rolling here).
func overlayDraw(gray *image.Gray, res beamcalc.Result) *image.Gray {
	dst := image.NewGray(gray.Bounds())
	draw.Draw(dst, dst.Bounds(), gray, image.Point{}, draw.Src)

	cx, cy := int(res.Xc), int(res.Yc)
	white := color.Gray{Y: 255}
	for dx := -10; dx <= 10; dx++ {
		if p := (image.Point{X: cx + dx, Y: cy}); p.In(dst.Bounds()) {
			dst.SetGray(p.X, p.Y, white)
		}
	}
	for dy := -10; dy <= 10; dy++ {
		if p := (image.Point{X: cx, Y: cy + dy}); p.In(dst.Bounds()) {
			dst.SetGray(p.X, p.Y, white)
		}
	}
	return dst
}
