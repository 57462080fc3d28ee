//go:build !linux

package main

import (
	"time"

	"github.com/cignus/beamprofiler/device"
)

// newPlatformCamera has no hardware driver outside Linux in this build;
// callers asking for a device path fall back to the synthetic generator.
func newPlatformCamera(path string) device.Camera {
	return device.NewSynthetic(device.SyntheticOptions{
		Width: 640, Height: 512, Sigma: 40, Peak: 3500, Background: 80,
		FrameInterval: 30 * time.Millisecond,
	})
}
