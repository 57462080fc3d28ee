//go:build linux

package main

import "github.com/cignus/beamprofiler/device"

// newPlatformCamera opens a V4L2 device node (e.g. /dev/video0) on Linux.
func newPlatformCamera(path string) device.Camera {
	return device.NewWebcam(path)
}
