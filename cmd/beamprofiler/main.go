/*
DESCRIPTION
  beamprofiler is a real-time ISO 11146 laser-beam profiler process: it
  opens a camera, runs the capture worker loop, and writes measurement
  records to a CSV file, optionally running as a supervised Linux service.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the beamprofiler process entry point.
//
// Grounded on cmd/rv/main.go's structure: flag parsing, a lumberjack file
// logger, and a top-level run loop that waits on an OS signal to shut
// down cleanly. daemon.SdNotify readiness/watchdog pings are added here
// since this process, unlike rv, is meant to run as a systemd unit rather
// than under netsender's own supervision.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"

	"github.com/cignus/beamprofiler/device"
	"github.com/cignus/beamprofiler/internal/configfile"
	"github.com/cignus/beamprofiler/internal/logging"
	"github.com/cignus/beamprofiler/profilerconfig"
	"github.com/cignus/beamprofiler/render"
	"github.com/cignus/beamprofiler/sink"
	"github.com/cignus/beamprofiler/worker"
)

const version = "v0.1.0"

// Logging configuration, mirroring cmd/rv/main.go's lumberjack setup.
const (
	logPath      = "/var/log/beamprofiler/beamprofiler.log"
	logMaxSizeMB = 100
	logMaxBackup = 5
	logMaxAgeDay = 28
)

func main() {
	showVersion := flag.Bool("version", false, "show version")
	configPath := flag.String("config", "/etc/beamprofiler/config.yaml", "camera config file")
	outPath := flag.String("out", "measurements.csv", "measurement CSV output path")
	device_ := flag.String("device", "synthetic", `camera driver: "synthetic" or a V4L2 device path`)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	rotating := logging.NewRotatingWriter(logging.RotateConfig{
		Filename:   logPath,
		MaxSizeMB:  logMaxSizeMB,
		MaxBackups: logMaxBackup,
		MaxAgeDays: logMaxAgeDay,
	})
	log := logging.New(logging.Info, rotating)

	cfg, err := configfile.Load(*configPath, log)
	if err != nil {
		log.Warning("falling back to default config", "err", err, "path", *configPath)
		cfg = profilerconfig.New(log)
		cfg.Validate()
	}

	watcher, err := configfile.NewWatcher(*configPath, log)
	if err != nil {
		log.Warning("config hot-reload disabled", "err", err)
	} else {
		defer watcher.Close()
	}

	cam := selectCamera(*device_)
	overlay := render.NewOverlay(false)
	w := worker.New(cam, overlay, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		log.Fatal("failed to start capture worker", "err", err)
		os.Exit(1)
	}

	measure, err := sink.Open(*outPath, scaleFor(cam), log)
	if err != nil {
		log.Fatal("failed to open measurement sink", "err", err)
		os.Exit(1)
	}
	w.StartMeasure(measure)

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warning("sd_notify READY failed", "err", err)
	} else if ok {
		log.Info("notified systemd of readiness")
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	watchdog := time.NewTicker(10 * time.Second)
	defer watchdog.Stop()

loop:
	for {
		select {
		case <-sigc:
			break loop
		case <-watchdog.C:
			if reconfigCheck(watcher, *configPath, w, log) {
				// Config edited; Worker.Reconfigure already applied below.
			}
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		case err := <-w.Errors():
			log.Error("capture worker reported fatal error", "err", err)
			break loop
		}
	}

	w.StopMeasure()
	measure.Close()
	w.Cancel()
	cancel()
	w.Join()
}

func reconfigCheck(watcher *configfile.Watcher, path string, w *worker.Worker, log logging.Logger) bool {
	if watcher == nil || !watcher.PendingAndClear() {
		return false
	}
	log.Info("reloading camera config")
	cfg, err := configfile.Load(path, log)
	if err != nil {
		log.Warning("config reload failed", "err", err, "path", path)
		return false
	}
	w.Reconfigure(cfg)
	return true
}

func selectCamera(spec string) device.Camera {
	if spec == "synthetic" {
		return device.NewSynthetic(device.SyntheticOptions{
			Width: 640, Height: 512, Sigma: 40, Peak: 3500, Background: 80,
		})
	}
	return newPlatformCamera(spec)
}

// scaleFor reports the camera's physical-units-per-pixel factor if it
// implements device.PixelSizeCamera, else 1 (pixel units).
func scaleFor(cam device.Camera) float64 {
	if p, ok := cam.(device.PixelSizeCamera); ok {
		x, _ := p.PixelSizeUM()
		if x > 0 {
			return x
		}
	}
	return 1
}
