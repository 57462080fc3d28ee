package logging

import lumberjack "gopkg.in/natefinch/lumberjack.v2"

// RotateConfig describes an on-disk, size/age-rotated log file, mirroring
// the fields cmd/rv/main.go passes to lumberjack.Logger.
type RotateConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewRotatingWriter returns an io.Writer (a *lumberjack.Logger) suitable
// for passing to New; it rotates the file per cfg once MaxSizeMB is
// exceeded, retaining at most MaxBackups old files for MaxAgeDays.
func NewRotatingWriter(cfg RotateConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}
