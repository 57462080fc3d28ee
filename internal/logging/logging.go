// Package logging provides the leveled logger interface used throughout
// beamprofiler, backed by zap.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels, matching the int8 levels the teacher's logging package used
// (Debug < Info < Warning < Error < Fatal).
const (
	Debug int8 = iota - 1
	Info
	Warning
	Error
	Fatal
)

// Logger is the interface components in this module log through. Workers
// and config validation never depend on zap directly so that tests can
// supply a no-op or recording implementation.
type Logger interface {
	SetLevel(level int8)
	Log(level int8, msg string, params ...interface{})
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
	Fatal(msg string, params ...interface{})
}

// zapLogger adapts a zap.SugaredLogger to Logger.
type zapLogger struct {
	sug   *zap.SugaredLogger
	level zap.AtomicLevel
}

// New returns a Logger writing JSON-encoded records to w at the given
// initial level. w is typically os.Stderr or a *lumberjack.Logger from
// NewRotatingWriter.
func New(level int8, w io.Writer) Logger {
	al := zap.NewAtomicLevelAt(toZapLevel(level))
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(w), al)
	return &zapLogger{sug: zap.New(core).Sugar(), level: al}
}

func toZapLevel(l int8) zapcore.Level {
	switch {
	case l <= Debug:
		return zapcore.DebugLevel
	case l == Info:
		return zapcore.InfoLevel
	case l == Warning:
		return zapcore.WarnLevel
	case l == Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}

func (z *zapLogger) SetLevel(level int8) { z.level.SetLevel(toZapLevel(level)) }

func (z *zapLogger) Log(level int8, msg string, params ...interface{}) {
	switch {
	case level <= Debug:
		z.sug.Debugw(msg, params...)
	case level == Info:
		z.sug.Infow(msg, params...)
	case level == Warning:
		z.sug.Warnw(msg, params...)
	case level == Error:
		z.sug.Errorw(msg, params...)
	default:
		z.sug.Errorw(msg, params...)
	}
}

func (z *zapLogger) Debug(msg string, params ...interface{})   { z.sug.Debugw(msg, params...) }
func (z *zapLogger) Info(msg string, params ...interface{})    { z.sug.Infow(msg, params...) }
func (z *zapLogger) Warning(msg string, params ...interface{}) { z.sug.Warnw(msg, params...) }
func (z *zapLogger) Error(msg string, params ...interface{})   { z.sug.Errorw(msg, params...) }
func (z *zapLogger) Fatal(msg string, params ...interface{})   { z.sug.Errorw(msg, params...) }

// NoOp returns a Logger that discards everything; useful in tests.
func NoOp() Logger {
	return &zapLogger{sug: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}
