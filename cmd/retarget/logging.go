package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/retarget/fsys"
	"github.com/wippyai/retarget/host"
	"github.com/wippyai/retarget/shim"
)

// newLogger builds a JSON logger writing to w. Warnings and above are
// logged unless verbose is set.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}

	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// installLogger routes every package's diagnostics to l.
func installLogger(l *zap.Logger) {
	shim.SetLogger(l.Named("shim"))
	host.SetLogger(l.Named("host"))
	fsys.SetLogger(l.Named("fsys"))
}
