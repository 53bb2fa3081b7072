// Package logger builds the zap logger shared by the commands. Output goes
// to stderr so stdout stays free for command results.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variable overriding the log level ("debug", "info", ...).
const envLogLevel = "MESHDOCS_LOG_LEVEL"

// New returns a production-encoded logger writing to stderr. The level
// comes from MESHDOCS_LOG_LEVEL when set, otherwise info, or debug when
// debug is true.
func New(debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	if s := os.Getenv(envLogLevel); s != "" {
		if l, err := zapcore.ParseLevel(s); err == nil {
			level = l
		}
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}
