package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options tunes logger construction.
type Options struct {
	// FilePath, when set, tees output into a size-rotated file.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewNamed builds a zap logger for the given environment, named after the service.
// "development" gets the console encoder at debug level; anything else is JSON at info.
func NewNamed(env, name string) (*zap.Logger, error) {
	return NewWithOptions(env, name, Options{})
}

// NewWithOptions is NewNamed with optional rotated file output.
func NewWithOptions(env, name string, opts Options) (*zap.Logger, error) {
	var (
		encoderCfg zapcore.EncoderConfig
		level      zapcore.Level
	)
	if env == "development" {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "timestamp"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if env == "development" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    valueOr(opts.MaxSizeMB, 100),
			MaxBackups: valueOr(opts.MaxBackups, 5),
			MaxAge:     valueOr(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			level,
		))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return log.Named(name), nil
}

func valueOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
