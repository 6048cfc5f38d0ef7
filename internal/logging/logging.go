package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Debug selects the development config: debug level, console encoding, and
	// DPanic assertions that panic instead of only logging.
	Debug bool
	// File appends logs to this path instead of stderr. Interactive front ends set
	// this (or Discard) so log lines never land on the screen.
	File string
	// Discard returns a no-op logger when no file is configured.
	Discard bool
}

// New builds a zap logger for opts.
func New(opts Options) (*zap.Logger, error) {
	file := strings.TrimSpace(opts.File)
	if file == "" && opts.Discard {
		return zap.NewNop(), nil
	}

	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return l.Named("halo"), nil
}
