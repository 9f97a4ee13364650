// Package logging constructs the process-wide zerolog.Logger from
// config.LogConfig: pretty console output for local development, structured
// JSON with lumberjack-backed rotation for a production deployment.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jonesy-ops/ash/internal/config"
)

// New builds a zerolog.Logger from cfg. A non-empty FilePath always routes
// through lumberjack for rotation; JSON selects the wire format written to
// both stdout and the file, otherwise stdout gets a human-readable console
// writer and the file (if any) still gets JSON.
func New(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.JSON {
		writers = append(writers, os.Stdout)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}
	if cfg.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	out := io.MultiWriter(writers...)
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
