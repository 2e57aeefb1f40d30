package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hivegate/hive-agent/src/config"
)

// Setup builds the process logger: JSON records to a rotated file, with an
// optional mirror to stderr for interactive runs. The returned logger is
// also installed as the slog default.
func Setup(cfg config.LoggingConfig) (*slog.Logger, error) {
	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	var w io.Writer = rotated
	if cfg.Console {
		w = io.MultiWriter(rotated, os.Stderr)
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
