// Package diag provides the file-backed diagnostic log. The TUI owns stdout,
// so decode errors and protocol anomalies go to a rotating log file instead
// of the terminal.
package diag

import (
	"log/slog"
	"os"
	"path/filepath"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var logger *slog.Logger

// Init sets up structured JSON logging with rotation under dir
// (typically ~/.tidechat/logs). Safe to skip: all logging functions
// are no-ops until Init succeeds.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "tidechat.log"),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	logger = slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return nil
}

// DecodeError records a line or buffer that failed structured parsing.
func DecodeError(fragment string, err error) {
	if logger == nil {
		return
	}
	if len(fragment) > 512 {
		fragment = fragment[:512]
	}
	logger.Error("decode error", "fragment", fragment, "err", err.Error())
}

// Anomaly records a protocol anomaly: unknown record kinds, tag content in
// unexpected places. Never user-visible.
func Anomaly(event, detail string) {
	if logger == nil {
		return
	}
	logger.Warn("protocol anomaly", "event", event, "detail", detail)
}

// Info records general request lifecycle events.
func Info(msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Info(msg, args...)
}
