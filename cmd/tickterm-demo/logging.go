package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
)

const (
	logDir      = "logs"
	logFileName = "tickterm.log"
	maxLogSize  = 10 * 1024 * 1024
)

// setupLogging returns a discard logger unless debug is set
// With debug, logs go to logs/tickterm.log; a file over maxLogSize is rotated aside first
// The tty is in raw mode while running, so nothing is ever written to stdout or stderr
func setupLogging(debug bool) (*slog.Logger, *os.File) {
	if !debug {
		return slog.New(slog.DiscardHandler), nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return slog.New(slog.DiscardHandler), nil
	}

	logPath := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("tickterm-%s.log", time.Now().Format("20060102-150405")))
		os.Rename(logPath, rotated)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.DiscardHandler), nil
	}

	logger := slog.New(tint.NewHandler(f, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "15:04:05.000",
		NoColor:    true,
	}))
	return logger, f
}
