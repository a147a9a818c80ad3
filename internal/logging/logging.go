// Package logging builds the slog logger shared by the CLI and server.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Service is attached to every record.
const Service = "traveldiary"

// ParseLevel accepts debug, info, warn(ing) and error in any case.
// Empty means info.
func ParseLevel(raw string) (slog.Level, error) {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '-' {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
}

type Options struct {
	Level  string
	Format string // "text" (default) or "json"
	// AddSource is implied at debug level.
	AddSource bool
	Writer    io.Writer // stderr when nil
	// DefaultSlog installs the logger with slog.SetDefault.
	DefaultSlog bool
}

// New returns the logger and the level it was built with.
func New(opt Options) (*slog.Logger, slog.Level, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, 0, err
	}
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	lo := &slog.HandlerOptions{
		Level:     level,
		AddSource: opt.AddSource || level == slog.LevelDebug,
	}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(opt.Format)) {
	case "", "text":
		h = slog.NewTextHandler(w, lo)
	case "json":
		h = slog.NewJSONHandler(w, lo)
	default:
		return nil, 0, fmt.Errorf("invalid log format %q", opt.Format)
	}
	lg := slog.New(h).With("service", Service)
	if opt.DefaultSlog {
		slog.SetDefault(lg)
	}
	return lg, level, nil
}

// Discard drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
