package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config describes the application logger.
type Config struct {
	// Level is off (the default), debug, info, warn or error.
	Level string
	// Format defaults to FormatText.
	Format Format
	// Output defaults to Stderr, leaving Stdout to command output and the MCP stdio transport.
	Output io.Writer
}

// New builds the logger described by cfg.
// The "error" key is written as "err" whatever the format.
func New(cfg Config) (*slog.Logger, error) {
	if cfg.Level == "" || strings.EqualFold(cfg.Level, "off") {
		return NewNop(), nil
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}

	switch cfg.Format {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a --log-level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
