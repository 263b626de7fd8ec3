// Package logging builds the slog handlers installed by the shigen CLI.
//
// Library packages only ever see *slog.Logger. The process picks the
// backend: the standard text handler, or zerolog through ZerologHandler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Formats accepted by New.
const (
	FormatText    = "text"
	FormatZerolog = "zerolog"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}

// New returns a logger writing to w in the given format.
// With FormatZerolog, pretty selects the console writer over JSON lines.
func New(w io.Writer, format string, level slog.Level, pretty bool) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	case FormatZerolog, "json":
		return slog.New(NewZerologHandler(w, level, pretty)), nil
	}
	return nil, fmt.Errorf("invalid log format %q: must be text or zerolog", format)
}
