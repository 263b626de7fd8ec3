// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologHandler is a slog.Handler that writes through a zerolog.Logger.
type ZerologHandler struct {
	logger zerolog.Logger
	level  slog.Leveler
	attrs  []slog.Attr // keys already qualified by their group path
	groups []string
}

var _ slog.Handler = (*ZerologHandler)(nil)

// NewZerologHandler writes to w as JSON lines, or through zerolog's console
// writer when pretty is set.
func NewZerologHandler(w io.Writer, level slog.Leveler, pretty bool) *ZerologHandler {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return &ZerologHandler{
		logger: zerolog.New(w),
		level:  level,
	}
}

// Enabled implements slog.Handler.
func (h *ZerologHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ZerologHandler) Handle(_ context.Context, r slog.Record) error {
	event := h.logger.WithLevel(zerologLevel(r.Level))
	if !r.Time.IsZero() {
		event = event.Time(zerolog.TimestampFieldName, r.Time)
	}
	for _, a := range h.attrs {
		addAttr(event, "", a)
	}
	prefix := groupPrefix(h.groups)
	r.Attrs(func(a slog.Attr) bool {
		addAttr(event, prefix, a)
		return true
	})
	event.Msg(r.Message)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *ZerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	prefix := groupPrefix(h.groups)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return c
}

// WithGroup implements slog.Handler.
func (h *ZerologHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(c.groups, name)
	return c
}

func (h *ZerologHandler) clone() *ZerologHandler {
	return &ZerologHandler{
		logger: h.logger,
		level:  h.level,
		attrs:  slices.Clone(h.attrs),
		groups: slices.Clone(h.groups),
	}
}

func groupPrefix(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return strings.Join(groups, ".") + "."
}

func addAttr(event *zerolog.Event, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := prefix + a.Key

	switch a.Value.Kind() {
	case slog.KindGroup:
		sub := key + "."
		if a.Key == "" {
			sub = prefix
		}
		for _, ga := range a.Value.Group() {
			addAttr(event, sub, ga)
		}
	case slog.KindString:
		event.Str(key, a.Value.String())
	case slog.KindInt64:
		event.Int64(key, a.Value.Int64())
	case slog.KindUint64:
		event.Uint64(key, a.Value.Uint64())
	case slog.KindFloat64:
		event.Float64(key, a.Value.Float64())
	case slog.KindBool:
		event.Bool(key, a.Value.Bool())
	case slog.KindDuration:
		event.Dur(key, a.Value.Duration())
	case slog.KindTime:
		event.Time(key, a.Value.Time())
	default:
		if err, ok := a.Value.Any().(error); ok {
			event.AnErr(key, err)
			return
		}
		event.Interface(key, a.Value.Any())
	}
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	case l >= slog.LevelInfo:
		return zerolog.InfoLevel
	case l >= slog.LevelDebug:
		return zerolog.DebugLevel
	}
	return zerolog.TraceLevel
}
