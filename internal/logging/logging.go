// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package logging builds the slog handlers used by both binaries.
// Development output is colored text, production output is JSON, and an
// optional log file receives a rotated copy of everything.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls how New builds the logger.
type Options struct {
	// JSON selects the JSON handler instead of the human-readable one.
	JSON bool
	// Debug lowers the level to slog.LevelDebug.
	Debug bool
	// File, when non-empty, tees output into a size-rotated file.
	File string
}

// New returns a logger writing to out according to opts. The returned
// closer flushes and closes the log file, if any; it is never nil.
func New(out io.Writer, opts Options) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(out, rotated)
		closer = rotated
	}

	if opts.JSON {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})), closer
	}
	return slog.New(TextHandler(out, level)), closer
}

// TextHandler returns a tint handler. Colors are only enabled when out is a
// terminal and neither NO_COLOR nor TERM=dumb ask otherwise. Errors are
// highlighted.
func TextHandler(out io.Writer, level slog.Leveler) slog.Handler {
	return tint.NewHandler(out, &tint.Options{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if _, ok := attr.Value.Any().(error); attr.Key == "error" || ok {
				return tint.Attr(9, attr)
			}
			return attr
		},
		TimeFormat: time.RFC3339,
		NoColor:    !colorable(out),
	})
}

func colorable(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
