// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ulog provides leveled, context-carried logging for the
// update-check engine. A *Logger is attached to a context.Context once, at
// the entry point, and every component below retrieves it from the context
// rather than taking a logger as an explicit dependency.
package ulog

import (
	"context"
	"fmt"
	"io"
	goLog "log"
	"os"

	"github.com/chengweiv5/update-engine/internal/ucolor"
)

type loggerKey struct{}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the attached logger, or a disabled no-op logger if
// none was attached. It never returns nil, so callers never need a nil
// check before logging.
func FromContext(ctx context.Context) *Logger {
	if v, ok := ctx.Value(loggerKey{}).(*Logger); ok && v != nil {
		return v
	}
	return noop
}

// Level controls which calls are emitted.
type Level int

const (
	NoLevel Level = iota
	ErrorLevel
	WarningLevel
	InfoLevel
	DebugLevel
)

// String implements flag.Value so a Level can be set directly from a
// command-line flag.
func (l *Level) String() string {
	if l == nil {
		return InfoLevel.string()
	}
	return l.string()
}

func (l Level) string() string {
	switch l {
	case NoLevel:
		return "none"
	case ErrorLevel:
		return "error"
	case WarningLevel:
		return "warning"
	case InfoLevel:
		return "info"
	case DebugLevel:
		return "debug"
	default:
		return "info"
	}
}

// Set implements flag.Value.
func (l *Level) Set(s string) error {
	switch s {
	case "none":
		*l = NoLevel
	case "error":
		*l = ErrorLevel
	case "warning":
		*l = WarningLevel
	case "info":
		*l = InfoLevel
	case "debug":
		*l = DebugLevel
	default:
		return fmt.Errorf("unknown level %q", s)
	}
	return nil
}

var noop = &Logger{level: NoLevel, out: goLog.New(io.Discard, "", 0), err: goLog.New(io.Discard, "", 0)}

// Logger is a minimal leveled logger with optional coloring.
type Logger struct {
	level Level
	color ucolor.Color
	out   *goLog.Logger
	err   *goLog.Logger
}

// New creates a Logger writing to outW/errW at the given level.
func New(level Level, color ucolor.Color, outW, errW io.Writer) *Logger {
	if outW == nil {
		outW = os.Stdout
	}
	if errW == nil {
		errW = os.Stderr
	}
	return &Logger{
		level: level,
		color: color,
		out:   goLog.New(outW, "", goLog.LstdFlags),
		err:   goLog.New(errW, "", goLog.LstdFlags),
	}
}

func (l *Logger) Infof(format string, a ...interface{}) {
	if l.level >= InfoLevel {
		l.out.Output(2, fmt.Sprintf(format, a...))
	}
}

func (l *Logger) Debugf(format string, a ...interface{}) {
	if l.level >= DebugLevel {
		l.out.Output(2, l.color.Cyan("DEBUG: ")+fmt.Sprintf(format, a...))
	}
}

func (l *Logger) Warningf(format string, a ...interface{}) {
	if l.level >= WarningLevel {
		l.out.Output(2, l.color.Yellow("WARN: ")+fmt.Sprintf(format, a...))
	}
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	if l.level >= ErrorLevel {
		l.err.Output(2, l.color.Red("ERROR: ")+fmt.Sprintf(format, a...))
	}
}

// Package-level helpers fetch the logger from ctx, matching the call shape
// used throughout internal/omaha, internal/policy and internal/updatecheck.

func Infof(ctx context.Context, format string, a ...interface{}) {
	FromContext(ctx).Infof(format, a...)
}

func Debugf(ctx context.Context, format string, a ...interface{}) {
	FromContext(ctx).Debugf(format, a...)
}

func Warningf(ctx context.Context, format string, a ...interface{}) {
	FromContext(ctx).Warningf(format, a...)
}

func Errorf(ctx context.Context, format string, a ...interface{}) {
	FromContext(ctx).Errorf(format, a...)
}
