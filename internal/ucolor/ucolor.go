// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ucolor provides ANSI terminal coloring, enabled or disabled;
// ColorAuto is treated as enabled, with no terminal detection. It mirrors
// the small color abstraction the rest of this codebase's logger is built on.
package ucolor

import "fmt"

const (
	escape = "\x1b["
	clear  = "\x1b[0m"
)

// ColorCode is an ANSI foreground color code.
type ColorCode int

const (
	DefaultFg ColorCode = 39
	BlackFg   ColorCode = 30
	RedFg     ColorCode = 31
	GreenFg   ColorCode = 32
	YellowFg  ColorCode = 33
	BlueFg    ColorCode = 34
	MagentaFg ColorCode = 35
	CyanFg    ColorCode = 36
	WhiteFg   ColorCode = 37
)

// EnableColor is a tri-state flag suitable for flag.Var: never, auto, always.
type EnableColor int

const (
	ColorNever EnableColor = iota
	ColorAuto
	ColorAlways
)

func (e *EnableColor) String() string {
	switch *e {
	case ColorNever:
		return "never"
	case ColorAlways:
		return "always"
	default:
		return "auto"
	}
}

func (e *EnableColor) Set(s string) error {
	switch s {
	case "never":
		*e = ColorNever
	case "auto":
		*e = ColorAuto
	case "always":
		*e = ColorAlways
	default:
		return fmt.Errorf("ucolor: invalid value %q, want never|auto|always", s)
	}
	return nil
}

// Colorfn formats and colors a string.
type Colorfn func(format string, a ...interface{}) string

// Color wraps Colorfns for a fixed enablement decision.
type Color struct {
	enabled bool
}

// NewColor resolves an EnableColor request into a concrete Color. ColorAuto
// is treated as enabled; callers that care about TTY detection should
// resolve it before constructing the Color.
func NewColor(e EnableColor) Color {
	return Color{enabled: e != ColorNever}
}

func (c Color) WithColor(code ColorCode, format string, a ...interface{}) string {
	s := fmt.Sprintf(format, a...)
	if !c.enabled || code == DefaultFg {
		return s
	}
	return fmt.Sprintf("%v%vm%v%v", escape, int(code), s, clear)
}

func (c Color) Black(format string, a ...interface{}) string   { return c.WithColor(BlackFg, format, a...) }
func (c Color) Red(format string, a ...interface{}) string     { return c.WithColor(RedFg, format, a...) }
func (c Color) Green(format string, a ...interface{}) string   { return c.WithColor(GreenFg, format, a...) }
func (c Color) Yellow(format string, a ...interface{}) string  { return c.WithColor(YellowFg, format, a...) }
func (c Color) Blue(format string, a ...interface{}) string    { return c.WithColor(BlueFg, format, a...) }
func (c Color) Magenta(format string, a ...interface{}) string { return c.WithColor(MagentaFg, format, a...) }
func (c Color) Cyan(format string, a ...interface{}) string    { return c.WithColor(CyanFg, format, a...) }
func (c Color) White(format string, a ...interface{}) string   { return c.WithColor(WhiteFg, format, a...) }
func (c Color) DefaultColor(format string, a ...interface{}) string {
	return c.WithColor(DefaultFg, format, a...)
}
