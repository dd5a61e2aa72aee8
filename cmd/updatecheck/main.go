// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/chengweiv5/update-engine/internal/ucolor"
	"github.com/chengweiv5/update-engine/internal/ulog"
)

var (
	colors ucolor.EnableColor
	level  ulog.Level
)

func init() {
	colors = ucolor.ColorAuto
	level = ulog.InfoLevel

	flag.Var(&colors, "color", "use color in output, can be never, auto, always")
	flag.Var(&level, "level", "output verbosity, can be error, warning, info or debug")
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&CheckCommand{}, "")
	subcommands.Register(&ReportCommand{}, "")

	flag.Parse()

	log := ulog.New(level, ucolor.NewColor(colors), os.Stdout, os.Stderr)
	ctx := ulog.WithLogger(context.Background(), log)
	os.Exit(int(subcommands.Execute(ctx)))
}
