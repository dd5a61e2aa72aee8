// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/chengweiv5/update-engine/internal/omahaconfig"
	"github.com/chengweiv5/update-engine/internal/omahahttp"
	"github.com/chengweiv5/update-engine/internal/prefs"
	"github.com/chengweiv5/update-engine/internal/ulog"
	"github.com/chengweiv5/update-engine/internal/updatecheck"
)

// CheckCommand runs a single update-check request against a configured
// Omaha server and reports the outcome.
type CheckCommand struct {
	configPath     string
	prefsDir       string
	interactive    bool
	updateDisabled bool
	timeout        time.Duration
}

func (*CheckCommand) Name() string     { return "check" }
func (*CheckCommand) Synopsis() string { return "runs a single update-check request" }
func (*CheckCommand) Usage() string {
	return `check [flags...]

Runs one update-check request/reply round trip and prints the outcome.
`
}

func (c *CheckCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "/etc/update-engine/config.yaml", "path to the update-check config file")
	f.StringVar(&c.prefsDir, "prefs-dir", "/var/lib/update-engine/prefs", "path to the preferences directory")
	f.BoolVar(&c.interactive, "interactive", false, "report this as a user-initiated check")
	f.BoolVar(&c.updateDisabled, "update-disabled", false, "report updates as policy-disabled on this device")
	f.DurationVar(&c.timeout, "timeout", 30*time.Second, "HTTP request timeout")
}

func (c *CheckCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := omahaconfig.Load(c.configPath)
	if err != nil {
		ulog.Errorf(ctx, "%v", err)
		return subcommands.ExitFailure
	}

	store, err := prefs.Open(ctx, c.prefsDir)
	if err != nil {
		ulog.Errorf(ctx, "opening preferences directory: %v", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	params := cfg.RequestParameters(c.interactive, c.updateDisabled)
	admission := cfg.AdmissionConfig()
	client := omahahttp.New(c.timeout)

	driver := updatecheck.New(params, admission, store, client)
	outcome, err := driver.Run(ctx)
	if err != nil {
		ulog.Warningf(ctx, "update check finished with %v: %v", outcome.Kind, err)
		return subcommands.ExitFailure
	}

	if outcome.UpdateExists {
		fmt.Printf("update available: %s (%d bytes)\n", outcome.Offer.DisplayVersion, outcome.Offer.Size)
	} else {
		fmt.Println("no update available")
	}
	return subcommands.ExitSuccess
}
