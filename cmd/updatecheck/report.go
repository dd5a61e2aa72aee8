// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"

	"github.com/chengweiv5/update-engine/internal/omaha"
	"github.com/chengweiv5/update-engine/internal/omahaconfig"
	"github.com/chengweiv5/update-engine/internal/omahahttp"
	"github.com/chengweiv5/update-engine/internal/prefs"
	"github.com/chengweiv5/update-engine/internal/ulog"
	"github.com/chengweiv5/update-engine/internal/updatecheck"
)

// ReportCommand sends a single telemetry event, such as confirming an
// update completed or failed to install.
type ReportCommand struct {
	configPath string
	prefsDir   string
	eventType  int
	errorCode  int
	failed     bool
	timeout    time.Duration
}

func (*ReportCommand) Name() string     { return "report" }
func (*ReportCommand) Synopsis() string { return "reports a single telemetry event" }
func (*ReportCommand) Usage() string {
	return `report -event-type=N [flags...]

Sends one event request and prints the acknowledgement outcome.
`
}

func (c *ReportCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "/etc/update-engine/config.yaml", "path to the update-check config file")
	f.StringVar(&c.prefsDir, "prefs-dir", "/var/lib/update-engine/prefs", "path to the preferences directory")
	f.IntVar(&c.eventType, "event-type", int(omaha.EventTypeUpdateComplete), "numeric Omaha event type to report")
	f.IntVar(&c.errorCode, "error-code", 0, "error code to attach, if -failed is set")
	f.BoolVar(&c.failed, "failed", false, "report this event as a failure rather than a success")
	f.DurationVar(&c.timeout, "timeout", 30*time.Second, "HTTP request timeout")
}

func (c *ReportCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	event := omaha.Event{Type: omaha.EventType(c.eventType), Result: omaha.EventResultSuccess}
	if c.failed {
		event.Result = omaha.EventResultError
		event.ErrorCode = c.errorCode
	}

	params := cfg.RequestParameters(false, false)
	client := omahahttp.New(c.timeout)
	driver := updatecheck.New(params, cfg.AdmissionConfig(), store, client, updatecheck.WithEvent(event))

	outcome, err := driver.Run(ctx)
	if err != nil {
		ulog.Warningf(ctx, "event report finished with %v: %v", outcome.Kind, err)
		return subcommands.ExitFailure
	}
	ulog.Infof(ctx, "event reported: %v", outcome.Kind)
	return subcommands.ExitSuccess
}
