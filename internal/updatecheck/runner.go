// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package updatecheck

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/chengweiv5/update-engine/internal/omaha"
	"github.com/chengweiv5/update-engine/internal/policy"
	"github.com/chengweiv5/update-engine/internal/prefs"
	"github.com/chengweiv5/update-engine/internal/ulog"
)

// Runner collapses concurrent calls that share a key into a single Driver
// run: every caller in the window gets the same Outcome and error, and only
// one HTTP request is made. This backs the requirement that duplicate
// concurrent callers never cause duplicate wire traffic or duplicate
// scatter-policy draws.
type Runner struct {
	group singleflight.Group

	admission  omaha.AdmissionConfig
	store      prefs.Store
	http       HTTPClient
	downstream Downstream
	clock      policy.Clock
	rnd        policy.Rand
}

// NewRunner constructs a Runner sharing one admission policy, preferences
// store, HTTP collaborator, and downstream across every request it drives.
func NewRunner(admission omaha.AdmissionConfig, store prefs.Store, http HTTPClient, downstream Downstream) *Runner {
	return &Runner{
		admission:  admission,
		store:      store,
		http:       http,
		downstream: downstream,
	}
}

// key is the only thing that distinguishes one in-flight request from
// another for collapsing purposes: same app, same server, same request
// shape. Event reports are never collapsed, since each carries distinct
// telemetry the caller expects to be individually acknowledged.
func requestKey(params omaha.RequestParameters) string {
	return params.UpdateURL + "|" + params.AppID + "|" + params.Track
}

// Check runs (or joins an in-flight run of) an update-check for params.
// Every concurrent caller with the same (UpdateURL, AppID, Track) receives
// an identical Outcome and error from the single underlying Driver.Run.
func (r *Runner) Check(ctx context.Context, params omaha.RequestParameters) (Outcome, error) {
	key := requestKey(params)
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		d := New(params, r.admission, r.store, r.http, WithDownstream(r.downstream), WithClock(r.clock), WithRand(r.rnd))
		outcome, err := d.Run(ctx)
		return outcome, err
	})
	if shared {
		ulog.Debugf(ctx, "updatecheck: joined an in-flight request for %q", key)
	}
	outcome, _ := v.(Outcome)
	return outcome, err
}

// Report sends a telemetry event; it is never collapsed with concurrent
// calls, even for the same app.
func (r *Runner) Report(ctx context.Context, params omaha.RequestParameters, event omaha.Event) (Outcome, error) {
	d := New(params, r.admission, r.store, r.http, WithEvent(event))
	return d.Run(ctx)
}
