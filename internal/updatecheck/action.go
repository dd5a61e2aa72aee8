// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package updatecheck drives a single request/reply round trip against an
// Omaha-protocol server: it composes the request, performs the HTTP
// exchange, classifies any transport failure, parses a successful reply,
// and — for update-check requests carrying a valid offer — applies the
// admission/scatter policy before handing the result downstream.
//
// A Driver moves through exactly two states, Running and Done(outcome);
// Terminate aborts an in-flight request and transitions it directly to
// Done(Cancelled) without ever consulting the scatter policy, since that
// policy only runs after a reply has already been parsed.
package updatecheck

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/chengweiv5/update-engine/internal/omaha"
	"github.com/chengweiv5/update-engine/internal/policy"
	"github.com/chengweiv5/update-engine/internal/prefs"
	"github.com/chengweiv5/update-engine/internal/ulog"
)

// HTTPClient is the transport collaborator. It must always return a status
// in [0, 999]: a real HTTP status code on a completed exchange, or a
// synthetic code in that range (driver-defined, conventionally 0) when the
// exchange failed before a status was received. err is reserved for
// situations the caller cannot itself recover a status for.
type HTTPClient interface {
	Do(ctx context.Context, url string, body []byte) (respBody []byte, status int, err error)
}

// Downstream is notified only when an offer survives composing, the HTTP
// round trip, parsing, and the admission/scatter policy.
type Downstream interface {
	Deliver(ctx context.Context, offer omaha.OfferedUpdate)
}

// State is the Driver's two-state lifecycle.
type State int

const (
	Running State = iota
	Done
)

// Outcome is the classified result of one Run, whether or not an offer was
// ultimately surfaced.
type Outcome struct {
	Kind         omaha.Kind
	UpdateExists bool
	Offer        omaha.OfferedUpdate
}

// Driver runs one request/reply exchange. It is not reusable: construct a
// new Driver per update check or event report.
type Driver struct {
	params     omaha.RequestParameters
	admission  omaha.AdmissionConfig
	store      prefs.Store
	http       HTTPClient
	downstream Downstream
	clock      policy.Clock
	rnd        policy.Rand
	event      *omaha.Event
	pingOnly   bool

	mu         sync.Mutex
	state      State
	cancel     context.CancelFunc
	terminated bool
}

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithEvent makes the Driver compose and send a telemetry event instead of
// an update-check/ping. The admission/scatter policy is never consulted for
// an event request; the reply is parsed only enough to confirm
// well-formedness. A well-formed reply yields an Outcome of Success, a
// malformed one the parse error's Kind; Downstream is never notified.
func WithEvent(e omaha.Event) Option {
	return func(d *Driver) { d.event = &e }
}

// WithPingOnly makes the Driver send the same wire request as an ordinary
// update-check (this protocol has no distinct ping-only wire shape) but
// suppresses consulting the scatter policy and surfacing any parsed offer;
// it is used for periodic pings that should not themselves trigger an
// update.
func WithPingOnly() Option {
	return func(d *Driver) { d.pingOnly = true }
}

// WithDownstream registers the collaborator notified when an offer is
// admitted by policy.
func WithDownstream(ds Downstream) Option {
	return func(d *Driver) { d.downstream = ds }
}

// WithClock and WithRand override the scatter policy's time source and
// random draw; production callers normally leave these at their defaults
// (time.Now and a process-seeded policy.NewRand).
func WithClock(c policy.Clock) Option    { return func(d *Driver) { d.clock = c } }
func WithRand(r policy.Rand) Option      { return func(d *Driver) { d.rnd = r } }

// New constructs a Driver for a single request/reply exchange.
func New(params omaha.RequestParameters, admission omaha.AdmissionConfig, store prefs.Store, http HTTPClient, opts ...Option) *Driver {
	d := &Driver{
		params:    params,
		admission: admission,
		store:     store,
		http:      http,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State reports the Driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Terminate aborts an in-flight Run. Invoked before send-complete, the
// in-flight HTTP exchange is cancelled and Run returns an Outcome with Kind
// Cancelled; invoked after Run has already reached Done, it is a no-op.
func (d *Driver) Terminate() {
	d.mu.Lock()
	d.terminated = true
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run performs the full compose/send/parse/admit sequence once. It is safe
// to call only once per Driver.
func (d *Driver) Run(ctx context.Context) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.state = Running
	d.cancel = cancel
	terminated := d.terminated
	d.mu.Unlock()
	defer cancel()
	defer func() {
		d.mu.Lock()
		d.state = Done
		d.mu.Unlock()
	}()

	if terminated {
		ulog.Infof(ctx, "updatecheck: terminated before send-complete")
		return Outcome{Kind: omaha.Cancelled}, nil
	}

	reqBody, err := omaha.ComposeRequest(ctx, d.params, d.store, d.event)
	if err != nil {
		return Outcome{Kind: omaha.UnknownError}, fmt.Errorf("updatecheck: composing request: %w", err)
	}

	respBody, status, httpErr := d.http.Do(ctx, d.params.UpdateURL, reqBody)
	if ctx.Err() != nil {
		ulog.Infof(ctx, "updatecheck: terminated before send-complete")
		return Outcome{Kind: omaha.Cancelled}, nil
	}
	if httpErr != nil || status != 200 {
		kind := omaha.HTTPResponseKind(status)
		ulog.Warningf(ctx, "updatecheck: request failed, status=%d: %v", status, httpErr)
		return Outcome{Kind: kind}, fmt.Errorf("updatecheck: http status %d: %w", status, httpErr)
	}

	if d.event != nil {
		return d.finishEvent(ctx, respBody)
	}
	return d.finishUpdateCheck(ctx, respBody)
}

func (d *Driver) finishEvent(ctx context.Context, respBody []byte) (Outcome, error) {
	if err := omaha.ConfirmWellFormed(respBody); err != nil {
		ulog.Warningf(ctx, "updatecheck: event ack body malformed: %v", err)
		var pe *omaha.ParseError
		if asParseError(err, &pe) {
			return Outcome{Kind: pe.Kind}, err
		}
		return Outcome{Kind: omaha.XMLParseError}, err
	}
	ulog.Infof(ctx, "updatecheck: event reported")
	return Outcome{Kind: omaha.Success}, nil
}

func (d *Driver) finishUpdateCheck(ctx context.Context, respBody []byte) (Outcome, error) {
	parsed, err := omaha.ParseResponse(ctx, respBody)
	if err != nil {
		var pe *omaha.ParseError
		if asParseError(err, &pe) {
			return Outcome{Kind: pe.Kind}, err
		}
		return Outcome{Kind: omaha.UnknownError}, err
	}

	if !parsed.UpdateExists {
		ulog.Debugf(ctx, "updatecheck: no update offered")
		return Outcome{Kind: omaha.Success, UpdateExists: false}, nil
	}

	if d.pingOnly {
		ulog.Debugf(ctx, "updatecheck: ping-only request, ignoring offer")
		return Outcome{Kind: omaha.Success, UpdateExists: false}, nil
	}

	decision := policy.Evaluate(ctx, d.admission, d.params.UpdateDisabled, parsed.Offer, d.store, clockOrDefault(d.clock), randOrDefault(d.rnd))
	switch decision {
	case policy.Ignored:
		return Outcome{Kind: omaha.UpdateIgnoredPerPolicy}, &omaha.ParseError{Kind: omaha.UpdateIgnoredPerPolicy}
	case policy.Defer:
		return Outcome{Kind: omaha.UpdateDeferredPerPolicy}, &omaha.ParseError{Kind: omaha.UpdateDeferredPerPolicy}
	default:
		ulog.Infof(ctx, "updatecheck: offer admitted: %s (%s)", parsed.Offer.DisplayVersion, humanize.IBytes(uint64(parsed.Offer.Size)))
		outcome := Outcome{Kind: omaha.Success, UpdateExists: true, Offer: parsed.Offer}
		if d.downstream != nil {
			d.downstream.Deliver(ctx, parsed.Offer)
		}
		return outcome, nil
	}
}
