// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package policy implements the admission/scatter decision: given a valid
// offered update, should it be surfaced now, or deferred so a fleet of
// identical devices doesn't all pull the same update in the same instant.
//
// Two independent axes can defer an offer: a wall-clock wait anchored to
// the first time this device saw the offer, and a per-device random
// update-check counter. Either, both, or neither may be enabled; the
// wall-clock check always runs first.
package policy

import (
	"context"
	"math/rand"
	"time"

	"github.com/chengweiv5/update-engine/internal/omaha"
	"github.com/chengweiv5/update-engine/internal/prefs"
	"github.com/chengweiv5/update-engine/internal/ulog"
)

// Decision is the outcome of Evaluate.
type Decision int

const (
	// Surface means the offer should be passed on to the downstream
	// pipeline unchanged.
	Surface Decision = iota
	// Defer means the offer is valid but held back this cycle.
	Defer
	// Ignored means update_disabled was set; the offer is never surfaced
	// and no preferences are touched.
	Ignored
)

// Clock is injected so tests can control "now" without sleeping.
type Clock func() time.Time

// Rand is injected so tests can make the counter-scatter draw
// deterministic; production callers should pass a source seeded from
// non-deterministic entropy (see NewRand).
type Rand func(min, max int) int

// NewRand returns a Rand drawing uniformly from [min, max] inclusive using
// the given *rand.Rand, satisfying this engine's requirement that the
// scatter draw be injectable.
func NewRand(r *rand.Rand) Rand {
	return func(min, max int) int {
		if max <= min {
			return min
		}
		return min + r.Intn(max-min+1)
	}
}

// Evaluate applies the admission/scatter policy to a valid offer. It must
// only be called when the parser produced an Offer and the request is not
// a ping-only/event request; callers are responsible for that
// pre-condition (see internal/updatecheck).
func Evaluate(ctx context.Context, cfg omaha.AdmissionConfig, updateDisabled bool, offer omaha.OfferedUpdate, store prefs.Store, now Clock, rnd Rand) Decision {
	if updateDisabled {
		ulog.Infof(ctx, "policy: update_disabled is set, ignoring offer")
		return Ignored
	}

	var unlock func()
	if locker, ok := store.(interface{ Lock() func() }); ok {
		unlock = locker.Lock()
		defer unlock()
	}

	if cfg.WallClockBasedWaitEnabled {
		if d := evaluateWallClockWait(ctx, cfg, offer, store, now); d == Defer {
			return Defer
		}
	}

	if cfg.UpdateCheckCountWaitEnabled {
		if d := evaluateUpdateCheckCountWait(ctx, cfg, store, rnd); d == Defer {
			return Defer
		}
	}

	return Surface
}

func evaluateWallClockWait(ctx context.Context, cfg omaha.AdmissionConfig, offer omaha.OfferedUpdate, store prefs.Store, now Clock) Decision {
	firstSeen, ok := store.GetInt64(omaha.KeyUpdateFirstSeenAt)
	if !ok {
		firstSeen = now().Unix()
		if !store.SetInt64(omaha.KeyUpdateFirstSeenAt, firstSeen) {
			ulog.Warningf(ctx, "policy: failed to persist %s", omaha.KeyUpdateFirstSeenAt)
		}
		ulog.Infof(ctx, "policy: anchoring rollout clock origin for this update at %d", firstSeen)
	}

	if offer.MaxDaysToScatter == 0 {
		return Surface
	}

	scatterLimit := cfg.WaitingPeriod
	if maxScatter := time.Duration(offer.MaxDaysToScatter) * 24 * time.Hour; maxScatter < scatterLimit {
		scatterLimit = maxScatter
	}

	waited := now().Sub(time.Unix(firstSeen, 0))
	if waited < scatterLimit {
		ulog.Warningf(ctx, "policy: wall-clock scatter not elapsed (%s of %s), deferring", waited, scatterLimit)
		return Defer
	}
	return Surface
}

func evaluateUpdateCheckCountWait(ctx context.Context, cfg omaha.AdmissionConfig, store prefs.Store, rnd Rand) Decision {
	count, ok := store.GetInt64(omaha.KeyUpdateCheckCount)
	if !ok {
		n := rnd(cfg.MinUpdateChecksNeeded, cfg.MaxUpdateChecksAllowed)
		if !store.SetInt64(omaha.KeyUpdateCheckCount, int64(n)) {
			ulog.Warningf(ctx, "policy: failed to persist %s", omaha.KeyUpdateCheckCount)
		}
		ulog.Infof(ctx, "policy: drew update_check_count=%d, deferring", n)
		return Defer
	}

	if count == 0 {
		return Surface
	}

	// Decrement-on-consume happens outside this policy; the count is only
	// read and (once) seeded here.
	ulog.Warningf(ctx, "policy: update_check_count=%d, deferring", count)
	return Defer
}
