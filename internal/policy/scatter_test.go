// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package policy

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/chengweiv5/update-engine/internal/omaha"
	"github.com/chengweiv5/update-engine/internal/prefs"
)

func newStore(t *testing.T) *prefs.FileStore {
	t.Helper()
	s, err := prefs.Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func fixedRand(v int) Rand {
	return func(min, max int) int { return v }
}

// I4: update_disabled=true yields Ignored and never writes preferences.
func TestUpdateDisabledIgnoresOffer(t *testing.T) {
	store := newStore(t)
	cfg := omaha.AdmissionConfig{WallClockBasedWaitEnabled: true, WaitingPeriod: 2 * 24 * time.Hour}
	offer := omaha.OfferedUpdate{MaxDaysToScatter: 7}

	d := Evaluate(context.Background(), cfg, true, offer, store, fixedClock(time.Now()), fixedRand(0))
	if d != Ignored {
		t.Fatalf("got %v, want Ignored", d)
	}
	if _, ok := store.GetInt64(omaha.KeyUpdateFirstSeenAt); ok {
		t.Fatal("update_first_seen_at must not be written when update_disabled")
	}
}

// I5: scatter disabled on both axes surfaces the offer unchanged.
func TestNoScatterSurfacesOffer(t *testing.T) {
	store := newStore(t)
	cfg := omaha.AdmissionConfig{}
	offer := omaha.OfferedUpdate{MaxDaysToScatter: 7}

	d := Evaluate(context.Background(), cfg, false, offer, store, fixedClock(time.Now()), fixedRand(0))
	if d != Surface {
		t.Fatalf("got %v, want Surface", d)
	}
}

// S3: wall-clock scatter alone defers, then surfaces once waited.
func TestWallClockScatterDefersThenSurfaces(t *testing.T) {
	store := newStore(t)
	cfg := omaha.AdmissionConfig{
		WallClockBasedWaitEnabled: true,
		WaitingPeriod:             2 * 24 * time.Hour,
	}
	offer := omaha.OfferedUpdate{MaxDaysToScatter: 7}

	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	d := Evaluate(context.Background(), cfg, false, offer, store, fixedClock(start), fixedRand(0))
	if d != Defer {
		t.Fatalf("first call: got %v, want Defer", d)
	}
	firstSeen, ok := store.GetInt64(omaha.KeyUpdateFirstSeenAt)
	if !ok || firstSeen == 0 {
		t.Fatal("expected update_first_seen_at to be persisted")
	}

	// I6: a second call with the same prefs reuses the timestamp.
	later := start.Add(3 * 24 * time.Hour)
	d = Evaluate(context.Background(), cfg, false, offer, store, fixedClock(later), fixedRand(0))
	if d != Surface {
		t.Fatalf("second call: got %v, want Surface", d)
	}
	again, ok := store.GetInt64(omaha.KeyUpdateFirstSeenAt)
	if !ok || again != firstSeen {
		t.Fatalf("update_first_seen_at changed: %d -> %d", firstSeen, again)
	}
}

// S4: MaxDaysToScatter=0 disables scattering even with wall-clock wait
// enabled.
func TestMaxDaysToScatterZeroDisablesScatter(t *testing.T) {
	store := newStore(t)
	cfg := omaha.AdmissionConfig{
		WallClockBasedWaitEnabled: true,
		WaitingPeriod:             2 * 24 * time.Hour,
	}
	offer := omaha.OfferedUpdate{MaxDaysToScatter: 0}

	d := Evaluate(context.Background(), cfg, false, offer, store, fixedClock(time.Now()), fixedRand(0))
	if d != Surface {
		t.Fatalf("got %v, want Surface", d)
	}
}

// S5: counter scatter, three sub-cases.
func TestUpdateCheckCountScatter(t *testing.T) {
	cfg := omaha.AdmissionConfig{
		WallClockBasedWaitEnabled:   true,
		WaitingPeriod:               0,
		UpdateCheckCountWaitEnabled: true,
		MinUpdateChecksNeeded:       1,
		MaxUpdateChecksAllowed:      8,
	}
	offer := omaha.OfferedUpdate{MaxDaysToScatter: 7}

	t.Run("empty prefs draws and defers", func(t *testing.T) {
		store := newStore(t)
		d := Evaluate(context.Background(), cfg, false, offer, store, fixedClock(time.Now()), fixedRand(4))
		if d != Defer {
			t.Fatalf("got %v, want Defer", d)
		}
		count, ok := store.GetInt64(omaha.KeyUpdateCheckCount)
		if !ok || count <= 0 {
			t.Fatalf("expected a positive persisted count, got (%d, %v)", count, ok)
		}
	})

	t.Run("count zero surfaces and stays zero", func(t *testing.T) {
		store := newStore(t)
		store.SetInt64(omaha.KeyUpdateCheckCount, 0)
		d := Evaluate(context.Background(), cfg, false, offer, store, fixedClock(time.Now()), fixedRand(4))
		if d != Surface {
			t.Fatalf("got %v, want Surface", d)
		}
		count, _ := store.GetInt64(omaha.KeyUpdateCheckCount)
		if count != 0 {
			t.Fatalf("count changed to %d, want unchanged 0", count)
		}
	})

	t.Run("count five defers without decrementing", func(t *testing.T) {
		store := newStore(t)
		store.SetInt64(omaha.KeyUpdateCheckCount, 5)
		d := Evaluate(context.Background(), cfg, false, offer, store, fixedClock(time.Now()), fixedRand(4))
		if d != Defer {
			t.Fatalf("got %v, want Defer", d)
		}
		count, _ := store.GetInt64(omaha.KeyUpdateCheckCount)
		if count != 5 {
			t.Fatalf("count changed to %d, want unchanged 5", count)
		}
	})
}

// Ordering: wall-clock defers first; counter check is never consulted.
func TestWallClockDeferPreemptsCounterCheck(t *testing.T) {
	store := newStore(t)
	cfg := omaha.AdmissionConfig{
		WallClockBasedWaitEnabled:   true,
		WaitingPeriod:               2 * 24 * time.Hour,
		UpdateCheckCountWaitEnabled: true,
		MinUpdateChecksNeeded:       1,
		MaxUpdateChecksAllowed:      8,
	}
	offer := omaha.OfferedUpdate{MaxDaysToScatter: 7}

	d := Evaluate(context.Background(), cfg, false, offer, store, fixedClock(time.Now()), fixedRand(0))
	if d != Defer {
		t.Fatalf("got %v, want Defer", d)
	}
	if _, ok := store.GetInt64(omaha.KeyUpdateCheckCount); ok {
		t.Fatal("counter check must not run when wall-clock check already deferred")
	}
}

func TestNewRandRange(t *testing.T) {
	src := rand.New(rand.NewSource(1))
	draw := NewRand(src)
	for i := 0; i < 100; i++ {
		v := draw(1, 8)
		if v < 1 || v > 8 {
			t.Fatalf("draw out of range: %d", v)
		}
	}
}
