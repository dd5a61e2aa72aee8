// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package omaha builds and parses the Omaha 3.0 update-check request/reply
// pair used by this engine: a device describes itself and its installed
// app in a small XML POST body, and the server replies with either a
// no-update verdict or an offered payload manifest.
package omaha

import "time"

// RequestParameters describes the device and application making the
// request. It is immutable for the lifetime of a single request.
type RequestParameters struct {
	OSPlatform    string
	OSVersion     string
	ServicePack   string
	Board         string
	AppID         string
	AppVersion    string
	Lang          string
	Track         string
	HardwareClass string
	BootID        string

	DeltaOkay           bool
	Interactive         bool
	UpdateURL           string
	UpdateDisabled      bool
	TargetVersionPrefix string
}

// AdmissionConfig is the mutable subset of parameters the scatter policy
// consults; unlike RequestParameters it may change between requests
// without those changes applying retroactively to an in-flight one.
type AdmissionConfig struct {
	WallClockBasedWaitEnabled   bool
	WaitingPeriod               time.Duration
	UpdateCheckCountWaitEnabled bool
	MinUpdateChecksNeeded       int
	MaxUpdateChecksAllowed      int
}

// PingState is derived from persisted timestamps and the server's
// daystart/elapsed_seconds. ComposeRequest does not read it: the ping
// element it emits is always active="1".
type PingState struct {
	Active                   int
	DaysSinceLastActivePing  int
	DaysSinceLastRollCall    int
}

// EventType enumerates the event kinds this engine's composer can emit.
// Values match the real Omaha/update_engine numeric event codes so logs
// and wire bodies are directly comparable against the original protocol.
type EventType int

const (
	EventTypeUnspecified             EventType = 0
	EventTypeUpdateComplete          EventType = 3
	EventTypeInstallComplete         EventType = 9
	EventTypeDownloadStarted         EventType = 13
	EventTypeDownloadEnded           EventType = 14 // a.k.a. "download-complete"
)

// EventResult is the outcome paired with an EventType.
type EventResult int

const (
	EventResultError   EventResult = 0
	EventResultSuccess EventResult = 1
)

// Event describes a single telemetry event request (as opposed to an
// update-check/ping request).
type Event struct {
	Type      EventType
	Result    EventResult
	ErrorCode int
}

// OfferedUpdate is produced only by ParseResponse when the server offers a
// payload, and is the sole output handed to the downstream pipeline.
type OfferedUpdate struct {
	DisplayVersion   string
	PayloadURLs      []string
	SHA256           string
	Size             int64
	NeedsAdmin       bool
	Prompt           bool
	Deadline         string
	MaxDaysToScatter int
	MoreInfoURL      string
}

// Preference key names, matching the real update_engine Prefs constants so
// a reader familiar with the original protocol can map keys directly.
const (
	KeyPreviousVersion      = "previous_version"
	KeyUpdateCheckCount     = "update_check_count"
	KeyUpdateFirstSeenAt    = "update_first_seen_at"
	KeyWallClockWaitPeriod  = "wall_clock_wait_period_secs"
)
