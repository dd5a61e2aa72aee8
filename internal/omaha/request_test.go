// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package omaha

import (
	"context"
	"strings"
	"testing"

	"github.com/chengweiv5/update-engine/internal/prefs"
)

func newTestStore(t *testing.T) *prefs.FileStore {
	t.Helper()
	s, err := prefs.Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testParams() RequestParameters {
	return RequestParameters{
		OSPlatform:    "Chrome OS",
		OSVersion:     "Indy",
		ServicePack:   "0.0.0.0",
		Board:         "x86-generic",
		AppID:         "{87efface-864d-49a5-9bb3-4b630df9b871}",
		AppVersion:    "1.2.3",
		Lang:          "en-US",
		Track:         "stable-channel",
		HardwareClass: "Generic",
		BootID:        "boot-1234",
		DeltaOkay:     true,
	}
}

// S6: parameters containing XML metacharacters never appear raw in the
// composed body. Per the codec's contract, only '<', '>' and '&' are
// escaped on encode (quotes are not a fixed point of encode/decode here);
// device-supplied values are not expected to contain literal quotes.
func TestComposeRequestEscapesMetacharacters(t *testing.T) {
	store := newTestStore(t)
	p := testParams()
	p.Board = `x86 & generic <board>`

	body, err := ComposeRequest(context.Background(), p, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := string(body)
	if strings.Contains(s, `<board>`) {
		t.Fatalf("composed body contains an unescaped '<board>':\n%s", s)
	}
	if !strings.Contains(s, "&amp;") || !strings.Contains(s, "&lt;board&gt;") {
		t.Fatalf("composed body missing expected entity encoding:\n%s", s)
	}
}

func TestComposeUpdateCheckRequestShape(t *testing.T) {
	store := newTestStore(t)
	p := testParams()
	p.TargetVersionPrefix = "14"

	body, err := ComposeRequest(context.Background(), p, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := string(body)
	for _, want := range []string{
		`protocol="3.0"`,
		`<ping active="1"></ping>`,
		`<updatecheck targetversionprefix="14"></updatecheck>`,
		`appid="{87efface-864d-49a5-9bb3-4b630df9b871}"`,
		`previousversion=""`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("composed body missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "<event") {
		t.Fatalf("update-check body must not contain an event element:\n%s", s)
	}
}

func TestComposeUpdateCheckPersistsPreviousVersion(t *testing.T) {
	store := newTestStore(t)
	p := testParams()
	p.AppVersion = "1.2.3"

	if _, err := ComposeRequest(context.Background(), p, store, nil); err != nil {
		t.Fatal(err)
	}
	v, ok := store.GetString(KeyPreviousVersion)
	if !ok || v != "1.2.3" {
		t.Fatalf("got (%q, %v), want (\"1.2.3\", true)", v, ok)
	}

	p.AppVersion = "1.2.4"
	body, err := ComposeRequest(context.Background(), p, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `previousversion="1.2.3"`) {
		t.Fatalf("second request did not report prior version:\n%s", body)
	}
	v, ok = store.GetString(KeyPreviousVersion)
	if !ok || v != "1.2.4" {
		t.Fatalf("got (%q, %v), want (\"1.2.4\", true)", v, ok)
	}
}

func TestComposeEventRequestDoesNotTouchPreviousVersion(t *testing.T) {
	store := newTestStore(t)
	p := testParams()
	store.SetString(KeyPreviousVersion, "0.0.1")

	event := &Event{Type: EventTypeUpdateComplete, Result: EventResultSuccess}
	body, err := ComposeRequest(context.Background(), p, store, event)
	if err != nil {
		t.Fatal(err)
	}
	s := string(body)
	if !strings.Contains(s, `<event eventtype="3" eventresult="1"></event>`) {
		t.Fatalf("composed event body unexpected:\n%s", s)
	}
	if strings.Contains(s, "<ping") || strings.Contains(s, "<updatecheck") {
		t.Fatalf("event body must not contain ping/updatecheck elements:\n%s", s)
	}
	v, _ := store.GetString(KeyPreviousVersion)
	if v != "0.0.1" {
		t.Fatalf("event request mutated previous_version to %q", v)
	}
}

func TestComposeEventRequestWithErrorCode(t *testing.T) {
	store := newTestStore(t)
	event := &Event{Type: EventTypeInstallComplete, Result: EventResultError, ErrorCode: 42}
	body, err := ComposeRequest(context.Background(), testParams(), store, event)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `<event eventtype="9" eventresult="0" errorcode="42"></event>`) {
		t.Fatalf("composed body missing errorcode attribute:\n%s", body)
	}
}
