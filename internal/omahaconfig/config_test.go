// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package omahaconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	const body = `
app_id: "{87efface-864d-49a5-9bb3-4b630df9b871}"
app_version: "1.2.3"
track: stable-channel
update_url: "https://update.example.com/service"
scatter_wall_clock_wait_days: 7
scatter_min_update_checks: 1
scatter_max_update_checks: 8
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.AppID != "{87efface-864d-49a5-9bb3-4b630df9b871}" {
		t.Fatalf("AppID = %q", c.AppID)
	}

	admission := c.AdmissionConfig()
	if !admission.WallClockBasedWaitEnabled || !admission.UpdateCheckCountWaitEnabled {
		t.Fatalf("admission config not derived correctly: %+v", admission)
	}

	params := c.RequestParameters(true, false)
	if !params.Interactive || params.UpdateURL != "https://update.example.com/service" {
		t.Fatalf("request parameters not derived correctly: %+v", params)
	}
}

func TestLoadRequiresAppIDAndUpdateURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("track: stable-channel\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for missing app_id/update_url")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
