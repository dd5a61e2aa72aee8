// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package omahaconfig loads the device/app identity and admission policy
// that the CLI driver needs from a YAML file: read, unmarshal, and check
// the required fields. No defaults are applied; fields absent from the file
// keep their zero values.
package omahaconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chengweiv5/update-engine/internal/omaha"
)

// Config is the on-disk shape of an update-check configuration file.
type Config struct {
	OSPlatform    string `yaml:"os_platform"`
	OSVersion     string `yaml:"os_version"`
	ServicePack   string `yaml:"service_pack"`
	Board         string `yaml:"board"`
	AppID         string `yaml:"app_id"`
	AppVersion    string `yaml:"app_version"`
	Lang          string `yaml:"lang"`
	Track         string `yaml:"track"`
	HardwareClass string `yaml:"hardware_class"`
	BootID        string `yaml:"boot_id"`

	DeltaOkay           bool   `yaml:"delta_okay"`
	UpdateURL           string `yaml:"update_url"`
	TargetVersionPrefix string `yaml:"target_version_prefix"`

	ScatterWallClockWaitDays int `yaml:"scatter_wall_clock_wait_days"`
	ScatterMinUpdateChecks   int `yaml:"scatter_min_update_checks"`
	ScatterMaxUpdateChecks   int `yaml:"scatter_max_update_checks"`
}

// Load reads and validates a Config from path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("omahaconfig: reading %q: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("omahaconfig: parsing %q: %w", path, err)
	}
	if c.AppID == "" {
		return nil, fmt.Errorf("omahaconfig: %q: app_id is required", path)
	}
	if c.UpdateURL == "" {
		return nil, fmt.Errorf("omahaconfig: %q: update_url is required", path)
	}
	return &c, nil
}

// RequestParameters projects Config into the composer's input shape.
// interactive and updateDisabled come from the command line, not the file,
// since they vary per invocation rather than per device.
func (c *Config) RequestParameters(interactive, updateDisabled bool) omaha.RequestParameters {
	return omaha.RequestParameters{
		OSPlatform:          c.OSPlatform,
		OSVersion:           c.OSVersion,
		ServicePack:         c.ServicePack,
		Board:               c.Board,
		AppID:               c.AppID,
		AppVersion:          c.AppVersion,
		Lang:                c.Lang,
		Track:               c.Track,
		HardwareClass:       c.HardwareClass,
		BootID:              c.BootID,
		DeltaOkay:           c.DeltaOkay,
		Interactive:         interactive,
		UpdateURL:           c.UpdateURL,
		UpdateDisabled:      updateDisabled,
		TargetVersionPrefix: c.TargetVersionPrefix,
	}
}

// AdmissionConfig projects Config into the scatter policy's input shape.
// A zero ScatterWallClockWaitDays disables wall-clock scattering entirely.
func (c *Config) AdmissionConfig() omaha.AdmissionConfig {
	return omaha.AdmissionConfig{
		WallClockBasedWaitEnabled:   c.ScatterWallClockWaitDays > 0,
		WaitingPeriod:               time.Duration(c.ScatterWallClockWaitDays) * 24 * time.Hour,
		UpdateCheckCountWaitEnabled: c.ScatterMaxUpdateChecks > 0,
		MinUpdateChecksNeeded:       c.ScatterMinUpdateChecks,
		MaxUpdateChecksAllowed:      c.ScatterMaxUpdateChecks,
	}
}
