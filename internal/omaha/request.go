// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package omaha

import (
	"context"
	"fmt"
	"strings"

	"github.com/chengweiv5/update-engine/internal/prefs"
	"github.com/chengweiv5/update-engine/internal/ulog"
	"github.com/chengweiv5/update-engine/internal/xmlentity"
)

const protocolVersion = "3.0"

// ComposeRequest builds the outbound XML body for either an update-check
// (event == nil) or a telemetry event request. There is no separate
// ping-only body: a ping-only request sends this same update-check body,
// and only the driver (updatecheck.WithPingOnly) skips the scatter policy
// and does not surface any parsed offer.
//
// On first composition of a non-event request, previous_version is read
// from prefs (defaulting to empty); after composition, the current app
// version is written back for the next request.
func ComposeRequest(ctx context.Context, p RequestParameters, store prefs.Store, event *Event) ([]byte, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")

	installSource := "scheduler"
	if p.Interactive {
		installSource = "ondemandupdate"
	}

	fmt.Fprintf(&b, "<request protocol=\"%s\" hardware_class=\"%s\" bootid=\"%s\" installsource=\"%s\">\n",
		protocolVersion, xmlentity.Encode(p.HardwareClass), xmlentity.Encode(p.BootID), installSource)

	fmt.Fprintf(&b, "  <os version=\"%s\" platform=\"%s\" sp=\"%s\"></os>\n",
		xmlentity.Encode(p.OSVersion), xmlentity.Encode(p.OSPlatform), xmlentity.Encode(p.ServicePack))

	previousVersion := ""
	if event == nil && store != nil {
		if v, ok := store.GetString(KeyPreviousVersion); ok {
			previousVersion = v
		}
	}

	fmt.Fprintf(&b, "  <app appid=\"%s\" version=\"%s\" track=\"%s\" board=\"%s\" delta_okay=\"%s\" previousversion=\"%s\" lang=\"%s\">\n",
		xmlentity.Encode(p.AppID), xmlentity.Encode(p.AppVersion), xmlentity.Encode(p.Track),
		xmlentity.Encode(p.Board), boolAttr(p.DeltaOkay), xmlentity.Encode(previousVersion), xmlentity.Encode(p.Lang))

	if event != nil {
		if event.Result == EventResultError {
			fmt.Fprintf(&b, "    <event eventtype=\"%d\" eventresult=\"%d\" errorcode=\"%d\"></event>\n",
				int(event.Type), int(event.Result), event.ErrorCode)
		} else {
			fmt.Fprintf(&b, "    <event eventtype=\"%d\" eventresult=\"%d\"></event>\n",
				int(event.Type), int(event.Result))
		}
	} else {
		b.WriteString("    <ping active=\"1\"></ping>\n")
		fmt.Fprintf(&b, "    <updatecheck targetversionprefix=\"%s\"></updatecheck>\n", xmlentity.Encode(p.TargetVersionPrefix))
	}

	b.WriteString("  </app>\n")
	b.WriteString("</request>\n")

	if event == nil && store != nil {
		if !store.SetString(KeyPreviousVersion, p.AppVersion) {
			ulog.Warningf(ctx, "omaha: failed to persist %s, next request will report an empty previous version", KeyPreviousVersion)
		}
	}

	return []byte(b.String()), nil
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
