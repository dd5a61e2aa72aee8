// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package omahahttp is the default HTTPClient collaborator for
// internal/updatecheck: a thin net/http POST with an HTTP/2-capable
// transport, since Omaha-protocol servers are ordinary HTTPS endpoints.
package omahahttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/chengweiv5/update-engine/internal/ulog"
)

const contentType = "application/xml"

// Client POSTs a composed request body and returns the raw reply body
// together with the numeric HTTP status, satisfying
// internal/updatecheck.HTTPClient. A transport-level failure (the request
// never got a reply) reports status 0 and a non-nil err; any status the
// server actually returned, even a 4xx/5xx, is reported with err == nil so
// the driver's HTTPResponseKind mapping can classify it precisely.
type Client struct {
	http *http.Client
}

// New returns a Client using an HTTP/2-capable transport with the given
// request timeout. HTTP/2 is negotiated only over TLS; a plain-HTTP
// UpdateURL (as used by in-process test servers) still works over
// HTTP/1.1, since http2.ConfigureTransport only adds h2 on top of an
// ordinary *http.Transport rather than replacing it.
func New(timeout time.Duration) *Client {
	transport := &http.Transport{}
	if err := http2.ConfigureTransport(transport); err != nil {
		transport = &http.Transport{}
	}
	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

func (c *Client) Do(ctx context.Context, url string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("omahahttp: building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		ulog.Warningf(ctx, "omahahttp: request to %q failed: %v", url, err)
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		ulog.Warningf(ctx, "omahahttp: reading reply from %q failed: %v", url, err)
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}
