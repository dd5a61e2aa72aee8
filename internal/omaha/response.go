// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package omaha

import (
	"context"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	luciErrors "go.chromium.org/luci/common/errors"

	"github.com/chengweiv5/update-engine/internal/ulog"
)

// node is a minimal DOM: just enough of the tree (element name, attributes,
// children) for the handful of elements this protocol subset cares about.
// Built by walking xml.Decoder tokens rather than xml.Unmarshal so we can
// distinguish "well-formed but missing nodes" from "not well-formed" and
// tolerate unknown elements/attributes without a struct-tag inventory of
// the entire Omaha schema.
type node struct {
	name     string
	attrs    map[string]string
	children []*node
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func buildTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	// Omaha responses carry no DTD/external entities we need to resolve,
	// and resolving them would be a parser-level injection surface.
	dec.Strict = true
	dec.Entity = nil

	var stack []*node
	var root *node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			// encoding/xml has already resolved entities (including
			// numeric character references) in attribute values by the
			// time we see them here; the xmlentity codec's decode side
			// is exercised directly by its own tests and is not needed
			// again on top of an already-unescaped value.
			n := &node{name: t.Name.Local, attrs: make(map[string]string)}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return root, nil
}

// ConfirmWellFormed checks only that data is non-empty and well-formed
// XML, without requiring the full app/updatecheck/manifest nodeset. It
// backs event-request handling: per the driver's contract, an event ack's
// body is parsed only enough to confirm well-formedness, never for an
// offer.
func ConfirmWellFormed(data []byte) error {
	if len(data) == 0 {
		return &ParseError{Kind: EmptyResponse}
	}
	root, err := buildTree(data)
	if err != nil {
		return &ParseError{Kind: XMLParseError, Cause: err}
	}
	if root == nil {
		return newParseError(XMLParseError, "no XML element found in response body")
	}
	return nil
}

// ParseResponse validates and extracts a ParsedResponse from raw reply
// bytes. Exactly one of NoUpdate/Offer is populated on success; otherwise
// err is a *ParseError with a classified Kind.
type ParsedResponse struct {
	UpdateExists bool
	Offer        OfferedUpdate
	DayStartElapsedSeconds int
	HasDayStart            bool
}

func ParseResponse(ctx context.Context, data []byte) (*ParsedResponse, error) {
	if len(data) == 0 {
		return nil, &ParseError{Kind: EmptyResponse}
	}

	root, err := buildTree(data)
	if err != nil {
		return nil, &ParseError{Kind: XMLParseError, Cause: err}
	}
	if root == nil {
		return nil, newParseError(XMLParseError, "no XML element found in response body")
	}
	if root.name != "response" {
		return nil, newParseError(ResponseInvalid, "response root element is %q, not \"response\"", root.name)
	}

	app := root.child("app")
	if app == nil {
		return nil, newParseError(ResponseInvalid, "no app element in response")
	}

	result := &ParsedResponse{}

	if ds := root.child("daystart"); ds != nil {
		if v, ok := ds.attr("elapsed_seconds"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				result.DayStartElapsedSeconds = n
				result.HasDayStart = true
			} else {
				ulog.Debugf(ctx, "omaha: daystart/@elapsed_seconds %q is not an integer, ignoring", v)
			}
		}
	}

	uc := app.child("updatecheck")
	if uc == nil {
		return nil, newParseError(ResponseInvalid, "no updatecheck element in app")
	}
	status, hasStatus := uc.attr("status")
	if !hasStatus {
		return nil, newParseError(ResponseInvalid, "updatecheck/@status is missing")
	}

	switch status {
	case "noupdate":
		result.UpdateExists = false
		return result, nil
	case "ok":
		offer, err := parseOffer(ctx, uc)
		if err != nil {
			return nil, &ParseError{Kind: ResponseInvalid, Cause: luciErrors.Annotate(err, "parsing offered update").Err()}
		}
		result.UpdateExists = true
		result.Offer = *offer
		return result, nil
	default:
		return nil, newParseError(ResponseInvalid, "updatecheck/@status %q is neither \"ok\" nor \"noupdate\"", status)
	}
}

func parseOffer(ctx context.Context, uc *node) (*OfferedUpdate, error) {
	urls := uc.child("urls")
	if urls == nil {
		return nil, newParseError(ResponseInvalid, "status=ok but urls element is missing")
	}
	var codebases []string
	for _, u := range urls.children {
		if u.name != "url" {
			continue
		}
		if cb, ok := u.attr("codebase"); ok {
			codebases = append(codebases, cb)
		}
	}
	if len(codebases) == 0 {
		return nil, newParseError(ResponseInvalid, "status=ok but no urls/url/@codebase found")
	}

	manifest := uc.child("manifest")
	if manifest == nil {
		return nil, newParseError(ResponseInvalid, "status=ok but manifest element is missing")
	}
	packages := manifest.child("packages")
	if packages == nil {
		return nil, newParseError(ResponseInvalid, "status=ok but manifest/packages element is missing")
	}

	var payloadURLs []string
	var size int64
	var haveSize bool
	for _, pkg := range packages.children {
		if pkg.name != "package" {
			continue
		}
		name, _ := pkg.attr("name")
		for _, cb := range codebases {
			payloadURLs = append(payloadURLs, cb+name)
		}
		if sz, ok := pkg.attr("size"); ok {
			n, err := strconv.ParseInt(sz, 10, 64)
			if err != nil {
				return nil, newParseError(ResponseInvalid, "manifest/packages/package/@size %q is not an integer", sz)
			}
			size += n
			haveSize = true
		}
	}
	if len(payloadURLs) == 0 {
		return nil, newParseError(ResponseInvalid, "status=ok but payload_urls is empty")
	}
	if !haveSize {
		return nil, newParseError(ResponseInvalid, "status=ok but no package size found")
	}

	offer := &OfferedUpdate{
		PayloadURLs: payloadURLs,
		Size:        size,
	}

	actions := manifest.child("actions")
	if actions != nil {
		for _, a := range actions.children {
			if a.name != "action" {
				continue
			}
			if ev, _ := a.attr("event"); ev != "postinstall" {
				continue
			}
			offer.SHA256, _ = a.attr("sha256")
			offer.DisplayVersion, _ = a.attr("DisplayVersion")
			offer.MoreInfoURL, _ = a.attr("MoreInfo")
			offer.Deadline, _ = a.attr("deadline")
			if p, ok := a.attr("Prompt"); ok {
				offer.Prompt = p == "true"
			}
			if na, ok := a.attr("needsadmin"); ok {
				offer.NeedsAdmin = na == "true"
			}
			if mds, ok := a.attr("MaxDaysToScatter"); ok {
				if n, err := strconv.Atoi(mds); err == nil {
					offer.MaxDaysToScatter = n
				} else {
					ulog.Debugf(ctx, "omaha: MaxDaysToScatter %q is not an integer, treating as absent", mds)
				}
			}
		}
	}

	return offer, nil
}
