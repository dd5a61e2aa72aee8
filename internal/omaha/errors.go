// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package omaha

import "fmt"

// Kind is the result taxonomy for a completed update-check request. It is
// not a Go error type on its own — ParseError wraps a Kind with an optional
// descriptive cause — because some kinds, such as Success, are not
// failures at all.
type Kind int

const (
	Success Kind = iota
	EmptyResponse
	XMLParseError
	ResponseInvalid
	UpdateIgnoredPerPolicy
	UpdateDeferredPerPolicy
	Cancelled
	UnknownError

	// HTTPResponseBase anchors the range of Kinds that encode a transport
	// failure: HTTPResponseBase + clampHTTPStatus(status).
	HTTPResponseBase Kind = 1000
)

func (k Kind) String() string {
	switch {
	case k >= HTTPResponseBase:
		return fmt.Sprintf("HTTPResponseError(%d)", int(k-HTTPResponseBase))
	case k == Success:
		return "Success"
	case k == EmptyResponse:
		return "EmptyResponse"
	case k == XMLParseError:
		return "XMLParseError"
	case k == ResponseInvalid:
		return "ResponseInvalid"
	case k == UpdateIgnoredPerPolicy:
		return "UpdateIgnoredPerPolicy"
	case k == UpdateDeferredPerPolicy:
		return "UpdateDeferredPerPolicy"
	case k == Cancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// HTTPResponseKind maps a transport status (an HTTP status code, or a
// synthetic failure code) into the HTTPResponseError(code) kind, clamping
// to [0, 999] per the driver's error-mapping contract.
func HTTPResponseKind(status int) Kind {
	return HTTPResponseBase + Kind(clampStatus(status))
}

func clampStatus(status int) int {
	if status < 0 {
		return 0
	}
	if status > 999 {
		return 999
	}
	return status
}

// ParseError is returned by ParseResponse; it carries the classified Kind
// plus a human-readable cause for logs and diagnostics.
type ParseError struct {
	Kind  Kind
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

func newParseError(kind Kind, format string, a ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Cause: fmt.Errorf(format, a...)}
}
