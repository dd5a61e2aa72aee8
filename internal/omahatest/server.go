// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package omahatest is an in-process fake Omaha server for driver-level
// tests: instead of shelling out to a separate server binary the way the
// reference device-testing tooling does, it answers over an
// httptest.Server using the same lightweight httprouter-based routing this
// codebase uses elsewhere for first-party HTTP servers.
package omahatest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/julienschmidt/httprouter"
)

// Server is a fake Omaha endpoint that replies to every POST /update with a
// canned body, ignoring the request content, plus an optional pre-reply
// hook for tests that need to observe the request or inject latency.
type Server struct {
	httpServer *httptest.Server

	mu       sync.Mutex
	status   int
	body     []byte
	requests [][]byte
	onReq    func()
}

// New starts a Server answering with (status, body) until SetResponse
// changes them.
func New(status int, body []byte) *Server {
	s := &Server{status: status, body: body}
	router := httprouter.New()
	router.POST("/update", s.handleUpdate)
	s.httpServer = httptest.NewServer(router)
	return s
}

// URL is the address the fake server is listening on.
func (s *Server) URL() string {
	return s.httpServer.URL + "/update"
}

// Close shuts down the underlying httptest.Server.
func (s *Server) Close() {
	s.httpServer.Close()
}

// SetResponse changes what subsequent requests are answered with.
func (s *Server) SetResponse(status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

// OnRequest installs a hook invoked synchronously before every reply is
// written, letting a test introduce latency or a mid-flight cancellation
// point.
func (s *Server) OnRequest(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReq = f
}

// Requests returns every request body received so far, in order.
func (s *Server) Requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount is a convenience for tests asserting on call counts without
// retaining the bodies.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reqBody, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, reqBody)
	status, body, onReq := s.status, s.body, s.onReq
	s.mu.Unlock()

	if onReq != nil {
		onReq()
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	w.Write(body)
}
