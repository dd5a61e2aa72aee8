// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package prefs

// lockFile has no portable flock equivalent wired on Windows; the engine
// still relies on the "one driver instance at a time" construction
// guarantee described in the concurrency model.
func lockFile(path string) func() {
	return func() {}
}
