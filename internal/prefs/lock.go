// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package prefs

const lockFileName = ".scatter.lock"

// Lock guards a read-modify-write sequence across update_first_seen_at and
// update_check_count against other processes touching the same prefs
// directory. It always succeeds functionally (a failure to acquire the
// underlying OS lock degrades to "no cross-process mutual exclusion", not
// an error returned to the policy), consistent with this engine's
// tolerant treatment of preference I/O failures.
func (s *FileStore) Lock() (unlock func()) {
	return lockFile(s.path(lockFileName))
}
