// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prefs implements the preferences collaborator described in the
// engine's external interfaces: small, individually-atomic integer/string
// key-value pairs that outlive the process. The default Store keeps one
// regular file per key inside a directory, mirroring the on-disk layout of
// the real update_engine Prefs class this engine's scatter policy and
// composer were modeled on.
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/chengweiv5/update-engine/internal/ulog"
)

// Store is the engine-facing preferences contract. Get methods report
// absence via ok=false, never an error: per the engine's error-handling
// design, preference I/O failures degrade to "no persistent memory" rather
// than being surfaced to callers.
type Store interface {
	GetInt64(key string) (value int64, ok bool)
	SetInt64(key string, value int64) (ok bool)
	GetString(key string) (value string, ok bool)
	SetString(key string, value string) (ok bool)
	DeleteKey(key string) (ok bool)
}

// FileStore is the default Store: one file per key under dir.
type FileStore struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string

	watcher *fsnotify.Watcher
	closed  chan struct{}
}

// Open returns a FileStore rooted at dir, creating dir if it does not
// exist. The returned store watches dir for external modifications (see
// invalidateOnExternalChange) until Close is called.
func Open(ctx context.Context, dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("prefs: creating %q: %w", dir, err)
	}
	s := &FileStore{
		dir:    dir,
		cache:  make(map[string]string),
		closed: make(chan struct{}),
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		// Watching is an optimization (faster observation of external
		// resets); its absence does not make the store incorrect, since
		// every read still goes to disk when the key isn't cached.
		ulog.Warningf(ctx, "prefs: could not start directory watcher for %q: %v", dir, err)
		return s, nil
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		ulog.Warningf(ctx, "prefs: could not watch %q: %v", dir, err)
		return s, nil
	}
	s.watcher = w
	go s.invalidateOnExternalChange(ctx)
	return s, nil
}

// Close stops the directory watcher, if any.
func (s *FileStore) Close() error {
	close(s.closed)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// invalidateOnExternalChange drops the in-memory cache entry for any key
// whose backing file is written or removed by a process other than this
// one, so the "never overwritten except by explicit reset from an external
// controller" invariant holds even when this store has already cached a
// value.
func (s *FileStore) invalidateOnExternalChange(ctx context.Context) {
	for {
		select {
		case <-s.closed:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key := filepath.Base(ev.Name)
			s.mu.Lock()
			delete(s.cache, key)
			s.mu.Unlock()
			ulog.Debugf(ctx, "prefs: observed external change to %q, cache invalidated", key)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			ulog.Warningf(ctx, "prefs: watcher error: %v", err)
		}
	}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileStore) readRaw(key string) (string, bool) {
	s.mu.RLock()
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	b, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	v := strings.TrimRight(string(b), "\n")
	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v, true
}

func (s *FileStore) writeRaw(key, value string) bool {
	if err := os.WriteFile(s.path(key), []byte(value), 0o600); err != nil {
		return false
	}
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return true
}

func (s *FileStore) GetInt64(key string) (int64, bool) {
	raw, ok := s.readRaw(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *FileStore) SetInt64(key string, value int64) bool {
	return s.writeRaw(key, strconv.FormatInt(value, 10))
}

func (s *FileStore) GetString(key string) (string, bool) {
	return s.readRaw(key)
}

func (s *FileStore) SetString(key string, value string) bool {
	return s.writeRaw(key, value)
}

func (s *FileStore) DeleteKey(key string) bool {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	err := os.Remove(s.path(key))
	return err == nil || os.IsNotExist(err)
}

// Snapshot returns every currently-persisted key/value pair, used by the
// scatterctl diagnostics tool. It is not part of the engine-facing Store
// contract.
func (s *FileStore) Snapshot() (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("prefs: reading %q: %w", s.dir, err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == lockFileName {
			continue
		}
		v, ok := s.readRaw(e.Name())
		if ok {
			out[e.Name()] = v
		}
	}
	return out, nil
}
