// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command scatterctl is a standalone diagnostics tool for the scatter
// policy's on-disk preferences: list, dump, or reset the keys a
// FileStore persists under a prefs directory, without going through the
// engine's normal request/reply path.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/kr/fs"
	"github.com/kr/pretty"
	flag "github.com/spf13/pflag"
	canonicaljson "github.com/tent/canonical-json-go"

	"github.com/chengweiv5/update-engine/internal/omaha"
	"github.com/chengweiv5/update-engine/internal/prefs"
)

func main() {
	var (
		prefsDir = flag.String("prefs-dir", "/var/lib/update-engine/prefs", "path to the preferences directory")
		format   = flag.String("format", "pretty", "output format: pretty, json, or canonical-json")
		reset    = flag.Bool("reset", false, "delete every scatter-policy preference key instead of dumping them")
		archive  = flag.String("archive", "", "if set, write a gzip-compressed tar-free snapshot of every preference file to this path")
	)
	flag.Parse()

	ctx := context.Background()
	store, err := prefs.Open(ctx, *prefsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scatterctl: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *reset {
		if err := resetAll(store); err != nil {
			fmt.Fprintf(os.Stderr, "scatterctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("scatter preferences reset")
		return
	}

	snapshot, err := store.Snapshot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scatterctl: %v\n", err)
		os.Exit(1)
	}

	if *archive != "" {
		if err := writeArchive(*prefsDir, *archive); err != nil {
			fmt.Fprintf(os.Stderr, "scatterctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *archive)
	}

	switch *format {
	case "json":
		b, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "scatterctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(b))
	case "canonical-json":
		// Deterministic byte-for-byte output (sorted keys, no
		// insignificant whitespace), suitable for diffing snapshots
		// taken at different times.
		b, err := canonicaljson.Marshal(snapshot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scatterctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(b))
	default:
		fmt.Println(strPretty(snapshot))
	}
}

func strPretty(v interface{}) string {
	return fmt.Sprintf("%# v", pretty.Formatter(v))
}

func resetAll(store *prefs.FileStore) error {
	for _, k := range []string{omaha.KeyUpdateCheckCount, omaha.KeyUpdateFirstSeenAt, omaha.KeyWallClockWaitPeriod} {
		store.DeleteKey(k)
	}
	return nil
}

// writeArchive walks dir with kr/fs (rather than filepath.Walk) since the
// walker's Stat() method lets the same traversal code run over either a
// local directory or, in a future remote-diagnostics mode, an sftp.Client
// filesystem, without a branch per backend.
func writeArchive(dir, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %q: %w", dest, err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	defer gw.Close()

	walker := fs.Walk(dir)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}
		if walker.Stat().IsDir() {
			continue
		}
		rel, err := filepath.Rel(dir, walker.Path())
		if err != nil {
			return err
		}
		fmt.Fprintf(gw, "--- %s ---\n", rel)
		b, err := os.ReadFile(walker.Path())
		if err != nil {
			return err
		}
		gw.Write(b)
		gw.Write([]byte("\n"))
	}
	return nil
}
