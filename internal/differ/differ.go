// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package differ decides when a freshly generated artifact is actually
// new. The latest copy is always rewritten; a timestamped archive is cut
// only when the content differs from the previous generation, so report
// history only grows when something really changed.
package differ

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/zeebo/blake3"

	"github.com/staranto/ghtctlgo/internal/store"
)

// stampLayout names archives like summary_20260821_153004.md.
const stampLayout = "20060102_150405"

// WriteDifferential writes content to path and, when the normalized
// content differs from the newest archive (or no archive exists yet),
// cuts a timestamped archive alongside it. Returns whether an archive
// was written.
func WriteDifferential(path string, content []byte, now time.Time) (bool, error) {
	prev, hasPrev := NewestArchive(path)

	if err := store.WriteFileAtomic(path, content); err != nil {
		return false, err
	}

	ext := filepath.Ext(path)
	if hasPrev {
		old, err := os.ReadFile(prev)
		if err == nil && Sum(Normalize(old, ext)) == Sum(Normalize(content, ext)) {
			log.Debugf("content unchanged, no archive cut for %s", path)
			return false, nil
		}
	}

	archive := ArchivePath(path, now)
	if err := store.WriteFileAtomic(archive, content); err != nil {
		return false, fmt.Errorf("failed to write archive %s: %w", archive, err)
	}
	log.Debugf("archived %s", archive)
	return true, nil
}

// Sum is the content hash archives are compared by.
func Sum(content []byte) [32]byte {
	return blake3.Sum256(content)
}

// Normalize strips the volatile lines out of markdown content before
// comparison. Generated-at timestamps change on every run and must not
// trigger an archive on their own. Non-markdown content is compared
// byte for byte.
func Normalize(content []byte, ext string) []byte {
	if !strings.EqualFold(ext, ".md") {
		return content
	}

	lines := strings.Split(string(content), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "**Generated:**") || strings.HasPrefix(t, "- **Last updated:**") {
			continue
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, "\n"))
}
