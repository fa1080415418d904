// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package metadata reads and writes the bookkeeping artifacts under
// metadata/: when the cache was last refreshed, content checksums for
// change detection, and a short history of API spend.
package metadata

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/staranto/ghtctlgo/internal/store"
)

// LastUpdate describes the most recent successful fetch for an org.
type LastUpdate struct {
	Org       string    `yaml:"org"`
	RunID     string    `yaml:"run_id"`
	UpdatedAt time.Time `yaml:"updated_at"`
	Teams     int       `yaml:"teams"`
	Members   int       `yaml:"members"`
	Duration  float64   `yaml:"duration_seconds"`
	Forced    bool      `yaml:"forced"`
}

// Checksums maps cache-relative paths to content hashes.
type Checksums struct {
	GeneratedAt time.Time         `yaml:"generated_at"`
	Files       map[string]string `yaml:"files"`
}

// UsageRun is one fetch's API spend.
type UsageRun struct {
	RunID     string    `yaml:"run_id"`
	Timestamp time.Time `yaml:"timestamp"`
	Operation string    `yaml:"operation"`
	Calls     int       `yaml:"calls"`
}

// APIUsage is the rolling run history kept in api_usage.yaml.
type APIUsage struct {
	Runs []UsageRun `yaml:"runs"`
}

// maxUsageRuns caps the history so the file never grows unbounded.
const maxUsageRuns = 50

// sumLen is the number of hex characters kept from a BLAKE3 digest.
// Enough to detect content drift, short enough to eyeball in a diff.
const sumLen = 16

// NewRunID mints the identifier that ties last_update and api_usage
// entries of one fetch together.
func NewRunID() string {
	return uuid.NewString()
}

// Sum returns the truncated BLAKE3 hex digest used throughout the
// checksum and differential machinery.
func Sum(data []byte) string {
	digest := blake3.Sum256(data)
	return hex.EncodeToString(digest[:])[:sumLen]
}

func WriteLastUpdate(l store.Layout, lu LastUpdate) error {
	return writeYAML(l.LastUpdate(), lu)
}

func ReadLastUpdate(l store.Layout) (LastUpdate, error) {
	var lu LastUpdate
	err := readYAML(l.LastUpdate(), &lu)
	return lu, err
}

func WriteChecksums(l store.Layout, files map[string]string) error {
	return writeYAML(l.Checksums(), Checksums{
		GeneratedAt: time.Now().UTC(),
		Files:       files,
	})
}

func ReadChecksums(l store.Layout) (Checksums, error) {
	var cs Checksums
	err := readYAML(l.Checksums(), &cs)
	return cs, err
}

// RecordUsage appends one run to api_usage.yaml, trimming the history
// to the newest maxUsageRuns entries.
func RecordUsage(l store.Layout, run UsageRun) error {
	usage, err := ReadUsage(l)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	usage.Runs = append(usage.Runs, run)
	if len(usage.Runs) > maxUsageRuns {
		usage.Runs = usage.Runs[len(usage.Runs)-maxUsageRuns:]
	}

	return writeYAML(l.APIUsage(), usage)
}

func ReadUsage(l store.Layout) (APIUsage, error) {
	var usage APIUsage
	err := readYAML(l.APIUsage(), &usage)
	return usage, err
}

// Collect walks the org cache and hashes every artifact except the
// metadata files themselves. Keys are slash-separated paths relative to
// the cache dir, so checksums.yaml is portable across machines.
func Collect(l store.Layout) (map[string]string, error) {
	sums := map[string]string{}
	base := l.CacheDir()
	metaDir := l.MetadataDir()

	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == metaDir {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		sums[filepath.ToSlash(rel)] = Sum(data)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return sums, nil
		}
		return nil, fmt.Errorf("failed to checksum cache: %w", err)
	}
	return sums, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return store.WriteFileAtomic(path, data)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
