// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package store owns the on-disk cache layout. Every path under
// <root>/storage is minted here so the fetcher, the queries and the
// report writer never disagree about where things live.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Layout resolves paths for one org under one storage root.
type Layout struct {
	Root string
	Org  string
}

func New(root, org string) Layout {
	return Layout{Root: root, Org: org}
}

func (l Layout) CacheDir() string {
	return filepath.Join(l.Root, "storage", "cache", l.Org)
}

func (l Layout) TeamsDir() string {
	return filepath.Join(l.CacheDir(), "teams")
}

// TeamsJSON is the raw team list as returned by the API.
func (l Layout) TeamsJSON() string {
	return filepath.Join(l.TeamsDir(), "all_teams.json")
}

// TeamNames is the newline-delimited team slug list, one slug per line.
func (l Layout) TeamNames() string {
	return filepath.Join(l.TeamsDir(), "team_names.txt")
}

func (l Layout) MembersJSONDir() string {
	return filepath.Join(l.CacheDir(), "members", "json")
}

func (l Layout) MembersJSON(slug string) string {
	return filepath.Join(l.MembersJSONDir(), safeName(slug)+".json")
}

func (l Layout) MembersTxtDir() string {
	return filepath.Join(l.CacheDir(), "members", "txt")
}

func (l Layout) MembersTxt(slug string) string {
	return filepath.Join(l.MembersTxtDir(), safeName(slug)+".txt")
}

func (l Layout) RolesDir() string {
	return filepath.Join(l.CacheDir(), "members-with-roles")
}

func (l Layout) RolesCSV(slug string) string {
	return filepath.Join(l.RolesDir(), safeName(slug)+".csv")
}

func (l Layout) OrgDir() string {
	return filepath.Join(l.CacheDir(), "organization")
}

func (l Layout) OrgMembersJSON() string {
	return filepath.Join(l.OrgDir(), "all_members.json")
}

func (l Layout) OrgMemberNames() string {
	return filepath.Join(l.OrgDir(), "member_names.txt")
}

func (l Layout) MetadataDir() string {
	return filepath.Join(l.CacheDir(), "metadata")
}

func (l Layout) LastUpdate() string {
	return filepath.Join(l.MetadataDir(), "last_update.yaml")
}

func (l Layout) Checksums() string {
	return filepath.Join(l.MetadataDir(), "checksums.yaml")
}

func (l Layout) APIUsage() string {
	return filepath.Join(l.MetadataDir(), "api_usage.yaml")
}

func (l Layout) ReportsDir() string {
	return filepath.Join(l.Root, "storage", "reports", l.Org)
}

func (l Layout) MatrixCSV() string {
	return filepath.Join(l.ReportsDir(), "member_team_matrix.csv")
}

func (l Layout) SummaryMD() string {
	return filepath.Join(l.ReportsDir(), "summary.md")
}

// Orgs lists the org directories present under a storage root.
func Orgs(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, "storage", "cache"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan cache root: %w", err)
	}

	var orgs []string
	for _, e := range entries {
		if e.IsDir() {
			orgs = append(orgs, e.Name())
		}
	}
	return orgs, nil
}

// Fresh reports whether path exists and was modified within ttl.
// A missing file, a stat failure or a non-positive ttl all read as stale.
func Fresh(path string, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) <= ttl
}

// Age returns how long ago path was written, or ok=false if it does not
// exist.
func Age(path string) (time.Duration, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

// WriteFileAtomic writes data to path via a temp file and rename so a
// crash mid-write never leaves a truncated cache entry behind. Parent
// directories are created as needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:mnd
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// WriteLines writes one value per line with a trailing newline, the
// format of the *_names.txt artifacts.
func WriteLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return WriteFileAtomic(path, []byte(b.String()))
}

// ReadLines reads a *_names.txt artifact, skipping blank lines.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// safeName keeps team slugs filesystem-safe. GitHub slugs already are,
// but names sourced from older caches may not be.
func safeName(s string) string {
	s = strings.ReplaceAll(s, string(os.PathSeparator), "-")
	s = strings.ReplaceAll(s, "..", "-")
	return s
}
