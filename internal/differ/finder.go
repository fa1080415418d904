// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ArchivePath returns the timestamped sibling of path, such as
// member_team_matrix_20260821_153004.csv for member_team_matrix.csv.
func ArchivePath(path string, t time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "_" + t.Format(stampLayout) + ext
}

// Archives returns the timestamped siblings of path, newest first. The
// stamp format sorts lexically in chronological order, so no parsing is
// needed. A missing directory yields an empty slice.
func Archives(path string) ([]string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	re := regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `_\d{8}_\d{6}` + regexp.QuoteMeta(ext) + `$`)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}

	sort.Sort(sort.Reverse(sort.StringSlice(out)))

	return out, nil
}

// NewestArchive returns the most recent archive of path, if any.
func NewestArchive(path string) (string, bool) {
	archives, err := Archives(path)
	if err != nil || len(archives) == 0 {
		return "", false
	}
	return archives[0], true
}

// PruneArchives removes all but the keep newest archives of path and
// returns the paths it removed. keep < 0 removes nothing.
func PruneArchives(path string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, nil
	}

	archives, err := Archives(path)
	if err != nil {
		return nil, err
	}
	if len(archives) <= keep {
		return nil, nil
	}

	var removed []string
	for _, a := range archives[keep:] {
		if err := os.Remove(a); err != nil {
			return removed, err
		}
		removed = append(removed, a)
	}
	return removed, nil
}
