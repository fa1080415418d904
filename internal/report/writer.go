// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/staranto/ghtctlgo/internal/differ"
	"github.com/staranto/ghtctlgo/internal/metadata"
	"github.com/staranto/ghtctlgo/internal/store"
)

// Writer renders the reports for one org and persists them through the
// differential archive rules.
type Writer struct {
	Layout store.Layout

	// OutDir overrides the reports directory. Empty means the storage
	// tree's own reports dir. Checksums metadata stays in the cache
	// tree either way.
	OutDir string

	// Now is overridable for tests. nil means time.Now.
	Now func() time.Time
}

// Result reports which artifacts cut a new archive.
type Result struct {
	MatrixArchived  bool
	SummaryArchived bool
}

// Write loads the cached org data, renders both reports, writes them
// differentially and refreshes the checksums metadata.
func (w Writer) Write() (Result, error) {
	var res Result

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	d, err := Load(w.Layout)
	if err != nil {
		return res, err
	}

	var lastUpdated time.Time
	if lu, err := metadata.ReadLastUpdate(w.Layout); err == nil {
		lastUpdated = lu.UpdatedAt
	}

	matrix, err := MatrixCSV(d)
	if err != nil {
		return res, fmt.Errorf("failed to render matrix for %s: %w", w.Layout.Org, err)
	}

	ts := now()

	res.MatrixArchived, err = differ.WriteDifferential(w.matrixPath(), matrix, ts)
	if err != nil {
		return res, err
	}

	summary := SummaryMD(d, ts, lastUpdated)
	res.SummaryArchived, err = differ.WriteDifferential(w.summaryPath(), summary, ts)
	if err != nil {
		return res, err
	}

	if err := w.checksums(matrix, summary); err != nil {
		return res, err
	}

	log.Debugf("reports written for %s (matrix archived=%t summary archived=%t)",
		w.Layout.Org, res.MatrixArchived, res.SummaryArchived)

	return res, nil
}

// Dir is the directory the reports land in.
func (w Writer) Dir() string {
	if w.OutDir != "" {
		return w.OutDir
	}
	return w.Layout.ReportsDir()
}

func (w Writer) matrixPath() string {
	if w.OutDir != "" {
		return filepath.Join(w.OutDir, filepath.Base(w.Layout.MatrixCSV()))
	}
	return w.Layout.MatrixCSV()
}

func (w Writer) summaryPath() string {
	if w.OutDir != "" {
		return filepath.Join(w.OutDir, filepath.Base(w.Layout.SummaryMD()))
	}
	return w.Layout.SummaryMD()
}

func (w Writer) checksums(matrix, summary []byte) error {
	files, err := metadata.Collect(w.Layout)
	if err != nil {
		return err
	}

	files["reports/member_team_matrix.csv"] = metadata.Sum(matrix)
	files["reports/summary.md"] = metadata.Sum(summary)

	return metadata.WriteChecksums(w.Layout, files)
}
