// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/ghtctlgo/internal/differ"
	"github.com/staranto/ghtctlgo/internal/metadata"
)

func TestWriterFirstRun(t *testing.T) {
	l := seedOrg(t, t.TempDir())
	ts := time.Date(2026, 8, 21, 15, 30, 4, 0, time.UTC)

	w := Writer{Layout: l, Now: func() time.Time { return ts }}

	res, err := w.Write()
	require.NoError(t, err)
	assert.True(t, res.MatrixArchived)
	assert.True(t, res.SummaryArchived)

	_, err = os.Stat(l.MatrixCSV())
	require.NoError(t, err)
	_, err = os.Stat(l.SummaryMD())
	require.NoError(t, err)

	cs, err := metadata.ReadChecksums(l)
	require.NoError(t, err)
	assert.Contains(t, cs.Files, "reports/member_team_matrix.csv")
	assert.Contains(t, cs.Files, "reports/summary.md")
	assert.Contains(t, cs.Files, "teams/team_names.txt")
}

func TestWriterUnchangedDataNoNewArchive(t *testing.T) {
	l := seedOrg(t, t.TempDir())
	ts := time.Date(2026, 8, 21, 15, 30, 4, 0, time.UTC)

	w := Writer{Layout: l, Now: func() time.Time { return ts }}
	_, err := w.Write()
	require.NoError(t, err)

	// Same data an hour later. The latest files refresh, including the
	// summary's Generated line, but no archive is cut.
	w.Now = func() time.Time { return ts.Add(time.Hour) }
	res, err := w.Write()
	require.NoError(t, err)
	assert.False(t, res.MatrixArchived)
	assert.False(t, res.SummaryArchived)

	matrixArchives, err := differ.Archives(l.MatrixCSV())
	require.NoError(t, err)
	assert.Len(t, matrixArchives, 1)

	summaryArchives, err := differ.Archives(l.SummaryMD())
	require.NoError(t, err)
	assert.Len(t, summaryArchives, 1)

	latest, err := os.ReadFile(l.SummaryMD())
	require.NoError(t, err)
	assert.Contains(t, string(latest), "**Generated:** 2026-08-21 16:30:04")
}

func TestWriterRoleChangeArchivesOnce(t *testing.T) {
	l := seedOrg(t, t.TempDir())
	ts := time.Date(2026, 8, 21, 15, 30, 4, 0, time.UTC)

	w := Writer{Layout: l, Now: func() time.Time { return ts }}
	_, err := w.Write()
	require.NoError(t, err)

	// Promote bob.
	writeRolesCSV(t, l, "platform-eng",
		"platform-eng,alice,maintainer",
		"platform-eng,bob,maintainer")

	w.Now = func() time.Time { return ts.Add(time.Hour) }
	res, err := w.Write()
	require.NoError(t, err)
	assert.True(t, res.MatrixArchived)

	matrixArchives, err := differ.Archives(l.MatrixCSV())
	require.NoError(t, err)
	require.Len(t, matrixArchives, 2)

	newest, err := os.ReadFile(matrixArchives[0])
	require.NoError(t, err)
	assert.Contains(t, string(newest), "bob,,,maintainer")
}

func TestWriterOutDirOverride(t *testing.T) {
	l := seedOrg(t, t.TempDir())
	out := filepath.Join(t.TempDir(), "exported", "acme-corp")
	ts := time.Date(2026, 8, 21, 15, 30, 4, 0, time.UTC)

	w := Writer{Layout: l, OutDir: out, Now: func() time.Time { return ts }}

	res, err := w.Write()
	require.NoError(t, err)
	assert.True(t, res.MatrixArchived)
	assert.Equal(t, out, w.Dir())

	_, err = os.Stat(filepath.Join(out, "member_team_matrix.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "summary.md"))
	require.NoError(t, err)

	// Nothing lands in the storage tree's own reports dir.
	_, err = os.Stat(l.MatrixCSV())
	assert.True(t, os.IsNotExist(err))

	// Checksums still track the cache tree.
	cs, err := metadata.ReadChecksums(l)
	require.NoError(t, err)
	assert.Contains(t, cs.Files, "reports/member_team_matrix.csv")
}
