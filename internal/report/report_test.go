// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/ghtctlgo/internal/store"
)

// seedOrg builds a small cached org: four members, two teams with
// roles, one empty team whose name embeds the org name.
func seedOrg(t *testing.T, root string) store.Layout {
	t.Helper()
	l := store.New(root, "acme-corp")

	require.NoError(t, store.WriteLines(l.TeamNames(), []string{"acme-tools", "docs", "platform-eng"}))
	require.NoError(t, store.WriteLines(l.OrgMemberNames(), []string{"alice", "bob", "carol", "dave"}))

	require.NoError(t, store.WriteLines(l.MembersTxt("platform-eng"), []string{"alice", "bob"}))
	require.NoError(t, store.WriteLines(l.MembersTxt("docs"), []string{"alice"}))
	require.NoError(t, store.WriteLines(l.MembersTxt("acme-tools"), nil))

	writeRolesCSV(t, l, "platform-eng",
		"platform-eng,alice,maintainer",
		"platform-eng,bob,member")
	writeRolesCSV(t, l, "docs",
		"docs,alice,member")
	writeRolesCSV(t, l, "acme-tools")

	return l
}

func writeRolesCSV(t *testing.T, l store.Layout, team string, rows ...string) {
	t.Helper()
	content := "team_name,user_login,role\n"
	for _, r := range rows {
		content += r + "\n"
	}
	require.NoError(t, store.WriteFileAtomic(l.RolesCSV(team), []byte(content)))
}

func TestLoad(t *testing.T) {
	l := seedOrg(t, t.TempDir())

	d, err := Load(l)
	require.NoError(t, err)

	assert.Equal(t, "acme-corp", d.Org)
	assert.Equal(t, []string{"acme-tools", "docs", "platform-eng"}, d.Teams)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, d.Members)

	require.Contains(t, d.Roles, "platform-eng")
	assert.Equal(t, "maintainer", d.Roles["platform-eng"]["alice"])
	assert.Equal(t, "member", d.Roles["platform-eng"]["bob"])

	// Header-only CSV loads as an empty team, not a missing one.
	roles, ok := d.Roles["acme-tools"]
	require.True(t, ok)
	assert.Empty(t, roles)

	assert.True(t, d.TeamMembers["platform-eng"]["bob"])
}

func TestLoadMissingCache(t *testing.T) {
	_, err := Load(store.New(t.TempDir(), "ghost-org"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run fetch first")
}

func TestRoleCells(t *testing.T) {
	d := &OrgData{
		Teams:   []string{"sre", "web"},
		Members: []string{"alice", "bob"},
		TeamMembers: map[string]map[string]bool{
			"web": {"bob": true},
		},
		Roles: map[string]map[string]string{
			"sre": {"alice": "maintainer", "bob": "access_denied"},
		},
	}

	assert.Equal(t, "maintainer", d.Role("sre", "alice"))
	assert.Equal(t, "?", d.Role("sre", "bob"))
	assert.Equal(t, "", d.Role("sre", "carol"))

	// No roles cached for web, membership known from the txt list.
	assert.Equal(t, "?", d.Role("web", "bob"))
	assert.Equal(t, "", d.Role("web", "alice"))
}

func TestMatrixCSV(t *testing.T) {
	l := seedOrg(t, t.TempDir())
	d, err := Load(l)
	require.NoError(t, err)

	out, err := MatrixCSV(d)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, []string{"member", "acme-tools", "docs", "platform-eng"}, records[0])
	assert.Equal(t, []string{"alice", "", "member", "maintainer"}, records[1])
	assert.Equal(t, []string{"bob", "", "", "member"}, records[2])
	assert.Equal(t, []string{"carol", "", "", ""}, records[3])
	assert.Equal(t, []string{"dave", "", "", ""}, records[4])
}

func TestMatrixIncludesNonOrgLogins(t *testing.T) {
	l := seedOrg(t, t.TempDir())
	writeRolesCSV(t, l, "docs",
		"docs,alice,member",
		"docs,zed,member")

	d, err := Load(l)
	require.NoError(t, err)

	out, err := MatrixCSV(d)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"zed", "", "member", ""}, records[5])
}

func TestSummaryMD(t *testing.T) {
	l := seedOrg(t, t.TempDir())
	d, err := Load(l)
	require.NoError(t, err)

	generated := time.Date(2026, 8, 21, 15, 30, 4, 0, time.UTC)
	updated := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	got := string(SummaryMD(d, generated, updated))

	assert.Contains(t, got, "# Team Summary: acme-corp")
	assert.Contains(t, got, "**Generated:** 2026-08-21 15:30:04")
	assert.Contains(t, got, "- **Teams:** 3")
	assert.Contains(t, got, "- **Organization members:** 4")
	assert.Contains(t, got, "- **Members in at least one team:** 2 (50.0% coverage)")
	assert.Contains(t, got, "- **Members in multiple teams:** 1")
	assert.Contains(t, got, "- **Maintainers:** 1")
	assert.Contains(t, got, "- **Last updated:** 2026-08-20 09:00:00")

	assert.Contains(t, got, "## Team Size Distribution")
	assert.Contains(t, got, "| platform-eng | 2 |")

	assert.Contains(t, got, "## Members in Multiple Teams")
	assert.Contains(t, got, "| alice | 2 |")

	assert.Contains(t, got, "- **Teams with no cached role data:** 0")
	assert.Contains(t, got, "- **Empty teams:** 1")
	assert.Contains(t, got, "- **Teams with access denied:** 0")
	assert.Contains(t, got, "- **Team names embedding the org name:** acme-tools")
	assert.Contains(t, got, "*Generated by ghtctl report*")
}

func TestSummaryDataQualityCounts(t *testing.T) {
	d := &OrgData{
		Org:         "widget-co",
		Teams:       []string{"locked", "uncached"},
		Members:     []string{"alice"},
		TeamMembers: map[string]map[string]bool{},
		Roles: map[string]map[string]string{
			"locked": {"alice": "access_denied"},
		},
	}

	got := string(SummaryMD(d, time.Now(), time.Time{}))

	assert.Contains(t, got, "- **Teams with no cached role data:** 1")
	assert.Contains(t, got, "- **Teams with access denied:** 1")
	assert.Contains(t, got, "- **Team names embedding the org name:** none")
	assert.NotContains(t, got, "- **Last updated:**")
}
