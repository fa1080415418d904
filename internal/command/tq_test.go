// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staranto/ghtctlgo/internal/store"
)

func TestCachedTeams_Missing(t *testing.T) {
	l := store.New(t.TempDir(), "acme-corp")
	_, err := cachedTeams(l)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "run fetch first")
	}
}

func TestCachedTeams_OrderPreserved(t *testing.T) {
	l := store.New(t.TempDir(), "acme-corp")
	doc := `[
		{"id": 10, "name": "B Team", "slug": "b-team", "members_count": 2},
		{"id": 20, "name": "A Team", "slug": "a-team", "members_count": 5}
	]`
	assert.NoError(t, store.WriteFileAtomic(l.TeamsJSON(), []byte(doc)))

	teams, err := cachedTeams(l)
	assert.NoError(t, err)
	if assert.Len(t, teams, 2) {
		// File order is API order; no re-sorting on load.
		assert.Equal(t, "b-team", teams[0].Slug)
		assert.Equal(t, int64(10), teams[0].ID)
		assert.Equal(t, 5, teams[1].MembersCount)
	}
}

func TestCachedTeams_BadJSON(t *testing.T) {
	l := store.New(t.TempDir(), "acme-corp")
	assert.NoError(t, store.WriteFileAtomic(l.TeamsJSON(), []byte(`{not json`)))

	_, err := cachedTeams(l)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to parse")
	}
}
