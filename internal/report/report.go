// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package report renders the member/team artifacts for one organization
// from its cached storage tree. Nothing here touches the network; a
// missing cache is an error, not a trigger to fetch.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/apex/log"

	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/store"
)

// OrgData is the cached view of one organization. Roles holds one map
// per team that has a roles CSV; an absent key means the roles were
// never cached, while an empty map means the team really is empty.
type OrgData struct {
	Org         string
	Teams       []string
	Members     []string
	TeamMembers map[string]map[string]bool
	Roles       map[string]map[string]string
}

// Load reads the cached organization data under layout.
func Load(layout store.Layout) (*OrgData, error) {
	teams, err := store.ReadLines(layout.TeamNames())
	if err != nil {
		return nil, fmt.Errorf("no cached teams for %s, run fetch first: %w", layout.Org, err)
	}

	members, err := store.ReadLines(layout.OrgMemberNames())
	if err != nil {
		return nil, fmt.Errorf("no cached members for %s, run fetch first: %w", layout.Org, err)
	}

	d := &OrgData{
		Org:         layout.Org,
		Teams:       teams,
		Members:     members,
		TeamMembers: map[string]map[string]bool{},
		Roles:       map[string]map[string]string{},
	}

	for _, team := range teams {
		if logins, err := store.ReadLines(layout.MembersTxt(team)); err == nil {
			set := make(map[string]bool, len(logins))
			for _, l := range logins {
				set[l] = true
			}
			d.TeamMembers[team] = set
		}

		roles, err := readRoles(layout.RolesCSV(team))
		if err != nil {
			log.Debugf("no roles cached for %s/%s: %v", layout.Org, team, err)
			continue
		}
		d.Roles[team] = roles
	}

	return d, nil
}

// Role returns the matrix cell for login in team. Known roles pass
// through, anything unresolved renders as ? and non-membership as the
// empty string.
func (d *OrgData) Role(team, login string) string {
	if roles, ok := d.Roles[team]; ok {
		role, in := roles[login]
		if !in {
			return ""
		}
		switch role {
		case github.RoleMaintainer, github.RoleMember:
			return role
		default:
			return "?"
		}
	}

	if d.TeamMembers[team][login] {
		return "?"
	}
	return ""
}

// AllLogins returns every login known to the org, sorted. Org members
// plus anyone seen inside a team, so the matrix never drops a row.
func (d *OrgData) AllLogins() []string {
	seen := map[string]bool{}
	for _, l := range d.Members {
		seen[l] = true
	}
	for _, members := range d.TeamMembers {
		for l := range members {
			seen[l] = true
		}
	}
	for _, roles := range d.Roles {
		for l := range roles {
			seen[l] = true
		}
	}

	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)

	return out
}

// teamLogins is the membership of team, preferring the roles CSV and
// falling back to the plain member list when roles were never cached.
func (d *OrgData) teamLogins(team string) map[string]bool {
	if roles, ok := d.Roles[team]; ok {
		set := make(map[string]bool, len(roles))
		for l := range roles {
			set[l] = true
		}
		return set
	}
	return d.TeamMembers[team]
}

func readRoles(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	roles := map[string]string{}
	for i, rec := range records {
		// Row 0 is the team_name,user_login,role header.
		if i == 0 || len(rec) < 3 {
			continue
		}
		roles[rec[1]] = rec[2]
	}

	return roles, nil
}
