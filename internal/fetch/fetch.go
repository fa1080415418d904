// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package fetch is the cache manager. It pulls team and member data
// through a TeamDataSource and lands it in the storage tree, skipping
// anything still fresh. One team-members call feeds both the member
// files and the roles CSV, so no endpoint is hit twice in a run.
package fetch

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/metadata"
	"github.com/staranto/ghtctlgo/internal/store"
)

// rolesThreshold is the fraction of a team's expected members a roles
// CSV must cover to be trusted.
const rolesThreshold = 0.95

// Fetcher refreshes the cache for one organization.
type Fetcher struct {
	Source    github.TeamDataSource
	Layout    store.Layout
	TTL       time.Duration
	Force     bool
	TeamsOnly bool
}

// Stats summarizes one org's fetch for the caller to print.
type Stats struct {
	Teams        int
	TeamsFresh   bool
	Members      int
	MembersFresh bool
	RolesFetched int
	RolesSkipped int
	Orphans      int
	Failed       []string
	Calls        int
	Duration     time.Duration
}

// FetchAll runs the full refresh: teams, orphan cleanup, org members,
// per-team roles, then metadata. Per-team failures are logged and
// skipped; a teams or org-members failure aborts the org.
func (f *Fetcher) FetchAll(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	teams, fresh, err := f.FetchTeams(ctx)
	if err != nil {
		return stats, err
	}
	stats.Teams = len(teams)
	stats.TeamsFresh = fresh

	orphans, err := f.CleanOrphans(teams)
	if err != nil {
		log.Warnf("orphan cleanup failed for %s: %v", f.Layout.Org, err)
	}
	stats.Orphans = orphans

	if !f.TeamsOnly {
		members, fresh, err := f.FetchOrgMembers(ctx)
		if err != nil {
			return stats, err
		}
		stats.Members = members
		stats.MembersFresh = fresh

		for _, team := range teams {
			skipped, err := f.FetchTeamRoles(ctx, team)
			if err != nil {
				log.Errorf("roles fetch failed for %s/%s: %v", f.Layout.Org, team.Slug, err)
				stats.Failed = append(stats.Failed, team.Slug)
				continue
			}
			if skipped {
				stats.RolesSkipped++
			} else {
				stats.RolesFetched++
			}
		}
	}

	f.recordMetadata(&stats, start)

	return stats, nil
}

// FetchTeams returns the org's teams, from cache when fresh. The bool
// reports whether the cache was used.
func (f *Fetcher) FetchTeams(ctx context.Context) ([]github.Team, bool, error) {
	path := f.Layout.TeamsJSON()

	if !f.Force && store.Fresh(path, f.TTL) {
		teams, err := readTeams(path)
		if err == nil {
			age, _ := store.Age(path)
			log.Debugf("teams cache fresh for %s (%d teams, %s old)", f.Layout.Org, len(teams), age.Round(time.Second))
			return teams, true, nil
		}
		log.Warnf("unreadable teams cache for %s, refetching: %v", f.Layout.Org, err)
	}

	teams, err := f.Source.Teams(ctx, f.Layout.Org)
	if err != nil {
		return nil, false, github.FriendlyGH(err, github.ErrorContext{
			Org:       f.Layout.Org,
			Operation: "fetch teams",
			Resource:  "teams",
		})
	}
	if teams == nil {
		teams = []github.Team{}
	}

	sort.Slice(teams, func(i, j int) bool { return teams[i].Slug < teams[j].Slug })

	data, err := json.MarshalIndent(teams, "", "  ")
	if err != nil {
		return nil, false, err
	}

	f.snapshotOnChange(path, "all_teams.json", data)

	if err := store.WriteFileAtomic(path, data); err != nil {
		return nil, false, err
	}

	slugs := make([]string, 0, len(teams))
	for _, t := range teams {
		slugs = append(slugs, t.Slug)
	}
	if err := store.WriteLines(f.Layout.TeamNames(), slugs); err != nil {
		return nil, false, err
	}

	return teams, false, nil
}

// FetchOrgMembers returns the org-wide member count, from cache when
// fresh.
func (f *Fetcher) FetchOrgMembers(ctx context.Context) (int, bool, error) {
	path := f.Layout.OrgMembersJSON()

	if !f.Force && store.Fresh(path, f.TTL) {
		members, err := readMembers(path)
		if err == nil {
			age, _ := store.Age(path)
			log.Debugf("org members cache fresh for %s (%d members, %s old)", f.Layout.Org, len(members), age.Round(time.Second))
			return len(members), true, nil
		}
		log.Warnf("unreadable members cache for %s, refetching: %v", f.Layout.Org, err)
	}

	members, err := f.Source.OrgMembers(ctx, f.Layout.Org)
	if err != nil {
		return 0, false, github.FriendlyGH(err, github.ErrorContext{
			Org:       f.Layout.Org,
			Operation: "fetch members",
			Resource:  "members",
		})
	}
	if members == nil {
		members = []github.Member{}
	}

	sort.Slice(members, func(i, j int) bool { return members[i].Login < members[j].Login })

	data, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return 0, false, err
	}

	f.snapshotOnChange(path, "all_members.json", data)

	if err := store.WriteFileAtomic(path, data); err != nil {
		return 0, false, err
	}

	logins := make([]string, 0, len(members))
	for _, m := range members {
		logins = append(logins, m.Login)
	}
	if err := store.WriteLines(f.Layout.OrgMemberNames(), logins); err != nil {
		return 0, false, err
	}

	return len(members), false, nil
}

// FetchTeamRoles refreshes one team's member files and roles CSV. The
// bool reports a fresh-cache skip. Inaccessible and empty teams cache a
// header-only CSV so they are not re-queried until the TTL lapses.
func (f *Fetcher) FetchTeamRoles(ctx context.Context, team github.Team) (bool, error) {
	path := f.Layout.RolesCSV(team.Slug)

	if !f.Force && store.Fresh(path, f.TTL) && validRoles(path, team.MembersCount) {
		age, _ := store.Age(path)
		log.Debugf("roles cache fresh for %s/%s (%s old)", f.Layout.Org, team.Slug, age.Round(time.Second))
		return true, nil
	}

	members, err := f.Source.TeamMembers(ctx, f.Layout.Org, team.Slug)
	if err != nil {
		if errors.Is(err, github.ErrAccessDenied) {
			log.Warnf("access denied listing %s/%s, caching empty roles", f.Layout.Org, team.Slug)
			return false, f.writeRoles(team.Slug, nil, nil)
		}
		return false, github.FriendlyGH(err, github.ErrorContext{
			Org:       f.Layout.Org,
			Team:      team.Slug,
			Operation: "fetch team members",
			Resource:  "members",
		})
	}
	if members == nil {
		members = []github.Member{}
	}

	sort.Slice(members, func(i, j int) bool { return members[i].Login < members[j].Login })

	data, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return false, err
	}
	if err := store.WriteFileAtomic(f.Layout.MembersJSON(team.Slug), data); err != nil {
		return false, err
	}

	logins := make([]string, 0, len(members))
	for _, m := range members {
		logins = append(logins, m.Login)
	}
	if err := store.WriteLines(f.Layout.MembersTxt(team.Slug), logins); err != nil {
		return false, err
	}

	if len(members) == 0 {
		return false, f.writeRoles(team.Slug, nil, nil)
	}

	roles := make(map[string]string, len(members))
	for _, m := range members {
		roles[m.Login] = github.RoleMember
	}

	maintainers, err := f.Source.TeamMembersByRole(ctx, f.Layout.Org, team.Slug, github.RoleMaintainer)
	switch {
	case errors.Is(err, github.ErrAccessDenied):
		log.Warnf("access denied reading roles for %s/%s", f.Layout.Org, team.Slug)
		for l := range roles {
			roles[l] = github.RoleAccessDenied
		}
	case err != nil:
		log.Warnf("maintainer lookup failed for %s/%s, roles unknown: %v", f.Layout.Org, team.Slug, err)
		for l := range roles {
			roles[l] = github.RoleUnknown
		}
	default:
		for _, m := range maintainers {
			roles[m.Login] = github.RoleMaintainer
		}
	}

	return false, f.writeRoles(team.Slug, members, roles)
}

// CleanOrphans removes per-team files for teams that no longer exist
// and returns how many files went.
func (f *Fetcher) CleanOrphans(teams []github.Team) (int, error) {
	keep := make(map[string]bool, len(teams))
	for _, t := range teams {
		keep[t.Slug] = true
	}

	removed := 0
	dirs := map[string]string{
		f.Layout.MembersJSONDir(): ".json",
		f.Layout.MembersTxtDir():  ".txt",
		f.Layout.RolesDir():       ".csv",
	}

	for dir, ext := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, err
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
				continue
			}
			slug := strings.TrimSuffix(e.Name(), ext)
			if keep[slug] {
				continue
			}
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return removed, err
			}
			log.Debugf("removed orphan %s", filepath.Join(dir, e.Name()))
			removed++
		}
	}

	return removed, nil
}

func (f *Fetcher) writeRoles(slug string, members []github.Member, roles map[string]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"team_name", "user_login", "role"}); err != nil {
		return err
	}
	for _, m := range members {
		if err := w.Write([]string{slug, m.Login, roles[m.Login]}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return store.WriteFileAtomic(f.Layout.RolesCSV(slug), buf.Bytes())
}

// snapshotOnChange stashes the previous generation of a cache file so
// the query commands can diff against it. Best effort.
func (f *Fetcher) snapshotOnChange(path, resource string, next []byte) {
	prev, err := os.ReadFile(path)
	if err != nil || bytes.Equal(prev, next) {
		return
	}
	if err := store.SnapshotWrite(f.Layout.Org, resource, prev); err != nil {
		log.Warnf("snapshot failed for %s: %v", resource, err)
	}
}

func (f *Fetcher) recordMetadata(stats *Stats, start time.Time) {
	stats.Duration = time.Since(start)
	if c, ok := f.Source.(interface{ Calls() int }); ok {
		stats.Calls = c.Calls()
	}

	runID := metadata.NewRunID()

	lu := metadata.LastUpdate{
		Org:       f.Layout.Org,
		RunID:     runID,
		UpdatedAt: time.Now().UTC(),
		Teams:     stats.Teams,
		Members:   stats.Members,
		Duration:  stats.Duration.Seconds(),
		Forced:    f.Force,
	}
	if err := metadata.WriteLastUpdate(f.Layout, lu); err != nil {
		log.Warnf("failed to write last_update for %s: %v", f.Layout.Org, err)
	}

	if err := metadata.RecordUsage(f.Layout, metadata.UsageRun{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Operation: "fetch",
		Calls:     stats.Calls,
	}); err != nil {
		log.Warnf("failed to record api usage for %s: %v", f.Layout.Org, err)
	}

	files, err := metadata.Collect(f.Layout)
	if err != nil {
		log.Warnf("failed to collect checksums for %s: %v", f.Layout.Org, err)
		return
	}
	if err := metadata.WriteChecksums(f.Layout, files); err != nil {
		log.Warnf("failed to write checksums for %s: %v", f.Layout.Org, err)
	}
}

// validRoles reports whether a cached roles CSV can be trusted. A
// header-only file is the negative cache for empty or denied teams.
// Otherwise the row count must cover most of the team unless every row
// is access_denied.
func validRoles(path string, expected int) bool {
	fh, err := os.Open(path)
	if err != nil {
		return false
	}
	defer fh.Close()

	records, err := csv.NewReader(fh).ReadAll()
	if err != nil || len(records) == 0 {
		return false
	}

	rows := records[1:]
	if len(rows) == 0 || expected <= 0 {
		return true
	}

	allDenied := true
	for _, rec := range rows {
		if len(rec) < 3 || rec[2] != github.RoleAccessDenied {
			allDenied = false
			break
		}
	}
	if allDenied {
		return true
	}

	return float64(len(rows))/float64(expected) >= rolesThreshold
}

func readTeams(path string) ([]github.Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var teams []github.Team
	if err := json.Unmarshal(data, &teams); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return teams, nil
}

func readMembers(path string) ([]github.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var members []github.Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return members, nil
}
