// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/hungarian"
)

const (
	timeFormat = "2006-01-02 15:04:05"
	topCount   = 10
)

type orgStats struct {
	teamSizes   map[string]int
	teamsPer    map[string]int
	maintainers map[string]bool
	missing     int
	empty       int
	denied      int
	redundant   []string
}

func computeStats(d *OrgData) orgStats {
	s := orgStats{
		teamSizes:   map[string]int{},
		teamsPer:    map[string]int{},
		maintainers: map[string]bool{},
	}

	for _, team := range d.Teams {
		roles, hasRoles := d.Roles[team]
		logins := d.teamLogins(team)

		s.teamSizes[team] = len(logins)
		for l := range logins {
			s.teamsPer[l]++
		}

		switch {
		case !hasRoles:
			s.missing++
		case len(roles) == 0:
			s.empty++
		default:
			allDenied := true
			for l, role := range roles {
				if role == github.RoleMaintainer {
					s.maintainers[l] = true
				}
				if role != github.RoleAccessDenied {
					allDenied = false
				}
			}
			if allDenied {
				s.denied++
			}
		}

		if hungarian.IsHungarian(d.Org, team) {
			s.redundant = append(s.redundant, team)
		}
	}

	sort.Strings(s.redundant)

	return s
}

// SummaryMD renders the Markdown summary for one organization. The
// Generated and Last updated lines are the volatile ones the archive
// comparison normalizes away.
func SummaryMD(d *OrgData, generated, lastUpdated time.Time) []byte {
	s := computeStats(d)

	inAny := 0
	multi := 0
	for _, n := range s.teamsPer {
		inAny++
		if n > 1 {
			multi++
		}
	}

	coverage := 0.0
	if len(d.Members) > 0 {
		coverage = float64(inAny) / float64(len(d.Members)) * 100
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# Team Summary: %s\n\n", d.Org)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", generated.Format(timeFormat))

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- **Teams:** %d\n", len(d.Teams))
	fmt.Fprintf(&b, "- **Organization members:** %d\n", len(d.Members))
	fmt.Fprintf(&b, "- **Members in at least one team:** %d (%.1f%% coverage)\n", inAny, coverage)
	fmt.Fprintf(&b, "- **Members in multiple teams:** %d\n", multi)
	fmt.Fprintf(&b, "- **Maintainers:** %d\n", len(s.maintainers))
	if !lastUpdated.IsZero() {
		fmt.Fprintf(&b, "- **Last updated:** %s\n", lastUpdated.Format(timeFormat))
	}
	b.WriteString("\n")

	b.WriteString("## Team Size Distribution\n\n")
	writeRankTable(&b, "Team", "Members", s.teamSizes)

	b.WriteString("## Members in Multiple Teams\n\n")
	multiPer := map[string]int{}
	for l, n := range s.teamsPer {
		if n > 1 {
			multiPer[l] = n
		}
	}
	writeRankTable(&b, "Member", "Teams", multiPer)

	b.WriteString("## Data Quality\n\n")
	fmt.Fprintf(&b, "- **Teams with no cached role data:** %d\n", s.missing)
	fmt.Fprintf(&b, "- **Empty teams:** %d\n", s.empty)
	fmt.Fprintf(&b, "- **Teams with access denied:** %d\n", s.denied)
	if len(s.redundant) > 0 {
		fmt.Fprintf(&b, "- **Team names embedding the org name:** %s\n", strings.Join(s.redundant, ", "))
	} else {
		b.WriteString("- **Team names embedding the org name:** none\n")
	}

	b.WriteString("\n---\n\n*Generated by ghtctl report*\n")

	return []byte(b.String())
}

// writeRankTable emits a two-column Markdown table of the top entries
// by count, ties broken by name.
func writeRankTable(b *strings.Builder, nameCol, countCol string, counts map[string]int) {
	if len(counts) == 0 {
		b.WriteString("None.\n\n")
		return
	}

	type row struct {
		name  string
		count int
	}
	rows := make([]row, 0, len(counts))
	for name, count := range counts {
		rows = append(rows, row{name, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].name < rows[j].name
	})
	if len(rows) > topCount {
		rows = rows[:topCount]
	}

	fmt.Fprintf(b, "| %s | %s |\n", nameCol, countCol)
	b.WriteString("|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %d |\n", r.name, r.count)
	}
	b.WriteString("\n")
}
