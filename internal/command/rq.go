// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"reflect"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/report"
)

// RqCommandAction is the action handler for the "rq" subcommand. It flattens
// the cached roles CSVs into one row per (team, member) pair.
func RqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	runner := &QueryActionRunner[*github.Membership]{
		CommandName:  "rq",
		SchemaType:   reflect.TypeOf(github.Membership{}),
		DefaultAttrs: []string{"team-name", "user-login", "role"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) (
			[]*github.Membership,
			error,
		) {
			org, err := resolveOrg(cmd)
			if err != nil {
				return nil, err
			}

			d, err := report.Load(layoutFor(m, org))
			if err != nil {
				return nil, err
			}
			return membershipRows(d), nil
		},
	}
	return runner.Run(ctx, cmd)
}

// membershipRows flattens the per-team role maps into sorted rows.
func membershipRows(d *report.OrgData) []*github.Membership {
	teams := make([]string, 0, len(d.Roles))
	for team := range d.Roles {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	var rows []*github.Membership
	for _, team := range teams {
		logins := make([]string, 0, len(d.Roles[team]))
		for login := range d.Roles[team] {
			logins = append(logins, login)
		}
		sort.Strings(logins)

		for _, login := range logins {
			rows = append(rows, &github.Membership{
				ID:    team + ":" + login,
				Team:  team,
				Login: login,
				Role:  d.Roles[team][login],
			})
		}
	}
	return rows
}

// RqCommandBuilder constructs the cli.Command definition for the "rq" command,
// wiring flags, metadata, and the action/validator handlers.
func RqCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "rq",
		Usage:     "role query",
		UsageText: `ghtctl rq [RootDir] [options]`,
		Flags: []cli.Flag{
			NewOrgFlag("rq", meta.Config.Source),
		},
		Action: RqCommandAction,
		Meta:   meta,
	}).Build()
}
