// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/fetch"
	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/meta"
)

// FetchCommandAction is the action handler for the "fetch" subcommand. It
// refreshes the cached teams, members and roles for every selected org,
// then prints a one-line summary per org.
func FetchCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "fetch") {
		return nil
	}

	orgs, err := resolveOrgs(cmd)
	if err != nil {
		return err
	}
	log.Debugf("orgs: %v", orgs)

	source := github.NewCLISource(cmd.String("host"), cmd.Int("retries"))

	opts := fetch.Options{
		TTL:       time.Duration(cmd.Int("ttl")) * time.Hour,
		Force:     cmd.Bool("force"),
		TeamsOnly: cmd.Bool("teams-only"),
	}

	results := fetch.FetchOrgs(ctx, source, rootDir(m), orgs, opts)

	failed := 0
	for _, r := range results {
		fmt.Println(fetchSummary(r))
		if r.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("fetch failed for %d of %d orgs", failed, len(results))
	}
	return nil
}

// fetchSummary renders the per-org result line printed after a fetch.
func fetchSummary(r fetch.OrgResult) string {
	if r.Err != nil {
		return fmt.Sprintf("%s: fetch failed: %v", r.Org, r.Err)
	}

	s := r.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d teams", r.Org, s.Teams)
	if s.TeamsFresh {
		b.WriteString(" (cached)")
	}
	fmt.Fprintf(&b, ", %d members", s.Members)
	if s.MembersFresh {
		b.WriteString(" (cached)")
	}
	fmt.Fprintf(&b, ", roles %d fetched/%d cached", s.RolesFetched, s.RolesSkipped)
	if s.Orphans > 0 {
		fmt.Fprintf(&b, ", %d orphans removed", s.Orphans)
	}
	if len(s.Failed) > 0 {
		fmt.Fprintf(&b, ", failed: %s", strings.Join(s.Failed, ","))
	}
	fmt.Fprintf(&b, ", %d calls in %s", s.Calls, s.Duration.Round(time.Millisecond))
	return b.String()
}

// FetchCommandBuilder constructs the cli.Command for "fetch", wiring
// metadata, flags, and action/validator handlers.
func FetchCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "refresh the local team and member cache",
		UsageText: `ghtctl fetch [RootDir] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "refetch even when the cache is fresh",
				Value: false,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "retry attempts for failed gh calls",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("fetch.retries", altsrc.StringSourcer(meta.Config.Source)),
					yaml.YAML("api.max_retries", altsrc.StringSourcer(meta.Config.Source)),
				),
				Value: github.DefaultMaxRetries,
			},
			&cli.BoolFlag{
				Name:  "teams-only",
				Usage: "skip member and role fetches",
				Value: false,
			},
			NewHostFlag("fetch", meta.Config.Source),
			NewOrgFlag("fetch", meta.Config.Source),
			NewTTLFlag("fetch"),
			tldrFlag,
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := FetchCommandValidator(ctx, c); err != nil {
				return err
			}
			return FetchCommandAction(ctx, c)
		},
	}
}

// FetchCommandValidator performs validation for "fetch" and delegates to
// GlobalFlagsValidator.
func FetchCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
