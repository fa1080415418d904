// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/cacheutil"
	"github.com/staranto/ghtctlgo/internal/differ"
	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/store"
)

// PurgeCommandAction is the action handler for the "purge" subcommand. It
// evicts stale snapshot-cache entries and, with --archives, prunes old
// report archives down to the N newest per report.
func PurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "purge") {
		return nil
	}

	hours := cmd.Int("hours")
	if hours > 0 {
		if err := cacheutil.Purge(hours); err != nil {
			return err
		}
		fmt.Printf("purged snapshot cache entries older than %dh\n", hours)
	}

	keep := cmd.Int("archives")
	if keep >= 0 {
		orgs := []string{cmd.String("org")}
		if orgs[0] == "" {
			var err error
			orgs, err = store.Orgs(rootDir(m))
			if err != nil {
				return err
			}
		}

		removed := 0
		for _, org := range orgs {
			layout := layoutFor(m, org)
			for _, path := range []string{layout.MatrixCSV(), layout.SummaryMD()} {
				pruned, err := differ.PruneArchives(path, keep)
				if err != nil {
					return err
				}
				removed += len(pruned)
			}
		}
		fmt.Printf("pruned %d report archives (keeping %d per report)\n", removed, keep)
	}

	return nil
}

// PurgeCommandBuilder constructs the cli.Command for "purge", wiring
// metadata, flags, and action/validator handlers.
func PurgeCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "purge",
		Usage:     "evict stale snapshots and old report archives",
		UsageText: `ghtctl purge [RootDir] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "archives",
				Usage: "keep only the N newest archives per report",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "hours",
				Usage: "evict snapshot cache entries older than this",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("purge.hours", altsrc.StringSourcer(meta.Config.Source)),
					yaml.YAML("cache.clean", altsrc.StringSourcer(meta.Config.Source)),
				),
				Value: 720,
			},
			NewOrgFlag("purge", meta.Config.Source),
			tldrFlag,
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := PurgeCommandValidator(ctx, c); err != nil {
				return err
			}
			return PurgeCommandAction(ctx, c)
		},
	}
}

// PurgeCommandValidator performs validation for "purge" and delegates to
// GlobalFlagsValidator.
func PurgeCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
