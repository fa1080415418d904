// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/store"
)

// TqCommandAction is the action handler for the "tq" subcommand. It queries
// the cached team list, supports --tldr/--schema short-circuits and --diff
// against the previous fetch, and emits results per common flags.
func TqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "tq") {
		return nil
	}

	org, err := resolveOrg(cmd)
	if err != nil {
		return err
	}
	layout := layoutFor(m, org)

	// Short circuit --diff mode.
	if handled, err := ShortCircuitDiff(cmd, org, "all_teams.json", layout.TeamsJSON(), "teams"); handled {
		return err
	}

	// Bail out early if we're just dumping the schema.
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(github.Team{})) {
		return nil
	}

	attrs := BuildAttrs(cmd, ".id", "slug", "members-count")
	log.Debugf("attrs: %v", attrs)

	results, err := cachedTeams(layout)
	if err != nil {
		return err
	}

	if err := EmitJSONAPISlice(results, attrs, cmd); err != nil {
		return err
	}

	return nil
}

// cachedTeams loads the org's team list from the cache.
func cachedTeams(layout store.Layout) ([]*github.Team, error) {
	doc, err := os.ReadFile(layout.TeamsJSON())
	if err != nil {
		return nil, fmt.Errorf("no cached teams for %s, run fetch first: %w", layout.Org, err)
	}

	var teams []github.Team
	if err := json.Unmarshal(doc, &teams); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", layout.TeamsJSON(), err)
	}

	results := make([]*github.Team, len(teams))
	for i := range teams {
		results[i] = &teams[i]
	}
	return results, nil
}

// TqCommandBuilder constructs the cli.Command for "tq", wiring metadata,
// flags, and action/validator handlers.
func TqCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "tq",
		Usage:     "team query",
		UsageText: `ghtctl tq [RootDir] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			diffFlag,
			NewOrgFlag("tq", meta.Config.Source),
			tldrFlag,
			schemaFlag,
		}, NewGlobalFlags("tq")...),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := TqCommandValidator(ctx, c); err != nil {
				return err
			}
			return TqCommandAction(ctx, c)
		},
	}
}

// TqCommandValidator performs validation for "tq" and delegates to
// GlobalFlagsValidator.
func TqCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
