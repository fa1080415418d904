// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/output"
	"github.com/staranto/ghtctlgo/internal/store"
)

// MqCommandAction is the action handler for the "mq" subcommand. It queries
// the cached org member list, or one team's member list with --team, and
// supports --diff against the previous fetch.
func MqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "mq") {
		return nil
	}

	org, err := resolveOrg(cmd)
	if err != nil {
		return err
	}
	layout := layoutFor(m, org)

	team := cmd.String("team")

	// Short circuit --diff mode. Snapshots only exist for the org-level
	// member list.
	if cmd.Bool("diff") && team != "" {
		return errors.New("--diff cannot be combined with --team")
	}
	if handled, err := ShortCircuitDiff(cmd, org, "all_members.json", layout.OrgMembersJSON(), "members"); handled {
		return err
	}

	// Bail out early if we're just dumping the schema.
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(github.Member{})) {
		return nil
	}

	attrs := BuildAttrs(cmd, ".id", "login", "type")
	log.Debugf("attrs: %v", attrs)

	path := layout.OrgMembersJSON()
	if team != "" {
		path = layout.MembersJSON(team)
	}

	results, err := cachedMembers(layout, path)
	if err != nil {
		return err
	}

	// Bot accounts are rarely interesting in membership listings.
	var post output.PostProcess
	if cmd.Bool("humans") {
		post = humansOnly
	}

	if err := EmitJSONAPISlice(results, attrs, cmd, post); err != nil {
		return err
	}

	return nil
}

// humansOnly drops rows whose type is anything but User.
func humansOnly(rows []map[string]interface{}) []map[string]interface{} {
	kept := rows[:0]
	for _, row := range rows {
		if row["type"] == "User" {
			kept = append(kept, row)
		}
	}
	return kept
}

// cachedMembers loads a member list from the cache.
func cachedMembers(layout store.Layout, path string) ([]*github.Member, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no cached members for %s, run fetch first: %w", layout.Org, err)
	}

	var members []github.Member
	if err := json.Unmarshal(doc, &members); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	results := make([]*github.Member, len(members))
	for i := range members {
		results[i] = &members[i]
	}
	return results, nil
}

// MqCommandBuilder constructs the cli.Command for "mq", wiring metadata,
// flags, and action/validator handlers.
func MqCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "mq",
		Usage:     "member query",
		UsageText: `ghtctl mq [RootDir] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			diffFlag,
			&cli.BoolFlag{
				Name:  "humans",
				Usage: "only human accounts (type=User)",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("mq.humans", altsrc.StringSourcer(meta.Config.Source)),
				),
				Value: false,
			},
			&cli.StringFlag{
				Name:  "team",
				Usage: "query one team's members instead of the org's",
			},
			NewOrgFlag("mq", meta.Config.Source),
			tldrFlag,
			schemaFlag,
		}, NewGlobalFlags("mq")...),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := MqCommandValidator(ctx, c); err != nil {
				return err
			}
			return MqCommandAction(ctx, c)
		},
	}
}

// MqCommandValidator performs validation for "mq" and delegates to
// GlobalFlagsValidator.
func MqCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
