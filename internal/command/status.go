// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/metadata"
	"github.com/staranto/ghtctlgo/internal/store"
)

// resourceRow is one cached artifact's freshness line.
type resourceRow struct {
	Resource string `jsonapi:"primary,resources"`
	Updated  string `jsonapi:"attr,updated"`
	Age      string `jsonapi:"attr,age"`
	Fresh    string `jsonapi:"attr,fresh"`
	Checksum string `jsonapi:"attr,checksum"`
}

// usageRow is one recorded fetch run from api_usage.yaml.
type usageRow struct {
	RunID     string `jsonapi:"primary,runs"`
	Timestamp string `jsonapi:"attr,timestamp"`
	Operation string `jsonapi:"attr,operation"`
	Calls     int    `jsonapi:"attr,calls"`
}

// StatusCommandAction is the action handler for the "status" subcommand.
// It reports per-artifact freshness from the checksums metadata, or the
// API usage history with --usage.
func StatusCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	if cmd.Bool("usage") {
		runner := &QueryActionRunner[*usageRow]{
			CommandName:  "status",
			SchemaType:   reflect.TypeOf(usageRow{}),
			DefaultAttrs: []string{"timestamp", "operation", "calls"},
			FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*usageRow, error) {
				org, err := resolveOrg(cmd)
				if err != nil {
					return nil, err
				}
				return usageRows(layoutFor(m, org))
			},
		}
		return runner.Run(ctx, cmd)
	}

	runner := &QueryActionRunner[*resourceRow]{
		CommandName:  "status",
		SchemaType:   reflect.TypeOf(resourceRow{}),
		DefaultAttrs: []string{".id:resource", "updated", "age", "fresh", "checksum"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*resourceRow, error) {
			org, err := resolveOrg(cmd)
			if err != nil {
				return nil, err
			}
			ttl := time.Duration(cmd.Int("ttl")) * time.Hour
			return statusRows(layoutFor(m, org), ttl)
		},
	}
	return runner.Run(ctx, cmd)
}

// statusRows builds one row per tracked artifact, newest metadata wins.
func statusRows(layout store.Layout, ttl time.Duration) ([]*resourceRow, error) {
	cs, err := metadata.ReadChecksums(layout)
	if err != nil {
		return nil, fmt.Errorf("no checksums metadata for %s, run fetch first: %w", layout.Org, err)
	}

	keys := make([]string, 0, len(cs.Files))
	for k := range cs.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]*resourceRow, 0, len(keys))
	for _, key := range keys {
		row := &resourceRow{
			Resource: key,
			Checksum: cs.Files[key],
			Updated:  "missing",
			Fresh:    "no",
		}

		path := resourcePath(layout, key)
		if info, err := os.Stat(path); err == nil {
			row.Updated = info.ModTime().Local().Format("2006-01-02 15:04:05")
			row.Age = humanize.Time(info.ModTime())
			if store.Fresh(path, ttl) {
				row.Fresh = "yes"
			}
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// resourcePath maps a checksums key back to its on-disk location. Report
// keys live in the reports tree, everything else under the cache dir.
func resourcePath(layout store.Layout, key string) string {
	if strings.HasPrefix(key, "reports/") {
		rest := strings.TrimPrefix(key, "reports/")
		return filepath.Join(layout.ReportsDir(), filepath.FromSlash(rest))
	}
	return filepath.Join(layout.CacheDir(), filepath.FromSlash(key))
}

// usageRows lists the recorded fetch runs, newest first.
func usageRows(layout store.Layout) ([]*usageRow, error) {
	usage, err := metadata.ReadUsage(layout)
	if err != nil {
		return nil, fmt.Errorf("no usage metadata for %s, run fetch first: %w", layout.Org, err)
	}

	rows := make([]*usageRow, 0, len(usage.Runs))
	for i := len(usage.Runs) - 1; i >= 0; i-- {
		r := usage.Runs[i]
		rows = append(rows, &usageRow{
			RunID:     r.RunID,
			Timestamp: r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			Operation: r.Operation,
			Calls:     r.Calls,
		})
	}
	return rows, nil
}

// StatusCommandBuilder constructs the cli.Command for "status", wiring
// metadata, flags, and action/validator handlers.
func StatusCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "status",
		Usage:     "cache metadata report",
		UsageText: `ghtctl status [RootDir] [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "usage",
				Usage: "show the API usage history instead",
				Value: false,
			},
			NewOrgFlag("status", meta.Config.Source),
			NewTTLFlag("status"),
		},
		Action: StatusCommandAction,
		Meta:   meta,
	}).Build()
}
