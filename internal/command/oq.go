// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"path/filepath"
	"reflect"

	humanize "github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/metadata"
	"github.com/staranto/ghtctlgo/internal/store"
)

// orgRow is one line of the org inventory.
type orgRow struct {
	Org       string `jsonapi:"primary,orgs"`
	Teams     int    `jsonapi:"attr,teams"`
	Members   int    `jsonapi:"attr,members"`
	Roles     int    `jsonapi:"attr,roles"`
	LastFetch string `jsonapi:"attr,last-fetch"`
	Size      string `jsonapi:"attr,size"`
}

// OqCommandAction is the action handler for the "oq" subcommand. It lists
// every org present in the storage tree with its cache counts, last fetch
// time and on-disk size.
func OqCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	runner := &QueryActionRunner[*orgRow]{
		CommandName:  "oq",
		SchemaType:   reflect.TypeOf(orgRow{}),
		DefaultAttrs: []string{".id:org", "teams", "members", "last-fetch", "size"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*orgRow, error) {
			return orgInventory(rootDir(m))
		},
	}
	return runner.Run(ctx, cmd)
}

// orgInventory builds one row per org directory under the storage root.
func orgInventory(root string) ([]*orgRow, error) {
	orgs, err := store.Orgs(root)
	if err != nil {
		return nil, err
	}

	rows := make([]*orgRow, 0, len(orgs))
	for _, org := range orgs {
		layout := store.New(root, org)
		row := &orgRow{Org: org, LastFetch: "never"}

		if names, err := store.ReadLines(layout.TeamNames()); err == nil {
			row.Teams = len(names)
		}
		if names, err := store.ReadLines(layout.OrgMemberNames()); err == nil {
			row.Members = len(names)
		}
		row.Roles = countFiles(layout.RolesDir(), ".csv")

		if lu, err := metadata.ReadLastUpdate(layout); err == nil && !lu.UpdatedAt.IsZero() {
			row.LastFetch = humanize.Time(lu.UpdatedAt)
		}
		row.Size = humanize.Bytes(uint64(dirSize(layout.CacheDir())))

		rows = append(rows, row)
	}
	return rows, nil
}

func countFiles(dir, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			n++
		}
	}
	return n
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// OqCommandBuilder constructs the cli.Command for "oq", configuring metadata,
// flags, and the associated action/validator.
func OqCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "oq",
		Usage:     "org inventory query",
		UsageText: `ghtctl oq [RootDir] [options]`,
		Action:    OqCommandAction,
		Meta:      meta,
	}).Build()
}
