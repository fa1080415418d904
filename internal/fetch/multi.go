// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/staranto/ghtctlgo/internal/github"
	"github.com/staranto/ghtctlgo/internal/store"
)

// Options carries the per-run fetch knobs shared across orgs.
type Options struct {
	TTL       time.Duration
	Force     bool
	TeamsOnly bool
}

// OrgResult pairs an org with its fetch outcome.
type OrgResult struct {
	Org   string
	Stats Stats
	Err   error
}

// FetchOrgs refreshes each org in turn. A failing org is recorded and
// the loop moves on, so one bad org never starves the rest.
func FetchOrgs(ctx context.Context, source github.TeamDataSource, root string, orgs []string, opts Options) []OrgResult {
	results := make([]OrgResult, 0, len(orgs))

	for _, org := range orgs {
		f := &Fetcher{
			Source:    source,
			Layout:    store.New(root, org),
			TTL:       opts.TTL,
			Force:     opts.Force,
			TeamsOnly: opts.TeamsOnly,
		}

		stats, err := f.FetchAll(ctx)
		if err != nil {
			log.Errorf("fetch failed for %s: %v", org, err)
		}
		results = append(results, OrgResult{Org: org, Stats: stats, Err: err})
	}

	return results
}
