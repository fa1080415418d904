// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/aws"
	"github.com/staranto/ghtctlgo/internal/config"
	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/mirror"
	"github.com/staranto/ghtctlgo/internal/report"
)

// ReportCommandAction is the action handler for the "report" subcommand.
// It renders the matrix and summary reports from the cache for every
// selected org, archiving a copy when the content changed.
func ReportCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Bail out early if we're just dumping tldr.
	if ShortCircuitTLDR(ctx, cmd, "report") {
		return nil
	}

	orgs, err := resolveOrgs(cmd)
	if err != nil {
		return err
	}
	log.Debugf("orgs: %v", orgs)

	var mir *mirror.Mirror
	if cmd.Bool("mirror") {
		mir, err = newMirror(ctx)
		if err != nil {
			return err
		}
	}

	out := cmd.String("out")

	failed := 0
	for _, org := range orgs {
		w := report.Writer{Layout: layoutFor(m, org), Now: time.Now}
		if out != "" {
			w.OutDir = filepath.Join(out, org)
		}

		res, err := w.Write()
		if err != nil {
			log.Errorf("report failed for %s: %v", org, err)
			fmt.Printf("%s: report failed: %v\n", org, err)
			failed++
			continue
		}
		fmt.Printf("%s: %s\n", org, reportSummary(res))

		if mir != nil {
			n, err := mir.Push(ctx, org, w.Dir())
			if err != nil {
				log.Errorf("mirror failed for %s: %v", org, err)
				fmt.Printf("%s: mirror failed: %v\n", org, err)
				failed++
				continue
			}
			fmt.Printf("%s: mirrored %d files to s3://%s\n", org, n, mir.Bucket)
		}
	}

	if failed > 0 {
		return fmt.Errorf("report failed for %d of %d orgs", failed, len(orgs))
	}
	return nil
}

// reportSummary renders the per-org result line printed after a report.
func reportSummary(res report.Result) string {
	word := func(archived bool) string {
		if archived {
			return "archived"
		}
		return "unchanged"
	}
	return fmt.Sprintf("matrix %s, summary %s",
		word(res.MatrixArchived), word(res.SummaryArchived))
}

// newMirror builds the S3 mirror from the mirror.* config keys.
func newMirror(ctx context.Context) (*mirror.Mirror, error) {
	bucket, _ := config.GetString("mirror.bucket")
	if bucket == "" {
		return nil, errors.New("mirror.bucket is not set in ghtctl.yaml")
	}
	prefix, _ := config.GetString("mirror.prefix")
	profile, _ := config.GetString("mirror.profile")
	region, _ := config.GetString("mirror.region")

	cfg, err := aws.LoadAWSConfig(ctx, aws.WithProfile(profile), aws.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &mirror.Mirror{Client: aws.NewS3(cfg), Bucket: bucket, Prefix: prefix}, nil
}

// ReportCommandBuilder constructs the cli.Command for "report", wiring
// metadata, flags, and action/validator handlers.
func ReportCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "render the member/team reports from the cache",
		UsageText: `ghtctl report [RootDir] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "mirror",
				Usage: "push the reports to the configured S3 bucket",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "write reports under DIR/<org> instead of the storage tree",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("report.out", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
			NewOrgFlag("report", meta.Config.Source),
			tldrFlag,
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := ReportCommandValidator(ctx, c); err != nil {
				return err
			}
			return ReportCommandAction(ctx, c)
		},
	}
}

// ReportCommandValidator performs validation for "report" and delegates to
// GlobalFlagsValidator.
func ReportCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
