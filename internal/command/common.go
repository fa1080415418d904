// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"

	"github.com/apex/log"
	"github.com/hashicorp/jsonapi"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ghtctlgo/internal/attrs"
	"github.com/staranto/ghtctlgo/internal/config"
	"github.com/staranto/ghtctlgo/internal/differ"
	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/output"
	"github.com/staranto/ghtctlgo/internal/store"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr ghtctl <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "ghtctl", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the JSON schema for the provided type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema("", t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// EmitJSONAPISlice marshals a slice as JSONAPI and passes it to the common
// output routine. An optional PostProcess hook runs after filtering.
func EmitJSONAPISlice(results any, al attrs.AttrList, cmd *cli.Command, post ...output.PostProcess) error {
	var raw bytes.Buffer
	if err := jsonapi.MarshalPayload(&raw, results); err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	var p output.PostProcess
	if len(post) > 0 {
		p = post[0]
	}
	output.SliceDiceSpit(raw, al, cmd, "data", os.Stdout, p)
	return nil
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// QueryCommandBuilder is a helper that constructs a cli.Command for query
// subcommands (tq, mq, rq, oq, status) using a consistent pattern.
// It accepts the command name, usage text, optional UsageText, custom flags,
// the action handler, and meta. The builder automatically wires metadata,
// adds tldr/schema flags, applies global flags, and sets up validators.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: append(qcb.Flags, append([]cli.Flag{
			tldrFlag,
			schemaFlag,
		}, NewGlobalFlags(qcb.Name)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: qcb.Action,
	}
}

// QueryActionRunner[T] encapsulates the common query action pattern for all
// query subcommands. It handles steps 1-3 and 5 (GetMeta, short-circuit
// checks, BuildAttrs, and output emission), with step 4 (loading the
// cached data) provided by FetchFn.
type QueryActionRunner[T any] struct {
	CommandName  string
	SchemaType   reflect.Type
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command) ([]T, error)
}

// Run executes the query action with the provided context and command.
func (qar *QueryActionRunner[T]) Run(
	ctx context.Context,
	cmd *cli.Command,
) error {
	// Step 1: GetMeta + debug.
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	// Step 2: Short-circuit checks.
	if ShortCircuitTLDR(ctx, cmd, qar.CommandName) {
		return nil
	}
	if DumpSchemaIfRequested(cmd, qar.SchemaType) {
		return nil
	}

	// Step 3: BuildAttrs + debug.
	attrs := BuildAttrs(cmd, qar.DefaultAttrs...)
	log.Debugf("attrs: %v", attrs)

	// Step 4: Fetch data.
	results, err := qar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}

	// Step 5: Emit + return.
	if err := EmitJSONAPISlice(results, attrs, cmd); err != nil {
		return err
	}
	return nil
}

// ShortCircuitDiff handles --diff for the query commands: compare the
// previous fetch's snapshot against the current cache file and print
// the result. Returns true when --diff was handled.
func ShortCircuitDiff(cmd *cli.Command, org, resource, path, wrap string) (bool, error) {
	if !cmd.Bool("diff") {
		return false, nil
	}

	before, ok := store.SnapshotRead(org, resource)
	if !ok {
		return true, fmt.Errorf("no previous generation of %s for %s to diff against", resource, org)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		return true, fmt.Errorf("no cached %s for %s, run fetch first: %w", resource, org, err)
	}

	out, modified, err := differ.JSONDiff(before, after, wrap)
	if err != nil {
		return true, err
	}
	if !modified {
		fmt.Println("no differences")
		return true, nil
	}

	fmt.Print(out)
	return true, nil
}

// resolveOrgs returns the orgs a command should operate on: the --org
// flag when set, otherwise github.organizations (or the single
// github.organization) from the config file.
func resolveOrgs(cmd *cli.Command) ([]string, error) {
	if org := cmd.String("org"); org != "" {
		return []string{org}, nil
	}

	if orgs, err := config.GetStringSlice("github.organizations"); err == nil && len(orgs) > 0 {
		return orgs, nil
	}

	if org, err := config.GetString("github.organization"); err == nil && org != "" {
		return []string{org}, nil
	}

	return nil, errors.New("no organization specified: use --org or set github.organizations in ghtctl.yaml")
}

// resolveOrg is resolveOrgs for single-org commands; extra configured
// orgs are ignored beyond the first.
func resolveOrg(cmd *cli.Command) (string, error) {
	orgs, err := resolveOrgs(cmd)
	if err != nil {
		return "", err
	}
	return orgs[0], nil
}

// rootDir is the directory holding storage/: the RootDir positional when
// one was given, else storage.root from the config, else the CWD.
func rootDir(m meta.Meta) string {
	if m.RootDir != "" && m.RootDir != m.StartingDir {
		return m.RootDir
	}
	if root, err := config.GetString("storage.root"); err == nil && root != "" {
		return root
	}
	return m.StartingDir
}

func layoutFor(m meta.Meta, org string) store.Layout {
	return store.New(rootDir(m), org)
}
