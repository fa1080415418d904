// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	keys         []string
	bodies       map[string]string
	contentTypes map[string]string
	err          error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	if f.bodies == nil {
		f.bodies = map[string]string{}
		f.contentTypes = map[string]string{}
	}
	f.keys = append(f.keys, *in.Key)
	f.bodies[*in.Key] = string(body)
	f.contentTypes[*in.Key] = *in.ContentType

	return &s3.PutObjectOutput{}, nil
}

func seedReports(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "member_team_matrix.csv"), []byte("member,docs\nalice,member\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.md"), []byte("# Team Summary\n"), 0o644))
	return dir
}

func TestPush(t *testing.T) {
	dir := seedReports(t)
	p := &fakePutter{}

	m := Mirror{Client: p, Bucket: "team-reports", Prefix: "ghtctl/"}

	n, err := m.Push(context.Background(), "acme-corp", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{
		"ghtctl/acme-corp/member_team_matrix.csv",
		"ghtctl/acme-corp/summary.md",
	}, p.keys)

	assert.Equal(t, "member,docs\nalice,member\n", p.bodies["ghtctl/acme-corp/member_team_matrix.csv"])
	assert.Equal(t, "text/csv", p.contentTypes["ghtctl/acme-corp/member_team_matrix.csv"])
	assert.Equal(t, "text/markdown", p.contentTypes["ghtctl/acme-corp/summary.md"])
}

func TestPushNoPrefix(t *testing.T) {
	dir := seedReports(t)
	p := &fakePutter{}

	m := Mirror{Client: p, Bucket: "team-reports"}

	_, err := m.Push(context.Background(), "acme-corp", dir)
	require.NoError(t, err)
	assert.Equal(t, "acme-corp/member_team_matrix.csv", p.keys[0])
}

func TestPushNestedDirs(t *testing.T) {
	dir := seedReports(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "history"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history", "summary_20260820_080000.md"), []byte("old"), 0o644))

	p := &fakePutter{}
	m := Mirror{Client: p, Bucket: "team-reports"}

	n, err := m.Push(context.Background(), "acme-corp", dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, p.keys, "acme-corp/history/summary_20260820_080000.md")
}

func TestPushUploadFailure(t *testing.T) {
	dir := seedReports(t)
	p := &fakePutter{err: fmt.Errorf("access denied")}

	m := Mirror{Client: p, Bucket: "team-reports"}

	_, err := m.Push(context.Background(), "acme-corp", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload")
}

func TestPushMissingDir(t *testing.T) {
	m := Mirror{Client: &fakePutter{}, Bucket: "team-reports"}

	_, err := m.Push(context.Background(), "acme-corp", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
