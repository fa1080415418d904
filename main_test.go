// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/ghtctlgo/internal/config"
)

// pointConfig writes a ghtctl.yaml with the given content and points
// GHTCTL_CFG at it, forcing a reload.
func pointConfig(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ghtctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("GHTCTL_CFG", path)
	config.Config = config.Type{}
}

func TestMangleArgumentsConfiguredRootCreated(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-yet", "storage-home")
	pointConfig(t, "storage:\n  root: "+root+"\n")

	args := mangleArguments([]string{"ghtctl", "tq"})

	require.Len(t, args, 3)
	assert.Equal(t, root, args[2])

	// The configured root is usable before any fetch has run.
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMangleArgumentsUnusableRootFallsBack(t *testing.T) {
	// A path beneath a regular file cannot be created.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	pointConfig(t, "storage:\n  root: "+filepath.Join(blocker, "sub")+"\n")

	args := mangleArguments([]string{"ghtctl", "tq"})

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, cwd, args[2])
}

func TestMangleArgumentsExplicitRootWins(t *testing.T) {
	configured := filepath.Join(t.TempDir(), "from-config")
	pointConfig(t, "storage:\n  root: "+configured+"\n")

	explicit := t.TempDir()
	args := mangleArguments([]string{"ghtctl", "tq", explicit})

	require.Len(t, args, 3)
	assert.Equal(t, explicit, args[2])
}
