// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package util holds small helpers shared across commands.
package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// ParseRootDir validates an optional RootDir positional and returns its
// absolute path. RootDir is the directory that contains (or will contain)
// the storage/ tree.
func ParseRootDir(spec string) (string, error) {
	info, err := os.Stat(spec)
	if err != nil {
		return "", fmt.Errorf("failed to stat rootDir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("rootDir %s is not a directory", spec)
	}

	abs, err := filepath.Abs(spec)
	if err != nil {
		return "", fmt.Errorf("failed to resolve rootDir: %w", err)
	}

	return abs, nil
}
