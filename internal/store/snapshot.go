// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"github.com/staranto/ghtctlgo/internal/cacheutil"
)

// Snapshots hold the previous generation of a cache artifact so the
// query commands can diff against it after a fetch overwrites the
// primary copy. They live in the user cache dir, not under the storage
// root, and honor GHTCTL_CACHE / GHTCTL_CACHE_DIR.

// SnapshotWrite saves data as the prior generation of an org resource.
func SnapshotWrite(org, resource string, data []byte) error {
	return cacheutil.Write([]string{org}, resource, data)
}

// SnapshotRead returns the prior generation of an org resource, if one
// was ever captured.
func SnapshotRead(org, resource string) ([]byte, bool) {
	entry, ok := cacheutil.Read([]string{org}, resource)
	if !ok {
		return nil, false
	}
	return entry.Data, true
}
