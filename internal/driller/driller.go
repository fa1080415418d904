// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Driller resolves path against doc and returns the gjson result.
// Path segments are separated by dots. A segment may carry an explicit
// index (teams[2]). A segment that lands on a one-element array without
// an index descends into that element, so teams.name works whether the
// payload was wrapped or not. An unresolvable path returns a zero
// Result whose Exists() is false.
func Driller(doc, path string) gjson.Result {
	current := gjson.Parse(doc)

	for _, seg := range strings.Split(path, ".") {
		key := seg
		idx := -1

		if i := strings.IndexByte(seg, '['); i >= 0 && strings.HasSuffix(seg, "]") {
			n, err := strconv.Atoi(seg[i+1 : len(seg)-1])
			if err != nil {
				return gjson.Result{}
			}
			key = seg[:i]
			idx = n
		}

		current = current.Get(key)
		if !current.Exists() {
			return current
		}

		if idx >= 0 {
			if !current.IsArray() {
				return gjson.Result{}
			}
			arr := current.Array()
			if idx >= len(arr) {
				return gjson.Result{}
			}
			current = arr[idx]
			continue
		}

		if current.IsArray() {
			if arr := current.Array(); len(arr) == 1 {
				current = arr[0]
			}
		}
	}

	return current
}
