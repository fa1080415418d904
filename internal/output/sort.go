// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"sort"
	"strings"
)

type sortKey struct {
	key           string
	descending    bool
	caseSensitive bool
}

// SortDataset sorts rows in place per the comma separated spec. A key may
// be prefixed with - for descending order and ! for a case sensitive
// comparison. Numeric values compare numerically, everything else compares
// as strings. An empty spec leaves the dataset untouched.
func SortDataset(dataset []map[string]interface{}, spec string) {
	if spec == "" {
		return
	}

	//nolint:prealloc
	var keys []sortKey
	for _, k := range strings.Split(spec, ",") {
		k = strings.TrimSpace(k)

		sk := sortKey{}
		for {
			if strings.HasPrefix(k, "-") {
				sk.descending = true
				k = k[1:]
				continue
			}
			if strings.HasPrefix(k, "!") {
				sk.caseSensitive = true
				k = k[1:]
				continue
			}
			break
		}

		if k == "" {
			continue
		}
		sk.key = k
		keys = append(keys, sk)
	}

	if len(keys) == 0 {
		return
	}

	sort.SliceStable(dataset, func(i, j int) bool {
		for _, sk := range keys {
			cmp := compareValues(dataset[i][sk.key], dataset[j][sk.key], sk.caseSensitive)
			if cmp == 0 {
				continue
			}
			if sk.descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b interface{}, caseSensitive bool) int {
	an, aok := asFloat(a)
	bn, bok := asFloat(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}

	as := InterfaceToString(a)
	bs := InterfaceToString(b)
	if !caseSensitive {
		as = strings.ToLower(as)
		bs = strings.ToLower(bs)
	}
	return strings.Compare(as, bs)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
