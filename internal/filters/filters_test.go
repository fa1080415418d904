// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/staranto/ghtctlgo/internal/attrs"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
		wantCount int
	}{
		{
			name:      "empty spec",
			spec:      "",
			wantCount: 0,
		},
		{
			name:      "single exact match filter",
			spec:      "slug=platform-eng",
			wantCount: 1,
			want: []Filter{
				{Key: "slug", Operand: "=", Target: "platform-eng", Negate: false},
			},
		},
		{
			name:      "prefix match filter",
			spec:      "slug^platform-",
			wantCount: 1,
			want: []Filter{
				{Key: "slug", Operand: "^", Target: "platform-", Negate: false},
			},
		},
		{
			name:      "case insensitive filter",
			spec:      "privacy~CLOSED",
			wantCount: 1,
			want: []Filter{
				{Key: "privacy", Operand: "~", Target: "CLOSED", Negate: false},
			},
		},
		{
			name:      "negated exact match",
			spec:      "role!=maintainer",
			wantCount: 1,
			want: []Filter{
				{Key: "role", Operand: "=", Target: "maintainer", Negate: true},
			},
		},
		{
			name:      "negated prefix match",
			spec:      "slug!^ops-",
			wantCount: 1,
			want: []Filter{
				{Key: "slug", Operand: "^", Target: "ops-", Negate: true},
			},
		},
		{
			name:      "multiple filters",
			spec:      "privacy=closed,slug^platform-",
			wantCount: 2,
			want: []Filter{
				{Key: "privacy", Operand: "=", Target: "closed", Negate: false},
				{Key: "slug", Operand: "^", Target: "platform-", Negate: false},
			},
		},
		{
			name:      "greater than numeric",
			spec:      "members-count>5",
			wantCount: 1,
			want: []Filter{
				{Key: "members-count", Operand: ">", Target: "5", Negate: false},
			},
		},
		{
			name:      "less than numeric",
			spec:      "members-count<10",
			wantCount: 1,
			want: []Filter{
				{Key: "members-count", Operand: "<", Target: "10", Negate: false},
			},
		},
		{
			name:      "contains operand",
			spec:      "name@eng",
			wantCount: 1,
			want: []Filter{
				{Key: "name", Operand: "@", Target: "eng", Negate: false},
			},
		},
		{
			name:      "regex operand",
			spec:      "login/^svc-.*",
			wantCount: 1,
			want: []Filter{
				{Key: "login", Operand: "/", Target: "^svc-.*", Negate: false},
			},
		},
		{
			name:      "invalid filter skipped",
			spec:      "privacy=closed,invalid-filter,slug^platform-",
			wantCount: 2,
			want: []Filter{
				{Key: "privacy", Operand: "=", Target: "closed", Negate: false},
				{Key: "slug", Operand: "^", Target: "platform-", Negate: false},
			},
		},
		{
			name:      "custom delimiter",
			spec:      "privacy=closed|slug^platform-",
			delimiter: "|",
			wantCount: 2,
			want: []Filter{
				{Key: "privacy", Operand: "=", Target: "closed", Negate: false},
				{Key: "slug", Operand: "^", Target: "platform-", Negate: false},
			},
		},
		{
			name:      "key with dots",
			spec:      "parent.slug=platform",
			wantCount: 1,
			want: []Filter{
				{Key: "parent.slug", Operand: "=", Target: "platform", Negate: false},
			},
		},
		{
			name:      "empty target",
			spec:      "description=",
			wantCount: 1,
			want: []Filter{
				{Key: "description", Operand: "=", Target: "", Negate: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv("GHTCTL_FILTER_DELIM", tt.delimiter)
			}

			got := BuildFilters(tt.spec)
			assert.Len(t, got, tt.wantCount)
			if tt.want != nil {
				for i, filter := range tt.want {
					assert.Equal(t, filter.Key, got[i].Key)
					assert.Equal(t, filter.Operand, got[i].Operand)
					assert.Equal(t, filter.Target, got[i].Target)
					assert.Equal(t, filter.Negate, got[i].Negate)
				}
			}
		})
	}
}

func TestCheckStringOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		filter Filter
		want   bool
	}{
		{
			name:   "exact match true",
			value:  "maintainer",
			filter: Filter{Operand: "=", Target: "maintainer", Negate: false},
			want:   true,
		},
		{
			name:   "exact match false",
			value:  "maintainer",
			filter: Filter{Operand: "=", Target: "member", Negate: false},
			want:   false,
		},
		{
			name:   "negated exact match true",
			value:  "maintainer",
			filter: Filter{Operand: "=", Target: "member", Negate: true},
			want:   true,
		},
		{
			name:   "negated exact match false",
			value:  "maintainer",
			filter: Filter{Operand: "=", Target: "maintainer", Negate: true},
			want:   false,
		},
		{
			name:   "prefix match true",
			value:  "platform-eng",
			filter: Filter{Operand: "^", Target: "platform-", Negate: false},
			want:   true,
		},
		{
			name:   "prefix match false",
			value:  "sre-tools",
			filter: Filter{Operand: "^", Target: "platform-", Negate: false},
			want:   false,
		},
		{
			name:   "case insensitive match true",
			value:  "CLOSED",
			filter: Filter{Operand: "~", Target: "closed", Negate: false},
			want:   true,
		},
		{
			name:   "case insensitive match false",
			value:  "closed-beta",
			filter: Filter{Operand: "~", Target: "closed", Negate: false},
			want:   false,
		},
		{
			name:   "contains true",
			value:  "platform-eng-leads",
			filter: Filter{Operand: "@", Target: "eng", Negate: false},
			want:   true,
		},
		{
			name:   "contains false",
			value:  "docs",
			filter: Filter{Operand: "@", Target: "eng", Negate: false},
			want:   false,
		},
		{
			name:   "negated contains true",
			value:  "docs",
			filter: Filter{Operand: "@", Target: "eng", Negate: true},
			want:   true,
		},
		{
			name:   "regex match true",
			value:  "svc-deploy-v2",
			filter: Filter{Operand: "/", Target: "^svc-.*-v\\d+$", Negate: false},
			want:   true,
		},
		{
			name:   "regex match false",
			value:  "deploy",
			filter: Filter{Operand: "/", Target: "^svc-.*", Negate: false},
			want:   false,
		},
		{
			name:   "negated regex match",
			value:  "deploy",
			filter: Filter{Operand: "/", Target: "^svc-.*", Negate: true},
			want:   true,
		},
		{
			name:   "greater than string true",
			value:  "z",
			filter: Filter{Operand: ">", Target: "a", Negate: false},
			want:   true,
		},
		{
			name:   "greater than string false",
			value:  "a",
			filter: Filter{Operand: ">", Target: "z", Negate: false},
			want:   false,
		},
		{
			name:   "less than string true",
			value:  "a",
			filter: Filter{Operand: "<", Target: "z", Negate: false},
			want:   true,
		},
		{
			name:   "invalid regex",
			value:  "platform",
			filter: Filter{Operand: "/", Target: "[invalid", Negate: false},
			want:   false,
		},
		{
			name:   "unsupported operand",
			value:  "platform",
			filter: Filter{Operand: "?", Target: "platform", Negate: false},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkStringOperand(tt.value, tt.filter)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckNumericOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		filter Filter
		want   bool
	}{
		{
			name:   "exact match true",
			value:  42,
			filter: Filter{Operand: "=", Target: "42", Negate: false},
			want:   true,
		},
		{
			name:   "exact match false",
			value:  42,
			filter: Filter{Operand: "=", Target: "40", Negate: false},
			want:   false,
		},
		{
			name:   "negated equal true",
			value:  42,
			filter: Filter{Operand: "=", Target: "40", Negate: true},
			want:   true,
		},
		{
			name:   "negated equal false",
			value:  42,
			filter: Filter{Operand: "=", Target: "42", Negate: true},
			want:   false,
		},
		{
			name:   "greater than true",
			value:  50,
			filter: Filter{Operand: ">", Target: "42", Negate: false},
			want:   true,
		},
		{
			name:   "greater than false",
			value:  42,
			filter: Filter{Operand: ">", Target: "50", Negate: false},
			want:   false,
		},
		{
			name:   "less than true",
			value:  42,
			filter: Filter{Operand: "<", Target: "50", Negate: false},
			want:   true,
		},
		{
			name:   "less than false",
			value:  50,
			filter: Filter{Operand: "<", Target: "42", Negate: false},
			want:   false,
		},
		{
			name:   "float value with integer target",
			value:  42.5,
			filter: Filter{Operand: ">", Target: "42", Negate: false},
			want:   true,
		},
		{
			name:   "invalid target",
			value:  42,
			filter: Filter{Operand: "=", Target: "invalid", Negate: false},
			want:   false,
		},
		{
			name:   "unsupported operand",
			value:  42,
			filter: Filter{Operand: "^", Target: "42", Negate: false},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkNumericOperand(tt.value, tt.filter)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckContainsOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		filter Filter
		want   bool
	}{
		{
			name:   "slice contains true",
			value:  []any{"alice", "bob", "carol"},
			filter: Filter{Operand: "@", Target: "bob", Negate: false},
			want:   true,
		},
		{
			name:   "slice contains false",
			value:  []any{"alice", "bob", "carol"},
			filter: Filter{Operand: "@", Target: "dave", Negate: false},
			want:   false,
		},
		{
			name:   "slice not contains true",
			value:  []any{"alice", "bob", "carol"},
			filter: Filter{Operand: "@", Target: "dave", Negate: true},
			want:   true,
		},
		{
			name:   "slice not contains false",
			value:  []any{"alice", "bob", "carol"},
			filter: Filter{Operand: "@", Target: "bob", Negate: true},
			want:   false,
		},
		{
			name:   "map key exists true",
			value:  map[string]any{"pull": true, "push": true},
			filter: Filter{Operand: "@", Target: "pull", Negate: false},
			want:   true,
		},
		{
			name:   "map key exists false",
			value:  map[string]any{"pull": true, "push": true},
			filter: Filter{Operand: "@", Target: "admin", Negate: false},
			want:   false,
		},
		{
			name:   "map key not exists true",
			value:  map[string]any{"pull": true, "push": true},
			filter: Filter{Operand: "@", Target: "admin", Negate: true},
			want:   true,
		},
		{
			name:   "map key not exists false",
			value:  map[string]any{"pull": true, "push": true},
			filter: Filter{Operand: "@", Target: "pull", Negate: true},
			want:   false,
		},
		{
			name:   "unsupported type",
			value:  123,
			filter: Filter{Operand: "@", Target: "pull", Negate: false},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkContainsOperand(tt.value, tt.filter)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   float64
		wantOk bool
	}{
		{
			name:   "float64",
			value:  42.5,
			want:   42.5,
			wantOk: true,
		},
		{
			name:   "float32",
			value:  float32(42.5),
			want:   42.5,
			wantOk: true,
		},
		{
			name:   "int",
			value:  42,
			want:   42,
			wantOk: true,
		},
		{
			name:   "int64",
			value:  int64(42),
			want:   42,
			wantOk: true,
		},
		{
			name:   "uint32",
			value:  uint32(42),
			want:   42,
			wantOk: true,
		},
		{
			name:   "int8",
			value:  int8(10),
			want:   10,
			wantOk: true,
		},
		{
			name:   "int16",
			value:  int16(100),
			want:   100,
			wantOk: true,
		},
		{
			name:   "int32",
			value:  int32(1000),
			want:   1000,
			wantOk: true,
		},
		{
			name:   "uint",
			value:  uint(42),
			want:   42,
			wantOk: true,
		},
		{
			name:   "uint8",
			value:  uint8(50),
			want:   50,
			wantOk: true,
		},
		{
			name:   "uint16",
			value:  uint16(500),
			want:   500,
			wantOk: true,
		},
		{
			name:   "uint64",
			value:  uint64(5000),
			want:   5000,
			wantOk: true,
		},
		{
			name:   "string",
			value:  "42",
			want:   0,
			wantOk: false,
		},
		{
			name:   "nil",
			value:  nil,
			want:   0,
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat64(tt.value)
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestApplyFilters(t *testing.T) {
	testData := `
	{
		"id": 9812,
		"name": "Platform Engineering",
		"slug": "platform-eng",
		"privacy": "closed",
		"members_count": 5,
		"maintainers": ["alice", "bob"],
		"permissions": {"pull": true},
		"description": null,
		"parent": {"slug": "platform"}
	}
	`

	attrList := attrs.AttrList{
		{Key: "name", OutputKey: "name", Include: true},
		{Key: "slug", OutputKey: "slug", Include: true},
		{Key: "privacy", OutputKey: "privacy", Include: true},
		{Key: "members_count", OutputKey: "members_count", Include: true},
		{Key: "description", OutputKey: "description", Include: true},
		{Key: "parent", OutputKey: "parent", Include: true},
	}

	tests := []struct {
		name    string
		filters []Filter
		want    bool
	}{
		{
			name:    "no filters",
			filters: []Filter{},
			want:    true,
		},
		{
			name: "single filter match",
			filters: []Filter{
				{Key: "slug", Operand: "=", Target: "platform-eng", Negate: false},
			},
			want: true,
		},
		{
			name: "single filter no match",
			filters: []Filter{
				{Key: "slug", Operand: "=", Target: "sre", Negate: false},
			},
			want: false,
		},
		{
			name: "multiple filters all match",
			filters: []Filter{
				{Key: "slug", Operand: "=", Target: "platform-eng", Negate: false},
				{Key: "privacy", Operand: "^", Target: "clo", Negate: false},
			},
			want: true,
		},
		{
			name: "multiple filters one fails",
			filters: []Filter{
				{Key: "slug", Operand: "=", Target: "platform-eng", Negate: false},
				{Key: "privacy", Operand: "^", Target: "sec", Negate: false},
			},
			want: false,
		},
		{
			name: "native filter ignored",
			filters: []Filter{
				{Key: "_native_filter", Operand: "=", Target: "value", Negate: false},
			},
			want: true,
		},
		{
			name: "missing attribute key continues",
			filters: []Filter{
				{Key: "nonexistent", Operand: "=", Target: "value", Negate: false},
			},
			want: true,
		},
		{
			name: "numeric comparison",
			filters: []Filter{
				{Key: "members_count", Operand: ">", Target: "3", Negate: false},
			},
			want: true,
		},
		{
			name: "null value filter fails",
			filters: []Filter{
				{Key: "description", Operand: "=", Target: "value", Negate: false},
			},
			want: false,
		},
		{
			name: "unsupported type with equals operator passes",
			filters: []Filter{
				{Key: "parent", Operand: "=", Target: "value", Negate: false},
			},
			want: true,
		},
		{
			name: "unsupported type with contains operator uses checkContainsOperand",
			filters: []Filter{
				{Key: "parent", Operand: "@", Target: "slug", Negate: false},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gjson.Parse(testData)
			got := applyFilters(result, attrList, tt.filters)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterDataset(t *testing.T) {
	testData := `
	[
		{
			"id": 1,
			"slug": "platform-eng",
			"privacy": "closed"
		},
		{
			"id": 2,
			"slug": "docs",
			"privacy": "secret"
		},
		{
			"id": 3,
			"slug": "platform-sre",
			"privacy": "closed"
		}
	]
	`

	attrList := attrs.AttrList{
		{Key: "slug", OutputKey: "slug", Include: true},
		{Key: "privacy", OutputKey: "privacy", Include: true},
	}

	tests := []struct {
		name      string
		spec      string
		wantCount int
		wantSlugs []string
	}{
		{
			name:      "no filters",
			spec:      "",
			wantCount: 3,
			wantSlugs: []string{"platform-eng", "docs", "platform-sre"},
		},
		{
			name:      "prefix filter",
			spec:      "slug^platform-",
			wantCount: 2,
			wantSlugs: []string{"platform-eng", "platform-sre"},
		},
		{
			name:      "exact match filter",
			spec:      "slug=docs",
			wantCount: 1,
			wantSlugs: []string{"docs"},
		},
		{
			name:      "no matches",
			spec:      "slug=nonexistent",
			wantCount: 0,
		},
		{
			name:      "multiple filters",
			spec:      "privacy=closed,slug@eng",
			wantCount: 1,
			wantSlugs: []string{"platform-eng"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := gjson.Parse(testData)
			got := FilterDataset(candidates, attrList, tt.spec)
			assert.Len(t, got, tt.wantCount)
			for i, expected := range tt.wantSlugs {
				assert.Equal(t, expected, got[i]["slug"])
			}
		})
	}
}
