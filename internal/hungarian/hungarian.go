// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package hungarian flags names that redundantly embed their parent scope,
// like an acme-platform team inside the acme-corp org. The summary report
// uses it to call out naming debt.
package hungarian

import (
	"regexp"
	"strings"
)

// IsHungarian returns true if any component of the scope (split by '-' or
// '_') appears in the name. Matching is case-insensitive and checks both
// substring containment and token equality when the name is split by
// non-alphanumeric chars.
func IsHungarian(scope string, name string) bool {
	if scope == "" || name == "" {
		return false
	}

	scopeLower := strings.ToLower(scope)
	nameLower := strings.ToLower(name)

	// tokens from the scope, e.g. "acme-corp" -> ["acme","corp"]
	splitRe := regexp.MustCompile(`[^a-z0-9]+`)
	scopeTokens := splitRe.Split(scopeLower, -1)

	// nameParts are tokens from the name split by non-alphanumeric separators
	// e.g. "acme_platform.eng" -> ["acme","platform","eng"]
	nameParts := splitRe.Split(nameLower, -1)

	for _, tok := range scopeTokens {
		if tok == "" {
			continue
		}

		// 1) If the token appears as a whole name part, it's a match.
		for _, p := range nameParts {
			if p == tok {
				return true
			}
		}

		// 2) Also treat any substring occurrence as a match (covers
		//    cases like "acmeplatform" or "team-acme-web"). Tokens
		//    shorter than 3 chars match too often to be meaningful,
		//    e.g. "co" inside "code-review".
		if len(tok) >= 3 && strings.Contains(nameLower, tok) {
			return true
		}
	}

	return false
}
