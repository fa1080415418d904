// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGHNotFound means the gh executable is not on PATH.
	ErrGHNotFound = errors.New("gh executable not found")

	// ErrAccessDenied means gh reached the API but the token lacks the
	// rights for the endpoint (HTTP 403, admin-only team endpoints).
	ErrAccessDenied = errors.New("access denied")

	// ErrRateLimited means the API rate limit was exhausted and retries
	// did not recover.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNotFound means the org or team does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")
)

// ErrorContext carries enough request detail to turn a raw gh failure
// into a message a human can act on.
type ErrorContext struct {
	Host      string
	Org       string
	Team      string
	Operation string
	Resource  string
}

// FriendlyGH wraps err with remediation hints based on what we were doing
// when gh failed. The original error stays in the chain for errors.Is.
func FriendlyGH(err error, ec ErrorContext) error {
	if err == nil {
		return nil
	}

	host := ec.Host
	if host == "" {
		host = "github.com"
	}

	var hint string
	switch {
	case errors.Is(err, ErrGHNotFound):
		hint = "install the GitHub CLI (https://cli.github.com) and run 'gh auth login'"
	case errors.Is(err, ErrAccessDenied):
		target := ec.Org
		if ec.Team != "" {
			target = ec.Org + "/" + ec.Team
		}
		hint = fmt.Sprintf("the current gh token cannot read %s on %s; team role queries need org admin or team maintainer rights", target, host)
	case errors.Is(err, ErrRateLimited):
		hint = fmt.Sprintf("the %s API rate limit is exhausted; wait for the reset or authenticate with a higher-limit token", host)
	case errors.Is(err, ErrNotFound):
		hint = fmt.Sprintf("verify the %s %q exists on %s and is visible to the current token", ec.Resource, ec.Org, host)
	default:
		hint = "run with GHTCTL_LOG=debug for the full gh invocation"
	}

	return fmt.Errorf("failed to %s for %s: %w (%s)", ec.Operation, ec.Org, err, hint)
}

// classify maps gh stderr text onto our sentinel errors. gh does not give
// structured errors, so this is string matching on known phrasings.
func classify(stderr string) error {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "rate limit") || strings.Contains(s, "http 429"):
		return ErrRateLimited
	case strings.Contains(s, "http 403") || strings.Contains(s, "must have admin rights"):
		return ErrAccessDenied
	case strings.Contains(s, "http 404") || strings.Contains(s, "not found"):
		return ErrNotFound
	default:
		return nil
	}
}

// retryable failure classes drive the backoff schedule in CLISource.api.
func isRateLimited(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "rate limit") || strings.Contains(s, "http 429")
}

func isNetworkFailure(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "timeout") || strings.Contains(s, "connection")
}

// firstLine trims stderr down to something loggable.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
