// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"time"

	"github.com/apex/log"
)

// TeamDataSource is what the fetcher needs from GitHub. The production
// implementation shells out to gh; tests supply canned data.
type TeamDataSource interface {
	Teams(ctx context.Context, org string) ([]Team, error)
	OrgMembers(ctx context.Context, org string) ([]Member, error)
	TeamMembers(ctx context.Context, org, slug string) ([]Member, error)
	TeamMembersByRole(ctx context.Context, org, slug, role string) ([]Member, error)
}

// Runner executes one gh invocation and returns stdout, stderr and the
// process error. Swappable so tests never fork.
type Runner func(ctx context.Context, args []string) ([]byte, string, error)

// CLISource implements TeamDataSource on top of the gh CLI.
type CLISource struct {
	// Host routes calls to a GitHub Enterprise instance. Empty means
	// github.com.
	Host string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Run overrides the gh process launcher. nil means the real thing.
	Run Runner

	// sleep overrides the retry pause in tests.
	sleep func(context.Context, time.Duration) error

	calls int
}

// DefaultMaxRetries matches the api.max_retries config default.
const DefaultMaxRetries = 3

func NewCLISource(host string, maxRetries int) *CLISource {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &CLISource{Host: host, MaxRetries: maxRetries}
}

// Calls reports how many gh invocations this source has made, including
// retries. Recorded into api_usage.yaml after a fetch.
func (s *CLISource) Calls() int {
	return s.calls
}

func (s *CLISource) Teams(ctx context.Context, org string) ([]Team, error) {
	raw, err := s.api(ctx, fmt.Sprintf("orgs/%s/teams", url.PathEscape(org)))
	if err != nil {
		return nil, err
	}
	return decodePages[Team](raw)
}

func (s *CLISource) OrgMembers(ctx context.Context, org string) ([]Member, error) {
	raw, err := s.api(ctx, fmt.Sprintf("orgs/%s/members", url.PathEscape(org)))
	if err != nil {
		return nil, err
	}
	return decodePages[Member](raw)
}

func (s *CLISource) TeamMembers(ctx context.Context, org, slug string) ([]Member, error) {
	raw, err := s.api(ctx, fmt.Sprintf("orgs/%s/teams/%s/members",
		url.PathEscape(org), url.PathEscape(slug)))
	if err != nil {
		return nil, err
	}
	return decodePages[Member](raw)
}

// TeamMembersByRole filters the members endpoint by role (member or
// maintainer). GitHub only honors the filter for tokens with team
// visibility, so callers must treat ErrAccessDenied as a soft failure.
func (s *CLISource) TeamMembersByRole(ctx context.Context, org, slug, role string) ([]Member, error) {
	raw, err := s.api(ctx, fmt.Sprintf("orgs/%s/teams/%s/members?role=%s",
		url.PathEscape(org), url.PathEscape(slug), url.QueryEscape(role)))
	if err != nil {
		return nil, err
	}
	return decodePages[Member](raw)
}

// api runs gh api <path> --paginate with retries. Access and existence
// failures surface immediately; rate limits and transient failures back
// off and try again.
func (s *CLISource) api(ctx context.Context, path string) ([]byte, error) {
	args := []string{"api", path, "--paginate"}
	if s.Host != "" {
		args = append(args, "--hostname", s.Host)
	}

	run := s.Run
	if run == nil {
		run = ghRunner
	}

	attempts := s.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		stdout, stderr, err := run(ctx, args)
		s.calls++

		if err == nil {
			return stdout, nil
		}
		if errors.Is(err, ErrGHNotFound) {
			return nil, err
		}

		// 403/404 won't get better with retries. Rate limits also come
		// back as 403, so classify() checks those first.
		if cls := classify(stderr); errors.Is(cls, ErrAccessDenied) || errors.Is(cls, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", cls, firstLine(stderr))
		}

		if isRateLimited(stderr) {
			lastErr = fmt.Errorf("%w: %s", ErrRateLimited, firstLine(stderr))
		} else {
			lastErr = fmt.Errorf("gh api %s failed: %w: %s", path, err, firstLine(stderr))
		}

		if attempt == attempts-1 {
			break
		}

		wait := backoffFor(stderr, attempt)
		log.Warnf("gh api %s failed (attempt %d/%d), retrying in %s: %s",
			path, attempt+1, attempts, wait, firstLine(stderr))
		if err := s.pause(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (s *CLISource) pause(ctx context.Context, d time.Duration) error {
	if s.sleep != nil {
		return s.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// backoffFor picks the wait before the next attempt. Rate limits double
// from a minute up to a five minute ceiling. Network blips grow linearly.
// Anything else gets a short flat pause.
func backoffFor(stderr string, attempt int) time.Duration {
	switch {
	case isRateLimited(stderr):
		secs := 60 * (1 << attempt)
		if secs > 300 { //nolint:mnd
			secs = 300
		}
		return time.Duration(secs) * time.Second
	case isNetworkFailure(stderr):
		return time.Duration(5*(attempt+1)) * time.Second //nolint:mnd
	default:
		return 2 * time.Second //nolint:mnd
	}
}

// ghRunner is the real Runner. gh inherits the environment, so auth and
// GH_HOST behave exactly as they do interactively.
func ghRunner(ctx context.Context, args []string) ([]byte, string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGHNotFound, err)
	}

	cmd := exec.CommandContext(ctx, "gh", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("exec: gh %v", args)
	err := cmd.Run()
	return stdout.Bytes(), stderr.String(), err
}

// decodePages handles gh --paginate output, which is one JSON array per
// page concatenated back to back with no separator.
func decodePages[T any](raw []byte) ([]T, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	out := []T{}
	for {
		var page []T
		if err := dec.Decode(&page); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode gh output: %w", err)
		}
		out = append(out, page...)
	}
	return out, nil
}
