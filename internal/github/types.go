// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package github talks to the GitHub API by shelling out to the gh CLI.
// All authentication is gh's problem; we only parse what it prints.
package github

// Team is one org team as returned by /orgs/{org}/teams.
type Team struct {
	ID           int64  `json:"id" jsonapi:"primary,teams"`
	Name         string `json:"name" jsonapi:"attr,name"`
	Slug         string `json:"slug" jsonapi:"attr,slug"`
	Description  string `json:"description" jsonapi:"attr,description"`
	Privacy      string `json:"privacy" jsonapi:"attr,privacy"`
	Permission   string `json:"permission" jsonapi:"attr,permission"`
	MembersCount int    `json:"members_count" jsonapi:"attr,members-count"`
}

// Member is one account as returned by the members endpoints.
type Member struct {
	ID        int64  `json:"id" jsonapi:"primary,members"`
	Login     string `json:"login" jsonapi:"attr,login"`
	Type      string `json:"type" jsonapi:"attr,type"`
	SiteAdmin bool   `json:"site_admin" jsonapi:"attr,site-admin"`
}

// Role values recorded in the members-with-roles CSVs. access_denied and
// unknown are bookkeeping states, not real GitHub roles.
const (
	RoleMaintainer   = "maintainer"
	RoleMember       = "member"
	RoleAccessDenied = "access_denied"
	RoleUnknown      = "unknown"
)

// Membership pairs a login with its role on a specific team. This is the
// flattened row shape used by the roles CSVs and the rq command.
type Membership struct {
	ID    string `json:"id" jsonapi:"primary,memberships"`
	Team  string `json:"team_name" jsonapi:"attr,team-name"`
	Login string `json:"user_login" jsonapi:"attr,user-login"`
	Role  string `json:"role" jsonapi:"attr,role"`
}
