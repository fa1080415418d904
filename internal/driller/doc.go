// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package driller resolves dotted key paths against raw JSON documents
// for the filter and output engines.
package driller
