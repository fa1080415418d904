// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/csv"
	"sort"
)

// MatrixCSV renders the member/team role matrix. The first column is
// the member login, the rest are team slugs in sorted order.
func MatrixCSV(d *OrgData) ([]byte, error) {
	teams := append([]string{}, d.Teams...)
	sort.Strings(teams)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(append([]string{"member"}, teams...)); err != nil {
		return nil, err
	}

	for _, login := range d.AllLogins() {
		row := make([]string, 0, len(teams)+1)
		row = append(row, login)
		for _, team := range teams {
			row = append(row, d.Role(team, login))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()

	return buf.Bytes(), w.Error()
}
