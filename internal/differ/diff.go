// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// JSONDiff renders an ascii diff of two JSON documents and reports
// whether they differ. gojsondiff only compares objects, so top-level
// arrays are wrapped under key first. An empty document is treated as
// an empty array.
func JSONDiff(before, after []byte, key string) (string, bool, error) {
	left := wrap(before, key)
	right := wrap(after, key)

	d, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return "", false, fmt.Errorf("failed to diff documents: %w", err)
	}
	if !d.Modified() {
		return "", false, nil
	}

	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return "", false, fmt.Errorf("failed to parse document: %w", err)
	}

	f := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       false,
	})
	out, err := f.Format(d)
	if err != nil {
		return "", false, fmt.Errorf("failed to format diff: %w", err)
	}

	return out, true, nil
}

func wrap(doc []byte, key string) []byte {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 {
		trimmed = []byte("[]")
	}
	if key == "" || trimmed[0] != '[' {
		return trimmed
	}

	var b bytes.Buffer
	b.WriteString(`{"`)
	b.WriteString(key)
	b.WriteString(`":`)
	b.Write(trimmed)
	b.WriteString(`}`)
	return b.Bytes()
}
