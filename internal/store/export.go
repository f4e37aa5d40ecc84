// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportFormat selects the history export encoding.
type ExportFormat string

const (
	FormatYAML ExportFormat = "yaml"
	FormatJSON ExportFormat = "json"
)

// exportLimit caps an export to something larger than any real history.
const exportLimit = 100000

// ExportHistory writes the history records selected by q to w. A zero
// Limit exports everything rather than one page.
func ExportHistory(ctx context.Context, h History, q HistoryQuery, format ExportFormat, w io.Writer) error {
	if q.Limit <= 0 {
		q.Limit = exportLimit
	}
	records, err := h.List(ctx, q)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	var data []byte
	switch format {
	case FormatYAML, "":
		data, err = yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	case FormatJSON:
		data, err = json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown export format %q: use yaml or json", format)
	}

	_, err = w.Write(data)
	return err
}
