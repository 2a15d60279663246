package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/schema"
)

// Header returns the CSV columns for a table: schema columns first, then any
// other column present in the rows, sorted by name
func Header(kind model.EntityKind, table model.Table) []string {
	header := schema.Columns(kind)

	known := make(map[string]bool, len(header))
	for _, col := range header {
		known[col] = true
	}

	extra := make(map[string]bool)
	for _, row := range table {
		for col := range row {
			if !known[col] {
				extra[col] = true
			}
		}
	}

	extras := make([]string, 0, len(extra))
	for col := range extra {
		extras = append(extras, col)
	}
	sort.Strings(extras)

	return append(header, extras...)
}

// WriteCSV writes one entity table as a header row followed by one line per row.
// Absent cells are written empty; nested values are written as compact JSON.
func WriteCSV(w io.Writer, kind model.EntityKind, table model.Table) error {
	header := Header(kind, table)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(header))
	for i, row := range table {
		for j, col := range header {
			record[j] = fields.CellString(row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
