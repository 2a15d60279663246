package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/model"
)

var (
	// ErrNoHeader is returned when a grid has no header row
	ErrNoHeader = errors.New("no header row found")
	// ErrHeaderMismatch is returned when a header mapping does not line up with the header row
	ErrHeaderMismatch = errors.New("header mapping does not match header row")
)

// ReadTable decodes a JSON array of row objects
func ReadTable(r io.Reader) (model.Table, error) {
	var table model.Table
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	if table == nil {
		table = model.Table{}
	}
	return table, nil
}

// ReadTables decodes a JSON object holding the three entity tables under
// "clients", "workers" and "tasks". Missing tables decode as empty.
func ReadTables(r io.Reader) (model.Tables, error) {
	var tables model.Tables
	if err := json.NewDecoder(r).Decode(&tables); err != nil {
		return model.Tables{}, fmt.Errorf("failed to decode tables: %w", err)
	}
	for _, kind := range model.EntityKinds {
		if tables.Get(kind) == nil {
			tables = tables.With(kind, model.Table{})
		}
	}
	return tables, nil
}

// ReadTablesFile reads a tables document from disk
func ReadTablesFile(path string) (model.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Tables{}, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	return ReadTables(f)
}

// ReadGrid decodes a JSON array of rows, each an array of cells with the header
// row first. This is the shape of a spreadsheet range.
func ReadGrid(r io.Reader) ([][]interface{}, error) {
	var grid [][]interface{}
	if err := json.NewDecoder(r).Decode(&grid); err != nil {
		return nil, fmt.Errorf("failed to decode grid: %w", err)
	}
	return grid, nil
}

// Headers returns the trimmed header row of a grid
func Headers(grid [][]interface{}) ([]string, error) {
	if len(grid) == 0 {
		return nil, ErrNoHeader
	}

	headers := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		if s, ok := cell.(string); ok {
			headers[i] = strings.TrimSpace(s)
		} else if cell != nil {
			headers[i] = strings.TrimSpace(fmt.Sprint(cell))
		}
	}
	return headers, nil
}

// FromGrid converts a header row plus value rows into a Table.
// mapped, when non-nil, renames the header row position by position.
// Columns with a blank header are dropped, fully blank rows are skipped and
// short rows are padded with empty strings. When two columns map to the same
// name the leftmost wins.
func FromGrid(grid [][]interface{}, mapped []string) (model.Table, error) {
	headers, err := Headers(grid)
	if err != nil {
		return nil, err
	}
	if mapped != nil {
		if len(mapped) != len(headers) {
			return nil, fmt.Errorf("%w: %d names for %d columns", ErrHeaderMismatch, len(mapped), len(headers))
		}
		headers = mapped
	}

	columns := make(map[int]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		columns[i] = h
	}

	table := make(model.Table, 0, len(grid)-1)
	for _, values := range grid[1:] {
		if isBlank(values) {
			continue
		}

		row := make(model.Row, len(columns))
		for i, name := range columns {
			if i < len(values) && values[i] != nil {
				row[name] = values[i]
			} else {
				row[name] = ""
			}
		}
		table = append(table, row)
	}

	return table, nil
}

func isBlank(values []interface{}) bool {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
