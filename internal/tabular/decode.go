// Package tabular decodes spreadsheet exports into header-keyed rows.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Row maps a raw header to the cell value found under it.
type Row = map[string]interface{}

// Supported reports whether path has an extension DecodeFile understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// DecodeFile reads the first sheet (or the whole CSV) of path. The first
// non-empty row is the header; blank rows are skipped.
func DecodeFile(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return decodeCSV(path)
	case ".xlsx", ".xlsm":
		return decodeXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// recordBuilder turns positional records into header-keyed rows.
type recordBuilder struct {
	header []string
	rows   []Row
}

func (b *recordBuilder) add(record []string) {
	if isBlank(record) {
		return
	}
	if b.header == nil {
		b.header = make([]string, len(record))
		seen := make(map[string]struct{}, len(record))
		for i, h := range record {
			h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			if _, dup := seen[h]; dup {
				h = ""
			}
			seen[h] = struct{}{}
			b.header[i] = h
		}
		return
	}

	row := make(Row, len(b.header))
	for i, h := range b.header {
		if h == "" {
			continue
		}
		if i < len(record) {
			row[h] = strings.TrimSpace(record[i])
		} else {
			row[h] = ""
		}
	}
	b.rows = append(b.rows, row)
}

func (b *recordBuilder) result() []Row {
	if b.rows == nil {
		return []Row{}
	}
	return b.rows
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
