// Package parser turns pasted or uploaded tabular data into a DataTable.
package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/certstudio/backend/internal/models"
)

var (
	// ErrEmptyInput is returned when there is no header row.
	ErrEmptyInput = errors.New("no data rows found")
	// ErrUnsupportedFormat is returned when no parser accepts a file.
	ErrUnsupportedFormat = errors.New("unsupported data format")
)

const (
	firstNameHeader = "first name"
	lastNameHeader  = "last name"
)

// Parser reads one tabular file format.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// CanParse reports whether the parser handles a file with this name and
	// leading bytes.
	CanParse(fileName string, head []byte) bool
	// Parse reads the whole input.
	Parse(r io.ReaderAt, size int64) (*models.DataTable, error)
}

// BuildTable converts raw records into a DataTable. The first record is the
// header row. Cells are trimmed and missing cells read as empty. A
// case-insensitive "First Name" and "Last Name" pair is merged into Name and
// both are dropped from the returned headers.
func BuildTable(records [][]string) (*models.DataTable, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	first, last := -1, -1
	for i, h := range headers {
		switch strings.ToLower(h) {
		case firstNameHeader:
			if first < 0 {
				first = i
			}
		case lastNameHeader:
			if last < 0 {
				last = i
			}
		}
	}
	merge := first >= 0 && last >= 0

	table := &models.DataTable{
		OriginalHeaders: headers,
		Rows:            make([]map[string]string, 0, len(records)-1),
		OriginalRows:    make([][]string, 0, len(records)-1),
	}
	for _, h := range headers {
		lower := strings.ToLower(h)
		if lower == firstNameHeader || lower == lastNameHeader {
			continue
		}
		table.Headers = append(table.Headers, h)
	}

	for _, rec := range records[1:] {
		cells := make([]string, len(headers))
		for i := range headers {
			if i < len(rec) {
				cells[i] = strings.TrimSpace(rec[i])
			}
		}
		row := make(map[string]string, len(headers)+1)
		if merge {
			row[models.NameColumn] = cells[first] + " " + cells[last]
		}
		for i, h := range headers {
			lower := strings.ToLower(h)
			if lower == firstNameHeader || lower == lastNameHeader {
				continue
			}
			row[h] = cells[i]
		}
		table.Rows = append(table.Rows, row)
		table.OriginalRows = append(table.OriginalRows, cells)
	}
	return table, nil
}
