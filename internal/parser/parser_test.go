package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unidoc/unioffice/spreadsheet"
)

func TestParseTSVMergesFirstAndLastName(t *testing.T) {
	table, err := ParseTSV("First Name\tLast Name\tClub\nJane\tDoe\tX\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Club"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, map[string]string{"Name": "Jane Doe", "Club": "X"}, table.Rows[0])
	assert.Equal(t, []string{"First Name", "Last Name", "Club"}, table.OriginalHeaders)
	assert.Equal(t, [][]string{{"Jane", "Doe", "X"}}, table.OriginalRows)
}

func TestParseTSVEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		headers []string
		rows    []map[string]string
		wantErr error
	}{
		{
			name:    "crlf and blank lines",
			input:   "Name\tScore\r\n\r\nAnn\t10\r\n  \nBen\t9\r\n",
			headers: []string{"Name", "Score"},
			rows:    []map[string]string{{"Name": "Ann", "Score": "10"}, {"Name": "Ben", "Score": "9"}},
		},
		{
			name:    "short row pads empty",
			input:   "Name\tClub\nAnn",
			headers: []string{"Name", "Club"},
			rows:    []map[string]string{{"Name": "Ann", "Club": ""}},
		},
		{
			name:    "case insensitive names",
			input:   "LAST NAME\tfirst name\n Doe \t Jane ",
			headers: nil,
			rows:    []map[string]string{{"Name": "Jane Doe"}},
		},
		{
			name:    "first name alone is kept out of headers",
			input:   "First Name\tClub\nJane\tX",
			headers: []string{"Club"},
			rows:    []map[string]string{{"Club": "X"}},
		},
		{
			name:    "empty",
			input:   "\n \n",
			wantErr: ErrEmptyInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTSV(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.headers, table.Headers)
			assert.Equal(t, tt.rows, table.Rows)
		})
	}
}

func TestFormatDateForDisplay(t *testing.T) {
	tests := map[string]string{
		"2024-03-05": "03/05/2024",
		"2024-3-5":   "03/05/2024",
		"12/31/2024": "12/31/2024",
		"":           "",
		"March 5":    "March 5",
		"2024-03":    "2024-03",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDateForDisplay(in), in)
	}
}

func TestImportCSV(t *testing.T) {
	data := "First Name,Last Name,Division\nAnn,Lee,\"Recurve, Senior\"\n,,\n"
	table, err := ImportTable("roster.csv", strings.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ann Lee", table.Rows[0]["Name"])
	assert.Equal(t, "Recurve, Senior", table.Rows[0]["Division"])
}

func TestImportTSVFile(t *testing.T) {
	data := "Name\tClub\nAnn\tTri\n"
	table, err := ImportTable("paste.txt", strings.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Club"}, table.Headers)
}

func TestImportUnsupported(t *testing.T) {
	data := "%PDF-1.4"
	_, err := ImportTable("roster.pdf", strings.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestImportXLSX(t *testing.T) {
	wb := spreadsheet.New()
	sheet := wb.AddSheet()
	for _, rec := range [][]string{{"First Name", "Last Name", "Club"}, {"Jane", "Doe", "X"}} {
		row := sheet.AddRow()
		for _, v := range rec {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Save(&buf))

	data := buf.Bytes()
	table, err := ImportTable("roster.xlsx", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Club"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Jane Doe", table.Rows[0]["Name"])
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	p, err := r.GetParserByName("CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", p.Name())

	_, err = r.GetParserByName("nope")
	assert.Error(t, err)
}
