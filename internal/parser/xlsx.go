package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"

	"github.com/certstudio/backend/internal/models"
)

var zipMagic = []byte("PK\x03\x04")

// XLSXParser reads the first sheet of a workbook.
type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Name() string {
	return "xlsx"
}

func (p *XLSXParser) CanParse(fileName string, head []byte) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".xlsx") && bytes.HasPrefix(head, zipMagic)
}

func (p *XLSXParser) Parse(r io.ReaderAt, size int64) (*models.DataTable, error) {
	wb, err := spreadsheet.Read(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}

	var records [][]string
	for _, row := range sheets[0].Rows() {
		var rec []string
		for _, cell := range row.Cells() {
			colName, err := cell.Column()
			if err != nil {
				continue
			}
			idx := int(reference.ColumnToIndex(colName))
			for len(rec) <= idx {
				rec = append(rec, "")
			}
			rec[idx] = cell.GetFormattedValue()
		}
		if blank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return BuildTable(records)
}
