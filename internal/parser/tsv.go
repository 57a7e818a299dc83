package parser

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/certstudio/backend/internal/models"
)

// ParseTSV parses tab-separated text as pasted from a spreadsheet. Blank
// lines are skipped.
func ParseTSV(text string) (*models.DataTable, error) {
	var records [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, strings.Split(line, "\t"))
	}
	return BuildTable(records)
}

// TSVParser handles .tsv and .txt uploads.
type TSVParser struct{}

func NewTSVParser() *TSVParser {
	return &TSVParser{}
}

func (p *TSVParser) Name() string {
	return "tsv"
}

func (p *TSVParser) CanParse(fileName string, head []byte) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".tsv", ".tab":
		return true
	case ".txt", "":
		return bytes.IndexByte(head, '\t') >= 0
	}
	return false
}

func (p *TSVParser) Parse(r io.ReaderAt, size int64) (*models.DataTable, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}
	return ParseTSV(string(data))
}
