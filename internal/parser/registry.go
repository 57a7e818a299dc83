package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/certstudio/backend/internal/models"
)

const sniffSize = 512

// Registry holds the available parsers and picks one per file.
type Registry struct {
	parsers []Parser
}

var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		parsers: []Parser{
			NewXLSXParser(),
			NewCSVParser(),
			NewTSVParser(),
		},
	}
}

// GetGlobalRegistry returns the shared registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a parser. Later parsers are tried last.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// FindParser picks the first parser that accepts the file.
func (r *Registry) FindParser(fileName string, head []byte) (Parser, error) {
	for _, p := range r.parsers {
		if p.CanParse(fileName, head) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (Parser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}

// ImportTable parses an uploaded file with the global registry.
func ImportTable(fileName string, r io.ReaderAt, size int64) (*models.DataTable, error) {
	head := make([]byte, sniffSize)
	n, err := r.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	p, err := globalRegistry.FindParser(fileName, head[:n])
	if err != nil {
		return nil, err
	}
	table, err := p.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("%s parser: %w", p.Name(), err)
	}
	fmt.Printf("[Parser] %s: %d rows, %d columns via %s\n", fileName, table.Len(), len(table.Headers), p.Name())
	return table, nil
}
