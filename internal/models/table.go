package models

// NameColumn is the merged or native column holding the recipient name.
const NameColumn = "Name"

// DataTable is imported tabular data. Headers and Rows are the parsed view
// (First/Last Name merged into Name); OriginalHeaders and OriginalRows keep
// the untouched input.
type DataTable struct {
	Headers         []string            `json:"headers"`
	Rows            []map[string]string `json:"rows"`
	OriginalHeaders []string            `json:"originalHeaders"`
	OriginalRows    [][]string          `json:"originalRows"`
}

// Len returns the number of data rows.
func (t *DataTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether header is one of the parsed headers. Name is
// always addressable when any row carries it.
func (t *DataTable) HasColumn(header string) bool {
	if t == nil {
		return false
	}
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	if header == NameColumn && len(t.Rows) > 0 {
		_, ok := t.Rows[0][NameColumn]
		return ok
	}
	return false
}
