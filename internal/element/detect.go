package element

import (
	"regexp"
	"strings"

	"github.com/certstudio/backend/internal/models"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
)

// SanitizeColumn converts a column header into the stem of its element type.
func SanitizeColumn(column string) string {
	s := strings.ToLower(column)
	s = whitespaceRun.ReplaceAllString(s, "-")
	return disallowed.ReplaceAllString(s, "")
}

// TypeForColumn returns the per-column element type of a header.
func TypeForColumn(column string) models.ElementType {
	return models.ElementType(SanitizeColumn(column) + "-element")
}

// DetectTypes lists the element types a batch shows: name and date always,
// concatenated when any column is selected, and one type per remaining
// unselected header other than Name, in header order.
func DetectTypes(selected []string, headers []string) []models.ElementType {
	types := []models.ElementType{models.ElementName, models.ElementDate}
	if len(selected) > 0 {
		types = append(types, models.ElementConcatenated)
	}

	chosen := make(map[string]bool, len(selected))
	for _, c := range selected {
		chosen[c] = true
	}
	seen := make(map[models.ElementType]bool, len(types))
	for _, t := range types {
		seen[t] = true
	}
	for _, h := range headers {
		if h == models.NameColumn || chosen[h] {
			continue
		}
		t := TypeForColumn(h)
		if seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types
}

// ColumnForType finds the header that produced a per-column type.
func ColumnForType(t models.ElementType, headers []string) (string, bool) {
	for _, h := range headers {
		if TypeForColumn(h) == t {
			return h, true
		}
	}
	return "", false
}

// FriendlyName is the display label of a type.
func FriendlyName(t models.ElementType) string {
	switch t {
	case models.ElementName:
		return "Name"
	case models.ElementConcatenated:
		return "Additional Info"
	case models.ElementDate:
		return "Date"
	}
	parts := strings.Split(t.Column(), "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
