package parser

import "strings"

// FormatDateForDisplay turns yyyy-mm-dd into mm/dd/yyyy. Values that already
// contain a slash, or that do not split into three parts, are returned as is.
func FormatDateForDisplay(date string) string {
	if date == "" || strings.Contains(date, "/") {
		return date
	}
	parts := strings.Split(date, "-")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return date
	}
	return pad2(parts[1]) + "/" + pad2(parts[2]) + "/" + parts[0]
}

func pad2(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}
