package models

// Theme is a named palette. Colors maps a color key to a hex value.
type Theme struct {
	Name    string            `json:"name" yaml:"name"`
	Colors  map[string]string `json:"colors" yaml:"colors"`
	Default string            `json:"default" yaml:"default"`
}

// ThemeTable is the document shape of a themes file.
type ThemeTable struct {
	DefaultTheme string           `json:"defaultTheme" yaml:"defaultTheme"`
	Themes       map[string]Theme `json:"themes" yaml:"themes"`
}
