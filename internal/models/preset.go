package models

// LayoutPreset is a named bundle of per-type state overrides. ElementStates
// holds loose field maps so that documents with unknown or malformed fields
// still load; values are coerced when the preset is applied.
type LayoutPreset struct {
	ID              string                         `json:"id" yaml:"id"`
	Name            string                         `json:"name" yaml:"name"`
	Description     string                         `json:"description" yaml:"description"`
	DefaultTheme    string                         `json:"defaultTheme,omitempty" yaml:"defaultTheme,omitempty"`
	ExpectedColumns []string                       `json:"expectedColumns,omitempty" yaml:"expectedColumns,omitempty"`
	ElementStates   map[ElementType]map[string]any `json:"elementStates" yaml:"elementStates"`
}

// PresetSummary is the listing form of a preset.
type PresetSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	ExpectedColumns []string `json:"expectedColumns,omitempty"`
}

// Summary returns the listing form of p.
func (p *LayoutPreset) Summary() PresetSummary {
	return PresetSummary{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		ExpectedColumns: p.ExpectedColumns,
	}
}
