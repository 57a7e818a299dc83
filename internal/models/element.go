package models

import "strings"

// ElementType identifies one kind of overlay text on a certificate.
// All instances of a type share a single ElementState.
type ElementType string

const (
	ElementName         ElementType = "name-element"
	ElementDate         ElementType = "date-element"
	ElementConcatenated ElementType = "concatenated-element"

	elementSuffix = "-element"
)

// IsFixed reports whether t is one of the roles present on every certificate.
func (t ElementType) IsFixed() bool {
	return t == ElementName || t == ElementDate || t == ElementConcatenated
}

// Column returns the sanitized column part of a per-column type.
func (t ElementType) Column() string {
	return strings.TrimSuffix(string(t), elementSuffix)
}

// TextTransform is the case transformation applied when rendering text.
type TextTransform string

const (
	TransformNone       TextTransform = "none"
	TransformUppercase  TextTransform = "uppercase"
	TransformLowercase  TextTransform = "lowercase"
	TransformCapitalize TextTransform = "capitalize"
)

var transformCycle = []TextTransform{TransformNone, TransformUppercase, TransformLowercase, TransformCapitalize}

// Valid reports whether t is a known transform.
func (t TextTransform) Valid() bool {
	for _, v := range transformCycle {
		if v == t {
			return true
		}
	}
	return false
}

// Next returns the transform that follows t in the UI cycle.
func (t TextTransform) Next() TextTransform {
	for i, v := range transformCycle {
		if v == t {
			return transformCycle[(i+1)%len(transformCycle)]
		}
	}
	return TransformUppercase
}

// Label is the short control-panel caption for t.
func (t TextTransform) Label() string {
	switch t {
	case TransformUppercase:
		return "UPPER"
	case TransformLowercase:
		return "lower"
	case TransformCapitalize:
		return "Title"
	default:
		return "None"
	}
}

// Apply transforms s. Capitalize upper-cases the first letter of every word.
func (t TextTransform) Apply(s string) string {
	switch t {
	case TransformUppercase:
		return strings.ToUpper(s)
	case TransformLowercase:
		return strings.ToLower(s)
	case TransformCapitalize:
		return capitalizeWords(s)
	default:
		return s
	}
}

func capitalizeWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := true
	for _, r := range s {
		if start {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
		start = r == ' ' || r == '\t' || r == '-'
	}
	return b.String()
}

// ElementState is the authoritative style and position of an ElementType.
// XPercent and YPercent address the element's center within its container.
type ElementState struct {
	XPercent       float64       `json:"xPercent" msgpack:"xPercent" yaml:"xPercent"`
	YPercent       float64       `json:"yPercent" msgpack:"yPercent" yaml:"yPercent"`
	FontSize       int           `json:"fontSize" msgpack:"fontSize" yaml:"fontSize"`
	Theme          string        `json:"theme" msgpack:"theme" yaml:"theme"`
	Color          string        `json:"color" msgpack:"color" yaml:"color"`
	PipeColor      string        `json:"pipeColor" msgpack:"pipeColor" yaml:"pipeColor"`
	LockHorizontal bool          `json:"lockHorizontal" msgpack:"lockHorizontal" yaml:"lockHorizontal"`
	LockVertical   bool          `json:"lockVertical" msgpack:"lockVertical" yaml:"lockVertical"`
	IsVisible      bool          `json:"isVisible" msgpack:"isVisible" yaml:"isVisible"`
	TextTransform  TextTransform `json:"textTransform" msgpack:"textTransform" yaml:"textTransform"`
	LastUpdated    int64         `json:"lastUpdated" msgpack:"lastUpdated" yaml:"lastUpdated"`
}

// IsUppercase reports whether any case transform is active.
func (s ElementState) IsUppercase() bool {
	return s.TextTransform != "" && s.TextTransform != TransformNone
}

// StatePatch is a partial ElementState update. Nil fields are left unchanged.
type StatePatch struct {
	XPercent       *float64       `json:"xPercent,omitempty" yaml:"xPercent,omitempty"`
	YPercent       *float64       `json:"yPercent,omitempty" yaml:"yPercent,omitempty"`
	FontSize       *float64       `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Theme          *string        `json:"theme,omitempty" yaml:"theme,omitempty"`
	Color          *string        `json:"color,omitempty" yaml:"color,omitempty"`
	PipeColor      *string        `json:"pipeColor,omitempty" yaml:"pipeColor,omitempty"`
	LockHorizontal *bool          `json:"lockHorizontal,omitempty" yaml:"lockHorizontal,omitempty"`
	LockVertical   *bool          `json:"lockVertical,omitempty" yaml:"lockVertical,omitempty"`
	IsVisible      *bool          `json:"isVisible,omitempty" yaml:"isVisible,omitempty"`
	TextTransform  *TextTransform `json:"textTransform,omitempty" yaml:"textTransform,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p StatePatch) IsEmpty() bool {
	return p == StatePatch{}
}

// Position builds a patch that moves an element.
func Position(x, y float64) StatePatch {
	return StatePatch{XPercent: &x, YPercent: &y}
}

// Float, String, Bool and Transform return pointers for patch literals.
func Float(v float64) *float64 { return &v }
func String(v string) *string { return &v }
func Bool(v bool) *bool { return &v }
func Transform(v TextTransform) *TextTransform { return &v }
