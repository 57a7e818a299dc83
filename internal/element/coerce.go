package element

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/certstudio/backend/internal/models"
)

// PatchFromFields builds a patch from a loose field map, as found in preset
// documents and client payloads. Unknown keys and values that cannot be
// coerced are dropped.
func PatchFromFields(fields map[string]any) models.StatePatch {
	var p models.StatePatch
	for key, raw := range fields {
		switch key {
		case "xPercent":
			if v, ok := toFloat(raw); ok {
				p.XPercent = &v
			}
		case "yPercent":
			if v, ok := toFloat(raw); ok {
				p.YPercent = &v
			}
		case "fontSize":
			if v, ok := toFloat(raw); ok {
				p.FontSize = &v
			}
		case "theme":
			if v, ok := raw.(string); ok {
				p.Theme = &v
			}
		case "color":
			if v, ok := raw.(string); ok {
				p.Color = &v
			}
		case "pipeColor":
			if v, ok := raw.(string); ok {
				p.PipeColor = &v
			}
		case "lockHorizontal":
			v := truthy(raw)
			p.LockHorizontal = &v
		case "lockVertical":
			v := truthy(raw)
			p.LockVertical = &v
		case "isVisible":
			v := truthy(raw)
			p.IsVisible = &v
		case "textTransform":
			if s, ok := raw.(string); ok {
				if tr := models.TextTransform(strings.ToLower(s)); tr.Valid() {
					p.TextTransform = &tr
				}
			}
		}
	}
	if p.TextTransform == nil {
		if raw, ok := fields["isUppercase"]; ok {
			tr := models.TransformNone
			if truthy(raw) {
				tr = models.TransformUppercase
			}
			p.TextTransform = &tr
		}
	}
	return p
}

// FieldsFromState renders a state as a loose field map, the inverse of
// PatchFromFields for the persisted fields.
func FieldsFromState(s models.ElementState) map[string]any {
	return map[string]any{
		"xPercent":       s.XPercent,
		"yPercent":       s.YPercent,
		"fontSize":       s.FontSize,
		"theme":          s.Theme,
		"color":          s.Color,
		"pipeColor":      s.PipeColor,
		"lockHorizontal": s.LockHorizontal,
		"lockVertical":   s.LockVertical,
		"isVisible":      s.IsVisible,
		"textTransform":  string(s.TextTransform),
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		s := strings.TrimSpace(strings.ToLower(b))
		return s != "" && s != "false" && s != "0"
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}
