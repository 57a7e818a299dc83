package element

import "github.com/certstudio/backend/internal/models"

const (
	MinFontSize = 12
	MaxFontSize = 72

	fallbackFontSize = 20
	columnBaseY      = 55.0
	columnSpacingY   = 8.0
)

type placement struct {
	x, y     float64
	fontSize int
}

var fixedPlacements = map[models.ElementType]placement{
	models.ElementName:         {x: 50, y: 25, fontSize: 36},
	models.ElementConcatenated: {x: 50, y: 40, fontSize: 10},
	models.ElementDate:         {x: 15, y: 90, fontSize: 18},
}

var fallbackPlacement = placement{x: 50, y: 45, fontSize: fallbackFontSize}

// DefaultPosition returns the starting percent position of a type.
// columnIndex is the index among per-column types, or -1 for types that are
// not part of an initialized column list.
func DefaultPosition(t models.ElementType, columnIndex int) (float64, float64) {
	if p, ok := fixedPlacements[t]; ok {
		return p.x, p.y
	}
	if columnIndex >= 0 {
		return 50, columnBaseY + float64(columnIndex)*columnSpacingY
	}
	return fallbackPlacement.x, fallbackPlacement.y
}

// DefaultFontSize returns the starting font size of a type.
func DefaultFontSize(t models.ElementType) int {
	if p, ok := fixedPlacements[t]; ok {
		return p.fontSize
	}
	return fallbackPlacement.fontSize
}

// DefaultLockHorizontal reports whether a fresh state of t starts
// horizontally centered.
func DefaultLockHorizontal(t models.ElementType) bool {
	return t != models.ElementDate
}
