package preview

import (
	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/models"
)

// ComputeLayout places text of the measured size inside a container
// according to a state. A horizontal lock makes the element a full-width
// band with centered text at the state's vertical position; a vertical lock
// makes it a full-height band with vertically centered content at the
// state's horizontal position. Both locks fill the container.
func ComputeLayout(st models.ElementState, container coords.Size, text coords.Size) Layout {
	l := Layout{TextWidth: text.Width, TextHeight: text.Height}

	switch {
	case st.LockHorizontal && st.LockVertical:
		l.Mode = ModeFullContainer
		l.Width, l.Height = container.Width, container.Height
		l.CenterX, l.CenterY = container.Width/2, container.Height/2
		l.TextAlign, l.VerticalAlign = "center", "middle"

	case st.LockHorizontal:
		l.Mode = ModeHorizontalBand
		l.Width, l.Height = container.Width, text.Height
		l.CenterX = container.Width / 2
		l.CenterY = coords.PercentToPixels(st.YPercent, container.Height)
		l.Top = l.CenterY - text.Height/2
		l.TextAlign, l.VerticalAlign = "center", "top"

	case st.LockVertical:
		l.Mode = ModeVerticalBand
		l.Width, l.Height = text.Width, container.Height
		l.CenterX = coords.PercentToPixels(st.XPercent, container.Width)
		l.CenterY = container.Height / 2
		l.Left = l.CenterX - text.Width/2
		l.TextAlign, l.VerticalAlign = "left", "middle"

	default:
		l.Mode = ModeFree
		l.Width, l.Height = text.Width, text.Height
		l.CenterX = coords.PercentToPixels(st.XPercent, container.Width)
		l.CenterY = coords.PercentToPixels(st.YPercent, container.Height)
		l.Left = l.CenterX - text.Width/2
		l.Top = l.CenterY - text.Height/2
		l.TextAlign, l.VerticalAlign = "left", "top"
	}
	return l
}
