package preview

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/certstudio/backend/internal/fonts"
)

const backdropPadding = 6

// Rasterizer draws slides to PNG using their current instance layouts.
type Rasterizer struct {
	mu    sync.Mutex
	ttf   map[fonts.Role]*truetype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	role fonts.Role
	size float64
}

// NewRasterizer parses the embedded fonts for drawing.
func NewRasterizer() (*Rasterizer, error) {
	r := &Rasterizer{
		ttf:   make(map[fonts.Role]*truetype.Font),
		faces: make(map[faceKey]font.Face),
	}
	for _, role := range fonts.Roles() {
		f, err := truetype.Parse(fonts.TTF(role))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", role.Family(), err)
		}
		r.ttf[role] = f
	}
	return r, nil
}

func (r *Rasterizer) face(role fonts.Role, size float64) font.Face {
	key := faceKey{role: role, size: size}
	if f, ok := r.faces[key]; ok {
		return f
	}
	f := truetype.NewFace(r.ttf[role], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[key] = f
	return f
}

// RenderSlide draws a slide at its container size. The background, when
// given, is resized to fill the slide.
func (r *Rasterizer) RenderSlide(s *Slide, background image.Image, w io.Writer) error {
	size := s.Container.Size()
	if !size.Ready() {
		return fmt.Errorf("slide %d: container not ready", s.Index)
	}
	width, height := int(size.Width+0.5), int(size.Height+0.5)

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(width, height)
	if background != nil {
		dc.DrawImage(imaging.Resize(background, width, height, imaging.Lanczos), 0, 0)
	} else {
		dc.SetRGB(1, 1, 1)
		dc.Clear()
	}

	for _, inst := range s.Instances {
		if !inst.Style.Visible || inst.Style.FontSize <= 0 {
			continue
		}
		r.drawInstance(dc, inst)
	}
	return dc.EncodePNG(w)
}

func (r *Rasterizer) drawInstance(dc *gg.Context, inst *Instance) {
	dc.SetFontFace(r.face(fonts.RoleFor(inst.Type), inst.Style.FontSize))
	cx, cy := inst.Layout.CenterX, inst.Layout.CenterY

	segs := inst.Segments
	if len(segs) == 0 {
		segs = []Segment{{Text: inst.Text}}
	}
	total := 0.0
	widths := make([]float64, len(segs))
	for i, seg := range segs {
		widths[i], _ = dc.MeasureString(inst.Style.TextTransform.Apply(seg.Text))
		total += widths[i]
	}

	if inst.Style.Backdrop {
		h := inst.Layout.TextHeight
		if h <= 0 {
			h = inst.Style.FontSize
		}
		dc.SetRGBA(1, 1, 1, 0.7)
		dc.DrawRoundedRectangle(cx-total/2-backdropPadding, cy-h/2-backdropPadding, total+2*backdropPadding, h+2*backdropPadding, 4)
		dc.Fill()
	}

	x := cx - total/2
	for i, seg := range segs {
		hex := inst.Style.Color
		if seg.Pipe && inst.Style.PipeColor != "" {
			hex = inst.Style.PipeColor
		}
		setHex(dc, hex)
		dc.DrawStringAnchored(inst.Style.TextTransform.Apply(seg.Text), x, cy, 0, 0.35)
		x += widths[i]
	}
}

func setHex(dc *gg.Context, hex string) {
	if hex == "" {
		hex = "#000000"
	}
	dc.SetHexColor(hex)
}

// Decode reads a background image of any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding background: %w", err)
	}
	return img, nil
}
