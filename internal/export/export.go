// Package export renders the data slides of a batch into a PDF, one page
// per row, at the background's native resolution.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/fonts"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
)

const backgroundImage = "background"

// Element is the content of one instance on a page. Style and position come
// from the element's state.
type Element struct {
	Type     models.ElementType
	Text     string
	Segments []preview.Segment
}

// Page is the content of one slide.
type Page struct {
	Index    int
	Example  bool
	Elements []Element
}

// Document is an immutable snapshot taken on the batch loop.
type Document struct {
	Pages        []Page
	States       map[models.ElementType]models.ElementState
	Background   []byte
	PreviewWidth float64
}

// PagesFromSlides copies slide content out of the live registry.
func PagesFromSlides(slides []*preview.Slide) []Page {
	pages := make([]Page, 0, len(slides))
	for _, s := range slides {
		p := Page{Index: s.Index, Example: s.Example}
		for _, inst := range s.Instances {
			el := Element{Type: inst.Type, Text: inst.Text}
			if len(inst.Segments) > 0 {
				el.Segments = append([]preview.Segment(nil), inst.Segments...)
			}
			p.Elements = append(p.Elements, el)
		}
		pages = append(pages, p)
	}
	return pages
}

// DataPages counts the pages an export will produce.
func (d Document) DataPages() int {
	n := 0
	for _, p := range d.Pages {
		if !p.Example {
			n++
		}
	}
	return n
}

// ColorResolver maps a theme color key to RGB.
type ColorResolver interface {
	RGBA(themeID, key string) color.RGBA
}

// ProgressFunc is called after each page.
type ProgressFunc func(done, total int)

// Exporter renders documents.
type Exporter struct {
	colors    ColorResolver
	measurer  preview.TextMeasurer
	newWriter func() PageWriter
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithWriterFactory replaces the gofpdf page writer.
func WithWriterFactory(f func() PageWriter) Option {
	return func(e *Exporter) { e.newWriter = f }
}

// NewExporter creates an exporter measuring text with m.
func NewExporter(colors ColorResolver, m preview.TextMeasurer, opts ...Option) *Exporter {
	e := &Exporter{
		colors:    colors,
		measurer:  m,
		newWriter: func() PageWriter { return NewPDFWriter() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the document to w. Nothing is written unless every page
// renders.
func (e *Exporter) Export(ctx context.Context, doc Document, w io.Writer, progress ProgressFunc) error {
	bg, err := InspectBackground(doc.Background)
	if err != nil {
		return err
	}

	out := e.newWriter()
	for _, r := range fonts.Roles() {
		if err := out.RegisterFont(r.Family(), fonts.TTF(r)); err != nil {
			return fmt.Errorf("registering %s: %w", r.Family(), err)
		}
	}
	if err := out.RegisterImage(backgroundImage, bg.Format, bg.Data); err != nil {
		return err
	}

	pageW, pageH := float64(bg.Width), float64(bg.Height)
	factor := coords.ScalingFactor(pageW, doc.PreviewWidth)
	fmt.Printf("[Export] Preview width %.0f, background %dx%d, scale %.2fx\n", doc.PreviewWidth, bg.Width, bg.Height, factor)

	total := doc.DataPages()
	done := 0
	for _, page := range doc.Pages {
		if page.Example {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		out.AddPage(pageW, pageH)
		out.DrawImage(backgroundImage, 0, 0, pageW, pageH)
		for _, el := range page.Elements {
			st, ok := doc.States[el.Type]
			if !ok || !st.IsVisible {
				continue
			}
			e.drawElement(out, el, st, pageW, pageH, factor)
		}
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	var buf bytes.Buffer
	if err := out.Output(&buf); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// drawElement centers the text on the element's output position. A locked
// axis is centered on the page the same way the preview band is.
func (e *Exporter) drawElement(out PageWriter, el Element, st models.ElementState, pageW, pageH, factor float64) {
	x, y := st.XPercent, st.YPercent
	// A band renders centered in the preview whatever the stored percent,
	// so the page uses 50 for a locked axis to match what the editor shows.
	if st.LockHorizontal {
		x = 50
	}
	if st.LockVertical {
		y = 50
	}
	pos := coords.ToOutput(x, y, pageW, pageH)
	size := coords.OutputFontSize(float64(st.FontSize), factor)
	role := fonts.RoleFor(el.Type)
	out.SetFont(role.Family(), size)

	segs := el.Segments
	if len(segs) == 0 {
		segs = []preview.Segment{{Text: el.Text}}
	}
	texts := make([]string, len(segs))
	widths := make([]float64, len(segs))
	total := 0.0
	for i, seg := range segs {
		texts[i] = st.TextTransform.Apply(seg.Text)
		widths[i] = e.measurer.Measure(role, texts[i], size).Width
		total += widths[i]
	}
	height := e.measurer.Measure(role, preview.SegmentsText(segs), size).Height

	textColor := e.colors.RGBA(st.Theme, st.Color)
	pipeColor := e.colors.RGBA(st.Theme, st.PipeColor)
	cursor := pos.X - total/2
	baseline := pos.Y - height/2
	for i, seg := range segs {
		if seg.Pipe {
			out.SetTextColor(pipeColor)
		} else {
			out.SetTextColor(textColor)
		}
		out.Text(cursor, baseline, texts[i])
		cursor += widths[i]
	}
}
