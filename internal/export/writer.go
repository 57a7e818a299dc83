package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PageWriter is the output document. Coordinates have their origin at the
// bottom-left of the current page; y grows upward.
type PageWriter interface {
	RegisterFont(family string, ttf []byte) error
	RegisterImage(name string, format ImageFormat, data []byte) error
	AddPage(width, height float64)
	DrawImage(name string, x, y, width, height float64)
	SetFont(family string, size float64)
	SetTextColor(c color.RGBA)
	Text(x, y float64, s string)
	Output(w io.Writer) error
}

// PDFWriter writes pages with gofpdf using points as the unit, so one
// background pixel maps to one point.
type PDFWriter struct {
	pdf        *gofpdf.Fpdf
	pageHeight float64
}

// NewPDFWriter creates an empty document.
func NewPDFWriter() *PDFWriter {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: 612, Ht: 792},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("certstudio", true)
	return &PDFWriter{pdf: pdf}
}

func (p *PDFWriter) RegisterFont(family string, ttf []byte) error {
	p.pdf.AddUTF8FontFromBytes(family, "", ttf)
	return p.pdf.Error()
}

func (p *PDFWriter) RegisterImage(name string, format ImageFormat, data []byte) error {
	imageType := "PNG"
	if format == FormatJPEG {
		imageType = "JPG"
	}
	p.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if err := p.pdf.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return nil
}

func (p *PDFWriter) AddPage(width, height float64) {
	p.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: width, Ht: height})
	p.pageHeight = height
}

func (p *PDFWriter) DrawImage(name string, x, y, width, height float64) {
	p.pdf.ImageOptions(name, x, p.pageHeight-y-height, width, height, false, gofpdf.ImageOptions{}, 0, "")
}

func (p *PDFWriter) SetFont(family string, size float64) {
	p.pdf.SetFont(family, "", size)
}

func (p *PDFWriter) SetTextColor(c color.RGBA) {
	p.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

func (p *PDFWriter) Text(x, y float64, s string) {
	p.pdf.Text(x, p.pageHeight-y, s)
}

func (p *PDFWriter) Output(w io.Writer) error {
	if err := p.pdf.Error(); err != nil {
		return err
	}
	return p.pdf.Output(w)
}
