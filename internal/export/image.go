package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

var (
	// ErrNoBackground is returned when a batch has no background image.
	ErrNoBackground = errors.New("no certificate background image available")
	// ErrUnsupportedImage is returned for backgrounds that are not PNG or JPEG.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// ImageFormat is a background encoding the exporter can embed.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

const minSniffLen = 8

// DetectImageFormat identifies PNG and JPEG data by signature.
func DetectImageFormat(data []byte) (ImageFormat, error) {
	if len(data) < minSniffLen {
		return "", ErrUnsupportedImage
	}
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return FormatPNG, nil
	case bytes.HasPrefix(data, jpegMagic):
		return FormatJPEG, nil
	}
	return "", ErrUnsupportedImage
}

// Background is a validated background image.
type Background struct {
	Data   []byte
	Format ImageFormat
	Width  int
	Height int
}

// AspectRatio returns width over height.
func (b Background) AspectRatio() float64 {
	if b.Height == 0 {
		return 0
	}
	return float64(b.Width) / float64(b.Height)
}

// InspectBackground checks the signature and reads the pixel size.
func InspectBackground(data []byte) (Background, error) {
	if len(data) == 0 {
		return Background{}, ErrNoBackground
	}
	format, err := DetectImageFormat(data)
	if err != nil {
		return Background{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Background{}, fmt.Errorf("%w: failed to decode %s: %v", ErrUnsupportedImage, format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Background{}, fmt.Errorf("%w: empty %s image", ErrUnsupportedImage, format)
	}
	return Background{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
