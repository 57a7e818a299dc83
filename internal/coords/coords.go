// Package coords converts element positions between percent space, container
// pixels and output-document space.
//
// Percent coordinates address the center of an element relative to the
// top-left of its container. Output space has its origin at the bottom-left,
// so the vertical axis is inverted on the way out.
package coords

import "math"

// DefaultAspectRatio is used when a background has not been measured yet.
const DefaultAspectRatio = 4.0 / 3.0

// Point is a pixel position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is a pixel extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ready reports whether both dimensions are positive. Layout against a size
// that is not ready produces meaningless positions.
func (s Size) Ready() bool {
	return s.Width > 0 && s.Height > 0
}

// Center returns the midpoint of the extent.
func (s Size) Center() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// PercentToPixels converts a percentage of size into pixels.
func PercentToPixels(percent, size float64) float64 {
	return percent / 100 * size
}

// PixelsToPercent converts pixels into a percentage of size. A non-positive
// size yields 0.
func PixelsToPercent(pixels, size float64) float64 {
	if size <= 0 {
		return 0
	}
	return pixels / size * 100
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ClampPercent limits v to [0, 100].
func ClampPercent(v float64) float64 {
	return Clamp(v, 0, 100)
}

// ToPixels converts a percent position into a pixel point in a container.
func ToPixels(xPercent, yPercent float64, container Size) Point {
	return Point{
		X: PercentToPixels(xPercent, container.Width),
		Y: PercentToPixels(yPercent, container.Height),
	}
}

// ToPercent converts a pixel point in a container into percent coordinates.
func ToPercent(p Point, container Size) (float64, float64) {
	return PixelsToPercent(p.X, container.Width), PixelsToPercent(p.Y, container.Height)
}

// ToOutput converts percent coordinates into bottom-left-origin output space
// of the given dimensions.
func ToOutput(xPercent, yPercent, outputWidth, outputHeight float64) Point {
	return Point{
		X: xPercent / 100 * outputWidth,
		Y: (100 - yPercent) / 100 * outputHeight,
	}
}

// ScalingFactor is the ratio between the output image width and the preview
// reference width that font sizes were chosen against.
func ScalingFactor(actualWidth, previewWidth float64) float64 {
	if previewWidth <= 0 || actualWidth <= 0 {
		return 1
	}
	return actualWidth / previewWidth
}

// OutputFontSize scales a preview font size into output space.
func OutputFontSize(fontSize, factor float64) float64 {
	return fontSize * factor
}

// PreviewSize returns the container size for a background with the given
// aspect ratio rendered at referenceWidth.
func PreviewSize(referenceWidth, aspectRatio float64) Size {
	if aspectRatio <= 0 || math.IsNaN(aspectRatio) || math.IsInf(aspectRatio, 0) {
		aspectRatio = DefaultAspectRatio
	}
	return Size{Width: referenceWidth, Height: math.Round(referenceWidth / aspectRatio)}
}
