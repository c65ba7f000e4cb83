package usecase

import (
	"math"

	"github.com/docuflow/review-console/internal/core/domain"
)

const (
	// DefaultPPI is the fallback pixels-per-unit scale used before a
	// raster's true dimensions are known.
	DefaultPPI = 96.0

	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.1

	// fitPadding is subtracted from the container width when computing the
	// initial fit-to-container zoom.
	fitPadding = 40.0

	// scrollPadding matches the page padding around the raster inside the
	// scroll container.
	scrollPadding = 16.0
)

// ScreenBox is a document-space box projected into on-screen pixels.
type ScreenBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport owns the coordinate transform for one rendered page: the
// pixels-per-unit scale derived from the raster, the user zoom, and the
// one-time fit-to-container zoom. Every overlay layer goes through the same
// transform so highlights and selectable text stay pixel-aligned.
type Viewport struct {
	page           domain.Page
	renderedWidth  float64
	renderedHeight float64
	zoom           float64
	fitZoomSet     bool
}

func NewViewport(page domain.Page) *Viewport {
	return &Viewport{page: page, zoom: 1.0}
}

// AdoptZoom carries the zoom level and the fit flag over from a previous
// page's viewport so a page switch keeps the user's zoom.
func (v *Viewport) AdoptZoom(prev *Viewport) {
	if prev == nil {
		return
	}
	v.zoom = prev.zoom
	v.fitZoomSet = prev.fitZoomSet
}

// SetRaster records the raster's true pixel dimensions and, on the first
// successful raster load only, computes the fit-to-container zoom.
// Subsequent container resizes never recompute it.
func (v *Viewport) SetRaster(pixelWidth, pixelHeight, containerWidth float64) {
	v.renderedWidth = pixelWidth
	v.renderedHeight = pixelHeight

	if v.fitZoomSet || pixelWidth <= 0 {
		return
	}
	if containerWidth > 0 {
		fit := roundZoom((containerWidth - fitPadding) / pixelWidth)
		v.zoom = math.Min(1.0, fit)
	}
	v.fitZoomSet = true
}

// PPI is the pixels-per-unit scale: rendered raster width over the page's
// native width, or the default when the raster is not ready.
func (v *Viewport) PPI() float64 {
	if v.page.Width <= 0 || v.renderedWidth <= 0 {
		return DefaultPPI
	}
	return v.renderedWidth / v.page.Width
}

func (v *Viewport) Zoom() float64 { return v.zoom }

// FitZoomSet reports whether the initial fit-to-container zoom has been
// established; focus scrolling is suppressed until it has.
func (v *Viewport) FitZoomSet() bool { return v.fitZoomSet }

func (v *Viewport) ZoomIn() float64 {
	v.zoom = clampZoom(roundZoom(v.zoom + ZoomStep))
	return v.zoom
}

func (v *Viewport) ZoomOut() float64 {
	v.zoom = clampZoom(roundZoom(v.zoom - ZoomStep))
	return v.zoom
}

// SetZoom clamps an externally supplied zoom into the valid range.
func (v *Viewport) SetZoom(z float64) float64 {
	v.zoom = clampZoom(roundZoom(z))
	return v.zoom
}

// ScreenBox projects a document-space box into screen pixels:
// position and size both scale by ppi * zoom.
func (v *Viewport) ScreenBox(b domain.BoundingBox) ScreenBox {
	scale := v.PPI() * v.zoom
	return ScreenBox{
		Left:   b.X * scale,
		Top:    b.Y * scale,
		Width:  b.Width * scale,
		Height: b.Height * scale,
	}
}

// DisplaySize is the on-screen size of the page: the raster dimensions when
// known, else the page's native size at the default scale, times zoom.
func (v *Viewport) DisplaySize() (float64, float64) {
	w := v.renderedWidth
	h := v.renderedHeight
	if w <= 0 {
		w = v.page.Width * v.PPI()
	}
	if h <= 0 {
		h = v.page.Height * v.PPI()
	}
	return w * v.zoom, h * v.zoom
}

// ScrollTarget computes the scroll offsets that center the focus box's
// centroid in the viewport, clamped at zero. The second return is false
// while the fit zoom is not yet established, since scrolling against
// pre-fit coordinates would land on the wrong spot.
func (v *Viewport) ScrollTarget(focus domain.BoundingBox, viewportWidth, viewportHeight float64) (ScreenBox, bool) {
	if !v.fitZoomSet {
		return ScreenBox{}, false
	}

	sb := v.ScreenBox(focus)
	targetX := scrollPadding + sb.Left + sb.Width/2
	targetY := scrollPadding + sb.Top + sb.Height/2

	return ScreenBox{
		Left: math.Max(0, targetX-viewportWidth/2),
		Top:  math.Max(0, targetY-viewportHeight/2),
	}, true
}

// ScrollTargetScreen is ScrollTarget for a box already projected into
// screen space, used when several resolved boxes were unioned after
// projection.
func (v *Viewport) ScrollTargetScreen(sb ScreenBox, viewportWidth, viewportHeight float64) (ScreenBox, bool) {
	if !v.fitZoomSet {
		return ScreenBox{}, false
	}

	targetX := scrollPadding + sb.Left + sb.Width/2
	targetY := scrollPadding + sb.Top + sb.Height/2

	return ScreenBox{
		Left: math.Max(0, targetX-viewportWidth/2),
		Top:  math.Max(0, targetY-viewportHeight/2),
	}, true
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

func roundZoom(z float64) float64 {
	return math.Round(z*100) / 100
}
