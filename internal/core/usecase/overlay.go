package usecase

import (
	"sync"
	"time"

	"github.com/docuflow/review-console/internal/core/domain"
)

const (
	// SettleDelay gives layout a moment to stabilize between a raster
	// swap and the scroll-bound measurement that follows it.
	SettleDelay = 100 * time.Millisecond

	spanInsetRatio  = 0.85
	spanFontRatio   = 0.95
	minSpanFontSize = 10.0
	minSpanHeight   = 1.0
)

// OverlayState names the phases of a document-view session.
type OverlayState string

const (
	StateIdle           OverlayState = "idle"
	StateRasterLoading  OverlayState = "raster_loading"
	StateRasterReady    OverlayState = "raster_ready"
	StateZooming        OverlayState = "zooming"
	StatePageSwitching  OverlayState = "page_switching"
	StateFocusScrolling OverlayState = "focus_scrolling"
)

// TextSpan is one selectable text run positioned over the raster. The
// box is vertically inset so adjacent lines stay individually clickable.
type TextSpan struct {
	Text     string    `json:"text"`
	Box      ScreenBox `json:"box"`
	FontSize float64   `json:"font_size"`
}

// HighlightBox is one hover or focus rectangle in screen space.
type HighlightBox struct {
	FieldName string    `json:"field_name"`
	Box       ScreenBox `json:"box"`
	Tier      string    `json:"tier"`
}

// ScrollPlan tells the client where to scroll and how.
type ScrollPlan struct {
	Left          float64 `json:"left"`
	Top           float64 `json:"top"`
	Smooth        bool    `json:"smooth"`
	SettleDelayMS int     `json:"settle_delay_ms"`
}

// OverlayFrame is a full render of the three overlay layers for one page
// at the current zoom, bottom to top: raster, focus, hover, text spans.
type OverlayFrame struct {
	State         OverlayState   `json:"state"`
	PageNumber    int            `json:"page_number"`
	Zoom          float64        `json:"zoom"`
	DisplayWidth  float64        `json:"display_width"`
	DisplayHeight float64        `json:"display_height"`
	Focus         []HighlightBox `json:"focus"`
	Hover         []HighlightBox `json:"hover"`
	Spans         []TextSpan     `json:"spans"`
	Scroll        *ScrollPlan    `json:"scroll,omitempty"`
}

// OverlaySession serializes zoom, page-switch and focus-scroll
// transitions for one document view. Raster completions are matched
// against a generation counter so a stale decode never clobbers the
// view after the page has moved on.
type OverlaySession struct {
	mu sync.Mutex

	resolver *BoxResolver

	state      OverlayState
	generation uint64
	viewport   *Viewport
	activePage int

	containerWidth  float64
	viewportWidth   float64
	viewportHeight  float64
	scrollToken     int
	lastScrollToken int
}

func NewOverlaySession(resolver *BoxResolver, containerWidth, viewportWidth, viewportHeight float64) *OverlaySession {
	return &OverlaySession{
		resolver:       resolver,
		state:          StateIdle,
		containerWidth: containerWidth,
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
	}
}

func (s *OverlaySession) State() OverlayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *OverlaySession) ActivePage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePage
}

// BeginRaster starts loading page pageNumber and returns the generation
// token the eventual CompleteRaster or FailRaster call must present.
// It supersedes any in-flight load for a previous page.
func (s *OverlaySession) BeginRaster(pageNumber int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.activePage = pageNumber
	if s.state == StateIdle || s.viewport == nil {
		s.state = StateRasterLoading
	} else {
		s.state = StatePageSwitching
	}
	return s.generation
}

// CompleteRaster installs the decoded raster if the token is still
// current. Stale completions are discarded and the previous view kept.
func (s *OverlaySession) CompleteRaster(token uint64, page domain.Page, pixelWidth, pixelHeight int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.generation {
		return false
	}

	vp := NewViewport(page)
	if s.viewport != nil {
		// Zoom level and the once-per-document fit flag survive
		// page switches.
		vp.AdoptZoom(s.viewport)
	}
	vp.SetRaster(float64(pixelWidth), float64(pixelHeight), s.containerWidth)
	s.viewport = vp
	s.state = StateRasterReady
	return true
}

// FailRaster reports a decode failure. The previous raster, when one
// exists, stays on screen.
func (s *OverlaySession) FailRaster(token uint64, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.generation {
		return nil
	}
	if s.viewport != nil {
		s.state = StateRasterReady
	} else {
		s.state = StateIdle
	}
	if cause == nil {
		return domain.ErrRenderFailed
	}
	return domain.WrapError(domain.ErrRenderFailed, "overlay.raster", cause)
}

// Zoom applies one zoom action: "in", "out", or an explicit factor.
func (s *OverlaySession) ZoomIn() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewport == nil {
		return 1.0
	}
	s.state = StateZooming
	z := s.viewport.ZoomIn()
	s.state = StateRasterReady
	return z
}

func (s *OverlaySession) ZoomOut() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewport == nil {
		return 1.0
	}
	s.state = StateZooming
	z := s.viewport.ZoomOut()
	s.state = StateRasterReady
	return z
}

func (s *OverlaySession) SetZoom(z float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewport == nil {
		return 1.0
	}
	s.state = StateZooming
	applied := s.viewport.SetZoom(z)
	s.state = StateRasterReady
	return applied
}

// RequestFocusScroll bumps the scroll token. The next Frame call with a
// focused field emits a scroll plan exactly once per bump.
func (s *OverlaySession) RequestFocusScroll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollToken++
}

// Frame renders the three layers for the current page. hoveredField and
// focusedField may be empty. A nil frame means the raster or the page
// metadata is not ready yet and the caller should show the placeholder.
func (s *OverlaySession) Frame(
	fields []domain.ExtractedField,
	spatial []domain.SpatialResult,
	lines, words []domain.OcrToken,
	hoveredField, focusedField string,
) *OverlayFrame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.viewport == nil || s.state == StateRasterLoading || s.state == StateIdle {
		return nil
	}

	w, h := s.viewport.DisplaySize()
	frame := &OverlayFrame{
		State:         s.state,
		PageNumber:    s.activePage,
		Zoom:          s.viewport.Zoom(),
		DisplayWidth:  w,
		DisplayHeight: h,
		Spans:         s.textSpans(lines, words),
	}

	frame.Hover = s.highlight(hoveredField, fields, spatial, lines)
	frame.Focus = s.highlight(focusedField, fields, spatial, lines)

	if s.scrollToken != s.lastScrollToken && len(frame.Focus) > 0 {
		if plan, ok := s.scrollPlan(frame.Focus); ok {
			frame.Scroll = plan
			frame.State = StateFocusScrolling
			s.lastScrollToken = s.scrollToken
		}
	}
	return frame
}

func (s *OverlaySession) highlight(
	fieldName string,
	fields []domain.ExtractedField,
	spatial []domain.SpatialResult,
	lines []domain.OcrToken,
) []HighlightBox {
	if fieldName == "" {
		return nil
	}
	for _, f := range fields {
		if f.FieldName != fieldName {
			continue
		}
		boxes, tier := s.resolver.Resolve(f, spatial, lines, s.activePage)
		out := make([]HighlightBox, 0, len(boxes))
		for _, b := range boxes {
			out = append(out, HighlightBox{
				FieldName: fieldName,
				Box:       s.viewport.ScreenBox(b),
				Tier:      string(tier),
			})
		}
		return out
	}
	return nil
}

// textSpans positions the selectable layer. Lines are preferred over
// words for natural selection granularity.
func (s *OverlaySession) textSpans(lines, words []domain.OcrToken) []TextSpan {
	onPage := domain.SelectableTokens(lines, words, s.activePage)

	spans := make([]TextSpan, 0, len(onPage))
	for _, tok := range onPage {
		sb := s.viewport.ScreenBox(*tok.BoundingBox)

		safeHeight := sb.Height * spanInsetRatio
		if safeHeight < minSpanHeight {
			safeHeight = minSpanHeight
		}
		safeTop := sb.Top + (sb.Height-safeHeight)/2
		fontSize := safeHeight * spanFontRatio
		if fontSize < minSpanFontSize {
			fontSize = minSpanFontSize
		}

		spans = append(spans, TextSpan{
			Text: tok.Text,
			Box: ScreenBox{
				Left:   sb.Left,
				Top:    safeTop,
				Width:  sb.Width,
				Height: safeHeight,
			},
			FontSize: fontSize,
		})
	}
	return spans
}

func (s *OverlaySession) scrollPlan(focus []HighlightBox) (*ScrollPlan, bool) {
	union := focus[0].Box
	for _, hb := range focus[1:] {
		union = unionScreen(union, hb.Box)
	}
	target, ok := s.viewport.ScrollTargetScreen(union, s.viewportWidth, s.viewportHeight)
	if !ok {
		return nil, false
	}
	return &ScrollPlan{
		Left:          target.Left,
		Top:           target.Top,
		Smooth:        true,
		SettleDelayMS: int(SettleDelay / time.Millisecond),
	}, true
}

func unionScreen(a, b ScreenBox) ScreenBox {
	left := a.Left
	if b.Left < left {
		left = b.Left
	}
	top := a.Top
	if b.Top < top {
		top = b.Top
	}
	right := a.Left + a.Width
	if br := b.Left + b.Width; br > right {
		right = br
	}
	bottom := a.Top + a.Height
	if bb := b.Top + b.Height; bb > bottom {
		bottom = bb
	}
	return ScreenBox{Left: left, Top: top, Width: right - left, Height: bottom - top}
}
