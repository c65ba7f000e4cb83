package usecase

import (
	"errors"
	"testing"

	"github.com/docuflow/review-console/internal/core/domain"
)

func newReadySession(t *testing.T) *OverlaySession {
	t.Helper()

	s := NewOverlaySession(NewBoxResolver(0), 1264, 800, 600)
	token := s.BeginRaster(1)
	if s.State() != StateRasterLoading {
		t.Fatalf("state after BeginRaster = %v, want raster_loading", s.State())
	}

	page := domain.Page{PageNumber: 1, Width: 612, Height: 792, Unit: "pixel"}
	if !s.CompleteRaster(token, page, 1224, 1584) {
		t.Fatal("CompleteRaster rejected a current token")
	}
	return s
}

func TestFrameIsNilUntilRasterReady(t *testing.T) {
	s := NewOverlaySession(NewBoxResolver(0), 1264, 800, 600)
	if frame := s.Frame(nil, nil, nil, nil, "", ""); frame != nil {
		t.Fatalf("idle session rendered a frame: %+v", frame)
	}

	s.BeginRaster(1)
	if frame := s.Frame(nil, nil, nil, nil, "", ""); frame != nil {
		t.Fatalf("loading session rendered a frame: %+v", frame)
	}
}

func TestStaleRasterCompletionDiscarded(t *testing.T) {
	s := NewOverlaySession(NewBoxResolver(0), 1264, 800, 600)
	stale := s.BeginRaster(1)
	s.BeginRaster(2)

	page := domain.Page{PageNumber: 1, Width: 612, Height: 792}
	if s.CompleteRaster(stale, page, 1224, 1584) {
		t.Fatal("superseded token was accepted")
	}
	if s.State() != StateRasterLoading {
		t.Fatalf("state = %v, want raster_loading while the current page decodes", s.State())
	}
	if s.ActivePage() != 2 {
		t.Fatalf("active page = %d, want 2", s.ActivePage())
	}
}

func TestFailRasterKeepsPreviousView(t *testing.T) {
	s := newReadySession(t)

	token := s.BeginRaster(2)
	err := s.FailRaster(token, errors.New("corrupt page"))
	if !domain.IsKind(err, domain.ErrRenderFailed) {
		t.Fatalf("err = %v, want render failed kind", err)
	}
	if s.State() != StateRasterReady {
		t.Fatalf("state = %v, previous raster should stay visible", s.State())
	}
	if frame := s.Frame(nil, nil, nil, nil, "", ""); frame == nil {
		t.Fatal("previous raster should still render a frame")
	}
}

func TestZoomSurvivesPageSwitch(t *testing.T) {
	s := newReadySession(t)
	s.SetZoom(2.0)

	token := s.BeginRaster(2)
	page := domain.Page{PageNumber: 2, Width: 612, Height: 792}
	if !s.CompleteRaster(token, page, 1224, 1584) {
		t.Fatal("CompleteRaster rejected a current token")
	}

	frame := s.Frame(nil, nil, nil, nil, "", "")
	if frame == nil || frame.Zoom != 2.0 {
		t.Fatalf("frame = %+v, want zoom 2.0 carried across the switch", frame)
	}
}

func TestTextSpanInset(t *testing.T) {
	s := newReadySession(t)
	s.SetZoom(1.0)

	// ppi = 1224/612 = 2. A 10-unit-tall line renders 20px tall.
	lines := []domain.OcrToken{
		line("Invoice", 1, box(5, 10, 50, 10)),
	}

	frame := s.Frame(nil, nil, lines, nil, "", "")
	if frame == nil || len(frame.Spans) != 1 {
		t.Fatalf("frame = %+v, want exactly one span", frame)
	}

	span := frame.Spans[0]
	if span.Box.Height != 17 { // 20 * 0.85
		t.Fatalf("span height = %v, want 17", span.Box.Height)
	}
	if span.Box.Top != 21.5 { // 20 + (20-17)/2
		t.Fatalf("span top = %v, want 21.5", span.Box.Top)
	}
	if got, want := span.FontSize, span.Box.Height*spanFontRatio; got != want {
		t.Fatalf("font size = %v, want %v", got, want)
	}
}

func TestTextSpanFontFloor(t *testing.T) {
	s := newReadySession(t)
	s.SetZoom(0.5)

	// 2-unit-tall line at ppi 2 and zoom 0.5 renders 2px tall; the
	// inset span still gets the minimum readable font size.
	lines := []domain.OcrToken{
		line("tiny", 1, box(0, 0, 10, 2)),
	}

	frame := s.Frame(nil, nil, lines, nil, "", "")
	if frame == nil || len(frame.Spans) != 1 {
		t.Fatalf("frame = %+v, want exactly one span", frame)
	}
	if frame.Spans[0].FontSize != minSpanFontSize {
		t.Fatalf("font size = %v, want floor %v", frame.Spans[0].FontSize, minSpanFontSize)
	}
}

func TestWordsUsedWhenNoLines(t *testing.T) {
	s := newReadySession(t)

	words := []domain.OcrToken{
		line("fallback", 1, box(0, 0, 30, 8)),
	}
	frame := s.Frame(nil, nil, nil, words, "", "")
	if frame == nil || len(frame.Spans) != 1 {
		t.Fatalf("frame = %+v, want word-level span fallback", frame)
	}
}

func TestFocusScrollEmittedOncePerToken(t *testing.T) {
	s := newReadySession(t)

	fields := []domain.ExtractedField{
		{FieldName: "total", FieldValue: "no ocr match", PageNumber: 1, BoundingBox: boxPtr(100, 200, 10, 10)},
	}

	// No token bump yet: frame renders the focus layer but no scroll.
	frame := s.Frame(fields, nil, nil, nil, "", "total")
	if frame == nil || len(frame.Focus) != 1 {
		t.Fatalf("frame = %+v, want one focus box", frame)
	}
	if frame.Scroll != nil {
		t.Fatal("scroll plan emitted without a token bump")
	}

	s.RequestFocusScroll()
	frame = s.Frame(fields, nil, nil, nil, "", "total")
	if frame == nil || frame.Scroll == nil {
		t.Fatalf("frame = %+v, want a scroll plan after a token bump", frame)
	}
	if !frame.Scroll.Smooth || frame.Scroll.SettleDelayMS != 100 {
		t.Fatalf("scroll plan = %+v, want smooth with 100ms settle", frame.Scroll)
	}
	if frame.State != StateFocusScrolling {
		t.Fatalf("state = %v, want focus_scrolling", frame.State)
	}

	// Same token: the plan is not re-emitted on the next frame.
	frame = s.Frame(fields, nil, nil, nil, "", "total")
	if frame.Scroll != nil {
		t.Fatal("scroll plan re-emitted for an already-consumed token")
	}
}

func TestScrollCentersFocusCentroid(t *testing.T) {
	s := newReadySession(t)
	s.SetZoom(1.0)

	// ppi 2: box {100,200,10,10} renders at {200,400,20,20},
	// centroid (210, 410) plus 16px padding, minus half viewport.
	fields := []domain.ExtractedField{
		{FieldName: "total", FieldValue: "no ocr match", PageNumber: 1, BoundingBox: boxPtr(100, 200, 10, 10)},
	}

	s.RequestFocusScroll()
	frame := s.Frame(fields, nil, nil, nil, "", "total")
	if frame == nil || frame.Scroll == nil {
		t.Fatalf("frame = %+v, want a scroll plan", frame)
	}
	if frame.Scroll.Left != 0 { // 16+210-400 clamps at zero
		t.Fatalf("scroll left = %v, want 0", frame.Scroll.Left)
	}
	if frame.Scroll.Top != 126 { // 16+410-300
		t.Fatalf("scroll top = %v, want 126", frame.Scroll.Top)
	}
}

func TestHoverAndFocusLayersIndependent(t *testing.T) {
	s := newReadySession(t)

	fields := []domain.ExtractedField{
		{FieldName: "total", FieldValue: "x1", PageNumber: 1, BoundingBox: boxPtr(1, 1, 2, 2)},
		{FieldName: "vendor", FieldValue: "x2", PageNumber: 1, BoundingBox: boxPtr(5, 5, 2, 2)},
	}

	frame := s.Frame(fields, nil, nil, nil, "vendor", "total")
	if frame == nil || len(frame.Hover) != 1 || len(frame.Focus) != 1 {
		t.Fatalf("frame = %+v, want one hover and one focus box", frame)
	}
	if frame.Hover[0].FieldName != "vendor" || frame.Focus[0].FieldName != "total" {
		t.Fatalf("layer attribution wrong: hover=%+v focus=%+v", frame.Hover, frame.Focus)
	}
}
