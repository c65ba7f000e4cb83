package usecase

import (
	"reflect"
	"testing"

	"github.com/docuflow/review-console/internal/core/domain"
)

func box(x, y, w, h float64) domain.BoundingBox {
	return domain.BoundingBox{X: x, Y: y, Width: w, Height: h}
}

func boxPtr(x, y, w, h float64) *domain.BoundingBox {
	b := box(x, y, w, h)
	return &b
}

func line(text string, page int, b domain.BoundingBox) domain.OcrToken {
	return domain.OcrToken{Text: text, PageNumber: page, BoundingBox: &b}
}

func TestExactMatchBeatsDefaultCandidate(t *testing.T) {
	r := NewBoxResolver(0)

	field := domain.ExtractedField{
		FieldName:   "invoice_number",
		FieldValue:  "INV-2024-001",
		PageNumber:  1,
		BoundingBox: boxPtr(0, 0, 5, 5),
	}
	spatial := []domain.SpatialResult{
		{FieldName: "invoice_number", PageNumber: 1, BoundingBox: boxPtr(0, 0, 5, 5)},
	}
	lines := []domain.OcrToken{
		line("INV-2024-001", 1, box(10, 20, 80, 12)),
	}

	got, tier := r.Resolve(field, spatial, lines, 1)
	if tier != TierExactSnap {
		t.Fatalf("tier = %v, want exact_snap", tier)
	}
	if want := []domain.BoundingBox{box(10, 20, 80, 12)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved = %+v, want %+v", got, want)
	}
}

func TestMultiLineMerge(t *testing.T) {
	r := NewBoxResolver(0)

	field := domain.ExtractedField{
		FieldName:  "address",
		FieldValue: "123 Main St Springfield IL",
		PageNumber: 1,
	}
	lines := []domain.OcrToken{
		line("123 Main St", 1, box(0, 0, 50, 10)),
		line("Springfield IL", 1, box(0, 12, 60, 10)),
		line("IL", 1, box(200, 200, 10, 10)), // too short to contribute
	}

	got, tier := r.Resolve(field, nil, lines, 1)
	if tier != TierLineMerge {
		t.Fatalf("tier = %v, want line_merge", tier)
	}
	if want := []domain.BoundingBox{box(0, 0, 60, 22)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("merged = %+v, want %+v", got, want)
	}
}

func TestShortMultibyteLineDoesNotMerge(t *testing.T) {
	r := NewBoxResolver(0)

	// Three runes but six bytes: the length threshold counts runes, so
	// this line is still too short to contribute.
	field := domain.ExtractedField{
		FieldName:   "city",
		FieldValue:  "äöü Hausen",
		PageNumber:  1,
		BoundingBox: boxPtr(1, 1, 2, 2),
	}
	lines := []domain.OcrToken{
		line("äöü", 1, box(0, 0, 20, 10)),
	}

	got, tier := r.Resolve(field, nil, lines, 1)
	if tier != TierFieldBox {
		t.Fatalf("tier = %v, want field_box", tier)
	}
	if want := []domain.BoundingBox{box(1, 1, 2, 2)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved = %+v, want %+v", got, want)
	}
}

func TestSpatialResultPreferredOverFieldBox(t *testing.T) {
	r := NewBoxResolver(0)

	field := domain.ExtractedField{
		FieldName:   "total",
		FieldValue:  "no ocr text matches this",
		PageNumber:  1,
		BoundingBox: boxPtr(1, 1, 2, 2),
	}
	spatial := []domain.SpatialResult{
		{FieldName: "total", PageNumber: 1, BoundingBox: boxPtr(7, 7, 9, 9)},
	}

	got, tier := r.Resolve(field, spatial, nil, 1)
	if tier != TierSpatial {
		t.Fatalf("tier = %v, want spatial", tier)
	}
	if want := []domain.BoundingBox{box(7, 7, 9, 9)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved = %+v, want %+v", got, want)
	}
}

func TestFieldBoxFallbackWhenNoSpatialMatch(t *testing.T) {
	r := NewBoxResolver(0)

	field := domain.ExtractedField{
		FieldName:   "total",
		FieldValue:  "nothing snaps",
		PageNumber:  2,
		BoundingBox: boxPtr(3, 4, 5, 6),
	}

	got, tier := r.Resolve(field, nil, nil, 2)
	if tier != TierFieldBox {
		t.Fatalf("tier = %v, want field_box", tier)
	}
	if want := []domain.BoundingBox{box(3, 4, 5, 6)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved = %+v, want %+v", got, want)
	}
}

func TestOffPageCandidateIsAbsent(t *testing.T) {
	r := NewBoxResolver(0)

	field := domain.ExtractedField{
		FieldName:   "total",
		FieldValue:  "nothing snaps",
		PageNumber:  2,
		BoundingBox: boxPtr(3, 4, 5, 6),
	}

	got, tier := r.Resolve(field, nil, nil, 1)
	if tier != TierNone || len(got) != 0 {
		t.Fatalf("off-page field must resolve to nothing, got %+v (%v)", got, tier)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewBoxResolver(0)

	field := domain.ExtractedField{
		FieldName:  "address",
		FieldValue: "123 Main St Springfield IL",
		PageNumber: 1,
	}
	lines := []domain.OcrToken{
		line("123 Main St", 1, box(0, 0, 50, 10)),
		line("Springfield IL", 1, box(0, 12, 60, 10)),
	}

	first, firstTier := r.Resolve(field, nil, lines, 1)
	second, secondTier := r.Resolve(field, nil, lines, 1)
	if !reflect.DeepEqual(first, second) || firstTier != secondTier {
		t.Fatalf("resolver is not idempotent: %+v/%v vs %+v/%v", first, firstTier, second, secondTier)
	}
}

func TestSnapNormalizesWhitespaceAndCase(t *testing.T) {
	r := NewBoxResolver(0)

	field := domain.ExtractedField{
		FieldName:  "vendor",
		FieldValue: "  ACME   Corp  ",
		PageNumber: 1,
	}
	lines := []domain.OcrToken{
		line("acme corp", 1, box(5, 5, 40, 10)),
	}

	got, tier := r.Resolve(field, nil, lines, 1)
	if tier != TierExactSnap {
		t.Fatalf("tier = %v, want exact_snap", tier)
	}
	if want := []domain.BoundingBox{box(5, 5, 40, 10)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved = %+v, want %+v", got, want)
	}
}

func TestMinSnapLineLengthConfigurable(t *testing.T) {
	field := domain.ExtractedField{
		FieldName:  "address",
		FieldValue: "12 Elm",
		PageNumber: 1,
	}
	lines := []domain.OcrToken{
		line("Elm", 1, box(0, 0, 20, 10)),
	}

	// Default threshold rejects the 3-rune line.
	if got, _ := NewBoxResolver(0).Resolve(field, nil, lines, 1); len(got) != 0 {
		t.Fatalf("default threshold should reject short lines, got %+v", got)
	}

	// A lower threshold accepts it.
	got, tier := NewBoxResolver(2).Resolve(field, nil, lines, 1)
	if tier != TierLineMerge || len(got) != 1 {
		t.Fatalf("lowered threshold should merge, got %+v (%v)", got, tier)
	}
}
