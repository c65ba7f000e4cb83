package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/docuflow/review-console/internal/core/domain"
)

// DefaultMinSnapLineLength is the minimum normalized length an OCR line
// must exceed to join a multi-line merge. Shorter lines match too many
// field values by accident. Carried over from observed behavior; kept
// configurable because its boundary is unverified for short lines such as
// bare house numbers.
const DefaultMinSnapLineLength = 3

// ResolveTier records which signal produced the resolved box.
type ResolveTier string

const (
	TierNone      ResolveTier = "none"
	TierSpatial   ResolveTier = "spatial"
	TierFieldBox  ResolveTier = "field_box"
	TierExactSnap ResolveTier = "exact_snap"
	TierLineMerge ResolveTier = "line_merge"
)

// BoxResolver computes the best bounding box for a field on a page by
// reconciling three independently produced signals: the backend's spatial
// index, the field's own carried box, and raw OCR line geometry. Exact
// text equality against an OCR line is the most trustworthy signal when it
// exists; a multi-line union covers fields spanning several printed lines;
// the backend-supplied box is the safe fallback.
type BoxResolver struct {
	minSnapLineLength int
}

func NewBoxResolver(minSnapLineLength int) *BoxResolver {
	if minSnapLineLength <= 0 {
		minSnapLineLength = DefaultMinSnapLineLength
	}
	return &BoxResolver{minSnapLineLength: minSnapLineLength}
}

// Resolve returns the box (or merged box) for a field on the active page.
// The result is empty when nothing attributes the field to that page:
// cross-page highlighting is out of scope, so an off-page candidate is
// treated as absent. Resolution is pure; calling it twice with the same
// inputs yields identical output.
func (r *BoxResolver) Resolve(
	field domain.ExtractedField,
	spatial []domain.SpatialResult,
	lines []domain.OcrToken,
	activePage int,
) ([]domain.BoundingBox, ResolveTier) {
	candidate, tier := r.defaultCandidate(field, spatial, activePage)

	normalized := domain.NormalizeText(domain.NormalizeValue(field.FieldValue))
	if normalized == "" {
		return boxList(candidate), tier
	}

	pageLines := domain.TokensOnPage(lines, activePage)

	// Exact match wins unconditionally: a line box is more spatially
	// precise than any field-level box.
	for _, line := range pageLines {
		if domain.NormalizeText(line.Text) == normalized {
			return []domain.BoundingBox{*line.BoundingBox}, TierExactSnap
		}
	}

	var contributing []domain.BoundingBox
	for _, line := range pageLines {
		text := domain.NormalizeText(line.Text)
		if utf8.RuneCountInString(text) <= r.minSnapLineLength {
			continue
		}
		if strings.Contains(normalized, text) {
			contributing = append(contributing, *line.BoundingBox)
		}
	}
	if merged, ok := domain.MergeBoxes(contributing); ok {
		return []domain.BoundingBox{merged}, TierLineMerge
	}

	return boxList(candidate), tier
}

// defaultCandidate applies the first two tiers: a spatial-index entry for
// this field on this page, else the field's own carried box.
func (r *BoxResolver) defaultCandidate(
	field domain.ExtractedField,
	spatial []domain.SpatialResult,
	activePage int,
) (*domain.BoundingBox, ResolveTier) {
	for _, s := range spatial {
		if s.FieldName != field.FieldName || s.BoundingBox == nil {
			continue
		}
		page := s.PageNumber
		if page == 0 {
			page = 1
		}
		if page == activePage {
			return s.BoundingBox, TierSpatial
		}
	}

	if field.BoundingBox != nil {
		page := field.PageNumber
		if page == 0 {
			page = 1
		}
		if page == activePage {
			return field.BoundingBox, TierFieldBox
		}
	}

	return nil, TierNone
}

func boxList(b *domain.BoundingBox) []domain.BoundingBox {
	if b == nil {
		return nil
	}
	return []domain.BoundingBox{*b}
}
