// Package pdftext recovers positioned line tokens from a digital PDF's
// embedded text layer. It is the selectable-layer fallback for documents
// whose extraction payload carries no OCR geometry.
package pdftext

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/core/ports"
)

const (
	// defaultTextHeight stands in when a run carries no font size.
	defaultTextHeight = 12.0
	// defaultPageHeight is US Letter in points, used when the page
	// declares no MediaBox.
	defaultPageHeight = 792.0
	// baselineTolerance groups runs whose baselines sit within this
	// many points into one line.
	baselineTolerance = 2.0
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// textRun is one positioned run in top-left document coordinates.
type textRun struct {
	text    string
	x, y    float64
	w, h    float64
	topline float64
}

// ExtractLines reads the embedded text of one page, converts runs from
// the PDF's bottom-left origin to the top-left document space the
// overlay uses, and merges runs sharing a baseline into line tokens.
func (e *Extractor) ExtractLines(ctx context.Context, key string, pageNumber int) ([]domain.OcrToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(e.storage.Path(key))
	if err != nil {
		return nil, domain.WrapError(domain.ErrRenderFailed, "pdftext.extract",
			fmt.Errorf("open pdf: %w", err))
	}
	defer f.Close()

	if pageNumber < 1 || pageNumber > reader.NumPage() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "pdftext.extract",
			fmt.Errorf("page %d of %d", pageNumber, reader.NumPage()))
	}

	page := reader.Page(pageNumber)
	if page.V.IsNull() {
		return nil, nil
	}
	pageHeight := mediaBoxHeight(page)

	var runs []textRun
	for _, text := range page.Content().Text {
		if strings.TrimSpace(text.S) == "" {
			continue
		}
		height := text.FontSize
		if height == 0 {
			height = defaultTextHeight
		}
		// text.Y is the baseline measured from the page bottom.
		top := pageHeight - text.Y - height
		runs = append(runs, textRun{
			text:    text.S,
			x:       text.X,
			y:       top,
			w:       text.W,
			h:       height,
			topline: text.Y,
		})
	}

	return mergeRuns(runs, pageNumber), nil
}

// mergeRuns groups runs by baseline and joins each group left to right
// into one line token with a union bounding box.
func mergeRuns(runs []textRun, pageNumber int) []domain.OcrToken {
	if len(runs) == 0 {
		return nil
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].y != runs[j].y {
			return runs[i].y < runs[j].y
		}
		return runs[i].x < runs[j].x
	})

	var tokens []domain.OcrToken
	group := []textRun{runs[0]}
	for _, run := range runs[1:] {
		if run.y-group[0].y <= baselineTolerance {
			group = append(group, run)
			continue
		}
		tokens = append(tokens, lineToken(group, pageNumber))
		group = []textRun{run}
	}
	tokens = append(tokens, lineToken(group, pageNumber))
	return tokens
}

func lineToken(group []textRun, pageNumber int) domain.OcrToken {
	sort.SliceStable(group, func(i, j int) bool { return group[i].x < group[j].x })

	left, top := group[0].x, group[0].y
	right, bottom := group[0].x+group[0].w, group[0].y+group[0].h
	parts := make([]string, 0, len(group))
	for _, run := range group {
		parts = append(parts, run.text)
		if run.x < left {
			left = run.x
		}
		if run.y < top {
			top = run.y
		}
		if run.x+run.w > right {
			right = run.x + run.w
		}
		if run.y+run.h > bottom {
			bottom = run.y + run.h
		}
	}

	return domain.OcrToken{
		Text:       strings.Join(parts, " "),
		Confidence: 1.0,
		PageNumber: pageNumber,
		BoundingBox: &domain.BoundingBox{
			X:      left,
			Y:      top,
			Width:  right - left,
			Height: bottom - top,
		},
	}
}

// mediaBoxHeight reads the page MediaBox height, falling back to US
// Letter when the entry is missing or malformed.
func mediaBoxHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() < 4 {
		return defaultPageHeight
	}
	y0 := box.Index(1).Float64()
	y1 := box.Index(3).Float64()
	if y1 <= y0 {
		return defaultPageHeight
	}
	return y1 - y0
}
