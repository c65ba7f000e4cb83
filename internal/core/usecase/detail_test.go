package usecase

import (
	"testing"

	"github.com/docuflow/review-console/internal/core/domain"
)

func detailWithLists(lists domain.ExtractionLists) *domain.DocumentDetail {
	return &domain.DocumentDetail{
		Success: true,
		Document: domain.DocumentSummary{
			DocumentID: "doc-1",
			Filename:   "invoice.pdf",
		},
		ExtractionResults: &domain.DetailExtractionResults{ExtractionLists: lists},
	}
}

func TestMapDetailPrefersFinalValues(t *testing.T) {
	d := detailWithLists(domain.ExtractionLists{
		OriginalValues: []domain.ExtractedField{fld("total", "100")},
		FinalValues:    []domain.ExtractedField{fld("total", "120")},
	})

	resp := MapDetail(d)
	if len(resp.ExtractedValues) != 1 || resp.ExtractedValues[0].FieldValue != "120" {
		t.Fatalf("values = %+v, want the final value", resp.ExtractedValues)
	}
	if resp.DocumentID != "doc-1" || resp.Filename != "invoice.pdf" {
		t.Fatalf("identity = %q/%q", resp.DocumentID, resp.Filename)
	}
}

func TestMapDetailRepairsMetadataFromOriginal(t *testing.T) {
	orig := domain.ExtractedField{
		FieldName:        "total",
		FieldValue:       "100",
		Confidence:       0.9,
		PageNumber:       3,
		ExtractionMethod: "llm",
		BoundingBox:      boxPtr(1, 2, 3, 4),
	}
	// Final values arrive stripped to name and value.
	d := detailWithLists(domain.ExtractionLists{
		OriginalValues: []domain.ExtractedField{orig},
		FinalValues:    []domain.ExtractedField{{FieldName: "total", FieldValue: "120"}},
	})

	got := MapDetail(d).ExtractedValues[0]
	if got.Confidence != 0.9 || got.PageNumber != 3 || got.ExtractionMethod != "llm" {
		t.Fatalf("metadata not repaired: %+v", got)
	}
	if got.BoundingBox == nil || *got.BoundingBox != box(1, 2, 3, 4) {
		t.Fatalf("box not repaired: %+v", got.BoundingBox)
	}
	if got.FieldValue != "120" {
		t.Fatalf("value = %v, the final value must survive the repair", got.FieldValue)
	}
}

func TestMapDetailFallsBackToSpatialIndex(t *testing.T) {
	d := detailWithLists(domain.ExtractionLists{
		FinalValues: []domain.ExtractedField{{FieldName: "total", FieldValue: "120"}},
	})
	d.BoundingBoxResults = &domain.BoundingBoxResults{
		ExtractedData: []domain.SpatialResult{
			{FieldName: "total", PageNumber: 2, BoundingBox: boxPtr(5, 6, 7, 8)},
		},
	}

	got := MapDetail(d).ExtractedValues[0]
	if got.PageNumber != 2 {
		t.Fatalf("page = %d, want the spatial index page", got.PageNumber)
	}
	if got.BoundingBox == nil || *got.BoundingBox != box(5, 6, 7, 8) {
		t.Fatalf("box = %+v, want the spatial index box", got.BoundingBox)
	}
}

func TestMapDetailMarksCorrectedFields(t *testing.T) {
	d := detailWithLists(domain.ExtractionLists{
		OriginalValues:  []domain.ExtractedField{fld("a", "1"), fld("b", "2")},
		CorrectedValues: []domain.ExtractedField{fld("b", "3")},
		FinalValues:     []domain.ExtractedField{fld("a", "1"), fld("b", "3")},
	})

	resp := MapDetail(d)
	byName := map[string]domain.ExtractedField{}
	for _, f := range resp.ExtractedValues {
		byName[f.FieldName] = f
	}
	if byName["a"].WasCorrected {
		t.Fatal("a was never corrected")
	}
	if !byName["b"].WasCorrected {
		t.Fatal("b must carry the corrected mark")
	}
}

func TestMapDetailWordsFallBackToLines(t *testing.T) {
	d := detailWithLists(domain.ExtractionLists{})
	d.BoundingBoxResults = &domain.BoundingBoxResults{
		Lines: []domain.OcrToken{line("only lines", 1, box(0, 0, 10, 10))},
	}

	resp := MapDetail(d)
	if len(resp.OcrWords) != 1 || resp.OcrWords[0].Text != "only lines" {
		t.Fatalf("words = %+v, want the line tokens as fallback", resp.OcrWords)
	}
}

func TestMapDetailRecomputesStatistics(t *testing.T) {
	d := detailWithLists(domain.ExtractionLists{
		FinalValues: []domain.ExtractedField{
			{FieldName: "a", FieldValue: "x", Confidence: 1.0},
			{FieldName: "b", FieldValue: "y", Confidence: 0.5},
		},
	})
	d.ExtractionResults.DiscoveredFields = []domain.DiscoveredField{
		{FieldName: "a", IsMandatory: true},
		{FieldName: "b"},
	}

	stats := MapDetail(d).Statistics
	if stats.TotalFields != 2 {
		t.Fatalf("total = %d, want 2", stats.TotalFields)
	}
	if stats.HighConfidenceCount != 1 {
		t.Fatalf("high confidence = %d, want 1", stats.HighConfidenceCount)
	}
	if stats.AverageConfidence != 0.75 {
		t.Fatalf("average = %v, want 0.75", stats.AverageConfidence)
	}
	if stats.MandatoryCount != 1 || stats.MandatoryPercentage != 50 {
		t.Fatalf("mandatory = %d (%v%%), want 1 (50%%)", stats.MandatoryCount, stats.MandatoryPercentage)
	}
}

func TestMapDetailCostBreakdown(t *testing.T) {
	d := detailWithLists(domain.ExtractionLists{})
	d.CostBreakdown = &domain.CostBreakdown{
		InputTokens:           100,
		OutputTokens:          50,
		TotalTokens:           150,
		TotalCostUSD:          0.12,
		ProcessingTimeSeconds: 4.2,
	}

	resp := MapDetail(d)
	if resp.TokenUsage.TotalTokens != 150 || resp.CostInfo.TotalCostUSD != 0.12 {
		t.Fatalf("cost block not mapped: %+v %+v", resp.TokenUsage, resp.CostInfo)
	}
	if resp.TimeTakenSeconds != 4.2 {
		t.Fatalf("time = %v, want 4.2", resp.TimeTakenSeconds)
	}
}

func TestMapDetailNil(t *testing.T) {
	if MapDetail(nil) != nil {
		t.Fatal("nil detail must map to nil")
	}
}
