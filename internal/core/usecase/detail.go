package usecase

import (
	"github.com/docuflow/review-console/internal/core/domain"
)

const highConfidenceThreshold = 0.8

// MapDetail reshapes the dashboard backend's per-document payload into
// the extraction-response form the review view consumes, so a document
// opened from the catalog behaves exactly like one fresh off analyze.
//
// Value precedence follows the review baseline rule: final values when
// present, else original. Final values often arrive stripped of their
// extraction metadata, so confidence, page and box fall back to the
// original field with the same name, and failing that to the spatial
// index entry.
func MapDetail(d *domain.DocumentDetail) *domain.ExtractionResponse {
	if d == nil {
		return nil
	}

	var lists *domain.ExtractionLists
	var discovered []domain.DiscoveredField
	if d.ExtractionResults != nil {
		lists = &d.ExtractionResults.ExtractionLists
		discovered = d.ExtractionResults.DiscoveredFields
	}

	var spatial []domain.SpatialResult
	var lines, words []domain.OcrToken
	if d.BoundingBoxResults != nil {
		spatial = d.BoundingBoxResults.ExtractedData
		lines = d.BoundingBoxResults.Lines
		words = d.BoundingBoxResults.Words
	}
	if len(words) == 0 {
		words = lines
	}

	fields := mergeFieldMetadata(lists, spatial)

	resp := &domain.ExtractionResponse{
		Success:             d.Success,
		DocumentID:          d.Document.DocumentID,
		Filename:            d.Document.Filename,
		FileSizeBytes:       d.Document.FileSizeBytes,
		DocumentType:        d.Document.DocumentType,
		MandatoryFields:     mandatoryFromDiscovered(discovered),
		ExtractedValues:     fields,
		ValidationResults:   d.ValidationResults,
		IsValid:             len(d.ValidationResults) == 0 || allValid(d.ValidationResults),
		RequiresHumanReview: d.Document.RequiresHITLReview,
		Statistics:          recomputeStatistics(fields, discovered),
		MetricsRecordID:     d.MetricsRecordID,
		RawTextPreview:      d.RawTextPreview,
		Error:               d.Error,
		BlobURL:             d.BlobURL,
		PageDimensions:      d.PageDimensions,
		SpatialResults:      spatial,
		OcrLines:            lines,
		OcrWords:            words,
		ExtractionResults:   lists,
	}

	if cb := d.CostBreakdown; cb != nil {
		resp.TokenUsage = domain.TokenUsage{
			InputTokens:  cb.InputTokens,
			OutputTokens: cb.OutputTokens,
			TotalTokens:  cb.TotalTokens,
		}
		resp.CostInfo = domain.CostInfo{
			InputCostUSD:  cb.InputCostUSD,
			OutputCostUSD: cb.OutputCostUSD,
			TotalCostUSD:  cb.TotalCostUSD,
		}
		resp.TimeTakenSeconds = cb.ProcessingTimeSeconds
	}

	resp.Classification = domain.Classification{
		DocumentType: d.Document.DocumentType,
	}

	return resp
}

// mergeFieldMetadata resolves the displayed value set and repairs each
// field's extraction metadata from the richer sources.
func mergeFieldMetadata(lists *domain.ExtractionLists, spatial []domain.SpatialResult) []domain.ExtractedField {
	base := lists.BaseValues()
	if base == nil {
		return nil
	}

	originals := map[string]domain.ExtractedField{}
	corrected := map[string]bool{}
	if lists != nil {
		for _, f := range lists.OriginalValues {
			originals[f.FieldName] = f
		}
		for _, f := range lists.CorrectedValues {
			corrected[f.FieldName] = true
		}
	}
	spatialByName := map[string]domain.SpatialResult{}
	for _, s := range spatial {
		if _, ok := spatialByName[s.FieldName]; !ok {
			spatialByName[s.FieldName] = s
		}
	}

	out := make([]domain.ExtractedField, 0, len(base))
	for _, f := range base {
		orig, hasOrig := originals[f.FieldName]
		if hasOrig {
			if f.Confidence == 0 {
				f.Confidence = orig.Confidence
			}
			if f.PageNumber == 0 {
				f.PageNumber = orig.PageNumber
			}
			if f.ExtractionMethod == "" {
				f.ExtractionMethod = orig.ExtractionMethod
			}
			if f.BoundingBox == nil {
				f.BoundingBox = orig.BoundingBox
			}
			if f.NormalizedName == "" {
				f.NormalizedName = orig.NormalizedName
			}
		}
		if s, ok := spatialByName[f.FieldName]; ok {
			if f.PageNumber == 0 {
				f.PageNumber = s.PageNumber
			}
			if f.BoundingBox == nil {
				f.BoundingBox = s.BoundingBox
			}
		}
		if f.PageNumber == 0 {
			f.PageNumber = 1
		}
		if corrected[f.FieldName] {
			f.WasCorrected = true
		}
		out = append(out, f)
	}
	return out
}

// recomputeStatistics rebuilds the summary block from the resolved
// field set; the stored one describes the original extraction, not the
// reviewed values.
func recomputeStatistics(fields []domain.ExtractedField, discovered []domain.DiscoveredField) domain.Statistics {
	stats := domain.Statistics{
		TotalFields:           len(fields),
		FieldTypeDistribution: map[string]int{},
	}

	var confidenceSum float64
	for _, f := range fields {
		confidenceSum += f.Confidence
		if f.Confidence >= highConfidenceThreshold {
			stats.HighConfidenceCount++
		}
		stats.FieldTypeDistribution[domain.ClassifyValue(f.FieldValue).String()]++
	}
	if len(fields) > 0 {
		stats.AverageConfidence = confidenceSum / float64(len(fields))
	}

	for _, df := range discovered {
		if df.IsMandatory {
			stats.MandatoryCount++
		}
	}
	if stats.TotalFields > 0 {
		stats.MandatoryPercentage = float64(stats.MandatoryCount) / float64(stats.TotalFields) * 100
	}
	return stats
}

func mandatoryFromDiscovered(discovered []domain.DiscoveredField) []domain.MandatoryField {
	if len(discovered) == 0 {
		return nil
	}
	out := make([]domain.MandatoryField, 0, len(discovered))
	for _, df := range discovered {
		out = append(out, domain.MandatoryField{
			FieldName:      df.FieldName,
			NormalizedName: df.NormalizedName,
			Confidence:     df.Confidence,
			IsMandatory:    df.IsMandatory,
			Reason:         df.Reason,
			FieldType:      df.FieldType,
			Location:       df.Location,
			Indicators:     df.Indicators,
		})
	}
	return out
}

func allValid(results []domain.ValidationResult) bool {
	for _, r := range results {
		if r.Status != "valid" {
			return false
		}
	}
	return true
}
