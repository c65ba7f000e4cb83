package domain

// DocumentSummary is the identity block of the dashboard detail payload.
type DocumentSummary struct {
	DocumentID         string `json:"document_id"`
	Filename           string `json:"filename"`
	FileSizeBytes      int64  `json:"file_size_bytes,omitempty"`
	DocumentType       string `json:"document_type,omitempty"`
	RequiresHITLReview bool   `json:"requires_hitl_review,omitempty"`
	Source             string `json:"source,omitempty"`
}

// CostBreakdown is the metrics backend's per-document cost block.
type CostBreakdown struct {
	InputTokens           int     `json:"input_tokens"`
	OutputTokens          int     `json:"output_tokens"`
	TotalTokens           int     `json:"total_tokens"`
	InputCostUSD          float64 `json:"input_cost_usd"`
	OutputCostUSD         float64 `json:"output_cost_usd"`
	TotalCostUSD          float64 `json:"total_cost_usd"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// DiscoveredField is a template-derived field definition attached to the
// detail payload's extraction results.
type DiscoveredField struct {
	FieldName      string   `json:"field_name"`
	NormalizedName string   `json:"normalized_name"`
	Confidence     float64  `json:"confidence"`
	IsMandatory    bool     `json:"is_mandatory"`
	Reason         string   `json:"reason"`
	FieldType      string   `json:"field_type"`
	Location       string   `json:"location,omitempty"`
	Indicators     []string `json:"indicators,omitempty"`
}

// DetailExtractionResults extends the value lists with the discovered
// field definitions present only in the detail payload.
type DetailExtractionResults struct {
	ExtractionLists
	DiscoveredFields []DiscoveredField `json:"discovered_fields"`
}

// DocumentDetail is the metrics backend's full per-document payload,
// requested with all lines, words, and bounding boxes included.
type DocumentDetail struct {
	Success            bool                     `json:"success"`
	Document           DocumentSummary          `json:"document"`
	ExtractionResults  *DetailExtractionResults `json:"extraction_results,omitempty"`
	CostBreakdown      *CostBreakdown           `json:"cost_breakdown,omitempty"`
	ValidationResults  []ValidationResult       `json:"validation_results,omitempty"`
	PageDimensions     []Page                   `json:"page_dimensions,omitempty"`
	BoundingBoxResults *BoundingBoxResults      `json:"bounding_box_results,omitempty"`
	RawTextPreview     string                   `json:"raw_text_preview"`
	MetricsRecordID    int64                    `json:"metrics_record_id"`
	BlobURL            string                   `json:"blob_url,omitempty"`
	Error              string                   `json:"error,omitempty"`
}
