package domain

// Classification is the backend's document-type verdict.
type Classification struct {
	DocumentType  string   `json:"document_type"`
	Confidence    float64  `json:"confidence"`
	Reason        string   `json:"reason"`
	KeyIndicators []string `json:"key_indicators"`
}

type MandatoryField struct {
	FieldName      string   `json:"field_name"`
	NormalizedName string   `json:"normalized_name"`
	Confidence     float64  `json:"confidence"`
	IsMandatory    bool     `json:"is_mandatory"`
	Reason         string   `json:"reason"`
	FieldType      string   `json:"field_type"`
	Location       string   `json:"location"`
	Indicators     []string `json:"indicators"`
}

type ValidationResult struct {
	FieldName           string   `json:"field_name"`
	FieldValue          any      `json:"field_value"`
	Status              string   `json:"status"`
	Errors              []string `json:"errors"`
	Suggestions         []string `json:"suggestions"`
	CorrectedValue      *string  `json:"corrected_value"`
	RequiresHumanReview bool     `json:"requires_human_review"`
}

type Statistics struct {
	TotalFields           int            `json:"total_fields"`
	MandatoryCount        int            `json:"mandatory_count"`
	AverageConfidence     float64        `json:"average_confidence"`
	HighConfidenceCount   int            `json:"high_confidence_count"`
	FieldTypeDistribution map[string]int `json:"field_type_distribution"`
	MandatoryPercentage   float64        `json:"mandatory_percentage"`
}

type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type CostInfo struct {
	InputCostUSD  float64 `json:"input_cost_usd"`
	OutputCostUSD float64 `json:"output_cost_usd"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
}

// ExtractionLists groups the three value lists the backend keeps per
// document: the original extraction, the reviewer corrections, and the
// merged final values.
type ExtractionLists struct {
	OriginalValues  []ExtractedField `json:"original_values"`
	CorrectedValues []ExtractedField `json:"corrected_values"`
	FinalValues     []ExtractedField `json:"final_values"`
}

// ExtractionResponse is the extraction gateway's analyze payload, also the
// shape the console serves to the browser for a document under review.
type ExtractionResponse struct {
	Success             bool               `json:"success"`
	DocumentID          string             `json:"document_id,omitempty"`
	Filename            string             `json:"filename"`
	FileSizeBytes       int64              `json:"file_size_bytes"`
	DocumentType        string             `json:"document_type"`
	Classification      Classification     `json:"classification"`
	MandatoryFields     []MandatoryField   `json:"mandatory_fields"`
	ExtractedValues     []ExtractedField   `json:"extracted_values"`
	ValidationResults   []ValidationResult `json:"validation_results"`
	IsValid             bool               `json:"is_valid"`
	RequiresHumanReview bool               `json:"requires_human_review"`
	HITLFields          []string           `json:"hitl_fields"`
	Statistics          Statistics         `json:"statistics"`
	TokenUsage          TokenUsage         `json:"token_usage"`
	CostInfo            CostInfo           `json:"cost_info"`
	TimeTakenSeconds    float64            `json:"time_taken_seconds"`
	MetricsRecordID     int64              `json:"metrics_record_id"`
	RawTextPreview      string             `json:"raw_text_preview"`
	Error               string             `json:"error,omitempty"`
	BlobURL             string             `json:"blob_url,omitempty"`

	TotalPages     int             `json:"total_pages,omitempty"`
	PageDimensions []Page          `json:"page_dimensions,omitempty"`
	SpatialResults []SpatialResult `json:"spatial_results,omitempty"`
	OcrLines       []OcrToken      `json:"ocr_lines,omitempty"`
	OcrWords       []OcrToken      `json:"ocr_words,omitempty"`

	ExtractionResults *ExtractionLists `json:"extraction_results,omitempty"`
}

// SpatialResult is a bounding box supplied by the backend's spatial index,
// keyed by field name and page, independent of OCR token geometry.
type SpatialResult struct {
	FieldName   string       `json:"field_name"`
	PageNumber  int          `json:"page_number"`
	BoundingBox *BoundingBox `json:"bounding_box"`
}

// BoundingBoxResults carries the spatial index plus raw OCR geometry in the
// dashboard detail payload.
type BoundingBoxResults struct {
	ExtractedData   []SpatialResult `json:"extracted_data"`
	Lines           []OcrToken      `json:"lines"`
	Words           []OcrToken      `json:"words"`
	TotalLinesCount int             `json:"total_lines_count,omitempty"`
	TotalWordsCount int             `json:"total_words_count,omitempty"`
}

// BaseValues resolves the authoritative starting value set for a review
// session: final values when present and non-empty, else original values,
// else nothing.
func (l *ExtractionLists) BaseValues() []ExtractedField {
	if l == nil {
		return nil
	}
	if len(l.FinalValues) > 0 {
		return l.FinalValues
	}
	if len(l.OriginalValues) > 0 {
		return l.OriginalValues
	}
	return nil
}
