package domain

import "time"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether a status can no longer change without user
// action; the catalog keeps polling while any row is non-terminal.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type OCRVariant string

const (
	VariantEasyOCR OCRVariant = "easy_ocr"
	VariantAzureDI OCRVariant = "azure_di"
)

// ListRow is one catalog entry. Temp rows are optimistic placeholders for
// in-flight uploads and are superseded once a server row with the same
// filename appears.
type ListRow struct {
	ID                  string         `json:"id"`
	Filename            string         `json:"filename"`
	DocumentType        string         `json:"document_type,omitempty"`
	OCRVariant          OCRVariant     `json:"ocr_variant"`
	Status              DocumentStatus `json:"status"`
	CreatedAt           time.Time      `json:"created_at"`
	IsTemp              bool           `json:"is_temp,omitempty"`
	FileSizeBytes       int64          `json:"file_size_bytes,omitempty"`
	RequiresHumanReview bool           `json:"requires_human_review,omitempty"`
	ReviewCompletedAt   *time.Time     `json:"review_completed_at,omitempty"`
}

// ListQuery mirrors the dashboard backend's filter surface.
type ListQuery struct {
	Page               int
	PageSize           int
	SortBy             string
	SortOrder          string
	StartDate          string
	EndDate            string
	DocumentTypes      string
	Statuses           string
	RequiresHITLReview *bool
	ReviewerID         string
	Source             string
	FilenameContains   string
	MinCost            *float64
	MaxCost            *float64
}

// ListPage is one page of catalog rows plus the backend's total.
type ListPage struct {
	Documents  []ListRow `json:"documents"`
	TotalCount int       `json:"total_count"`
}

var backendStatusMap = map[string]DocumentStatus{
	"pending":              StatusPending,
	"processing":           StatusProcessing,
	"completed":            StatusCompleted,
	"failed":               StatusFailed,
	"validation_completed": StatusCompleted,
	"under_review":         StatusCompleted,
	"review_completed":     StatusCompleted,
}

// MapBackendStatus folds the dashboard backend's wider status vocabulary
// onto the four client-visible statuses. Unknown statuses are pending.
func MapBackendStatus(s string) DocumentStatus {
	if mapped, ok := backendStatusMap[s]; ok {
		return mapped
	}
	return StatusPending
}

// MapSourceToVariant derives the OCR variant from the gateway endpoint a
// document was analyzed through.
func MapSourceToVariant(source string) OCRVariant {
	if source == "analyze-azure" {
		return VariantAzureDI
	}
	return VariantEasyOCR
}
