package domain

import "time"

// CorrectionRecord is one audited field correction: what the reviewer
// changed, from what, to what, and when the backend confirmed it.
type CorrectionRecord struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	ReviewerID     string    `json:"reviewer_id"`
	FieldName      string    `json:"field_name"`
	PreviousValue  string    `json:"previous_value"`
	CorrectedValue string    `json:"corrected_value"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// IsApproved reports the review lock: a document counts as approved once
// any field carries a confirmed correction. Approval is a one-way
// transition; edits and submission are disabled afterwards.
func IsApproved(fields []ExtractedField) bool {
	for _, f := range fields {
		if f.WasCorrected {
			return true
		}
	}
	return false
}
