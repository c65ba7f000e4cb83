package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/core/ports"
)

// ReviewUseCase drives the correction workflow for one document at a
// time: load the authoritative values, accumulate edits, submit the
// diff, then reconcile against the backend's confirmed final values.
type ReviewUseCase struct {
	validation ports.ValidationService
	history    ports.ReviewStore
	reviewerID string
}

func NewReviewUseCase(
	validation ports.ValidationService,
	history ports.ReviewStore,
	reviewerID string,
) *ReviewUseCase {
	return &ReviewUseCase{
		validation: validation,
		history:    history,
		reviewerID: reviewerID,
	}
}

// ReviewSession holds per-document review state. originalValues is the
// diff baseline; displayed is what the reviewer sees and edits. The
// session is the sole mutator of both.
type ReviewSession struct {
	mu sync.Mutex

	documentID string
	order      []string
	displayed  map[string]domain.ExtractedField
	original   map[string]string
	saving     bool
}

// Load builds a session from an extraction response. The baseline is
// the response's final values when present, else its original values,
// else the top-level extracted values.
func (uc *ReviewUseCase) Load(documentID string, resp *domain.ExtractionResponse) *ReviewSession {
	base := resp.ExtractionResults.BaseValues()
	if base == nil {
		base = resp.ExtractedValues
	}

	s := &ReviewSession{
		documentID: documentID,
		displayed:  make(map[string]domain.ExtractedField, len(base)),
		original:   make(map[string]string, len(base)),
	}
	for _, f := range base {
		if _, dup := s.displayed[f.FieldName]; dup {
			continue
		}
		s.order = append(s.order, f.FieldName)
		s.displayed[f.FieldName] = f
		s.original[f.FieldName] = domain.NormalizeValue(f.FieldValue)
	}
	return s
}

func (s *ReviewSession) DocumentID() string { return s.documentID }

// Fields returns the displayed field set in load order.
func (s *ReviewSession) Fields() []domain.ExtractedField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fieldsLocked()
}

func (s *ReviewSession) fieldsLocked() []domain.ExtractedField {
	out := make([]domain.ExtractedField, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.displayed[name])
	}
	return out
}

// IsApproved reports the review lock; it is derived, not stored.
func (s *ReviewSession) IsApproved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.IsApproved(s.fieldsLocked())
}

func (s *ReviewSession) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Edit updates the displayed value for one field. It is a no-op once
// the document is approved or for unknown fields.
func (s *ReviewSession) Edit(fieldName string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if domain.IsApproved(s.fieldsLocked()) {
		return false
	}
	f, ok := s.displayed[fieldName]
	if !ok {
		return false
	}
	f.FieldValue = value
	s.displayed[fieldName] = f
	return true
}

// Diff computes the corrected-field set: every field whose normalized
// string form differs from the baseline. The same normalization feeds
// the value sent to the backend.
func (s *ReviewSession) Diff() []domain.Correction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diffLocked()
}

func (s *ReviewSession) diffLocked() []domain.Correction {
	var out []domain.Correction
	for _, name := range s.order {
		current := domain.NormalizeValue(s.displayed[name].FieldValue)
		if current != s.original[name] {
			out = append(out, domain.Correction{FieldName: name, CorrectedValue: current})
		}
	}
	return out
}

// SubmitResult reports what a submit did.
type SubmitResult struct {
	NoChanges bool                    `json:"no_changes"`
	Submitted []domain.Correction     `json:"submitted,omitempty"`
	Fields    []domain.ExtractedField `json:"fields,omitempty"`
}

// SubmitEdits posts the diff to the correction backend, optimistically
// locks the corrected fields, then reconciles against the backend's
// authoritative final values. Local values win only while the backend
// still reports the field unchanged, which covers the window where the
// follow-up read lands before the backend's write is visible.
func (uc *ReviewUseCase) SubmitEdits(ctx context.Context, s *ReviewSession) (*SubmitResult, error) {
	s.mu.Lock()

	if domain.IsApproved(s.fieldsLocked()) {
		s.mu.Unlock()
		return nil, domain.ErrReviewLocked
	}
	if s.documentID == "" {
		s.mu.Unlock()
		return nil, domain.WrapError(domain.ErrMissingIdentity, "review.submit",
			fmt.Errorf("no document id for correction submit"))
	}

	corrections := s.diffLocked()
	if len(corrections) == 0 {
		s.mu.Unlock()
		return &SubmitResult{NoChanges: true}, nil
	}

	s.saving = true
	docID := s.documentID
	previous := make(map[string]string, len(corrections))
	for _, c := range corrections {
		previous[c.FieldName] = s.original[c.FieldName]
	}
	s.mu.Unlock()

	err := uc.validation.SubmitBatch(ctx, docID, uc.reviewerID, corrections)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("submit corrections: %w", err)
	}

	// Optimistic lock: every submitted field is marked corrected now,
	// before the backend's own state is re-read.
	for _, c := range corrections {
		f := s.displayed[c.FieldName]
		f.FieldValue = c.CorrectedValue
		f.WasCorrected = true
		s.displayed[c.FieldName] = f
	}
	s.mu.Unlock()

	uc.recordHistory(ctx, docID, corrections, previous)

	if final, ferr := uc.validation.FetchFinalValues(ctx, docID); ferr == nil {
		s.reconcile(final)
	}
	// A failed follow-up read is not an error: the optimistic state
	// already reflects what the reviewer submitted.

	s.mu.Lock()
	defer s.mu.Unlock()
	return &SubmitResult{Submitted: corrections, Fields: s.fieldsLocked()}, nil
}

func (uc *ReviewUseCase) recordHistory(
	ctx context.Context,
	documentID string,
	corrections []domain.Correction,
	previous map[string]string,
) {
	if uc.history == nil {
		return
	}
	now := time.Now().UTC()
	records := make([]domain.CorrectionRecord, 0, len(corrections))
	for _, c := range corrections {
		records = append(records, domain.CorrectionRecord{
			ID:             uuid.NewString(),
			DocumentID:     documentID,
			ReviewerID:     uc.reviewerID,
			FieldName:      c.FieldName,
			PreviousValue:  previous[c.FieldName],
			CorrectedValue: c.CorrectedValue,
			SubmittedAt:    now,
		})
	}
	// Audit is best effort; a write failure never undoes the submit.
	_ = uc.history.RecordCorrections(ctx, records)
}

// reconcile merges the backend's confirmed values into the session. For
// each field present in both, the local copy is kept only when it
// diverged from the baseline while the backend's did not.
func (s *ReviewSession) reconcile(final []domain.ExtractedField) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, backend := range final {
		local, ok := s.displayed[backend.FieldName]
		if !ok {
			continue
		}
		baseline := s.original[backend.FieldName]
		localDiff := domain.NormalizeValue(local.FieldValue) != baseline
		backendDiff := domain.NormalizeValue(backend.FieldValue) != baseline

		if localDiff && !backendDiff {
			continue
		}
		// Adopt the backend's value and metadata; a confirmed
		// correction keeps the lock even if the value round-trips
		// identical to the baseline.
		if local.WasCorrected {
			backend.WasCorrected = true
		}
		s.displayed[backend.FieldName] = backend
	}
}

// History returns the audited corrections for a document.
func (uc *ReviewUseCase) History(ctx context.Context, documentID string) ([]domain.CorrectionRecord, error) {
	if documentID == "" {
		return nil, domain.WrapError(domain.ErrMissingIdentity, "review.history",
			fmt.Errorf("no document id"))
	}
	if uc.history == nil {
		return nil, nil
	}
	records, err := uc.history.History(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load correction history: %w", err)
	}
	return records, nil
}
