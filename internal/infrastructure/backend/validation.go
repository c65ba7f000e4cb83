package backend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/infrastructure/resilience"
)

// ValidationClient talks to the HITL correction service.
type ValidationClient struct {
	client
}

func NewValidationClient(baseURL string, executor *resilience.Executor) *ValidationClient {
	return &ValidationClient{client: newClient(baseURL, 30*time.Second, executor)}
}

func (c *ValidationClient) FetchFinalValues(ctx context.Context, documentID string) ([]domain.ExtractedField, error) {
	var resp struct {
		Success bool `json:"success"`
		Record  struct {
			Final struct {
				ExtractedValues []domain.ExtractedField `json:"extracted_values"`
			} `json:"final"`
		} `json:"record"`
	}
	err := c.getJSON(ctx, "/hitl/document/"+url.PathEscape(documentID), nil, &resp, "validation.fetch_final")
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("validation record for %s not available", documentID)
	}
	return resp.Record.Final.ExtractedValues, nil
}

func (c *ValidationClient) SubmitBatch(ctx context.Context, documentID, reviewerID string, corrections []domain.Correction) error {
	query := url.Values{}
	query.Set("document_id", documentID)
	query.Set("reviewer_id", reviewerID)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	err := c.postJSON(ctx, "/hitl/submit-batch", query, corrections, &resp, "validation.submit_batch")
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Error != "" {
			return fmt.Errorf("submit batch rejected: %s", resp.Error)
		}
		return fmt.Errorf("submit batch rejected")
	}
	return nil
}
