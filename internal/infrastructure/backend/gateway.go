package backend

import (
	"context"
	"net/url"
	"time"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/core/ports"
	"github.com/docuflow/review-console/internal/infrastructure/resilience"
)

// azureModelID is the prebuilt layout model the Azure-backed endpoint
// always runs with.
const azureModelID = "prebuilt-read"

// ExtractionClient talks to the extraction gateway's analyze endpoints.
type ExtractionClient struct {
	client
}

func NewExtractionClient(baseURL string, executor *resilience.Executor) *ExtractionClient {
	// Extraction runs OCR plus an LLM pass; it is by far the slowest
	// backend call the console makes.
	return &ExtractionClient{client: newClient(baseURL, 5*time.Minute, executor)}
}

func (c *ExtractionClient) Analyze(ctx context.Context, file ports.UploadFile) (*domain.ExtractionResponse, error) {
	var resp domain.ExtractionResponse
	err := c.postMultipart(ctx, "/analyze", nil,
		file.Filename, file.ContentType, file.Content, &resp, "gateway.analyze")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ExtractionClient) AnalyzeAzure(ctx context.Context, file ports.UploadFile) (*domain.ExtractionResponse, error) {
	query := url.Values{}
	query.Set("skip_validation", "false")
	query.Set("model_id", azureModelID)

	var resp domain.ExtractionResponse
	err := c.postMultipart(ctx, "/analyze-azure", query,
		file.Filename, file.ContentType, file.Content, &resp, "gateway.analyze_azure")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
