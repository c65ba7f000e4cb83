package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/infrastructure/resilience"
)

// DashboardClient talks to the metrics/dashboard service that stores
// per-document records and rendered blobs.
type DashboardClient struct {
	client
	sasToken string
}

func NewDashboardClient(baseURL, sasToken string, executor *resilience.Executor) *DashboardClient {
	return &DashboardClient{
		client:   newClient(baseURL, 30*time.Second, executor),
		sasToken: sasToken,
	}
}

type dashboardRow struct {
	ID                 string     `json:"id"`
	DocumentID         string     `json:"document_id"`
	Filename           string     `json:"filename"`
	DocumentType       string     `json:"document_type"`
	Status             string     `json:"status"`
	Source             string     `json:"source"`
	CreatedAt          time.Time  `json:"created_at"`
	FileSizeBytes      int64      `json:"file_size_bytes"`
	RequiresHITLReview bool       `json:"requires_hitl_review"`
	ReviewCompletedAt  *time.Time `json:"review_completed_at"`
}

func (c *DashboardClient) ListDocuments(ctx context.Context, q domain.ListQuery) (*domain.ListPage, error) {
	query := listQueryValues(q)

	var resp struct {
		Documents  []dashboardRow `json:"documents"`
		TotalCount int            `json:"total_count"`
	}
	if err := c.getJSON(ctx, "/dashboard/documents", query, &resp, "dashboard.list"); err != nil {
		return nil, err
	}

	rows := make([]domain.ListRow, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		id := d.ID
		if id == "" {
			id = d.DocumentID
		}
		rows = append(rows, domain.ListRow{
			ID:                  id,
			Filename:            d.Filename,
			DocumentType:        d.DocumentType,
			OCRVariant:          domain.MapSourceToVariant(d.Source),
			Status:              domain.MapBackendStatus(d.Status),
			CreatedAt:           d.CreatedAt,
			FileSizeBytes:       d.FileSizeBytes,
			RequiresHumanReview: d.RequiresHITLReview,
			ReviewCompletedAt:   d.ReviewCompletedAt,
		})
	}
	return &domain.ListPage{Documents: rows, TotalCount: resp.TotalCount}, nil
}

func (c *DashboardClient) GetDocument(ctx context.Context, documentID string) (*domain.DocumentDetail, error) {
	query := url.Values{}
	query.Set("include_all_lines", "true")
	query.Set("include_all_words", "true")
	query.Set("include_bounding_boxes", "true")

	var detail domain.DocumentDetail
	err := c.getJSON(ctx, "/dashboard/documents/"+url.PathEscape(documentID), query, &detail, "dashboard.get")
	if err != nil {
		return nil, err
	}
	if !detail.Success {
		if detail.Error != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, detail.Error)
		}
		return nil, domain.ErrDocumentNotFound
	}

	detail.BlobURL = SignBlobURL(detail.BlobURL, c.sasToken)
	return &detail, nil
}

func (c *DashboardClient) Ping(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil, nil, "dashboard.ping")
}

func listQueryValues(q domain.ListQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sort_order", q.SortOrder)
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	if q.DocumentTypes != "" {
		v.Set("document_types", q.DocumentTypes)
	}
	if q.Statuses != "" {
		v.Set("statuses", q.Statuses)
	}
	if q.RequiresHITLReview != nil {
		v.Set("requires_hitl_review", strconv.FormatBool(*q.RequiresHITLReview))
	}
	if q.ReviewerID != "" {
		v.Set("reviewer_id", q.ReviewerID)
	}
	if q.Source != "" {
		v.Set("source", q.Source)
	}
	if q.FilenameContains != "" {
		v.Set("filename_contains", q.FilenameContains)
	}
	if q.MinCost != nil {
		v.Set("min_cost", strconv.FormatFloat(*q.MinCost, 'f', -1, 64))
	}
	if q.MaxCost != nil {
		v.Set("max_cost", strconv.FormatFloat(*q.MaxCost, 'f', -1, 64))
	}
	return v
}
