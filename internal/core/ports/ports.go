package ports

import (
	"context"
	"image"
	"io"

	"github.com/docuflow/review-console/internal/core/domain"
)

// UploadFile is an in-memory upload forwarded to the extraction gateway.
type UploadFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExtractionGateway is the OCR/LLM extraction backend.
type ExtractionGateway interface {
	Analyze(ctx context.Context, file UploadFile) (*domain.ExtractionResponse, error)
	AnalyzeAzure(ctx context.Context, file UploadFile) (*domain.ExtractionResponse, error)
}

// ValidationService is the HITL correction backend.
type ValidationService interface {
	FetchFinalValues(ctx context.Context, documentID string) ([]domain.ExtractedField, error)
	SubmitBatch(ctx context.Context, documentID, reviewerID string, corrections []domain.Correction) error
}

// DashboardService is the metrics/dashboard backend.
type DashboardService interface {
	ListDocuments(ctx context.Context, q domain.ListQuery) (*domain.ListPage, error)
	GetDocument(ctx context.Context, documentID string) (*domain.DocumentDetail, error)
	Ping(ctx context.Context) error
}

// TemplateService is the admin template-storage backend.
type TemplateService interface {
	ListTemplates(ctx context.Context) (*domain.TemplatePage, error)
	CreateTemplate(ctx context.Context, t domain.Template) (*domain.Template, error)
	UpdateTemplate(ctx context.Context, id string, t domain.Template) (*domain.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// PageRaster is a rendered page image and its actual pixel dimensions,
// which drive all overlay math for the page.
type PageRaster struct {
	Image       image.Image
	PixelWidth  int
	PixelHeight int
}

// PageRasterizer renders one page of a stored document to a raster image.
type PageRasterizer interface {
	RenderPage(ctx context.Context, path string, pageNumber int) (*PageRaster, error)
	PageCount(ctx context.Context, path string) (int, error)
}

// UploadProber checks an uploaded PDF's structure and reports its page
// count before the bytes are forwarded to the extraction backend.
type UploadProber interface {
	ProbePDF(ctx context.Context, content []byte) (int, error)
}

// TextLayerExtractor recovers positioned line tokens from a digital PDF's
// embedded text, used as the selectable-layer fallback when the extraction
// payload carries no OCR geometry.
type TextLayerExtractor interface {
	ExtractLines(ctx context.Context, path string, pageNumber int) ([]domain.OcrToken, error)
}

// ObjectStorage keeps uploaded document bytes so pages can be rasterized
// after the analyze call has completed.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// ReviewStore is the console's durable audit of confirmed corrections.
type ReviewStore interface {
	RecordCorrections(ctx context.Context, records []domain.CorrectionRecord) error
	History(ctx context.Context, documentID string) ([]domain.CorrectionRecord, error)
}
