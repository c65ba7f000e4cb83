package bootstrap

import (
	"context"
	"fmt"

	"github.com/docuflow/review-console/internal/config"
	"github.com/docuflow/review-console/internal/core/ports"
	"github.com/docuflow/review-console/internal/core/usecase"
	"github.com/docuflow/review-console/internal/infrastructure/backend"
	"github.com/docuflow/review-console/internal/infrastructure/pdftext"
	"github.com/docuflow/review-console/internal/infrastructure/raster"
	"github.com/docuflow/review-console/internal/infrastructure/repository/postgres"
	"github.com/docuflow/review-console/internal/infrastructure/resilience"
	"github.com/docuflow/review-console/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Dashboard ports.DashboardService
	Templates ports.TemplateService

	AnalyzeUC *usecase.AnalyzeUseCase
	CatalogUC *usecase.CatalogUseCase
	ReviewUC  *usecase.ReviewUseCase

	Rasterizer ports.PageRasterizer
	TextLayer  ports.TextLayerExtractor
	Resolver   *usecase.BoxResolver

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	reviewStore := postgres.NewReviewStore(db)
	if err := reviewStore.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())
	gateway := backend.NewExtractionClient(cfg.GatewayURL, executor)
	validation := backend.NewValidationClient(cfg.ValidationURL, executor)
	dashboard := backend.NewDashboardClient(cfg.DashboardURL, cfg.BlobSASToken, executor)
	admin := backend.NewAdminClient(cfg.AdminURL, executor)

	rasterizer := raster.New(storage, cfg.RasterOversample)

	catalogUC := usecase.NewCatalogUseCase(dashboard)
	analyzeUC := usecase.NewAnalyzeUseCase(gateway, storage, catalogUC, rasterizer)
	reviewUC := usecase.NewReviewUseCase(validation, reviewStore, cfg.ReviewerID)

	return &App{
		Config: cfg,

		Dashboard: dashboard,
		Templates: admin,

		AnalyzeUC: analyzeUC,
		CatalogUC: catalogUC,
		ReviewUC:  reviewUC,

		Rasterizer: rasterizer,
		TextLayer:  pdftext.NewExtractor(storage),
		Resolver:   usecase.NewBoxResolver(cfg.ResolverMinSnapLen),

		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
