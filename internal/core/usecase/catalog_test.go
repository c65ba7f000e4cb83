package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/docuflow/review-console/internal/core/domain"
)

type fakeDashboard struct {
	pages     []*domain.ListPage
	listCalls int
	listErr   error
	pingCalls int
}

func (f *fakeDashboard) ListDocuments(_ context.Context, _ domain.ListQuery) (*domain.ListPage, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	idx := f.listCalls - 1
	if idx >= len(f.pages) {
		idx = len(f.pages) - 1
	}
	return f.pages[idx], nil
}

func (f *fakeDashboard) GetDocument(_ context.Context, _ string) (*domain.DocumentDetail, error) {
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDashboard) Ping(_ context.Context) error {
	f.pingCalls++
	return nil
}

func serverRow(id, filename string, status domain.DocumentStatus) domain.ListRow {
	return domain.ListRow{
		ID:        id,
		Filename:  filename,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

func TestOptimisticRowShowsImmediately(t *testing.T) {
	uc := NewCatalogUseCase(&fakeDashboard{})

	id := uc.AddOptimisticRow("invoice.pdf", domain.VariantEasyOCR, 1024)
	if !strings.HasPrefix(id, "temp-") {
		t.Fatalf("temp id = %q, want temp- prefix", id)
	}

	page := uc.Rows()
	if len(page.Documents) != 1 || !page.Documents[0].IsTemp {
		t.Fatalf("rows = %+v, want one temp row", page.Documents)
	}
	if page.Documents[0].Status != domain.StatusProcessing {
		t.Fatalf("status = %v, want processing", page.Documents[0].Status)
	}
	if page.TotalCount != 1 {
		t.Fatalf("total = %d, want 1", page.TotalCount)
	}
}

func TestServerRowSupersedesTempByFilename(t *testing.T) {
	backend := &fakeDashboard{pages: []*domain.ListPage{{
		Documents:  []domain.ListRow{serverRow("srv-9", "invoice.pdf", domain.StatusProcessing)},
		TotalCount: 1,
	}}}
	uc := NewCatalogUseCase(backend)
	uc.AddOptimisticRow("invoice.pdf", domain.VariantEasyOCR, 1024)
	uc.AddOptimisticRow("other.pdf", domain.VariantAzureDI, 2048)

	page, err := uc.Refresh(context.Background(), domain.ListQuery{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var tempNames, serverIDs []string
	for _, row := range page.Documents {
		if row.IsTemp {
			tempNames = append(tempNames, row.Filename)
		} else {
			serverIDs = append(serverIDs, row.ID)
		}
	}
	if len(tempNames) != 1 || tempNames[0] != "other.pdf" {
		t.Fatalf("temp rows = %v, the matched filename must be superseded", tempNames)
	}
	if len(serverIDs) != 1 || serverIDs[0] != "srv-9" {
		t.Fatalf("server rows = %v", serverIDs)
	}
	if page.TotalCount != 2 {
		t.Fatalf("total = %d, want server total plus remaining temp rows", page.TotalCount)
	}
}

func TestDropOptimisticRow(t *testing.T) {
	uc := NewCatalogUseCase(&fakeDashboard{})
	id := uc.AddOptimisticRow("a.pdf", domain.VariantEasyOCR, 1)
	uc.AddOptimisticRow("b.pdf", domain.VariantEasyOCR, 1)

	uc.DropOptimisticRow(id)
	page := uc.Rows()
	if len(page.Documents) != 1 || page.Documents[0].Filename != "b.pdf" {
		t.Fatalf("rows = %+v, want only b.pdf left", page.Documents)
	}
}

func TestNeedsRefreshPredicate(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.ListRow
		want bool
	}{
		{"empty", nil, false},
		{"all terminal", []domain.ListRow{
			serverRow("1", "a.pdf", domain.StatusCompleted),
			serverRow("2", "b.pdf", domain.StatusFailed),
		}, false},
		{"one processing", []domain.ListRow{
			serverRow("1", "a.pdf", domain.StatusCompleted),
			serverRow("2", "b.pdf", domain.StatusProcessing),
		}, true},
		{"pending only", []domain.ListRow{
			serverRow("1", "a.pdf", domain.StatusPending),
		}, true},
		{"temp row even when terminal", []domain.ListRow{
			{ID: "temp-1", Filename: "a.pdf", Status: domain.StatusCompleted, IsTemp: true},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsRefresh(tt.rows); got != tt.want {
				t.Fatalf("NeedsRefresh = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPollStopsWhenRowsSettle(t *testing.T) {
	backend := &fakeDashboard{pages: []*domain.ListPage{
		{Documents: []domain.ListRow{serverRow("1", "a.pdf", domain.StatusProcessing)}, TotalCount: 1},
		{Documents: []domain.ListRow{serverRow("1", "a.pdf", domain.StatusCompleted)}, TotalCount: 1},
	}}
	uc := NewCatalogUseCase(backend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := uc.Poll(ctx, domain.ListQuery{}, rate.NewLimiter(rate.Inf, 1)); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if backend.listCalls != 2 {
		t.Fatalf("list calls = %d, want 2", backend.listCalls)
	}
	if backend.pingCalls != 1 {
		t.Fatalf("ping calls = %d, want a keep-warm ping between rounds", backend.pingCalls)
	}
}

func TestPollReturnsOnCancel(t *testing.T) {
	backend := &fakeDashboard{listErr: errors.New("down")}
	uc := NewCatalogUseCase(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.Poll(ctx, domain.ListQuery{}, rate.NewLimiter(rate.Every(time.Millisecond), 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
