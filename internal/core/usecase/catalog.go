package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/core/ports"
)

// CatalogUseCase maintains the merged document list: server rows from
// the dashboard backend plus optimistic placeholder rows for uploads
// whose analyze call is still in flight.
type CatalogUseCase struct {
	dashboard ports.DashboardService

	mu         sync.Mutex
	optimistic []domain.ListRow
	server     []domain.ListRow
	total      int
}

func NewCatalogUseCase(dashboard ports.DashboardService) *CatalogUseCase {
	return &CatalogUseCase{dashboard: dashboard}
}

// AddOptimisticRow registers a placeholder for an in-flight upload and
// returns its temporary id.
func (uc *CatalogUseCase) AddOptimisticRow(filename string, variant domain.OCRVariant, sizeBytes int64) string {
	row := domain.ListRow{
		ID:            "temp-" + uuid.NewString(),
		Filename:      filename,
		OCRVariant:    variant,
		Status:        domain.StatusProcessing,
		CreatedAt:     time.Now().UTC(),
		IsTemp:        true,
		FileSizeBytes: sizeBytes,
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.optimistic = append(uc.optimistic, row)
	return row.ID
}

// DropOptimisticRow removes a placeholder, used when an upload fails
// before the backend ever saw it.
func (uc *CatalogUseCase) DropOptimisticRow(id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.optimistic = removeRow(uc.optimistic, id)
}

// Refresh fetches the current server page and merges it with the
// optimistic rows. A server row supersedes any temp row with the same
// filename, ids notwithstanding, since the backend assigns its own ids.
func (uc *CatalogUseCase) Refresh(ctx context.Context, q domain.ListQuery) (*domain.ListPage, error) {
	page, err := uc.dashboard.ListDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	seen := make(map[string]bool, len(page.Documents))
	for _, row := range page.Documents {
		seen[row.Filename] = true
	}

	kept := uc.optimistic[:0]
	for _, row := range uc.optimistic {
		if !seen[row.Filename] {
			kept = append(kept, row)
		}
	}
	uc.optimistic = kept

	uc.server = page.Documents
	uc.total = page.TotalCount
	return uc.snapshotLocked(), nil
}

// Rows returns the last merged view without touching the backend.
func (uc *CatalogUseCase) Rows() *domain.ListPage {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.snapshotLocked()
}

// snapshotLocked prepends optimistic rows, newest first, ahead of the
// server page.
func (uc *CatalogUseCase) snapshotLocked() *domain.ListPage {
	merged := make([]domain.ListRow, 0, len(uc.optimistic)+len(uc.server))
	merged = append(merged, uc.optimistic...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	merged = append(merged, uc.server...)

	return &domain.ListPage{
		Documents:  merged,
		TotalCount: uc.total + len(uc.optimistic),
	}
}

// NeedsRefresh is the poll predicate: keep polling while any row is in
// a non-terminal status or an optimistic row is still pending.
func NeedsRefresh(rows []domain.ListRow) bool {
	for _, row := range rows {
		if row.IsTemp || !row.Status.Terminal() {
			return true
		}
	}
	return false
}

// Poll refreshes the merged list at the limiter's pace for as long as
// the predicate holds, pinging the dashboard backend between rounds to
// keep it warm. It returns when the context is done or every row has
// settled.
func (uc *CatalogUseCase) Poll(ctx context.Context, q domain.ListQuery, limiter *rate.Limiter) error {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		page, err := uc.Refresh(ctx, q)
		if err != nil {
			// Transient backend trouble keeps the poll alive; the
			// next round may succeed.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if !NeedsRefresh(page.Documents) {
			return nil
		}

		// Keep-warm ping between rounds; failures are ignored.
		_ = uc.dashboard.Ping(ctx)
	}
}

func removeRow(rows []domain.ListRow, id string) []domain.ListRow {
	out := rows[:0]
	for _, row := range rows {
		if row.ID != id {
			out = append(out, row)
		}
	}
	return out
}
