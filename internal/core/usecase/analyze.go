package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/core/ports"
)

// MaxUploadBytes bounds accepted uploads; the extraction backend
// rejects anything larger anyway.
const MaxUploadBytes = 50 << 20

var acceptedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// AnalyzeUseCase validates an upload, forwards it to the chosen
// extraction endpoint, and keeps the stored bytes around so pages can
// be rasterized during review.
type AnalyzeUseCase struct {
	gateway ports.ExtractionGateway
	storage ports.ObjectStorage
	catalog *CatalogUseCase
	prober  ports.UploadProber
}

func NewAnalyzeUseCase(
	gateway ports.ExtractionGateway,
	storage ports.ObjectStorage,
	catalog *CatalogUseCase,
	prober ports.UploadProber,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		gateway: gateway,
		storage: storage,
		catalog: catalog,
		prober:  prober,
	}
}

// ValidateUpload applies the input checks that never reach the backend:
// supported file type and size cap.
func ValidateUpload(file ports.UploadFile) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := acceptedExtensions[ext]; !ok {
		return domain.WrapError(domain.ErrInvalidInput, "analyze.validate",
			fmt.Errorf("unsupported file type %q", ext))
	}
	if len(file.Content) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "analyze.validate",
			fmt.Errorf("empty file"))
	}
	if len(file.Content) > MaxUploadBytes {
		return domain.WrapError(domain.ErrInvalidInput, "analyze.validate",
			fmt.Errorf("file exceeds %d bytes", MaxUploadBytes))
	}
	return nil
}

// AnalyzeResult pairs the extraction response with the storage key the
// raster endpoints read the document back from.
type AnalyzeResult struct {
	Response   *domain.ExtractionResponse `json:"response"`
	StorageKey string                     `json:"storage_key"`
}

// Analyze runs the full upload path for one document. The optimistic
// catalog row appears before the backend call and is dropped again if
// the call never produced a server-side document.
func (uc *AnalyzeUseCase) Analyze(
	ctx context.Context,
	file ports.UploadFile,
	variant domain.OCRVariant,
) (*AnalyzeResult, error) {
	if err := ValidateUpload(file); err != nil {
		return nil, err
	}
	if file.ContentType == "" {
		file.ContentType = acceptedExtensions[strings.ToLower(filepath.Ext(file.Filename))]
	}

	// Image documents always have one page. PDFs get a structure check
	// so a corrupt file never reaches the backend.
	pages := 1
	if uc.prober != nil && strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		n, err := uc.prober.ProbePDF(ctx, file.Content)
		if err != nil {
			return nil, err
		}
		pages = n
	}

	tempID := uc.catalog.AddOptimisticRow(file.Filename, variant, int64(len(file.Content)))

	resp, err := uc.dispatch(ctx, file, variant)
	if err != nil {
		uc.catalog.DropOptimisticRow(tempID)
		return nil, fmt.Errorf("analyze %s: %w", file.Filename, err)
	}
	if !resp.Success {
		uc.catalog.DropOptimisticRow(tempID)
		if resp.Error != "" {
			return nil, domain.WrapError(domain.ErrTemporary, "analyze",
				fmt.Errorf("%s", resp.Error))
		}
		return nil, domain.WrapError(domain.ErrTemporary, "analyze",
			fmt.Errorf("extraction reported failure"))
	}

	if resp.TotalPages == 0 {
		resp.TotalPages = pages
	}

	key := storageKey(resp.DocumentID, file.Filename)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(file.Content)); err != nil {
		// The extraction already succeeded; a failed local save only
		// disables page rendering for this document.
		key = ""
	}

	return &AnalyzeResult{Response: resp, StorageKey: key}, nil
}

func (uc *AnalyzeUseCase) dispatch(
	ctx context.Context,
	file ports.UploadFile,
	variant domain.OCRVariant,
) (*domain.ExtractionResponse, error) {
	if variant == domain.VariantAzureDI {
		return uc.gateway.AnalyzeAzure(ctx, file)
	}
	return uc.gateway.Analyze(ctx, file)
}

// StorageKey derives the object-storage key for a document's uploaded
// bytes. Page rendering looks files up by the same rule.
func StorageKey(documentID, filename string) string {
	return storageKey(documentID, filename)
}

func storageKey(documentID, filename string) string {
	if documentID == "" {
		documentID = "unassigned"
	}
	return documentID + "_" + sanitizeFilename(filename)
}

// sanitizeFilename flattens a user-supplied name into a safe storage
// key component.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
