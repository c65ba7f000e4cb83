// Package raster renders stored document pages to background images
// for the overlay view. PDF pages go through MuPDF at an oversampled
// DPI for a crisper raster; plain images are decoded as-is since their
// document space equals pixel space at 1x.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/core/ports"
)

// pdfBaseDPI is the intrinsic PDF resolution; the oversample factor
// multiplies it.
const pdfBaseDPI = 72.0

type Renderer struct {
	storage    ports.ObjectStorage
	oversample float64
}

func New(storage ports.ObjectStorage, oversample float64) *Renderer {
	if oversample <= 0 {
		oversample = 2.0
	}
	return &Renderer{storage: storage, oversample: oversample}
}

// RenderPage rasterizes one page of a stored document. pageNumber is
// 1-based. Image documents have exactly one page.
func (r *Renderer) RenderPage(ctx context.Context, key string, pageNumber int) (*ports.PageRaster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageNumber < 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "raster.render",
			fmt.Errorf("page number %d", pageNumber))
	}

	path := r.storage.Path(key)
	if isPDF(path) {
		return r.renderPDFPage(path, pageNumber)
	}
	return r.decodeImage(ctx, key, pageNumber)
}

// PageCount reports the number of renderable pages. The PDF structure
// is checked with a relaxed validation pass first, so a corrupt upload
// fails here rather than deep inside the rasterizer.
func (r *Renderer) PageCount(ctx context.Context, key string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path := r.storage.Path(key)
	if !isPDF(path) {
		return 1, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, domain.WrapError(domain.ErrRenderFailed, "raster.page_count", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return 0, domain.WrapError(domain.ErrRenderFailed, "raster.page_count",
			fmt.Errorf("read pdf structure: %w", err))
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return 0, domain.WrapError(domain.ErrRenderFailed, "raster.page_count",
			fmt.Errorf("resolve page count: %w", err))
	}
	return pdfCtx.PageCount, nil
}

// ProbePDF validates an uploaded PDF's structure and reports its page
// count. Corrupt input is an invalid-input error, so uploads are
// rejected before the bytes reach the extraction backend.
func (r *Renderer) ProbePDF(ctx context.Context, content []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(content), conf)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "raster.probe",
			fmt.Errorf("read pdf structure: %w", err))
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "raster.probe",
			fmt.Errorf("resolve page count: %w", err))
	}
	return pdfCtx.PageCount, nil
}

func (r *Renderer) renderPDFPage(path string, pageNumber int) (*ports.PageRaster, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRenderFailed, "raster.render",
			fmt.Errorf("open pdf: %w", err))
	}
	defer doc.Close()

	if pageNumber > doc.NumPage() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "raster.render",
			fmt.Errorf("page %d of %d", pageNumber, doc.NumPage()))
	}

	img, err := doc.ImageDPI(pageNumber-1, pdfBaseDPI*r.oversample)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRenderFailed, "raster.render",
			fmt.Errorf("rasterize page %d: %w", pageNumber, err))
	}

	bounds := img.Bounds()
	return &ports.PageRaster{
		Image:       img,
		PixelWidth:  bounds.Dx(),
		PixelHeight: bounds.Dy(),
	}, nil
}

func (r *Renderer) decodeImage(ctx context.Context, key string, pageNumber int) (*ports.PageRaster, error) {
	if pageNumber != 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "raster.render",
			fmt.Errorf("image documents have a single page, got %d", pageNumber))
	}

	rc, err := r.storage.Open(ctx, key)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRenderFailed, "raster.render", err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRenderFailed, "raster.render",
			fmt.Errorf("decode image: %w", err))
	}

	bounds := img.Bounds()
	return &ports.PageRaster{
		Image:       img,
		PixelWidth:  bounds.Dx(),
		PixelHeight: bounds.Dy(),
	}, nil
}

func isPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}
