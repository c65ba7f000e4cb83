package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/docuflow/review-console/internal/core/domain"
)

type memStorage struct {
	files map[string][]byte
}

func (m *memStorage) Save(_ context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.files[key] = b
	return nil
}

func (m *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := m.files[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStorage) Path(key string) string { return key }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImageReportsNaturalDimensions(t *testing.T) {
	st := &memStorage{files: map[string][]byte{"doc-1_scan.png": pngBytes(t, 640, 480)}}
	r := New(st, 2.0)

	raster, err := r.RenderPage(context.Background(), "doc-1_scan.png", 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if raster.PixelWidth != 640 || raster.PixelHeight != 480 {
		t.Fatalf("got %dx%d, want 640x480", raster.PixelWidth, raster.PixelHeight)
	}
}

func TestImageDocumentsHaveSinglePage(t *testing.T) {
	st := &memStorage{files: map[string][]byte{"doc-1_scan.png": pngBytes(t, 10, 10)}}
	r := New(st, 2.0)

	if _, err := r.RenderPage(context.Background(), "doc-1_scan.png", 2); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}

	n, err := r.PageCount(context.Background(), "doc-1_scan.png")
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if n != 1 {
		t.Fatalf("page count = %d, want 1", n)
	}
}

func TestRenderRejectsNonPositivePage(t *testing.T) {
	st := &memStorage{files: map[string][]byte{}}
	r := New(st, 2.0)

	if _, err := r.RenderPage(context.Background(), "x.png", 0); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}
}

func TestRenderHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(&memStorage{files: map[string][]byte{}}, 2.0)
	if _, err := r.RenderPage(ctx, "x.png", 1); err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestDecodeFailureIsRenderError(t *testing.T) {
	st := &memStorage{files: map[string][]byte{"bad.png": []byte("not an image")}}
	r := New(st, 2.0)

	if _, err := r.RenderPage(context.Background(), "bad.png", 1); !domain.IsKind(err, domain.ErrRenderFailed) {
		t.Fatalf("want render failure, got %v", err)
	}
}

func TestProbeRejectsCorruptPDF(t *testing.T) {
	r := New(&memStorage{files: map[string][]byte{}}, 2.0)

	if _, err := r.ProbePDF(context.Background(), []byte("not a pdf")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}
}

func TestProbeHonorsCanceledContext(t *testing.T) {
	r := New(&memStorage{files: map[string][]byte{}}, 2.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.ProbePDF(ctx, []byte("%PDF-1.4")); err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
