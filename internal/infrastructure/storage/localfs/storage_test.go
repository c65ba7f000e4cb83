package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/docuflow/review-console/internal/core/domain"
)

func TestSaveThenOpenRoundTrip(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if err := st.Save(ctx, "doc-1_scan.pdf", strings.NewReader("pdf bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	rc, err := st.Open(ctx, "doc-1_scan.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "pdf bytes" {
		t.Fatalf("content = %q", got)
	}
}

func TestOpenMissingKeyIsNotFound(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := st.Open(context.Background(), "nope.pdf"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestRejectsPathTraversalKeys(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, key := range []string{"", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		if err := st.Save(context.Background(), key, strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("key %q: want invalid input, got %v", key, err)
		}
	}
}

func TestPathStaysUnderBase(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if got := st.Path("../escape.pdf"); !strings.HasPrefix(got, dir) {
		t.Fatalf("path %q escapes base %q", got, dir)
	}
}
