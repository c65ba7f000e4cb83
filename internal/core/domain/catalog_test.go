package domain

import "testing"

func TestMapBackendStatus(t *testing.T) {
	tests := []struct {
		in   string
		want DocumentStatus
	}{
		{in: "processing", want: StatusProcessing},
		{in: "completed", want: StatusCompleted},
		{in: "failed", want: StatusFailed},
		{in: "validation_completed", want: StatusCompleted},
		{in: "under_review", want: StatusCompleted},
		{in: "review_completed", want: StatusCompleted},
		{in: "something_new", want: StatusPending},
	}
	for _, tt := range tests {
		if got := MapBackendStatus(tt.in); got != tt.want {
			t.Fatalf("MapBackendStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapSourceToVariant(t *testing.T) {
	if MapSourceToVariant("analyze-azure") != VariantAzureDI {
		t.Fatalf("analyze-azure must map to azure_di")
	}
	if MapSourceToVariant("analyze") != VariantEasyOCR {
		t.Fatalf("analyze must map to easy_ocr")
	}
	if MapSourceToVariant("") != VariantEasyOCR {
		t.Fatalf("unknown source falls back to easy_ocr")
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Fatalf("pending/processing are non-terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Fatalf("completed/failed are terminal")
	}
}
