package domain

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  INV-2024-001 ", want: "inv-2024-001"},
		{in: "123   Main\tSt", want: "123 main st"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Fatalf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSelectableTokensPrefersLines(t *testing.T) {
	box := &BoundingBox{X: 1, Y: 1, Width: 10, Height: 5}
	lines := []OcrToken{{Text: "a line", PageNumber: 1, BoundingBox: box}}
	words := []OcrToken{{Text: "word", PageNumber: 1, BoundingBox: box}}

	got := SelectableTokens(lines, words, 1)
	if len(got) != 1 || got[0].Text != "a line" {
		t.Fatalf("expected line tokens, got %+v", got)
	}

	got = SelectableTokens(nil, words, 1)
	if len(got) != 1 || got[0].Text != "word" {
		t.Fatalf("expected word fallback, got %+v", got)
	}
}

func TestTokensOnPageFiltersAndDefaultsPage(t *testing.T) {
	box := &BoundingBox{Width: 10, Height: 5}
	tokens := []OcrToken{
		{Text: "implicit first page", BoundingBox: box},
		{Text: "second page", PageNumber: 2, BoundingBox: box},
		{Text: "   ", PageNumber: 1, BoundingBox: box},
		{Text: "no box", PageNumber: 1},
	}

	got := TokensOnPage(tokens, 1)
	if len(got) != 1 || got[0].Text != "implicit first page" {
		t.Fatalf("page 1 tokens = %+v", got)
	}
	if got := TokensOnPage(tokens, 2); len(got) != 1 {
		t.Fatalf("page 2 tokens = %+v", got)
	}
}
