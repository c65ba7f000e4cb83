package domain

import "strings"

// OcrToken is a single OCR word or line with its document-space box.
// Tokens are immutable and backend-sourced. Lines are coarser than words
// but more reliable for text-to-box snapping.
type OcrToken struct {
	Text        string       `json:"text"`
	Confidence  float64      `json:"confidence"`
	PageNumber  int          `json:"page_number"`
	BoundingBox *BoundingBox `json:"bounding_box"`
}

// NormalizeText collapses runs of whitespace to a single space, trims, and
// lowercases. It is the single normalization rule used for OCR text
// snapping, so the exact-match and substring tiers of the resolver compare
// identical forms.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// TokensOnPage filters tokens to the given page, dropping tokens without a
// box or with blank text.
func TokensOnPage(tokens []OcrToken, pageNumber int) []OcrToken {
	out := make([]OcrToken, 0, len(tokens))
	for _, t := range tokens {
		if t.BoundingBox == nil || strings.TrimSpace(t.Text) == "" {
			continue
		}
		page := t.PageNumber
		if page == 0 {
			page = 1
		}
		if page != pageNumber {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SelectableTokens picks the token source for the selectable text layer:
// lines when present, words otherwise. Line granularity gives more natural
// text selection.
func SelectableTokens(lines, words []OcrToken, pageNumber int) []OcrToken {
	if onPage := TokensOnPage(lines, pageNumber); len(onPage) > 0 {
		return onPage
	}
	return TokensOnPage(words, pageNumber)
}
