package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ValueKind classifies the runtime shape of a field value. The extraction
// backend returns untyped JSON, so every consumer goes through this closed
// taxonomy instead of ad hoc type switches.
type ValueKind int

const (
	ValueScalar ValueKind = iota
	ValueScalarList
	ValueTable
	ValueRecord
)

func (k ValueKind) String() string {
	switch k {
	case ValueScalarList:
		return "scalar_list"
	case ValueTable:
		return "table"
	case ValueRecord:
		return "record"
	default:
		return "scalar"
	}
}

// ExtractedField is one extracted value for a document. FieldName is the
// unique key within a document. FieldValue holds the decoded JSON shape;
// classify it with ClassifyValue before rendering. WasCorrected is set only
// after a confirmed backend save.
type ExtractedField struct {
	FieldName        string       `json:"field_name"`
	NormalizedName   string       `json:"normalized_name,omitempty"`
	FieldValue       any          `json:"field_value"`
	Confidence       float64      `json:"confidence,omitempty"`
	PageNumber       int          `json:"page_number,omitempty"`
	ExtractionMethod string       `json:"extraction_method,omitempty"`
	BoundingBox      *BoundingBox `json:"bounding_box,omitempty"`
	WasCorrected     bool         `json:"was_corrected,omitempty"`
}

// Correction is one field correction submitted to the validation backend.
type Correction struct {
	FieldName      string `json:"field_name"`
	CorrectedValue string `json:"corrected_value"`
}

// ClassifyValue maps a decoded JSON value onto the closed ValueKind union.
// Arrays whose first element is an object render as tables; other arrays as
// scalar lists; plain objects as nested records; everything else is scalar.
func ClassifyValue(v any) ValueKind {
	switch vv := v.(type) {
	case []any:
		if len(vv) > 0 {
			if _, ok := vv[0].(map[string]any); ok {
				return ValueTable
			}
		}
		return ValueScalarList
	case map[string]any:
		return ValueRecord
	default:
		return ValueScalar
	}
}

// IsEmptyValue reports whether a field value carries no reviewable content:
// nil, blank string, empty array, or empty object.
func IsEmptyValue(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vv) == ""
	case []any:
		return len(vv) == 0
	case map[string]any:
		return len(vv) == 0
	default:
		return false
	}
}

// NormalizeValue converts a field value to the canonical string form used
// both for change detection and for the corrected value sent to the
// backend: nil becomes empty, strings pass through, numbers and booleans
// stringify, and anything else JSON-serializes. Keeping one rule for both
// uses guarantees the diff and the submitted payload never disagree.
func NormalizeValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(vv), 'f', -1, 32)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case json.Number:
		return vv.String()
	default:
		raw, err := json.Marshal(vv)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// ValueChanged compares two field values under NormalizeValue.
func ValueChanged(a, b any) bool {
	return NormalizeValue(a) != NormalizeValue(b)
}

// DisplayName renders a snake_case or camelCase field name as a readable
// title, e.g. "invoice_number" -> "Invoice Number".
func DisplayName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")

	var sb strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(rune(name[i-1])) && name[i-1] != ' ' {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}

	words := strings.Fields(sb.String())
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// TableColumns returns the union of keys across all rows of a table value,
// in first-seen order, so sparse rows still render every column.
func TableColumns(rows []any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			columns = append(columns, k)
		}
	}
	return columns
}
