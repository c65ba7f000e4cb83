package domain

import "time"

// TemplateField is one field definition inside a document template.
type TemplateField struct {
	FieldName   string `json:"field_name"`
	FieldType   string `json:"field_type"`
	IsMandatory bool   `json:"is_mandatory"`
	IsDeleted   bool   `json:"is_deleted"`
}

// Template is an admin-defined document type: a named field list consumed
// by the extraction backend.
type Template struct {
	ID               string          `json:"id,omitempty"`
	DocumentTypeName string          `json:"document_type_name"`
	FieldLists       []TemplateField `json:"field_lists"`
	Status           string          `json:"status"`
	IsApproved       bool            `json:"is_approved"`
	CreatedBy        string          `json:"created_by"`
	AutoGenerated    bool            `json:"auto_generated,omitempty"`
	CreatedAt        time.Time       `json:"created_at,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at,omitempty"`
}

// TemplatePage is one page of templates from the admin backend.
type TemplatePage struct {
	Templates  []Template `json:"data"`
	TotalCount int        `json:"total_count"`
}

// NormalizeFieldType folds the backend's field type vocabulary onto the
// console's editor types. Unknown types fall back to text.
func NormalizeFieldType(t string) string {
	switch t {
	case "string", "text":
		return "text"
	case "int", "float", "number":
		return "number"
	case "date":
		return "date"
	case "currency":
		return "currency"
	default:
		return "text"
	}
}
