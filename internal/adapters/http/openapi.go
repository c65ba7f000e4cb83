package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/docuflow/review-console/api"
	"github.com/docuflow/review-console/internal/core/domain"
)

// templateValidator checks template payloads against the Template schema
// of the embedded OpenAPI document before they reach the admin backend.
type templateValidator struct {
	schema *openapi3.SchemaRef
}

func newTemplateValidator() (*templateValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(api.OpenAPISpec)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}

	schema, ok := doc.Components.Schemas["Template"]
	if !ok {
		return nil, fmt.Errorf("openapi document has no Template schema")
	}
	return &templateValidator{schema: schema}, nil
}

func (v *templateValidator) Validate(payload any) error {
	if err := v.schema.Value.VisitJSON(payload, openapi3.VisitAsRequest()); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "template.validate", err)
	}
	return nil
}

// decodeTemplate reads a request body once, validates it against the
// schema, and decodes it into the domain type. A false return means the
// response has been written.
func (rt *Router) decodeTemplate(w http.ResponseWriter, r *http.Request) (domain.Template, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body: " + err.Error()})
		return domain.Template{}, false
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return domain.Template{}, false
	}
	if err := rt.validator.Validate(payload); err != nil {
		rt.writeError(w, err)
		return domain.Template{}, false
	}

	var tmpl domain.Template
	if err := json.Unmarshal(body, &tmpl); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template payload"})
		return domain.Template{}, false
	}
	return tmpl, true
}
