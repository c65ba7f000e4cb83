package backend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/infrastructure/resilience"
)

// AdminClient talks to the template-storage service behind the admin
// surface.
type AdminClient struct {
	client
}

func NewAdminClient(baseURL string, executor *resilience.Executor) *AdminClient {
	return &AdminClient{client: newClient(baseURL, 30*time.Second, executor)}
}

func (c *AdminClient) ListTemplates(ctx context.Context) (*domain.TemplatePage, error) {
	var page domain.TemplatePage
	if err := c.getJSON(ctx, "/admin/templates", nil, &page, "admin.list_templates"); err != nil {
		return nil, err
	}
	for i := range page.Templates {
		normalizeTemplate(&page.Templates[i])
	}
	return &page, nil
}

func (c *AdminClient) CreateTemplate(ctx context.Context, t domain.Template) (*domain.Template, error) {
	normalizeTemplate(&t)
	var created domain.Template
	if err := c.postJSON(ctx, "/admin/templates", nil, t, &created, "admin.create_template"); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *AdminClient) UpdateTemplate(ctx context.Context, id string, t domain.Template) (*domain.Template, error) {
	if id == "" {
		return nil, fmt.Errorf("template id is required")
	}
	normalizeTemplate(&t)
	var updated domain.Template
	if err := c.putJSON(ctx, "/admin/templates/"+url.PathEscape(id), t, &updated, "admin.update_template"); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *AdminClient) DeleteTemplate(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("template id is required")
	}
	return c.deleteJSON(ctx, "/admin/templates/"+url.PathEscape(id), nil, "admin.delete_template")
}

// normalizeTemplate folds free-form field types onto the closed set the
// extraction backend understands.
func normalizeTemplate(t *domain.Template) {
	for i := range t.FieldLists {
		t.FieldLists[i].FieldType = domain.NormalizeFieldType(t.FieldLists[i].FieldType)
	}
}
