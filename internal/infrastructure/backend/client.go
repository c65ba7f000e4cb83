// Package backend holds the HTTP clients for the four external services
// the console consumes: the extraction gateway, the HITL validation
// service, the metrics dashboard, and the template admin service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/docuflow/review-console/internal/infrastructure/resilience"
)

type client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func newClient(baseURL string, timeout time.Duration, executor *resilience.Executor) client {
	return client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// HTTPStatusError carries the status and a body excerpt for non-2xx
// responses, so the retry classifier can tell 4xx from 5xx apart.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "backend status error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("backend %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("backend %s status: %s: %s", e.Operation, e.Status, body)
}

func (c client) getJSON(ctx context.Context, path string, query url.Values, out any, operation string) error {
	return c.roundTrip(ctx, operation, func(ctx context.Context) error {
		target := c.baseURL + path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		return c.send(req, out, operation)
	})
}

func (c client) postJSON(ctx context.Context, path string, query url.Values, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	return c.roundTrip(ctx, operation, func(ctx context.Context) error {
		target := c.baseURL + path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")
		return c.send(req, out, operation)
	})
}

func (c client) putJSON(ctx context.Context, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	return c.roundTrip(ctx, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")
		return c.send(req, out, operation)
	})
}

func (c client) deleteJSON(ctx context.Context, path string, out any, operation string) error {
	return c.roundTrip(ctx, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		return c.send(req, out, operation)
	})
}

// postMultipart uploads one file under the "file" form field. The body
// is rebuilt per attempt since a reader cannot be replayed.
func (c client) postMultipart(ctx context.Context, path string, query url.Values, filename, contentType string, content []byte, out any, operation string) error {
	return c.roundTrip(ctx, operation, func(ctx context.Context) error {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create %s form file: %w", operation, err)
		}
		if _, err := part.Write(content); err != nil {
			return fmt.Errorf("write %s form file: %w", operation, err)
		}
		if err := mw.Close(); err != nil {
			return fmt.Errorf("close %s form: %w", operation, err)
		}

		target := c.baseURL + path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return c.send(req, out, operation)
	})
}

func (c client) roundTrip(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, call(ctx))
	}
	err := c.executor.Do(ctx, operation, classifyBackendError, call)
	return wrapTemporaryIfNeeded(operation, err)
}

func (c client) send(req *http.Request, out any, operation string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
