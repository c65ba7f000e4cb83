package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/time/rate"

	"github.com/docuflow/review-console/internal/core/domain"
	"github.com/docuflow/review-console/internal/core/ports"
	"github.com/docuflow/review-console/internal/core/usecase"
	"github.com/docuflow/review-console/internal/infrastructure/export"
	"github.com/docuflow/review-console/internal/observability/metrics"
)

const (
	defaultContainerWidth = 1264.0
	defaultViewportWidth  = 1200.0
	defaultViewportHeight = 800.0
)

type Router struct {
	service string

	analyzeUC *usecase.AnalyzeUseCase
	catalogUC *usecase.CatalogUseCase
	reviewUC  *usecase.ReviewUseCase

	dashboard  ports.DashboardService
	templates  ports.TemplateService
	rasterizer ports.PageRasterizer
	textLayer  ports.TextLayerExtractor
	resolver   *usecase.BoxResolver

	validator *templateValidator
	metrics   *metrics.HTTPServerMetrics

	rateLimitRPS    int
	rateLimitBurst  int
	maxConcurrent   int
	backpressureMax time.Duration

	baseCtx        context.Context
	pollInterval   time.Duration
	containerWidth float64

	mu       sync.Mutex
	polling  bool
	overlays map[string]*usecase.OverlaySession
	reviews  map[string]*usecase.ReviewSession
}

type RouterOptions struct {
	Service         string
	RateLimitRPS    int
	RateLimitBurst  int
	MaxConcurrent   int
	BackpressureMax time.Duration

	// BaseContext bounds background work such as the catalog poller.
	// Nil means context.Background().
	BaseContext context.Context

	// PollInterval paces the catalog poller; zero disables it.
	PollInterval time.Duration

	// ContainerWidth is the overlay container width in pixels used when
	// a request carries no container_width parameter.
	ContainerWidth float64
}

func NewRouter(
	opts RouterOptions,
	analyzeUC *usecase.AnalyzeUseCase,
	catalogUC *usecase.CatalogUseCase,
	reviewUC *usecase.ReviewUseCase,
	dashboard ports.DashboardService,
	templates ports.TemplateService,
	rasterizer ports.PageRasterizer,
	textLayer ports.TextLayerExtractor,
	resolver *usecase.BoxResolver,
	m *metrics.HTTPServerMetrics,
) (*Router, error) {
	validator, err := newTemplateValidator()
	if err != nil {
		return nil, fmt.Errorf("load template schema: %w", err)
	}
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	containerWidth := opts.ContainerWidth
	if containerWidth <= 0 {
		containerWidth = defaultContainerWidth
	}
	return &Router{
		service:         opts.Service,
		analyzeUC:       analyzeUC,
		catalogUC:       catalogUC,
		reviewUC:        reviewUC,
		dashboard:       dashboard,
		templates:       templates,
		rasterizer:      rasterizer,
		textLayer:       textLayer,
		resolver:        resolver,
		validator:       validator,
		metrics:         m,
		rateLimitRPS:    opts.RateLimitRPS,
		rateLimitBurst:  opts.RateLimitBurst,
		maxConcurrent:   opts.MaxConcurrent,
		backpressureMax: opts.BackpressureMax,
		baseCtx:         baseCtx,
		pollInterval:    opts.PollInterval,
		containerWidth:  containerWidth,
		overlays:        make(map[string]*usecase.OverlaySession),
		reviews:         make(map[string]*usecase.ReviewSession),
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/analyze", rt.analyze)
	mux.HandleFunc("/v1/documents", rt.listDocuments)
	mux.HandleFunc("/v1/documents/export", rt.exportDocuments)
	mux.HandleFunc("/v1/documents/", rt.documentSubtree)
	mux.HandleFunc("/v1/templates", rt.templatesCollection)
	mux.HandleFunc("/v1/templates/", rt.templateByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxConcurrent, rt.backpressureMax)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, usecase.MaxUploadBytes+1<<20)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload: " + err.Error()})
		return
	}

	variant := parseVariant(r.FormValue("ocr"))
	result, err := rt.analyzeUC.Analyze(r.Context(), ports.UploadFile{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	}, variant)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.startCatalogPoll()
	writeJSON(w, http.StatusOK, result.Response)
}

// startCatalogPoll runs a single background poll loop that refreshes
// the catalog until every row settles. A second call while the loop is
// running is a no-op.
func (rt *Router) startCatalogPoll() {
	if rt.pollInterval <= 0 {
		return
	}
	rt.mu.Lock()
	if rt.polling {
		rt.mu.Unlock()
		return
	}
	rt.polling = true
	rt.mu.Unlock()

	go func() {
		defer func() {
			rt.mu.Lock()
			rt.polling = false
			rt.mu.Unlock()
		}()
		limiter := rate.NewLimiter(rate.Every(rt.pollInterval), 1)
		err := rt.catalogUC.Poll(rt.baseCtx, domain.ListQuery{}, limiter)
		if rt.metrics != nil {
			rt.metrics.RecordPollRound(rt.service, err == nil)
		}
	}()
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	page, err := rt.catalogUC.Refresh(r.Context(), listQueryFromRequest(r))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPollRound(rt.service, !usecase.NeedsRefresh(page.Documents))
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	page, err := rt.catalogUC.Refresh(r.Context(), listQueryFromRequest(r))
	if err != nil {
		rt.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	if err := export.WriteCatalogXLSX(w, page.Documents); err != nil {
		// Headers are already out; the truncated body is the best signal left.
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExportRows(rt.service, len(page.Documents))
	}
}

// documentSubtree dispatches /v1/documents/{id} and its nested resources.
func (rt *Router) documentSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}
	documentID := parts[0]

	switch {
	case len(parts) == 1:
		rt.getDocument(w, r, documentID)
	case len(parts) == 2 && parts[1] == "overlay":
		rt.overlay(w, r, documentID)
	case len(parts) == 2 && parts[1] == "review":
		rt.submitReview(w, r, documentID)
	case len(parts) == 2 && parts[1] == "history":
		rt.reviewHistory(w, r, documentID)
	case len(parts) == 4 && parts[1] == "pages" && parts[3] == "raster":
		rt.renderPage(w, r, documentID, parts[2])
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	resp, err := rt.fetchDetail(r, documentID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) renderPage(w http.ResponseWriter, r *http.Request, documentID, pageStr string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	pageNumber, err := strconv.Atoi(pageStr)
	if err != nil || pageNumber < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page number"})
		return
	}

	resp, err := rt.fetchDetail(r, documentID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	key := usecase.StorageKey(resp.DocumentID, resp.Filename)

	start := time.Now()
	raster, err := rt.rasterizer.RenderPage(r.Context(), key, pageNumber)
	if rt.metrics != nil {
		rt.metrics.RecordRender(rt.service, documentKind(resp.Filename), err, time.Since(start))
	}
	if err != nil {
		rt.writeError(w, err)
		return
	}

	img := raster.Image
	if width := queryInt(r, "width", 0); width > 0 && width < raster.PixelWidth {
		img = downscale(img, width)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	_ = png.Encode(w, img)
}

func (rt *Router) overlay(w http.ResponseWriter, r *http.Request, documentID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	resp, err := rt.fetchDetail(r, documentID)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	sess := rt.overlaySession(documentID, r)
	pageNumber := queryInt(r, "page", 1)

	if sess.ActivePage() != pageNumber || sess.State() == usecase.StateIdle {
		if err := rt.loadPage(r, sess, resp, pageNumber); err != nil {
			rt.writeError(w, err)
			return
		}
	}

	switch r.URL.Query().Get("zoom") {
	case "":
	case "in":
		sess.ZoomIn()
	case "out":
		sess.ZoomOut()
	default:
		if z, err := strconv.ParseFloat(r.URL.Query().Get("zoom"), 64); err == nil {
			sess.SetZoom(z)
		}
	}

	focused := r.URL.Query().Get("focus")
	if focused != "" && r.URL.Query().Get("scroll") == "true" {
		sess.RequestFocusScroll()
	}

	lines, words := resp.OcrLines, resp.OcrWords
	if len(lines) == 0 && isPDFName(resp.Filename) {
		key := usecase.StorageKey(resp.DocumentID, resp.Filename)
		if extracted, err := rt.textLayer.ExtractLines(r.Context(), key, pageNumber); err == nil {
			lines = extracted
		}
	}

	frame := sess.Frame(
		resp.ExtractedValues,
		resp.SpatialResults,
		lines, words,
		r.URL.Query().Get("hover"), focused,
	)
	if frame == nil {
		writeJSON(w, http.StatusOK, map[string]string{"state": string(usecase.StateRasterLoading)})
		return
	}
	if rt.metrics != nil {
		for _, h := range frame.Focus {
			rt.metrics.RecordResolverHit(rt.service, string(h.Tier))
		}
	}
	writeJSON(w, http.StatusOK, frame)
}

func (rt *Router) loadPage(r *http.Request, sess *usecase.OverlaySession, resp *domain.ExtractionResponse, pageNumber int) error {
	token := sess.BeginRaster(pageNumber)

	key := usecase.StorageKey(resp.DocumentID, resp.Filename)
	start := time.Now()
	raster, err := rt.rasterizer.RenderPage(r.Context(), key, pageNumber)
	if rt.metrics != nil {
		rt.metrics.RecordRender(rt.service, documentKind(resp.Filename), err, time.Since(start))
	}
	if err != nil {
		return sess.FailRaster(token, err)
	}

	sess.CompleteRaster(token, pageDimensions(resp, pageNumber, raster), raster.PixelWidth, raster.PixelHeight)
	return nil
}

func (rt *Router) submitReview(w http.ResponseWriter, r *http.Request, documentID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Edits map[string]any `json:"edits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	sess, err := rt.reviewSession(r, documentID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	for name, value := range req.Edits {
		sess.Edit(name, value)
	}

	result, err := rt.reviewUC.SubmitEdits(r.Context(), sess)
	if rt.metrics != nil {
		status := "ok"
		changed := 0
		switch {
		case err != nil:
			status = "error"
		case result.NoChanges:
			status = "no_changes"
		default:
			changed = len(result.Submitted)
		}
		rt.metrics.RecordReviewSubmission(rt.service, status, changed)
	}
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) reviewHistory(w http.ResponseWriter, r *http.Request, documentID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	records, err := rt.reviewUC.History(r.Context(), documentID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"corrections": records})
}

func (rt *Router) templatesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, err := rt.templates.ListTemplates(r.Context())
		if err != nil {
			rt.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		tmpl, ok := rt.decodeTemplate(w, r)
		if !ok {
			return
		}
		created, err := rt.templates.CreateTemplate(r.Context(), tmpl)
		if err != nil {
			rt.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) templateByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/templates/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template id is required"})
		return
	}

	switch r.Method {
	case http.MethodPut:
		tmpl, ok := rt.decodeTemplate(w, r)
		if !ok {
			return
		}
		updated, err := rt.templates.UpdateTemplate(r.Context(), id, tmpl)
		if err != nil {
			rt.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := rt.templates.DeleteTemplate(r.Context(), id); err != nil {
			rt.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// fetchDetail proxies the dashboard detail and reshapes it to the
// console's extraction response form.
func (rt *Router) fetchDetail(r *http.Request, documentID string) (*domain.ExtractionResponse, error) {
	detail, err := rt.dashboard.GetDocument(r.Context(), documentID)
	if err != nil {
		return nil, err
	}
	resp := usecase.MapDetail(detail)
	if resp == nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "detail",
			fmt.Errorf("document %s", documentID))
	}
	if resp.TotalPages == 0 {
		// The page count bounds the raster endpoint's valid range. The
		// stored upload is authoritative; the backend's per-page
		// dimensions are the fallback when the bytes are not local.
		key := usecase.StorageKey(resp.DocumentID, resp.Filename)
		if n, err := rt.rasterizer.PageCount(r.Context(), key); err == nil {
			resp.TotalPages = n
		} else if len(resp.PageDimensions) > 0 {
			resp.TotalPages = len(resp.PageDimensions)
		}
	}
	return resp, nil
}

func (rt *Router) overlaySession(documentID string, r *http.Request) *usecase.OverlaySession {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if sess, ok := rt.overlays[documentID]; ok {
		return sess
	}
	sess := usecase.NewOverlaySession(
		rt.resolver,
		queryFloat(r, "container_width", rt.containerWidth),
		queryFloat(r, "viewport_width", defaultViewportWidth),
		queryFloat(r, "viewport_height", defaultViewportHeight),
	)
	rt.overlays[documentID] = sess
	return sess
}

func (rt *Router) reviewSession(r *http.Request, documentID string) (*usecase.ReviewSession, error) {
	rt.mu.Lock()
	if sess, ok := rt.reviews[documentID]; ok {
		rt.mu.Unlock()
		return sess, nil
	}
	rt.mu.Unlock()

	resp, err := rt.fetchDetail(r, documentID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if sess, ok := rt.reviews[documentID]; ok {
		return sess, nil
	}
	sess := rt.reviewUC.Load(documentID, resp)
	rt.reviews[documentID] = sess
	return sess, nil
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func listQueryFromRequest(r *http.Request) domain.ListQuery {
	q := r.URL.Query()
	lq := domain.ListQuery{
		Page:             queryInt(r, "page", 1),
		PageSize:         queryInt(r, "page_size", 20),
		SortBy:           q.Get("sort_by"),
		SortOrder:        q.Get("sort_order"),
		StartDate:        q.Get("start_date"),
		EndDate:          q.Get("end_date"),
		DocumentTypes:    q.Get("document_types"),
		Statuses:         q.Get("statuses"),
		ReviewerID:       q.Get("reviewer_id"),
		Source:           q.Get("source"),
		FilenameContains: q.Get("filename_contains"),
	}
	if v := q.Get("requires_hitl_review"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			lq.RequiresHITLReview = &b
		}
	}
	if v := q.Get("min_cost"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			lq.MinCost = &f
		}
	}
	if v := q.Get("max_cost"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			lq.MaxCost = &f
		}
	}
	return lq
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// pageDimensions finds the declared document-space size for a page.
// Without one, the overlay falls back to treating raster pixels as
// document units at the default screen density.
func pageDimensions(resp *domain.ExtractionResponse, pageNumber int, raster *ports.PageRaster) domain.Page {
	for _, p := range resp.PageDimensions {
		if p.PageNumber == pageNumber {
			return p
		}
	}
	return domain.Page{
		PageNumber: pageNumber,
		Width:      float64(raster.PixelWidth),
		Height:     float64(raster.PixelHeight),
		Unit:       "pixel",
	}
}

func downscale(img image.Image, targetWidth int) image.Image {
	bounds := img.Bounds()
	ratio := float64(targetWidth) / float64(bounds.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, int(float64(bounds.Dy())*ratio)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

func documentKind(filename string) string {
	if isPDFName(filename) {
		return "pdf"
	}
	return "image"
}

func parseVariant(v string) domain.OCRVariant {
	if v == string(domain.VariantAzureDI) {
		return domain.VariantAzureDI
	}
	return domain.VariantEasyOCR
}

func isPDFName(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
