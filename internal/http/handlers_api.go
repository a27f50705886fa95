package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/target/tbrd-ui/internal/apiclient"
	"github.com/target/tbrd-ui/internal/domain/model"
	"github.com/target/tbrd-ui/internal/tbrd"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	// multipartOverhead leaves room for the form envelope around the file.
	multipartOverhead = 1 << 20
)

// APIHandlers proxies the browser's JSON calls to the TBRD backend on behalf of the
// request's profile.
type APIHandlers struct {
	API            *apiclient.Client
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func (h *APIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// client binds the backend client to the request's profile.
func (h *APIHandlers) client(r *http.Request) *tbrd.Client {
	return tbrd.New(h.API.As(ProfileFromContext(r.Context())))
}

// ListCases handles GET /api/cases.
func (h *APIHandlers) ListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.client(r).ListCases(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if cases == nil {
		cases = []model.Case{}
	}
	WriteJSON(w, http.StatusOK, cases)
}

// CreateCase handles POST /api/cases with {"name": "..."}.
func (h *APIHandlers) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCaseRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err})
		return
	}
	created, err := h.client(r).CreateCase(r.Context(), req)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// GetCase handles GET /api/cases/{caseId}.
func (h *APIHandlers) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.client(r).GetCase(r.Context(), r.PathValue("caseId"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// ListDocuments handles GET /api/cases/{caseId}/documents.
func (h *APIHandlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.client(r).ListDocuments(r.Context(), r.PathValue("caseId"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	WriteJSON(w, http.StatusOK, docs)
}

// UploadDocument handles POST /api/cases/{caseId}/documents with a multipart "file".
func (h *APIHandlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = model.MaxBRDUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "invalid_upload", Err: model.ErrUploadTooLarge})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_upload", Err: err})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_upload", Err: errors.New("file is required")})
		return
	}
	defer file.Close()

	meta := model.BRDUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if validateErr := model.ValidateBRDUpload(meta); validateErr != nil {
		status := http.StatusBadRequest
		if errors.Is(validateErr, model.ErrUploadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		WriteError(w, ErrorParams{Code: status, ErrCode: "invalid_upload", Err: validateErr})
		return
	}

	doc, err := h.client(r).UploadDocument(r.Context(), r.PathValue("caseId"), meta, file)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if doc == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusCreated, doc)
}

// StartPipeline handles POST /api/cases/{caseId}/pipeline.
func (h *APIHandlers) StartPipeline(w http.ResponseWriter, r *http.Request) {
	st, err := h.client(r).StartPipeline(r.Context(), r.PathValue("caseId"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, st)
}

// PipelineStatus handles GET /api/cases/{caseId}/pipeline.
func (h *APIHandlers) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.client(r).PipelineStatus(r.Context(), r.PathValue("caseId"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

// GetTBRD handles GET /api/cases/{caseId}/tbrd.
func (h *APIHandlers) GetTBRD(w http.ResponseWriter, r *http.Request) {
	content, err := h.client(r).GetTBRD(r.Context(), r.PathValue("caseId"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	content.Sections = content.Ordered()
	WriteJSON(w, http.StatusOK, content)
}

// UpdateSection handles PUT /api/cases/{caseId}/tbrd/sections/{sectionId}.
func (h *APIHandlers) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSectionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	section, err := h.client(r).UpdateSection(r.Context(), r.PathValue("caseId"), r.PathValue("sectionId"), req)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, section)
}

// Search handles GET /api/cases/{caseId}/search?q=&limit=.
func (h *APIHandlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: errors.New("q is required")})
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: errors.New("limit must be a positive integer")})
			return
		}
		limit = min(n, maxSearchLimit)
	}

	results, err := h.client(r).Search(r.Context(), r.PathValue("caseId"), q, limit)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	WriteJSON(w, http.StatusOK, results)
}

// ListMessages handles GET /api/cases/{caseId}/conversation.
func (h *APIHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.client(r).ListMessages(r.Context(), r.PathValue("caseId"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []model.ConversationMessage{}
	}
	WriteJSON(w, http.StatusOK, msgs)
}

// SendMessage handles POST /api/cases/{caseId}/conversation.
func (h *APIHandlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: errors.New("content is required")})
		return
	}
	reply, err := h.client(r).SendMessage(r.Context(), r.PathValue("caseId"), req)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reply)
}

// KPIs handles GET /api/dashboard/kpis.
func (h *APIHandlers) KPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.client(r).KPIs(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, kpis)
}

// Activity handles GET /api/dashboard/activity.
func (h *APIHandlers) Activity(w http.ResponseWriter, r *http.Request) {
	items, err := h.client(r).Activity(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if items == nil {
		items = []model.ActivityItem{}
	}
	WriteJSON(w, http.StatusOK, items)
}

// Stats handles GET /api/dashboard/stats.
func (h *APIHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client(r).Stats(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// writeBackendError maps client errors onto the BFF's responses. Authentication
// failures ask the browser to sign in again; the cached account is left alone.
func (h *APIHandlers) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiclient.APIError
	switch {
	case apiclient.IsAuthError(err):
		h.logger().InfoContext(r.Context(), "backend call needs re-authentication", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "reauthentication_required",
			Err:     errors.New("please sign in again"),
			Extra:   map[string]string{"login_url": "/auth/login"},
		})
	case errors.As(err, &apiErr):
		WriteError(w, ErrorParams{Code: apiErr.Status, ErrCode: "api_error", Err: apiErr})
	case errors.Is(err, apiclient.ErrMalformedResponse):
		h.logger().WarnContext(r.Context(), "malformed backend response", "path", r.URL.Path)
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "bad_gateway", Err: err})
	default:
		h.logger().ErrorContext(r.Context(), "backend call failed", "path", r.URL.Path, "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: "backend_unavailable",
			Err:     errors.New("the TBRD service is unavailable"),
		})
	}
}
