package documents

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/scanvault/internal/http/middleware"
	"github.com/tendant/scanvault/internal/httputil"
	"github.com/tendant/scanvault/pkg/documents"
	"github.com/tendant/scanvault/pkg/domain"
)

// Handler handles the document endpoints. Every operation is scoped to the
// token's user.
type Handler struct {
	logger  *slog.Logger
	service *documents.Service
}

// NewHandler creates a new documents handler.
func NewHandler(logger *slog.Logger, service *documents.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Create stores a new document.
// POST /api/documents/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in documents.Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	doc, err := h.service.Create(r.Context(), owner, in)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, doc)
}

// List returns the caller's documents, newest first.
// GET /api/documents/?skip=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	docs, err := h.service.List(r.Context(), owner, page)
	h.respondList(w, docs, err)
}

// Search matches the query against the searchable fields.
// GET /api/documents/search/?query=&skip=&limit=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	docs, err := h.service.Search(r.Context(), owner, r.URL.Query().Get("query"), page)
	h.respondList(w, docs, err)
}

// ListByType returns the caller's documents of one scan type.
// GET /api/documents/type/{scan_type}
func (h *Handler) ListByType(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	scanType := domain.ScanType(chi.URLParam(r, "scan_type"))
	docs, err := h.service.ListByType(r.Context(), owner, scanType, page)
	h.respondList(w, docs, err)
}

// Get returns one document.
// GET /api/documents/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// Update patches one document.
// PUT /api/documents/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	var upd domain.DocumentUpdate
	if err := httputil.DecodeJSON(r, &upd); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	doc, err := h.service.Update(r.Context(), owner, id, upd)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// Delete removes one document.
// DELETE /api/documents/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), owner, id); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	owner, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrUnauthenticated)
	}
	return owner, ok
}

func (h *Handler) ownerAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := h.owner(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := documents.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}

func (h *Handler) respondList(w http.ResponseWriter, docs []*domain.Document, err error) {
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	httputil.JSON(w, http.StatusOK, docs)
}

func parsePage(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	var page domain.Page
	for _, p := range []struct {
		name string
		dst  *int
	}{{"skip", &page.Skip}, {"limit", &page.Limit}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, domain.NewValidationError(domain.ErrInvalidField, "%s must be a non-negative integer", p.name)
		}
		*p.dst = n
	}
	return page, nil
}
