package blocks

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/apperr"
	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

type Handler struct {
	svc *Service
	log logger.ILogger
}

func NewHandler(svc *Service, log logger.ILogger) *Handler { return &Handler{svc: svc, log: log} }

// Routes is mounted under /admin/blocks.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTime(q.Get("from"))
	if err != nil {
		respond.Error(w, r, h.log, apperr.Validation("from must be RFC3339"))
		return
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		respond.Error(w, r, h.log, apperr.Validation("to must be RFC3339"))
		return
	}
	limit, offset := respond.Page(r)
	out, err := h.svc.List(r.Context(), Filter{Scope: q.Get("scope"), From: from, To: to, Limit: limit, Offset: offset})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	b, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusCreated, b)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	b, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, nil)
}
