package pricing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

// Handler exposes the public quote endpoints.
type Handler struct {
	svc *Service
	log logger.ILogger
}

func NewHandler(svc *Service, log logger.ILogger) *Handler { return &Handler{svc: svc, log: log} }

// Routes is mounted under /quotes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	return r
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	q, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusCreated, map[string]any{"quote": q})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"quote": q})
}
