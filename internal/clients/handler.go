package clients

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

// Handler exposes admin client endpoints.
type Handler struct {
	svc *Service
	log logger.ILogger
}

func NewHandler(svc *Service, log logger.ILogger) *Handler { return &Handler{svc: svc, log: log} }

// Routes is mounted under /admin/clients.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := respond.Page(r)
	out, err := h.svc.List(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	c, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusCreated, c)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, nil)
}
