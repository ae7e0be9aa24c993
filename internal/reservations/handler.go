package reservations

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/apperr"
	"booking-service/internal/auth"
	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

// Handler exposes the driver job endpoints and the admin CRUD.
type Handler struct {
	svc *Service
	log logger.ILogger
}

func NewHandler(svc *Service, log logger.ILogger) *Handler { return &Handler{svc: svc, log: log} }

// DriverRoutes is mounted under /driver/reservations behind the driver role.
func (h *Handler) DriverRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Mine)
	r.Patch("/{id}/status", h.UpdateStatus)
	return r
}

// AdminRoutes is mounted under /admin/reservations.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ForDriver(r.Context(), principal(r))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusUpdate
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if req.Status == "" {
		respond.Error(w, r, h.log, apperr.Validation("missing required field: status"))
		return
	}
	if err := h.svc.Transition(r.Context(), principal(r), chi.URLParam(r, "id"), req.Status); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, nil)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := respond.Page(r)
	out, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	res, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusCreated, res)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, res)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	res, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, res)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, nil)
}
