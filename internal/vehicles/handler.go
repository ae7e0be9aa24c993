package vehicles

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

// TrackerHeader carries the per-vehicle tracker token.
const TrackerHeader = "X-Tracker-Token"

type Handler struct {
	svc *Service
	log logger.ILogger
}

func NewHandler(svc *Service, log logger.ILogger) *Handler { return &Handler{svc: svc, log: log} }

// AdminRoutes is mounted under /admin/vehicles.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/nearby", h.Nearby)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/live", h.Live)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// TelemetryRoutes is mounted under /telemetry.
func (h *Handler) TelemetryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Ingest)
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := respond.Page(r)
	out, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req VehicleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	v, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusCreated, v)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, v)
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Live(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, m)
}

func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.Nearby(r.Context(), cast.ToFloat64(q.Get("lat")), cast.ToFloat64(q.Get("lng")), cast.ToFloat64(q.Get("radius_km")))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req VehicleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	v, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, nil)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var p Ping
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	v, err := h.svc.Ingest(r.Context(), r.Header.Get(TrackerHeader), p)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusAccepted, map[string]any{"vehicle_id": v.ID, "status": v.TelemetryStatus})
}
