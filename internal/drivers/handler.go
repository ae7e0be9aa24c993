package drivers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/apperr"
	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

// Notifier sends a driver their upcoming rides and returns the message.
type Notifier interface {
	NotifyDriver(ctx context.Context, driverID string) (string, error)
}

// Handler exposes driver HTTP endpoints.
type Handler struct {
	svc      *Service
	notifier Notifier
	log      logger.ILogger
}

// NewHandler wires a handler to the driver service.
func NewHandler(svc *Service, notifier Notifier, log logger.ILogger) *Handler {
	return &Handler{svc: svc, notifier: notifier, log: log}
}

// LoginRoutes is mounted under /auth/driver.
func (h *Handler) LoginRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	return r
}

// AdminRoutes is mounted under /admin/drivers.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Get("/{id}/shifts", h.ListShifts)
	r.Post("/{id}/shifts", h.AddShift)
	r.Delete("/{id}/shifts/{shiftID}", h.RemoveShift)

	r.Post("/{id}/notify", h.Notify)
	return r
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"token": resp.Token, "driver": resp.Driver})
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
	var req DriverRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	d, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusCreated, d)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, d)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req DriverRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	d, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, d)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, nil)
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Shifts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) AddShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	sh, err := h.svc.AddShift(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusCreated, sh)
}

func (h *Handler) RemoveShift(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveShift(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "shiftID")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, nil)
}

func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	msg, err := h.notifier.NotifyDriver(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.log, apperr.System("notify driver", err))
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"message": msg})
}
