package bookings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

// Handler exposes booking HTTP endpoints.
type Handler struct {
	svc *Service
	log logger.ILogger
}

func NewHandler(svc *Service, log logger.ILogger) *Handler { return &Handler{svc: svc, log: log} }

// Routes is mounted under /bookings (public).
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	return r
}

// AdminRoutes is mounted under /admin/bookings.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{confirmation}", h.Get)
	return r
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	res, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusCreated, map[string]any{
		"booking":         res.Booking,
		"appointment":     res.Appointment,
		"assigned_driver": res.AssignedDriver,
		"reservation_id":  res.ReservationID,
		"notes":           res.Notes,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "confirmation"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Data(w, http.StatusOK, b)
}
