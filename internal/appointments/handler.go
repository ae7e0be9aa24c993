package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/apperr"
	"booking-service/internal/models"
	"booking-service/internal/respond"
	"booking-service/pkg/logger"
	"booking-service/pkg/validation"
)

// LogLister reads the assignment trail of an appointment.
type LogLister interface {
	ListLogs(ctx context.Context, appointmentID string) ([]models.AssignmentLog, error)
}

// Handler exposes read-only admin appointment endpoints.
type Handler struct {
	repo *Repo
	logs LogLister
	log  logger.ILogger
}

func NewHandler(repo *Repo, logs LogLister, log logger.ILogger) *Handler {
	return &Handler{repo: repo, logs: logs, log: log}
}

// Routes is mounted under /admin/appointments.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/assignments", h.Assignments)
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{Status: q.Get("status"), DriverID: q.Get("driver_id")}
	f.Limit, f.Offset = respond.Page(r)
	if f.DriverID != "" && !validation.ValidateUUID(f.DriverID) {
		respond.Error(w, r, h.log, apperr.Validation("invalid driver_id"))
		return
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.Error(w, r, h.log, apperr.Validation("invalid from"))
			return
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.Error(w, r, h.log, apperr.Validation("invalid to"))
			return
		}
		f.To = t
	}

	out, err := h.repo.List(r.Context(), f)
	if err != nil {
		respond.Error(w, r, h.log, apperr.System("list appointments", err))
		return
	}
	respond.Data(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validation.ValidateUUID(id) {
		respond.Error(w, r, h.log, apperr.NotFound("appointment"))
		return
	}
	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.log, apperr.System("get appointment", err))
		return
	}
	if a == nil {
		respond.Error(w, r, h.log, apperr.NotFound("appointment"))
		return
	}
	respond.Data(w, http.StatusOK, a)
}

type logView struct {
	ID        string          `json:"id"`
	DriverID  *string         `json:"driver_id"`
	RuleTrace json.RawMessage `json:"rule_trace"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handler) Assignments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validation.ValidateUUID(id) {
		respond.Error(w, r, h.log, apperr.NotFound("appointment"))
		return
	}
	logs, err := h.logs.ListLogs(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.log, apperr.System("list assignment logs", err))
		return
	}
	out := make([]logView, 0, len(logs))
	for _, l := range logs {
		out = append(out, logView{ID: l.ID, DriverID: l.DriverID, RuleTrace: l.RuleTrace, CreatedAt: l.CreatedAt})
	}
	respond.Data(w, http.StatusOK, out)
}
