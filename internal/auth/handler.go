package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/apperr"
	"booking-service/internal/respond"
	"booking-service/pkg/logger"
)

// SessionHandler trades the admin key for a back-office cookie.
type SessionHandler struct {
	key     []byte
	cookies *CookieSession
	log     logger.ILogger
}

func NewSessionHandler(adminKey string, cookies *CookieSession, log logger.ILogger) *SessionHandler {
	return &SessionHandler{key: []byte(adminKey), cookies: cookies, log: log}
}

// Routes is mounted under /auth/admin.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/session", h.Login)
	r.Delete("/session", h.Logout)
	return r
}

type sessionRequest struct {
	Key string `json:"key"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if len(h.key) == 0 || subtle.ConstantTimeCompare([]byte(req.Key), h.key) != 1 {
		respond.Error(w, r, h.log, apperr.Forbidden("invalid credentials"))
		return
	}
	if err := h.cookies.Set(w, r, "admin"); err != nil {
		respond.Error(w, r, h.log, apperr.System("encode session", err))
		return
	}
	respond.OK(w, http.StatusOK, nil)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	respond.OK(w, http.StatusOK, nil)
}
