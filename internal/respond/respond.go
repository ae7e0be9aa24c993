// Package respond writes the JSON envelopes every endpoint uses:
// {"ok":true,...} on success and {"ok":false,"error":"..."} on failure.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cast"

	"booking-service/internal/apperr"
	"booking-service/pkg/logger"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK merges fields into a success envelope.
func OK(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}

// Data wraps a single payload under "data".
func Data(w http.ResponseWriter, status int, data any) {
	JSON(w, status, map[string]any{"ok": true, "data": data})
}

// Error maps err through apperr. System errors are logged with the request id
// and surfaced as an opaque message.
func Error(w http.ResponseWriter, r *http.Request, log logger.ILogger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	JSON(w, status, map[string]any{"ok": false, "error": apperr.PublicMessage(err)})
}

// Decode reads a JSON body into v, reporting malformed input as a validation error.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid body")
	}
	return nil
}

// Page reads limit/offset query params, clamping limit to [1,200] (default 50).
func Page(r *http.Request) (limit, offset int) {
	limit = cast.ToInt(r.URL.Query().Get("limit"))
	offset = cast.ToInt(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
