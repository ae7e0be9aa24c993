package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-service/internal/apperr"
	"booking-service/pkg/logger"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestErrorEnvelope(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("missing required field: email"), http.StatusBadRequest, "missing required field: email"},
		{apperr.Conflict("duplicate"), http.StatusConflict, "duplicate"},
		{apperr.Forbidden("forbidden"), http.StatusForbidden, "forbidden"},
		{apperr.NotFound("driver"), http.StatusNotFound, "driver not found"},
		{apperr.System("insert", errors.New("connection reset")), http.StatusInternalServerError, "internal error"},
		{errors.New("raw"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), logger.NewNop(), tc.err)
		body := decode(t, rec)
		if rec.Code != tc.status || body["ok"] != false || body["error"] != tc.msg {
			t.Errorf("%v: status = %d body = %v", tc.err, rec.Code, body)
		}
	}
}

func TestOKAndData(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, map[string]any{"id": "x"})
	if body := decode(t, rec); rec.Code != http.StatusCreated || body["ok"] != true || body["id"] != "x" {
		t.Errorf("OK: %d %v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	Data(rec, http.StatusOK, []int{1})
	if body := decode(t, rec); body["ok"] != true || body["data"] == nil {
		t.Errorf("Data: %v", body)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	var v struct{ A int }
	err := Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &v)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("err = %v", err)
	}
}

func TestPage(t *testing.T) {
	cases := map[string][2]int{
		"/":                     {50, 0},
		"/?limit=10&offset=20":  {10, 20},
		"/?limit=999":           {200, 0},
		"/?limit=abc&offset=-4": {50, 0},
	}
	for url, want := range cases {
		limit, offset := Page(httptest.NewRequest(http.MethodGet, url, nil))
		if limit != want[0] || offset != want[1] {
			t.Errorf("%s: got %d,%d want %v", url, limit, offset, want)
		}
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	h := RequestLogger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
