package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-service/internal/models"
	"booking-service/pkg/logger"
)

const appointmentID = "2c4e6a8b-0d1f-4a3c-9e5b-7d9f1b3d5f70"

type memLogs struct {
	asked []string
	logs  []models.AssignmentLog
}

func (m *memLogs) ListLogs(ctx context.Context, id string) ([]models.AssignmentLog, error) {
	m.asked = append(m.asked, id)
	return m.logs, nil
}

func TestAssignmentsHandler(t *testing.T) {
	logs := &memLogs{logs: []models.AssignmentLog{{
		ID:        "l1",
		RuleTrace: json.RawMessage(`[{"rule":"within_shift","passed":true}]`),
		CreatedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}}}
	h := NewHandler(nil, logs, logger.NewNop()).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+appointmentID+"/assignments", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "within_shift") {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if len(logs.asked) != 1 || logs.asked[0] != appointmentID {
		t.Errorf("asked = %v", logs.asked)
	}
}

func TestMalformedAppointmentID(t *testing.T) {
	// The repo is nil: a malformed id must never reach it.
	logs := &memLogs{}
	h := NewHandler(nil, logs, logger.NewNop()).Routes()

	for _, path := range []string{"/abc", "/abc/assignments", "/" + appointmentID + "0"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d", path, rec.Code)
		}
	}
	if len(logs.asked) != 0 {
		t.Errorf("logs read for malformed ids: %v", logs.asked)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?driver_id=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad driver filter: status = %d", rec.Code)
	}
}
