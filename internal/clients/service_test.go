package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-service/internal/apperr"
	"booking-service/pkg/logger"
)

func TestMalformedClientID(t *testing.T) {
	// Malformed ids are rejected before the repo is reached.
	svc := NewService(nil)
	ctx := context.Background()
	for _, id := range []string{"abc", "42", "not-a-uuid-at-all-but-36-chars-long"} {
		if _, err := svc.Get(ctx, id); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Get(%q): err = %v", id, err)
		}
		if _, err := svc.Update(ctx, id, ClientRequest{Name: "Ann Lee"}); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Update(%q): err = %v", id, err)
		}
		if err := svc.Delete(ctx, id); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Delete(%q): err = %v", id, err)
		}
	}

	h := NewHandler(svc, logger.NewNop()).Routes()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/abc", strings.NewReader(`{"name":"Ann Lee"}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("PUT /abc: status = %d", rec.Code)
	}
}

func TestClientRequestValidation(t *testing.T) {
	bad := "not-an-email"
	svc := NewService(nil)
	if _, err := svc.Create(context.Background(), ClientRequest{Name: "Ann Lee", Email: &bad}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("err = %v, want validation", err)
	}
}
