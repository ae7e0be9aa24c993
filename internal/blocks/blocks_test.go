package blocks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-service/internal/apperr"
	"booking-service/internal/models"
	"booking-service/pkg/logger"
)

type memStore struct {
	blocks map[string]*models.Block
	last   Filter
}

func (m *memStore) Create(ctx context.Context, b *models.Block) error {
	b.ID = "blk-" + b.Title
	cp := *b
	m.blocks[b.ID] = &cp
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*models.Block, error) {
	b, ok := m.blocks[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) List(ctx context.Context, f Filter) ([]models.Block, error) {
	m.last = f
	var out []models.Block
	for _, b := range m.blocks {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, b *models.Block) (bool, error) {
	if _, ok := m.blocks[b.ID]; !ok {
		return false, nil
	}
	cp := *b
	m.blocks[b.ID] = &cp
	return true, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := m.blocks[id]
	delete(m.blocks, id)
	return ok, nil
}

func strp(s string) *string { return &s }

const (
	driverID  = "6a0f3c8e-1b2d-4e5f-8a9b-0c1d2e3f4a5b"
	vehicleID = "9b2e4d6f-7a1c-4b3e-8d5f-1a2b3c4d5e6f"
)

func TestBlockInvariants(t *testing.T) {
	start := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	blank := strp("  ")

	cases := []struct {
		name string
		req  BlockRequest
		ok   bool
	}{
		{"global", BlockRequest{Title: "Holiday", Start: start, End: end, Scope: models.ScopeGlobal}, true},
		{"global blank ids", BlockRequest{Title: "Holiday", Start: start, End: end, Scope: models.ScopeGlobal, DriverID: blank}, true},
		{"driver", BlockRequest{Title: "Leave", Start: start, End: end, Scope: models.ScopeDriver, DriverID: strp(driverID)}, true},
		{"vehicle", BlockRequest{Title: "Service", Start: start, End: end, Scope: models.ScopeVehicle, VehicleID: strp(vehicleID)}, true},
		{"end equals start", BlockRequest{Title: "X", Start: start, End: start, Scope: models.ScopeGlobal}, false},
		{"end before start", BlockRequest{Title: "X", Start: end, End: start, Scope: models.ScopeGlobal}, false},
		{"global with driver", BlockRequest{Title: "X", Start: start, End: end, Scope: models.ScopeGlobal, DriverID: strp(driverID)}, false},
		{"driver missing id", BlockRequest{Title: "X", Start: start, End: end, Scope: models.ScopeDriver}, false},
		{"driver with vehicle", BlockRequest{Title: "X", Start: start, End: end, Scope: models.ScopeDriver, DriverID: strp(driverID), VehicleID: strp(vehicleID)}, false},
		{"vehicle missing id", BlockRequest{Title: "X", Start: start, End: end, Scope: models.ScopeVehicle, DriverID: strp(driverID)}, false},
		{"driver id not a uuid", BlockRequest{Title: "X", Start: start, End: end, Scope: models.ScopeDriver, DriverID: strp("d1")}, false},
		{"vehicle id not a uuid", BlockRequest{Title: "X", Start: start, End: end, Scope: models.ScopeVehicle, VehicleID: strp("v1")}, false},
		{"unknown scope", BlockRequest{Title: "X", Start: start, End: end, Scope: "fleet"}, false},
		{"no title", BlockRequest{Start: start, End: end, Scope: models.ScopeGlobal}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&memStore{blocks: map[string]*models.Block{}})
			b, err := svc.Create(context.Background(), tc.req)
			if tc.ok {
				if err != nil {
					t.Fatalf("Create: %v", err)
				}
				if tc.req.Scope == models.ScopeGlobal && (b.DriverID != nil || b.VehicleID != nil) {
					t.Errorf("global block kept ids: %+v", b)
				}
				return
			}
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestListHandlerParsesWindow(t *testing.T) {
	store := &memStore{blocks: map[string]*models.Block{}}
	h := NewHandler(NewService(store), logger.NewNop()).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?scope=driver&from=2026-07-01T00:00:00Z&to=2026-08-01T00:00:00Z", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if store.last.Scope != "driver" || store.last.From.Month() != time.July || store.last.To.Month() != time.August {
		t.Errorf("filter = %+v", store.last)
	}

	for _, q := range []string{"/?from=yesterday", "/?from=2026-08-01T00:00:00Z&to=2026-07-01T00:00:00Z"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, rec.Code)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/missing", strings.NewReader("")))
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing: status = %d", rec.Code)
	}
}

func TestMalformedBlockID(t *testing.T) {
	store := &memStore{blocks: map[string]*models.Block{}}
	h := NewHandler(NewService(store), logger.NewNop()).Routes()
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/abc", nil),
		httptest.NewRequest(http.MethodPut, "/abc", strings.NewReader(`{"title":"X","start":"2026-07-04T00:00:00Z","end":"2026-07-05T00:00:00Z","scope":"global"}`)),
		httptest.NewRequest(http.MethodDelete, "/abc", nil),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d", req.Method, req.URL.Path, rec.Code)
		}
	}
}
