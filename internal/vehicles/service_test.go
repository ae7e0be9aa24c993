package vehicles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/apperr"
	"booking-service/internal/models"
	"booking-service/pkg/logger"
)

const vehicleID = "9b2e4d6f-7a1c-4b3e-8d5f-1a2b3c4d5e6f"

type memStore struct {
	mu       sync.Mutex
	vehicles map[string]*models.Vehicle
}

func newMemStore(vs ...models.Vehicle) *memStore {
	m := &memStore{vehicles: map[string]*models.Vehicle{}}
	for i := range vs {
		v := vs[i]
		m.vehicles[v.ID] = &v
	}
	return m
}

func (m *memStore) Create(ctx context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = uuid.NewString()
	cp := *v
	m.vehicles[v.ID] = &cp
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (m *memStore) GetByToken(ctx context.Context, token string) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.TrackerToken == token {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) List(ctx context.Context, limit, offset int) ([]models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vehicle
	for _, v := range m.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, v *models.Vehicle) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.vehicles[v.ID]
	if !ok {
		return false, nil
	}
	old.Name, old.Plate, old.Capacity = v.Name, v.Plate, v.Capacity
	if v.TrackerToken != "" {
		old.TrackerToken = v.TrackerToken
	}
	return true, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vehicles[id]
	delete(m.vehicles, id)
	return ok, nil
}

func (m *memStore) RecordPing(ctx context.Context, id string, lat, lng float64, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.vehicles[id]
	v.LastLat, v.LastLng, v.LastPingAt, v.TelemetryStatus = &lat, &lng, &at, status
	return nil
}

type memLocator struct {
	positions map[string][2]float64
	status    map[string]map[string]string
}

func newMemLocator() *memLocator {
	return &memLocator{positions: map[string][2]float64{}, status: map[string]map[string]string{}}
}

func (l *memLocator) SetVehicleLocation(ctx context.Context, id string, lat, lng float64) error {
	l.positions[id] = [2]float64{lat, lng}
	return nil
}

func (l *memLocator) NearbyVehicles(ctx context.Context, lat, lng, radiusKm float64, count int) ([]string, error) {
	var out []string
	for id := range l.positions {
		out = append(out, id)
	}
	return out, nil
}

func (l *memLocator) RemoveVehicleLocation(ctx context.Context, id string) error {
	delete(l.positions, id)
	return nil
}

func (l *memLocator) CacheVehicleStatus(ctx context.Context, id string, data map[string]string, ttl time.Duration) error {
	l.status[id] = data
	return nil
}

func (l *memLocator) VehicleStatus(ctx context.Context, id string) (map[string]string, error) {
	return l.status[id], nil
}

type recordingHub struct {
	ids []string
}

func (h *recordingHub) BroadcastPosition(id string, lat, lng float64) { h.ids = append(h.ids, id) }

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store) (*Service, *memLocator, *recordingHub) {
	loc, hub := newMemLocator(), &recordingHub{}
	svc := NewService(store, loc, hub, logger.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, loc, hub
}

func TestIngest(t *testing.T) {
	store := newMemStore(models.Vehicle{ID: vehicleID, Name: "Black SUV", TrackerToken: "tok-1", TelemetryStatus: StatusOffline})
	svc, loc, hub := newTestService(store)
	ctx := context.Background()

	v, err := svc.Ingest(ctx, "tok-1", Ping{Lat: 40.64, Lng: -73.78})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if v.TelemetryStatus != StatusOnline || !v.LastPingAt.Equal(fixedNow) {
		t.Errorf("vehicle = %+v", v)
	}
	stored, _ := store.Get(ctx, vehicleID)
	if stored.LastLat == nil || *stored.LastLat != 40.64 {
		t.Errorf("ping not stored: %+v", stored)
	}
	if _, ok := loc.positions[vehicleID]; !ok {
		t.Error("live position not cached")
	}
	if loc.status[vehicleID]["status"] != StatusOnline {
		t.Errorf("live status = %v", loc.status[vehicleID])
	}
	if len(hub.ids) != 1 || hub.ids[0] != vehicleID {
		t.Errorf("broadcasts = %v", hub.ids)
	}

	live, err := svc.Live(ctx, vehicleID)
	if err != nil || live["lat"] != "40.64" {
		t.Errorf("Live = %v, %v", live, err)
	}
}

func TestIngestRejects(t *testing.T) {
	svc, _, hub := newTestService(newMemStore(models.Vehicle{ID: vehicleID, Name: "Van", TrackerToken: "tok-1"}))
	cases := []struct {
		name  string
		token string
		ping  Ping
		kind  apperr.Kind
	}{
		{"no token", "", Ping{Lat: 1, Lng: 1}, apperr.KindAuthorization},
		{"unknown token", "nope", Ping{Lat: 1, Lng: 1}, apperr.KindAuthorization},
		{"bad coordinates", "tok-1", Ping{Lat: 91, Lng: 1}, apperr.KindValidation},
		{"bad status", "tok-1", Ping{Lat: 1, Lng: 1, Status: "flying"}, apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Ingest(context.Background(), tc.token, tc.ping); apperr.KindOf(err) != tc.kind {
				t.Fatalf("err = %v, want %v", err, tc.kind)
			}
		})
	}
	if len(hub.ids) != 0 {
		t.Errorf("rejected pings were broadcast: %v", hub.ids)
	}
}

func TestCreateGeneratesToken(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	v, err := svc.Create(context.Background(), VehicleRequest{Name: "Sprinter", Plate: "abc-123", Capacity: 12})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(v.TrackerToken) != 32 || v.Plate != "ABC-123" {
		t.Errorf("vehicle = %+v", v)
	}
	if _, err := svc.Create(context.Background(), VehicleRequest{Name: " "}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("blank name: err = %v", err)
	}
}

func TestDeleteDropsLivePosition(t *testing.T) {
	svc, loc, _ := newTestService(newMemStore(models.Vehicle{ID: vehicleID, Name: "Van", TrackerToken: "t"}))
	loc.positions[vehicleID] = [2]float64{1, 1}
	if err := svc.Delete(context.Background(), vehicleID); err != nil {
		t.Fatal(err)
	}
	if _, ok := loc.positions[vehicleID]; ok {
		t.Error("position still cached")
	}
	if err := svc.Delete(context.Background(), vehicleID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestTelemetryHandler(t *testing.T) {
	svc, _, _ := newTestService(newMemStore(models.Vehicle{ID: vehicleID, Name: "Van", TrackerToken: "tok-1"}))
	h := NewHandler(svc, logger.NewNop()).TelemetryRoutes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lat":40.7,"lng":-74.0,"status":"idle"}`))
	req.Header.Set(TrackerHeader, "tok-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), `"status":"idle"`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lat":40.7,"lng":-74.0}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("missing token: status = %d", rec.Code)
	}
}

func TestMalformedVehicleID(t *testing.T) {
	svc, _, _ := newTestService(newMemStore(models.Vehicle{ID: vehicleID, Name: "Van", TrackerToken: "tok-1"}))
	ctx := context.Background()
	for _, id := range []string{"abc", "v1", "{" + vehicleID + "}"} {
		if _, err := svc.Get(ctx, id); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Get(%q): err = %v", id, err)
		}
		if _, err := svc.Live(ctx, id); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Live(%q): err = %v", id, err)
		}
		if _, err := svc.Update(ctx, id, VehicleRequest{Name: "Van"}); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Update(%q): err = %v", id, err)
		}
		if err := svc.Delete(ctx, id); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Delete(%q): err = %v", id, err)
		}
	}
}
