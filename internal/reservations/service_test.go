package reservations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"booking-service/internal/apperr"
	"booking-service/internal/auth"
	"booking-service/internal/events"
	"booking-service/internal/models"
	"booking-service/internal/schedule"
	"booking-service/pkg/logger"
)

const (
	resID     = "5d7f9b1c-3e5a-4c7e-9f1b-3d5f7a9c1e30"
	missingID = "00000000-0000-4000-8000-000000000000"
)

var allStatuses = []string{
	models.ReservationAssigned,
	models.ReservationStarted,
	models.ReservationArrived,
	models.ReservationDone,
	models.ReservationCancelled,
}

type memStore struct {
	mu   sync.Mutex
	rows map[string]*models.Reservation
	// steal, when set, changes the row between Get and ApplyTransition.
	steal string
	err   error
}

func newMemStore(rows ...models.Reservation) *memStore {
	s := &memStore{rows: map[string]*models.Reservation{}}
	for i := range rows {
		r := rows[i]
		s.rows[r.ID] = &r
	}
	return s
}

func (s *memStore) Get(ctx context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) ApplyTransition(ctx context.Context, res *models.Reservation, to string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	row := s.rows[res.ID]
	if s.steal != "" {
		row.Status = s.steal
	}
	if row.Status != res.Status || row.DriverID == nil || *row.DriverID != *res.DriverID {
		return false, nil
	}
	row.Status = to
	switch milestones[to] {
	case "started_at":
		row.StartedAt = &at
	case "arrived_at":
		row.ArrivedAt = &at
	case "done_at":
		row.DoneAt = &at
	}
	return true, nil
}

type recordingHub struct {
	mu  sync.Mutex
	got []string
}

func (h *recordingHub) BroadcastStatus(id, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.got = append(h.got, id+":"+status)
}

type chanPublisher struct{ ch chan any }

func (p *chanPublisher) Publish(ctx context.Context, topic, key string, value any) error {
	p.ch <- value
	return nil
}

func strp(s string) *string { return &s }

func reservation(id, driverID, status string) models.Reservation {
	return models.Reservation{ID: id, ConfirmationCode: "BK-" + id, DriverID: strp(driverID), Status: status}
}

func driverPrincipal(id string) auth.Principal {
	return auth.Principal{Subject: id, Roles: []string{auth.RoleDriver}}
}

func newTestService(t *testing.T, st Store) (*Service, *recordingHub) {
	t.Helper()
	clock, err := schedule.New("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	hub := &recordingHub{}
	return NewService(st, nil, nil, hub, clock, logger.NewNop()), hub
}

func TestTransitionLegalityGrid(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(from+"->"+to, func(t *testing.T) {
				st := newMemStore(reservation(resID, "d1", from))
				svc, _ := newTestService(t, st)

				err := svc.Transition(context.Background(), driverPrincipal("d1"), resID, to)
				after, _ := st.Get(context.Background(), resID)

				if CanTransition(from, to) {
					if err != nil {
						t.Fatalf("legal transition failed: %v", err)
					}
					if after.Status != to {
						t.Fatalf("status = %s, want %s", after.Status, to)
					}
					return
				}
				if apperr.KindOf(err) != apperr.KindConflict {
					t.Fatalf("err = %v, want conflict", err)
				}
				if after.Status != from {
					t.Fatalf("status changed to %s on rejected transition", after.Status)
				}
			})
		}
	}
}

func TestTransitionOwnership(t *testing.T) {
	st := newMemStore(reservation(resID, "owner", models.ReservationAssigned))
	svc, hub := newTestService(t, st)

	for _, to := range allStatuses {
		err := svc.Transition(context.Background(), driverPrincipal("intruder"), resID, to)
		if apperr.KindOf(err) != apperr.KindAuthorization {
			t.Fatalf("%s: err = %v, want authorization", to, err)
		}
	}

	missing := svc.Transition(context.Background(), driverPrincipal("intruder"), missingID, models.ReservationStarted)
	notOwned := svc.Transition(context.Background(), driverPrincipal("intruder"), resID, models.ReservationStarted)
	if apperr.PublicMessage(missing) != apperr.PublicMessage(notOwned) {
		t.Errorf("missing and not-owned are distinguishable: %q vs %q", missing, notOwned)
	}

	admin := auth.Principal{Subject: "admin", Roles: []string{auth.RoleAdmin}}
	if err := svc.Transition(context.Background(), admin, resID, models.ReservationStarted); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("admin principal: err = %v", err)
	}

	if r, _ := st.Get(context.Background(), resID); r.Status != models.ReservationAssigned {
		t.Errorf("status = %s", r.Status)
	}
	if len(hub.got) != 0 {
		t.Errorf("broadcasts = %v", hub.got)
	}
}

func TestTransitionArrivedToStartedIsRejected(t *testing.T) {
	st := newMemStore(reservation(resID, "d1", models.ReservationArrived))
	svc, _ := newTestService(t, st)

	err := svc.Transition(context.Background(), driverPrincipal("d1"), resID, models.ReservationStarted)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("err = %v", err)
	}
	if got := apperr.PublicMessage(err); got != "ARRIVED -> STARTED invalid" {
		t.Errorf("message = %q", got)
	}
}

func TestTransitionCancelSetsNoMilestone(t *testing.T) {
	st := newMemStore(reservation(resID, "d1", models.ReservationAssigned))
	svc, hub := newTestService(t, st)
	pub := &chanPublisher{ch: make(chan any, 1)}
	svc.pub = pub

	if err := svc.Transition(context.Background(), driverPrincipal("d1"), resID, "cancelled"); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	r, _ := st.Get(context.Background(), resID)
	if r.Status != models.ReservationCancelled {
		t.Fatalf("status = %s", r.Status)
	}
	if r.StartedAt != nil || r.ArrivedAt != nil || r.DoneAt != nil {
		t.Errorf("milestones set: %+v", r)
	}
	if len(hub.got) != 1 || hub.got[0] != resID+":CANCELLED" {
		t.Errorf("broadcasts = %v", hub.got)
	}

	select {
	case v := <-pub.ch:
		ev, ok := v.(events.ReservationStatusChangedEvent)
		if !ok || ev.From != models.ReservationAssigned || ev.To != models.ReservationCancelled {
			t.Errorf("event = %+v", v)
		}
	case <-time.After(time.Second):
		t.Error("no event published")
	}
}

func TestTransitionStampsMilestones(t *testing.T) {
	st := newMemStore(reservation(resID, "d1", models.ReservationAssigned))
	svc, _ := newTestService(t, st)
	now := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for _, to := range []string{models.ReservationStarted, models.ReservationArrived, models.ReservationDone} {
		if err := svc.Transition(context.Background(), driverPrincipal("d1"), resID, to); err != nil {
			t.Fatalf("%s: %v", to, err)
		}
	}
	r, _ := st.Get(context.Background(), resID)
	for name, ts := range map[string]*time.Time{"started": r.StartedAt, "arrived": r.ArrivedAt, "done": r.DoneAt} {
		if ts == nil || !ts.Equal(now) {
			t.Errorf("%s_at = %v", name, ts)
		}
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(reservation(resID, "d1", models.ReservationAssigned)))
	err := svc.Transition(context.Background(), driverPrincipal("d1"), resID, "PAUSED")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v", err)
	}
}

func TestTransitionLostRace(t *testing.T) {
	st := newMemStore(reservation(resID, "d1", models.ReservationAssigned))
	st.steal = models.ReservationCancelled
	svc, hub := newTestService(t, st)

	err := svc.Transition(context.Background(), driverPrincipal("d1"), resID, models.ReservationStarted)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(hub.got) != 0 {
		t.Errorf("broadcast after lost race: %v", hub.got)
	}
}

func TestTransitionStoreFailure(t *testing.T) {
	st := newMemStore(reservation(resID, "d1", models.ReservationAssigned))
	st.err = errors.New("connection reset")
	svc, _ := newTestService(t, st)

	err := svc.Transition(context.Background(), driverPrincipal("d1"), resID, models.ReservationStarted)
	if apperr.KindOf(err) != apperr.KindSystem {
		t.Fatalf("err = %v, want system", err)
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	st := newMemStore(reservation(resID, "d1", models.ReservationAssigned))
	svc, _ := newTestService(t, st)
	h := NewHandler(svc, logger.NewNop())

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithPrincipal(r.Context(), driverPrincipal(r.Header.Get("X-Test-Driver")))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Mount("/driver/reservations", h.DriverRoutes())

	cases := []struct {
		driver, body string
		code         int
		contains     string
	}{
		{"d1", `{"status":"STARTED"}`, http.StatusOK, `"ok":true`},
		{"d1", `{"status":"STARTED"}`, http.StatusConflict, `STARTED -> STARTED invalid`},
		{"d2", `{"status":"ARRIVED"}`, http.StatusForbidden, `reservation not found`},
		{"d1", `{}`, http.StatusBadRequest, `missing required field`},
		{"d1", `not json`, http.StatusBadRequest, `invalid body`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPatch, "/driver/reservations/"+resID+"/status", strings.NewReader(tc.body))
		req.Header.Set("X-Test-Driver", tc.driver)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tc.code || !strings.Contains(rec.Body.String(), tc.contains) {
			t.Errorf("%s %s: %d %s", tc.driver, tc.body, rec.Code, rec.Body.String())
		}
	}
}

func TestTransitionMalformedID(t *testing.T) {
	st := newMemStore(reservation(resID, "d1", models.ReservationAssigned))
	st.err = errors.New("store must not be reached")
	svc, hub := newTestService(t, st)

	for _, id := range []string{"abc", "r1", resID + "0", strings.ToUpper(resID)[:35]} {
		err := svc.Transition(context.Background(), driverPrincipal("d1"), id, models.ReservationStarted)
		if apperr.KindOf(err) != apperr.KindAuthorization || apperr.PublicMessage(err) != "reservation not found" {
			t.Errorf("%q: err = %v", id, err)
		}
	}
	if len(hub.got) != 0 {
		t.Errorf("broadcasts = %v", hub.got)
	}

	for _, id := range []string{"abc", ""} {
		if _, err := svc.Get(context.Background(), id); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Get(%q): err = %v", id, err)
		}
		if err := svc.Delete(context.Background(), id); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("Delete(%q): err = %v", id, err)
		}
	}

	req := ReservationRequest{
		ConfirmationCode: "BK-1", FromAddress: "JFK", ToAddress: "Midtown",
		PickupTime: time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC), DriverID: strp("d1"),
	}
	if _, err := svc.Update(context.Background(), "abc", req); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Update(abc): err = %v", err)
	}
	if _, err := svc.Update(context.Background(), resID, req); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Update with bad driver_id: err = %v", err)
	}
}

func TestDriverListStartsAtLocalMidnight(t *testing.T) {
	svc, _ := newTestService(t, newMemStore())
	// 21:30 on June 10 in New York, already June 11 in UTC.
	svc.now = func() time.Time { return time.Date(2026, 6, 11, 1, 30, 0, 0, time.UTC) }

	want := time.Date(2026, 6, 10, 4, 0, 0, 0, time.UTC)
	if got := svc.todayStart(); !got.Equal(want) {
		t.Errorf("todayStart = %v, want %v", got, want)
	}
}
