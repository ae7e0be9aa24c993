package tracking

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"booking-service/pkg/logger"
)

func TestBroadcastStatusReachesSubscriber(t *testing.T) {
	hub := NewHub(logger.NewNop())
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/reservations/r1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("r1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastStatus("other", "DONE")
	hub.BroadcastStatus("r1", "STARTED")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg StatusMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.ReservationID != "r1" || msg.Status != "STARTED" || msg.Type != "status" {
		t.Errorf("msg = %+v", msg)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.Subscribers("r1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
