// Package tracking fans out live reservation and vehicle updates to
// websocket subscribers.
package tracking

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"booking-service/pkg/logger"
)

const fleetChannel = "fleet"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket allows one concurrent writer; this enforces that.
type safeConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.ws.WriteJSON(v)
}

func (c *safeConn) close() { c.ws.Close() }

// StatusMessage is pushed to subscribers of one reservation.
type StatusMessage struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	TS            int64  `json:"ts"`
}

// PositionMessage is pushed to fleet subscribers on every telemetry ping.
type PositionMessage struct {
	Type      string  `json:"type"`
	VehicleID string  `json:"vehicle_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	TS        int64   `json:"ts"`
}

// Hub manages WebSocket connections per channel.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*safeConn
	log   logger.ILogger
}

// NewHub creates a tracking hub.
func NewHub(log logger.ILogger) *Hub {
	return &Hub{conns: make(map[string][]*safeConn), log: log}
}

// Routes returns a chi.Router for the /ws mount point.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, reservationChannel(chi.URLParam(r, "id")))
	})
	r.Get("/fleet", func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, fleetChannel)
	})
	return r
}

func reservationChannel(id string) string { return "reservation:" + id }

// serve upgrades the connection and subscribes it to channel until the client goes away.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, channel string) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warning("ws upgrade failed", logger.Error(err))
		return
	}

	conn := &safeConn{ws: ws}

	h.mu.Lock()
	h.conns[channel] = append(h.conns[channel], conn)
	h.mu.Unlock()

	h.log.Debug("ws client connected", logger.String("channel", channel))

	// Block until the client disconnects
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.removeConn(channel, conn)
	conn.close()
	h.log.Debug("ws client disconnected", logger.String("channel", channel))
}

// BroadcastStatus pushes a reservation status change to its subscribers.
func (h *Hub) BroadcastStatus(reservationID, status string) {
	h.broadcast(reservationChannel(reservationID), StatusMessage{
		Type:          "status",
		ReservationID: reservationID,
		Status:        status,
		TS:            time.Now().Unix(),
	})
}

// BroadcastPosition pushes a vehicle position to fleet subscribers.
func (h *Hub) BroadcastPosition(vehicleID string, lat, lng float64) {
	h.broadcast(fleetChannel, PositionMessage{
		Type:      "position",
		VehicleID: vehicleID,
		Lat:       lat,
		Lng:       lng,
		TS:        time.Now().Unix(),
	})
}

// Subscribers reports how many connections listen on a reservation.
func (h *Hub) Subscribers(reservationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[reservationChannel(reservationID)])
}

func (h *Hub) broadcast(channel string, msg any) {
	h.mu.RLock()
	conns := append([]*safeConn(nil), h.conns[channel]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.writeJSON(msg); err != nil {
			h.log.Warning("ws write failed", logger.String("channel", channel), logger.Error(err))
		}
	}
}

func (h *Hub) removeConn(channel string, conn *safeConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[channel]
	for i, c := range conns {
		if c == conn {
			h.conns[channel] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[channel]) == 0 {
		delete(h.conns, channel)
	}
}
