package vehicles

// VehicleRequest creates or replaces a vehicle. An empty TrackerToken on
// create gets a generated one.
type VehicleRequest struct {
	Name         string `json:"name"`
	Plate        string `json:"plate"`
	Capacity     int    `json:"capacity"`
	TrackerToken string `json:"tracker_token"`
}

// Ping is one telemetry report from a tracker.
type Ping struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Status string  `json:"status"`
}

// Telemetry status values.
const (
	StatusOnline  = "online"
	StatusIdle    = "idle"
	StatusOffline = "offline"
)
