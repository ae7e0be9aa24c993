// Package models holds the persisted entities shared across features.
package models

import "time"

// Client is a rider.
type Client struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Phone                *string   `json:"phone,omitempty"`
	Email                *string   `json:"email,omitempty"`
	Notes                string    `json:"notes"`
	DefaultPickupAddress string    `json:"default_pickup_address"`
	Rating               string    `json:"rating"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// RatingNew marks clients created from a website booking.
const RatingNew = "new"

// Driver status and work modes.
const (
	DriverActive   = "active"
	DriverInactive = "inactive"

	WorkMode24h    = "24h"
	WorkModeCustom = "custom"
)

// Driver is a work resource that can be assigned appointments.
type Driver struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	WorkMode     string    `json:"work_mode"`
	PayType      string    `json:"pay_type"`
	PayRate      float64   `json:"pay_rate"`
	NotifyEmail  bool      `json:"notify_email"`
	NotifySMS    bool      `json:"notify_sms"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DriverShift is a recurring (Weekday) or one-off (SpecificDate) window.
// Exactly one of Weekday and SpecificDate is set.
type DriverShift struct {
	ID           string    `json:"id"`
	DriverID     string    `json:"driver_id"`
	Weekday      *int      `json:"weekday,omitempty"`
	SpecificDate *string   `json:"specific_date,omitempty"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Timezone     string    `json:"timezone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Booking is the raw intake record of a quote turned reservation request.
type Booking struct {
	ID                 string    `json:"id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	PickupAddress      string    `json:"pickup_address"`
	DropoffAddress     string    `json:"dropoff_address"`
	Date               string    `json:"date"`
	Time               string    `json:"time"`
	VehicleType        string    `json:"vehicle_type"`
	DistanceMiles      float64   `json:"distance_miles"`
	Total              float64   `json:"total"`
	FlightNumber       string    `json:"flight_number,omitempty"`
	TailNumber         string    `json:"tail_number,omitempty"`
	PaymentSessionID   string    `json:"payment_session_id,omitempty"`
	PaymentIntentID    string    `json:"payment_intent_id,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Appointment lifecycle.
const (
	AppointmentPending    = "pending"
	AppointmentAssigned   = "assigned"
	AppointmentInProgress = "in_progress"
	AppointmentCompleted  = "completed"
	AppointmentCancelled  = "cancelled"

	VehicleSUV = "SUV"
	VehicleVan = "Van"

	SourceWebsite = "website"
)

// Appointment is the schedulable unit derived from a Booking.
type Appointment struct {
	ID                string         `json:"id"`
	ClientID          string         `json:"client_id"`
	DriverID          *string        `json:"driver_id"`
	PickupAddress     string         `json:"pickup_address"`
	DropoffAddress    string         `json:"dropoff_address"`
	PickupTime        time.Time      `json:"pickup_time"`
	FlightNumber      *string        `json:"flight_number,omitempty"`
	DistanceMiles     float64        `json:"distance_miles"`
	Price             float64        `json:"price"`
	VehiclePreference string         `json:"vehicle_preference"`
	Status            string         `json:"status"`
	Source            string         `json:"source"`
	Metadata          map[string]any `json:"metadata"`
	CreatedAt         time.Time      `json:"created_at"`
}

// AssignmentLog is one immutable assignment decision. A nil DriverID means rejected.
type AssignmentLog struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	DriverID      *string   `json:"driver_id"`
	RuleTrace     []byte    `json:"rule_trace"`
	CreatedAt     time.Time `json:"created_at"`
}

// Reservation status values.
const (
	ReservationAssigned  = "ASSIGNED"
	ReservationStarted   = "STARTED"
	ReservationArrived   = "ARRIVED"
	ReservationDone      = "DONE"
	ReservationCancelled = "CANCELLED"
)

// Reservation is the driver-facing job.
type Reservation struct {
	ID               string     `json:"id"`
	ConfirmationCode string     `json:"confirmation_code"`
	AppointmentID    *string    `json:"appointment_id,omitempty"`
	ContactName      string     `json:"contact_name"`
	ContactPhone     string     `json:"contact_phone"`
	ContactEmail     string     `json:"contact_email"`
	PickupTime       time.Time  `json:"pickup_time"`
	FromAddress      string     `json:"from_address"`
	ToAddress        string     `json:"to_address"`
	VehicleID        *string    `json:"vehicle_id,omitempty"`
	Price            float64    `json:"price"`
	DriverID         *string    `json:"driver_id"`
	Status           string     `json:"status"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	ArrivedAt        *time.Time `json:"arrived_at,omitempty"`
	DoneAt           *time.Time `json:"done_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Vehicle is a fleet asset with its last known telemetry.
type Vehicle struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Plate           string     `json:"plate"`
	Capacity        int        `json:"capacity"`
	LastLat         *float64   `json:"last_lat,omitempty"`
	LastLng         *float64   `json:"last_lng,omitempty"`
	LastPingAt      *time.Time `json:"last_ping_at,omitempty"`
	TelemetryStatus string     `json:"telemetry_status"`
	TrackerToken    string     `json:"tracker_token,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Block scopes.
const (
	ScopeGlobal  = "global"
	ScopeDriver  = "driver"
	ScopeVehicle = "vehicle"
)

// Block is a scheduling exclusion window.
type Block struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Scope     string    `json:"scope"`
	DriverID  *string   `json:"driver_id,omitempty"`
	VehicleID *string   `json:"vehicle_id,omitempty"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
