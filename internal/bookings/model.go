package bookings

import (
	"time"

	"booking-service/internal/models"
)

// BookingRequest is the body of POST /bookings.
type BookingRequest struct {
	ConfirmationNumber  string   `json:"confirmation_number"`
	FullName            string   `json:"full_name"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	PickupAddress       string   `json:"pickup_address"`
	DropoffAddress      string   `json:"dropoff_address"`
	Date                string   `json:"date"`
	Time                string   `json:"time"`
	VehicleType         string   `json:"vehicle_type"`
	DistanceMiles       float64  `json:"distance_miles"`
	Total               *float64 `json:"total"`
	FlightNumber        string   `json:"flight_number"`
	TailNumber          string   `json:"tail_number"`
	SpecialInstructions string   `json:"special_instructions"`
	MeetGreet           bool     `json:"meet_greet"`
	PaymentSessionID    string   `json:"payment_session_id"`
	PaymentIntentID     string   `json:"payment_intent_id"`
}

// AppointmentSummary is the appointment part of a booking response.
type AppointmentSummary struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	PickupTime time.Time `json:"pickup_time"`
	DriverID   *string   `json:"driver_id"`
}

// AssignedDriver is the driver part of a booking response.
type AssignedDriver struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Result is what a successful booking returns.
type Result struct {
	Booking        *models.Booking    `json:"booking"`
	Appointment    AppointmentSummary `json:"appointment"`
	AssignedDriver *AssignedDriver    `json:"assigned_driver"`
	ReservationID  string             `json:"reservation_id,omitempty"`
	Notes          string             `json:"notes"`

	clientID string
}
