// Package events holds the payloads published on the event bus.
package events

// BookingCreatedEvent is published to booking.created once the booking transaction commits.
type BookingCreatedEvent struct {
	BookingID          string  `json:"booking_id"`
	ConfirmationNumber string  `json:"confirmation_number"`
	AppointmentID      string  `json:"appointment_id"`
	ClientID           string  `json:"client_id"`
	PickupTime         string  `json:"pickup_time"`
	Total              float64 `json:"total"`
	AppointmentStatus  string  `json:"appointment_status"`
}

// DriverAssignedEvent is published to driver.assigned.
type DriverAssignedEvent struct {
	AppointmentID string `json:"appointment_id"`
	ReservationID string `json:"reservation_id,omitempty"`
	DriverID      string `json:"driver_id"`
	PickupTime    string `json:"pickup_time"`
}

// ReservationStatusChangedEvent is published to reservation.status_changed.
type ReservationStatusChangedEvent struct {
	ReservationID string `json:"reservation_id"`
	DriverID      string `json:"driver_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	ChangedAt     string `json:"changed_at"`
}
