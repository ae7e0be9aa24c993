package reservations

import "time"

// ReservationRequest is the admin create/update body.
type ReservationRequest struct {
	ConfirmationCode string    `json:"confirmation_code"`
	ContactName      string    `json:"contact_name"`
	ContactPhone     string    `json:"contact_phone"`
	ContactEmail     string    `json:"contact_email"`
	PickupTime       time.Time `json:"pickup_time"`
	FromAddress      string    `json:"from_address"`
	ToAddress        string    `json:"to_address"`
	VehicleID        *string   `json:"vehicle_id"`
	Price            float64   `json:"price"`
	DriverID         *string   `json:"driver_id"`
}

// StatusUpdate is the body for PATCH /driver/reservations/{id}/status.
type StatusUpdate struct {
	Status string `json:"status"`
}
