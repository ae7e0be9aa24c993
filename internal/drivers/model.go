package drivers

import "booking-service/internal/models"

// DriverRequest is the admin create/update body. Password is optional on update.
type DriverRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Password    string  `json:"password"`
	Status      string  `json:"status"`
	WorkMode    string  `json:"work_mode"`
	PayType     string  `json:"pay_type"`
	PayRate     float64 `json:"pay_rate"`
	NotifyEmail *bool   `json:"notify_email"`
	NotifySMS   *bool   `json:"notify_sms"`
}

// ShiftRequest is the body for POST /admin/drivers/{id}/shifts.
type ShiftRequest struct {
	Weekday      *int    `json:"weekday"`
	SpecificDate *string `json:"specific_date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Timezone     string  `json:"timezone"`
}

// LoginRequest is the body for POST /auth/driver/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on login.
type AuthResponse struct {
	Token  string         `json:"token"`
	Driver *models.Driver `json:"driver,omitempty"`
}

// Pay types.
const (
	PayHourly  = "hourly"
	PayPerRide = "per_ride"
	PayPercent = "percent"
)
