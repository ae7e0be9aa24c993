// Package pricing computes website quotes. Quotes are kept in a short-lived
// cache so the checkout step can pick them up by id.
package pricing

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/apperr"
	"booking-service/internal/schedule"
	"booking-service/pkg/validation"
)

var fareRates = map[string]struct {
	Base    float64
	PerMile float64
	Minimum float64
}{
	"suv": {Base: 85, PerMile: 3.25, Minimum: 110},
	"van": {Base: 110, PerMile: 4.10, Minimum: 140},
}

const (
	afterHoursFee = 35.0
	meetGreetFee  = 40.0
)

// QuoteRequest is the body of POST /quotes.
type QuoteRequest struct {
	PickupAddress  string  `json:"pickup_address"`
	DropoffAddress string  `json:"dropoff_address"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	VehicleType    string  `json:"vehicle_type"`
	DistanceMiles  float64 `json:"distance_miles"`
	MeetGreet      bool    `json:"meet_greet"`
}

// Quote is a priced request. Total is what the booking must carry.
type Quote struct {
	ID                 string    `json:"id"`
	ConfirmationNumber string    `json:"confirmation_number"`
	PickupAddress      string    `json:"pickup_address"`
	DropoffAddress     string    `json:"dropoff_address"`
	Date               string    `json:"date"`
	Time               string    `json:"time"`
	VehicleType        string    `json:"vehicle_type"`
	DistanceMiles      float64   `json:"distance_miles"`
	BaseFare           float64   `json:"base_fare"`
	DistanceFare       float64   `json:"distance_fare"`
	AfterHoursFee      float64   `json:"after_hours_fee"`
	MeetGreetFee       float64   `json:"meet_greet_fee"`
	Total              float64   `json:"total"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// Calculator prices requests against the operating clock and hours.
type Calculator struct {
	clock       *schedule.Clock
	open, close string
	minLead     int
}

func NewCalculator(clock *schedule.Clock, open, close string, minLeadHours int) *Calculator {
	return &Calculator{clock: clock, open: open, close: close, minLead: minLeadHours}
}

// Price returns an unsaved quote valid for ttl.
func (c *Calculator) Price(req QuoteRequest, ttl time.Duration) (*Quote, error) {
	if validation.Blank(req.PickupAddress) || validation.Blank(req.DropoffAddress) {
		return nil, apperr.Validation("missing required field: pickup/dropoff address")
	}
	if validation.Blank(req.Date) || validation.Blank(req.Time) {
		return nil, apperr.Validation("missing required field: date/time")
	}
	vt := strings.ToLower(strings.TrimSpace(req.VehicleType))
	if vt == "" {
		vt = "suv"
	}
	rate, ok := fareRates[vt]
	if !ok {
		return nil, apperr.Validationf("unknown vehicle type %q", req.VehicleType)
	}
	if req.DistanceMiles <= 0 {
		return nil, apperr.Validation("distance_miles must be positive")
	}
	if !c.clock.IsAtLeastNHoursAhead(req.Date, req.Time, c.minLead) {
		return nil, apperr.Validationf("pickup must be ≥%dh ahead", c.minLead)
	}

	q := &Quote{
		ID:                 uuid.New().String(),
		ConfirmationNumber: NewConfirmationNumber(),
		PickupAddress:      strings.TrimSpace(req.PickupAddress),
		DropoffAddress:     strings.TrimSpace(req.DropoffAddress),
		Date:               req.Date,
		Time:               req.Time,
		VehicleType:        vt,
		DistanceMiles:      req.DistanceMiles,
		BaseFare:           rate.Base,
		DistanceFare:       cents(req.DistanceMiles * rate.PerMile),
		ExpiresAt:          c.clock.Now().Add(ttl).UTC(),
	}
	fare := math.Max(q.BaseFare+q.DistanceFare, rate.Minimum)
	if schedule.IsOutsideOperatingHours(req.Time, c.open, c.close) {
		q.AfterHoursFee = afterHoursFee
	}
	if req.MeetGreet {
		q.MeetGreetFee = meetGreetFee
	}
	q.Total = cents(fare + q.AfterHoursFee + q.MeetGreetFee)
	return q, nil
}

// NewConfirmationNumber returns a short caller-visible code like "BK-7F3A9C21".
func NewConfirmationNumber() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "BK-" + strings.ToUpper(id[:8])
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
