// Package bookings turns a paid website quote into a booking, a client, an
// appointment and an assignment decision, all in one transaction.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/apperr"
	"booking-service/internal/assignment"
	"booking-service/internal/events"
	"booking-service/internal/models"
	"booking-service/internal/schedule"
	"booking-service/pkg/db"
	"booking-service/pkg/kafka"
	"booking-service/pkg/logger"
	"booking-service/pkg/validation"
)

const (
	StatusConfirmed    = "confirmed"
	defaultVehicleType = "suv"
)

// Publisher is satisfied by *kafka.Client.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Reader looks bookings up outside of the intake transaction.
type Reader interface {
	GetByConfirmation(ctx context.Context, code string) (*models.Booking, error)
}

// Service contains booking intake logic.
type Service struct {
	tx      Transactor
	reader  Reader
	engine  *assignment.Engine
	clock   *schedule.Clock
	pub     Publisher
	log     logger.ILogger
	minLead int
}

func NewService(tx Transactor, reader Reader, engine *assignment.Engine, clock *schedule.Clock,
	pub Publisher, log logger.ILogger, minLeadHours int) *Service {
	if minLeadHours <= 0 {
		minLeadHours = 24
	}
	return &Service{tx: tx, reader: reader, engine: engine, clock: clock, pub: pub, log: log, minLead: minLeadHours}
}

// validate checks the request in a fixed order and returns the UTC pickup instant.
func (s *Service) validate(req *BookingRequest) (time.Time, error) {
	required := []struct{ name, value string }{
		{"confirmation_number", req.ConfirmationNumber},
		{"full_name", req.FullName},
		{"email", req.Email},
		{"pickup_address", req.PickupAddress},
		{"dropoff_address", req.DropoffAddress},
		{"date", req.Date},
		{"time", req.Time},
	}
	for _, f := range required {
		if validation.Blank(f.value) {
			return time.Time{}, apperr.Validationf("missing required field: %s", f.name)
		}
	}
	if req.Total == nil {
		return time.Time{}, apperr.Validation("missing required field: total")
	}
	if *req.Total < 0 {
		return time.Time{}, apperr.Validation("total must not be negative")
	}
	if !validation.ValidateEmail(strings.TrimSpace(req.Email)) {
		return time.Time{}, apperr.Validation("invalid email")
	}

	if !s.clock.IsAtLeastNHoursAhead(req.Date, req.Time, s.minLead) {
		return time.Time{}, apperr.Validationf("pickup must be ≥%dh ahead", s.minLead)
	}

	pickup, err := s.clock.LocalToUTC(req.Date, req.Time)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid pickup date/time")
	}
	return pickup, nil
}

func vehiclePreference(vehicleType string) string {
	if strings.EqualFold(strings.TrimSpace(vehicleType), "van") {
		return models.VehicleVan
	}
	return models.VehicleSUV
}

// Create validates req and persists it. Nothing is written when validation
// fails, and any failure after the first write rolls everything back.
func (s *Service) Create(ctx context.Context, req BookingRequest) (*Result, error) {
	pickup, err := s.validate(&req)
	if err != nil {
		return nil, err
	}

	vehicleType := strings.ToLower(strings.TrimSpace(req.VehicleType))
	if vehicleType == "" {
		vehicleType = defaultVehicleType
	}
	booking := &models.Booking{
		ID:                 uuid.New().String(),
		ConfirmationNumber: strings.TrimSpace(req.ConfirmationNumber),
		FullName:           strings.TrimSpace(req.FullName),
		Email:              strings.TrimSpace(req.Email),
		Phone:              strings.TrimSpace(req.Phone),
		PickupAddress:      strings.TrimSpace(req.PickupAddress),
		DropoffAddress:     strings.TrimSpace(req.DropoffAddress),
		Date:               req.Date,
		Time:               req.Time,
		VehicleType:        vehicleType,
		DistanceMiles:      req.DistanceMiles,
		Total:              *req.Total,
		FlightNumber:       strings.TrimSpace(req.FlightNumber),
		TailNumber:         strings.TrimSpace(req.TailNumber),
		PaymentSessionID:   req.PaymentSessionID,
		PaymentIntentID:    req.PaymentIntentID,
		Status:             StatusConfirmed,
	}

	var res *Result
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		res, err = s.persist(ctx, tx, booking, req, pickup)
		return err
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.System("create booking", err)
	}

	s.log.Info("booking created",
		logger.String("confirmation_number", booking.ConfirmationNumber),
		logger.String("appointment_id", res.Appointment.ID),
		logger.String("appointment_status", res.Appointment.Status),
	)
	s.publish(res)
	return res, nil
}

func (s *Service) persist(ctx context.Context, tx Tx, booking *models.Booking, req BookingRequest, pickup time.Time) (*Result, error) {
	if err := tx.InsertBooking(ctx, booking); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflictf("confirmation number %s already exists", booking.ConfirmationNumber)
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	client, err := s.resolveClient(ctx, tx, booking)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"booking_id":          booking.ID,
		"confirmation_number": booking.ConfirmationNumber,
		"payment_session_id":  booking.PaymentSessionID,
		"payment_intent_id":   booking.PaymentIntentID,
		"meet_greet":          req.MeetGreet,
	}
	if v := strings.TrimSpace(req.SpecialInstructions); v != "" {
		meta["special_instructions"] = v
	}
	if booking.FlightNumber != "" || booking.TailNumber != "" {
		meta["flight"] = map[string]string{"flight_number": booking.FlightNumber, "tail_number": booking.TailNumber}
	}

	appt := &models.Appointment{
		ID:                uuid.New().String(),
		ClientID:          client.ID,
		PickupAddress:     booking.PickupAddress,
		DropoffAddress:    booking.DropoffAddress,
		PickupTime:        pickup,
		FlightNumber:      validation.NilIfBlank(&booking.FlightNumber),
		DistanceMiles:     booking.DistanceMiles,
		Price:             booking.Total,
		VehiclePreference: vehiclePreference(booking.VehicleType),
		Status:            models.AppointmentPending,
		Source:            models.SourceWebsite,
		Metadata:          meta,
	}
	if err := tx.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	decision, err := s.engine.Assign(ctx, tx, *appt)
	if err != nil {
		return nil, fmt.Errorf("assign driver: %w", err)
	}
	trace, err := decision.TraceJSON()
	if err != nil {
		return nil, fmt.Errorf("encode trace: %w", err)
	}

	res := &Result{Booking: booking, Notes: decision.Trace.Note, clientID: client.ID}

	if !decision.Assigned() {
		if err := tx.InsertAssignmentLog(ctx, appt.ID, nil, trace); err != nil {
			return nil, fmt.Errorf("insert assignment log: %w", err)
		}
		res.Appointment = AppointmentSummary{ID: appt.ID, Status: appt.Status, PickupTime: appt.PickupTime}
		return res, nil
	}

	d := decision.Driver
	ok, err := tx.MarkAssigned(ctx, appt.ID, d.ID)
	if err != nil {
		return nil, fmt.Errorf("mark assigned: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("mark assigned: appointment %s is no longer pending", appt.ID)
	}
	driverID := d.ID
	if err := tx.InsertAssignmentLog(ctx, appt.ID, &driverID, trace); err != nil {
		return nil, fmt.Errorf("insert assignment log: %w", err)
	}

	rsv := &models.Reservation{
		ID:               uuid.New().String(),
		ConfirmationCode: booking.ConfirmationNumber,
		AppointmentID:    &appt.ID,
		ContactName:      booking.FullName,
		ContactPhone:     booking.Phone,
		ContactEmail:     booking.Email,
		PickupTime:       pickup,
		FromAddress:      booking.PickupAddress,
		ToAddress:        booking.DropoffAddress,
		Price:            booking.Total,
		DriverID:         &driverID,
		Status:           models.ReservationAssigned,
	}
	if err := tx.CreateReservation(ctx, rsv); err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	res.Appointment = AppointmentSummary{ID: appt.ID, Status: models.AppointmentAssigned, PickupTime: appt.PickupTime, DriverID: &driverID}
	res.AssignedDriver = &AssignedDriver{ID: d.ID, Name: d.Name, Phone: d.Phone}
	res.ReservationID = rsv.ID
	return res, nil
}

// resolveClient reuses a client matched by email, then by phone, and creates one otherwise.
func (s *Service) resolveClient(ctx context.Context, tx Tx, b *models.Booking) (*models.Client, error) {
	c, err := tx.FindClientByEmail(ctx, b.Email)
	if err != nil {
		return nil, fmt.Errorf("find client by email: %w", err)
	}
	if c == nil && b.Phone != "" {
		if c, err = tx.FindClientByPhone(ctx, b.Phone); err != nil {
			return nil, fmt.Errorf("find client by phone: %w", err)
		}
	}
	if c != nil {
		return c, nil
	}

	email := b.Email
	c = &models.Client{
		ID:     uuid.New().String(),
		Name:   b.FullName,
		Email:  &email,
		Phone:  validation.NilIfBlank(&b.Phone),
		Rating: models.RatingNew,
	}
	c, err = tx.UpsertClientByEmail(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("upsert client: %w", err)
	}
	return c, nil
}

func (s *Service) publish(res *Result) {
	if s.pub == nil {
		return
	}
	b := res.Booking
	pickup := res.Appointment.PickupTime.UTC().Format(time.RFC3339)
	created := events.BookingCreatedEvent{
		BookingID:          b.ID,
		ConfirmationNumber: b.ConfirmationNumber,
		AppointmentID:      res.Appointment.ID,
		ClientID:           res.clientID,
		PickupTime:         pickup,
		Total:              b.Total,
		AppointmentStatus:  res.Appointment.Status,
	}

	// Async Kafka publish
	go func() {
		ctx := context.Background()
		if err := s.pub.Publish(ctx, kafka.TopicBookingCreated, b.ConfirmationNumber, created); err != nil {
			s.log.Warning("publish booking.created failed", logger.String("booking_id", b.ID), logger.Error(err))
		}
		if res.AssignedDriver == nil {
			return
		}
		assigned := events.DriverAssignedEvent{
			AppointmentID: res.Appointment.ID,
			ReservationID: res.ReservationID,
			DriverID:      res.AssignedDriver.ID,
			PickupTime:    pickup,
		}
		if err := s.pub.Publish(ctx, kafka.TopicDriverAssigned, res.AssignedDriver.ID, assigned); err != nil {
			s.log.Warning("publish driver.assigned failed", logger.String("appointment_id", res.Appointment.ID), logger.Error(err))
		}
	}()
}

// Lookup is the admin read of a single booking.
func (s *Service) Lookup(ctx context.Context, code string) (*models.Booking, error) {
	b, err := s.reader.GetByConfirmation(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, apperr.System("get booking", err)
	}
	if b == nil {
		return nil, apperr.NotFound("booking")
	}
	return b, nil
}
