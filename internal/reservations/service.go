package reservations

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"booking-service/internal/apperr"
	"booking-service/internal/appointments"
	"booking-service/internal/auth"
	"booking-service/internal/events"
	"booking-service/internal/models"
	"booking-service/internal/schedule"
	"booking-service/pkg/db"
	"booking-service/pkg/kafka"
	"booking-service/pkg/logger"
	"booking-service/pkg/validation"
)

// Store is what the status machine needs from persistence.
type Store interface {
	Get(ctx context.Context, id string) (*models.Reservation, error)
	// ApplyTransition performs the compare-and-set and every side write that
	// must commit with it. It returns false when the row changed underneath.
	ApplyTransition(ctx context.Context, res *models.Reservation, to string, at time.Time) (bool, error)
}

// Publisher is satisfied by *kafka.Client.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Broadcaster pushes status changes to live subscribers.
type Broadcaster interface {
	BroadcastStatus(reservationID, status string)
}

// Service contains reservation business logic.
type Service struct {
	store Store
	repo  *Repo
	pub   Publisher
	hub   Broadcaster
	clock *schedule.Clock
	log   logger.ILogger
	now   func() time.Time
}

func NewService(store Store, repo *Repo, pub Publisher, hub Broadcaster, clock *schedule.Clock, log logger.ILogger) *Service {
	return &Service{store: store, repo: repo, pub: pub, hub: hub, clock: clock, log: log, now: time.Now}
}

// Transition advances a reservation owned by the calling driver.
func (s *Service) Transition(ctx context.Context, p auth.Principal, id, target string) error {
	target = strings.ToUpper(strings.TrimSpace(target))
	if !Known(target) {
		return apperr.Validationf("unknown status %q", target)
	}

	driverID, ok := p.DriverID()
	if !ok || !validation.ValidateUUID(id) {
		return apperr.Forbidden("reservation not found")
	}

	res, err := s.store.Get(ctx, id)
	if err != nil {
		return apperr.System("load reservation", err)
	}
	if res == nil || res.DriverID == nil || *res.DriverID != driverID {
		return apperr.Forbidden("reservation not found")
	}

	from := res.Status
	if !CanTransition(from, target) {
		return apperr.Conflictf("%s -> %s invalid", from, target)
	}

	at := s.now()
	applied, err := s.store.ApplyTransition(ctx, res, target, at)
	if err != nil {
		return apperr.System("apply transition", err)
	}
	if !applied {
		return apperr.Conflictf("%s -> %s invalid: status changed concurrently", from, target)
	}

	s.log.Info("reservation status changed",
		logger.String("reservation_id", id),
		logger.String("driver_id", driverID),
		logger.String("from", from),
		logger.String("to", target),
	)

	if s.hub != nil {
		s.hub.BroadcastStatus(id, target)
	}
	if s.pub != nil {
		ev := events.ReservationStatusChangedEvent{
			ReservationID: id, DriverID: driverID, From: from, To: target,
			ChangedAt: at.UTC().Format(time.RFC3339),
		}
		go func() {
			if err := s.pub.Publish(context.Background(), kafka.TopicReservationStatus, id, ev); err != nil {
				s.log.Warning("publish reservation.status_changed failed", logger.String("reservation_id", id), logger.Error(err))
			}
		}()
	}
	return nil
}

// todayStart is local midnight in the operating zone, as a UTC instant.
func (s *Service) todayStart() time.Time {
	start, _ := s.clock.DayBounds(s.now())
	return start
}

// ForDriver lists the caller's jobs from the start of the local day on.
func (s *Service) ForDriver(ctx context.Context, p auth.Principal) ([]models.Reservation, error) {
	driverID, ok := p.DriverID()
	if !ok {
		return nil, apperr.Forbidden("driver only")
	}
	out, err := s.repo.ListForDriver(ctx, driverID, s.todayStart())
	if err != nil {
		return nil, apperr.System("list driver reservations", err)
	}
	return out, nil
}

// ---- admin CRUD ----

func (req ReservationRequest) validate() error {
	switch {
	case strings.TrimSpace(req.ConfirmationCode) == "":
		return apperr.Validation("missing required field: confirmation_code")
	case strings.TrimSpace(req.FromAddress) == "" || strings.TrimSpace(req.ToAddress) == "":
		return apperr.Validation("missing required field: from/to address")
	case req.PickupTime.IsZero():
		return apperr.Validation("missing required field: pickup_time")
	case req.Price < 0:
		return apperr.Validation("price must not be negative")
	case req.DriverID != nil && !validation.ValidateUUID(*req.DriverID):
		return apperr.Validation("invalid driver_id")
	case req.VehicleID != nil && !validation.ValidateUUID(*req.VehicleID):
		return apperr.Validation("invalid vehicle_id")
	}
	return nil
}

func (req ReservationRequest) toModel(id string) *models.Reservation {
	return &models.Reservation{
		ID:               id,
		ConfirmationCode: strings.TrimSpace(req.ConfirmationCode),
		ContactName:      req.ContactName,
		ContactPhone:     req.ContactPhone,
		ContactEmail:     req.ContactEmail,
		PickupTime:       req.PickupTime,
		FromAddress:      req.FromAddress,
		ToAddress:        req.ToAddress,
		VehicleID:        req.VehicleID,
		Price:            req.Price,
		DriverID:         req.DriverID,
		Status:           models.ReservationAssigned,
	}
}

func (s *Service) Create(ctx context.Context, req ReservationRequest) (*models.Reservation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	res, err := s.repo.Create(ctx, req.toModel(""))
	if err != nil {
		return nil, apperr.System("create reservation", err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Reservation, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("reservation")
	}
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.System("get reservation", err)
	}
	if res == nil {
		return nil, apperr.NotFound("reservation")
	}
	return res, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]models.Reservation, error) {
	out, err := s.repo.List(ctx, strings.ToUpper(status), limit, offset)
	if err != nil {
		return nil, apperr.System("list reservations", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req ReservationRequest) (*models.Reservation, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("reservation")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	ok, err := s.repo.UpdateDetails(ctx, req.toModel(id))
	if err != nil {
		return nil, apperr.System("update reservation", err)
	}
	if !ok {
		return nil, apperr.NotFound("reservation")
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !validation.ValidateUUID(id) {
		return apperr.NotFound("reservation")
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.System("delete reservation", err)
	}
	if !ok {
		return apperr.NotFound("reservation")
	}
	return nil
}

// PGStore runs transitions inside one transaction so the linked appointment
// moves with its reservation.
type PGStore struct {
	db *db.DB
}

func NewPGStore(d *db.DB) *PGStore { return &PGStore{db: d} }

func (s *PGStore) Get(ctx context.Context, id string) (*models.Reservation, error) {
	return NewRepo(s.db.Pool).Get(ctx, id)
}

func (s *PGStore) ApplyTransition(ctx context.Context, res *models.Reservation, to string, at time.Time) (bool, error) {
	var applied bool
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		ok, err := NewRepo(tx).CompareAndSetStatus(ctx, res.ID, *res.DriverID, res.Status, to, at)
		if err != nil || !ok {
			return err
		}
		applied = true
		if mirror, ok := appointmentMirror[to]; ok && res.AppointmentID != nil {
			return appointments.NewRepo(tx).SetStatus(ctx, *res.AppointmentID, mirror)
		}
		return nil
	})
	return applied, err
}
