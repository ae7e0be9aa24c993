package vehicles

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"booking-service/internal/apperr"
	"booking-service/internal/models"
	"booking-service/pkg/db"
	"booking-service/pkg/logger"
	"booking-service/pkg/validation"
)

// statusTTL bounds how long a cached live status survives without a new ping.
const statusTTL = 10 * time.Minute

// Store is the persistence the vehicle service needs; *Repo implements it.
type Store interface {
	Create(ctx context.Context, v *models.Vehicle) error
	Get(ctx context.Context, id string) (*models.Vehicle, error)
	GetByToken(ctx context.Context, token string) (*models.Vehicle, error)
	List(ctx context.Context, limit, offset int) ([]models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	RecordPing(ctx context.Context, id string, lat, lng float64, status string, at time.Time) error
}

// Locator keeps live positions; *redis.Client implements it.
type Locator interface {
	SetVehicleLocation(ctx context.Context, vehicleID string, lat, lng float64) error
	NearbyVehicles(ctx context.Context, lat, lng, radiusKm float64, count int) ([]string, error)
	RemoveVehicleLocation(ctx context.Context, vehicleID string) error
	CacheVehicleStatus(ctx context.Context, vehicleID string, data map[string]string, ttl time.Duration) error
	VehicleStatus(ctx context.Context, vehicleID string) (map[string]string, error)
}

// Broadcaster fans positions out to fleet subscribers.
type Broadcaster interface {
	BroadcastPosition(vehicleID string, lat, lng float64)
}

type Service struct {
	store   Store
	locator Locator
	hub     Broadcaster
	log     logger.ILogger
	now     func() time.Time
}

func NewService(store Store, locator Locator, hub Broadcaster, log logger.ILogger) *Service {
	return &Service{store: store, locator: locator, hub: hub, log: log, now: time.Now}
}

func (req VehicleRequest) validate() error {
	if validation.Blank(req.Name) {
		return apperr.Validation("missing required field: name")
	}
	if !validation.ValidatePlate(req.Plate) {
		return apperr.Validation("invalid plate")
	}
	if req.Capacity < 0 {
		return apperr.Validation("capacity must not be negative")
	}
	return nil
}

func (req VehicleRequest) toModel(id string) *models.Vehicle {
	return &models.Vehicle{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Plate:        strings.ToUpper(strings.TrimSpace(req.Plate)),
		Capacity:     req.Capacity,
		TrackerToken: strings.TrimSpace(req.TrackerToken),
	}
}

func (s *Service) Create(ctx context.Context, req VehicleRequest) (*models.Vehicle, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	v := req.toModel("")
	if v.TrackerToken == "" {
		v.TrackerToken = strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	if err := s.store.Create(ctx, v); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("tracker token already in use")
		}
		return nil, apperr.System("create vehicle", err)
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("vehicle")
	}
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.System("get vehicle", err)
	}
	if v == nil {
		return nil, apperr.NotFound("vehicle")
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Vehicle, error) {
	out, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.System("list vehicles", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req VehicleRequest) (*models.Vehicle, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("vehicle")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	ok, err := s.store.Update(ctx, req.toModel(id))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("tracker token already in use")
		}
		return nil, apperr.System("update vehicle", err)
	}
	if !ok {
		return nil, apperr.NotFound("vehicle")
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !validation.ValidateUUID(id) {
		return apperr.NotFound("vehicle")
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("vehicle is still referenced by reservations")
		}
		return apperr.System("delete vehicle", err)
	}
	if !ok {
		return apperr.NotFound("vehicle")
	}
	if s.locator != nil {
		if err := s.locator.RemoveVehicleLocation(ctx, id); err != nil {
			s.log.Warning("drop live location", logger.String("vehicle_id", id), logger.Error(err))
		}
	}
	return nil
}

// Ingest records a tracker ping. The token identifies the vehicle.
func (s *Service) Ingest(ctx context.Context, token string, p Ping) (*models.Vehicle, error) {
	if token == "" {
		return nil, apperr.Forbidden("missing tracker token")
	}
	if !validation.ValidateCoordinates(p.Lat, p.Lng) {
		return nil, apperr.Validation("invalid coordinates")
	}
	status := strings.ToLower(strings.TrimSpace(p.Status))
	switch status {
	case "":
		status = StatusOnline
	case StatusOnline, StatusIdle, StatusOffline:
	default:
		return nil, apperr.Validationf("invalid telemetry status %q", p.Status)
	}

	v, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, apperr.System("load vehicle", err)
	}
	if v == nil {
		return nil, apperr.Forbidden("invalid tracker token")
	}

	at := s.now().UTC()
	if err := s.store.RecordPing(ctx, v.ID, p.Lat, p.Lng, status, at); err != nil {
		return nil, apperr.System("record ping", err)
	}
	v.LastLat, v.LastLng, v.LastPingAt, v.TelemetryStatus = &p.Lat, &p.Lng, &at, status

	if s.locator != nil {
		if err := s.locator.SetVehicleLocation(ctx, v.ID, p.Lat, p.Lng); err != nil {
			s.log.Warning("cache location", logger.String("vehicle_id", v.ID), logger.Error(err))
		}
		live := map[string]string{
			"status":  status,
			"lat":     cast.ToString(p.Lat),
			"lng":     cast.ToString(p.Lng),
			"ping_at": at.Format(time.RFC3339),
		}
		if err := s.locator.CacheVehicleStatus(ctx, v.ID, live, statusTTL); err != nil {
			s.log.Warning("cache status", logger.String("vehicle_id", v.ID), logger.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.BroadcastPosition(v.ID, p.Lat, p.Lng)
	}
	return v, nil
}

// Live returns the cached live status, falling back to the last stored ping.
func (s *Service) Live(ctx context.Context, id string) (map[string]string, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("vehicle")
	}
	if s.locator != nil {
		m, err := s.locator.VehicleStatus(ctx, id)
		if err != nil {
			s.log.Warning("read live status", logger.String("vehicle_id", id), logger.Error(err))
		} else if len(m) > 0 {
			return m, nil
		}
	}
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := map[string]string{"status": v.TelemetryStatus}
	if v.LastLat != nil && v.LastLng != nil {
		out["lat"] = cast.ToString(*v.LastLat)
		out["lng"] = cast.ToString(*v.LastLng)
	}
	if v.LastPingAt != nil {
		out["ping_at"] = v.LastPingAt.UTC().Format(time.RFC3339)
	}
	return out, nil
}

// Nearby lists vehicles whose live position is within radiusKm.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Vehicle, error) {
	if !validation.ValidateCoordinates(lat, lng) {
		return nil, apperr.Validation("invalid coordinates")
	}
	if radiusKm <= 0 {
		radiusKm = 10
	}
	if s.locator == nil {
		return []models.Vehicle{}, nil
	}
	ids, err := s.locator.NearbyVehicles(ctx, lat, lng, radiusKm, 20)
	if err != nil {
		return nil, apperr.System("nearby vehicles", err)
	}
	out := make([]models.Vehicle, 0, len(ids))
	for _, id := range ids {
		v, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, apperr.System("get vehicle", err)
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}
