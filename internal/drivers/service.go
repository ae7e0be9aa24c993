package drivers

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"booking-service/internal/apperr"
	"booking-service/internal/auth"
	"booking-service/internal/models"
	"booking-service/pkg/db"
	"booking-service/pkg/validation"
)

// Store is the persistence the driver service needs; *Repo implements it.
type Store interface {
	Create(ctx context.Context, d *models.Driver) error
	Get(ctx context.Context, id string) (*models.Driver, error)
	GetByEmail(ctx context.Context, email string) (*models.Driver, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Driver, error)
	Update(ctx context.Context, d *models.Driver) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListShifts(ctx context.Context, driverID string) ([]models.DriverShift, error)
	CreateShift(ctx context.Context, s *models.DriverShift) error
	DeleteShift(ctx context.Context, driverID, shiftID string) (bool, error)
}

// TokenIssuer is satisfied by *jwt.Signer.
type TokenIssuer interface {
	Generate(subject, email, role string) (string, error)
}

// Service contains driver business logic.
type Service struct {
	store  Store
	tokens TokenIssuer
}

// NewService creates a driver service.
func NewService(store Store, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

func (req DriverRequest) validate(creating bool) error {
	if !validation.ValidateName(req.Name) {
		return apperr.Validation("invalid name")
	}
	if !validation.ValidateEmail(strings.TrimSpace(req.Email)) {
		return apperr.Validation("invalid email")
	}
	if req.Phone != "" && !validation.ValidatePhone(req.Phone) {
		return apperr.Validation("invalid phone")
	}
	if (creating || req.Password != "") && !validation.ValidatePassword(req.Password) {
		return apperr.Validation("password must be at least 8 characters")
	}
	switch req.Status {
	case "", models.DriverActive, models.DriverInactive:
	default:
		return apperr.Validationf("invalid status %q", req.Status)
	}
	switch req.WorkMode {
	case "", models.WorkMode24h, models.WorkModeCustom:
	default:
		return apperr.Validationf("invalid work_mode %q", req.WorkMode)
	}
	switch req.PayType {
	case "", PayHourly, PayPerRide, PayPercent:
	default:
		return apperr.Validationf("invalid pay_type %q", req.PayType)
	}
	if req.PayRate < 0 || (req.PayType == PayPercent && req.PayRate > 100) {
		return apperr.Validation("invalid pay_rate")
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (req DriverRequest) toModel(id string) (*models.Driver, error) {
	d := &models.Driver{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Status:      orDefault(req.Status, models.DriverActive),
		WorkMode:    orDefault(req.WorkMode, models.WorkMode24h),
		PayType:     orDefault(req.PayType, PayPerRide),
		PayRate:     req.PayRate,
		NotifyEmail: boolOr(req.NotifyEmail, true),
		NotifySMS:   boolOr(req.NotifySMS, false),
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.System("hash password", err)
		}
		d.PasswordHash = string(hash)
	}
	return d, nil
}

// Create adds a driver account.
func (s *Service) Create(ctx context.Context, req DriverRequest) (*models.Driver, error) {
	if err := req.validate(true); err != nil {
		return nil, err
	}
	d, err := req.toModel("")
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, d); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflictf("email %s already exists", d.Email)
		}
		return nil, apperr.System("create driver", err)
	}
	return d, nil
}

// Get fetches a driver by primary key.
func (s *Service) Get(ctx context.Context, id string) (*models.Driver, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("driver")
	}
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.System("get driver", err)
	}
	if d == nil {
		return nil, apperr.NotFound("driver")
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]models.Driver, error) {
	out, err := s.store.List(ctx, status, limit, offset)
	if err != nil {
		return nil, apperr.System("list drivers", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req DriverRequest) (*models.Driver, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("driver")
	}
	if err := req.validate(false); err != nil {
		return nil, err
	}
	d, err := req.toModel(id)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Update(ctx, d)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflictf("email %s already exists", d.Email)
		}
		return nil, apperr.System("update driver", err)
	}
	if !ok {
		return nil, apperr.NotFound("driver")
	}
	return s.Get(ctx, id)
}

// Delete removes a driver. Drivers still referenced by reservations or
// assignments are kept and reported as a conflict.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !validation.ValidateUUID(id) {
		return apperr.NotFound("driver")
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("driver is still referenced by appointments or reservations")
		}
		return apperr.System("delete driver", err)
	}
	if !ok {
		return apperr.NotFound("driver")
	}
	return nil
}

// Login authenticates a driver and returns a JWT.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	d, err := s.store.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.System("load driver", err)
	}
	if d == nil || d.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.Forbidden("invalid credentials")
	}
	if d.Status != models.DriverActive {
		return nil, apperr.Forbidden("invalid credentials")
	}
	token, err := s.tokens.Generate(d.ID, d.Email, auth.RoleDriver)
	if err != nil {
		return nil, apperr.System("issue token", err)
	}
	return &AuthResponse{Token: token, Driver: d}, nil
}

// Token issues a driver token without a password (operator CLI).
func (s *Service) Token(ctx context.Context, id string) (string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.Generate(d.ID, d.Email, auth.RoleDriver)
	if err != nil {
		return "", apperr.System("issue token", err)
	}
	return token, nil
}

func (req ShiftRequest) validate() error {
	if (req.Weekday == nil) == (req.SpecificDate == nil) {
		return apperr.Validation("exactly one of weekday and specific_date is required")
	}
	if req.Weekday != nil && (*req.Weekday < 0 || *req.Weekday > 6) {
		return apperr.Validation("weekday must be 0 (Sunday) to 6")
	}
	if req.SpecificDate != nil && !validation.ValidateDate(*req.SpecificDate) {
		return apperr.Validation("specific_date must be YYYY-MM-DD")
	}
	if !validation.ValidateClock(req.StartTime) || !validation.ValidateClock(req.EndTime) {
		return apperr.Validation("start_time and end_time must be HH:mm")
	}
	if req.EndTime < req.StartTime {
		return apperr.Validation("end_time must not be before start_time")
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return apperr.Validationf("unknown timezone %q", req.Timezone)
		}
	}
	return nil
}

func (s *Service) Shifts(ctx context.Context, driverID string) ([]models.DriverShift, error) {
	if _, err := s.Get(ctx, driverID); err != nil {
		return nil, err
	}
	out, err := s.store.ListShifts(ctx, driverID)
	if err != nil {
		return nil, apperr.System("list shifts", err)
	}
	return out, nil
}

func (s *Service) AddShift(ctx context.Context, driverID string, req ShiftRequest) (*models.DriverShift, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, driverID); err != nil {
		return nil, err
	}
	sh := &models.DriverShift{
		DriverID:     driverID,
		Weekday:      req.Weekday,
		SpecificDate: req.SpecificDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Timezone:     req.Timezone,
	}
	if err := s.store.CreateShift(ctx, sh); err != nil {
		return nil, apperr.System("create shift", err)
	}
	return sh, nil
}

func (s *Service) RemoveShift(ctx context.Context, driverID, shiftID string) error {
	if !validation.ValidateUUID(driverID) || !validation.ValidateUUID(shiftID) {
		return apperr.NotFound("shift")
	}
	ok, err := s.store.DeleteShift(ctx, driverID, shiftID)
	if err != nil {
		return apperr.System("delete shift", err)
	}
	if !ok {
		return apperr.NotFound("shift")
	}
	return nil
}
