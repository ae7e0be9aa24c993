// Package blocks stores scheduling exclusion windows. Assignment does not read
// them yet; they are kept for the back office calendar.
package blocks

import (
	"context"
	"strings"
	"time"

	"booking-service/internal/apperr"
	"booking-service/internal/models"
	"booking-service/pkg/validation"
)

// BlockRequest creates or replaces a block.
type BlockRequest struct {
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Scope     string    `json:"scope"`
	DriverID  *string   `json:"driver_id"`
	VehicleID *string   `json:"vehicle_id"`
	Notes     string    `json:"notes"`
}

// Store is implemented by *Repo.
type Store interface {
	Create(ctx context.Context, b *models.Block) error
	Get(ctx context.Context, id string) (*models.Block, error)
	List(ctx context.Context, f Filter) ([]models.Block, error)
	Update(ctx context.Context, b *models.Block) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Filter narrows List. Zero values match everything; From/To select blocks
// overlapping [From, To).
type Filter struct {
	Scope  string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

func (req BlockRequest) validate() error {
	if validation.Blank(req.Title) {
		return apperr.Validation("missing required field: title")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return apperr.Validation("missing required field: start/end")
	}
	if !req.End.After(req.Start) {
		return apperr.Validation("end must be after start")
	}
	driver, vehicle := validation.NilIfBlank(req.DriverID), validation.NilIfBlank(req.VehicleID)
	switch req.Scope {
	case models.ScopeGlobal:
		if driver != nil || vehicle != nil {
			return apperr.Validation("global block takes no driver_id or vehicle_id")
		}
	case models.ScopeDriver:
		if driver == nil || vehicle != nil {
			return apperr.Validation("driver block requires driver_id only")
		}
	case models.ScopeVehicle:
		if vehicle == nil || driver != nil {
			return apperr.Validation("vehicle block requires vehicle_id only")
		}
	default:
		return apperr.Validationf("invalid scope %q", req.Scope)
	}
	if driver != nil && !validation.ValidateUUID(*driver) {
		return apperr.Validation("invalid driver_id")
	}
	if vehicle != nil && !validation.ValidateUUID(*vehicle) {
		return apperr.Validation("invalid vehicle_id")
	}
	return nil
}

func (req BlockRequest) toModel(id string) *models.Block {
	return &models.Block{
		ID:        id,
		Title:     strings.TrimSpace(req.Title),
		Start:     req.Start.UTC(),
		End:       req.End.UTC(),
		Scope:     req.Scope,
		DriverID:  validation.NilIfBlank(req.DriverID),
		VehicleID: validation.NilIfBlank(req.VehicleID),
		Notes:     req.Notes,
	}
}

type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, req BlockRequest) (*models.Block, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	b := req.toModel("")
	if err := s.store.Create(ctx, b); err != nil {
		return nil, apperr.System("create block", err)
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Block, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("block")
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.System("get block", err)
	}
	if b == nil {
		return nil, apperr.NotFound("block")
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.Block, error) {
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return nil, apperr.Validation("to must be after from")
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.System("list blocks", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req BlockRequest) (*models.Block, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("block")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	ok, err := s.store.Update(ctx, req.toModel(id))
	if err != nil {
		return nil, apperr.System("update block", err)
	}
	if !ok {
		return nil, apperr.NotFound("block")
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !validation.ValidateUUID(id) {
		return apperr.NotFound("block")
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperr.System("delete block", err)
	}
	if !ok {
		return apperr.NotFound("block")
	}
	return nil
}
