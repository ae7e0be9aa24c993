package clients

import (
	"context"
	"strings"

	"booking-service/internal/apperr"
	"booking-service/internal/models"
	"booking-service/pkg/db"
	"booking-service/pkg/validation"
)

// Service contains client business logic for the back office.
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service { return &Service{repo: repo} }

func (req ClientRequest) validate() error {
	if !validation.ValidateName(req.Name) {
		return apperr.Validation("invalid name")
	}
	if req.Email != nil && *req.Email != "" && !validation.ValidateEmail(*req.Email) {
		return apperr.Validation("invalid email")
	}
	if req.Phone != nil && *req.Phone != "" && !validation.ValidatePhone(*req.Phone) {
		return apperr.Validation("invalid phone")
	}
	return nil
}

func (req ClientRequest) toModel(id string) *models.Client {
	return &models.Client{
		ID:                   id,
		Name:                 strings.TrimSpace(req.Name),
		Phone:                validation.NilIfBlank(req.Phone),
		Email:                validation.NilIfBlank(req.Email),
		Notes:                req.Notes,
		DefaultPickupAddress: req.DefaultPickupAddress,
		Rating:               req.Rating,
	}
}

func (s *Service) Create(ctx context.Context, req ClientRequest) (*models.Client, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, req.toModel(""))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a client with this email already exists")
		}
		return nil, apperr.System("create client", err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Client, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("client")
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.System("get client", err)
	}
	if c == nil {
		return nil, apperr.NotFound("client")
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, q string, limit, offset int) ([]models.Client, error) {
	out, err := s.repo.List(ctx, q, limit, offset)
	if err != nil {
		return nil, apperr.System("list clients", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req ClientRequest) (*models.Client, error) {
	if !validation.ValidateUUID(id) {
		return nil, apperr.NotFound("client")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	c := req.toModel(id)
	if c.Rating == "" {
		c.Rating = models.RatingNew
	}
	ok, err := s.repo.Update(ctx, c)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a client with this email already exists")
		}
		return nil, apperr.System("update client", err)
	}
	if !ok {
		return nil, apperr.NotFound("client")
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !validation.ValidateUUID(id) {
		return apperr.NotFound("client")
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("client has appointments")
		}
		return apperr.System("delete client", err)
	}
	if !ok {
		return apperr.NotFound("client")
	}
	return nil
}
