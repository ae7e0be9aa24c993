package pricing

import (
	"context"
	"encoding/json"
	"time"

	"booking-service/internal/apperr"
	"booking-service/pkg/logger"
)

// Cache is satisfied by *redis.Client.
type Cache interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Service prices and stores quotes.
type Service struct {
	calc  *Calculator
	cache Cache
	ttl   time.Duration
	log   logger.ILogger
}

func NewService(calc *Calculator, cache Cache, ttl time.Duration, log logger.ILogger) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{calc: calc, cache: cache, ttl: ttl, log: log}
}

func quoteKey(id string) string { return "quote:" + id }

func (s *Service) Create(ctx context.Context, req QuoteRequest) (*Quote, error) {
	q, err := s.calc.Price(req, s.ttl)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, apperr.System("encode quote", err)
	}
	if err := s.cache.Put(ctx, quoteKey(q.ID), data, s.ttl); err != nil {
		return nil, apperr.System("cache quote", err)
	}
	s.log.Debug("quote issued", logger.String("quote_id", q.ID), logger.Any("total", q.Total))
	return q, nil
}

// Get returns a quote that has not expired yet.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	data, err := s.cache.Fetch(ctx, quoteKey(id))
	if err != nil {
		return nil, apperr.System("fetch quote", err)
	}
	if data == nil {
		return nil, apperr.NotFound("quote")
	}
	var q Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, apperr.System("decode quote", err)
	}
	return &q, nil
}
