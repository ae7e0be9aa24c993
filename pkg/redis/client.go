package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"booking-service/pkg/logger"
)

const vehicleGeoKey = "vehicle:locations"

// Client wraps the Redis connection.
type Client struct {
	rdb *goredis.Client
}

// NewClient connects to Redis with retry.
func NewClient(ctx context.Context, addr, password string, log logger.ILogger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
	for i := 0; i < 20; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("connected to redis", logger.String("addr", addr))
			return &Client{rdb: rdb}, nil
		}
		log.Warning("waiting for redis", logger.Int("attempt", i+1), logger.Error(err))
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	rdb.Close()
	return nil, fmt.Errorf("redis: failed to connect after 20 attempts")
}

// SetVehicleLocation stores a vehicle's position in a Redis GEO set.
func (c *Client) SetVehicleLocation(ctx context.Context, vehicleID string, lat, lng float64) error {
	return c.rdb.GeoAdd(ctx, vehicleGeoKey, &goredis.GeoLocation{
		Name:      vehicleID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// NearbyVehicles returns vehicle IDs within radiusKm of (lat,lng), nearest first.
func (c *Client) NearbyVehicles(ctx context.Context, lat, lng, radiusKm float64, count int) ([]string, error) {
	return c.rdb.GeoSearch(ctx, vehicleGeoKey, &goredis.GeoSearchQuery{
		Longitude:  lng,
		Latitude:   lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Count:      count,
		Sort:       "ASC",
	}).Result()
}

// RemoveVehicleLocation drops a vehicle from the GEO set (e.g. when deleted).
func (c *Client) RemoveVehicleLocation(ctx context.Context, vehicleID string) error {
	return c.rdb.ZRem(ctx, vehicleGeoKey, vehicleID).Err()
}

// CacheVehicleStatus stores the last telemetry snapshot in a hash with TTL.
func (c *Client) CacheVehicleStatus(ctx context.Context, vehicleID string, data map[string]string, ttl time.Duration) error {
	key := "vehicle:" + vehicleID
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// VehicleStatus retrieves a cached snapshot. An empty map means nothing is cached.
func (c *Client) VehicleStatus(ctx context.Context, vehicleID string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, "vehicle:"+vehicleID).Result()
}

// Put stores raw bytes under key with TTL.
func (c *Client) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Fetch returns the bytes under key, or nil when the key is absent or expired.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	return b, err
}

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }
