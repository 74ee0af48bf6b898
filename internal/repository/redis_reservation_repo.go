package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carrental/internal/entities"
)

const reservationKeyPrefix = "reservation:"

type redisReservationRepository struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisReservationRepository stores reservations as JSON with a native key
// expiry, so entries survive process restarts until the retention window ends.
func NewRedisReservationRepository(client *redis.Client, ttl time.Duration) ReservationRepository {
	return &redisReservationRepository{client: client, ttl: ttl, now: time.Now}
}

func (r *redisReservationRepository) Put(ctx context.Context, reservation *entities.StoredReservation) error {
	reservation.CreatedAt = r.now()
	data, err := json.Marshal(reservation)
	if err != nil {
		return fmt.Errorf("marshal reservation %s: %w", reservation.ID, err)
	}
	if err := r.client.Set(ctx, reservationKeyPrefix+reservation.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store reservation %s: %w", reservation.ID, err)
	}
	return nil
}

func (r *redisReservationRepository) Get(ctx context.Context, id string) (*entities.StoredReservation, error) {
	data, err := r.client.Get(ctx, reservationKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load reservation %s: %w", id, err)
	}

	var reservation entities.StoredReservation
	if err := json.Unmarshal(data, &reservation); err != nil {
		return nil, fmt.Errorf("decode reservation %s: %w", id, err)
	}
	return &reservation, nil
}

func (r *redisReservationRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, reservationKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	return nil
}

// Sweep is a no-op: redis expires keys on its own.
func (r *redisReservationRepository) Sweep(context.Context) (int, error) {
	return 0, nil
}

func (r *redisReservationRepository) Len(ctx context.Context) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, reservationKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}
