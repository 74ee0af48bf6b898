package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"carrental/internal/entities"
)

var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepository holds reservations between submission and notification.
// Entries older than the retention window are treated as absent.
type ReservationRepository interface {
	Put(ctx context.Context, reservation *entities.StoredReservation) error
	Get(ctx context.Context, id string) (*entities.StoredReservation, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context) (int, error)
	Len(ctx context.Context) (int, error)
}

type memoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]entities.StoredReservation
	ttl          time.Duration
	now          func() time.Time
}

// NewMemoryReservationRepository keeps reservations in process memory; they are
// lost on restart. now may be nil.
func NewMemoryReservationRepository(ttl time.Duration, now func() time.Time) ReservationRepository {
	if now == nil {
		now = time.Now
	}
	return &memoryReservationRepository{
		reservations: make(map[string]entities.StoredReservation),
		ttl:          ttl,
		now:          now,
	}
}

func (r *memoryReservationRepository) Put(_ context.Context, reservation *entities.StoredReservation) error {
	entry := *reservation
	entry.CreatedAt = r.now()

	r.mu.Lock()
	r.reservations[entry.ID] = entry
	r.mu.Unlock()

	reservation.CreatedAt = entry.CreatedAt
	return nil
}

func (r *memoryReservationRepository) Get(_ context.Context, id string) (*entities.StoredReservation, error) {
	r.mu.RLock()
	entry, ok := r.reservations[id]
	r.mu.RUnlock()

	if !ok || r.expired(entry) {
		return nil, ErrReservationNotFound
	}
	return &entry, nil
}

func (r *memoryReservationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.reservations, id)
	r.mu.Unlock()
	return nil
}

func (r *memoryReservationRepository) Sweep(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.reservations {
		if r.expired(entry) {
			delete(r.reservations, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memoryReservationRepository) Len(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reservations), nil
}

func (r *memoryReservationRepository) expired(entry entities.StoredReservation) bool {
	return r.now().Sub(entry.CreatedAt) > r.ttl
}
