package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/entities"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStoredReservation(id string) *entities.StoredReservation {
	return &entities.StoredReservation{
		ID:     id,
		Status: entities.StatusSubmitted,
		Reservation: entities.Reservation{
			FirstName: "Jeanne",
			LastName:  "Martin",
			Email:     "jeanne@example.com",
			StartDate: "2024-07-10",
			EndDate:   "2024-07-12",
			Amount:    11000,
			Currency:  "eur",
		},
		LicenseFront: entities.NewAttachment("front.jpg", "image/jpeg", []byte("front")),
		LicenseBack:  entities.NewAttachment("back.png", "image/png", []byte("back")),
	}
}

func TestMemoryReservationRepository_PutGet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)}
	repo := NewMemoryReservationRepository(24*time.Hour, clock.Now)
	ctx := context.Background()

	stored := newStoredReservation("res-1")
	require.NoError(t, repo.Put(ctx, stored))
	assert.Equal(t, clock.Now(), stored.CreatedAt)

	t.Run("returns the same data before expiry", func(t *testing.T) {
		clock.Advance(23 * time.Hour)
		got, err := repo.Get(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, stored.Reservation, got.Reservation)
		assert.Equal(t, stored.LicenseFront, got.LicenseFront)
		assert.Equal(t, stored.LicenseBack, got.LicenseBack)
	})

	t.Run("returns not found after the retention window", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		_, err := repo.Get(ctx, "res-1")
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})
}

func TestMemoryReservationRepository_PutOverwrites(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)}
	repo := NewMemoryReservationRepository(24*time.Hour, clock.Now)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, newStoredReservation("res-1")))
	clock.Advance(20 * time.Hour)

	updated := newStoredReservation("res-1")
	updated.Status = entities.StatusAwaitingPayment
	require.NoError(t, repo.Put(ctx, updated))

	clock.Advance(10 * time.Hour)
	got, err := repo.Get(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusAwaitingPayment, got.Status)
}

func TestMemoryReservationRepository_Delete(t *testing.T) {
	repo := NewMemoryReservationRepository(24*time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, newStoredReservation("res-1")))
	require.NoError(t, repo.Delete(ctx, "res-1"))

	_, err := repo.Get(ctx, "res-1")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	// Deleting twice is a no-op.
	require.NoError(t, repo.Delete(ctx, "res-1"))
}

func TestMemoryReservationRepository_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)}
	repo := NewMemoryReservationRepository(24*time.Hour, clock.Now)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, newStoredReservation("old")))
	clock.Advance(12 * time.Hour)
	require.NoError(t, repo.Put(ctx, newStoredReservation("recent")))
	clock.Advance(13 * time.Hour)

	// Writes do not evict on their own.
	n, err := repo.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err := repo.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err = repo.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Get(ctx, "recent")
	assert.NoError(t, err)
}

func TestMemoryReservationRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryReservationRepository(24*time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, newStoredReservation("res-1")))

	got, err := repo.Get(ctx, "res-1")
	require.NoError(t, err)
	got.Status = entities.StatusAwaitingPayment

	again, err := repo.Get(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusSubmitted, again.Status)
}
