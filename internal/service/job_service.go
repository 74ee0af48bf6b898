package service

import (
	"context"
	"fmt"

	"carrental/internal/logger"
	"carrental/internal/metrics"
	"carrental/internal/repository"
)

type JobService struct {
	Repo    repository.ReservationRepository
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewJobService(repo repository.ReservationRepository, log *logger.Logger, m *metrics.Metrics) *JobService {
	return &JobService{Repo: repo, log: log, metrics: m}
}

// SweepExpiredReservations evicts reservations past the retention window and
// returns how many were removed.
func (s *JobService) SweepExpiredReservations(ctx context.Context) (int, error) {
	removed, err := s.Repo.Sweep(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep expired reservations: %w", err)
	}

	remaining, err := s.Repo.Len(ctx)
	if err != nil {
		return removed, fmt.Errorf("count reservations after sweep: %w", err)
	}
	s.metrics.StoreEntries.Set(float64(remaining))

	if removed == 0 {
		s.log.Debug("Sweep found no expired reservations", "remaining", remaining)
		return 0, nil
	}
	s.log.Info("Expired reservations evicted", "removed", removed, "remaining", remaining)
	return removed, nil
}
