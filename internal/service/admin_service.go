package service

import (
	"context"

	"carrental/internal/entities"
)

// AdminService backs the operator endpoints used to review reservations
// awaiting manual follow-up.
type AdminService struct {
	reservations *ReservationService
	jobs         *JobService
}

func NewAdminService(reservations *ReservationService, jobs *JobService) *AdminService {
	return &AdminService{reservations: reservations, jobs: jobs}
}

func (s *AdminService) GetReservation(ctx context.Context, id string) (*entities.StoredReservation, error) {
	return s.reservations.Get(ctx, id)
}

func (s *AdminService) DeleteReservation(ctx context.Context, id string) error {
	return s.reservations.Delete(ctx, id)
}

func (s *AdminService) Sweep(ctx context.Context) (int, error) {
	return s.jobs.SweepExpiredReservations(ctx)
}
