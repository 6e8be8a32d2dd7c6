package services

import (
	"context"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

type DashboardService struct {
	habitRepo domain.HabitRepository
	clock     Clock
}

func NewDashboardService(habitRepo domain.HabitRepository, clock Clock) *DashboardService {
	if clock == nil {
		clock = SystemClock
	}
	return &DashboardService{
		habitRepo: habitRepo,
		clock:     clock,
	}
}

func (s *DashboardService) Get(ctx context.Context, userID string) (domain.DashboardStats, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	return domain.Aggregate(habits, s.clock.Today(), s.clock.WeekStart()), nil
}
