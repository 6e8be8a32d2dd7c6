package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

type NudgeService struct {
	nudges  domain.NudgeRepository
	habits  *HabitService
	users   UserFinder
	clock   Clock
	pick    func(n int) int
	metrics MetricsRecorder
}

func NewNudgeService(nudges domain.NudgeRepository, habits *HabitService, users UserFinder, clock Clock, metrics MetricsRecorder) *NudgeService {
	if clock == nil {
		clock = SystemClock
	}
	return &NudgeService{
		nudges:  nudges,
		habits:  habits,
		users:   users,
		clock:   clock,
		pick:    rand.IntN,
		metrics: metricsOrNoop(metrics),
	}
}

// WithPicker replaces the random quote picker.
func (s *NudgeService) WithPicker(pick func(n int) int) *NudgeService {
	s.pick = pick
	return s
}

func (s *NudgeService) Create(ctx context.Context, userID, habitID, message, nudgeType string) (*domain.Nudge, error) {
	if _, err := s.habits.Get(ctx, userID, habitID); err != nil {
		return nil, err
	}

	nudge, err := domain.NewNudge(userID, habitID, message, nudgeType)
	if err != nil {
		return nil, err
	}

	if err := s.nudges.Create(ctx, nudge); err != nil {
		return nil, err
	}

	return nudge, nil
}

func (s *NudgeService) List(ctx context.Context, userID, habitID string) ([]*domain.Nudge, error) {
	if _, err := s.habits.Get(ctx, userID, habitID); err != nil {
		return nil, err
	}

	return s.nudges.ListByHabitID(ctx, userID, habitID)
}

// Daily returns the user's quote for today, choosing and storing one on the
// first call of the day. When two first calls race, the stored one wins.
func (s *NudgeService) Daily(ctx context.Context, userID string) (string, bool, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", false, err
	}

	day := s.clock.Today()

	var cached *string
	existing, err := s.nudges.GetDaily(ctx, userID, day)
	switch {
	case err == nil:
		cached = &existing.Message
	case !errors.Is(err, domain.ErrDailyNudgeNotFound):
		return "", false, err
	}

	message, isNew := domain.SelectDailyNudge(cached, s.pick)
	if !isNew {
		s.metrics.RecordDailyNudge(false)
		return message, false, nil
	}

	created, err := s.nudges.CreateDailyIfAbsent(ctx, &domain.DailyNudge{
		UserID:    userID,
		Day:       day,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", false, err
	}
	if created {
		s.metrics.RecordDailyNudge(true)
		return message, true, nil
	}

	winner, err := s.nudges.GetDaily(ctx, userID, day)
	if err != nil {
		return "", false, err
	}
	return winner.Message, false, nil
}
