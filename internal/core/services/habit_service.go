package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

const maxCompletionAttempts = 3

type HabitService struct {
	repo    domain.HabitRepository
	clock   Clock
	metrics MetricsRecorder
}

func NewHabitService(repo domain.HabitRepository, clock Clock, metrics MetricsRecorder) *HabitService {
	if clock == nil {
		clock = SystemClock
	}
	return &HabitService{
		repo:    repo,
		clock:   clock,
		metrics: metricsOrNoop(metrics),
	}
}

type CreateHabitInput struct {
	UserID       string
	Title        string
	Frequency    string
	ReminderTime string
}

type UpdateHabitInput struct {
	ID           string
	UserID       string
	Title        string
	Frequency    string
	ReminderTime string
	Version      int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(input.UserID, input.Title, input.Frequency, input.ReminderTime)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Get hides habits of other users behind ErrHabitNotFound.
func (s *HabitService) Get(ctx context.Context, userID, id string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	return habit, nil
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.Get(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	err = habit.Update(
		mergeString(input.Title, habit.Title),
		mergeString(input.Frequency, habit.Frequency),
		mergeString(input.ReminderTime, habit.ReminderTime),
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

// Complete marks the habit done for the clock's current day and credits the
// owner. A concurrent writer causes a re-read, so the second of two racing
// requests on the same day ends with ErrAlreadyCompleted.
func (s *HabitService) Complete(ctx context.Context, userID, id string) (*domain.Completion, error) {
	today := s.clock.Today()

	for attempt := 0; attempt < maxCompletionAttempts; attempt++ {
		habit, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}

		completion, err := domain.Complete(*habit, today)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyCompleted) {
				s.metrics.RecordAlreadyCompleted()
			}
			return nil, err
		}

		grant := domain.CompletionGrant(habit.UserID, completion)

		err = s.repo.ApplyCompletion(ctx, completion, habit.Version, grant)
		if errors.Is(err, domain.ErrHabitConflict) {
			s.metrics.RecordCompletionConflict()
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrGrantAlreadyUsed) {
				s.metrics.RecordAlreadyCompleted()
				return nil, domain.ErrAlreadyCompleted
			}
			return nil, err
		}

		completion.Habit.Version = habit.Version + 1
		s.metrics.RecordCompletion(completion.XPGained, completion.BonusXP > 0)
		s.metrics.RecordXPGrant(domain.XPSourceCompletion, completion.XPGained)

		return &completion, nil
	}

	return nil, fmt.Errorf("%w: gave up after %d attempts", domain.ErrHabitConflict, maxCompletionAttempts)
}
