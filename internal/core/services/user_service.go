package services

import (
	"context"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

type UserService struct {
	repo    domain.UserRepository
	ledger  domain.XPLedger
	metrics MetricsRecorder
}

func NewUserService(repo domain.UserRepository, ledger domain.XPLedger, metrics MetricsRecorder) *UserService {
	return &UserService{
		repo:    repo,
		ledger:  ledger,
		metrics: metricsOrNoop(metrics),
	}
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(name, email); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GrantXP adds amount to the user's xp and returns the new total. A zero
// amount means the default grant.
func (s *UserService) GrantXP(ctx context.Context, id string, amount int) (int, error) {
	if amount == 0 {
		amount = domain.DefaultManualXP
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return 0, err
	}

	grant, err := domain.NewXPGrant(id, domain.XPSourceManual, "", amount)
	if err != nil {
		return 0, err
	}

	total, err := s.ledger.ApplyGrant(ctx, grant)
	if err != nil {
		return 0, err
	}

	s.metrics.RecordXPGrant(domain.XPSourceManual, amount)
	return total, nil
}

func (s *UserService) Badges(ctx context.Context, id string) ([]string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Badges == nil {
		return []string{}, nil
	}
	return user.Badges, nil
}

func (s *UserService) Upgrade(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	return s.repo.SetPro(ctx, id, true)
}
