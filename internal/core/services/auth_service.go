package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
	"github.com/sirupsen/logrus"
)

type AuthService struct {
	repo    domain.UserRepository
	ledger  domain.XPLedger
	tokens  *TokenService
	metrics MetricsRecorder
	log     logrus.FieldLogger
}

func NewAuthService(repo domain.UserRepository, ledger domain.XPLedger, tokens *TokenService, metrics MetricsRecorder, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		repo:    repo,
		ledger:  ledger,
		tokens:  tokens,
		metrics: metricsOrNoop(metrics),
		log:     log,
	}
}

type RegisterInput struct {
	UserID     string
	Name       string
	Email      string
	Password   string
	ReferredBy string
}

type LoginResult struct {
	Token string
	User  *domain.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	user, err := domain.NewUser(input.UserID, input.Name, input.Email)
	if err != nil {
		return nil, err
	}

	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	referrer := strings.TrimSpace(input.ReferredBy)
	if referrer != "" {
		user.ReferredBy = &referrer
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("auth service: failed to create user: %w", err)
	}

	if referrer != "" {
		s.rewardReferrer(ctx, referrer, user.ID)
	}

	return user, nil
}

// rewardReferrer grants the referral bonus. The new account is already
// stored, so failures are logged rather than returned.
func (s *AuthService) rewardReferrer(ctx context.Context, referrerID, newUserID string) {
	entry := s.log.WithFields(logrus.Fields{"referrer": referrerID, "user_id": newUserID})

	if _, err := s.repo.GetByID(ctx, referrerID); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			entry.WithError(err).Warn("referral lookup failed")
		}
		return
	}

	grant, err := domain.NewXPGrant(referrerID, domain.XPSourceReferral, "referral:"+newUserID, domain.ReferralXP)
	if err != nil {
		entry.WithError(err).Warn("referral grant rejected")
		return
	}

	if _, err := s.ledger.ApplyGrant(ctx, grant); err != nil && !errors.Is(err, domain.ErrGrantAlreadyUsed) {
		entry.WithError(err).Warn("referral grant failed")
		return
	}

	s.metrics.RecordXPGrant(domain.XPSourceReferral, domain.ReferralXP)
}

func (s *AuthService) Login(ctx context.Context, userID, password string) (*LoginResult, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user}, nil
}
