package services_test

import (
	"context"
	"testing"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_GrantXP(t *testing.T) {
	t.Run("Success: Default amount", func(t *testing.T) {
		repo := new(MockUserRepository)
		ledger := new(MockLedger)
		svc := services.NewUserService(repo, ledger, nil)

		repo.On("GetByID", mock.Anything, "jdoe").Return(&domain.User{ID: "jdoe", XP: 5}, nil)
		ledger.On("ApplyGrant", mock.Anything, mock.MatchedBy(func(g *domain.XPGrant) bool {
			return g.Amount == 10 && g.Source == domain.XPSourceManual && g.SourceKey != ""
		})).Return(15, nil)

		total, err := svc.GrantXP(context.Background(), "jdoe", 0)

		assert.NoError(t, err)
		assert.Equal(t, 15, total)
		ledger.AssertExpectations(t)
	})

	t.Run("Fail: Negative amount", func(t *testing.T) {
		repo := new(MockUserRepository)
		ledger := new(MockLedger)
		svc := services.NewUserService(repo, ledger, nil)
		repo.On("GetByID", mock.Anything, "jdoe").Return(&domain.User{ID: "jdoe"}, nil)

		_, err := svc.GrantXP(context.Background(), "jdoe", -3)

		assert.ErrorIs(t, err, domain.ErrInvalidXPAmount)
		ledger.AssertNotCalled(t, "ApplyGrant", mock.Anything, mock.Anything)
	})

	t.Run("Fail: Unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := services.NewUserService(repo, new(MockLedger), nil)
		repo.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

		_, err := svc.GrantXP(context.Background(), "ghost", 10)

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserService_ProfileBadgesUpgrade(t *testing.T) {
	t.Run("UpdateProfile writes only profile fields", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := services.NewUserService(repo, new(MockLedger), nil)

		stored := &domain.User{ID: "jdoe", Name: "Jane", Email: "jane@example.com", XP: 99}
		repo.On("GetByID", mock.Anything, "jdoe").Return(stored, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Name == "Janet" && u.Email == "jane@example.com" && u.XP == 99
		})).Return(nil)

		u, err := svc.UpdateProfile(context.Background(), "jdoe", "Janet", "")

		assert.NoError(t, err)
		assert.Equal(t, "Janet", u.Name)
		repo.AssertExpectations(t)
	})

	t.Run("Badges never returns nil", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := services.NewUserService(repo, new(MockLedger), nil)
		repo.On("GetByID", mock.Anything, "jdoe").Return(&domain.User{ID: "jdoe"}, nil)

		badges, err := svc.Badges(context.Background(), "jdoe")

		assert.NoError(t, err)
		assert.NotNil(t, badges)
		assert.Empty(t, badges)
	})

	t.Run("Upgrade sets pro", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := services.NewUserService(repo, new(MockLedger), nil)
		repo.On("GetByID", mock.Anything, "jdoe").Return(&domain.User{ID: "jdoe"}, nil)
		repo.On("SetPro", mock.Anything, "jdoe", true).Return(nil)

		assert.NoError(t, svc.Upgrade(context.Background(), "jdoe"))
		repo.AssertExpectations(t)
	})

	t.Run("Upgrade unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := services.NewUserService(repo, new(MockLedger), nil)
		repo.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

		assert.ErrorIs(t, svc.Upgrade(context.Background(), "ghost"), domain.ErrUserNotFound)
		repo.AssertNotCalled(t, "SetPro", mock.Anything, mock.Anything, mock.Anything)
	})
}
