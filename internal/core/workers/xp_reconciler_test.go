package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/comitanigiacomo/habit-nudge/internal/adapters/repository"
	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) RecomputeXP(ctx context.Context, userID string) (int, int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func TestXPReconciler_ProcessJob(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		before  int
		after   int
		err     error
		wantLog bool
		wantErr bool
	}{
		{name: "In sync", before: 40, after: 40},
		{name: "Drift is corrected", before: 30, after: 40, wantLog: true},
		{name: "Stored ahead of ledger", before: 60, after: 40, wantLog: true},
		{name: "Ledger error", err: errors.New("db down"), wantErr: true},
		{name: "Unknown user", err: domain.ErrUserNotFound, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := new(mockLedger)
			logger, hook := logtest.NewNullLogger()
			w := NewXPReconciler(new(mockUsers), ledger, logger)

			ledger.On("RecomputeXP", ctx, "u1").Return(tt.before, tt.after, tt.err)

			err := w.processJob(ctx, ReconcileJob{UserID: "u1"})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantLog {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, "xp drift corrected", hook.LastEntry().Message)
				assert.Equal(t, tt.after, hook.LastEntry().Data["ledger"])
			} else {
				assert.Empty(t, hook.AllEntries())
			}
			ledger.AssertExpectations(t)
		})
	}
}

func TestXPReconciler_EnqueueDropsWhenFull(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	w := NewXPReconciler(new(mockUsers), new(mockLedger), logger)

	for i := 0; i < cap(w.jobs); i++ {
		w.Enqueue("u1")
	}
	assert.Empty(t, hook.AllEntries())

	w.Enqueue("overflow")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "overflow", hook.LastEntry().Data["user_id"])
}

func TestXPReconciler_EnqueueAllStopsOnCancel(t *testing.T) {
	users := new(mockUsers)
	logger, _ := logtest.NewNullLogger()
	w := NewXPReconciler(users, new(mockLedger), logger)

	ids := make([]string, cap(w.jobs)+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%d", i)
	}
	users.On("ListIDs", mock.Anything).Return(ids, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.EnqueueAll(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, w.jobs, cap(w.jobs))
}

// A full pass must reach every user even when there are more users than
// queue slots.
func TestXPReconciler_FullPassReachesEveryUser(t *testing.T) {
	store := repository.NewInMemoryStore()
	users := store.Users()
	ctx := context.Background()

	const total = 300
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("user-%03d", i)
		u, err := domain.NewUser(id, "User", id+"@example.com")
		require.NoError(t, err)
		u.XP = 999
		require.NoError(t, users.Create(ctx, u))

		g, err := domain.NewXPGrant(id, domain.XPSourceManual, "seed:"+id, 10)
		require.NoError(t, err)
		_, err = users.ApplyGrant(ctx, g)
		require.NoError(t, err)
	}

	logger, hook := logtest.NewNullLogger()
	w := NewXPReconciler(users, users, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.Start(runCtx)
	require.NoError(t, w.EnqueueAll(runCtx))

	assert.Eventually(t, func() bool {
		for i := 0; i < total; i++ {
			u, err := users.GetByID(ctx, fmt.Sprintf("user-%03d", i))
			if err != nil || u.XP != 10 {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "queue full, dropping job", e.Message)
	}
}

func TestXPReconciler_KeepsGrantsAppliedDuringPass(t *testing.T) {
	store := repository.NewInMemoryStore()
	users := store.Users()
	ctx := context.Background()

	u, err := domain.NewUser("u1", "Jane", "jane@example.com")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, u))

	first, err := domain.NewXPGrant("u1", domain.XPSourceManual, "manual:1", 10)
	require.NoError(t, err)
	_, err = users.ApplyGrant(ctx, first)
	require.NoError(t, err)

	logger, _ := logtest.NewNullLogger()
	w := NewXPReconciler(users, users, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_ = w.processJob(ctx, ReconcileJob{UserID: "u1"})
		}
	}()
	for i := 0; i < 20; i++ {
		g, err := domain.NewXPGrant("u1", domain.XPSourceCompletion, fmt.Sprintf("habit:2024-01-%02d", i+1), 10)
		require.NoError(t, err)
		_, err = users.ApplyGrant(ctx, g)
		require.NoError(t, err)
	}
	<-done

	require.NoError(t, w.processJob(ctx, ReconcileJob{UserID: "u1"}))
	stored, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 210, stored.XP)
}

func TestXPReconciler_StartProcessesQueuedJobs(t *testing.T) {
	users := new(mockUsers)
	ledger := new(mockLedger)
	logger, _ := logtest.NewNullLogger()
	w := NewXPReconciler(users, ledger, logger)

	users.On("ListIDs", mock.Anything).Return([]string{"a", "b"}, nil)
	ledger.On("RecomputeXP", mock.Anything, "a").Return(10, 10, nil)

	done := make(chan struct{})
	ledger.On("RecomputeXP", mock.Anything, "b").Return(0, 20, nil).Run(func(mock.Arguments) { close(done) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	require.NoError(t, w.EnqueueAll(ctx))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not process the queue")
	}
}

func TestXPReconciler_Schedule(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	w := NewXPReconciler(new(mockUsers), new(mockLedger), logger)

	assert.NoError(t, w.Schedule(context.Background(), "@daily"))
	assert.NoError(t, w.Schedule(context.Background(), "0 3 * * *"))
	assert.Error(t, w.Schedule(context.Background(), "not a schedule"))
}
