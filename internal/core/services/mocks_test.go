package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

func fixedClock(day string) func() time.Time {
	t, err := time.Parse(domain.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(9 * time.Hour) }
}

type MockRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.Habit
	grants        map[string]*domain.XPGrant
	simulateError error
	// beforeApply runs inside ApplyCompletion before the version check.
	beforeApply func()
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		store:  make(map[string]*domain.Habit),
		grants: make(map[string]*domain.XPGrant),
	}
}

func (m *MockRepo) Create(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return nil, m.simulateError
	}
	h, ok := m.store[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	clone := *h
	clone.CompletionLog = append([]string(nil), h.CompletionLog...)
	return &clone, nil
}

func (m *MockRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID {
			clone := *h
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *MockRepo) Update(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	stored, ok := m.store[habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}
	habit.Version++
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store[id]; !ok {
		return domain.ErrHabitNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockRepo) ApplyCompletion(ctx context.Context, c domain.Completion, prevVersion int, grant *domain.XPGrant) error {
	if m.beforeApply != nil {
		hook := m.beforeApply
		m.beforeApply = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	stored, ok := m.store[c.Habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}
	if stored.Version != prevVersion || stored.CompletedOn(c.Day) {
		return domain.ErrHabitConflict
	}
	if _, dup := m.grants[grant.SourceKey]; dup {
		return domain.ErrGrantAlreadyUsed
	}

	next := c.Habit
	next.Version = prevVersion + 1
	m.store[next.ID] = &next
	m.grants[grant.SourceKey] = grant
	return nil
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) SetPro(ctx context.Context, id string, pro bool) error {
	return m.Called(ctx, id, pro).Error(0)
}

func (m *MockUserRepository) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ApplyGrant(ctx context.Context, grant *domain.XPGrant) (int, error) {
	args := m.Called(ctx, grant)
	return args.Int(0), args.Error(1)
}

func (m *MockLedger) SumGrants(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedger) RecomputeXP(ctx context.Context, userID string) (int, int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockNudgeRepo struct {
	mu     sync.Mutex
	nudges []*domain.Nudge
	daily  map[string]*domain.DailyNudge
	// raceWinner is stored just before the first CreateDailyIfAbsent call.
	raceWinner *domain.DailyNudge
}

func NewMockNudgeRepo() *MockNudgeRepo {
	return &MockNudgeRepo{daily: make(map[string]*domain.DailyNudge)}
}

func (m *MockNudgeRepo) Create(ctx context.Context, n *domain.Nudge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nudges = append(m.nudges, n)
	return nil
}

func (m *MockNudgeRepo) ListByHabitID(ctx context.Context, userID, habitID string) ([]*domain.Nudge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Nudge
	for i := len(m.nudges) - 1; i >= 0; i-- {
		n := m.nudges[i]
		if n.UserID == userID && n.HabitID == habitID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *MockNudgeRepo) GetDaily(ctx context.Context, userID, day string) (*domain.DailyNudge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.daily[userID+"/"+day]
	if !ok {
		return nil, domain.ErrDailyNudgeNotFound
	}
	return n, nil
}

func (m *MockNudgeRepo) CreateDailyIfAbsent(ctx context.Context, n *domain.DailyNudge) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceWinner != nil {
		m.daily[m.raceWinner.UserID+"/"+m.raceWinner.Day] = m.raceWinner
		m.raceWinner = nil
	}
	key := n.UserID + "/" + n.Day
	if _, ok := m.daily[key]; ok {
		return false, nil
	}
	m.daily[key] = n
	return true, nil
}
