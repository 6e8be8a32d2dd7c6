package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

var (
	_ domain.HabitRepository = (*InMemoryHabitRepository)(nil)
	_ domain.UserRepository  = (*InMemoryUserRepository)(nil)
	_ domain.XPLedger        = (*InMemoryUserRepository)(nil)
	_ domain.NudgeRepository = (*InMemoryNudgeRepository)(nil)
)

// InMemoryStore holds every table behind one lock so completions can touch
// habits, grants and users atomically. It backs STORAGE=memory and the
// handler tests.
type InMemoryStore struct {
	habits map[string]*domain.Habit
	users  map[string]*domain.User
	grants map[string]*domain.XPGrant
	nudges []*domain.Nudge
	daily  map[string]*domain.DailyNudge

	mu sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		habits: make(map[string]*domain.Habit),
		users:  make(map[string]*domain.User),
		grants: make(map[string]*domain.XPGrant),
		daily:  make(map[string]*domain.DailyNudge),
	}
}

func (s *InMemoryStore) Habits() *InMemoryHabitRepository { return &InMemoryHabitRepository{s: s} }
func (s *InMemoryStore) Users() *InMemoryUserRepository { return &InMemoryUserRepository{s: s} }
func (s *InMemoryStore) Nudges() *InMemoryNudgeRepository { return &InMemoryNudgeRepository{s: s} }

func cloneHabit(h *domain.Habit) *domain.Habit {
	c := *h
	c.CompletionLog = append([]string{}, h.CompletionLog...)
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Badges = append([]string{}, u.Badges...)
	if u.ReferredBy != nil {
		ref := *u.ReferredBy
		c.ReferredBy = &ref
	}
	return &c
}

func grantKey(userID, sourceKey string) string {
	return userID + "|" + sourceKey
}

// applyGrantLocked expects s.mu to be held for writing.
func (s *InMemoryStore) applyGrantLocked(g *domain.XPGrant) (int, error) {
	user, ok := s.users[g.UserID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	key := grantKey(g.UserID, g.SourceKey)
	if _, dup := s.grants[key]; dup {
		return 0, domain.ErrGrantAlreadyUsed
	}

	stored := *g
	s.grants[key] = &stored
	user.XP += g.Amount
	return user.XP, nil
}

type InMemoryHabitRepository struct {
	s *InMemoryStore
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[habit.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.habits[habit.ID] = cloneHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	habit, ok := r.s.habits[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return cloneHabit(habit), nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	habits := []*domain.Habit{}
	for _, h := range r.s.habits {
		if h.UserID == userID {
			habits = append(habits, cloneHabit(h))
		}
	}

	sort.Slice(habits, func(i, j int) bool {
		if habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].ID < habits[j].ID
		}
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.habits[habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	next := cloneHabit(stored)
	next.Title = habit.Title
	next.Frequency = habit.Frequency
	next.ReminderTime = habit.ReminderTime
	next.Version = habit.Version
	next.UpdatedAt = habit.UpdatedAt
	r.s.habits[habit.ID] = next
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.habits[id]; !ok {
		return domain.ErrHabitNotFound
	}

	delete(r.s.habits, id)

	kept := r.s.nudges[:0]
	for _, n := range r.s.nudges {
		if n.HabitID != id {
			kept = append(kept, n)
		}
	}
	r.s.nudges = kept
	return nil
}

func (r *InMemoryHabitRepository) ApplyCompletion(ctx context.Context, c domain.Completion, prevVersion int, grant *domain.XPGrant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.habits[c.Habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}
	if stored.Version != prevVersion || stored.CompletedOn(c.Day) {
		return domain.ErrHabitConflict
	}

	if _, err := r.s.applyGrantLocked(grant); err != nil {
		return err
	}

	next := cloneHabit(&c.Habit)
	next.Version = prevVersion + 1
	r.s.habits[next.ID] = next
	return nil
}

type InMemoryUserRepository struct {
	s *InMemoryStore
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return domain.ErrUserAlreadyExists
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *InMemoryUserRepository) SetPro(ctx context.Context, id string, pro bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored.Pro = pro
	return nil
}

func (r *InMemoryUserRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *InMemoryUserRepository) ApplyGrant(ctx context.Context, grant *domain.XPGrant) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.applyGrantLocked(grant)
}

func (s *InMemoryStore) sumGrantsLocked(userID string) int {
	total := 0
	for _, g := range s.grants {
		if g.UserID == userID {
			total += g.Amount
		}
	}
	return total
}

func (r *InMemoryUserRepository) SumGrants(ctx context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.sumGrantsLocked(userID), nil
}

func (r *InMemoryUserRepository) RecomputeXP(ctx context.Context, userID string) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[userID]
	if !ok {
		return 0, 0, domain.ErrUserNotFound
	}
	before := stored.XP
	stored.XP = r.s.sumGrantsLocked(userID)
	return before, stored.XP, nil
}

type InMemoryNudgeRepository struct {
	s *InMemoryStore
}

func (r *InMemoryNudgeRepository) Create(ctx context.Context, nudge *domain.Nudge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.habits[nudge.HabitID]; !ok {
		return domain.ErrHabitNotFound
	}
	stored := *nudge
	r.s.nudges = append(r.s.nudges, &stored)
	return nil
}

func (r *InMemoryNudgeRepository) ListByHabitID(ctx context.Context, userID, habitID string) ([]*domain.Nudge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.Nudge{}
	for i := len(r.s.nudges) - 1; i >= 0; i-- {
		n := r.s.nudges[i]
		if n.UserID == userID && n.HabitID == habitID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func dailyKey(userID, day string) string {
	return userID + "|" + day
}

func (r *InMemoryNudgeRepository) GetDaily(ctx context.Context, userID, day string) (*domain.DailyNudge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.daily[dailyKey(userID, day)]
	if !ok {
		return nil, domain.ErrDailyNudgeNotFound
	}
	c := *n
	return &c, nil
}

func (r *InMemoryNudgeRepository) CreateDailyIfAbsent(ctx context.Context, n *domain.DailyNudge) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := dailyKey(n.UserID, n.Day)
	if _, ok := r.s.daily[key]; ok {
		return false, nil
	}
	stored := *n
	r.s.daily[key] = &stored
	return true, nil
}
