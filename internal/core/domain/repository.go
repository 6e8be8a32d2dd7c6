package domain

import (
	"context"
	"errors"
)

var (
	ErrHabitNotFound      = errors.New("habit not found")
	ErrHabitConflict      = errors.New("habit version conflict")
	ErrDailyNudgeNotFound = errors.New("daily nudge not found")
	ErrForbidden          = errors.New("forbidden")
)

type HabitRepository interface {
	// Create persists a new habit.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits owned by a user, oldest first.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// Update writes the editable fields.
	// Implementations must reject stale versions with ErrHabitConflict.
	Update(ctx context.Context, habit *Habit) error

	// Delete permanently removes a habit and its nudges.
	Delete(ctx context.Context, id string) error

	// ApplyCompletion atomically stores c.Habit, records the grant and adds
	// grant.Amount to the owner's xp. The write only lands if the stored habit
	// is still at prevVersion and does not already contain c.Day.
	ApplyCompletion(ctx context.Context, c Completion, prevVersion int, grant *XPGrant) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, id string) (*User, error)

	// Update writes the profile fields (name, email).
	Update(ctx context.Context, user *User) error

	SetPro(ctx context.Context, id string, pro bool) error

	// ListIDs returns every user id, used by the reconciliation pass.
	ListIDs(ctx context.Context) ([]string, error)
}

type XPLedger interface {
	// ApplyGrant records the grant and increments the user's xp in one step,
	// returning the new total. A repeated SourceKey yields ErrGrantAlreadyUsed.
	ApplyGrant(ctx context.Context, grant *XPGrant) (int, error)

	// SumGrants returns the ledger total for a user.
	SumGrants(ctx context.Context, userID string) (int, error)

	// RecomputeXP sets the user's xp to the ledger total while holding the
	// user row, so a grant committing concurrently is never lost. It returns
	// the stored value before and after.
	RecomputeXP(ctx context.Context, userID string) (before, after int, err error)
}

type NudgeRepository interface {
	Create(ctx context.Context, nudge *Nudge) error

	// ListByHabitID returns the nudges of a habit, newest first.
	ListByHabitID(ctx context.Context, userID, habitID string) ([]*Nudge, error)

	GetDaily(ctx context.Context, userID, day string) (*DailyNudge, error)

	// CreateDailyIfAbsent stores n unless a nudge for the same user and day
	// exists. It reports whether n was stored.
	CreateDailyIfAbsent(ctx context.Context, n *DailyNudge) (bool, error)
}
