package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAlreadyCompleted = errors.New("habit already completed today")
	ErrInvalidDate      = errors.New("invalid date (must be YYYY-MM-DD)")
)

const (
	DateLayout = "2006-01-02"
	BaseXP     = 10
)

var streakBonuses = map[int]int{
	5:  20,
	10: 30,
	20: 50,
	30: 75,
}

// BonusXP returns the extra XP awarded when a streak lands exactly on a
// milestone. Values between milestones earn nothing.
func BonusXP(streak int) int {
	return streakBonuses[streak]
}

// Completion is the outcome of an accepted completion. Habit holds the next
// state; XPGained must also be added to the owning user.
type Completion struct {
	Habit     Habit
	Day       string
	NewStreak int
	BonusXP   int
	XPGained  int
}

func (c Completion) Summary() string {
	msg := fmt.Sprintf("Habit completed. +%d XP", BaseXP)
	if c.BonusXP > 0 {
		msg += fmt.Sprintf(" +%d bonus XP", c.BonusXP)
	}
	return msg
}

// SourceKey identifies the completion in the XP ledger, one per habit and day.
func (c Completion) SourceKey() string {
	return c.Habit.ID + ":" + c.Day
}

// Complete computes the state of h after completing it on today. The input is
// not modified. The streak only ever increments; a missed day does not reset it.
func Complete(h Habit, today string) (Completion, error) {
	if _, err := time.Parse(DateLayout, today); err != nil {
		return Completion{}, ErrInvalidDate
	}

	if h.CompletedOn(today) {
		return Completion{}, ErrAlreadyCompleted
	}

	log := make([]string, 0, len(h.CompletionLog)+1)
	log = append(log, h.CompletionLog...)
	log = append(log, today)

	newStreak := h.Streak + 1
	bonus := BonusXP(newStreak)
	gained := BaseXP + bonus

	next := h
	next.CompletionLog = log
	next.Streak = newStreak
	next.XP = h.XP + gained

	return Completion{
		Habit:     next,
		Day:       today,
		NewStreak: newStreak,
		BonusXP:   bonus,
		XPGained:  gained,
	}, nil
}

func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
