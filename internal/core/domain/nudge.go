package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNudgeMessageEmpty = errors.New("nudge message is required")
)

const NudgeTypeManual = "manual"

var DailyQuotes = []string{
	"Keep going, you're doing great! 🌟",
	"One small habit a day leads to big changes! 💪",
	"Your consistency defines your success. 🚀",
	"Believe in the power of daily progress. 🌱",
	"Tiny steps every day. That’s the secret. 🧠",
}

type Nudge struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	HabitID   string    `json:"habit_id" db:"habit_id"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type DailyNudge struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Day       string    `json:"day" db:"day"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func NewNudge(userID, habitID, message, nudgeType string) (*Nudge, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, ErrNudgeMessageEmpty
	}
	if strings.TrimSpace(nudgeType) == "" {
		nudgeType = NudgeTypeManual
	}

	return &Nudge{
		ID:        uuid.NewString(),
		UserID:    userID,
		HabitID:   habitID,
		Message:   msg,
		Type:      nudgeType,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SelectDailyNudge returns the cached message when there is one. Otherwise it
// draws a quote with pick, which must return a value in [0, n).
func SelectDailyNudge(cached *string, pick func(n int) int) (string, bool) {
	if cached != nil {
		return *cached, false
	}
	return DailyQuotes[pick(len(DailyQuotes))], true
}
