package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrFrequencyEmpty     = errors.New("habit frequency cannot be empty")
	ErrInvalidReminder    = errors.New("invalid reminder format (must be HH:MM 24h)")
)

var reminderRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

const (
	HabitFreqDaily  = "daily"
	HabitFreqWeekly = "weekly"
	HabitFreqCustom = "custom"
	MaxTitleLen     = 100
)

type Habit struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	Frequency     string    `json:"frequency" db:"frequency"`
	ReminderTime  string    `json:"reminder_time" db:"reminder_time"`
	XP            int       `json:"xp" db:"xp"`
	Streak        int       `json:"streak" db:"streak"`
	CompletionLog []string  `json:"completion_log" db:"completion_log"`
	Version       int       `json:"version" db:"version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func validateAndNormalize(title, frequency, reminder string) (string, string, string, error) {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return "", "", "", ErrHabitTitleEmpty
	}
	if len(trimmedTitle) > MaxTitleLen {
		return "", "", "", ErrHabitTitleTooLong
	}

	freq := strings.ToLower(strings.TrimSpace(frequency))
	if freq == "" {
		return "", "", "", ErrFrequencyEmpty
	}

	rem := strings.TrimSpace(reminder)
	if !reminderRegex.MatchString(rem) {
		return "", "", "", ErrInvalidReminder
	}

	return trimmedTitle, freq, rem, nil
}

func NewHabit(userID, title, frequency, reminderTime string) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	cleanTitle, freq, rem, err := validateAndNormalize(title, frequency, reminderTime)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         cleanTitle,
		Frequency:     freq,
		ReminderTime:  rem,
		CompletionLog: []string{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Update replaces the user-editable fields. Gamification state (xp, streak,
// completion log) only moves through Complete.
func (h *Habit) Update(title, frequency, reminderTime string) error {
	cleanTitle, freq, rem, err := validateAndNormalize(title, frequency, reminderTime)
	if err != nil {
		return err
	}

	h.Title = cleanTitle
	h.Frequency = freq
	h.ReminderTime = rem
	h.UpdatedAt = time.Now().UTC()

	return nil
}

func (h *Habit) CompletedOn(day string) bool {
	for _, d := range h.CompletionLog {
		if d == day {
			return true
		}
	}
	return false
}
