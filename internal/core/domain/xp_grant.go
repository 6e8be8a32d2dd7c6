package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidXPAmount  = errors.New("xp amount must be positive")
	ErrGrantAlreadyUsed = errors.New("xp grant already applied")
)

const (
	XPSourceCompletion = "habit_completion"
	XPSourceManual     = "manual"
	XPSourceReferral   = "referral"

	ReferralXP      = 20
	DefaultManualXP = 10
)

// XPGrant is one ledger row. SourceKey is unique per user, which makes
// applying the same grant twice a no-op.
type XPGrant struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Source    string    `json:"source" db:"source"`
	SourceKey string    `json:"source_key" db:"source_key"`
	Amount    int       `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func NewXPGrant(userID, source, sourceKey string, amount int) (*XPGrant, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}
	if amount <= 0 {
		return nil, ErrInvalidXPAmount
	}
	if sourceKey == "" {
		sourceKey = uuid.NewString()
	}

	return &XPGrant{
		ID:        uuid.NewString(),
		UserID:    userID,
		Source:    source,
		SourceKey: sourceKey,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CompletionGrant builds the ledger row for an accepted completion.
func CompletionGrant(userID string, c Completion) *XPGrant {
	g, _ := NewXPGrant(userID, XPSourceCompletion, c.SourceKey(), c.XPGained)
	return g
}
