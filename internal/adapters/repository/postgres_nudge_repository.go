package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

var _ domain.NudgeRepository = (*PostgresNudgeRepository)(nil)

type PostgresNudgeRepository struct {
	db *sqlx.DB
}

func NewPostgresNudgeRepository(db *sqlx.DB) *PostgresNudgeRepository {
	return &PostgresNudgeRepository{db: db}
}

func (r *PostgresNudgeRepository) Create(ctx context.Context, n *domain.Nudge) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO nudges (id, user_id, habit_id, message, type, created_at)
		VALUES (:id, :user_id, :habit_id, :message, :type, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrHabitNotFound
		}
		return fmt.Errorf("failed to insert nudge: %w", err)
	}
	return nil
}

func (r *PostgresNudgeRepository) ListByHabitID(ctx context.Context, userID, habitID string) ([]*domain.Nudge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	nudges := []*domain.Nudge{}
	query := `
		SELECT id, user_id, habit_id, message, type, created_at
		FROM nudges
		WHERE user_id = $1 AND habit_id = $2
		ORDER BY created_at DESC, id DESC`

	if err := r.db.SelectContext(ctx, &nudges, query, userID, habitID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return nudges, nil
}

func (r *PostgresNudgeRepository) GetDaily(ctx context.Context, userID, day string) (*domain.DailyNudge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n domain.DailyNudge
	query := `SELECT user_id, day, message, created_at FROM daily_nudges WHERE user_id = $1 AND day = $2`

	if err := r.db.GetContext(ctx, &n, query, userID, day); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDailyNudgeNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &n, nil
}

// CreateDailyIfAbsent relies on the (user_id, day) primary key so the first
// writer of the day wins.
func (r *PostgresNudgeRepository) CreateDailyIfAbsent(ctx context.Context, n *domain.DailyNudge) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO daily_nudges (user_id, day, message, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, day) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, n.UserID, n.Day, n.Message, n.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert daily nudge: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
