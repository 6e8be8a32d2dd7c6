package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

var _ domain.HabitRepository = (*PostgresHabitRepository)(nil)

const habitColumns = `id, user_id, title, frequency, reminder_time, xp, streak, completion_log, version, created_at, updated_at`

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

type habitRecord struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	Title         string         `db:"title"`
	Frequency     string         `db:"frequency"`
	ReminderTime  string         `db:"reminder_time"`
	XP            int            `db:"xp"`
	Streak        int            `db:"streak"`
	CompletionLog pq.StringArray `db:"completion_log"`
	Version       int            `db:"version"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r habitRecord) toDomain() *domain.Habit {
	log := []string(r.CompletionLog)
	if log == nil {
		log = []string{}
	}
	return &domain.Habit{
		ID:            r.ID,
		UserID:        r.UserID,
		Title:         r.Title,
		Frequency:     r.Frequency,
		ReminderTime:  r.ReminderTime,
		XP:            r.XP,
		Streak:        r.Streak,
		CompletionLog: log,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
        INSERT INTO habits (` + habitColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.UserID, h.Title, h.Frequency, h.ReminderTime,
		h.XP, h.Streak, pq.Array(h.CompletionLog), h.Version,
		h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var rec habitRecord
	err := r.db.GetContext(ctx, &rec, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return rec.toDomain(), nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var recs []habitRecord
	query := `
        SELECT ` + habitColumns + ` FROM habits
        WHERE user_id = $1
        ORDER BY created_at ASC, id ASC`

	if err := r.db.SelectContext(ctx, &recs, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	habits := make([]*domain.Habit, 0, len(recs))
	for _, rec := range recs {
		habits = append(habits, rec.toDomain())
	}
	return habits, nil
}

func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
        UPDATE habits SET
            title = $1, frequency = $2, reminder_time = $3,
            updated_at = NOW(), version = version + 1
        WHERE id = $4 AND version = $5
        RETURNING version, updated_at`

	var newVersion int
	var newUpdatedAt time.Time

	err := r.db.QueryRowxContext(ctx, query,
		h.Title, h.Frequency, h.ReminderTime, h.ID, h.Version,
	).Scan(&newVersion, &newUpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.missOrConflict(ctx, r.db, h.ID)
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	h.Version = newVersion
	h.UpdatedAt = newUpdatedAt
	return nil
}

func (r *PostgresHabitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}

	return nil
}

// ApplyCompletion runs the habit write, the ledger insert and the xp
// increment in one transaction. The WHERE clause re-checks the version and
// the day so a concurrent completion cannot slip in between read and write.
func (r *PostgresHabitRepository) ApplyCompletion(ctx context.Context, c domain.Completion, prevVersion int, grant *domain.XPGrant) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion tx: %w", err)
	}
	defer tx.Rollback()

	h := c.Habit
	query := `
        UPDATE habits SET
            completion_log = $1, xp = $2, streak = $3,
            version = version + 1, updated_at = NOW()
        WHERE id = $4 AND user_id = $5 AND version = $6
          AND NOT ($7 = ANY(completion_log))
        RETURNING version`

	var newVersion int
	err = tx.QueryRowxContext(ctx, query,
		pq.Array(h.CompletionLog), h.XP, h.Streak,
		h.ID, h.UserID, prevVersion, c.Day,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.missOrConflict(ctx, tx, h.ID)
		}
		return fmt.Errorf("completion update failed: %w", err)
	}

	if _, err := insertGrant(ctx, tx, grant); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completion tx: %w", err)
	}
	return nil
}

func (r *PostgresHabitRepository) missOrConflict(ctx context.Context, q sqlx.QueryerContext, id string) error {
	var count int
	if err := sqlx.GetContext(ctx, q, &count, `SELECT count(*) FROM habits WHERE id = $1`, id); err != nil {
		return fmt.Errorf("existence check failed: %w", err)
	}
	if count == 0 {
		return domain.ErrHabitNotFound
	}
	return domain.ErrHabitConflict
}
