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

var (
	_ domain.UserRepository = (*PostgresUserRepository)(nil)
	_ domain.XPLedger       = (*PostgresUserRepository)(nil)
)

// PostgresUserRepository stores users and owns their xp ledger.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

type userRecord struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	ReferredBy   sql.NullString `db:"referred_by"`
	XP           int            `db:"xp"`
	Badges       pq.StringArray `db:"badges"`
	Pro          bool           `db:"pro"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRecord) toDomain() *domain.User {
	u := &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		XP:           r.XP,
		Badges:       []string(r.Badges),
		Pro:          r.Pro,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ReferredBy.Valid {
		ref := r.ReferredBy.String
		u.ReferredBy = &ref
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}
	return u
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	badges := user.Badges
	if badges == nil {
		badges = []string{}
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, referred_by, xp, badges, pro, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.ReferredBy,
		user.XP,
		pq.Array(badges),
		user.Pro,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("repository: create user failed: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, email, password_hash, referred_by, xp, badges, pro, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var rec userRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: get user by id failed: %w", err)
	}

	return rec.toDomain(), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE users SET name = $1, email = $2, updated_at = $3 WHERE id = $4`
	return r.execOne(ctx, "update user", query, user.Name, user.Email, user.UpdatedAt, user.ID)
}

func (r *PostgresUserRepository) SetPro(ctx context.Context, id string, pro bool) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.execOne(ctx, "set pro", `UPDATE users SET pro = $1, updated_at = NOW() WHERE id = $2`, pro, id)
}

func (r *PostgresUserRepository) ListIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("repository: list user ids failed: %w", err)
	}
	return ids, nil
}

func (r *PostgresUserRepository) ApplyGrant(ctx context.Context, grant *domain.XPGrant) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("repository: begin grant tx: %w", err)
	}
	defer tx.Rollback()

	total, err := insertGrant(ctx, tx, grant)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("repository: commit grant tx: %w", err)
	}
	return total, nil
}

func (r *PostgresUserRepository) SumGrants(ctx context.Context, userID string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM xp_grants WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("repository: sum grants failed: %w", err)
	}
	return total, nil
}

// RecomputeXP locks the user row before summing the ledger. A grant that
// committed earlier is visible to the sum; one still in flight blocks on the
// row lock and adds its amount after this transaction commits.
func (r *PostgresUserRepository) RecomputeXP(ctx context.Context, userID string) (int, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("repository: begin recompute tx: %w", err)
	}
	defer tx.Rollback()

	var before int
	err = tx.GetContext(ctx, &before, `SELECT xp FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("repository: lock user failed: %w", err)
	}

	var total int
	if err := tx.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM xp_grants WHERE user_id = $1`, userID); err != nil {
		return 0, 0, fmt.Errorf("repository: sum grants failed: %w", err)
	}

	if total != before {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET xp = $1, updated_at = NOW() WHERE id = $2`, total, userID); err != nil {
			return 0, 0, fmt.Errorf("repository: recompute xp failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("repository: commit recompute tx: %w", err)
	}
	return before, total, nil
}

func (r *PostgresUserRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repository: %s failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
