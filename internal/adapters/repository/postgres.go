package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

const (
	queryTimeout = 3 * time.Second

	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// pgCode extracts the SQLSTATE from either driver's error type.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// insertGrant writes a ledger row and bumps the owner's aggregate inside tx,
// returning the new total.
func insertGrant(ctx context.Context, tx *sqlx.Tx, g *domain.XPGrant) (int, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO xp_grants (id, user_id, source, source_key, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.UserID, g.Source, g.SourceKey, g.Amount, g.CreatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return 0, domain.ErrGrantAlreadyUsed
		case codeForeignKeyViolation:
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}

	var total int
	err = tx.QueryRowxContext(ctx,
		`UPDATE users SET xp = xp + $1, updated_at = NOW() WHERE id = $2 RETURNING xp`,
		g.Amount, g.UserID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}
