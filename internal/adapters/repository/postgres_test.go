package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var habitCols = []string{"id", "user_id", "title", "frequency", "reminder_time", "xp", "streak", "completion_log", "version", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return sqlx.NewDb(db, "pgx"), mock
}

func fixedTime() time.Time {
	return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
}
