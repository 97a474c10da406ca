// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestInTxWithOptionsCommits(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE usage_stats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	err := InTxWithOptions(context.Background(), db, opts, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE usage_stats SET downloads = 1")
		return err
	})
	require.NoError(t, err)
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := InTx(context.Background(), db, func(*sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestForUpdate(t *testing.T) {
	q := "SELECT downloads FROM usage_stats WHERE user_id = $1"
	assert.Equal(t, q, ForUpdate(q, false))
	assert.Equal(t, q+" FOR UPDATE", ForUpdate(q, true))
}
