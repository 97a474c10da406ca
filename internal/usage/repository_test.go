// AngelaMos | 2026
// repository_test.go

package usage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statsCols = []string{
	"user_id", "downloads", "transcriptions", "storage_bytes",
	"pending_downloads", "pending_transcriptions",
	"downloads_window_start", "transcriptions_window_start", "last_updated",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryLockedGetOrCreateInTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO usage_stats (user_id)")).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM usage_stats WHERE user_id = $1 FOR UPDATE")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(statsCols).
			AddRow("u-1", 2, 1, int64(4096), 0, 0, now, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE usage_stats")).
		WithArgs("u-1", 2, 1, int64(4096), 1, 0, now, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithTx(context.Background(), func(tx Repository) error {
		stats, err := tx.GetOrCreate(context.Background(), "u-1", true)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, stats.Downloads)
		assert.Equal(t, int64(4096), stats.StorageBytes)

		stats.addPending(KindDownload, 1)
		return tx.Save(context.Background(), stats)
	})
	require.NoError(t, err)
}

func TestRepositoryWithTxRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(Repository) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRepositoryUnlockedRead(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id) DO NOTHING")).
		WithArgs("u-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM usage_stats WHERE user_id = \$1$`).
		WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows(statsCols).
			AddRow("u-2", 0, 0, int64(0), 0, 0, now, now, now))

	stats, err := repo.GetOrCreate(context.Background(), "u-2", false)
	require.NoError(t, err)
	assert.Zero(t, stats.Downloads)
}
