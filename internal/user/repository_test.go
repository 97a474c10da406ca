// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/videoflow/internal/core"
)

var userCols = []string{
	"id", "email", "password_hash", "name", "tier",
	"subscription_end_date", "created_at", "updated_at",
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

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("u-1", "a@x.com", "hash", "", TierFree).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(now, now))

	u := &User{ID: "u-1", Email: "a@x.com", PasswordHash: "hash", Tier: TierFree}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
}

func TestRepositoryCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &User{ID: "u-1", Email: "a@x.com"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryUpdateSubscription(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	end := now.Add(SubscriptionPeriod)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WithArgs("u-1", TierPro, end).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "a@x.com", "hash", "", TierPro, end, now, now))

	u, err := repo.UpdateSubscription(context.Background(), "u-1", TierPro, end)
	require.NoError(t, err)
	assert.Equal(t, TierPro, u.Tier)
	require.NotNil(t, u.SubscriptionEndDate)
	assert.True(t, end.Equal(*u.SubscriptionEndDate))
}

func TestRepositoryUpdatePasswordMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs("missing", "hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "missing", "hash")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
