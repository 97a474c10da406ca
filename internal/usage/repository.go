// AngelaMos | 2026
// repository.go

package usage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/videoflow/internal/core"
)

type Repository interface {
	// WithTx runs fn against a repository bound to one transaction.
	// Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(Repository) error) error
	// GetOrCreate returns the user's row, inserting a zero row first when
	// none exists. When lock is set the row stays locked until the
	// surrounding transaction ends.
	GetOrCreate(ctx context.Context, userID string, lock bool) (*Stats, error)
	Save(ctx context.Context, stats *Stats) error
}

// Quota checks lock the user's row, so read committed is enough: the locked
// SELECT always sees the latest committed counters.
var txOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

type repository struct {
	db   core.DBTX
	pool *sqlx.DB
}

func NewRepository(pool *sqlx.DB) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(
	ctx context.Context,
	fn func(Repository) error,
) error {
	if r.pool == nil {
		return fn(r)
	}

	return core.InTxWithOptions(ctx, r.pool, txOptions, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

const statsColumns = `user_id, downloads, transcriptions, storage_bytes,
		       pending_downloads, pending_transcriptions,
		       downloads_window_start, transcriptions_window_start,
		       last_updated`

func (r *repository) GetOrCreate(
	ctx context.Context,
	userID string,
	lock bool,
) (*Stats, error) {
	insert := `
		INSERT INTO usage_stats (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, insert, userID); err != nil {
		return nil, fmt.Errorf("create usage stats: %w", err)
	}

	query := core.ForUpdate(
		`SELECT `+statsColumns+` FROM usage_stats WHERE user_id = $1`,
		lock,
	)

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("get usage stats: %w", err)
	}

	return &stats, nil
}

func (r *repository) Save(ctx context.Context, stats *Stats) error {
	query := `
		UPDATE usage_stats
		SET downloads = $2,
		    transcriptions = $3,
		    storage_bytes = $4,
		    pending_downloads = $5,
		    pending_transcriptions = $6,
		    downloads_window_start = $7,
		    transcriptions_window_start = $8,
		    last_updated = $9
		WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query,
		stats.UserID,
		stats.Downloads,
		stats.Transcriptions,
		stats.StorageBytes,
		stats.PendingDownloads,
		stats.PendingTranscriptions,
		stats.DownloadsWindowStart,
		stats.TranscriptionsWindowStart,
		stats.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("save usage stats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save usage stats: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("save usage stats: %w", core.ErrNotFound)
	}

	return nil
}
