// AngelaMos | 2026
// repository.go

package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/videoflow/internal/core"
)

var ErrInvalidTransition = errors.New("history entry is not processing")

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	SetTitle(ctx context.Context, id int64, title string) error
	// Finish moves a processing entry to status. Entries already in a
	// terminal state are left alone and ErrInvalidTransition is returned.
	Finish(ctx context.Context, id int64, status Status) error
	ListRecent(ctx context.Context, userID string, limit int) ([]Entry, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO history_entries (user_id, url, title, type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.GetContext(ctx, entry, query,
		entry.UserID,
		entry.URL,
		entry.Title,
		entry.Type,
		entry.Status,
	)
	if err != nil {
		return fmt.Errorf("create history entry: %w", err)
	}

	return nil
}

func (r *repository) SetTitle(ctx context.Context, id int64, title string) error {
	query := `UPDATE history_entries SET title = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, title)
	if err != nil {
		return fmt.Errorf("set history title: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set history title: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set history title: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Finish(ctx context.Context, id int64, status Status) error {
	query := `
		UPDATE history_entries
		SET status = $2
		WHERE id = $1 AND status = 'processing'`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("finish history entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish history entry: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("finish history entry %d: %w", id, ErrInvalidTransition)
	}

	return nil
}

func (r *repository) ListRecent(
	ctx context.Context,
	userID string,
	limit int,
) ([]Entry, error) {
	query := `
		SELECT id, user_id, url, title, type, status, created_at
		FROM history_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return entries, nil
}
