// AngelaMos | 2026
// ledger.go

package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/carterperez-dev/videoflow/internal/core"
)

const (
	LedgerPending   = "pending"
	LedgerCompleted = "completed"
	LedgerFailed    = "failed"
)

// Ledger records one row per download attempt. Nothing reads it back in
// the request path.
type Ledger interface {
	Open(ctx context.Context, userID, rawURL, platform string) (int64, error)
	Close(ctx context.Context, id int64, status string) error
}

type ledger struct {
	db core.DBTX
}

func NewLedger(db core.DBTX) Ledger {
	return &ledger{db: db}
}

func (l *ledger) Open(
	ctx context.Context,
	userID, rawURL, platform string,
) (int64, error) {
	query := `
		INSERT INTO download_records (user_id, url, platform, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	if err := l.db.GetContext(ctx, &id, query, userID, rawURL, platform, LedgerPending); err != nil {
		return 0, fmt.Errorf("open download record: %w", err)
	}

	return id, nil
}

func (l *ledger) Close(ctx context.Context, id int64, status string) error {
	query := `
		UPDATE download_records
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	if _, err := l.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("close download record: %w", err)
	}

	return nil
}

var platformHosts = []struct {
	suffix   string
	platform string
}{
	{"youtube.com", "youtube"},
	{"youtu.be", "youtube"},
	{"vimeo.com", "vimeo"},
	{"tiktok.com", "tiktok"},
	{"instagram.com", "instagram"},
	{"twitter.com", "twitter"},
	{"x.com", "twitter"},
}

// DetectPlatform names the hosting site of rawURL, or "other".
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "other"
	}

	host := strings.ToLower(u.Hostname())
	for _, p := range platformHosts {
		if host == p.suffix || strings.HasSuffix(host, "."+p.suffix) {
			return p.platform
		}
	}

	return "other"
}
