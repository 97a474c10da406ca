// AngelaMos | 2026
// entity.go

package history

import (
	"time"
)

type Type string

const (
	TypeDownload      Type = "download"
	TypeTranscription Type = "transcription"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Entry struct {
	ID        int64     `db:"id"         json:"id"`
	UserID    string    `db:"user_id"    json:"-"`
	URL       string    `db:"url"        json:"url"`
	Title     *string   `db:"title"      json:"title"`
	Type      Type      `db:"type"       json:"type"`
	Status    Status    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RecentLimit caps how many entries ListRecent returns.
const RecentLimit = 50
