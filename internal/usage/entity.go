// AngelaMos | 2026
// entity.go

package usage

import (
	"time"
)

type Kind string

const (
	KindDownload      Kind = "download"
	KindTranscription Kind = "transcription"
)

func (k Kind) Valid() bool {
	return k == KindDownload || k == KindTranscription
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Stats is one user's usage row. Pending counts are operations that passed
// Authorize and have not yet been settled by RecordOutcome.
type Stats struct {
	UserID                    string    `db:"user_id"`
	Downloads                 int       `db:"downloads"`
	Transcriptions            int       `db:"transcriptions"`
	StorageBytes              int64     `db:"storage_bytes"`
	PendingDownloads          int       `db:"pending_downloads"`
	PendingTranscriptions     int       `db:"pending_transcriptions"`
	DownloadsWindowStart      time.Time `db:"downloads_window_start"`
	TranscriptionsWindowStart time.Time `db:"transcriptions_window_start"`
	LastUpdated               time.Time `db:"last_updated"`
}

func (s *Stats) Count(kind Kind) int {
	if kind == KindDownload {
		return s.Downloads
	}
	return s.Transcriptions
}

func (s *Stats) Pending(kind Kind) int {
	if kind == KindDownload {
		return s.PendingDownloads
	}
	return s.PendingTranscriptions
}

func (s *Stats) addCount(kind Kind, delta int) {
	if kind == KindDownload {
		s.Downloads += delta
		return
	}
	s.Transcriptions += delta
}

func (s *Stats) addPending(kind Kind, delta int) {
	p := &s.PendingTranscriptions
	if kind == KindDownload {
		p = &s.PendingDownloads
	}
	*p += delta
	if *p < 0 {
		*p = 0
	}
}
