// AngelaMos | 2026
// reset.go

package usage

import (
	"time"

	"github.com/carterperez-dev/videoflow/internal/config"
)

// windowStart is the start of the accounting window containing now:
// the UTC day for downloads, the UTC month for transcriptions.
func windowStart(kind Kind, now time.Time) time.Time {
	now = now.UTC()
	if kind == KindDownload {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// applyReset zeroes counters whose window has rolled over. Under the
// lifetime policy counters never reset. Storage and pending counts are
// never touched. Reports whether anything changed.
func applyReset(policy string, s *Stats, now time.Time) bool {
	if policy != config.ResetPolicyPeriodic {
		return false
	}

	changed := false

	if start := windowStart(KindDownload, now); s.DownloadsWindowStart.Before(start) {
		s.Downloads = 0
		s.DownloadsWindowStart = start
		changed = true
	}

	if start := windowStart(KindTranscription, now); s.TranscriptionsWindowStart.Before(start) {
		s.Transcriptions = 0
		s.TranscriptionsWindowStart = start
		changed = true
	}

	return changed
}

// limitMessage is the denial text shown to the caller. The Daily/Monthly
// wording only appears when counters actually reset on that schedule.
func limitMessage(policy string, kind Kind) string {
	periodic := policy == config.ResetPolicyPeriodic

	if kind == KindDownload {
		if periodic {
			return "Daily download limit reached. Please upgrade to Pro."
		}
		return "Download limit reached. Please upgrade to Pro."
	}

	if periodic {
		return "Monthly transcription limit reached. Please upgrade to Pro."
	}
	return "Transcription limit reached. Please upgrade to Pro."
}
