// AngelaMos | 2026
// tier.go

package usage

const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// MaxStorageBytes is reported for every tier and never enforced.
const MaxStorageBytes int64 = 10 * 1024 * 1024 * 1024

// Limits holds the per-tier quota ceilings. A nil ceiling is unbounded.
type Limits struct {
	MaxDownloads      *int
	MaxTranscriptions *int
	MaxStorage        int64
}

func ceiling(n int) *int {
	return &n
}

var tierLimits = map[string]Limits{
	TierFree: {
		MaxDownloads:      ceiling(5),
		MaxTranscriptions: ceiling(3),
		MaxStorage:        MaxStorageBytes,
	},
	TierPro: {
		MaxDownloads:      nil,
		MaxTranscriptions: ceiling(50),
		MaxStorage:        MaxStorageBytes,
	},
	TierEnterprise: {
		MaxDownloads:      nil,
		MaxTranscriptions: nil,
		MaxStorage:        MaxStorageBytes,
	},
}

// LimitsFor returns the ceilings for tier. Unknown tiers get free limits.
func LimitsFor(tier string) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

func (l Limits) Ceiling(kind Kind) *int {
	if kind == KindDownload {
		return l.MaxDownloads
	}
	return l.MaxTranscriptions
}
