// AngelaMos | 2026
// service.go

package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/carterperez-dev/videoflow/internal/config"
	"github.com/carterperez-dev/videoflow/internal/core"
)

var (
	ErrQuotaExceeded      = core.ErrQuotaReached
	ErrReservationSettled = errors.New("reservation already settled")
	ErrInvalidKind        = errors.New("invalid operation kind")
)

// QuotaError is returned by Authorize when the user's ceiling for kind is
// reached.
type QuotaError struct {
	Kind    Kind
	Limit   int
	Message string
}

func (e *QuotaError) Error() string {
	return e.Message
}

func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}

// TierProvider resolves a user's current stored tier.
type TierProvider interface {
	GetTier(ctx context.Context, userID string) (string, error)
}

// Reservation is a quota slot granted by Authorize. It must be settled
// exactly once with RecordOutcome.
type Reservation struct {
	UserID  string
	Kind    Kind
	Tier    string
	settled atomic.Bool
}

type Service struct {
	repo   Repository
	tiers  TierProvider
	policy string
	now    func() time.Time
}

func NewService(
	repo Repository,
	tiers TierProvider,
	cfg config.QuotaConfig,
) *Service {
	policy := cfg.ResetPolicy
	if policy == "" {
		policy = config.ResetPolicyLifetime
	}

	return &Service{
		repo:   repo,
		tiers:  tiers,
		policy: policy,
		now:    time.Now,
	}
}

// Authorize checks the user's ceiling for kind and reserves a slot. The
// check counts settled usage plus in-flight reservations under a row lock,
// so concurrent requests cannot overshoot the ceiling. A denial mutates
// nothing.
func (s *Service) Authorize(
	ctx context.Context,
	userID string,
	kind Kind,
) (*Reservation, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("authorize: %w", ErrInvalidKind)
	}

	tier, err := s.tiers.GetTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	limit := LimitsFor(tier).Ceiling(kind)

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		stats, err := tx.GetOrCreate(ctx, userID, true)
		if err != nil {
			return err
		}

		applyReset(s.policy, stats, s.now())

		if limit != nil && stats.Count(kind)+stats.Pending(kind) >= *limit {
			return &QuotaError{
				Kind:    kind,
				Limit:   *limit,
				Message: limitMessage(s.policy, kind),
			}
		}

		stats.addPending(kind, 1)
		return tx.Save(ctx, stats)
	})
	if err != nil {
		var quotaErr *QuotaError
		if errors.As(err, &quotaErr) {
			slog.Info("quota denied",
				"user_id", userID,
				"kind", kind,
				"tier", tier,
				"limit", quotaErr.Limit,
			)
			return nil, err
		}
		return nil, fmt.Errorf("authorize: %w", err)
	}

	return &Reservation{UserID: userID, Kind: kind, Tier: tier}, nil
}

// RecordOutcome settles a reservation. Success counts the operation and,
// for downloads, adds bytesTransferred to storage. Failure only releases
// the slot. A settle whose write fails leaves the reservation open.
func (s *Service) RecordOutcome(
	ctx context.Context,
	res *Reservation,
	outcome Outcome,
	bytesTransferred int64,
) error {
	if res == nil {
		return fmt.Errorf("record outcome: nil reservation: %w", core.ErrInvalidInput)
	}
	if !res.settled.CompareAndSwap(false, true) {
		return fmt.Errorf("record outcome: %w", ErrReservationSettled)
	}

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		stats, err := tx.GetOrCreate(ctx, res.UserID, true)
		if err != nil {
			return err
		}

		now := s.now()
		applyReset(s.policy, stats, now)
		stats.addPending(res.Kind, -1)

		if outcome == OutcomeSuccess {
			stats.addCount(res.Kind, 1)
			if res.Kind == KindDownload && bytesTransferred > 0 {
				stats.StorageBytes += bytesTransferred
			}
			stats.LastUpdated = now
		}

		return tx.Save(ctx, stats)
	})
	if err != nil {
		// Nothing was written, so the slot is still held and may be
		// settled again.
		res.settled.Store(false)
		return fmt.Errorf("record outcome: %w", err)
	}

	return nil
}

// StatsReport is a user's usage joined with the ceilings of their tier.
type StatsReport struct {
	Downloads         int   `json:"downloads"`
	Transcriptions    int   `json:"transcriptions"`
	Storage           int64 `json:"storage"`
	MaxDownloads      *int  `json:"maxDownloads"`
	MaxTranscriptions *int  `json:"maxTranscriptions"`
	MaxStorage        int64 `json:"maxStorage"`
}

func (s *Service) GetStats(
	ctx context.Context,
	userID string,
) (*StatsReport, error) {
	tier, err := s.tiers.GetTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	var stats *Stats
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		stats, err = tx.GetOrCreate(ctx, userID, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	// Reported counts reflect the current window; the row itself is only
	// rewritten by Authorize and RecordOutcome.
	applyReset(s.policy, stats, s.now())

	limits := LimitsFor(tier)

	return &StatsReport{
		Downloads:         stats.Downloads,
		Transcriptions:    stats.Transcriptions,
		Storage:           stats.StorageBytes,
		MaxDownloads:      limits.MaxDownloads,
		MaxTranscriptions: limits.MaxTranscriptions,
		MaxStorage:        limits.MaxStorage,
	}, nil
}
