// AngelaMos | 2026
// service.go

package history

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/videoflow/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Start records a new operation in the processing state.
func (s *Service) Start(
	ctx context.Context,
	userID, url string,
	kind Type,
) (*Entry, error) {
	if kind != TypeDownload && kind != TypeTranscription {
		return nil, fmt.Errorf("start history: type %q: %w", kind, core.ErrInvalidInput)
	}

	entry := &Entry{
		UserID: userID,
		URL:    url,
		Type:   kind,
		Status: StatusProcessing,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *Service) SetTitle(ctx context.Context, id int64, title string) error {
	return s.repo.SetTitle(ctx, id, title)
}

func (s *Service) Complete(ctx context.Context, id int64) error {
	return s.finish(ctx, id, StatusCompleted)
}

func (s *Service) Fail(ctx context.Context, id int64) error {
	return s.finish(ctx, id, StatusFailed)
}

// finish moves a processing entry to a terminal status.
func (s *Service) finish(ctx context.Context, id int64, status Status) error {
	if !status.Terminal() {
		return fmt.Errorf("finish history entry %d: status %q: %w", id, status, ErrInvalidTransition)
	}
	return s.repo.Finish(ctx, id, status)
}

// ListRecent returns the user's newest entries first.
func (s *Service) ListRecent(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := s.repo.ListRecent(ctx, userID, RecentLimit)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []Entry{}
	}

	return entries, nil
}
