// AngelaMos | 2026
// service.go

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/videoflow/internal/config"
	"github.com/carterperez-dev/videoflow/internal/core"
	"github.com/carterperez-dev/videoflow/internal/history"
	"github.com/carterperez-dev/videoflow/internal/usage"
)

const tracerName = "github.com/carterperez-dev/videoflow/internal/media"

// A failed settle leaves the reservation open, so retrying it cannot
// count an operation twice.
const (
	settleAttempts = 3
	settleBackoff  = 50 * time.Millisecond
)

type Quota interface {
	Authorize(
		ctx context.Context,
		userID string,
		kind usage.Kind,
	) (*usage.Reservation, error)
	RecordOutcome(
		ctx context.Context,
		res *usage.Reservation,
		outcome usage.Outcome,
		bytesTransferred int64,
	) error
}

type History interface {
	Start(
		ctx context.Context,
		userID, url string,
		kind history.Type,
	) (*history.Entry, error)
	SetTitle(ctx context.Context, id int64, title string) error
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64) error
}

// ServiceConfig wires the pipeline. Store and Ledger are optional. KeyFunc
// names archived artifacts and defaults to ArtifactKey with no prefix.
type ServiceConfig struct {
	Quota       Quota
	History     History
	Fetcher     Fetcher
	Transcriber Transcriber

	Store   ArtifactStore
	Ledger  Ledger
	KeyFunc func(userID string, historyID int64) string

	Media                config.MediaConfig
	TranscriptionTimeout time.Duration
	Logger               *slog.Logger
}

type Service struct {
	quota             Quota
	history           History
	fetcher           Fetcher
	transcriber       Transcriber
	store             ArtifactStore
	ledger            Ledger
	keyFunc           func(userID string, historyID int64) string
	tempDir           string
	fetchTimeout      time.Duration
	transcribeTimeout time.Duration
	logger            *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(userID string, historyID int64) string {
			return ArtifactKey("", userID, historyID)
		}
	}

	return &Service{
		quota:             cfg.Quota,
		history:           cfg.History,
		fetcher:           cfg.Fetcher,
		transcriber:       cfg.Transcriber,
		store:             cfg.Store,
		ledger:            cfg.Ledger,
		keyFunc:           keyFunc,
		tempDir:           cfg.Media.TempDir,
		fetchTimeout:      cfg.Media.FetchTimeout,
		transcribeTimeout: cfg.TranscriptionTimeout,
		logger:            logger,
	}
}

// defaultVideoType applies when the fetcher reports no content type.
const defaultVideoType = "video/mp4"

// Download is a spooled video ready to stream. Close removes the file.
type Download struct {
	Title       string
	ContentType string
	Size        int64
	HistoryID   int64
	file        *os.File
}

func (d *Download) Reader() io.ReadSeeker {
	return d.file
}

func (d *Download) Close() error {
	name := d.file.Name()
	closeErr := d.file.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return closeErr
}

// run tracks one operation from reservation to a terminal history state.
type run struct {
	svc   *Service
	kind  usage.Kind
	res   *usage.Reservation
	entry *history.Entry
	span  trace.Span
}

// begin reserves quota then opens the processing history entry. A quota
// denial returns before any entry exists.
func (s *Service) begin(
	ctx context.Context,
	userID, url string,
	kind usage.Kind,
) (context.Context, *run, error) {
	ctx, span := core.StartSpan(ctx, tracerName, "media."+string(kind),
		attribute.String("user.id", userID),
		attribute.String("media.kind", string(kind)),
	)

	res, err := s.quota.Authorize(ctx, userID, kind)
	if err != nil {
		span.RecordError(err)
		span.End()
		return ctx, nil, err
	}

	entry, err := s.history.Start(ctx, userID, url, history.Type(kind))
	if err != nil {
		s.release(ctx, res)
		core.SetSpanError(ctx, err)
		span.End()
		return ctx, nil, fmt.Errorf("start history: %w", err)
	}

	span.SetAttributes(attribute.Int64("history.id", entry.ID))

	return ctx, &run{svc: s, kind: kind, res: res, entry: entry, span: span}, nil
}

// settleCtx keeps accounting writes alive when the client goes away.
func settleCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// settle retries RecordOutcome on write failures.
func (s *Service) settle(
	ctx context.Context,
	res *usage.Reservation,
	outcome usage.Outcome,
	bytesTransferred int64,
) error {
	var err error
	for attempt := 1; attempt <= settleAttempts; attempt++ {
		err = s.quota.RecordOutcome(ctx, res, outcome, bytesTransferred)
		if err == nil || errors.Is(err, usage.ErrReservationSettled) {
			return err
		}
		if attempt < settleAttempts {
			s.logger.Warn("settle usage failed, retrying",
				"user_id", res.UserID,
				"kind", res.Kind,
				"attempt", attempt,
				"error", err,
			)
			time.Sleep(time.Duration(attempt) * settleBackoff)
		}
	}
	return err
}

func (s *Service) release(ctx context.Context, res *usage.Reservation) {
	if err := s.settle(settleCtx(ctx), res, usage.OutcomeFailure, 0); err != nil {
		s.logger.Error("release reservation failed",
			"user_id", res.UserID,
			"kind", res.Kind,
			"error", err,
		)
	}
}

func (r *run) setTitle(ctx context.Context, title string) {
	if title == "" {
		return
	}
	if err := r.svc.history.SetTitle(ctx, r.entry.ID, title); err != nil {
		r.svc.logger.Warn("set history title failed",
			"history_id", r.entry.ID,
			"error", err,
		)
	}
}

// fail releases the reservation and marks the entry failed. It returns
// cause so callers can return r.fail(ctx, err).
func (r *run) fail(ctx context.Context, cause error) error {
	defer r.span.End()

	core.SetSpanError(ctx, cause)

	r.svc.logger.Warn("media operation failed",
		"user_id", r.res.UserID,
		"kind", r.kind,
		"history_id", r.entry.ID,
		"error", cause,
	)

	ctx = settleCtx(ctx)
	r.svc.release(ctx, r.res)

	if err := r.svc.history.Fail(ctx, r.entry.ID); err != nil {
		r.svc.logger.Error("mark history failed", "history_id", r.entry.ID, "error", err)
	}

	return cause
}

// succeed counts the operation and marks the entry completed.
func (r *run) succeed(ctx context.Context, bytesTransferred int64) error {
	defer r.span.End()
	ctx = settleCtx(ctx)

	if err := r.svc.settle(ctx, r.res, usage.OutcomeSuccess, bytesTransferred); err != nil {
		core.SetSpanError(ctx, err)
		if histErr := r.svc.history.Fail(ctx, r.entry.ID); histErr != nil {
			r.svc.logger.Error("mark history failed", "history_id", r.entry.ID, "error", histErr)
		}
		return fmt.Errorf("record usage: %w", err)
	}

	if err := r.svc.history.Complete(ctx, r.entry.ID); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("complete history: %w", err)
	}

	return nil
}

func (s *Service) withTimeout(
	ctx context.Context,
	d time.Duration,
) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Download fetches url into a temp file and accounts for it. The caller
// must Close the returned Download.
func (s *Service) Download(
	ctx context.Context,
	userID, url string,
) (*Download, error) {
	ctx, r, err := s.begin(ctx, userID, url, usage.KindDownload)
	if err != nil {
		return nil, err
	}

	recordID := s.openLedger(ctx, userID, url)

	dl, err := s.fetchVideo(ctx, r)
	if err == nil && s.store != nil {
		err = s.archive(ctx, userID, r.entry.ID, dl)
	}
	if err != nil {
		s.closeLedger(ctx, recordID, LedgerFailed)
		return nil, r.fail(ctx, err)
	}

	if err := r.succeed(ctx, dl.Size); err != nil {
		s.closeLedger(ctx, recordID, LedgerFailed)
		_ = dl.Close() //nolint:errcheck // already failing
		return nil, err
	}

	s.closeLedger(ctx, recordID, LedgerCompleted)
	return dl, nil
}

func (s *Service) fetchVideo(ctx context.Context, r *run) (*Download, error) {
	fetchCtx, cancel := s.withTimeout(ctx, s.fetchTimeout)
	defer cancel()

	m, err := s.fetcher.FetchVideo(fetchCtx, r.entry.URL)
	if err != nil {
		return nil, err
	}
	defer m.Body.Close() //nolint:errcheck // read-only stream

	r.setTitle(ctx, m.Title)

	file, err := os.CreateTemp(s.tempDir, "videoflow-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	contentType := m.ContentType
	if contentType == "" {
		contentType = defaultVideoType
	}

	dl := &Download{
		Title:       m.Title,
		ContentType: contentType,
		HistoryID:   r.entry.ID,
		file:        file,
	}

	size, err := io.Copy(file, m.Body)
	if err != nil {
		_ = dl.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("spool video: %w", err)
	}
	dl.Size = size

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = dl.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}

	return dl, nil
}

func (s *Service) archive(
	ctx context.Context,
	userID string,
	historyID int64,
	dl *Download,
) error {
	key := s.keyFunc(userID, historyID)

	if err := s.store.Put(ctx, key, dl.file, dl.Size, dl.ContentType); err != nil {
		_ = dl.Close() //nolint:errcheck // already failing
		return fmt.Errorf("archive download: %w", err)
	}

	if _, err := dl.file.Seek(0, io.SeekStart); err != nil {
		_ = dl.Close() //nolint:errcheck // already failing
		return fmt.Errorf("rewind spool file: %w", err)
	}

	return nil
}

func (s *Service) openLedger(ctx context.Context, userID, url string) int64 {
	if s.ledger == nil {
		return 0
	}
	id, err := s.ledger.Open(ctx, userID, url, DetectPlatform(url))
	if err != nil {
		s.logger.Warn("open download record failed", "user_id", userID, "error", err)
		return 0
	}
	return id
}

func (s *Service) closeLedger(ctx context.Context, id int64, status string) {
	if s.ledger == nil || id == 0 {
		return
	}
	if err := s.ledger.Close(settleCtx(ctx), id, status); err != nil {
		s.logger.Warn("close download record failed", "record_id", id, "error", err)
	}
}

// Transcribe fetches the audio track of url and returns its transcript.
func (s *Service) Transcribe(
	ctx context.Context,
	userID, url string,
) (string, error) {
	ctx, r, err := s.begin(ctx, userID, url, usage.KindTranscription)
	if err != nil {
		return "", err
	}

	text, err := s.transcribe(ctx, r)
	if err != nil {
		return "", r.fail(ctx, err)
	}

	if err := r.succeed(ctx, 0); err != nil {
		return "", err
	}

	return text, nil
}

func (s *Service) transcribe(ctx context.Context, r *run) (string, error) {
	fetchCtx, cancelFetch := s.withTimeout(ctx, s.fetchTimeout)
	defer cancelFetch()

	m, err := s.fetcher.FetchAudio(fetchCtx, r.entry.URL)
	if err != nil {
		return "", err
	}
	defer m.Body.Close() //nolint:errcheck // read-only stream

	r.setTitle(ctx, m.Title)

	transcribeCtx, cancel := s.withTimeout(ctx, s.transcribeTimeout)
	defer cancel()

	return s.transcriber.Transcribe(transcribeCtx, m.Body)
}
