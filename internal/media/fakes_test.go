// AngelaMos | 2026
// fakes_test.go

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/carterperez-dev/videoflow/internal/core"
	"github.com/carterperez-dev/videoflow/internal/history"
	"github.com/carterperez-dev/videoflow/internal/usage"
)

// usageRows is a usage.Repository held in memory. WithTx serializes
// callers and drops writes when fn fails.
type usageRows struct {
	mu   sync.Mutex
	rows map[string]usage.Stats
}

type usageTx struct {
	rows map[string]usage.Stats
}

func newUsageRows() *usageRows {
	return &usageRows{rows: map[string]usage.Stats{}}
}

func (u *usageRows) WithTx(_ context.Context, fn func(usage.Repository) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	staged := make(map[string]usage.Stats, len(u.rows))
	for k, v := range u.rows {
		staged[k] = v
	}
	if err := fn(&usageTx{rows: staged}); err != nil {
		return err
	}
	u.rows = staged
	return nil
}

func (u *usageRows) GetOrCreate(context.Context, string, bool) (*usage.Stats, error) {
	return nil, errors.New("usageRows: use WithTx")
}

func (u *usageRows) Save(context.Context, *usage.Stats) error {
	return errors.New("usageRows: use WithTx")
}

func (tx *usageTx) WithTx(_ context.Context, fn func(usage.Repository) error) error {
	return fn(tx)
}

func (tx *usageTx) GetOrCreate(_ context.Context, userID string, _ bool) (*usage.Stats, error) {
	row, ok := tx.rows[userID]
	if !ok {
		row = usage.Stats{UserID: userID}
		tx.rows[userID] = row
	}
	return &row, nil
}

func (tx *usageTx) Save(_ context.Context, s *usage.Stats) error {
	tx.rows[s.UserID] = *s
	return nil
}

type tierBook struct {
	mu    sync.Mutex
	tiers map[string]string
}

func (t *tierBook) GetTier(_ context.Context, userID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tier, ok := t.tiers[userID]
	if !ok {
		return "", fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return tier, nil
}

func (t *tierBook) set(userID, tier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tiers[userID] = tier
}

type historyBook struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*history.Entry
}

func newHistoryBook() *historyBook {
	return &historyBook{entries: map[int64]*history.Entry{}}
}

func (h *historyBook) Start(_ context.Context, userID, url string, kind history.Type) (*history.Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	e := &history.Entry{
		ID:     h.nextID,
		UserID: userID,
		URL:    url,
		Type:   kind,
		Status: history.StatusProcessing,
	}
	h.entries[e.ID] = e
	cp := *e
	return &cp, nil
}

func (h *historyBook) SetTitle(_ context.Context, id int64, title string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok {
		return core.ErrNotFound
	}
	e.Title = &title
	return nil
}

func (h *historyBook) finish(id int64, status history.Status) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok {
		return core.ErrNotFound
	}
	if e.Status.Terminal() {
		return history.ErrInvalidTransition
	}
	e.Status = status
	return nil
}

func (h *historyBook) Complete(_ context.Context, id int64) error {
	return h.finish(id, history.StatusCompleted)
}

func (h *historyBook) Fail(_ context.Context, id int64) error {
	return h.finish(id, history.StatusFailed)
}

// list returns the user's entries newest first.
func (h *historyBook) list(userID string) []history.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []history.Entry{}
	for _, e := range h.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type stubFetcher struct {
	title       string
	contentType string
	body        []byte
	err         error
}

func (f *stubFetcher) fetch() (*Media, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Media{
		Title:       f.title,
		ContentType: f.contentType,
		Body:        io.NopCloser(bytes.NewReader(f.body)),
	}, nil
}

func (f *stubFetcher) FetchVideo(context.Context, string) (*Media, error) {
	return f.fetch()
}

func (f *stubFetcher) FetchAudio(context.Context, string) (*Media, error) {
	return f.fetch()
}

type stubTranscriber struct {
	text string
	err  error
	got  []byte
}

func (t *stubTranscriber) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	b, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	t.got = b
	if t.err != nil {
		return "", t.err
	}
	return t.text, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (s *memStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if s.err != nil {
		return s.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
		s.types = map[string]string{}
	}
	s.objects[key] = b
	s.types[key] = contentType
	return nil
}

type memLedger struct {
	mu      sync.Mutex
	records map[int64][2]string
}

func (l *memLedger) Open(_ context.Context, _, _, platform string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.records == nil {
		l.records = map[int64][2]string{}
	}
	id := int64(len(l.records) + 1)
	l.records[id] = [2]string{platform, LedgerPending}
	return id, nil
}

func (l *memLedger) Close(_ context.Context, id int64, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.records[id]
	rec[1] = status
	l.records[id] = rec
	return nil
}

// flakyQuota fails the next fails RecordOutcome calls before they reach
// the wrapped quota.
type flakyQuota struct {
	Quota
	mu    sync.Mutex
	fails int
	calls int
}

var errSettleWrite = errors.New("settle write failed")

func (q *flakyQuota) failNext(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fails = n
}

func (q *flakyQuota) RecordOutcome(
	ctx context.Context,
	res *usage.Reservation,
	outcome usage.Outcome,
	bytesTransferred int64,
) error {
	q.mu.Lock()
	q.calls++
	failing := q.fails > 0
	if failing {
		q.fails--
	}
	q.mu.Unlock()

	if failing {
		return errSettleWrite
	}
	return q.Quota.RecordOutcome(ctx, res, outcome, bytesTransferred)
}
