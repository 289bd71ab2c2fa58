package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/five82/bindery/internal/queue"
)

// Fetcher is the slice of the API client the store needs.
type Fetcher interface {
	FetchStatus(ctx context.Context) (json.RawMessage, error)
	FetchActiveDownloads(ctx context.Context) ([]string, error)
}

// StatusFetchError wraps a failed status or active-count fetch.
type StatusFetchError struct {
	Op  string // "snapshot" or "active-count"
	Err error
}

func (e *StatusFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *StatusFetchError) Unwrap() error { return e.Err }

// Result is one sequenced snapshot fetch.
type Result struct {
	Seq       uint64
	Snapshot  queue.Snapshot
	Err       error
	FetchedAt time.Time
}

// Store fetches queue snapshots and tags each fetch with a sequence number
// so late responses can be told apart from fresh ones.
type Store struct {
	fetcher Fetcher
	logger  *slog.Logger
	seq     atomic.Uint64
	now     func() time.Time
}

// NewStore builds a Store over fetcher. A nil logger discards output.
func NewStore(fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{fetcher: fetcher, logger: logger, now: time.Now}
}

// FetchSnapshot retrieves and normalises the current queue snapshot.
func (s *Store) FetchSnapshot(ctx context.Context) (queue.Snapshot, error) {
	raw, err := s.fetcher.FetchStatus(ctx)
	if err != nil {
		return queue.Snapshot{}, &StatusFetchError{Op: "snapshot", Err: err}
	}
	snap, err := queue.Decode(raw)
	if err != nil {
		return queue.Snapshot{}, &StatusFetchError{Op: "snapshot", Err: err}
	}
	return snap, nil
}

// FetchActiveCount returns the number of jobs the service reports as
// actively downloading.
func (s *Store) FetchActiveCount(ctx context.Context) (int, error) {
	ids, err := s.fetcher.FetchActiveDownloads(ctx)
	if err != nil {
		return 0, &StatusFetchError{Op: "active-count", Err: err}
	}
	return len(ids), nil
}

// Sync fetches a snapshot tagged with the next sequence number. The number
// is taken before the request starts, so it orders fetches by initiation.
func (s *Store) Sync(ctx context.Context) Result {
	seq := s.seq.Add(1)
	snap, err := s.FetchSnapshot(ctx)
	res := Result{Seq: seq, Snapshot: snap, Err: err, FetchedAt: s.now()}
	if err != nil {
		s.logger.Warn("status fetch failed", slog.Uint64("seq", seq), slog.Any("error", err))
		return res
	}
	s.logger.Debug("status fetched",
		slog.Uint64("seq", seq),
		slog.Int("jobs", snap.Total()),
		slog.Int("downloading", snap.Len(queue.Downloading)),
	)
	return res
}
