package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/five82/bindery/internal/status"
)

// Action names a state-changing request.
type Action string

const (
	ActionEnqueue        Action = "enqueue"
	ActionCancel         Action = "cancel"
	ActionClearCompleted Action = "clear-completed"
)

// Queue is the part of the API client that changes queue state.
type Queue interface {
	Enqueue(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) error
}

// Syncer produces a sequenced snapshot fetch; *status.Store implements it.
type Syncer interface {
	Sync(ctx context.Context) status.Result
}

// DispatchError wraps a failed action request.
type DispatchError struct {
	Action Action
	JobID  string
	Err    error
}

func (e *DispatchError) Error() string {
	if e.JobID != "" {
		return fmt.Sprintf("%s %s: %v", e.Action, e.JobID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Outcome reports what a dispatched action did. Refresh is nil when no
// status refresh ran.
type Outcome struct {
	Action  Action
	JobID   string
	Err     error
	Refresh *status.Result
}

// OK reports whether the action request itself succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Dispatcher issues queue actions and re-synchronises status afterwards.
type Dispatcher struct {
	queue  Queue
	syncer Syncer
	logger *slog.Logger
}

// New builds a Dispatcher. A nil logger discards output.
func New(q Queue, syncer Syncer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{queue: q, syncer: syncer, logger: logger}
}

// Enqueue requests a download. The status is refreshed only when the
// request succeeds; on failure the caller's view is left as it was.
func (d *Dispatcher) Enqueue(ctx context.Context, id string) Outcome {
	out := Outcome{Action: ActionEnqueue, JobID: id}
	if err := d.run(ActionEnqueue, id, func() error { return d.queue.Enqueue(ctx, id) }); err != nil {
		out.Err = err
		return out
	}
	out.Refresh = d.refresh(ctx)
	return out
}

// Cancel cancels a job and refreshes status whether or not the request
// succeeded, so a job the server already dropped does not linger on screen.
func (d *Dispatcher) Cancel(ctx context.Context, id string) Outcome {
	out := Outcome{Action: ActionCancel, JobID: id}
	out.Err = d.run(ActionCancel, id, func() error { return d.queue.Cancel(ctx, id) })
	if errors.Is(out.Err, errEmptyID) {
		return out
	}
	out.Refresh = d.refresh(ctx)
	return out
}

// ClearCompleted clears the completed bucket and refreshes status
// regardless of the outcome.
func (d *Dispatcher) ClearCompleted(ctx context.Context) Outcome {
	out := Outcome{Action: ActionClearCompleted}
	out.Err = d.run(ActionClearCompleted, "", func() error { return d.queue.ClearCompleted(ctx) })
	out.Refresh = d.refresh(ctx)
	return out
}

var errEmptyID = errors.New("job id required")

func (d *Dispatcher) run(action Action, id string, call func() error) error {
	if action != ActionClearCompleted && strings.TrimSpace(id) == "" {
		return &DispatchError{Action: action, Err: errEmptyID}
	}
	logger := d.logger.With(slog.String("action", string(action)))
	if id != "" {
		logger = logger.With(slog.String("job_id", id))
	}
	if err := call(); err != nil {
		logger.Warn("dispatch failed", slog.Any("error", err))
		return &DispatchError{Action: action, JobID: id, Err: err}
	}
	logger.Info("dispatch succeeded")
	return nil
}

func (d *Dispatcher) refresh(ctx context.Context) *status.Result {
	if d.syncer == nil {
		return nil
	}
	res := d.syncer.Sync(ctx)
	return &res
}
