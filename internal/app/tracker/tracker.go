// Package tracker is the client state controller. It owns the two view
// slots (current single task, current batch), the loading/error flags,
// and the request entry points the consumer surface calls. The ledger
// stays authoritative: the tracker never fabricates a status locally,
// it only re-derives views from fresh reads.
package tracker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/taskmirror/taskmirror/internal/app/authz"
	"github.com/taskmirror/taskmirror/internal/app/notify"
	"github.com/taskmirror/taskmirror/internal/domain"
	"github.com/taskmirror/taskmirror/internal/identity"
	"github.com/taskmirror/taskmirror/internal/infra/metrics"
	"github.com/taskmirror/taskmirror/internal/infra/sqlite"
	"github.com/taskmirror/taskmirror/internal/ledger"
)

// Observer receives each batch record as it clears the placeholder
// filter, so a consumer can render a growing list mid-fetch.
type Observer func(domain.TaskView)

// rangeReq remembers the last requested range for Refresh.
type rangeReq struct {
	start, end int64
	scoped     bool
	valid      bool
}

// Tracker mediates between a consumer surface and the task ledger.
type Tracker struct {
	gw     ledger.Gateway
	authz  *authz.Resolver
	notify *notify.Center
	db     *sqlite.DB // optional snapshot store, nil for memory-only
	caller domain.Identity

	mu       sync.Mutex
	loading  bool
	errMsg   string
	task     *domain.TaskView  // single-task slot
	tasks    []domain.TaskView // batch slot — independent of task, never merged
	taskGen  uint64            // generation counters: stale or post-dispose
	batchGen uint64            // results are discarded, not applied
	disposed bool
	lastTask int64
	lastRng  rangeReq
}

// New creates a Tracker for the given caller identity. db may be nil.
func New(gw ledger.Gateway, nc *notify.Center, db *sqlite.DB, caller domain.Identity) *Tracker {
	return &Tracker{
		gw:       gw,
		authz:    authz.NewResolver(gw),
		notify:   nc,
		db:       db,
		caller:   caller,
		lastTask: -1,
	}
}

// ─── Consumer-facing state surface ──────────────────────────────────────────

// Loading reports whether a fetch or submission is in flight.
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// Err returns the current human-readable error message, empty when the
// last request succeeded.
func (t *Tracker) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// Task returns a copy of the current single-task view, nil if none.
func (t *Tracker) Task() *domain.TaskView {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.task == nil {
		return nil
	}
	view := *t.task
	return &view
}

// Tasks returns a snapshot of the batch slot. Safe to call while a
// range fetch is still accumulating.
func (t *Tracker) Tasks() []domain.TaskView {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.TaskView, len(t.tasks))
	copy(out, t.tasks)
	return out
}

// Caller returns the identity this tracker submits as.
func (t *Tracker) Caller() domain.Identity { return t.caller }

// ─── Loading discipline ─────────────────────────────────────────────────────

// begin flips loading on and clears the previous error. The returned
// release is deferred by every entry point so loading is dropped on all
// exit paths, success or failure.
func (t *Tracker) begin() (release func()) {
	t.mu.Lock()
	t.loading = true
	t.errMsg = ""
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		t.loading = false
		t.mu.Unlock()
	}
}

// fail records a human-readable error and announces it. Prior view
// state is left untouched.
func (t *Tracker) fail(msg string, err error) error {
	full := fmt.Sprintf("%s: %v", msg, err)
	t.mu.Lock()
	t.errMsg = full
	t.mu.Unlock()
	t.notify.Error(full)
	return err
}

// ─── Fetching ───────────────────────────────────────────────────────────────

// FetchOne reads a single task and replaces the single-task slot
// wholesale. On failure the previous view is preserved.
func (t *Tracker) FetchOne(ctx context.Context, taskID int64) error {
	release := t.begin()
	defer release()

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return domain.ErrDisposed
	}
	t.taskGen++
	gen := t.taskGen
	t.lastTask = taskID
	t.mu.Unlock()

	started := time.Now()
	rec, err := t.gw.GetTask(ctx, taskID)
	metrics.FetchLatency.WithLabelValues("single").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("single", "error").Inc()
		return t.fail("Error Searching Task", err)
	}

	view, err := domain.Normalize(rec, taskID)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("single", "error").Inc()
		return t.fail("Error Searching Task", err)
	}
	view.AssigneeDisplay = identity.Shorten(view.Assignee)

	t.mu.Lock()
	if t.disposed || gen != t.taskGen {
		t.mu.Unlock()
		return domain.ErrStaleResult
	}
	t.task = &view
	t.mu.Unlock()

	metrics.FetchesTotal.WithLabelValues("single", "ok").Inc()
	t.persist(view)
	return nil
}

// FetchRange reads [start, end] in one batched ledger call and rebuilds
// the batch slot. Records are normalized in ledger-return order;
// placeholder slots (creator role 0) are discarded; a record whose
// status fails to decode is dropped without aborting the batch. Each
// surviving view is appended to the slot as it clears the filter, so
// observers see partial results while the batch is loading. obs may be
// nil.
func (t *Tracker) FetchRange(ctx context.Context, start, end int64, scopeToCaller bool, obs Observer) error {
	if start > end {
		return t.fail("Error Searching Multiple Tasks", fmt.Errorf("%w: [%d, %d]", domain.ErrInvalidRange, start, end))
	}

	release := t.begin()
	defer release()

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return domain.ErrDisposed
	}
	t.batchGen++
	gen := t.batchGen
	t.lastRng = rangeReq{start: start, end: end, scoped: scopeToCaller, valid: true}
	t.mu.Unlock()

	started := time.Now()
	recs, err := t.gw.GetMultiTasks(ctx, start, end, scopeToCaller)
	metrics.FetchLatency.WithLabelValues("range").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("range", "error").Inc()
		return t.fail("Error Searching Multiple Tasks", err)
	}

	// The ledger answered: from here on the batch slot belongs to this
	// generation. Reset it and accumulate in return order.
	t.mu.Lock()
	if t.disposed || gen != t.batchGen {
		t.mu.Unlock()
		return domain.ErrStaleResult
	}
	t.tasks = nil
	t.mu.Unlock()

	kept := 0
	for i, rec := range recs {
		taskID := start + int64(i)

		if rec.IsPlaceholder() {
			metrics.PlaceholdersFiltered.Inc()
			continue
		}

		view, err := domain.Normalize(rec, taskID)
		if err != nil {
			// Fatal to this record only — drop it, keep the batch.
			metrics.DecodeDrops.Inc()
			log.Printf("[tracker] dropping task %d from batch: %v", taskID, err)
			continue
		}
		view.AssigneeDisplay = identity.Shorten(view.Assignee)

		t.mu.Lock()
		if t.disposed || gen != t.batchGen {
			t.mu.Unlock()
			return domain.ErrStaleResult
		}
		t.tasks = append(t.tasks, view)
		t.mu.Unlock()

		kept++
		if obs != nil {
			obs(view)
		}
		t.persist(view)
	}

	metrics.FetchesTotal.WithLabelValues("range", "ok").Inc()
	metrics.BatchSize.Set(float64(kept))
	return nil
}

// persist mirrors a view into the snapshot store. Best-effort: the
// in-memory slots are the source for consumers, the store only
// warm-starts the next session.
func (t *Tracker) persist(view domain.TaskView) {
	if t.db == nil {
		return
	}
	if err := t.db.UpsertSnapshot(view, time.Now()); err != nil {
		log.Printf("[tracker] snapshot persist failed for task %d: %v", view.TaskID, err)
	}
}

// ─── Submissions ────────────────────────────────────────────────────────────

// SubmitAction derives the legal next action for the task's current
// status and submits it. The submitted status change is never applied
// locally — consumers observe it on the next successful read.
func (t *Tracker) SubmitAction(ctx context.Context, taskID int64) error {
	release := t.begin()
	defer release()

	status, err := t.currentStatus(ctx, taskID)
	if err != nil {
		return t.fail("Error Searching Task", err)
	}

	action, ok := status.NextAction()
	if !ok {
		return t.fail("No action available", fmt.Errorf("%w: status %q", domain.ErrNoActionable, status))
	}

	if err := t.dispatch(ctx, action.Call, taskID); err != nil {
		metrics.TransitionsSubmitted.WithLabelValues(string(action.Call), "error").Inc()
		return t.fail("Error "+action.Label, err)
	}

	metrics.TransitionsSubmitted.WithLabelValues(string(action.Call), "ok").Inc()
	t.notify.Info(action.Label + " process initiated with success!")
	return nil
}

// SubmitCancel submits a cancellation. Available to leaders from any
// non-terminal status, orthogonal to the linear chain.
func (t *Tracker) SubmitCancel(ctx context.Context, taskID int64) error {
	release := t.begin()
	defer release()

	if err := t.gw.CancelTask(ctx, taskID); err != nil {
		metrics.TransitionsSubmitted.WithLabelValues(string(domain.CallCancelTask), "error").Inc()
		return t.fail("Error Cancel Task", err)
	}

	metrics.TransitionsSubmitted.WithLabelValues(string(domain.CallCancelTask), "ok").Inc()
	t.notify.Warning("Cancel Task process initiated with success!")
	return nil
}

// currentStatus prefers the single-task slot, else reads fresh.
func (t *Tracker) currentStatus(ctx context.Context, taskID int64) (domain.TaskStatus, error) {
	t.mu.Lock()
	if t.task != nil && t.task.TaskID == taskID {
		status := t.task.Status
		t.mu.Unlock()
		return status, nil
	}
	t.mu.Unlock()

	rec, err := t.gw.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	return domain.DecodeStatus(rec.Status)
}

func (t *Tracker) dispatch(ctx context.Context, call domain.TransitionCall, taskID int64) error {
	switch call {
	case domain.CallStartTask:
		return t.gw.StartTask(ctx, taskID)
	case domain.CallReviewTask:
		return t.gw.ReviewTask(ctx, taskID)
	case domain.CallCompleteTask:
		return t.gw.CompleteTask(ctx, taskID)
	case domain.CallCancelTask:
		return t.gw.CancelTask(ctx, taskID)
	default:
		return fmt.Errorf("unknown transition call %q", call)
	}
}

// Capabilities resolves the caller's member/leader capabilities.
func (t *Tracker) Capabilities(ctx context.Context) (domain.Capabilities, error) {
	return t.authz.Resolve(ctx, t.caller)
}

// CapabilitiesOf resolves capabilities for an arbitrary identity.
func (t *Tracker) CapabilitiesOf(ctx context.Context, id domain.Identity) (domain.Capabilities, error) {
	return t.authz.Resolve(ctx, id)
}

// ─── Administration ─────────────────────────────────────────────────────────
// Administrative calls are fire-and-forget relative to the task views:
// they never flip the shared loading flag, and the "initiated"
// notification is optimistic — emitted on submission, before the ledger
// confirms. Authoritative state is only picked up on the next read.

func (t *Tracker) SetRole(ctx context.Context, roleID domain.RoleID, authorized domain.Identity, isAuthorized bool) error {
	t.notify.Info("Set Role process initiated with success!")
	if err := t.gw.SetRole(ctx, roleID, authorized, isAuthorized); err != nil {
		metrics.AdminCalls.WithLabelValues("setRole", "error").Inc()
		t.notify.Error("Error Set Role!")
		return err
	}
	metrics.AdminCalls.WithLabelValues("setRole", "ok").Inc()
	return nil
}

func (t *Tracker) SetOperator(ctx context.Context, interfaceID domain.InterfaceID, roleID domain.RoleID, isAuthorized bool) error {
	t.notify.Info("Set Operator process initiated with success!")
	if err := t.gw.SetOperator(ctx, interfaceID, roleID, isAuthorized); err != nil {
		metrics.AdminCalls.WithLabelValues("setOperator", "error").Inc()
		t.notify.Error("Error Set Operator!")
		return err
	}
	metrics.AdminCalls.WithLabelValues("setOperator", "ok").Inc()
	return nil
}

func (t *Tracker) SetMinQuorum(ctx context.Context, quorum domain.QuorumAmount) error {
	t.notify.Info("Set Quorum process initiated with success!")
	if err := t.gw.SetMinQuorum(ctx, quorum); err != nil {
		metrics.AdminCalls.WithLabelValues("setMinQuorum", "error").Inc()
		t.notify.Error("Error Set Quorum!")
		return err
	}
	metrics.AdminCalls.WithLabelValues("setMinQuorum", "ok").Inc()
	return nil
}

func (t *Tracker) Deposit(ctx context.Context, roleID domain.RoleID, amount domain.Amount) error {
	t.notify.Info("Set Deposit process initiated with success!")
	if err := t.gw.Deposit(ctx, roleID, amount); err != nil {
		metrics.AdminCalls.WithLabelValues("deposit", "error").Inc()
		t.notify.Error("Error Set Deposit!")
		return err
	}
	metrics.AdminCalls.WithLabelValues("deposit", "ok").Inc()
	return nil
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Initialize warm-starts the batch slot from the snapshot store (stale
// but immediately renderable) — fresh state arrives with the first
// Refresh or fetch.
func (t *Tracker) Initialize(ctx context.Context) error {
	if t.db == nil {
		return nil
	}
	views, err := t.db.Snapshots()
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return domain.ErrDisposed
	}
	if len(t.tasks) == 0 {
		t.tasks = views
	}
	return nil
}

// Refresh re-runs the last requested reads against the ledger.
func (t *Tracker) Refresh(ctx context.Context) error {
	t.mu.Lock()
	lastTask := t.lastTask
	lastRng := t.lastRng
	t.mu.Unlock()

	if lastRng.valid {
		if err := t.FetchRange(ctx, lastRng.start, lastRng.end, lastRng.scoped, nil); err != nil {
			return err
		}
	}
	if lastTask >= 0 {
		return t.FetchOne(ctx, lastTask)
	}
	return nil
}

// Dispose tears the tracker down. In-flight results resolving after
// this point are discarded — released state is never mutated.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disposed = true
	t.taskGen++
	t.batchGen++
	t.task = nil
	t.tasks = nil
}
