package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/taskmirror/taskmirror/internal/app/notify"
	"github.com/taskmirror/taskmirror/internal/domain"
	"github.com/taskmirror/taskmirror/internal/infra/sqlite"
	"github.com/taskmirror/taskmirror/internal/ledger"
)

func newSnapshotDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

const testCaller = domain.Identity("0x52908400098527886E0F7030069857D2E4169EE7")

func record(status domain.StatusCode, title string, creatorRole uint64) domain.TaskRecord {
	return domain.TaskRecord{
		Status:      status,
		Title:       title,
		Description: "desc",
		Reward:      "1000000000000000000",
		EndDate:     1700000000,
		CreatorRole: creatorRole,
		Assignee:    string(testCaller),
		Metadata:    "ipfs://QmTask",
	}
}

func newTestTracker(t *testing.T) (*Tracker, *ledger.Mock, *notify.Center) {
	t.Helper()
	mock := ledger.NewMock()
	nc := notify.New(nil)
	return New(mock, nc, nil, testCaller), mock, nc
}

func TestFetchOne(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(7, record(domain.CodeCreated, "Bridge audit", 1))

	if err := tr.FetchOne(context.Background(), 7); err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}

	view := tr.Task()
	if view == nil {
		t.Fatal("Task() = nil after successful fetch")
	}
	if view.Status != domain.StatusCreated {
		t.Errorf("Status = %q, want %q", view.Status, domain.StatusCreated)
	}
	if view.EndDate != "14/11/2023" {
		t.Errorf("EndDate = %q, want seconds scaled to milliseconds first", view.EndDate)
	}
	if view.AssigneeDisplay != "0x5290…9EE7" {
		t.Errorf("AssigneeDisplay = %q, want shortened form", view.AssigneeDisplay)
	}
	if view.Assignee != testCaller {
		t.Errorf("Assignee = %q, want canonical identity retained", view.Assignee)
	}
	if tr.Loading() {
		t.Error("Loading() = true after fetch returned")
	}
	if tr.Err() != "" {
		t.Errorf("Err() = %q, want empty", tr.Err())
	}
}

func TestFetchOne_TransportErrorPreservesState(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(7, record(domain.CodeCreated, "Bridge audit", 1))

	if err := tr.FetchOne(context.Background(), 7); err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}
	before := tr.Task()

	mock.FailNext(domain.ErrLedgerUnreachable)
	err := tr.FetchOne(context.Background(), 7)
	if !errors.Is(err, domain.ErrLedgerUnreachable) {
		t.Fatalf("FetchOne() error = %v, want ErrLedgerUnreachable", err)
	}

	if tr.Err() == "" {
		t.Error("Err() empty after transport failure, want human-readable message")
	}
	if tr.Loading() {
		t.Error("Loading() = true after failed fetch, want released")
	}
	after := tr.Task()
	if after == nil || after.Title != before.Title || after.Status != before.Status {
		t.Errorf("prior view mutated by failed fetch: before %+v, after %+v", before, after)
	}
}

func TestFetchOne_ClearsErrorOnEntry(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(1, record(domain.CodeCreated, "a", 1))

	mock.FailNext(domain.ErrLedgerUnreachable)
	_ = tr.FetchOne(context.Background(), 1)
	if tr.Err() == "" {
		t.Fatal("expected error message after failure")
	}

	if err := tr.FetchOne(context.Background(), 1); err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}
	if tr.Err() != "" {
		t.Errorf("Err() = %q after success, want cleared", tr.Err())
	}
}

func TestFetchRange_FiltersPlaceholders(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	// Indices 1 and 3 are placeholder slots (creator role 0).
	mock.SeedTask(0, record(domain.CodeCreated, "t0", 1))
	mock.SeedTask(1, record(domain.CodeCreated, "t1", 0))
	mock.SeedTask(2, record(domain.CodeInProgress, "t2", 2))
	mock.SeedTask(3, record(domain.CodeCreated, "t3", 0))
	mock.SeedTask(4, record(domain.CodeCompleted, "t4", 1))

	if err := tr.FetchRange(context.Background(), 0, 4, false, nil); err != nil {
		t.Fatalf("FetchRange() error: %v", err)
	}

	views := tr.Tasks()
	if len(views) != 3 {
		t.Fatalf("len(views) = %d, want 3 after placeholder filtering", len(views))
	}
	for i, wantTitle := range []string{"t0", "t2", "t4"} {
		if views[i].Title != wantTitle {
			t.Errorf("views[%d].Title = %q, want %q (ledger-return order preserved)", i, views[i].Title, wantTitle)
		}
	}
	if views[1].TaskID != 2 {
		t.Errorf("views[1].TaskID = %d, want slot id 2", views[1].TaskID)
	}
}

func TestFetchRange_IncrementalVisibility(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	for i := int64(0); i < 3; i++ {
		mock.SeedTask(i, record(domain.CodeCreated, "t", 1))
	}

	var seen int
	err := tr.FetchRange(context.Background(), 0, 2, false, func(view domain.TaskView) {
		seen++
		// The slot already contains everything surfaced so far — a
		// consumer can render the growing list before the batch ends.
		if got := len(tr.Tasks()); got != seen {
			t.Errorf("after %d records, slot holds %d views", seen, got)
		}
	})
	if err != nil {
		t.Fatalf("FetchRange() error: %v", err)
	}
	if seen != 3 {
		t.Errorf("observer saw %d records, want 3", seen)
	}
}

func TestFetchRange_DecodeDropDoesNotAbortBatch(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(0, record(domain.CodeCreated, "good", 1))
	mock.SeedTask(1, record(domain.StatusCode(9), "bad status", 1))
	mock.SeedTask(2, record(domain.CodeInReview, "also good", 1))

	if err := tr.FetchRange(context.Background(), 0, 2, false, nil); err != nil {
		t.Fatalf("FetchRange() error: %v", err)
	}

	views := tr.Tasks()
	if len(views) != 2 {
		t.Fatalf("len(views) = %d, want 2 — one record dropped, batch kept", len(views))
	}
	if views[0].Title != "good" || views[1].Title != "also good" {
		t.Errorf("surviving views = %+v", views)
	}
}

func TestFetchRange_FailurePreservesBatch(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(0, record(domain.CodeCreated, "t0", 1))

	if err := tr.FetchRange(context.Background(), 0, 0, false, nil); err != nil {
		t.Fatalf("FetchRange() error: %v", err)
	}

	mock.FailNext(domain.ErrLedgerUnreachable)
	err := tr.FetchRange(context.Background(), 0, 0, false, nil)
	if !errors.Is(err, domain.ErrLedgerUnreachable) {
		t.Fatalf("FetchRange() error = %v, want ErrLedgerUnreachable", err)
	}
	if len(tr.Tasks()) != 1 {
		t.Error("failed range fetch clobbered previously successful batch")
	}
	if tr.Loading() {
		t.Error("Loading() = true after failed range fetch")
	}
}

func TestSlots_Independent(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(0, record(domain.CodeCreated, "batch task", 1))
	mock.SeedTask(9, record(domain.CodeInReview, "single task", 1))

	if err := tr.FetchRange(context.Background(), 0, 0, false, nil); err != nil {
		t.Fatalf("FetchRange() error: %v", err)
	}
	if err := tr.FetchOne(context.Background(), 9); err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}

	if got := tr.Task(); got == nil || got.Title != "single task" {
		t.Errorf("single slot = %+v, want task 9", got)
	}
	views := tr.Tasks()
	if len(views) != 1 || views[0].Title != "batch task" {
		t.Errorf("batch slot = %+v, want untouched by single fetch", views)
	}
}

// gatedGateway blocks StartTask until released, so a fetch can be
// interleaved while the transition is still in flight.
type gatedGateway struct {
	*ledger.Mock
	entered chan struct{}
	release chan struct{}
}

func (g *gatedGateway) StartTask(ctx context.Context, taskID int64) error {
	close(g.entered)
	<-g.release
	return g.Mock.StartTask(ctx, taskID)
}

func TestSubmitAction_StatusNeverFabricated(t *testing.T) {
	mock := ledger.NewMock()
	mock.SeedTask(5, record(domain.CodeCreated, "t5", 1))
	gw := &gatedGateway{Mock: mock, entered: make(chan struct{}), release: make(chan struct{})}
	tr := New(gw, notify.New(nil), nil, testCaller)
	ctx := context.Background()

	if err := tr.FetchOne(ctx, 5); err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- tr.SubmitAction(ctx, 5) }()
	<-gw.entered

	// The transition is pending: a fresh read still shows Created and
	// the controller must not invent InProgress locally.
	if err := tr.FetchOne(ctx, 5); err != nil {
		t.Fatalf("FetchOne() during pending transition error: %v", err)
	}
	if got := tr.Task().Status; got != domain.StatusCreated {
		t.Errorf("Status during pending startTask = %q, want %q", got, domain.StatusCreated)
	}

	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("SubmitAction() error: %v", err)
	}

	// Only a fresh read reflects the transition.
	if err := tr.FetchOne(ctx, 5); err != nil {
		t.Fatalf("FetchOne() after transition error: %v", err)
	}
	if got := tr.Task().Status; got != domain.StatusInProgress {
		t.Errorf("Status after startTask resolved = %q, want %q", got, domain.StatusInProgress)
	}
}

func TestSubmitAction_ChainAndNotifications(t *testing.T) {
	tr, mock, nc := newTestTracker(t)
	mock.SeedTask(3, record(domain.CodeCreated, "t3", 1))
	ctx := context.Background()

	steps := []struct {
		wantStatus domain.TaskStatus
		wantNotice string
	}{
		{domain.StatusInProgress, "Start Task process initiated with success!"},
		{domain.StatusInReview, "Review Task process initiated with success!"},
		{domain.StatusCompleted, "Complete Task process initiated with success!"},
	}

	for _, step := range steps {
		if err := tr.FetchOne(ctx, 3); err != nil {
			t.Fatalf("FetchOne() error: %v", err)
		}
		if err := tr.SubmitAction(ctx, 3); err != nil {
			t.Fatalf("SubmitAction() error: %v", err)
		}
		recent := nc.Recent(1)
		if len(recent) != 1 || recent[0].Message != step.wantNotice {
			t.Errorf("notification = %+v, want %q", recent, step.wantNotice)
		}
		if err := tr.FetchOne(ctx, 3); err != nil {
			t.Fatalf("FetchOne() error: %v", err)
		}
		if got := tr.Task().Status; got != step.wantStatus {
			t.Fatalf("Status = %q, want %q", got, step.wantStatus)
		}
	}
}

func TestSubmitAction_TerminalHasNoAction(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(4, record(domain.CodeCompleted, "done", 1))

	err := tr.SubmitAction(context.Background(), 4)
	if !errors.Is(err, domain.ErrNoActionable) {
		t.Fatalf("SubmitAction() on Completed error = %v, want ErrNoActionable", err)
	}
}

func TestSubmitCancel(t *testing.T) {
	tr, mock, nc := newTestTracker(t)
	mock.SeedTask(2, record(domain.CodeInProgress, "t2", 1))
	ctx := context.Background()

	if err := tr.SubmitCancel(ctx, 2); err != nil {
		t.Fatalf("SubmitCancel() error: %v", err)
	}
	recent := nc.Recent(1)
	if len(recent) != 1 || recent[0].Severity != domain.SeverityWarning {
		t.Errorf("cancel notification = %+v, want warning severity", recent)
	}

	if err := tr.FetchOne(ctx, 2); err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}
	if got := tr.Task().Status; got != domain.StatusCanceled {
		t.Errorf("Status after cancel = %q, want %q", got, domain.StatusCanceled)
	}
}

func TestSubmitCancel_RevertSurfaces(t *testing.T) {
	tr, mock, nc := newTestTracker(t)
	mock.SeedTask(2, record(domain.CodeCompleted, "t2", 1))

	err := tr.SubmitCancel(context.Background(), 2)
	if !errors.Is(err, domain.ErrCallReverted) {
		t.Fatalf("SubmitCancel() on terminal error = %v, want ErrCallReverted", err)
	}
	if tr.Err() == "" {
		t.Error("Err() empty after revert, want message")
	}
	recent := nc.Recent(1)
	if len(recent) != 1 || recent[0].Severity != domain.SeverityError {
		t.Errorf("notification = %+v, want error severity", recent)
	}
}

// slowGateway blocks GetTask for one task id so a second fetch can be
// interleaved deterministically.
type slowGateway struct {
	*ledger.Mock
	target  int64
	entered chan struct{}
	release chan struct{}
}

func (g *slowGateway) GetTask(ctx context.Context, taskID int64) (domain.TaskRecord, error) {
	if taskID == g.target {
		close(g.entered)
		<-g.release
	}
	return g.Mock.GetTask(ctx, taskID)
}

func TestFetchOne_StaleResultDiscarded(t *testing.T) {
	mock := ledger.NewMock()
	mock.SeedTask(1, record(domain.CodeCreated, "old", 1))
	mock.SeedTask(2, record(domain.CodeInReview, "new", 1))

	gw := &slowGateway{Mock: mock, target: 1, entered: make(chan struct{}), release: make(chan struct{})}
	tr := New(gw, notify.New(nil), nil, testCaller)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- tr.FetchOne(ctx, 1) }()
	<-gw.entered

	// A newer fetch for the same slot lands while the first is blocked.
	if err := tr.FetchOne(ctx, 2); err != nil {
		t.Fatalf("FetchOne(2) error: %v", err)
	}

	close(gw.release)
	if err := <-first; !errors.Is(err, domain.ErrStaleResult) {
		t.Fatalf("superseded FetchOne error = %v, want ErrStaleResult", err)
	}

	// Last writer wins: the slot holds the newer view.
	if got := tr.Task(); got == nil || got.Title != "new" {
		t.Errorf("Task() = %+v, want the newer fetch's view", got)
	}
}

func TestDispose_DiscardsLateResults(t *testing.T) {
	mock := ledger.NewMock()
	mock.SeedTask(1, record(domain.CodeCreated, "t1", 1))

	gw := &slowGateway{Mock: mock, target: 1, entered: make(chan struct{}), release: make(chan struct{})}
	tr := New(gw, notify.New(nil), nil, testCaller)

	done := make(chan error, 1)
	go func() { done <- tr.FetchOne(context.Background(), 1) }()
	<-gw.entered

	tr.Dispose()
	close(gw.release)

	if err := <-done; !errors.Is(err, domain.ErrStaleResult) {
		t.Fatalf("post-dispose FetchOne error = %v, want ErrStaleResult", err)
	}
	if tr.Task() != nil {
		t.Error("Task() != nil after Dispose, released state was mutated")
	}
}

func TestAdminCalls_FireAndForget(t *testing.T) {
	tr, _, nc := newTestTracker(t)
	ctx := context.Background()

	if err := tr.SetRole(ctx, 2, testCaller, true); err != nil {
		t.Fatalf("SetRole() error: %v", err)
	}
	if err := tr.SetOperator(ctx, "0x80ac58cd", 2, true); err != nil {
		t.Fatalf("SetOperator() error: %v", err)
	}
	if err := tr.SetMinQuorum(ctx, 3); err != nil {
		t.Fatalf("SetMinQuorum() error: %v", err)
	}
	if err := tr.Deposit(ctx, 2, "1000000000000000000"); err != nil {
		t.Fatalf("Deposit() error: %v", err)
	}

	if tr.Loading() {
		t.Error("admin calls must not flip the shared loading flag")
	}
	recent := nc.Recent(10)
	if len(recent) != 4 {
		t.Fatalf("got %d notifications, want 4 optimistic initiations", len(recent))
	}
	for _, n := range recent {
		if n.Severity != domain.SeverityInfo {
			t.Errorf("severity = %q, want info", n.Severity)
		}
	}
}

func TestAdminCall_FailureNotifies(t *testing.T) {
	tr, mock, nc := newTestTracker(t)
	mock.FailNext(domain.ErrCallReverted)

	err := tr.SetMinQuorum(context.Background(), 3)
	if !errors.Is(err, domain.ErrCallReverted) {
		t.Fatalf("SetMinQuorum() error = %v, want ErrCallReverted", err)
	}

	recent := nc.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("got %d notifications, want optimistic info + error", len(recent))
	}
	if recent[0].Severity != domain.SeverityError {
		t.Errorf("latest severity = %q, want error", recent[0].Severity)
	}
	if recent[1].Severity != domain.SeverityInfo {
		t.Errorf("first severity = %q, want the optimistic initiation", recent[1].Severity)
	}
	if tr.Loading() {
		t.Error("admin failure must not leave loading set")
	}
}

func TestCapabilities(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.GrantLeader(testCaller)

	caps, err := tr.Capabilities(context.Background())
	if err != nil {
		t.Fatalf("Capabilities() error: %v", err)
	}
	if !caps.IsLeader || caps.IsMember {
		t.Errorf("caps = %+v, want leader only", caps)
	}
}

func TestRefresh(t *testing.T) {
	tr, mock, _ := newTestTracker(t)
	mock.SeedTask(0, record(domain.CodeCreated, "t0", 1))
	mock.SeedTask(1, record(domain.CodeCreated, "t1", 1))
	ctx := context.Background()

	if err := tr.FetchRange(ctx, 0, 1, false, nil); err != nil {
		t.Fatalf("FetchRange() error: %v", err)
	}
	if err := tr.FetchOne(ctx, 1); err != nil {
		t.Fatalf("FetchOne() error: %v", err)
	}

	// The ledger moves underneath us; Refresh re-reads both slots.
	if err := mock.StartTask(ctx, 1); err != nil {
		t.Fatalf("mock StartTask() error: %v", err)
	}
	if err := tr.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if got := tr.Task().Status; got != domain.StatusInProgress {
		t.Errorf("single slot after Refresh = %q, want %q", got, domain.StatusInProgress)
	}
	views := tr.Tasks()
	if len(views) != 2 || views[1].Status != domain.StatusInProgress {
		t.Errorf("batch slot after Refresh = %+v", views)
	}
}

func TestInitialize_WarmStartFromSnapshots(t *testing.T) {
	db := newSnapshotDB(t)
	mock := ledger.NewMock()
	mock.SeedTask(7, record(domain.CodeCreated, "persisted", 1))

	// First session fetches and persists.
	first := New(mock, notify.New(nil), db, testCaller)
	if err := first.FetchRange(context.Background(), 7, 7, false, nil); err != nil {
		t.Fatalf("FetchRange() error: %v", err)
	}
	first.Dispose()

	// Second session warm-starts from the store before any ledger read.
	second := New(ledger.NewMock(), notify.New(nil), db, testCaller)
	if err := second.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	views := second.Tasks()
	if len(views) != 1 || views[0].Title != "persisted" {
		t.Errorf("warm-start views = %+v, want the persisted snapshot", views)
	}
}
