package sqlite

import (
	"testing"
	"time"

	"github.com/taskmirror/taskmirror/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleView(id int64) domain.TaskView {
	return domain.TaskView{
		TaskID:          id,
		Status:          domain.StatusCreated,
		Title:           "Bridge audit",
		Description:     "Audit the bridge pallet.",
		Reward:          "5000000000000000000",
		EndDate:         "14/11/2023",
		AuthorizedRoles: []string{"2", "5"},
		CreatorRole:     "1",
		Assignee:        "0x52908400098527886E0F7030069857D2E4169EE7",
		AssigneeDisplay: "0x5290…9EE7",
		Metadata:        "ipfs://QmTask",
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	want := sampleView(7)
	if err := db.UpsertSnapshot(want, time.Now()); err != nil {
		t.Fatalf("UpsertSnapshot() error: %v", err)
	}

	got, ok, err := db.Snapshot(7)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if !ok {
		t.Fatal("Snapshot() ok = false, want stored view")
	}
	if got.Status != want.Status || got.Reward != want.Reward || got.EndDate != want.EndDate {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
	if len(got.AuthorizedRoles) != 2 || got.AuthorizedRoles[1] != "5" {
		t.Errorf("AuthorizedRoles = %v, want [2 5]", got.AuthorizedRoles)
	}
	if got.Assignee != want.Assignee {
		t.Errorf("Assignee = %q, want canonical identity", got.Assignee)
	}
}

func TestSnapshot_Missing(t *testing.T) {
	db := newTestDB(t)

	_, ok, err := db.Snapshot(99)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if ok {
		t.Error("Snapshot(99) ok = true, want false for missing id")
	}
}

func TestSnapshot_WholesaleReplace(t *testing.T) {
	db := newTestDB(t)

	first := sampleView(3)
	if err := db.UpsertSnapshot(first, time.Now()); err != nil {
		t.Fatalf("UpsertSnapshot() error: %v", err)
	}

	second := sampleView(3)
	second.Status = domain.StatusInProgress
	second.Title = "Bridge audit (reassigned)"
	if err := db.UpsertSnapshot(second, time.Now()); err != nil {
		t.Fatalf("UpsertSnapshot() replace error: %v", err)
	}

	got, _, err := db.Snapshot(3)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.Title != second.Title {
		t.Errorf("replace not wholesale: %+v", got)
	}
}

func TestSnapshots_Order(t *testing.T) {
	db := newTestDB(t)

	for _, id := range []int64{5, 1, 3} {
		if err := db.UpsertSnapshot(sampleView(id), time.Now()); err != nil {
			t.Fatalf("UpsertSnapshot(%d) error: %v", id, err)
		}
	}

	views, err := db.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots() error: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("len(views) = %d, want 3", len(views))
	}
	for i, wantID := range []int64{1, 3, 5} {
		if views[i].TaskID != wantID {
			t.Errorf("views[%d].TaskID = %d, want %d", i, views[i].TaskID, wantID)
		}
	}
}

func TestNotifications(t *testing.T) {
	db := newTestDB(t)

	base := time.Now().Add(-time.Minute)
	for i, n := range []domain.Notification{
		{ID: "n1", Severity: domain.SeverityInfo, Message: "Start Task process initiated with success!"},
		{ID: "n2", Severity: domain.SeverityWarning, Message: "Cancel Task process initiated with success!"},
		{ID: "n3", Severity: domain.SeverityError, Message: "Error Searching Task"},
	} {
		n.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := db.InsertNotification(n); err != nil {
			t.Fatalf("InsertNotification(%s) error: %v", n.ID, err)
		}
	}

	notifs, err := db.ListNotifications(10)
	if err != nil {
		t.Fatalf("ListNotifications() error: %v", err)
	}
	if len(notifs) != 3 {
		t.Fatalf("len(notifs) = %d, want 3", len(notifs))
	}
	if notifs[0].ID != "n3" {
		t.Errorf("newest first: notifs[0].ID = %q, want n3", notifs[0].ID)
	}

	if err := db.AcknowledgeNotification("n1"); err != nil {
		t.Fatalf("AcknowledgeNotification() error: %v", err)
	}
	notifs, err = db.ListNotifications(10)
	if err != nil {
		t.Fatalf("ListNotifications() error: %v", err)
	}
	for _, n := range notifs {
		if n.ID == "n1" && !n.Acknowledged {
			t.Error("n1 not acknowledged after AcknowledgeNotification")
		}
	}
}
