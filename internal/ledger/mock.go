package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskmirror/taskmirror/internal/domain"
)

// ─── Mock Ledger (for testing and offline mode) ─────────────────────────────

// Mock is an in-memory Gateway. It applies the same transition rules the
// registry contract enforces, so the client sees realistic status flow
// without a relay.
type Mock struct {
	mu      sync.Mutex
	records map[int64]domain.TaskRecord
	members map[domain.Identity]bool
	leaders map[domain.Identity]bool

	// failNext, when set, is returned by the next call and cleared.
	failNext error
}

// NewMock creates an empty mock ledger.
func NewMock() *Mock {
	return &Mock{
		records: make(map[int64]domain.TaskRecord),
		members: make(map[domain.Identity]bool),
		leaders: make(map[domain.Identity]bool),
	}
}

// SeedTask stores a record at taskID, overwriting any previous one.
func (m *Mock) SeedTask(taskID int64, rec domain.TaskRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[taskID] = rec
}

// GrantMember marks id as holding the member role.
func (m *Mock) GrantMember(id domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[id] = true
}

// GrantLeader marks id as holding the leader role.
func (m *Mock) GrantLeader(id domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaders[id] = true
}

// FailNext makes the next gateway call return err.
func (m *Mock) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *Mock) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *Mock) GetTask(_ context.Context, taskID int64) (domain.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return domain.TaskRecord{}, err
	}
	rec, ok := m.records[taskID]
	if !ok {
		return domain.TaskRecord{}, fmt.Errorf("%w: id %d", domain.ErrTaskNotFound, taskID)
	}
	return rec, nil
}

func (m *Mock) GetMultiTasks(_ context.Context, start, end int64, scopeToCaller bool) ([]domain.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if start > end {
		return nil, fmt.Errorf("%w: [%d, %d]", domain.ErrInvalidRange, start, end)
	}
	// Registry storage semantics: every slot in range is returned,
	// placeholder or not. Filtering is the caller's policy.
	recs := make([]domain.TaskRecord, 0, end-start+1)
	for id := start; id <= end; id++ {
		recs = append(recs, m.records[id])
	}
	return recs, nil
}

// transition applies a status change with the contract's legality rules.
func (m *Mock) transition(taskID int64, from domain.StatusCode, to domain.StatusCode, call domain.TransitionCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	rec, ok := m.records[taskID]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrTaskNotFound, taskID)
	}
	if rec.Status != from {
		return fmt.Errorf("%w: %s on status code %d", domain.ErrCallReverted, call, rec.Status)
	}
	rec.Status = to
	m.records[taskID] = rec
	return nil
}

func (m *Mock) StartTask(_ context.Context, taskID int64) error {
	return m.transition(taskID, domain.CodeCreated, domain.CodeInProgress, domain.CallStartTask)
}

func (m *Mock) ReviewTask(_ context.Context, taskID int64) error {
	return m.transition(taskID, domain.CodeInProgress, domain.CodeInReview, domain.CallReviewTask)
}

func (m *Mock) CompleteTask(_ context.Context, taskID int64) error {
	return m.transition(taskID, domain.CodeInReview, domain.CodeCompleted, domain.CallCompleteTask)
}

func (m *Mock) CancelTask(_ context.Context, taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	rec, ok := m.records[taskID]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrTaskNotFound, taskID)
	}
	status, err := domain.DecodeStatus(rec.Status)
	if err != nil {
		return err
	}
	if status.IsTerminal() {
		return fmt.Errorf("%w: cancelTask on terminal status %q", domain.ErrCallReverted, status)
	}
	rec.Status = domain.CodeCanceled
	m.records[taskID] = rec
	return nil
}

func (m *Mock) HasMemberRole(_ context.Context, id domain.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	return m.members[id], nil
}

func (m *Mock) HasLeaderRole(_ context.Context, id domain.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	return m.leaders[id], nil
}

func (m *Mock) SetRole(_ context.Context, roleID domain.RoleID, authorized domain.Identity, isAuthorized bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	// The mock models only the two role tiers the client checks.
	switch roleID {
	case 1:
		m.leaders[authorized] = isAuthorized
	default:
		m.members[authorized] = isAuthorized
	}
	return nil
}

func (m *Mock) SetOperator(_ context.Context, _ domain.InterfaceID, _ domain.RoleID, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeFailure()
}

func (m *Mock) SetMinQuorum(_ context.Context, _ domain.QuorumAmount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeFailure()
}

func (m *Mock) Deposit(_ context.Context, _ domain.RoleID, _ domain.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeFailure()
}
