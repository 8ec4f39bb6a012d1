// Package ledger provides access to the remote task registry.
// The registry is authoritative: the client never mutates task state
// locally, it submits transitions and re-reads.
package ledger

import (
	"context"

	"github.com/taskmirror/taskmirror/internal/domain"
)

// Gateway is the capability surface of the remote task registry.
// All calls may fail with a transport error (ErrLedgerUnreachable) or a
// contract rejection (ErrCallReverted); role checks answer false only as
// an explicit negative, never as an error fallback.
type Gateway interface {
	// Reads
	GetTask(ctx context.Context, taskID int64) (domain.TaskRecord, error)
	// GetMultiTasks fetches [start, end] in ONE batched call.
	// scopeToCaller restricts the range to tasks involving the caller.
	GetMultiTasks(ctx context.Context, start, end int64, scopeToCaller bool) ([]domain.TaskRecord, error)

	// Lifecycle transitions
	StartTask(ctx context.Context, taskID int64) error
	ReviewTask(ctx context.Context, taskID int64) error
	CompleteTask(ctx context.Context, taskID int64) error
	CancelTask(ctx context.Context, taskID int64) error

	// Role predicates
	HasMemberRole(ctx context.Context, id domain.Identity) (bool, error)
	HasLeaderRole(ctx context.Context, id domain.Identity) (bool, error)

	// Administration
	SetRole(ctx context.Context, roleID domain.RoleID, authorized domain.Identity, isAuthorized bool) error
	SetOperator(ctx context.Context, interfaceID domain.InterfaceID, roleID domain.RoleID, isAuthorized bool) error
	SetMinQuorum(ctx context.Context, quorum domain.QuorumAmount) error
	Deposit(ctx context.Context, roleID domain.RoleID, amount domain.Amount) error
}
