// Package domain holds the pure task-ledger types.
// A task lives on the authoritative remote registry and flows through:
// created → in progress → in review → completed, with cancellation
// available to leaders from any non-terminal status.
package domain

import "fmt"

// StatusCode is the numeric status stored on the ledger.
type StatusCode uint8

// Ledger enum order. The registry contract declares Canceled second,
// so codes are NOT in lifecycle order.
const (
	CodeCreated StatusCode = iota
	CodeCanceled
	CodeInReview
	CodeInProgress
	CodeCompleted
)

// TaskStatus is the decoded, display-ready task status.
type TaskStatus string

const (
	StatusCreated    TaskStatus = "Created"
	StatusCanceled   TaskStatus = "Canceled"
	StatusInReview   TaskStatus = "In Review"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// DecodeStatus maps a ledger status code to its TaskStatus.
// Total over the valid codes; anything else is an ErrUnknownStatus —
// never coerced to a default.
func DecodeStatus(code StatusCode) (TaskStatus, error) {
	switch code {
	case CodeCreated:
		return StatusCreated, nil
	case CodeCanceled:
		return StatusCanceled, nil
	case CodeInReview:
		return StatusInReview, nil
	case CodeInProgress:
		return StatusInProgress, nil
	case CodeCompleted:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: code %d", ErrUnknownStatus, code)
	}
}

// IsTerminal returns true if no further transition is possible.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// TransitionCall names the ledger mutation that advances a task.
type TransitionCall string

const (
	CallStartTask    TransitionCall = "startTask"
	CallReviewTask   TransitionCall = "reviewTask"
	CallCompleteTask TransitionCall = "completeTask"
	CallCancelTask   TransitionCall = "cancelTask"
)

// Action pairs the button label shown to the user with the ledger call
// it triggers.
type Action struct {
	Label string
	Call  TransitionCall
}

// NextAction returns the legal next action for a status.
// ok is false for terminal statuses — a terminal task offers no action,
// never a label carried over from a prior status.
func (s TaskStatus) NextAction() (Action, bool) {
	switch s {
	case StatusCreated:
		return Action{Label: "Start Task", Call: CallStartTask}, true
	case StatusInProgress:
		return Action{Label: "Review Task", Call: CallReviewTask}, true
	case StatusInReview:
		return Action{Label: "Complete Task", Call: CallCompleteTask}, true
	default:
		return Action{}, false
	}
}

// TaskRecord is the raw, immutable snapshot of a task as returned by the
// ledger. The client never mutates one; change is observed by re-fetching.
type TaskRecord struct {
	Status          StatusCode `json:"status"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Reward          string     `json:"reward"`  // decimal text, never a float
	EndDate         int64      `json:"endDate"` // epoch SECONDS
	AuthorizedRoles []uint64   `json:"authorizedRoles"`
	CreatorRole     uint64     `json:"creatorRole"`
	Assignee        string     `json:"assignee"`
	Metadata        string     `json:"metadata"`
}

// IsPlaceholder reports whether the record occupies an empty ledger slot.
// Creator role 0 means "no creator assigned"; such slots are never
// surfaced to consumers.
//
// The registry does not document role 0 as reserved, so a legitimate
// task created under role 0 would be filtered too. Kept as-is to match
// the ledger's observed storage convention.
func (r TaskRecord) IsPlaceholder() bool {
	return r.CreatorRole == 0
}
