package domain

import (
	"fmt"
	"strconv"
	"time"
)

// TaskView is the normalized, display-ready projection of a TaskRecord.
// Numeric ledger magnitudes are carried as decimal text so they never
// round-trip through floating point.
type TaskView struct {
	TaskID          int64      `json:"taskId"`
	Status          TaskStatus `json:"status"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Reward          string     `json:"reward"`
	EndDate         string     `json:"endDate"` // DD/MM/YYYY
	AuthorizedRoles []string   `json:"authorizedRoles"`
	CreatorRole     string     `json:"creatorRole"`
	Assignee        Identity   `json:"assignee"`        // canonical — used for transitions
	AssigneeDisplay string     `json:"assigneeDisplay"` // shortened, lossy, display only
	Metadata        string     `json:"metadata"`
}

// Normalize converts a raw ledger record into a TaskView. Pure, no I/O.
// The only failure mode is an unrecognized status code; everything else
// is a straight projection.
func Normalize(raw TaskRecord, taskID int64) (TaskView, error) {
	status, err := DecodeStatus(raw.Status)
	if err != nil {
		return TaskView{}, fmt.Errorf("task %d: %w", taskID, err)
	}

	roles := make([]string, len(raw.AuthorizedRoles))
	for i, r := range raw.AuthorizedRoles {
		roles[i] = strconv.FormatUint(r, 10)
	}

	return TaskView{
		TaskID:          taskID,
		Status:          status,
		Title:           raw.Title,
		Description:     raw.Description,
		Reward:          raw.Reward,
		EndDate:         FormatEndDate(raw.EndDate),
		AuthorizedRoles: roles,
		CreatorRole:     strconv.FormatUint(raw.CreatorRole, 10),
		Assignee:        Identity(raw.Assignee),
		Metadata:        raw.Metadata,
	}, nil
}

// FormatEndDate renders a ledger end date as DD/MM/YYYY in UTC.
// The ledger stores epoch SECONDS; the value is scaled by 1000 into
// milliseconds before date construction. The scale factor is load-bearing:
// dropping it shifts every deadline back to January 1970.
func FormatEndDate(epochSeconds int64) string {
	t := time.UnixMilli(epochSeconds * 1000).UTC()
	return fmt.Sprintf("%02d/%02d/%04d", t.Day(), int(t.Month()), t.Year())
}
