package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/taskmirror/taskmirror/internal/domain"
)

// ─── Task Snapshots ─────────────────────────────────────────────────────────

// UpsertSnapshot stores the latest view for a task, replacing any prior
// snapshot wholesale (no partial patching).
func (d *DB) UpsertSnapshot(view domain.TaskView, fetchedAt time.Time) error {
	_, err := d.db.Exec(
		`INSERT INTO task_snapshots
			(task_id, status, title, description, reward, end_date,
			 authorized_roles, creator_role, assignee, assignee_display, metadata, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
			status = excluded.status,
			title = excluded.title,
			description = excluded.description,
			reward = excluded.reward,
			end_date = excluded.end_date,
			authorized_roles = excluded.authorized_roles,
			creator_role = excluded.creator_role,
			assignee = excluded.assignee,
			assignee_display = excluded.assignee_display,
			metadata = excluded.metadata,
			fetched_at = excluded.fetched_at`,
		view.TaskID, string(view.Status), view.Title, view.Description,
		view.Reward, view.EndDate, strings.Join(view.AuthorizedRoles, ","),
		view.CreatorRole, string(view.Assignee), view.AssigneeDisplay,
		view.Metadata, fetchedAt.Unix(),
	)
	return err
}

// Snapshot returns the stored view for a task id.
func (d *DB) Snapshot(taskID int64) (domain.TaskView, bool, error) {
	row := d.db.QueryRow(
		`SELECT task_id, status, title, description, reward, end_date,
			authorized_roles, creator_role, assignee, assignee_display, metadata
		 FROM task_snapshots WHERE task_id = ?`, taskID)

	view, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return domain.TaskView{}, false, nil
	}
	if err != nil {
		return domain.TaskView{}, false, err
	}
	return view, true, nil
}

// Snapshots returns all stored views in task-id order.
func (d *DB) Snapshots() ([]domain.TaskView, error) {
	rows, err := d.db.Query(
		`SELECT task_id, status, title, description, reward, end_date,
			authorized_roles, creator_role, assignee, assignee_display, metadata
		 FROM task_snapshots ORDER BY task_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []domain.TaskView
	for rows.Next() {
		view, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

// DeleteSnapshot removes a stored view.
func (d *DB) DeleteSnapshot(taskID int64) error {
	_, err := d.db.Exec(`DELETE FROM task_snapshots WHERE task_id = ?`, taskID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (domain.TaskView, error) {
	var view domain.TaskView
	var status, roles, assignee string
	err := row.Scan(&view.TaskID, &status, &view.Title, &view.Description,
		&view.Reward, &view.EndDate, &roles, &view.CreatorRole,
		&assignee, &view.AssigneeDisplay, &view.Metadata)
	if err != nil {
		return domain.TaskView{}, err
	}
	view.Status = domain.TaskStatus(status)
	view.Assignee = domain.Identity(assignee)
	if roles != "" {
		view.AuthorizedRoles = strings.Split(roles, ",")
	}
	return view, nil
}
