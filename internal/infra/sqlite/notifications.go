package sqlite

import (
	"time"

	"github.com/taskmirror/taskmirror/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification appends a notification to the feed.
func (d *DB) InsertNotification(n domain.Notification) error {
	_, err := d.db.Exec(
		`INSERT INTO notifications (id, severity, message, created_at, acknowledged)
		 VALUES (?, ?, ?, ?, ?)`,
		n.ID, string(n.Severity), n.Message, n.CreatedAt.Unix(), n.Acknowledged,
	)
	return err
}

// ListNotifications returns the most recent notifications, newest first.
func (d *DB) ListNotifications(limit int) ([]domain.Notification, error) {
	rows, err := d.db.Query(
		`SELECT id, severity, message, created_at, acknowledged
		 FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var severity string
		var ts int64
		if err := rows.Scan(&n.ID, &severity, &n.Message, &ts, &n.Acknowledged); err != nil {
			return nil, err
		}
		n.Severity = domain.Severity(severity)
		n.CreatedAt = time.Unix(ts, 0)
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// AcknowledgeNotification marks a notification as seen.
func (d *DB) AcknowledgeNotification(id string) error {
	_, err := d.db.Exec(`UPDATE notifications SET acknowledged = 1 WHERE id = ?`, id)
	return err
}
