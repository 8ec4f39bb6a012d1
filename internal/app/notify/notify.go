// Package notify is the client's notification feed. Three severities:
// info (action initiated), warning (cancellation initiated), error (any
// failure). Presentation of the feed is the consumer's concern.
package notify

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmirror/taskmirror/internal/domain"
	"github.com/taskmirror/taskmirror/internal/infra/metrics"
	"github.com/taskmirror/taskmirror/internal/infra/sqlite"
)

const ringSize = 100

// Center collects notifications in memory and, when a store is attached,
// persists them so the feed survives restarts.
type Center struct {
	mu     sync.Mutex
	db     *sqlite.DB // nil means memory-only
	recent []domain.Notification
}

// New creates a notification center. db may be nil.
func New(db *sqlite.DB) *Center {
	return &Center{db: db}
}

// Info appends an info notification ("X process initiated with success!").
func (c *Center) Info(message string) domain.Notification {
	return c.emit(domain.SeverityInfo, message)
}

// Warning appends a warning notification (cancellation initiated).
func (c *Center) Warning(message string) domain.Notification {
	return c.emit(domain.SeverityWarning, message)
}

// Error appends an error notification.
func (c *Center) Error(message string) domain.Notification {
	return c.emit(domain.SeverityError, message)
}

func (c *Center) emit(severity domain.Severity, message string) domain.Notification {
	n := domain.Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.recent = append(c.recent, n)
	if len(c.recent) > ringSize {
		c.recent = c.recent[len(c.recent)-ringSize:]
	}
	c.mu.Unlock()

	metrics.NotificationsEmitted.WithLabelValues(string(severity)).Inc()

	if c.db != nil {
		if err := c.db.InsertNotification(n); err != nil {
			// The in-memory feed already carries the signal; losing
			// persistence must not turn into a second failure path.
			log.Printf("[notify] persist failed: %v", err)
		}
	}
	return n
}

// Recent returns up to limit notifications, newest first.
func (c *Center) Recent(limit int) []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.recent)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Notification, 0, n)
	for i := len(c.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, c.recent[i])
	}
	return out
}

// Acknowledge marks a notification as seen.
func (c *Center) Acknowledge(id string) error {
	c.mu.Lock()
	for i := range c.recent {
		if c.recent[i].ID == id {
			c.recent[i].Acknowledged = true
		}
	}
	c.mu.Unlock()

	if c.db != nil {
		return c.db.AcknowledgeNotification(id)
	}
	return nil
}
