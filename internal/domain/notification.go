package domain

import "time"

// Severity classifies a notification for the presentation layer.
type Severity string

const (
	SeverityInfo    Severity = "info"    // action initiated
	SeverityWarning Severity = "warning" // cancellation initiated
	SeverityError   Severity = "error"   // any failure
)

// Notification is one entry in the client's notification feed. The feed
// is the observable signal for fire-and-forget submissions: "initiated"
// entries are optimistic and precede ledger confirmation.
type Notification struct {
	ID           string    `json:"id"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
	Acknowledged bool      `json:"acknowledged"`
}
