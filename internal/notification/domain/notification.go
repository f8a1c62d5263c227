package domain

import "time"

// Notification status constants
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusSucceeded  = "SUCCEEDED"
	StatusFailed     = "FAILED"
)

// Notification represents a tracked notification record
type Notification struct {
	ID        string    `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Error     string    `json:"error,omitempty" db:"error"`
}

// IsTerminal reports whether the notification reached a terminal status
func (n *Notification) IsTerminal() bool {
	return n.Status == StatusSucceeded || n.Status == StatusFailed
}

// WorkItem is the message body placed on the work queue. It carries the
// minimal data the consumer needs to process without re-reading the store.
type WorkItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// StatusEvent is the message body published to the status queue after a
// terminal transition.
type StatusEvent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
