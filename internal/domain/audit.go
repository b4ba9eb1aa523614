package domain

import "time"

// AuditLog is an append-only trail entry. One entry exists for every
// status-changing operation (creation included) and for every project
// creation; entries are never mutated or deleted.
type AuditLog struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	PaymentID string    `json:"paymentId,omitempty"`
	User      string    `json:"user"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}
