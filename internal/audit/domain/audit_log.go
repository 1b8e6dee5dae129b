package domain

import "time"

// AuditLog represents an admin audit event.
type AuditLog struct {
	ID        string
	Actor     string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
