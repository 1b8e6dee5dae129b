package repository

import (
	"context"

	"codebrick-site/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]*domain.AuditLog, error)
}
