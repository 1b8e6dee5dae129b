package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codebrick-site/backend/internal/audit/domain"
)

const (
	insertAuditSQL = `INSERT INTO audit_logs (id, actor, action, resource, ip, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	listAuditSQL = `SELECT id, actor, action, resource, ip, metadata,
		strftime('%Y-%m-%dT%H:%M:%SZ', created_at)
		FROM audit_logs ORDER BY created_at DESC, rowid DESC LIMIT ?`

	sqliteTimestamp = "2006-01-02 15:04:05"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns an audit log repository that uses db for persistence.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create persists a. The audit log must have ID set; a zero CreatedAt means now.
func (r *SQLiteRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx, insertAuditSQL,
		a.ID, a.Actor, a.Action, a.Resource, a.IP, meta, created.UTC().Format(sqliteTimestamp))
	if err != nil {
		return fmt.Errorf("audit: create: %w", err)
	}
	return nil
}

// List returns up to limit audit logs, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, listAuditSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()
	out := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var (
			a       domain.AuditLog
			meta    sql.NullString
			created sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Actor, &a.Action, &a.Resource, &a.IP, &meta, &created); err != nil {
			return nil, fmt.Errorf("audit: list: %w", err)
		}
		a.Metadata = meta.String
		if created.Valid {
			if t, err := time.Parse(time.RFC3339, created.String); err == nil {
				a.CreatedAt = t
			}
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return out, nil
}
