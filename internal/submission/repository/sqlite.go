package repository

import (
	"context"
	"database/sql"
	"time"

	"codebrick-site/backend/internal/submission/domain"
)

// created_at is read through strftime so the driver always hands back RFC 3339 text.
const (
	createdAtExpr = `strftime('%Y-%m-%dT%H:%M:%SZ', created_at)`

	insertContactSQL = `INSERT INTO contacts (name, email, message) VALUES (?, ?, ?)`
	insertQuoteSQL   = `INSERT INTO quotes (name, email, phone, project_type, location,
		site_status, project_size, urgency, hire_status, timeline, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	listContactsSQL = `SELECT id, name, email, message, ` + createdAtExpr + ` FROM contacts ORDER BY id DESC`
	listQuotesSQL   = `SELECT id, name, email, phone, project_type, location,
		site_status, project_size, urgency, hire_status, timeline, description, ` + createdAtExpr + `
		FROM quotes ORDER BY id DESC`
)

// SQLiteRepository stores contact messages and quote requests in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a submission repository backed by db. The schema must already
// be in place (see schema.Ensure).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// InsertContact stores c and returns the id assigned by the database.
func (r *SQLiteRepository) InsertContact(ctx context.Context, c *domain.ContactMessage) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertContactSQL, c.Name, c.Email, c.Message)
	if err != nil {
		return 0, storeErr("insert contact", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert contact", err)
	}
	return id, nil
}

// InsertQuote stores q and returns the id assigned by the database. Empty optional fields
// are stored as NULL.
func (r *SQLiteRepository) InsertQuote(ctx context.Context, q *domain.QuoteRequest) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertQuoteSQL,
		q.Name, q.Email, q.Phone, q.ProjectType, q.Location,
		nullable(q.SiteStatus), nullable(q.ProjectSize), nullable(q.Urgency),
		nullable(q.HireStatus), nullable(q.Timeline), nullable(q.Description),
	)
	if err != nil {
		return 0, storeErr("insert quote", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert quote", err)
	}
	return id, nil
}

// ListContacts returns every contact message, newest first.
func (r *SQLiteRepository) ListContacts(ctx context.Context) ([]*domain.ContactMessage, error) {
	rows, err := r.db.QueryContext(ctx, listContactsSQL)
	if err != nil {
		return nil, storeErr("list contacts", err)
	}
	defer rows.Close()

	var out []*domain.ContactMessage
	for rows.Next() {
		var c domain.ContactMessage
		var created sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &created); err != nil {
			return nil, storeErr("list contacts", err)
		}
		c.CreatedAt = parseCreatedAt(created)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list contacts", err)
	}
	return out, nil
}

// ListQuotes returns every quote request, newest first.
func (r *SQLiteRepository) ListQuotes(ctx context.Context) ([]*domain.QuoteRequest, error) {
	rows, err := r.db.QueryContext(ctx, listQuotesSQL)
	if err != nil {
		return nil, storeErr("list quotes", err)
	}
	defer rows.Close()

	var out []*domain.QuoteRequest
	for rows.Next() {
		var q domain.QuoteRequest
		var siteStatus, projectSize, urgency, hireStatus, timeline, description, created sql.NullString
		if err := rows.Scan(&q.ID, &q.Name, &q.Email, &q.Phone, &q.ProjectType, &q.Location,
			&siteStatus, &projectSize, &urgency, &hireStatus, &timeline, &description, &created); err != nil {
			return nil, storeErr("list quotes", err)
		}
		q.SiteStatus = siteStatus.String
		q.ProjectSize = projectSize.String
		q.Urgency = urgency.String
		q.HireStatus = hireStatus.String
		q.Timeline = timeline.String
		q.Description = description.String
		q.CreatedAt = parseCreatedAt(created)
		out = append(out, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list quotes", err)
	}
	return out, nil
}

// CountContacts returns the number of stored contact messages.
func (r *SQLiteRepository) CountContacts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, storeErr("count contacts", err)
	}
	return n, nil
}

// CountQuotes returns the number of stored quote requests.
func (r *SQLiteRepository) CountQuotes(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n); err != nil {
		return 0, storeErr("count quotes", err)
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// parseCreatedAt returns the zero time for NULL or unparseable values; legacy rows may
// carry either.
func parseCreatedAt(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
