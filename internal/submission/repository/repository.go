package repository

import (
	"context"
	"fmt"

	"codebrick-site/backend/internal/submission/domain"
)

// Repository defines persistence for contact messages and quote requests.
// Lists are newest-first (descending id).
type Repository interface {
	InsertContact(ctx context.Context, c *domain.ContactMessage) (int64, error)
	InsertQuote(ctx context.Context, q *domain.QuoteRequest) (int64, error)
	ListContacts(ctx context.Context) ([]*domain.ContactMessage, error)
	ListQuotes(ctx context.Context) ([]*domain.QuoteRequest, error)
	CountContacts(ctx context.Context) (int64, error)
	CountQuotes(ctx context.Context) (int64, error)
}

// StoreError is returned for any storage-layer failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
