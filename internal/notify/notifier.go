// Package notify delivers best-effort notifications about new quote requests.
//
// The intake path only ever calls Dispatcher.Dispatch, which returns immediately. What
// happens next depends on the configured Notifier: email.Sender sends directly,
// KafkaPublisher queues the quote for cmd/worker, Noop drops it.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/submission/domain"
)

// Notifier delivers one quote notification. Errors are reported to the caller, which logs them.
type Notifier interface {
	Notify(ctx context.Context, q *domain.QuoteRequest) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, q *domain.QuoteRequest) error

func (f NotifierFunc) Notify(ctx context.Context, q *domain.QuoteRequest) error { return f(ctx, q) }

// Noop is used when no transport is configured.
type Noop struct {
	Log logrus.FieldLogger
}

// Notify logs that the quote was not sent.
func (n Noop) Notify(_ context.Context, q *domain.QuoteRequest) error {
	if n.Log != nil && q != nil {
		n.Log.WithField("quote_id", q.ID).Debug("notify: no transport configured; skipping")
	}
	return nil
}
