package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/submission/domain"
	"codebrick-site/backend/internal/telemetry"
)

// DefaultTimeout bounds a single notification when none is configured.
const DefaultTimeout = 30 * time.Second

// Dispatcher runs a Notifier off the request path.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      logrus.FieldLogger
	metrics  *telemetry.Metrics
	inflight sync.WaitGroup
}

// NewDispatcher returns a Dispatcher for n. timeout <= 0 uses DefaultTimeout; log and
// metrics may be nil.
func NewDispatcher(n Notifier, timeout time.Duration, log logrus.FieldLogger, metrics *telemetry.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{notifier: n, timeout: timeout, log: log, metrics: metrics}
}

// Dispatch starts delivery of q and returns immediately. The goroutine uses
// context.Background() so the finished request does not cancel it. Failures are logged
// and counted, never returned.
func (d *Dispatcher) Dispatch(q *domain.QuoteRequest) {
	if d == nil || d.notifier == nil || q == nil {
		return
	}
	snapshot := *q
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		entry := d.log.WithField("quote_id", snapshot.ID)
		if err := d.notifier.Notify(ctx, &snapshot); err != nil {
			entry.WithError(err).Error("notify: quote notification failed")
			d.metrics.NotifyFailure(ctx)
			return
		}
		entry.Info("notify: quote notification sent")
	}()
}

// Drain waits for in-flight notifications or for ctx to end. Used at shutdown only.
func (d *Dispatcher) Drain(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
