package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the site's counters. A nil *Metrics records nothing.
type Metrics struct {
	submissions    metric.Int64Counter
	notifyFailures metric.Int64Counter
}

// NewMetrics registers the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	submissions, err := meter.Int64Counter("codebrick.submissions",
		metric.WithDescription("Form submissions by kind and outcome"))
	if err != nil {
		return nil, err
	}
	notifyFailures, err := meter.Int64Counter("codebrick.notify.failures",
		metric.WithDescription("Quote notifications that could not be delivered"))
	if err != nil {
		return nil, err
	}
	return &Metrics{submissions: submissions, notifyFailures: notifyFailures}, nil
}

// Submission counts one submission attempt. outcome is "ok", "invalid" or "error".
func (m *Metrics) Submission(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// NotifyFailure counts one failed notification.
func (m *Metrics) NotifyFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.notifyFailures.Add(ctx, 1)
}
