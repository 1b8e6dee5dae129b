// Package intake implements the contact and quote submission pipeline:
// validate, persist, then (for quotes) hand off a notification without waiting for it.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/submission/domain"
	"codebrick-site/backend/internal/telemetry"
)

// Store is the minimal record store needed by the service.
type Store interface {
	InsertContact(ctx context.Context, c *domain.ContactMessage) (int64, error)
	InsertQuote(ctx context.Context, q *domain.QuoteRequest) (int64, error)
}

// Dispatcher hands a quote to the notifier without blocking.
type Dispatcher interface {
	Dispatch(q *domain.QuoteRequest)
}

// ContactInput is a contact form submission as received.
type ContactInput struct {
	Name    string
	Email   string
	Message string
}

// QuoteInput is a quote form submission as received. Empty optional fields mean not provided.
type QuoteInput struct {
	Name        string
	Email       string
	Phone       string
	ProjectType string
	Location    string
	SiteStatus  string
	ProjectSize string
	Urgency     string
	HireStatus  string
	Timeline    string
	Description string
}

// Service validates and stores submissions.
type Service struct {
	store      Store
	dispatcher Dispatcher
	emitter    telemetry.EventEmitter
	metrics    *telemetry.Metrics
	log        logrus.FieldLogger
	now        func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithEventEmitter sets the telemetry emitter for submission events.
func WithEventEmitter(e telemetry.EventEmitter) Option { return func(s *Service) { s.emitter = e } }

// WithMetrics sets the submission counters.
func WithMetrics(m *telemetry.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithLogger sets the logger (default: logrus standard logger).
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

// NewService returns a Service. dispatcher may be nil, in which case quotes are stored
// without notification.
func NewService(store Store, dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{store: store, dispatcher: dispatcher, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// SubmitContact validates in and stores it, returning the new id. It returns a
// *ValidationError when a field is missing and an error wrapping ErrStore on storage failure.
func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (int64, error) {
	c := &domain.ContactMessage{Name: in.Name, Email: in.Email, Message: in.Message}
	if missing := c.MissingFields(); len(missing) > 0 {
		s.metrics.Submission(ctx, "contact", "invalid")
		return 0, &ValidationError{Fields: missing}
	}
	id, err := s.store.InsertContact(ctx, c)
	if err != nil {
		s.metrics.Submission(ctx, "contact", "error")
		return 0, fmt.Errorf("%w: %w", ErrStore, err)
	}
	s.metrics.Submission(ctx, "contact", "ok")
	s.log.WithField("contact_id", id).Info("intake: contact saved")
	s.emit("contact", id, nil)
	return id, nil
}

// SubmitQuote validates in and stores it, then dispatches a notification for the stored
// record. The notification outcome never affects the result.
func (s *Service) SubmitQuote(ctx context.Context, in QuoteInput) (int64, error) {
	q := &domain.QuoteRequest{
		Name: in.Name, Email: in.Email, Phone: in.Phone,
		ProjectType: in.ProjectType, Location: in.Location,
		SiteStatus: in.SiteStatus, ProjectSize: in.ProjectSize, Urgency: in.Urgency,
		HireStatus: in.HireStatus, Timeline: in.Timeline, Description: in.Description,
	}
	if missing := q.MissingFields(); len(missing) > 0 {
		s.metrics.Submission(ctx, "quote", "invalid")
		return 0, &ValidationError{Fields: missing}
	}
	id, err := s.store.InsertQuote(ctx, q)
	if err != nil {
		s.metrics.Submission(ctx, "quote", "error")
		return 0, fmt.Errorf("%w: %w", ErrStore, err)
	}
	q.ID = id
	q.CreatedAt = s.now().UTC()
	s.metrics.Submission(ctx, "quote", "ok")
	s.log.WithFields(logrus.Fields{"quote_id": id, "project_type": q.ProjectType}).Info("intake: quote saved")

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(q)
	}
	meta, _ := json.Marshal(map[string]string{"project_type": q.ProjectType})
	s.emit("quote", id, meta)
	return id, nil
}

func (s *Service) emit(kind string, id int64, meta []byte) {
	telemetry.EmitAsync(s.emitter, s.log, &telemetry.Event{
		Type:       "submission_created",
		Source:     "intake",
		RecordKind: kind,
		RecordID:   id,
		Metadata:   meta,
		CreatedAt:  s.now().UTC(),
	})
}
