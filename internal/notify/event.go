package notify

import (
	"time"

	"codebrick-site/backend/internal/submission/domain"
)

// QuoteEvent is the queued form of a quote request.
type QuoteEvent struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ProjectType string    `json:"project_type"`
	Location    string    `json:"location"`
	SiteStatus  string    `json:"site_status,omitempty"`
	ProjectSize string    `json:"project_size,omitempty"`
	Urgency     string    `json:"urgency,omitempty"`
	HireStatus  string    `json:"hire_status,omitempty"`
	Timeline    string    `json:"timeline,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func eventFromQuote(q *domain.QuoteRequest) QuoteEvent {
	return QuoteEvent{
		ID: q.ID, Name: q.Name, Email: q.Email, Phone: q.Phone,
		ProjectType: q.ProjectType, Location: q.Location,
		SiteStatus: q.SiteStatus, ProjectSize: q.ProjectSize, Urgency: q.Urgency,
		HireStatus: q.HireStatus, Timeline: q.Timeline, Description: q.Description,
		CreatedAt: q.CreatedAt,
	}
}

// Quote converts the event back to a domain record.
func (e QuoteEvent) Quote() *domain.QuoteRequest {
	return &domain.QuoteRequest{
		ID: e.ID, Name: e.Name, Email: e.Email, Phone: e.Phone,
		ProjectType: e.ProjectType, Location: e.Location,
		SiteStatus: e.SiteStatus, ProjectSize: e.ProjectSize, Urgency: e.Urgency,
		HireStatus: e.HireStatus, Timeline: e.Timeline, Description: e.Description,
		CreatedAt: e.CreatedAt,
	}
}
