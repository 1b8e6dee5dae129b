package domain

import (
	"strings"
	"time"
)

// ContactMessage is a message left through the site's contact form.
type ContactMessage struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// MissingFields returns the names of required fields that are empty or whitespace.
func (c *ContactMessage) MissingFields() []string {
	return missing(
		field{"name", c.Name},
		field{"email", c.Email},
		field{"message", c.Message},
	)
}

// QuoteRequest is a construction quote request. The optional fields were added to the
// form after launch; empty means not provided and is stored as NULL.
type QuoteRequest struct {
	ID          int64
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

	CreatedAt time.Time
}

// MissingFields returns the names of required fields that are empty or whitespace.
func (q *QuoteRequest) MissingFields() []string {
	return missing(
		field{"name", q.Name},
		field{"email", q.Email},
		field{"phone", q.Phone},
		field{"projectType", q.ProjectType},
		field{"location", q.Location},
	)
}

type field struct {
	name  string
	value string
}

func missing(fields ...field) []string {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			out = append(out, f.name)
		}
	}
	return out
}
