// Package handler exposes the intake service over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/intake"
	"codebrick-site/backend/internal/platform/httpx"
)

// Client-facing messages. Storage detail is logged, never returned.
const (
	msgContactSaved    = "Contact saved successfully."
	msgContactRequired = "All fields are required."
	msgContactFailed   = "Database error."
	msgQuoteSaved      = "Quote request submitted successfully!"
	msgQuoteRequired   = "Please fill in all required fields."
	msgQuoteFailed     = "Failed to submit quote request"
)

// Submitter is the intake service as used by the handler.
type Submitter interface {
	SubmitContact(ctx context.Context, in intake.ContactInput) (int64, error)
	SubmitQuote(ctx context.Context, in intake.QuoteInput) (int64, error)
}

// Handler serves POST /contact and POST /quote.
type Handler struct {
	svc Submitter
	log logrus.FieldLogger
}

// New returns a Handler. log may be nil.
func New(svc Submitter, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{svc: svc, log: log}
}

// Register mounts the intake routes. /quotation is kept for forms built against the old path.
func (h *Handler) Register(r chi.Router) {
	r.Post("/contact", h.Contact)
	r.Post("/quote", h.Quote)
	r.Post("/quotation", h.Quote)
}

type contactResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type quoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Contact handles a contact form submission.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	fields, err := httpx.ReadFields(w, r)
	if err != nil {
		h.requestLog(r).WithError(err).Debug("intake: unreadable contact body")
		httpx.WriteError(w, http.StatusBadRequest, msgContactRequired)
		return
	}
	id, err := h.svc.SubmitContact(r.Context(), contactInput(fields))
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusCreated, contactResponse{Message: msgContactSaved, ID: id})
	case intake.IsValidation(err):
		httpx.WriteError(w, http.StatusBadRequest, msgContactRequired)
	default:
		h.requestLog(r).WithError(err).Error("intake: contact submission failed")
		httpx.WriteError(w, http.StatusInternalServerError, msgContactFailed)
	}
}

// Quote handles a quote form submission. The response does not wait for the notification.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	fields, err := httpx.ReadFields(w, r)
	if err != nil {
		h.requestLog(r).WithError(err).Debug("intake: unreadable quote body")
		httpx.WriteJSON(w, http.StatusBadRequest, quoteResponse{Message: msgQuoteRequired})
		return
	}
	_, err = h.svc.SubmitQuote(r.Context(), quoteInput(fields))
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, quoteResponse{Success: true, Message: msgQuoteSaved})
	case intake.IsValidation(err):
		httpx.WriteJSON(w, http.StatusBadRequest, quoteResponse{Message: msgQuoteRequired})
	default:
		h.requestLog(r).WithError(err).Error("intake: quote submission failed")
		httpx.WriteJSON(w, http.StatusInternalServerError, quoteResponse{Message: msgQuoteFailed})
	}
}

func (h *Handler) requestLog(r *http.Request) logrus.FieldLogger {
	return h.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
	})
}
