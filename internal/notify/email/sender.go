// Package email sends quote notifications over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"codebrick-site/backend/internal/submission/domain"
)

// Config is the SMTP transport and message settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Subject  string
	SiteName string
	Footer   string
}

// sendFunc delivers msg to the SMTP server at addr. It must return once ctx is done.
type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender implements notify.Notifier by emailing the quote to the configured recipients.
type Sender struct {
	cfg  Config
	send sendFunc
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
	now  func() time.Time
}

// NewSender validates cfg and returns a Sender.
func NewSender(cfg Config) (*Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("email: SMTP_HOST is required")
	}
	if cfg.From == "" {
		return nil, errors.New("email: NOTIFY_FROM is required")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("email: NOTIFY_TO is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	s := &Sender{cfg: cfg, dial: (&net.Dialer{}).DialContext, now: time.Now}
	s.send = s.sendSMTP
	return s, nil
}

// Notify renders q and sends it. The SMTP exchange is bound to ctx: when ctx ends the
// connection is closed and the returned error wraps ctx.Err().
func (s *Sender) Notify(ctx context.Context, q *domain.QuoteRequest) error {
	if q == nil {
		return nil
	}
	msg, err := s.Message(q)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	if err := s.send(ctx, addr, auth, s.cfg.From, s.cfg.To, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else if errors.Is(err, os.ErrDeadlineExceeded) {
			// The connection deadline can fire just before ctx reports it.
			err = context.DeadlineExceeded
		}
		return fmt.Errorf("email: send quote %d: %w", q.ID, err)
	}
	return nil
}

// sendSMTP is smtp.SendMail on a connection that honours ctx.
func (s *Sender) sendSMTP(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	// Cancellation without a deadline still has to unblock a pending read.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// Message builds the full RFC 5322 message for q.
func (s *Sender) Message(q *domain.QuoteRequest) ([]byte, error) {
	submitted := q.CreatedAt
	if submitted.IsZero() {
		submitted = s.now()
	}
	view := quoteView{
		SiteName: s.cfg.SiteName,
		Fields: []field{
			{"Name", q.Name},
			{"Email", sanitizeHeader(q.Email)},
			{"Phone", q.Phone},
			{"Project Type", q.ProjectType},
			{"Location", q.Location},
			{"Site Condition", orDash(q.SiteStatus)},
			{"Estimated Size", orDash(q.ProjectSize)},
			{"Urgency", orDash(q.Urgency)},
			{"Hiring Status", orDash(q.HireStatus)},
			{"Estimated Timeline", orDash(q.Timeline)},
		},
		Description: orDash(q.Description),
		SubmittedOn: submitted.Format("2 Jan 2006 15:04 MST"),
		Year:        submitted.Year(),
		Footer:      s.cfg.Footer,
	}
	var body bytes.Buffer
	if err := quoteTmpl.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("email: render: %w", err)
	}

	var msg bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&msg, "%s: %s\r\n", k, v) }
	header("From", s.cfg.From)
	header("To", strings.Join(s.cfg.To, ", "))
	header("Reply-To", sanitizeHeader(q.Email))
	header("Subject", mime.QEncoding.Encode("utf-8", s.cfg.Subject))
	header("Date", s.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	msg.WriteString("\r\n")

	// Quoted-printable keeps every line under the SMTP length limit.
	qp := quotedprintable.NewWriter(&msg)
	if _, err := qp.Write(body.Bytes()); err != nil {
		return nil, fmt.Errorf("email: encode: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("email: encode: %w", err)
	}
	return msg.Bytes(), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// sanitizeHeader drops CR and LF so submitted values cannot add headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
