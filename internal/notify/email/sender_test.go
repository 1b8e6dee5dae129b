package email

import (
	"bufio"
	"context"
	"errors"
	"io"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"testing"
	"time"

	"codebrick-site/backend/internal/submission/domain"
)

func testConfig() Config {
	return Config{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "mailer",
		Password: "secret",
		From:     "site@example.com",
		To:       []string{"owner@example.com", "ops@example.com"},
		Subject:  "New Quote Request Received - Code Brick",
		SiteName: "Code Brick",
		Footer:   "Brick And (PTY) LTD Construction and Projects",
	}
}

func testQuote() *domain.QuoteRequest {
	return &domain.QuoteRequest{
		ID: 9, Name: "Sam", Email: "sam@x.com", Phone: "555", ProjectType: "Residential",
		Location: "Durban", Urgency: "High", Description: "Boundary wall",
		CreatedAt: time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC),
	}
}

// splitMessage returns the header block and the decoded body of msg.
func splitMessage(t *testing.T, msg []byte) (string, string) {
	t.Helper()
	header, body, ok := strings.Cut(string(msg), "\r\n\r\n")
	if !ok {
		t.Fatalf("message has no header/body separator: %q", msg)
	}
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(body)))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return header + "\r\n", string(decoded)
}

func localConfig(t *testing.T, ln net.Listener) Config {
	t.Helper()
	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port)
	cfg.Username = ""
	return cfg
}

func TestNewSender_RequiresSettings(t *testing.T) {
	cases := map[string]func(*Config){
		"host": func(c *Config) { c.Host = " " },
		"from": func(c *Config) { c.From = "" },
		"to":   func(c *Config) { c.To = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if _, err := NewSender(cfg); err == nil {
				t.Error("NewSender should fail")
			}
		})
	}
}

func TestSender_Notify_SendsToRecipients(t *testing.T) {
	s, err := NewSender(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	s.send = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	if err := s.Notify(context.Background(), testQuote()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotAuth == nil {
		t.Error("auth should be set when a username is configured")
	}
	if gotFrom != "site@example.com" || len(gotTo) != 2 {
		t.Errorf("from/to = %q/%v", gotFrom, gotTo)
	}
	header, body := splitMessage(t, gotMsg)
	for _, want := range []string{
		"Subject: New Quote Request Received - Code Brick\r\n",
		"Reply-To: sam@x.com\r\n",
		"Content-Transfer-Encoding: quoted-printable\r\n",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q", want)
		}
	}
	for _, want := range []string{
		"<strong>Project Type:</strong> Residential",
		"<strong>Urgency:</strong> High",
		"<strong>Site Condition:</strong> -",
		"Boundary wall",
		"Submitted on: 4 May 2025 09:30 UTC",
		"&copy; 2025 Brick And (PTY) LTD",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestSender_Message_EscapesValues(t *testing.T) {
	s, _ := NewSender(testConfig())
	q := testQuote()
	q.Name = `<script>alert("x")</script>`
	q.Email = "sam@x.com\r\nBcc: victim@example.com"
	msg, err := s.Message(q)
	if err != nil {
		t.Fatal(err)
	}
	header, body := splitMessage(t, msg)
	if strings.Contains(body, "<script>") {
		t.Error("name should be HTML-escaped")
	}
	if strings.Contains(header, "\r\nBcc:") {
		t.Error("reply-to must not inject headers")
	}
	if !strings.Contains(header, "Reply-To: sam@x.comBcc: victim@example.com\r\n") {
		t.Errorf("reply-to not collapsed to one line:\n%s", header)
	}
}

func TestSender_Message_LongLinesAreWrapped(t *testing.T) {
	s, _ := NewSender(testConfig())
	q := testQuote()
	q.Description = strings.Repeat("brick ", 400)
	msg, err := s.Message(q)
	if err != nil {
		t.Fatal(err)
	}
	for i, line := range strings.Split(string(msg), "\r\n") {
		if len(line) > 998 {
			t.Fatalf("line %d is %d octets", i, len(line))
		}
	}
	_, body := splitMessage(t, msg)
	if !strings.Contains(body, strings.TrimSpace(q.Description)) {
		t.Error("decoded body should carry the full description")
	}
}

func TestSender_Notify_Errors(t *testing.T) {
	s, _ := NewSender(testConfig())
	boom := errors.New("connection refused")
	s.send = func(context.Context, string, smtp.Auth, string, []string, []byte) error { return boom }
	if err := s.Notify(context.Background(), testQuote()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestSender_NoAuthWithoutUsername(t *testing.T) {
	cfg := testConfig()
	cfg.Username = ""
	s, _ := NewSender(cfg)
	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	s.send = func(_ context.Context, _ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	}
	if err := s.Notify(context.Background(), testQuote()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != nil {
		t.Error("auth should be nil without a username")
	}
}

// silentServer accepts connections and never greets. Each accepted connection is reported
// on closed once the client hangs up.
func silentServer(t *testing.T) (net.Listener, <-chan struct{}) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	closed := make(chan struct{}, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(io.Discard, conn)
				closed <- struct{}{}
			}()
		}
	}()
	return ln, closed
}

func TestSender_Notify_HungServerReleasesConnection(t *testing.T) {
	ln, closed := silentServer(t)
	s, _ := NewSender(localConfig(t, ln))

	const calls = 3
	for i := 0; i < calls; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		start := time.Now()
		err := s.Notify(ctx, testQuote())
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: err = %v, want deadline exceeded", i, err)
		}
		if time.Since(start) > time.Second {
			t.Errorf("call %d took %v", i, time.Since(start))
		}
	}
	for i := 0; i < calls; i++ {
		select {
		case <-closed:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d connections were closed", i, calls)
		}
	}
}

func TestSender_Notify_CancelWithoutDeadline(t *testing.T) {
	ln, closed := silentServer(t)
	s, _ := NewSender(localConfig(t, ln))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	done := make(chan error, 1)
	go func() { done <- s.Notify(ctx, testQuote()) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Notify did not return after cancel")
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("connection still open after cancel")
	}
}

// smtpTranscript is what a minimal SMTP server saw during one session.
type smtpTranscript struct {
	commands []string
	data     string
}

func fakeSMTPServer(t *testing.T) (net.Listener, <-chan smtpTranscript) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	out := make(chan smtpTranscript, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = io.WriteString(conn, s+"\r\n") }
		var tr smtpTranscript
		reply("220 fake ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				out <- tr
				return
			}
			cmd := strings.TrimRight(line, "\r\n")
			tr.commands = append(tr.commands, cmd)
			switch verb := strings.ToUpper(strings.SplitN(cmd, " ", 2)[0]); verb {
			case "EHLO", "HELO", "MAIL", "RCPT":
				reply("250 ok")
			case "DATA":
				reply("354 go ahead")
				var b strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil || l == ".\r\n" {
						break
					}
					b.WriteString(l)
				}
				tr.data = b.String()
				reply("250 queued")
			case "QUIT":
				reply("221 bye")
				out <- tr
				return
			default:
				reply("502 unsupported")
			}
		}
	}()
	return ln, out
}

func TestSender_Notify_SMTPConversation(t *testing.T) {
	ln, transcripts := fakeSMTPServer(t)
	s, _ := NewSender(localConfig(t, ln))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Notify(ctx, testQuote()); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	var tr smtpTranscript
	select {
	case tr = <-transcripts:
	case <-time.After(2 * time.Second):
		t.Fatal("server saw no session")
	}
	want := []string{
		"MAIL FROM:<site@example.com>",
		"RCPT TO:<owner@example.com>",
		"RCPT TO:<ops@example.com>",
		"DATA",
		"QUIT",
	}
	joined := strings.Join(tr.commands, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Errorf("commands missing %q:\n%s", w, joined)
		}
	}
	if !strings.Contains(tr.data, "Subject: New Quote Request Received - Code Brick\r\n") {
		t.Errorf("data missing subject:\n%s", tr.data)
	}
}
