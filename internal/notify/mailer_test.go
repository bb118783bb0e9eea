package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/code-comments/internal/chrome"
	"github.com/evcraddock/code-comments/internal/comment"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func testMailer(cfg Config) (*Mailer, *[]sentMail) {
	var sent []sentMail
	m := NewMailer(cfg, chrome.NewHref(chrome.HrefConfig{Base: "/tracker"}))
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return m, &sent
}

var lineComment = &comment.Comment{
	ID:       12,
	Text:     "This loop never exits.",
	Path:     "src/main.go",
	Revision: "abc123",
	Line:     40,
	Author:   "alice",
	Time:     time.Unix(1700000000, 0),
}

func TestCommentCreatedSends(t *testing.T) {
	m, sent := testMailer(Config{
		BaseURL:    "https://review.example.com/",
		SMTPHost:   "smtp.example.com",
		SMTPPort:   "587",
		SMTPFrom:   "noreply@example.com",
		Recipients: []string{"team@example.com", "lead@example.com"},
	})

	m.CommentCreated(context.Background(), lineComment)

	if len(*sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(*sent))
	}
	got := (*sent)[0]
	if got.addr != "smtp.example.com:587" {
		t.Errorf("addr = %q", got.addr)
	}
	if got.from != "noreply@example.com" {
		t.Errorf("from = %q", got.from)
	}
	if len(got.to) != 2 {
		t.Errorf("to = %v, want 2 recipients", got.to)
	}

	for _, want := range []string{
		"To: team@example.com, lead@example.com\r\n",
		"Subject: Code Comments: new comment by alice on src/main.go@abc123:40\r\n",
		"alice commented on source:src/main.go@abc123#L40:",
		"This loop never exits.",
		"https://review.example.com/tracker/browser/src/main.go?codecomment=12&rev=abc123",
	} {
		if !strings.Contains(got.msg, want) {
			t.Errorf("message missing %q:\n%s", want, got.msg)
		}
	}
}

func TestCommentCreatedDevModeDoesNotSend(t *testing.T) {
	m, sent := testMailer(Config{DevMode: true, Recipients: []string{"team@example.com"}})

	m.CommentCreated(context.Background(), lineComment)

	if len(*sent) != 0 {
		t.Errorf("sent %d messages in dev mode, want 0", len(*sent))
	}
}

func TestCommentCreatedNoRecipients(t *testing.T) {
	m, sent := testMailer(Config{SMTPHost: "smtp.example.com"})

	m.CommentCreated(context.Background(), lineComment)

	if len(*sent) != 0 {
		t.Errorf("sent %d messages without recipients, want 0", len(*sent))
	}
}

func TestCommentCreatedSendFailure(t *testing.T) {
	m, _ := testMailer(Config{Recipients: []string{"team@example.com"}})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	// Must not panic; failures are only logged.
	m.CommentCreated(context.Background(), lineComment)
}
