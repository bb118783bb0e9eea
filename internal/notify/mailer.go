// Package notify emails new code comments to a configured list of recipients.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/evcraddock/code-comments/internal/comment"
)

// Config holds SMTP settings for notification mail.
type Config struct {
	BaseURL    string // public origin, e.g. "https://review.example.com"
	SiteName   string
	DevMode    bool
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	Recipients []string
}

// Mailer sends an email for every new comment. It implements
// comment.Listener.
type Mailer struct {
	config Config
	links  comment.Linker
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a mailer. links builds the permalink included in each
// message. Port 465 uses implicit TLS; other ports use STARTTLS when the
// server offers it. Dialing and the SMTP session are both time limited.
func NewMailer(config Config, links comment.Linker) *Mailer {
	send := sendSTARTTLS
	if config.SMTPPort == "465" {
		send = sendImplicitTLS
	}
	return &Mailer{config: config, links: links, send: send}
}

// CommentCreated sends the notification, or logs it in dev mode. Delivery
// failures are logged and never fail the comment creation.
func (m *Mailer) CommentCreated(_ context.Context, c *comment.Comment) {
	if len(m.config.Recipients) == 0 {
		return
	}

	subject, body := m.message(c)

	if m.config.DevMode {
		slog.Info("comment notification",
			"to", strings.Join(m.config.Recipients, ","),
			"subject", subject,
			"body", body,
		)
		return
	}

	msg := buildEmail(m.config.SMTPFrom, m.config.Recipients, subject, body)
	addr := fmt.Sprintf("%s:%s", m.config.SMTPHost, m.config.SMTPPort)
	var auth smtp.Auth
	if m.config.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.config.SMTPUser, m.config.SMTPPass, m.config.SMTPHost)
	}

	if err := m.send(addr, auth, m.config.SMTPFrom, m.config.Recipients, msg); err != nil {
		slog.Error("sending comment notification", "id", c.ID, "error", err)
	}
}

func (m *Mailer) message(c *comment.Comment) (string, string) {
	site := m.config.SiteName
	if site == "" {
		site = "Code Comments"
	}
	subject := fmt.Sprintf("%s: new comment by %s on %s", site, c.Author, c.PathRevisionLine())

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s commented on %s:\n\n", c.Author, c.TracLink())
	sb.WriteString(c.Text)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "%s%s\n", strings.TrimRight(m.config.BaseURL, "/"), c.Permalink(m.links))

	return subject, sb.String()
}

func buildEmail(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
