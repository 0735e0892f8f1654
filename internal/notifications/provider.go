// Package notifications dispatches templated ticket e-mail to the audiences
// of an update: submitter, CC subscribers, assignee, and queue-level CCs.
// Delivery is best-effort; a failed send never fails the ticket operation.
package notifications

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/gomail.v2"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
)

var (
	sentCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_notifications_sent_total",
		Help: "Notifications successfully handed to the mail provider",
	}, []string{"template"})
	failedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_notifications_failed_total",
		Help: "Notification sends that returned an error",
	}, []string{"template"})
	skippedAttachments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpdesk_notifications_attachments_skipped_total",
		Help: "Attachments dropped from outbound mail for exceeding the size cap",
	})
)

// File is an in-memory attachment for an outbound message.
type File struct {
	Filename string
	MimeType string
	Content  []byte
}

// EmailMessage is one fully rendered outbound message.
type EmailMessage struct {
	From      string
	To        []string
	Subject   string
	PlainBody string
	HTMLBody  string
	Files     []File
}

// EmailProvider delivers rendered messages.
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPProvider delivers mail through the configured SMTP relay.
type SMTPProvider struct {
	cfg    *config.EmailConfig
	dialer *gomail.Dialer
}

// NewSMTPProvider creates a provider from the e-mail configuration.
func NewSMTPProvider(cfg *config.EmailConfig) EmailProvider {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPProvider{cfg: cfg, dialer: dialer}
}

// Send builds a MIME message and hands it to the relay. A disabled provider
// drops the message without error so development setups work without SMTP.
func (s *SMTPProvider) Send(_ context.Context, msg EmailMessage) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	for _, file := range msg.Files {
		content := file.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if file.MimeType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {file.MimeType},
			}))
		}
		m.Attach(file.Filename, settings...)
	}

	return s.dialer.DialAndSend(m)
}
