package notifications

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// Every outbound subject is prefixed with the ticket reference so replies
// thread correctly in recipients' mailboxes.
const subjectPrefix = "{{ ticket.ticket }} {{ ticket.title }} "

// TemplatedSender renders stored notification templates and hands the result
// to an EmailProvider.
type TemplatedSender struct {
	templates          repository.IEmailTemplateRepository
	renderer           *template.Renderer
	provider           EmailProvider
	maxAttachmentBytes int64
}

// NewTemplatedSender creates a sender over the given template store and
// provider. maxAttachmentBytes caps individual outbound attachments.
func NewTemplatedSender(templates repository.IEmailTemplateRepository, renderer *template.Renderer, provider EmailProvider, maxAttachmentBytes int64) *TemplatedSender {
	return &TemplatedSender{
		templates:          templates,
		renderer:           renderer,
		provider:           provider,
		maxAttachmentBytes: maxAttachmentBytes,
	}
}

// Send looks up the named template (with locale fallback), renders subject
// and bodies against the context, and dispatches one message. A missing
// template is logged and skipped, never an error. With failSilently set,
// render and delivery errors are logged and swallowed.
func (s *TemplatedSender) Send(ctx context.Context, templateName, locale string, recipients []string, tctx pongo2.Context, sender string, failSilently bool, files []File) error {
	if len(recipients) == 0 {
		return nil
	}

	tmpl, err := s.templates.Get(templateName, locale)
	if err != nil {
		return s.fail(templateName, failSilently, fmt.Errorf("load template %q: %w", templateName, err))
	}
	if tmpl == nil {
		log.Printf("notifications: template %q does not exist, no mail sent", templateName)
		return nil
	}

	subject, err := s.renderer.Render(subjectPrefix+tmpl.Subject, tctx)
	if err != nil {
		return s.fail(templateName, failSilently, fmt.Errorf("render subject for %q: %w", templateName, err))
	}
	subject = strings.NewReplacer("\n", "", "\r", "").Replace(subject)

	plain, err := s.renderer.Render(tmpl.PlainText, tctx)
	if err != nil {
		return s.fail(templateName, failSilently, fmt.Errorf("render body for %q: %w", templateName, err))
	}

	var html string
	if tmpl.HTML != "" {
		htmlCtx := pongo2.Context{}
		for k, v := range tctx {
			htmlCtx[k] = v
		}
		heading, err := s.renderer.Render(tmpl.Heading, tctx)
		if err != nil {
			return s.fail(templateName, failSilently, fmt.Errorf("render heading for %q: %w", templateName, err))
		}
		htmlCtx["heading"] = heading

		html, err = s.renderer.Render(tmpl.HTML, htmlCtx)
		if err != nil {
			return s.fail(templateName, failSilently, fmt.Errorf("render html for %q: %w", templateName, err))
		}
	}

	msg := EmailMessage{
		From:      sender,
		To:        recipients,
		Subject:   subject,
		PlainBody: plain,
		HTMLBody:  html,
		Files:     s.attachable(files),
	}

	if err := s.provider.Send(ctx, msg); err != nil {
		return s.fail(templateName, failSilently, fmt.Errorf("send %q to %v: %w", templateName, recipients, err))
	}
	sentCounter.WithLabelValues(templateName).Inc()
	return nil
}

// SendToAddress is Send for a single recipient address.
func (s *TemplatedSender) SendToAddress(ctx context.Context, templateName, locale, recipient string, tctx pongo2.Context, sender string, failSilently bool, files []File) error {
	return s.Send(ctx, templateName, locale, []string{recipient}, tctx, sender, failSilently, files)
}

func (s *TemplatedSender) attachable(files []File) []File {
	if len(files) == 0 {
		return nil
	}
	kept := make([]File, 0, len(files))
	for _, file := range files {
		if s.maxAttachmentBytes > 0 && int64(len(file.Content)) > s.maxAttachmentBytes {
			log.Printf("notifications: attachment %q (%d bytes) exceeds cap, not attached", file.Filename, len(file.Content))
			skippedAttachments.Inc()
			continue
		}
		kept = append(kept, file)
	}
	return kept
}

func (s *TemplatedSender) fail(templateName string, failSilently bool, err error) error {
	failedCounter.WithLabelValues(templateName).Inc()
	if failSilently {
		log.Printf("notifications: %v", err)
		return nil
	}
	return err
}

// AttachmentFiles converts stored attachment metadata plus loaded content
// into outbound files.
func AttachmentFiles(attachments []models.Attachment, contents map[uint][]byte) []File {
	var files []File
	for _, a := range attachments {
		content, ok := contents[a.ID]
		if !ok {
			continue
		}
		files = append(files, File{Filename: a.Filename, MimeType: a.MimeType, Content: content})
	}
	return files
}
