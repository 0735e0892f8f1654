package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Mailbox protocol values for queue e-mail polling
const (
	EmailBoxPOP3 = "pop3"
	EmailBoxIMAP = "imap"
)

// Queue is a named routing bucket for tickets.
type Queue struct {
	ID                    uint    `json:"id" db:"id"`
	Title                 string  `json:"title" db:"title"`
	Slug                  string  `json:"slug" db:"slug"`
	EmailAddress          *string `json:"email_address,omitempty" db:"email_address"`
	Locale                *string `json:"locale,omitempty" db:"locale"`
	AllowPublicSubmission bool    `json:"allow_public_submission" db:"allow_public_submission"`
	AllowEmailSubmission  bool    `json:"allow_email_submission" db:"allow_email_submission"`
	EscalateDays          int     `json:"escalate_days" db:"escalate_days"`
	NewTicketCC           *string `json:"new_ticket_cc,omitempty" db:"new_ticket_cc"`
	UpdatedTicketCC       *string `json:"updated_ticket_cc,omitempty" db:"updated_ticket_cc"`
	EmailBoxType          *string `json:"email_box_type,omitempty" db:"email_box_type"`
	EmailBoxHost          *string `json:"email_box_host,omitempty" db:"email_box_host"`
	EmailBoxPort          *int    `json:"email_box_port,omitempty" db:"email_box_port"`
	EmailBoxSSL           bool    `json:"email_box_ssl" db:"email_box_ssl"`
	EmailBoxUser          *string `json:"email_box_user,omitempty" db:"email_box_user"`
	EmailBoxPass          *string `json:"email_box_pass,omitempty" db:"email_box_pass"`
	EmailBoxImapFolder    *string `json:"email_box_imap_folder,omitempty" db:"email_box_imap_folder"`
	EmailBoxInterval      int     `json:"email_box_interval" db:"email_box_interval"`
	DefaultOwnerID        *uint   `json:"default_owner_id,omitempty" db:"default_owner_id"`
	PermissionName        *string `json:"permission_name,omitempty" db:"permission_name"`
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify produces a URL-safe slug from a queue title.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugCleaner.ReplaceAllString(s, "")
	s = strings.Trim(s, "-")
	return s
}

// FromAddress renders the queue sender as "Title <email>". Queues without
// an address fall back to the instance default with a loud marker so
// misconfiguration shows up in outbound mail.
func (q *Queue) FromAddress(defaultEmail string) string {
	if q.EmailAddress != nil && *q.EmailAddress != "" {
		return fmt.Sprintf("%s <%s>", q.Title, *q.EmailAddress)
	}
	return fmt.Sprintf("NO QUEUE EMAIL ADDRESS DEFINED <%s>", defaultEmail)
}

// EnsureDefaults fills the derived queue fields before the first save:
// slug from title, the one-time permission name, the mailbox port for the
// configured protocol, and the IMAP folder. Safe to call on every save;
// populated fields are never overwritten.
func (q *Queue) EnsureDefaults() {
	if q.Slug == "" {
		q.Slug = Slugify(q.Title)
	}
	if q.PermissionName == nil || *q.PermissionName == "" {
		name := "helpdesk.queue_access_" + q.Slug
		q.PermissionName = &name
	}
	if q.EmailBoxType != nil && q.EmailBoxPort == nil {
		port := defaultMailboxPort(*q.EmailBoxType, q.EmailBoxSSL)
		if port != 0 {
			q.EmailBoxPort = &port
		}
	}
	if q.EmailBoxType != nil && *q.EmailBoxType == EmailBoxIMAP {
		if q.EmailBoxImapFolder == nil || *q.EmailBoxImapFolder == "" {
			folder := "INBOX"
			q.EmailBoxImapFolder = &folder
		}
	}
}

func defaultMailboxPort(boxType string, ssl bool) int {
	switch boxType {
	case EmailBoxIMAP:
		if ssl {
			return 993
		}
		return 143
	case EmailBoxPOP3:
		if ssl {
			return 995
		}
		return 110
	}
	return 0
}

// NewTicketCCList returns the comma-separated new-ticket CC addresses.
func (q *Queue) NewTicketCCList() []string {
	return splitAddressList(q.NewTicketCC)
}

// UpdatedTicketCCList returns the comma-separated updated-ticket CC addresses.
func (q *Queue) UpdatedTicketCCList() []string {
	return splitAddressList(q.UpdatedTicketCC)
}

func splitAddressList(raw *string) []string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	parts := strings.Split(*raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if addr := strings.TrimSpace(p); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
