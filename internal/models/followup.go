package models

import (
	"fmt"
	"time"
)

// FollowUp is an append-only comment/audit entry on a ticket, optionally
// carrying a status change.
type FollowUp struct {
	ID        uint      `json:"id" db:"id"`
	TicketID  uint      `json:"ticket_id" db:"ticket_id"`
	Date      time.Time `json:"date" db:"date"`
	Title     *string   `json:"title,omitempty" db:"title"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	Public    bool      `json:"public" db:"public"`
	UserID    *uint     `json:"user_id,omitempty" db:"user_id"`
	NewStatus *int      `json:"new_status,omitempty" db:"new_status"`

	// Joined fields (populated when needed)
	User        *User          `json:"user,omitempty"`
	Changes     []TicketChange `json:"changes,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
}

// TicketChange records a single field-level diff attached to a follow-up.
// Rows are written once by the update workflow and never mutated.
type TicketChange struct {
	ID         uint    `json:"id" db:"id"`
	FollowUpID uint    `json:"follow_up_id" db:"follow_up_id"`
	Field      string  `json:"field" db:"field"`
	OldValue   *string `json:"old_value,omitempty" db:"old_value"`
	NewValue   *string `json:"new_value,omitempty" db:"new_value"`
}

// String renders the change the way it appears in the audit trail.
func (c *TicketChange) String() string {
	switch {
	case c.NewValue == nil || *c.NewValue == "":
		return fmt.Sprintf("%s removed", c.Field)
	case c.OldValue == nil || *c.OldValue == "":
		return fmt.Sprintf("%s set to %s", c.Field, *c.NewValue)
	default:
		return fmt.Sprintf("%s changed from %s to %s", c.Field, *c.OldValue, *c.NewValue)
	}
}

// Attachment is file metadata bound to a follow-up, immutable once created.
// The file body lives outside the database; StorageKey addresses it.
type Attachment struct {
	ID         uint   `json:"id" db:"id"`
	FollowUpID uint   `json:"follow_up_id" db:"follow_up_id"`
	Filename   string `json:"filename" db:"filename"`
	MimeType   string `json:"mime_type" db:"mime_type"`
	Size       int64  `json:"size" db:"size"`
	StorageKey string `json:"storage_key" db:"storage_key"`
}
