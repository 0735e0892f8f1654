// Package history builds the audit trail artifacts of the update workflow:
// follow-up titles and per-field change rows.
package history

import (
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Tracked field display names used in change rows.
const (
	FieldTitle           = "Title"
	FieldStatus          = "Status"
	FieldOwner           = "Owner"
	FieldPriority        = "Priority"
	FieldDueDate         = "Due on"
	FieldCustomerContact = "Customer contact"
	FieldCustomer        = "Customer"
	FieldSite            = "Site"
	FieldProduct         = "Product"
)

// Follow-up titles outside the field-change composition.
const (
	TitleComment          = "Comment"
	TitleUpdated          = "Updated"
	TitleOpened           = "Ticket Opened"
	TitleOpenedViaWeb     = "Ticket Opened Via Web"
	TitleEscalated        = "Ticket escalated"
	TitleUnassigned       = "Unassigned"
	TitleClosedInBulk     = "Closed in bulk update"
	TitleUnassignedInBulk = "Unassigned in bulk update"
	TitleOnHold           = "Ticket placed on hold"
	TitleOffHold          = "Ticket taken off hold"
)

// AssignmentTitle returns the owner-change fragment of a follow-up title.
func AssignmentTitle(ownerName string) string {
	if ownerName == "" {
		return TitleUnassigned
	}
	return fmt.Sprintf("Assigned to %s", ownerName)
}

// AssignedInBulkTitle returns the bulk-assignment follow-up title.
func AssignedInBulkTitle(ownerName string) string {
	return fmt.Sprintf("Assigned to %s in bulk update", ownerName)
}

// OpenedAndAssignedTitle returns the creation title for a pre-assigned ticket.
func OpenedAndAssignedTitle(ownerName string) string {
	return fmt.Sprintf("Ticket Opened & Assigned to %s", ownerName)
}

// FollowUpTitle composes the follow-up title for an update. assignment is the
// AssignmentTitle fragment, empty when the owner did not change; statusLabel
// is the new status label, empty when the status did not change.
func FollowUpTitle(assignment, statusLabel string, hasComment bool) string {
	title := assignment
	if statusLabel != "" {
		if title != "" {
			title = title + " and " + statusLabel
		} else {
			title = statusLabel
		}
	}
	if title == "" {
		if hasComment {
			return TitleComment
		}
		return TitleUpdated
	}
	return title
}

// ChangeSet accumulates the change rows of one update before they are
// persisted with the follow-up.
type ChangeSet struct {
	changes []models.TicketChange
}

// Add records a field change. Old and new values are human-readable
// representations; empty strings mean "unset".
func (cs *ChangeSet) Add(field, oldValue, newValue string) {
	cs.changes = append(cs.changes, models.TicketChange{
		Field:    field,
		OldValue: models.NullableString(oldValue),
		NewValue: models.NullableString(newValue),
	})
}

// Len returns the number of recorded changes.
func (cs *ChangeSet) Len() int {
	return len(cs.changes)
}

// Changes returns the accumulated rows.
func (cs *ChangeSet) Changes() []models.TicketChange {
	return cs.changes
}

// Excerpt returns a truncated version of the input string, suitable for
// follow-up summaries.
func Excerpt(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 50
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ChangeMessage generates a log message for a field change.
func ChangeMessage(field, oldVal, newVal string) string {
	if oldVal == "" {
		return field + " set to " + newVal
	}
	if newVal == "" {
		return field + " cleared (was: " + oldVal + ")"
	}
	return field + " changed from " + oldVal + " to " + newVal
}
