// Package access centralizes the capability checks consulted by every
// workflow entry point: queue access and ticket visibility. Identities and
// their permission grants come from the surrounding application; this
// package only evaluates them.
package access

import (
	"fmt"
	"strings"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Identity is the authenticated caller. Staff callers carry a User record
// and permission grants; public callers carry a verified e-mail address and
// optionally the customer contact they were matched to.
type Identity struct {
	User        *models.User
	Email       string
	ContactID   *uint
	Permissions map[string]bool
}

// StaffIdentity builds an identity for a staff user with the given grants.
func StaffIdentity(user *models.User, perms ...string) *Identity {
	id := &Identity{User: user, Permissions: make(map[string]bool, len(perms))}
	for _, p := range perms {
		id.Permissions[p] = true
	}
	if user != nil {
		id.Email = user.Email
	}
	return id
}

// PublicIdentity builds an identity for an unauthenticated caller verified
// only by e-mail address.
func PublicIdentity(email string) *Identity {
	return &Identity{Email: email}
}

// HasPerm reports whether the identity holds the named permission.
// Superusers hold every permission.
func (id *Identity) HasPerm(name string) bool {
	if id == nil {
		return false
	}
	if id.User != nil && id.User.IsSuperuser {
		return true
	}
	return id.Permissions[name]
}

// ViewCustomerPerm names the grant that exposes one customer's tickets to a
// non-staff caller.
func ViewCustomerPerm(customerID uint) string {
	return fmt.Sprintf("view_customer_%d", customerID)
}

// Checker evaluates capability checks. perQueue mirrors the instance
// setting that restricts staff to explicitly granted queues.
type Checker struct {
	perQueue bool
}

// NewChecker creates a checker. With perQueuePermissions false every staff
// identity may use every queue.
func NewChecker(perQueuePermissions bool) *Checker {
	return &Checker{perQueue: perQueuePermissions}
}

// CanAccessQueue reports whether the identity may work in the queue.
// Only identities with a user record qualify; superusers always pass, and
// with per-queue permissions disabled so does everyone else.
func (c *Checker) CanAccessQueue(id *Identity, queue *models.Queue) bool {
	if id == nil || id.User == nil || queue == nil {
		return false
	}
	if id.User.IsSuperuser || !c.perQueue {
		return true
	}
	perm := models.DerefString(queue.PermissionName)
	if perm == "" {
		return false
	}
	return id.HasPerm(perm)
}

// AccessibleQueues filters the queue list down to those the identity may
// work in, preserving order.
func (c *Checker) AccessibleQueues(id *Identity, queues []*models.Queue) []*models.Queue {
	out := make([]*models.Queue, 0, len(queues))
	for _, q := range queues {
		if c.CanAccessQueue(id, q) {
			out = append(out, q)
		}
	}
	return out
}

// IsTicketVisibleTo reports whether the identity may view the ticket.
// Staff see everything; a customer contact sees their own tickets; a grant
// on the ticket's customer opens that customer's tickets; a public caller
// sees tickets submitted under their verified address.
func (c *Checker) IsTicketVisibleTo(id *Identity, ticket *models.Ticket) bool {
	if id == nil || ticket == nil {
		return false
	}
	if id.User != nil && (id.User.IsSuperuser || id.User.IsStaff) {
		return true
	}
	if id.ContactID != nil && ticket.CustomerContactID != nil && *id.ContactID == *ticket.CustomerContactID {
		return true
	}
	if ticket.CustomerID != nil && id.HasPerm(ViewCustomerPerm(*ticket.CustomerID)) {
		return true
	}
	if id.Email != "" && strings.EqualFold(id.Email, models.DerefString(ticket.SubmitterEmail)) {
		return true
	}
	return false
}
