package models

// TicketCC subscribes a user or a bare address to a ticket's updates.
type TicketCC struct {
	ID        uint    `json:"id" db:"id"`
	TicketID  uint    `json:"ticket_id" db:"ticket_id"`
	UserID    *uint   `json:"user_id,omitempty" db:"user_id"`
	Email     *string `json:"email,omitempty" db:"email"`
	CanView   bool    `json:"can_view" db:"can_view"`
	CanUpdate bool    `json:"can_update" db:"can_update"`

	// Joined field (populated when needed)
	User *User `json:"user,omitempty"`
}

// EmailAddress resolves the subscription to a deliverable address: the
// linked user's e-mail wins over the bare address.
func (c *TicketCC) EmailAddress() string {
	if c.User != nil && c.User.Email != "" {
		return c.User.Email
	}
	return DerefString(c.Email)
}

// TicketDependency is a directed edge: Ticket cannot resolve until DependsOn
// resolves. Resolvability is computed, never stored.
type TicketDependency struct {
	ID          uint `json:"id" db:"id"`
	TicketID    uint `json:"ticket_id" db:"ticket_id"`
	DependsOnID uint `json:"depends_on_id" db:"depends_on_id"`

	// Joined field (populated when needed)
	DependsOn *Ticket `json:"depends_on,omitempty"`
}
