package models

import (
	"strings"
	"time"
)

// User is a staff identity supplied by the surrounding application.
type User struct {
	ID          uint      `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Email       string    `json:"email" db:"email"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	IsStaff     bool      `json:"is_staff" db:"is_staff"`
	IsSuperuser bool      `json:"is_superuser" db:"is_superuser"`
	Created     time.Time `json:"created" db:"created"`
}

// DisplayName returns the full name when present, falling back to the
// username.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}

// SimpleUserEmail is a lightweight e-mail-only identity, auto-created on the
// first ticket save with an unknown submitter address. Carries the customer
// association used for two-way backfill.
type SimpleUserEmail struct {
	ID         uint      `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	CustomerID *uint     `json:"customer_id,omitempty" db:"customer_id"`
	Created    time.Time `json:"created" db:"created"`
}

// Per-user settings defaults
const (
	DefaultTicketsPerPage = 25
)

// ValidTicketsPerPage lists the accepted page sizes.
var ValidTicketsPerPage = []int{10, 25, 50, 100}

// UserSettings is the explicit per-user preference record. Fields are named
// and typed; writes are validated.
type UserSettings struct {
	UserID              uint `json:"user_id" db:"user_id"`
	LoginViewTicketlist bool `json:"login_view_ticketlist" db:"login_view_ticketlist"`
	EmailOnTicketChange bool `json:"email_on_ticket_change" db:"email_on_ticket_change"`
	EmailOnTicketAssign bool `json:"email_on_ticket_assign" db:"email_on_ticket_assign"`
	TicketsPerPage      int  `json:"tickets_per_page" db:"tickets_per_page"`
	UseEmailAsSubmitter bool `json:"use_email_as_submitter" db:"use_email_as_submitter"`
}

// DefaultUserSettings returns the settings applied to users without a stored
// record.
func DefaultUserSettings(userID uint) *UserSettings {
	return &UserSettings{
		UserID:              userID,
		LoginViewTicketlist: true,
		EmailOnTicketChange: true,
		EmailOnTicketAssign: true,
		TicketsPerPage:      DefaultTicketsPerPage,
		UseEmailAsSubmitter: true,
	}
}

// Validate checks settings values before a write.
func (s *UserSettings) Validate() error {
	for _, n := range ValidTicketsPerPage {
		if s.TicketsPerPage == n {
			return nil
		}
	}
	return &FieldError{Field: "tickets_per_page", Reason: "must be one of 10, 25, 50, 100"}
}

// FieldError describes a rejected field value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}
