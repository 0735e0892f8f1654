package models

import (
	"time"
)

// Ticket status values
const (
	StatusOpen      = 1
	StatusReopened  = 2
	StatusResolved  = 3
	StatusClosed    = 4
	StatusDuplicate = 5
)

// Ticket priority values
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityNormal   = 3
	PriorityLow      = 4
	PriorityVeryLow  = 5
)

// Billing classification values
const (
	BillingMaintenanceContract = 1
	BillingTokens              = 2
	BillingQuote               = 3
	BillingFree                = 4
	BillingWronglyBilled       = 5
)

var statusLabels = map[int]string{
	StatusOpen:      "Open",
	StatusReopened:  "Reopened",
	StatusResolved:  "Resolved",
	StatusClosed:    "Closed",
	StatusDuplicate: "Duplicate",
}

var priorityLabels = map[int]string{
	PriorityCritical: "1. Critical",
	PriorityHigh:     "2. High",
	PriorityNormal:   "3. Normal",
	PriorityLow:      "4. Low",
	PriorityVeryLow:  "5. Very Low",
}

var billingLabels = map[int]string{
	BillingMaintenanceContract: "Maintenance contract",
	BillingTokens:              "Tokens",
	BillingQuote:               "Quote",
	BillingFree:                "Free of charge",
	BillingWronglyBilled:       "Wrongly billed",
}

// StatusLabel returns the display label for a status value.
func StatusLabel(status int) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return "Unknown"
}

// PriorityLabel returns the display label for a priority value.
func PriorityLabel(priority int) string {
	if label, ok := priorityLabels[priority]; ok {
		return label
	}
	return "Unknown"
}

// BillingLabel returns the display label for a billing value.
func BillingLabel(billing int) string {
	if label, ok := billingLabels[billing]; ok {
		return label
	}
	return "Unknown"
}

// Ticket is the central aggregate of the helpdesk.
type Ticket struct {
	ID                    uint       `json:"id" db:"id"`
	Title                 string     `json:"title" db:"title"`
	QueueID               uint       `json:"queue_id" db:"queue_id"`
	Status                int        `json:"status" db:"status"`
	Priority              int        `json:"priority" db:"priority"`
	OnHold                bool       `json:"on_hold" db:"on_hold"`
	Description           *string    `json:"description,omitempty" db:"description"`
	Resolution            *string    `json:"resolution,omitempty" db:"resolution"`
	SubmitterEmail        *string    `json:"submitter_email,omitempty" db:"submitter_email"`
	AssignedToID          *uint      `json:"assigned_to_id,omitempty" db:"assigned_to_id"`
	CategoryID            *uint      `json:"category_id,omitempty" db:"category_id"`
	TypeID                *uint      `json:"type_id,omitempty" db:"type_id"`
	Billing               *int       `json:"billing,omitempty" db:"billing"`
	CustomerContactID     *uint      `json:"customer_contact_id,omitempty" db:"customer_contact_id"`
	CustomerID            *uint      `json:"customer_id,omitempty" db:"customer_id"`
	SiteID                *uint      `json:"site_id,omitempty" db:"site_id"`
	CustomerProductID     *uint      `json:"customer_product_id,omitempty" db:"customer_product_id"`
	MergedToID            *uint      `json:"merged_to_id,omitempty" db:"merged_to_id"`
	GenericIncidentID     *uint      `json:"generic_incident_id,omitempty" db:"generic_incident_id"`
	DueDate               *time.Time `json:"due_date,omitempty" db:"due_date"`
	Created               time.Time  `json:"created" db:"created"`
	Modified              time.Time  `json:"modified" db:"modified"`
	Resolved              *time.Time `json:"resolved,omitempty" db:"resolved"`
	Closed                *time.Time `json:"closed,omitempty" db:"closed"`
	LastEscalation        *time.Time `json:"last_escalation,omitempty" db:"last_escalation"`
	TimeBeforeFirstAnswer *int64     `json:"time_before_first_answer,omitempty" db:"time_before_first_answer"` // seconds

	// Joined fields (populated when needed)
	Queue           *Queue           `json:"queue,omitempty"`
	AssignedTo      *User            `json:"assigned_to,omitempty"`
	CustomerContact *CustomerContact `json:"customer_contact,omitempty"`
	Customer        *Customer        `json:"customer,omitempty"`
	Site            *Site            `json:"site,omitempty"`
	CustomerProduct *CustomerProduct `json:"customer_product,omitempty"`
}

// Helper methods

// StatusDisplay returns the status label, with an on-hold marker when set.
func (t *Ticket) StatusDisplay() string {
	label := StatusLabel(t.Status)
	if t.OnHold {
		return label + " - On Hold"
	}
	return label
}

// IsOpen returns true if the ticket is in an open state
func (t *Ticket) IsOpen() bool {
	return t.Status == StatusOpen || t.Status == StatusReopened
}

// IsClosed returns true if the ticket is in a terminal state
func (t *Ticket) IsClosed() bool {
	return t.Status == StatusClosed || t.Status == StatusDuplicate
}

// IsMerged returns true if the ticket has been merged into another
func (t *Ticket) IsMerged() bool {
	return t.MergedToID != nil
}

// AssigneeName returns the assignee display name, or "Unassigned".
func (t *Ticket) AssigneeName() string {
	if t.AssignedTo == nil {
		return "Unassigned"
	}
	return t.AssignedTo.DisplayName()
}

// NullableUint converts a uint to a nullable uint for database operations
func NullableUint(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}

// NullableInt converts an int to a nullable int for database operations
func NullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// NullableString converts a string to a nullable string for database operations
func NullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// DerefUint safely dereferences a uint pointer, returning 0 for nil
func DerefUint(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}

// DerefInt safely dereferences an int pointer, returning 0 for nil
func DerefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// DerefString safely dereferences a string pointer, returning "" for nil
func DerefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// UintPtr returns a pointer to the given uint, including zero.
func UintPtr(v uint) *uint {
	return &v
}

// IntPtr returns a pointer to the given int, including zero.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to the given string, including empty.
func StringPtr(v string) *string {
	return &v
}

// TimePtr returns a pointer to the given time.
func TimePtr(v time.Time) *time.Time {
	return &v
}
