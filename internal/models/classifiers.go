package models

import "time"

// Category is an administrator-defined ticket classification.
type Category struct {
	ID   uint   `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// TicketType is an administrator-defined ticket kind (incident, request...).
type TicketType struct {
	ID   uint   `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Customer is the organization a ticket is filed for. CRUD for customers
// lives in the surrounding application; the helpdesk only links to them.
type Customer struct {
	ID   uint   `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// CustomerContact is a person at a customer, reachable by e-mail.
type CustomerContact struct {
	ID         uint    `json:"id" db:"id"`
	CustomerID *uint   `json:"customer_id,omitempty" db:"customer_id"`
	Name       string  `json:"name" db:"name"`
	Email      *string `json:"email,omitempty" db:"email"`
}

// Site is a customer location.
type Site struct {
	ID         uint   `json:"id" db:"id"`
	CustomerID *uint  `json:"customer_id,omitempty" db:"customer_id"`
	Name       string `json:"name" db:"name"`
}

// CustomerProduct is a deployed product instance at a customer.
type CustomerProduct struct {
	ID         uint   `json:"id" db:"id"`
	CustomerID *uint  `json:"customer_id,omitempty" db:"customer_id"`
	Name       string `json:"name" db:"name"`
}

// GenericIncident groups tickets caused by one shared outage.
type GenericIncident struct {
	ID     uint       `json:"id" db:"id"`
	Name   string     `json:"name" db:"name"`
	Opened time.Time  `json:"opened" db:"opened"`
	Closed *time.Time `json:"closed,omitempty" db:"closed"`
}
