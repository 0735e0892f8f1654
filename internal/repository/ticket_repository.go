package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const ticketColumns = `id, title, queue_id, status, priority, on_hold, description, resolution,
	submitter_email, assigned_to_id, category_id, type_id, billing,
	customer_contact_id, customer_id, site_id, customer_product_id,
	merged_to_id, generic_incident_id, due_date, created, modified,
	resolved, closed, last_escalation, time_before_first_answer`

// TicketRepository handles database operations for tickets
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// prefixColumns qualifies each column in a list with a table alias so the
// list can be reused in joined queries.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.QueueID,
		&t.Status,
		&t.Priority,
		&t.OnHold,
		&t.Description,
		&t.Resolution,
		&t.SubmitterEmail,
		&t.AssignedToID,
		&t.CategoryID,
		&t.TypeID,
		&t.Billing,
		&t.CustomerContactID,
		&t.CustomerID,
		&t.SiteID,
		&t.CustomerProductID,
		&t.MergedToID,
		&t.GenericIncidentID,
		&t.DueDate,
		&t.Created,
		&t.Modified,
		&t.Resolved,
		&t.Closed,
		&t.LastEscalation,
		&t.TimeBeforeFirstAnswer,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]*models.Ticket, error) {
	defer rows.Close()
	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// Create inserts a ticket and fills its ID.
func (r *TicketRepository) Create(ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (
			title, queue_id, status, priority, on_hold, description, resolution,
			submitter_email, assigned_to_id, category_id, type_id, billing,
			customer_contact_id, customer_id, site_id, customer_product_id,
			merged_to_id, generic_incident_id, due_date, created, modified,
			resolved, closed, last_escalation, time_before_first_answer
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		) RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		ticket.Title,
		ticket.QueueID,
		ticket.Status,
		ticket.Priority,
		ticket.OnHold,
		ticket.Description,
		ticket.Resolution,
		ticket.SubmitterEmail,
		ticket.AssignedToID,
		ticket.CategoryID,
		ticket.TypeID,
		ticket.Billing,
		ticket.CustomerContactID,
		ticket.CustomerID,
		ticket.SiteID,
		ticket.CustomerProductID,
		ticket.MergedToID,
		ticket.GenericIncidentID,
		ticket.DueDate,
		ticket.Created,
		ticket.Modified,
		ticket.Resolved,
		ticket.Closed,
		ticket.LastEscalation,
		ticket.TimeBeforeFirstAnswer,
	)
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	ticket.ID = uint(id)
	return nil
}

// GetByID retrieves a ticket by ID. Missing tickets return (nil, nil).
func (r *TicketRepository) GetByID(id uint) (*models.Ticket, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`)

	ticket, err := scanTicket(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return ticket, nil
}

// Update persists all mutable ticket fields.
func (r *TicketRepository) Update(ticket *models.Ticket) error {
	query := `
		UPDATE tickets SET
			title = $2,
			queue_id = $3,
			status = $4,
			priority = $5,
			on_hold = $6,
			description = $7,
			resolution = $8,
			submitter_email = $9,
			assigned_to_id = $10,
			category_id = $11,
			type_id = $12,
			billing = $13,
			customer_contact_id = $14,
			customer_id = $15,
			site_id = $16,
			customer_product_id = $17,
			merged_to_id = $18,
			generic_incident_id = $19,
			due_date = $20,
			modified = $21,
			resolved = $22,
			closed = $23,
			last_escalation = $24,
			time_before_first_answer = $25
		WHERE id = $1`

	adapter := database.GetAdapter()
	result, err := adapter.Exec(
		r.db, query,
		ticket.ID,
		ticket.Title,
		ticket.QueueID,
		ticket.Status,
		ticket.Priority,
		ticket.OnHold,
		ticket.Description,
		ticket.Resolution,
		ticket.SubmitterEmail,
		ticket.AssignedToID,
		ticket.CategoryID,
		ticket.TypeID,
		ticket.Billing,
		ticket.CustomerContactID,
		ticket.CustomerID,
		ticket.SiteID,
		ticket.CustomerProductID,
		ticket.MergedToID,
		ticket.GenericIncidentID,
		ticket.DueDate,
		ticket.Modified,
		ticket.Resolved,
		ticket.Closed,
		ticket.LastEscalation,
		ticket.TimeBeforeFirstAnswer,
	)
	if err != nil {
		return fmt.Errorf("update ticket %d: %w", ticket.ID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update ticket %d: no rows affected", ticket.ID)
	}
	return nil
}

// Delete removes a ticket row.
func (r *TicketRepository) Delete(id uint) error {
	adapter := database.GetAdapter()
	_, err := adapter.Exec(r.db, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}
	return nil
}

// List retrieves all tickets, newest first.
func (r *TicketRepository) List() ([]*models.Ticket, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + ticketColumns + ` FROM tickets ORDER BY created DESC`)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return collectTickets(rows)
}

// ListMergedInto retrieves the tickets merged into the given target.
func (r *TicketRepository) ListMergedInto(targetID uint) ([]*models.Ticket, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + ticketColumns + ` FROM tickets WHERE merged_to_id = $1`)

	rows, err := r.db.Query(query, targetID)
	if err != nil {
		return nil, fmt.Errorf("list merged tickets for %d: %w", targetID, err)
	}
	return collectTickets(rows)
}

// ListOpenByQueue retrieves a queue's open and reopened tickets.
func (r *TicketRepository) ListOpenByQueue(queueID uint) ([]*models.Ticket, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + ticketColumns + ` FROM tickets
		WHERE queue_id = $1 AND status IN ($2, $3)
		ORDER BY created`)

	rows, err := r.db.Query(query, queueID, models.StatusOpen, models.StatusReopened)
	if err != nil {
		return nil, fmt.Errorf("list open tickets for queue %d: %w", queueID, err)
	}
	return collectTickets(rows)
}
