package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const followUpColumns = `id, ticket_id, date, title, comment, public, user_id, new_status`

// FollowUpRepository handles database operations for follow-ups, their
// change rows and attachments.
type FollowUpRepository struct {
	db *sql.DB
}

// NewFollowUpRepository creates a new follow-up repository
func NewFollowUpRepository(db *sql.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

func scanFollowUp(row rowScanner) (*models.FollowUp, error) {
	var f models.FollowUp
	err := row.Scan(
		&f.ID,
		&f.TicketID,
		&f.Date,
		&f.Title,
		&f.Comment,
		&f.Public,
		&f.UserID,
		&f.NewStatus,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a follow-up and fills its ID.
func (r *FollowUpRepository) Create(followUp *models.FollowUp) error {
	query := `
		INSERT INTO followups (ticket_id, date, title, comment, public, user_id, new_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		followUp.TicketID,
		followUp.Date,
		followUp.Title,
		followUp.Comment,
		followUp.Public,
		followUp.UserID,
		followUp.NewStatus,
	)
	if err != nil {
		return fmt.Errorf("create followup: %w", err)
	}
	followUp.ID = uint(id)
	return nil
}

// GetByID retrieves a follow-up by ID. Missing rows return (nil, nil).
func (r *FollowUpRepository) GetByID(id uint) (*models.FollowUp, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + followUpColumns + ` FROM followups WHERE id = $1`)

	followUp, err := scanFollowUp(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get followup %d: %w", id, err)
	}
	return followUp, nil
}

// ListByTicket retrieves a ticket's follow-ups in chronological order.
func (r *FollowUpRepository) ListByTicket(ticketID uint) ([]*models.FollowUp, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + followUpColumns + ` FROM followups WHERE ticket_id = $1 ORDER BY date, id`)

	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list followups for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var followUps []*models.FollowUp
	for rows.Next() {
		followUp, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		followUps = append(followUps, followUp)
	}
	return followUps, rows.Err()
}

// AddChanges writes the field-level diff rows for a follow-up.
func (r *FollowUpRepository) AddChanges(followUpID uint, changes []models.TicketChange) error {
	if len(changes) == 0 {
		return nil
	}

	query := `
		INSERT INTO ticket_changes (follow_up_id, field, old_value, new_value)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	adapter := database.GetAdapter()
	for i := range changes {
		id, err := adapter.InsertWithReturning(
			r.db, query,
			followUpID,
			changes[i].Field,
			changes[i].OldValue,
			changes[i].NewValue,
		)
		if err != nil {
			return fmt.Errorf("add change for followup %d: %w", followUpID, err)
		}
		changes[i].ID = uint(id)
		changes[i].FollowUpID = followUpID
	}
	return nil
}

// ListChanges retrieves the diff rows for a follow-up.
func (r *FollowUpRepository) ListChanges(followUpID uint) ([]models.TicketChange, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, follow_up_id, field, old_value, new_value
		FROM ticket_changes WHERE follow_up_id = $1 ORDER BY id`)

	rows, err := r.db.Query(query, followUpID)
	if err != nil {
		return nil, fmt.Errorf("list changes for followup %d: %w", followUpID, err)
	}
	defer rows.Close()

	var changes []models.TicketChange
	for rows.Next() {
		var c models.TicketChange
		if err := rows.Scan(&c.ID, &c.FollowUpID, &c.Field, &c.OldValue, &c.NewValue); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// AddAttachment writes attachment metadata for a follow-up.
func (r *FollowUpRepository) AddAttachment(attachment *models.Attachment) error {
	query := `
		INSERT INTO attachments (follow_up_id, filename, mime_type, size, storage_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		attachment.FollowUpID,
		attachment.Filename,
		attachment.MimeType,
		attachment.Size,
		attachment.StorageKey,
	)
	if err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	attachment.ID = uint(id)
	return nil
}

// GetAttachment retrieves one attachment row. Missing rows return (nil, nil).
func (r *FollowUpRepository) GetAttachment(id uint) (*models.Attachment, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, follow_up_id, filename, mime_type, size, storage_key
		FROM attachments WHERE id = $1`)

	var a models.Attachment
	err := r.db.QueryRow(query, id).Scan(&a.ID, &a.FollowUpID, &a.Filename, &a.MimeType, &a.Size, &a.StorageKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment %d: %w", id, err)
	}
	return &a, nil
}

// DeleteAttachment removes an attachment row.
func (r *FollowUpRepository) DeleteAttachment(id uint) error {
	query := database.ConvertPlaceholders(`DELETE FROM attachments WHERE id = $1`)
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("delete attachment %d: %w", id, err)
	}
	return nil
}

// ListAttachments retrieves the attachments recorded against a follow-up.
func (r *FollowUpRepository) ListAttachments(followUpID uint) ([]models.Attachment, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, follow_up_id, filename, mime_type, size, storage_key
		FROM attachments WHERE follow_up_id = $1 ORDER BY id`)

	rows, err := r.db.Query(query, followUpID)
	if err != nil {
		return nil, fmt.Errorf("list attachments for followup %d: %w", followUpID, err)
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.FollowUpID, &a.Filename, &a.MimeType, &a.Size, &a.StorageKey); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// HasPublicStaffFollowUp reports whether any public follow-up authored by a
// staff user exists on the ticket. Used to compute time-to-first-response.
func (r *FollowUpRepository) HasPublicStaffFollowUp(ticketID uint) (bool, error) {
	query := database.ConvertPlaceholders(
		`SELECT COUNT(*) FROM followups
		WHERE ticket_id = $1 AND public = $2 AND user_id IS NOT NULL`)

	var count int
	err := r.db.QueryRow(query, ticketID, true).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count public staff followups for ticket %d: %w", ticketID, err)
	}
	return count > 0, nil
}
