package repository

import (
	"database/sql"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// IgnoreRepository handles database operations for the ignore list
type IgnoreRepository struct {
	db *sql.DB
}

// NewIgnoreRepository creates a new ignore list repository
func NewIgnoreRepository(db *sql.DB) *IgnoreRepository {
	return &IgnoreRepository{db: db}
}

// Create inserts an ignore entry and fills its ID.
func (r *IgnoreRepository) Create(entry *models.IgnoreEmail) error {
	query := `
		INSERT INTO ignore_emails (name, date, email_address, keep_in_mailbox)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		entry.Name,
		entry.Date,
		entry.EmailAddress,
		entry.KeepInMailbox,
	)
	if err != nil {
		return fmt.Errorf("create ignore entry: %w", err)
	}
	entry.ID = uint(id)
	return nil
}

// List retrieves all ignore entries ordered by address.
func (r *IgnoreRepository) List() ([]*models.IgnoreEmail, error) {
	rows, err := r.db.Query(
		`SELECT id, name, date, email_address, keep_in_mailbox FROM ignore_emails ORDER BY email_address`)
	if err != nil {
		return nil, fmt.Errorf("list ignore entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.IgnoreEmail
	for rows.Next() {
		var e models.IgnoreEmail
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.EmailAddress, &e.KeepInMailbox); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
