package repository

import (
	"database/sql"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// CCRepository handles database operations for ticket subscriptions
type CCRepository struct {
	db *sql.DB
}

// NewCCRepository creates a new CC repository
func NewCCRepository(db *sql.DB) *CCRepository {
	return &CCRepository{db: db}
}

// Create inserts a subscription and fills its ID.
func (r *CCRepository) Create(cc *models.TicketCC) error {
	query := `
		INSERT INTO ticket_ccs (ticket_id, user_id, email, can_view, can_update)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		cc.TicketID,
		cc.UserID,
		cc.Email,
		cc.CanView,
		cc.CanUpdate,
	)
	if err != nil {
		return fmt.Errorf("create ticket cc: %w", err)
	}
	cc.ID = uint(id)
	return nil
}

// ListByTicket retrieves a ticket's subscriptions with linked users joined in.
func (r *CCRepository) ListByTicket(ticketID uint) ([]*models.TicketCC, error) {
	query := database.ConvertPlaceholders(`
		SELECT c.id, c.ticket_id, c.user_id, c.email, c.can_view, c.can_update,
			u.email
		FROM ticket_ccs c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.ticket_id = $1
		ORDER BY c.id`)

	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list ccs for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var ccs []*models.TicketCC
	for rows.Next() {
		var cc models.TicketCC
		var userEmail *string
		err := rows.Scan(&cc.ID, &cc.TicketID, &cc.UserID, &cc.Email, &cc.CanView, &cc.CanUpdate, &userEmail)
		if err != nil {
			return nil, err
		}
		if cc.UserID != nil && userEmail != nil {
			cc.User = &models.User{ID: *cc.UserID, Email: *userEmail}
		}
		ccs = append(ccs, &cc)
	}
	return ccs, rows.Err()
}

// Delete removes a subscription.
func (r *CCRepository) Delete(id uint) error {
	adapter := database.GetAdapter()
	_, err := adapter.Exec(r.db, `DELETE FROM ticket_ccs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ticket cc %d: %w", id, err)
	}
	return nil
}
