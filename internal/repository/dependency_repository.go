package repository

import (
	"database/sql"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// DependencyRepository handles database operations for ticket dependencies
type DependencyRepository struct {
	db *sql.DB
}

// NewDependencyRepository creates a new dependency repository
func NewDependencyRepository(db *sql.DB) *DependencyRepository {
	return &DependencyRepository{db: db}
}

// Create inserts a dependency edge and fills its ID.
func (r *DependencyRepository) Create(dep *models.TicketDependency) error {
	query := `
		INSERT INTO ticket_dependencies (ticket_id, depends_on_id)
		VALUES ($1, $2)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(r.db, query, dep.TicketID, dep.DependsOnID)
	if err != nil {
		return fmt.Errorf("create dependency: %w", err)
	}
	dep.ID = uint(id)
	return nil
}

// ListByTicket retrieves a ticket's dependencies with the blocking tickets
// joined in so resolvability can be computed without extra round trips.
func (r *DependencyRepository) ListByTicket(ticketID uint) ([]*models.TicketDependency, error) {
	query := database.ConvertPlaceholders(`
		SELECT d.id, d.ticket_id, d.depends_on_id, ` + prefixColumns("t", ticketColumns) + `
		FROM ticket_dependencies d
		JOIN tickets t ON t.id = d.depends_on_id
		WHERE d.ticket_id = $1
		ORDER BY d.id`)

	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var deps []*models.TicketDependency
	for rows.Next() {
		var d models.TicketDependency
		var t models.Ticket
		err := rows.Scan(
			&d.ID, &d.TicketID, &d.DependsOnID,
			&t.ID, &t.Title, &t.QueueID, &t.Status, &t.Priority, &t.OnHold,
			&t.Description, &t.Resolution, &t.SubmitterEmail,
			&t.AssignedToID, &t.CategoryID, &t.TypeID, &t.Billing,
			&t.CustomerContactID, &t.CustomerID, &t.SiteID, &t.CustomerProductID,
			&t.MergedToID, &t.GenericIncidentID, &t.DueDate,
			&t.Created, &t.Modified, &t.Resolved, &t.Closed,
			&t.LastEscalation, &t.TimeBeforeFirstAnswer,
		)
		if err != nil {
			return nil, err
		}
		d.DependsOn = &t
		deps = append(deps, &d)
	}
	return deps, rows.Err()
}

// Exists reports whether the edge ticket -> dependsOn is already recorded.
func (r *DependencyRepository) Exists(ticketID, dependsOnID uint) (bool, error) {
	query := database.ConvertPlaceholders(
		`SELECT COUNT(*) FROM ticket_dependencies WHERE ticket_id = $1 AND depends_on_id = $2`)

	var count int
	err := r.db.QueryRow(query, ticketID, dependsOnID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check dependency %d -> %d: %w", ticketID, dependsOnID, err)
	}
	return count > 0, nil
}

// Delete removes a dependency edge.
func (r *DependencyRepository) Delete(id uint) error {
	adapter := database.GetAdapter()
	_, err := adapter.Exec(r.db, `DELETE FROM ticket_dependencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dependency %d: %w", id, err)
	}
	return nil
}
