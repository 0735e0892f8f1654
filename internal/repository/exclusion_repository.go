package repository

import (
	"database/sql"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// ExclusionRepository handles database operations for escalation exclusions
type ExclusionRepository struct {
	db *sql.DB
}

// NewExclusionRepository creates a new exclusion repository
func NewExclusionRepository(db *sql.DB) *ExclusionRepository {
	return &ExclusionRepository{db: db}
}

// Create inserts an exclusion and fills its ID.
func (r *ExclusionRepository) Create(exclusion *models.EscalationExclusion) error {
	query := `
		INSERT INTO escalation_exclusions (name, date)
		VALUES ($1, $2)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(r.db, query, exclusion.Name, exclusion.Date)
	if err != nil {
		return fmt.Errorf("create escalation exclusion: %w", err)
	}
	exclusion.ID = uint(id)
	return nil
}

// List retrieves all exclusions ordered by date.
func (r *ExclusionRepository) List() ([]*models.EscalationExclusion, error) {
	rows, err := r.db.Query(`SELECT id, name, date FROM escalation_exclusions ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list escalation exclusions: %w", err)
	}
	defer rows.Close()

	var exclusions []*models.EscalationExclusion
	for rows.Next() {
		var e models.EscalationExclusion
		if err := rows.Scan(&e.ID, &e.Name, &e.Date); err != nil {
			return nil, err
		}
		exclusions = append(exclusions, &e)
	}
	return exclusions, rows.Err()
}
