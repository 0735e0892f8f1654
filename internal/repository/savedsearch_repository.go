package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// SavedSearchRepository handles database operations for saved queries
type SavedSearchRepository struct {
	db *sql.DB
}

// NewSavedSearchRepository creates a new saved search repository
func NewSavedSearchRepository(db *sql.DB) *SavedSearchRepository {
	return &SavedSearchRepository{db: db}
}

// Create inserts a saved search and fills its ID.
func (r *SavedSearchRepository) Create(search *models.SavedSearch) error {
	query := `
		INSERT INTO saved_searches (user_id, title, shared, query, created)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		search.UserID,
		search.Title,
		search.Shared,
		search.Query,
		search.Created,
	)
	if err != nil {
		return fmt.Errorf("create saved search: %w", err)
	}
	search.ID = uint(id)
	return nil
}

// GetByID retrieves a saved search. Missing rows return (nil, nil).
func (r *SavedSearchRepository) GetByID(id uint) (*models.SavedSearch, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, user_id, title, shared, query, created FROM saved_searches WHERE id = $1`)

	var s models.SavedSearch
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.UserID, &s.Title, &s.Shared, &s.Query, &s.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get saved search %d: %w", id, err)
	}
	return &s, nil
}

// ListVisibleTo retrieves the searches a user may load: their own plus
// shared ones.
func (r *SavedSearchRepository) ListVisibleTo(userID uint) ([]*models.SavedSearch, error) {
	query := database.ConvertPlaceholders(`
		SELECT id, user_id, title, shared, query, created
		FROM saved_searches
		WHERE user_id = $1 OR shared = $2
		ORDER BY title`)

	rows, err := r.db.Query(query, userID, true)
	if err != nil {
		return nil, fmt.Errorf("list saved searches for user %d: %w", userID, err)
	}
	defer rows.Close()

	var searches []*models.SavedSearch
	for rows.Next() {
		var s models.SavedSearch
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Shared, &s.Query, &s.Created); err != nil {
			return nil, err
		}
		searches = append(searches, &s)
	}
	return searches, rows.Err()
}

// Delete removes a saved search.
func (r *SavedSearchRepository) Delete(id uint) error {
	adapter := database.GetAdapter()
	_, err := adapter.Exec(r.db, `DELETE FROM saved_searches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved search %d: %w", id, err)
	}
	return nil
}
