package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// KBRepository handles database operations for the knowledge base
type KBRepository struct {
	db *sql.DB
}

// NewKBRepository creates a new knowledge base repository
func NewKBRepository(db *sql.DB) *KBRepository {
	return &KBRepository{db: db}
}

// ListCategories retrieves all categories ordered by title.
func (r *KBRepository) ListCategories() ([]*models.KBCategory, error) {
	rows, err := r.db.Query(`SELECT id, title, slug, description FROM kb_categories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list kb categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.KBCategory
	for rows.Next() {
		var c models.KBCategory
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// GetCategoryBySlug retrieves a category. Missing rows return (nil, nil).
func (r *KBRepository) GetCategoryBySlug(slug string) (*models.KBCategory, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, title, slug, description FROM kb_categories WHERE slug = $1`)

	var c models.KBCategory
	err := r.db.QueryRow(query, slug).Scan(&c.ID, &c.Title, &c.Slug, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get kb category %q: %w", slug, err)
	}
	return &c, nil
}

// ListItems retrieves a category's items ordered by title.
func (r *KBRepository) ListItems(categoryID uint) ([]*models.KBItem, error) {
	query := database.ConvertPlaceholders(`
		SELECT id, category_id, title, question, answer, votes, recommendations, last_updated
		FROM kb_items WHERE category_id = $1 ORDER BY title`)

	rows, err := r.db.Query(query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list kb items for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	var items []*models.KBItem
	for rows.Next() {
		var i models.KBItem
		err := rows.Scan(&i.ID, &i.CategoryID, &i.Title, &i.Question, &i.Answer,
			&i.Votes, &i.Recommendations, &i.LastUpdated)
		if err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	return items, rows.Err()
}

// GetItem retrieves an item with its category joined in. Missing rows
// return (nil, nil).
func (r *KBRepository) GetItem(id uint) (*models.KBItem, error) {
	query := database.ConvertPlaceholders(`
		SELECT i.id, i.category_id, i.title, i.question, i.answer,
			i.votes, i.recommendations, i.last_updated,
			c.id, c.title, c.slug, c.description
		FROM kb_items i
		JOIN kb_categories c ON c.id = i.category_id
		WHERE i.id = $1`)

	var i models.KBItem
	var c models.KBCategory
	err := r.db.QueryRow(query, id).Scan(
		&i.ID, &i.CategoryID, &i.Title, &i.Question, &i.Answer,
		&i.Votes, &i.Recommendations, &i.LastUpdated,
		&c.ID, &c.Title, &c.Slug, &c.Description,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get kb item %d: %w", id, err)
	}
	i.Category = &c
	return &i, nil
}

// RecordVote increments the vote counters for an item.
func (r *KBRepository) RecordVote(itemID uint, recommend bool) error {
	adapter := database.GetAdapter()

	var err error
	if recommend {
		_, err = adapter.Exec(r.db,
			`UPDATE kb_items SET votes = votes + 1, recommendations = recommendations + 1 WHERE id = $1`,
			itemID)
	} else {
		_, err = adapter.Exec(r.db,
			`UPDATE kb_items SET votes = votes + 1 WHERE id = $1`, itemID)
	}
	if err != nil {
		return fmt.Errorf("record vote for kb item %d: %w", itemID, err)
	}
	return nil
}
