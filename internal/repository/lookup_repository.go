package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// LookupRepository resolves classifier IDs to their display records. These
// tables are owned by the surrounding application; only reads happen here.
type LookupRepository struct {
	db *sql.DB
}

// NewLookupRepository creates a new lookup repository
func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// GetCategory retrieves a category. Missing rows return (nil, nil).
func (r *LookupRepository) GetCategory(id uint) (*models.Category, error) {
	query := database.ConvertPlaceholders(`SELECT id, name FROM categories WHERE id = $1`)

	var c models.Category
	err := r.db.QueryRow(query, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

// GetTicketType retrieves a ticket type. Missing rows return (nil, nil).
func (r *LookupRepository) GetTicketType(id uint) (*models.TicketType, error) {
	query := database.ConvertPlaceholders(`SELECT id, name FROM ticket_types WHERE id = $1`)

	var t models.TicketType
	err := r.db.QueryRow(query, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket type %d: %w", id, err)
	}
	return &t, nil
}

// GetCustomer retrieves a customer. Missing rows return (nil, nil).
func (r *LookupRepository) GetCustomer(id uint) (*models.Customer, error) {
	query := database.ConvertPlaceholders(`SELECT id, name FROM customers WHERE id = $1`)

	var c models.Customer
	err := r.db.QueryRow(query, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return &c, nil
}

// GetCustomerContact retrieves a contact. Missing rows return (nil, nil).
func (r *LookupRepository) GetCustomerContact(id uint) (*models.CustomerContact, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, customer_id, name, email FROM customer_contacts WHERE id = $1`)

	var c models.CustomerContact
	err := r.db.QueryRow(query, id).Scan(&c.ID, &c.CustomerID, &c.Name, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer contact %d: %w", id, err)
	}
	return &c, nil
}

// GetSite retrieves a site. Missing rows return (nil, nil).
func (r *LookupRepository) GetSite(id uint) (*models.Site, error) {
	query := database.ConvertPlaceholders(`SELECT id, customer_id, name FROM sites WHERE id = $1`)

	var s models.Site
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.CustomerID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site %d: %w", id, err)
	}
	return &s, nil
}

// GetCustomerProduct retrieves a product instance. Missing rows return (nil, nil).
func (r *LookupRepository) GetCustomerProduct(id uint) (*models.CustomerProduct, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, customer_id, name FROM customer_products WHERE id = $1`)

	var p models.CustomerProduct
	err := r.db.QueryRow(query, id).Scan(&p.ID, &p.CustomerID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer product %d: %w", id, err)
	}
	return &p, nil
}
