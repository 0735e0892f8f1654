package repository

import (
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryLookupRepository implements ILookupRepository over seeded maps.
// Classifier records are owned by the surrounding application, so tests seed
// them directly.
type MemoryLookupRepository struct {
	mu        sync.RWMutex
	Cats      map[uint]*models.Category
	Types     map[uint]*models.TicketType
	Customers map[uint]*models.Customer
	Contacts  map[uint]*models.CustomerContact
	Sites     map[uint]*models.Site
	Products  map[uint]*models.CustomerProduct
}

// NewMemoryLookupRepository creates a new in-memory lookup repository
func NewMemoryLookupRepository() *MemoryLookupRepository {
	return &MemoryLookupRepository{
		Cats:      make(map[uint]*models.Category),
		Types:     make(map[uint]*models.TicketType),
		Customers: make(map[uint]*models.Customer),
		Contacts:  make(map[uint]*models.CustomerContact),
		Sites:     make(map[uint]*models.Site),
		Products:  make(map[uint]*models.CustomerProduct),
	}
}

// GetCategory retrieves a category. Missing rows return (nil, nil).
func (r *MemoryLookupRepository) GetCategory(id uint) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stored, exists := r.Cats[id]; exists {
		c := *stored
		return &c, nil
	}
	return nil, nil
}

// GetTicketType retrieves a ticket type. Missing rows return (nil, nil).
func (r *MemoryLookupRepository) GetTicketType(id uint) (*models.TicketType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stored, exists := r.Types[id]; exists {
		t := *stored
		return &t, nil
	}
	return nil, nil
}

// GetCustomer retrieves a customer. Missing rows return (nil, nil).
func (r *MemoryLookupRepository) GetCustomer(id uint) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stored, exists := r.Customers[id]; exists {
		c := *stored
		return &c, nil
	}
	return nil, nil
}

// GetCustomerContact retrieves a contact. Missing rows return (nil, nil).
func (r *MemoryLookupRepository) GetCustomerContact(id uint) (*models.CustomerContact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stored, exists := r.Contacts[id]; exists {
		c := *stored
		return &c, nil
	}
	return nil, nil
}

// GetSite retrieves a site. Missing rows return (nil, nil).
func (r *MemoryLookupRepository) GetSite(id uint) (*models.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stored, exists := r.Sites[id]; exists {
		s := *stored
		return &s, nil
	}
	return nil, nil
}

// GetCustomerProduct retrieves a product instance. Missing rows return (nil, nil).
func (r *MemoryLookupRepository) GetCustomerProduct(id uint) (*models.CustomerProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stored, exists := r.Products[id]; exists {
		p := *stored
		return &p, nil
	}
	return nil, nil
}
