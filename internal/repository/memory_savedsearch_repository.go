package repository

import (
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemorySavedSearchRepository implements ISavedSearchRepository with
// in-memory storage
type MemorySavedSearchRepository struct {
	mu       sync.RWMutex
	searches map[uint]*models.SavedSearch
	nextID   uint
}

// NewMemorySavedSearchRepository creates a new in-memory saved search
// repository
func NewMemorySavedSearchRepository() *MemorySavedSearchRepository {
	return &MemorySavedSearchRepository{
		searches: make(map[uint]*models.SavedSearch),
		nextID:   1001,
	}
}

// Create saves a new search to memory
func (r *MemorySavedSearchRepository) Create(search *models.SavedSearch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	search.ID = r.nextID
	r.nextID++

	stored := *search
	r.searches[search.ID] = &stored
	return nil
}

// GetByID retrieves a search by ID. Missing rows return (nil, nil).
func (r *MemorySavedSearchRepository) GetByID(id uint) (*models.SavedSearch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.searches[id]
	if !exists {
		return nil, nil
	}
	search := *stored
	return &search, nil
}

// ListVisibleTo returns the searches a user may load.
func (r *MemorySavedSearchRepository) ListVisibleTo(userID uint) ([]*models.SavedSearch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var searches []*models.SavedSearch
	for _, stored := range r.searches {
		if stored.VisibleTo(userID) {
			search := *stored
			searches = append(searches, &search)
		}
	}
	sort.Slice(searches, func(i, j int) bool { return searches[i].Title < searches[j].Title })
	return searches, nil
}

// Delete removes a search.
func (r *MemorySavedSearchRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.searches, id)
	return nil
}
