package repository

import (
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryExclusionRepository implements IExclusionRepository with in-memory
// storage
type MemoryExclusionRepository struct {
	mu         sync.RWMutex
	exclusions map[uint]*models.EscalationExclusion
	nextID     uint
}

// NewMemoryExclusionRepository creates a new in-memory exclusion repository
func NewMemoryExclusionRepository() *MemoryExclusionRepository {
	return &MemoryExclusionRepository{
		exclusions: make(map[uint]*models.EscalationExclusion),
		nextID:     1001,
	}
}

// Create saves a new exclusion to memory
func (r *MemoryExclusionRepository) Create(exclusion *models.EscalationExclusion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exclusion.ID = r.nextID
	r.nextID++

	stored := *exclusion
	r.exclusions[exclusion.ID] = &stored
	return nil
}

// List returns all exclusions ordered by date.
func (r *MemoryExclusionRepository) List() ([]*models.EscalationExclusion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exclusions := make([]*models.EscalationExclusion, 0, len(r.exclusions))
	for _, stored := range r.exclusions {
		exclusion := *stored
		exclusions = append(exclusions, &exclusion)
	}
	sort.Slice(exclusions, func(i, j int) bool { return exclusions[i].Date.Before(exclusions[j].Date) })
	return exclusions, nil
}

// MemoryIgnoreRepository implements IIgnoreRepository with in-memory storage
type MemoryIgnoreRepository struct {
	mu      sync.RWMutex
	entries map[uint]*models.IgnoreEmail
	nextID  uint
}

// NewMemoryIgnoreRepository creates a new in-memory ignore list repository
func NewMemoryIgnoreRepository() *MemoryIgnoreRepository {
	return &MemoryIgnoreRepository{
		entries: make(map[uint]*models.IgnoreEmail),
		nextID:  1001,
	}
}

// Create saves a new ignore entry to memory
func (r *MemoryIgnoreRepository) Create(entry *models.IgnoreEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = r.nextID
	r.nextID++

	stored := *entry
	r.entries[entry.ID] = &stored
	return nil
}

// List returns all ignore entries ordered by address.
func (r *MemoryIgnoreRepository) List() ([]*models.IgnoreEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*models.IgnoreEmail, 0, len(r.entries))
	for _, stored := range r.entries {
		entry := *stored
		entries = append(entries, &entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EmailAddress < entries[j].EmailAddress })
	return entries, nil
}
