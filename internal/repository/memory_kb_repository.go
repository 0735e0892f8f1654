package repository

import (
	"fmt"
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryKBRepository implements IKBRepository with in-memory storage
type MemoryKBRepository struct {
	mu         sync.RWMutex
	categories map[uint]*models.KBCategory
	items      map[uint]*models.KBItem
	nextID     uint
}

// NewMemoryKBRepository creates a new in-memory knowledge base repository
func NewMemoryKBRepository() *MemoryKBRepository {
	return &MemoryKBRepository{
		categories: make(map[uint]*models.KBCategory),
		items:      make(map[uint]*models.KBItem),
		nextID:     1001,
	}
}

// AddCategory seeds a category. Test helper.
func (r *MemoryKBRepository) AddCategory(category *models.KBCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category.ID == 0 {
		category.ID = r.nextID
		r.nextID++
	}
	stored := *category
	r.categories[category.ID] = &stored
}

// AddItem seeds an item. Test helper.
func (r *MemoryKBRepository) AddItem(item *models.KBItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		item.ID = r.nextID
		r.nextID++
	}
	stored := *item
	stored.Category = nil
	r.items[item.ID] = &stored
}

// ListCategories returns all categories ordered by title.
func (r *MemoryKBRepository) ListCategories() ([]*models.KBCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]*models.KBCategory, 0, len(r.categories))
	for _, stored := range r.categories {
		category := *stored
		categories = append(categories, &category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Title < categories[j].Title })
	return categories, nil
}

// GetCategoryBySlug retrieves a category. Missing rows return (nil, nil).
func (r *MemoryKBRepository) GetCategoryBySlug(slug string) (*models.KBCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.categories {
		if stored.Slug == slug {
			category := *stored
			return &category, nil
		}
	}
	return nil, nil
}

// ListItems returns a category's items ordered by title.
func (r *MemoryKBRepository) ListItems(categoryID uint) ([]*models.KBItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*models.KBItem
	for _, stored := range r.items {
		if stored.CategoryID == categoryID {
			item := *stored
			items = append(items, &item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return items, nil
}

// GetItem retrieves an item with its category joined in. Missing rows
// return (nil, nil).
func (r *MemoryKBRepository) GetItem(id uint) (*models.KBItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.items[id]
	if !exists {
		return nil, nil
	}
	item := *stored
	if category, exists := r.categories[item.CategoryID]; exists {
		c := *category
		item.Category = &c
	}
	return &item, nil
}

// RecordVote increments the vote counters for an item.
func (r *MemoryKBRepository) RecordVote(itemID uint, recommend bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[itemID]
	if !exists {
		return fmt.Errorf("kb item not found: %d", itemID)
	}
	stored.Votes++
	if recommend {
		stored.Recommendations++
	}
	return nil
}
