package repository

import (
	"fmt"
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryQueueRepository implements IQueueRepository with in-memory storage
type MemoryQueueRepository struct {
	mu     sync.RWMutex
	queues map[uint]*models.Queue
	nextID uint
}

// NewMemoryQueueRepository creates a new in-memory queue repository
func NewMemoryQueueRepository() *MemoryQueueRepository {
	return &MemoryQueueRepository{
		queues: make(map[uint]*models.Queue),
		nextID: 1001,
	}
}

// Create saves a new queue to memory
func (r *MemoryQueueRepository) Create(queue *models.Queue) error {
	queue.EnsureDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	queue.ID = r.nextID
	r.nextID++

	stored := *queue
	r.queues[queue.ID] = &stored
	return nil
}

// GetByID retrieves a queue by ID. Missing queues return (nil, nil).
func (r *MemoryQueueRepository) GetByID(id uint) (*models.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.queues[id]
	if !exists {
		return nil, nil
	}
	queue := *stored
	return &queue, nil
}

// GetBySlug retrieves a queue by slug. Missing queues return (nil, nil).
func (r *MemoryQueueRepository) GetBySlug(slug string) (*models.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.queues {
		if stored.Slug == slug {
			queue := *stored
			return &queue, nil
		}
	}
	return nil, nil
}

// Update replaces a stored queue.
func (r *MemoryQueueRepository) Update(queue *models.Queue) error {
	queue.EnsureDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.queues[queue.ID]; !exists {
		return fmt.Errorf("queue not found: %d", queue.ID)
	}
	stored := *queue
	r.queues[queue.ID] = &stored
	return nil
}

// List returns all queues ordered by title.
func (r *MemoryQueueRepository) List() ([]*models.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queues := make([]*models.Queue, 0, len(r.queues))
	for _, stored := range r.queues {
		queue := *stored
		queues = append(queues, &queue)
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].Title < queues[j].Title })
	return queues, nil
}
