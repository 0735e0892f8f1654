package repository

import (
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryCCRepository implements ICCRepository with in-memory storage
type MemoryCCRepository struct {
	mu     sync.RWMutex
	ccs    map[uint]*models.TicketCC
	nextID uint
}

// NewMemoryCCRepository creates a new in-memory CC repository
func NewMemoryCCRepository() *MemoryCCRepository {
	return &MemoryCCRepository{
		ccs:    make(map[uint]*models.TicketCC),
		nextID: 1001,
	}
}

// Create saves a new subscription to memory
func (r *MemoryCCRepository) Create(cc *models.TicketCC) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cc.ID = r.nextID
	r.nextID++

	stored := *cc
	r.ccs[cc.ID] = &stored
	return nil
}

// ListByTicket returns a ticket's subscriptions.
func (r *MemoryCCRepository) ListByTicket(ticketID uint) ([]*models.TicketCC, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ccs []*models.TicketCC
	for _, stored := range r.ccs {
		if stored.TicketID == ticketID {
			cc := *stored
			ccs = append(ccs, &cc)
		}
	}
	sort.Slice(ccs, func(i, j int) bool { return ccs[i].ID < ccs[j].ID })
	return ccs, nil
}

// Delete removes a subscription.
func (r *MemoryCCRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ccs, id)
	return nil
}
