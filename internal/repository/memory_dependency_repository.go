package repository

import (
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryDependencyRepository implements IDependencyRepository with in-memory
// storage. ListByTicket joins blocking tickets from the paired ticket
// repository the way the SQL implementation joins the tickets table.
type MemoryDependencyRepository struct {
	mu      sync.RWMutex
	deps    map[uint]*models.TicketDependency
	nextID  uint
	tickets ITicketRepository
}

// NewMemoryDependencyRepository creates a new in-memory dependency repository
func NewMemoryDependencyRepository(tickets ITicketRepository) *MemoryDependencyRepository {
	return &MemoryDependencyRepository{
		deps:    make(map[uint]*models.TicketDependency),
		nextID:  1001,
		tickets: tickets,
	}
}

// Create saves a new dependency edge to memory
func (r *MemoryDependencyRepository) Create(dep *models.TicketDependency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dep.ID = r.nextID
	r.nextID++

	stored := *dep
	stored.DependsOn = nil
	r.deps[dep.ID] = &stored
	return nil
}

// ListByTicket returns a ticket's dependencies with blocking tickets joined in.
func (r *MemoryDependencyRepository) ListByTicket(ticketID uint) ([]*models.TicketDependency, error) {
	r.mu.RLock()
	var deps []*models.TicketDependency
	for _, stored := range r.deps {
		if stored.TicketID == ticketID {
			dep := *stored
			deps = append(deps, &dep)
		}
	}
	r.mu.RUnlock()

	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })

	for _, dep := range deps {
		ticket, err := r.tickets.GetByID(dep.DependsOnID)
		if err != nil {
			return nil, err
		}
		dep.DependsOn = ticket
	}
	return deps, nil
}

// Exists reports whether the edge ticket -> dependsOn is already recorded.
func (r *MemoryDependencyRepository) Exists(ticketID, dependsOnID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.deps {
		if stored.TicketID == ticketID && stored.DependsOnID == dependsOnID {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes a dependency edge.
func (r *MemoryDependencyRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.deps, id)
	return nil
}
