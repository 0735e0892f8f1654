package repository

import (
	"fmt"
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryTicketRepository implements ITicketRepository with in-memory storage
// This is for development/testing. Production should use the SQL implementation.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[uint]*models.Ticket
	nextID  uint
}

// NewMemoryTicketRepository creates a new in-memory ticket repository
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[uint]*models.Ticket),
		nextID:  1001, // Start from 1001 to avoid conflicts with seed data
	}
}

// Create saves a new ticket to memory
func (r *MemoryTicketRepository) Create(ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket.ID = r.nextID
	r.nextID++

	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

// GetByID retrieves a ticket by ID. Missing tickets return (nil, nil).
func (r *MemoryTicketRepository) GetByID(id uint) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.tickets[id]
	if !exists {
		return nil, nil
	}
	ticket := *stored
	return &ticket, nil
}

// Update replaces a stored ticket.
func (r *MemoryTicketRepository) Update(ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[ticket.ID]; !exists {
		return fmt.Errorf("ticket not found: %d", ticket.ID)
	}
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

// Delete removes a ticket.
func (r *MemoryTicketRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tickets, id)
	return nil
}

// List returns all tickets, newest first.
func (r *MemoryTicketRepository) List() ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*models.Ticket, 0, len(r.tickets))
	for _, stored := range r.tickets {
		ticket := *stored
		tickets = append(tickets, &ticket)
	}
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].Created.Equal(tickets[j].Created) {
			return tickets[i].ID > tickets[j].ID
		}
		return tickets[i].Created.After(tickets[j].Created)
	})
	return tickets, nil
}

// ListMergedInto returns the tickets merged into the given target.
func (r *MemoryTicketRepository) ListMergedInto(targetID uint) ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []*models.Ticket
	for _, stored := range r.tickets {
		if stored.MergedToID != nil && *stored.MergedToID == targetID {
			ticket := *stored
			tickets = append(tickets, &ticket)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return tickets, nil
}

// ListOpenByQueue returns a queue's open and reopened tickets.
func (r *MemoryTicketRepository) ListOpenByQueue(queueID uint) ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []*models.Ticket
	for _, stored := range r.tickets {
		if stored.QueueID == queueID && (stored.Status == models.StatusOpen || stored.Status == models.StatusReopened) {
			ticket := *stored
			tickets = append(tickets, &ticket)
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].Created.Equal(tickets[j].Created) {
			return tickets[i].ID < tickets[j].ID
		}
		return tickets[i].Created.Before(tickets[j].Created)
	})
	return tickets, nil
}
