package repository

import (
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryFollowUpRepository implements IFollowUpRepository with in-memory
// storage
type MemoryFollowUpRepository struct {
	mu          sync.RWMutex
	followUps   map[uint]*models.FollowUp
	changes     map[uint][]models.TicketChange
	attachments map[uint][]models.Attachment
	nextID      uint
}

// NewMemoryFollowUpRepository creates a new in-memory follow-up repository
func NewMemoryFollowUpRepository() *MemoryFollowUpRepository {
	return &MemoryFollowUpRepository{
		followUps:   make(map[uint]*models.FollowUp),
		changes:     make(map[uint][]models.TicketChange),
		attachments: make(map[uint][]models.Attachment),
		nextID:      1001,
	}
}

// Create saves a new follow-up to memory
func (r *MemoryFollowUpRepository) Create(followUp *models.FollowUp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	followUp.ID = r.nextID
	r.nextID++

	stored := *followUp
	stored.Changes = nil
	stored.Attachments = nil
	r.followUps[followUp.ID] = &stored
	return nil
}

// GetByID retrieves a follow-up by ID. Missing rows return (nil, nil).
func (r *MemoryFollowUpRepository) GetByID(id uint) (*models.FollowUp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.followUps[id]
	if !exists {
		return nil, nil
	}
	followUp := *stored
	return &followUp, nil
}

// ListByTicket returns a ticket's follow-ups in chronological order.
func (r *MemoryFollowUpRepository) ListByTicket(ticketID uint) ([]*models.FollowUp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var followUps []*models.FollowUp
	for _, stored := range r.followUps {
		if stored.TicketID == ticketID {
			followUp := *stored
			followUps = append(followUps, &followUp)
		}
	}
	sort.Slice(followUps, func(i, j int) bool {
		if followUps[i].Date.Equal(followUps[j].Date) {
			return followUps[i].ID < followUps[j].ID
		}
		return followUps[i].Date.Before(followUps[j].Date)
	})
	return followUps, nil
}

// AddChanges records field-level diff rows for a follow-up.
func (r *MemoryFollowUpRepository) AddChanges(followUpID uint, changes []models.TicketChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range changes {
		changes[i].ID = r.nextID
		r.nextID++
		changes[i].FollowUpID = followUpID
		r.changes[followUpID] = append(r.changes[followUpID], changes[i])
	}
	return nil
}

// ListChanges returns the diff rows for a follow-up.
func (r *MemoryFollowUpRepository) ListChanges(followUpID uint) ([]models.TicketChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.changes[followUpID]
	changes := make([]models.TicketChange, len(stored))
	copy(changes, stored)
	return changes, nil
}

// AddAttachment records attachment metadata for a follow-up.
func (r *MemoryFollowUpRepository) AddAttachment(attachment *models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attachment.ID = r.nextID
	r.nextID++
	r.attachments[attachment.FollowUpID] = append(r.attachments[attachment.FollowUpID], *attachment)
	return nil
}

// GetAttachment retrieves one attachment row. Missing rows return (nil, nil).
func (r *MemoryFollowUpRepository) GetAttachment(id uint) (*models.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.attachments {
		for _, a := range stored {
			if a.ID == id {
				attachment := a
				return &attachment, nil
			}
		}
	}
	return nil, nil
}

// DeleteAttachment removes an attachment row.
func (r *MemoryFollowUpRepository) DeleteAttachment(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for followUpID, stored := range r.attachments {
		for i, a := range stored {
			if a.ID == id {
				r.attachments[followUpID] = append(stored[:i:i], stored[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

// ListAttachments returns the attachments recorded against a follow-up.
func (r *MemoryFollowUpRepository) ListAttachments(followUpID uint) ([]models.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.attachments[followUpID]
	attachments := make([]models.Attachment, len(stored))
	copy(attachments, stored)
	return attachments, nil
}

// HasPublicStaffFollowUp reports whether any public follow-up authored by a
// staff user exists on the ticket.
func (r *MemoryFollowUpRepository) HasPublicStaffFollowUp(ticketID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.followUps {
		if stored.TicketID == ticketID && stored.Public && stored.UserID != nil {
			return true, nil
		}
	}
	return false, nil
}
