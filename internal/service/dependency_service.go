package service

import (
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/lifecycle"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// DependencyService manages the directed blocks-resolution edges between
// tickets.
type DependencyService struct {
	tickets repository.ITicketRepository
	queues  repository.IQueueRepository
	deps    repository.IDependencyRepository
	checker *access.Checker
}

// NewDependencyService creates a new dependency service.
func NewDependencyService(
	tickets repository.ITicketRepository,
	queues repository.IQueueRepository,
	deps repository.IDependencyRepository,
	cfg *config.Config,
) *DependencyService {
	return &DependencyService{
		tickets: tickets,
		queues:  queues,
		deps:    deps,
		checker: access.NewChecker(cfg.Helpdesk.PerQueuePermissions),
	}
}

// Add records that ticket cannot resolve until dependsOn resolves. Rejects
// self-reference and duplicates in either direction, since a reversed edge
// would deadlock both tickets.
func (s *DependencyService) Add(id *access.Identity, ticketID, dependsOnID uint) (*models.TicketDependency, error) {
	ticket, _, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
	if err != nil {
		return nil, err
	}
	if ticketID == dependsOnID {
		return nil, fmt.Errorf("a ticket cannot depend on itself: %w", ErrValidation)
	}

	target, err := s.tickets.GetByID(dependsOnID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket %d: %w", dependsOnID, err)
	}
	if target == nil {
		return nil, fmt.Errorf("ticket %d does not exist: %w", dependsOnID, ErrValidation)
	}

	exists, err := s.deps.Exists(ticketID, dependsOnID)
	if err != nil {
		return nil, fmt.Errorf("failed to check dependency: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("ticket %d already depends on ticket %d: %w", ticketID, dependsOnID, ErrValidation)
	}
	reversed, err := s.deps.Exists(dependsOnID, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to check dependency: %w", err)
	}
	if reversed {
		return nil, fmt.Errorf("ticket %d already depends on ticket %d: %w", dependsOnID, ticketID, ErrValidation)
	}

	dep := &models.TicketDependency{TicketID: ticket.ID, DependsOnID: dependsOnID}
	if err := s.deps.Create(dep); err != nil {
		return nil, fmt.Errorf("failed to create dependency: %w", err)
	}
	dep.DependsOn = target
	return dep, nil
}

// List returns the ticket's dependencies with their target tickets joined.
func (s *DependencyService) List(id *access.Identity, ticketID uint) ([]*models.TicketDependency, error) {
	ticket, _, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
	if err != nil {
		return nil, err
	}
	list, err := s.deps.ListByTicket(ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	for _, dep := range list {
		if target, err := s.tickets.GetByID(dep.DependsOnID); err == nil && target != nil {
			dep.DependsOn = target
		}
	}
	return list, nil
}

// Remove deletes a dependency edge. The edge must belong to the given
// ticket.
func (s *DependencyService) Remove(id *access.Identity, ticketID, depID uint) error {
	ticket, _, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
	if err != nil {
		return err
	}
	list, err := s.deps.ListByTicket(ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to list dependencies: %w", err)
	}
	for _, dep := range list {
		if dep.ID == depID {
			if err := s.deps.Delete(depID); err != nil {
				return fmt.Errorf("failed to delete dependency: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("dependency %d on ticket %d: %w", depID, ticketID, ErrNotFound)
}

// CanBeResolved reports whether every ticket this one depends on has left
// the open statuses. The result is advisory: the update workflow never
// blocks on it.
func (s *DependencyService) CanBeResolved(id *access.Identity, ticketID uint) (bool, error) {
	ticket, _, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
	if err != nil {
		return false, err
	}
	list, err := s.deps.ListByTicket(ticket.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list dependencies: %w", err)
	}
	targets := make([]*models.Ticket, 0, len(list))
	for _, dep := range list {
		target, err := s.tickets.GetByID(dep.DependsOnID)
		if err != nil {
			return false, fmt.Errorf("failed to load ticket %d: %w", dep.DependsOnID, err)
		}
		targets = append(targets, target)
	}
	return lifecycle.CanBeResolved(targets), nil
}
