package service

import (
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// loadTicketAuthorized loads a ticket with its queue joined and applies the
// two capability checks: staff callers need access to the queue, everyone
// needs the ticket to be visible to them. The permission error stays
// generic so a denial never confirms the ticket exists.
func loadTicketAuthorized(tickets repository.ITicketRepository, queues repository.IQueueRepository, checker *access.Checker, id *access.Identity, ticketID uint) (*models.Ticket, *models.Queue, error) {
	ticket, err := tickets.GetByID(ticketID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket == nil {
		return nil, nil, fmt.Errorf("ticket %d: %w", ticketID, ErrNotFound)
	}
	queue, err := queues.GetByID(ticket.QueueID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load queue: %w", err)
	}
	if queue == nil {
		return nil, nil, fmt.Errorf("queue %d: %w", ticket.QueueID, ErrNotFound)
	}
	ticket.Queue = queue

	if id != nil && id.User != nil && !checker.CanAccessQueue(id, queue) {
		return nil, nil, ErrPermission
	}
	if !checker.IsTicketVisibleTo(id, ticket) {
		return nil, nil, ErrPermission
	}
	return ticket, queue, nil
}

// accessibleTicketSet returns the queues the caller can access and every
// ticket in them. Search and reporting both start from this set, so a
// filter or report can never widen what the caller sees.
func accessibleTicketSet(tickets repository.ITicketRepository, queues repository.IQueueRepository, checker *access.Checker, id *access.Identity) ([]*models.Ticket, []*models.Queue, error) {
	all, err := queues.List()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list queues: %w", err)
	}
	accessible := checker.AccessibleQueues(id, all)
	allowed := make(map[uint]bool, len(accessible))
	for _, q := range accessible {
		allowed[q.ID] = true
	}

	list, err := tickets.List()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	visible := make([]*models.Ticket, 0, len(list))
	for _, ticket := range list {
		if allowed[ticket.QueueID] {
			visible = append(visible, ticket)
		}
	}
	return visible, accessible, nil
}
