package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/history"
	"github.com/helpdesk-io/helpdesk-ce/internal/lifecycle"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// Bulk actions accepted by MassUpdate.
const (
	BulkAssign      = "assign"
	BulkTake        = "take"
	BulkUnassign    = "unassign"
	BulkClose       = "close"
	BulkClosePublic = "close_public"
	BulkDelete      = "delete"
)

// MassUpdateRequest applies one action across a ticket id list. AssigneeID
// is consulted for BulkAssign only; BulkTake assigns to the acting user.
type MassUpdateRequest struct {
	TicketIDs  []uint
	Action     string
	AssigneeID uint
}

// MassUpdateResult reports which tickets the action touched. Skipped covers
// missing ids, tickets outside the caller's queues, and no-op targets such
// as closing an already closed ticket.
type MassUpdateResult struct {
	Updated []uint `json:"updated"`
	Skipped []uint `json:"skipped"`
}

// MassUpdate runs one bulk action over the listed tickets. Inaccessible and
// unchanged tickets are skipped, never failed; a repository error aborts the
// run. Only the public close variant notifies anyone.
func (s *TicketService) MassUpdate(ctx context.Context, id *access.Identity, req *MassUpdateRequest) (*MassUpdateResult, error) {
	actor := actingUser(id)
	if actor == nil {
		return nil, fmt.Errorf("bulk actions are a staff operation: %w", ErrPermission)
	}
	if len(req.TicketIDs) == 0 {
		return nil, fmt.Errorf("no tickets selected: %w", ErrValidation)
	}

	var assignee *models.User
	var err error
	switch req.Action {
	case BulkAssign:
		if assignee, err = s.requireUser(req.AssigneeID); err != nil {
			return nil, err
		}
	case BulkTake:
		assignee = actor
	case BulkUnassign, BulkClose, BulkClosePublic, BulkDelete:
	default:
		return nil, fmt.Errorf("unknown bulk action %q: %w", req.Action, ErrValidation)
	}

	result := &MassUpdateResult{}
	for _, ticketID := range req.TicketIDs {
		ticket, queue, err := s.loadAuthorized(id, ticketID)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermission) {
				result.Skipped = append(result.Skipped, ticketID)
				continue
			}
			return nil, err
		}

		changed, err := s.applyBulkAction(ctx, actor, ticket, queue, req.Action, assignee)
		if err != nil {
			return nil, err
		}
		if changed {
			result.Updated = append(result.Updated, ticketID)
		} else {
			result.Skipped = append(result.Skipped, ticketID)
		}
	}
	return result, nil
}

func (s *TicketService) applyBulkAction(ctx context.Context, actor *models.User, ticket *models.Ticket, queue *models.Queue, action string, assignee *models.User) (bool, error) {
	switch action {
	case BulkAssign, BulkTake:
		if ticket.AssignedToID != nil && *ticket.AssignedToID == assignee.ID {
			return false, nil
		}
		ticket.AssignedToID = &assignee.ID
		_, err := s.recordFollowUp(ctx, ticket, actor, followUpSpec{
			title:  history.AssignedInBulkTitle(assignee.DisplayName()),
			public: true,
		})
		return err == nil, err

	case BulkUnassign:
		if ticket.AssignedToID == nil {
			return false, nil
		}
		ticket.AssignedToID = nil
		_, err := s.recordFollowUp(ctx, ticket, actor, followUpSpec{
			title:  history.TitleUnassignedInBulk,
			public: true,
		})
		return err == nil, err

	case BulkClose, BulkClosePublic:
		if ticket.Status == models.StatusClosed {
			return false, nil
		}
		lifecycle.Transition(ticket, models.StatusClosed, s.now())
		closed := models.StatusClosed
		_, err := s.recordFollowUp(ctx, ticket, actor, followUpSpec{
			title:     history.TitleClosedInBulk,
			public:    action == BulkClosePublic,
			newStatus: &closed,
		})
		if err != nil {
			return false, err
		}
		if action == BulkClosePublic {
			if err := s.attachDisplayRefs(ticket); err != nil {
				return false, err
			}
			tctx := template.SafeContext(ticket, queue, s.defaultFrom())
			tctx["resolution"] = models.DerefString(ticket.Resolution)
			s.fanout.Dispatch(ctx, ticket, queue, notifications.Event{Public: true, Closed: true}, tctx, actor, nil)
		}
		return true, nil

	case BulkDelete:
		if err := s.tickets.Delete(ticket.ID); err != nil {
			return false, fmt.Errorf("failed to delete ticket %d: %w", ticket.ID, err)
		}
		return true, cache.InvalidateDerived(ctx, s.cache)
	}
	return false, fmt.Errorf("unknown bulk action %q: %w", action, ErrValidation)
}
