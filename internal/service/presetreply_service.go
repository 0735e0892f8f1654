package service

import (
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// PresetReplyService serves canned responses for the staff update form.
// Bodies pass through the same restricted template context as follow-up
// comments when applied to a ticket.
type PresetReplyService struct {
	tickets     repository.ITicketRepository
	queues      repository.IQueueRepository
	replies     repository.IPresetReplyRepository
	renderer    *template.Renderer
	checker     *access.Checker
	defaultFrom string
}

// NewPresetReplyService creates a new preset reply service.
func NewPresetReplyService(
	tickets repository.ITicketRepository,
	queues repository.IQueueRepository,
	replies repository.IPresetReplyRepository,
	renderer *template.Renderer,
	cfg *config.Config,
) *PresetReplyService {
	return &PresetReplyService{
		tickets:     tickets,
		queues:      queues,
		replies:     replies,
		renderer:    renderer,
		checker:     access.NewChecker(cfg.Helpdesk.PerQueuePermissions),
		defaultFrom: cfg.Email.DefaultFrom,
	}
}

// ListForQueue returns the canned responses offered for a queue: replies
// without a queue restriction plus those naming the queue. Staff only.
func (s *PresetReplyService) ListForQueue(id *access.Identity, queueID uint) ([]*models.PresetReply, error) {
	if id == nil || id.User == nil {
		return nil, ErrPermission
	}
	queue, err := s.queues.GetByID(queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	if queue == nil {
		return nil, fmt.Errorf("queue %d: %w", queueID, ErrNotFound)
	}
	if !s.checker.CanAccessQueue(id, queue) {
		return nil, ErrPermission
	}
	replies, err := s.replies.ListForQueue(queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preset replies: %w", err)
	}
	return replies, nil
}

// Render resolves a canned response against a ticket and returns its body
// with the ticket's fields substituted. A reply restricted to a different
// queue is not found. Template-control syntax in the stored body comes out
// literally, like comment text.
func (s *PresetReplyService) Render(id *access.Identity, ticketID, replyID uint) (string, error) {
	if id == nil || id.User == nil {
		return "", ErrPermission
	}
	ticket, queue, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
	if err != nil {
		return "", err
	}

	replies, err := s.replies.ListForQueue(queue.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list preset replies: %w", err)
	}
	var reply *models.PresetReply
	for _, candidate := range replies {
		if candidate.ID == replyID {
			reply = candidate
			break
		}
	}
	if reply == nil {
		return "", fmt.Errorf("preset reply %d: %w", replyID, ErrNotFound)
	}

	body, err := s.renderer.RenderComment(reply.Body, template.SafeContext(ticket, queue, s.defaultFrom))
	if err != nil {
		return "", fmt.Errorf("render preset reply %d: %w", replyID, ErrValidation)
	}
	return body, nil
}
