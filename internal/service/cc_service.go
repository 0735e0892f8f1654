package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// CCService manages ticket subscription lists.
type CCService struct {
	tickets repository.ITicketRepository
	queues  repository.IQueueRepository
	ccs     repository.ICCRepository
	users   repository.IUserRepository
	checker *access.Checker
}

// NewCCService creates a new CC service.
func NewCCService(
	tickets repository.ITicketRepository,
	queues repository.IQueueRepository,
	ccs repository.ICCRepository,
	users repository.IUserRepository,
	cfg *config.Config,
) *CCService {
	return &CCService{
		tickets: tickets,
		queues:  queues,
		ccs:     ccs,
		users:   users,
		checker: access.NewChecker(cfg.Helpdesk.PerQueuePermissions),
	}
}

// AddCCRequest subscribes either a known user or a bare address, never both.
type AddCCRequest struct {
	TicketID uint
	UserID   uint
	Email    string
}

// Add subscribes a user or an address to the ticket. The same identity
// cannot be subscribed twice: the assignee, an existing CC entry, and the
// submitter address all count as already subscribed.
func (s *CCService) Add(id *access.Identity, req *AddCCRequest) (*models.TicketCC, error) {
	ticket, _, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, req.TicketID)
	if err != nil {
		return nil, err
	}
	if req.UserID != 0 && req.Email != "" {
		return nil, fmt.Errorf("subscribe a user or an address, not both: %w", ErrValidation)
	}

	list, err := s.ccs.ListByTicket(ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket CCs: %w", err)
	}

	if req.UserID != 0 {
		user, err := s.users.GetByID(req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		if user == nil {
			return nil, fmt.Errorf("user %d does not exist: %w", req.UserID, ErrValidation)
		}
		if userAlreadySubscribed(ticket, list, user) {
			return nil, fmt.Errorf("user %q already follows ticket %d: %w", user.DisplayName(), ticket.ID, ErrValidation)
		}
		cc := &models.TicketCC{TicketID: ticket.ID, UserID: &user.ID, CanView: true, CanUpdate: true, User: user}
		if err := s.ccs.Create(cc); err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
		return cc, nil
	}

	addr := strings.TrimSpace(req.Email)
	if addr == "" {
		return nil, fmt.Errorf("a user or an e-mail address is required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return nil, fmt.Errorf("%q is not a valid e-mail address: %w", addr, ErrValidation)
	}
	if emailAlreadySubscribed(ticket, list, addr) {
		return nil, fmt.Errorf("%q already receives updates for ticket %d: %w", addr, ticket.ID, ErrValidation)
	}
	cc := &models.TicketCC{TicketID: ticket.ID, Email: &addr, CanView: true}
	if err := s.ccs.Create(cc); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return cc, nil
}

// List returns the ticket's subscriptions with linked users joined in.
func (s *CCService) List(id *access.Identity, ticketID uint) ([]*models.TicketCC, error) {
	ticket, _, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
	if err != nil {
		return nil, err
	}
	list, err := s.ccs.ListByTicket(ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket CCs: %w", err)
	}
	for _, cc := range list {
		if cc.UserID == nil || cc.User != nil {
			continue
		}
		if user, err := s.users.GetByID(*cc.UserID); err == nil && user != nil {
			cc.User = user
		}
	}
	return list, nil
}

// Remove deletes a subscription. The entry must belong to the given ticket,
// so one ticket's route can never drop another ticket's subscriber.
func (s *CCService) Remove(id *access.Identity, ticketID, ccID uint) error {
	ticket, _, err := loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
	if err != nil {
		return err
	}
	list, err := s.ccs.ListByTicket(ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to list ticket CCs: %w", err)
	}
	for _, cc := range list {
		if cc.ID == ccID {
			if err := s.ccs.Delete(ccID); err != nil {
				return fmt.Errorf("failed to delete subscription: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("subscription %d on ticket %d: %w", ccID, ticketID, ErrNotFound)
}

// subscribeUserIfNotIn adds the user as a viewing and updating subscriber
// unless they already follow the ticket. Used by the update workflow's
// auto-subscribe step.
func subscribeUserIfNotIn(ccs repository.ICCRepository, ticket *models.Ticket, user *models.User) error {
	list, err := ccs.ListByTicket(ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to list ticket CCs: %w", err)
	}
	if userAlreadySubscribed(ticket, list, user) {
		return nil
	}
	cc := &models.TicketCC{TicketID: ticket.ID, UserID: &user.ID, CanView: true, CanUpdate: true, User: user}
	if err := ccs.Create(cc); err != nil {
		return fmt.Errorf("failed to subscribe user %d: %w", user.ID, err)
	}
	return nil
}

// userAlreadySubscribed reports whether the user already follows the ticket
// as assignee, CC entry, or through a subscribed address.
func userAlreadySubscribed(ticket *models.Ticket, list []*models.TicketCC, user *models.User) bool {
	if ticket.AssignedToID != nil && *ticket.AssignedToID == user.ID {
		return true
	}
	for _, cc := range list {
		if cc.UserID != nil && *cc.UserID == user.ID {
			return true
		}
	}
	return user.Email != "" && emailAlreadySubscribed(ticket, list, user.Email)
}

// emailAlreadySubscribed reports whether the address already receives the
// ticket's updates as submitter or CC entry. Addresses match
// case-insensitively.
func emailAlreadySubscribed(ticket *models.Ticket, list []*models.TicketCC, addr string) bool {
	if strings.EqualFold(models.DerefString(ticket.SubmitterEmail), addr) {
		return true
	}
	for _, cc := range list {
		if resolved := cc.EmailAddress(); resolved != "" && strings.EqualFold(resolved, addr) {
			return true
		}
	}
	return false
}
