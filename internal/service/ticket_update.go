package service

import (
	"context"
	"fmt"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/history"
	"github.com/helpdesk-io/helpdesk-ce/internal/lifecycle"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// UpdateRequest carries the proposed field set of one ticket update. Nil
// pointers and zero-valued optionals mean "not mentioned": the stored value
// is kept and the field never counts as a change. An empty Title is also
// ignored.
type UpdateRequest struct {
	TicketID uint
	Comment  string
	Public   bool
	Title    *string
	Status   *int
	Priority *int
	Owner    OptionalRef
	DueDate  OptionalTime
	Contact  OptionalRef
	Customer OptionalRef
	Site     OptionalRef
	Product  OptionalRef
	Files    []UploadedFile
}

// proposedRefs holds the pre-validated targets of the request's link fields,
// with display names for the audit rows.
type proposedRefs struct {
	owner    *models.User
	contact  string
	customer string
	site     string
	product  string
}

// Update runs the audited update workflow: validate the proposed fields,
// short-circuit when nothing would change, render the comment through the
// restricted template context, record one follow-up with a change row per
// touched field, persist, fan out notifications, and optionally subscribe
// the acting user.
func (s *TicketService) Update(ctx context.Context, id *access.Identity, req *UpdateRequest) (*models.Ticket, *models.FollowUp, error) {
	ticket, queue, err := s.loadAuthorized(id, req.TicketID)
	if err != nil {
		return nil, nil, err
	}

	if req.Status != nil && models.StatusLabel(*req.Status) == "Unknown" {
		return nil, nil, fmt.Errorf("status %d is not a known value: %w", *req.Status, ErrValidation)
	}
	if req.Priority != nil && models.PriorityLabel(*req.Priority) == "Unknown" {
		return nil, nil, fmt.Errorf("priority %d is not a known value: %w", *req.Priority, ErrValidation)
	}
	refs, err := s.resolveProposedRefs(req)
	if err != nil {
		return nil, nil, err
	}

	if !hasMeaningfulChange(ticket, req) {
		return nil, nil, fmt.Errorf("ticket %d: %w", ticket.ID, ErrNoChanges)
	}

	rendered := ""
	if req.Comment != "" {
		tctx := template.SafeContext(ticket, queue, s.defaultFrom())
		rendered, err = s.renderer.RenderComment(req.Comment, tctx)
		if err != nil {
			return nil, nil, fmt.Errorf("comment failed to render (%v): %w", err, ErrValidation)
		}
	}

	now := s.now()
	changes := &history.ChangeSet{}
	assignment := ""
	statusLabel := ""
	reassigned := false
	var newStatus *int

	if req.Title != nil && *req.Title != "" && *req.Title != ticket.Title {
		changes.Add(history.FieldTitle, ticket.Title, *req.Title)
		ticket.Title = *req.Title
	}

	if req.Status != nil && *req.Status != ticket.Status {
		changes.Add(history.FieldStatus, models.StatusLabel(ticket.Status), models.StatusLabel(*req.Status))
		lifecycle.Transition(ticket, *req.Status, now)
		statusLabel = models.StatusLabel(ticket.Status)
		newStatus = req.Status
	}

	if req.Owner.Mentioned() {
		proposed := req.Owner.Value()
		switch {
		case proposed != nil && (ticket.AssignedToID == nil || *ticket.AssignedToID != *proposed):
			changes.Add(history.FieldOwner, s.ownerDisplay(ticket.AssignedToID), refs.owner.DisplayName())
			ticket.AssignedToID = &refs.owner.ID
			assignment = history.AssignmentTitle(refs.owner.DisplayName())
			reassigned = true
		case proposed == nil && ticket.AssignedToID != nil:
			changes.Add(history.FieldOwner, s.ownerDisplay(ticket.AssignedToID), history.TitleUnassigned)
			ticket.AssignedToID = nil
			assignment = history.TitleUnassigned
		}
	}

	if req.Priority != nil && *req.Priority != ticket.Priority {
		changes.Add(history.FieldPriority, models.PriorityLabel(ticket.Priority), models.PriorityLabel(*req.Priority))
		ticket.Priority = *req.Priority
	}

	if req.DueDate.Mentioned() && !equalTimePtr(req.DueDate.Value(), ticket.DueDate) {
		changes.Add(history.FieldDueDate, dueDisplay(ticket.DueDate), dueDisplay(req.DueDate.Value()))
		ticket.DueDate = req.DueDate.Value()
	}

	if req.Contact.Mentioned() && !equalUintPtr(req.Contact.Value(), ticket.CustomerContactID) {
		changes.Add(history.FieldCustomerContact, s.refDisplay(refContact, ticket.CustomerContactID), refs.contact)
		ticket.CustomerContactID = req.Contact.Value()
	}
	if req.Customer.Mentioned() && !equalUintPtr(req.Customer.Value(), ticket.CustomerID) {
		changes.Add(history.FieldCustomer, s.refDisplay(refCustomer, ticket.CustomerID), refs.customer)
		ticket.CustomerID = req.Customer.Value()
	}
	if req.Site.Mentioned() && !equalUintPtr(req.Site.Value(), ticket.SiteID) {
		changes.Add(history.FieldSite, s.refDisplay(refSite, ticket.SiteID), refs.site)
		ticket.SiteID = req.Site.Value()
	}
	if req.Product.Mentioned() && !equalUintPtr(req.Product.Value(), ticket.CustomerProductID) {
		changes.Add(history.FieldProduct, s.refDisplay(refProduct, ticket.CustomerProductID), refs.product)
		ticket.CustomerProductID = req.Product.Value()
	}

	if rendered != "" {
		if ticket.Status == models.StatusResolved {
			ticket.Resolution = &rendered
		} else if ticket.Status == models.StatusClosed && ticket.Resolution == nil {
			ticket.Resolution = &rendered
		}
	}

	followUp, err := s.recordFollowUp(ctx, ticket, actingUser(id), followUpSpec{
		title:     history.FollowUpTitle(assignment, statusLabel, rendered != ""),
		comment:   rendered,
		public:    req.Public,
		newStatus: newStatus,
		changes:   changes.Changes(),
		files:     req.Files,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.attachDisplayRefs(ticket); err != nil {
		return nil, nil, err
	}
	event := notifications.Event{
		Public:     req.Public,
		Comment:    rendered != "",
		Reassigned: reassigned,
		Resolved:   newStatus != nil && *newStatus == models.StatusResolved,
		Closed:     newStatus != nil && *newStatus == models.StatusClosed,
	}
	tctx := template.SafeContext(ticket, queue, s.defaultFrom())
	tctx["resolution"] = models.DerefString(ticket.Resolution)
	tctx["comment"] = rendered
	s.fanout.Dispatch(ctx, ticket, queue, event, tctx, actingUser(id), notifyFiles(req.Files))

	if s.cfg.Helpdesk.AutoSubscribeOnResponse {
		if user := actingUser(id); user != nil {
			if err := subscribeUserIfNotIn(s.ccs, ticket, user); err != nil {
				return nil, nil, err
			}
		}
	}

	return ticket, followUp, nil
}

// resolveProposedRefs validates every mentioned link target up front, so a
// dangling id fails the whole update instead of half-applying it.
func (s *TicketService) resolveProposedRefs(req *UpdateRequest) (*proposedRefs, error) {
	refs := &proposedRefs{}
	var err error

	if v := req.Owner.Value(); req.Owner.Mentioned() && v != nil {
		if refs.owner, err = s.requireUser(*v); err != nil {
			return nil, err
		}
	}
	if v := req.Contact.Value(); req.Contact.Mentioned() && v != nil {
		if refs.contact, err = s.requireRef(refContact, *v); err != nil {
			return nil, err
		}
	}
	if v := req.Customer.Value(); req.Customer.Mentioned() && v != nil {
		if refs.customer, err = s.requireRef(refCustomer, *v); err != nil {
			return nil, err
		}
	}
	if v := req.Site.Value(); req.Site.Mentioned() && v != nil {
		if refs.site, err = s.requireRef(refSite, *v); err != nil {
			return nil, err
		}
	}
	if v := req.Product.Value(); req.Product.Mentioned() && v != nil {
		if refs.product, err = s.requireRef(refProduct, *v); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// hasMeaningfulChange is the no-op predicate: files and a comment always
// count; mentioned fields count when they differ from the stored value.
func hasMeaningfulChange(ticket *models.Ticket, req *UpdateRequest) bool {
	if len(req.Files) > 0 || req.Comment != "" {
		return true
	}
	if req.Title != nil && *req.Title != "" && *req.Title != ticket.Title {
		return true
	}
	if req.Status != nil && *req.Status != ticket.Status {
		return true
	}
	if req.Priority != nil && *req.Priority != ticket.Priority {
		return true
	}
	if req.DueDate.Mentioned() && !equalTimePtr(req.DueDate.Value(), ticket.DueDate) {
		return true
	}
	if req.Owner.Mentioned() && !equalUintPtr(req.Owner.Value(), ticket.AssignedToID) {
		return true
	}
	if req.Contact.Mentioned() && !equalUintPtr(req.Contact.Value(), ticket.CustomerContactID) {
		return true
	}
	if req.Customer.Mentioned() && !equalUintPtr(req.Customer.Value(), ticket.CustomerID) {
		return true
	}
	if req.Site.Mentioned() && !equalUintPtr(req.Site.Value(), ticket.SiteID) {
		return true
	}
	if req.Product.Mentioned() && !equalUintPtr(req.Product.Value(), ticket.CustomerProductID) {
		return true
	}
	return false
}

// ownerDisplay names the stored assignee for an audit row.
func (s *TicketService) ownerDisplay(assignedToID *uint) string {
	if assignedToID == nil {
		return history.TitleUnassigned
	}
	user, err := s.users.GetByID(*assignedToID)
	if err != nil || user == nil {
		return history.TitleUnassigned
	}
	return user.DisplayName()
}

// dueDisplay renders a due date for an audit row.
func dueDisplay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func equalUintPtr(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
