package notifications

import (
	"context"
	"log"

	"github.com/flosch/pongo2/v6"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// Event describes the outcome of one ticket operation for notification
// purposes.
type Event struct {
	Public     bool
	Comment    bool
	Reassigned bool
	Resolved   bool
	Closed     bool
}

func (e Event) variantRoot() string {
	switch {
	case e.Resolved:
		return "resolved"
	case e.Closed:
		return "closed"
	default:
		return "updated"
	}
}

// Fanout computes the distinct recipient set for an event and dispatches one
// templated message per recipient. De-duplication is by resolved address and
// lasts for a single dispatch call only.
type Fanout struct {
	sender        *TemplatedSender
	ccs           repository.ICCRepository
	users         repository.IUserRepository
	ignores       repository.IIgnoreRepository
	defaultFrom   string
	defaultLocale string
	notifyIgnored bool
}

// NewFanout creates a fan-out over the given sender and repositories.
// ignores may be nil; defaultFrom backs queues without a sender address.
func NewFanout(sender *TemplatedSender, ccs repository.ICCRepository, users repository.IUserRepository, ignores repository.IIgnoreRepository, defaultFrom, defaultLocale string, notifyIgnored bool) *Fanout {
	return &Fanout{
		sender:        sender,
		ccs:           ccs,
		users:         users,
		ignores:       ignores,
		defaultFrom:   defaultFrom,
		defaultLocale: defaultLocale,
		notifyIgnored: notifyIgnored,
	}
}

// Dispatch notifies the audiences of a ticket update in order: submitter,
// CC subscribers, assignee, queue-level CCs. Returns the addresses notified.
// Delivery failures are logged by the sender and never surface here.
func (f *Fanout) Dispatch(ctx context.Context, ticket *models.Ticket, queue *models.Queue, event Event, tctx pongo2.Context, actingUser *models.User, files []File) []string {
	var sentTo []string
	variant := event.variantRoot()
	sender := queue.FromAddress(f.defaultFrom)
	locale := f.locale(queue)

	if event.Public && (event.Comment || event.Resolved || event.Closed) {
		if addr := models.DerefString(ticket.SubmitterEmail); addr != "" && f.deliverable(addr, sentTo) {
			f.sender.SendToAddress(ctx, variant+"_submitter", locale, addr, tctx, sender, true, files)
			sentTo = append(sentTo, addr)
		}

		ccs, err := f.ccs.ListByTicket(ticket.ID)
		if err != nil {
			log.Printf("notifications: list ccs for ticket %d: %v", ticket.ID, err)
		}
		for _, cc := range ccs {
			addr := cc.EmailAddress()
			if addr == "" || !f.deliverable(addr, sentTo) {
				continue
			}
			f.sender.SendToAddress(ctx, variant+"_cc", locale, addr, tctx, sender, true, files)
			sentTo = append(sentTo, addr)
		}
	}

	if addr, template := f.assigneeTarget(ticket, event, actingUser, sentTo); addr != "" {
		f.sender.SendToAddress(ctx, template, locale, addr, tctx, sender, true, files)
		sentTo = append(sentTo, addr)
	}

	queueVariant := variant + "_cc"
	if event.Reassigned {
		queueVariant = models.TemplateAssignedCC
	}
	for _, addr := range queue.UpdatedTicketCCList() {
		if !f.deliverable(addr, sentTo) {
			continue
		}
		f.sender.SendToAddress(ctx, queueVariant, locale, addr, tctx, sender, true, files)
		sentTo = append(sentTo, addr)
	}

	return sentTo
}

// DispatchNew notifies the audiences of a freshly created ticket: the
// customer contact and submitter, the assignee (when assigned at creation),
// and the queue new-ticket CCs.
func (f *Fanout) DispatchNew(ctx context.Context, ticket *models.Ticket, queue *models.Queue, tctx pongo2.Context, actingUser *models.User, files []File) []string {
	var sentTo []string
	sender := queue.FromAddress(f.defaultFrom)
	locale := f.locale(queue)

	submitters := []string{models.DerefString(ticket.SubmitterEmail)}
	if ticket.CustomerContact != nil {
		if contact := models.DerefString(ticket.CustomerContact.Email); contact != "" {
			submitters = []string{contact, models.DerefString(ticket.SubmitterEmail)}
		}
	}
	for _, addr := range submitters {
		if addr == "" || !f.deliverable(addr, sentTo) {
			continue
		}
		f.sender.SendToAddress(ctx, models.TemplateNewTicketSubmitter, locale, addr, tctx, sender, true, files)
		sentTo = append(sentTo, addr)
	}

	if addr, _ := f.assigneeTarget(ticket, Event{Reassigned: true}, actingUser, sentTo); addr != "" {
		f.sender.SendToAddress(ctx, models.TemplateAssignedOwner, locale, addr, tctx, sender, true, files)
		sentTo = append(sentTo, addr)
	}

	for _, addr := range queue.NewTicketCCList() {
		if !f.deliverable(addr, sentTo) {
			continue
		}
		f.sender.SendToAddress(ctx, models.TemplateNewTicketCC, locale, addr, tctx, sender, true, files)
		sentTo = append(sentTo, addr)
	}

	return sentTo
}

// DispatchEscalated notifies the audiences of an escalation raising the
// ticket's priority: the submitter, CC subscribers, and the assignee.
func (f *Fanout) DispatchEscalated(ctx context.Context, ticket *models.Ticket, queue *models.Queue, tctx pongo2.Context) []string {
	var sentTo []string
	sender := queue.FromAddress(f.defaultFrom)
	locale := f.locale(queue)

	if addr := models.DerefString(ticket.SubmitterEmail); addr != "" && f.deliverable(addr, sentTo) {
		f.sender.SendToAddress(ctx, models.TemplateEscalatedSubmitter, locale, addr, tctx, sender, true, nil)
		sentTo = append(sentTo, addr)
	}

	ccs, err := f.ccs.ListByTicket(ticket.ID)
	if err != nil {
		log.Printf("notifications: list ccs for ticket %d: %v", ticket.ID, err)
	}
	for _, cc := range ccs {
		addr := cc.EmailAddress()
		if addr == "" || !f.deliverable(addr, sentTo) {
			continue
		}
		f.sender.SendToAddress(ctx, models.TemplateEscalatedCC, locale, addr, tctx, sender, true, nil)
		sentTo = append(sentTo, addr)
	}

	if addr, _ := f.assigneeTarget(ticket, Event{}, nil, sentTo); addr != "" {
		f.sender.SendToAddress(ctx, models.TemplateEscalatedOwner, locale, addr, tctx, sender, true, nil)
		sentTo = append(sentTo, addr)
	}

	return sentTo
}

// assigneeTarget resolves the assignee notification, honoring the owner's
// personal preferences and skipping self-notification. Returns ("", "") when
// no assignee message should go out.
func (f *Fanout) assigneeTarget(ticket *models.Ticket, event Event, actingUser *models.User, sentTo []string) (string, string) {
	if ticket.AssignedToID == nil {
		return "", ""
	}
	if actingUser != nil && actingUser.ID == *ticket.AssignedToID {
		return "", ""
	}

	assignee, err := f.users.GetByID(*ticket.AssignedToID)
	if err != nil {
		log.Printf("notifications: load assignee %d: %v", *ticket.AssignedToID, err)
		return "", ""
	}
	if assignee == nil || assignee.Email == "" || !f.deliverable(assignee.Email, sentTo) {
		return "", ""
	}

	settings, err := f.users.GetSettings(assignee.ID)
	if err != nil {
		log.Printf("notifications: load settings for user %d: %v", assignee.ID, err)
		return "", ""
	}
	if !settings.EmailOnTicketChange {
		return "", ""
	}
	if event.Reassigned {
		if !settings.EmailOnTicketAssign {
			return "", ""
		}
		return assignee.Email, models.TemplateAssignedOwner
	}
	return assignee.Email, event.variantRoot() + "_owner"
}

func (f *Fanout) locale(queue *models.Queue) string {
	if queue.Locale != nil && *queue.Locale != "" {
		return *queue.Locale
	}
	return f.defaultLocale
}

// deliverable reports whether an address should receive mail: not yet
// notified in this dispatch and not on the ignore list.
func (f *Fanout) deliverable(addr string, sentTo []string) bool {
	for _, sent := range sentTo {
		if sent == addr {
			return false
		}
	}
	if f.notifyIgnored || f.ignores == nil {
		return true
	}
	entries, err := f.ignores.List()
	if err != nil {
		log.Printf("notifications: load ignore list: %v", err)
		return true
	}
	for _, entry := range entries {
		if entry.Matches(addr) {
			return false
		}
	}
	return true
}
