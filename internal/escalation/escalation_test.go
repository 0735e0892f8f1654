package escalation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/history"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// recordingProvider captures outbound messages instead of delivering them.
type recordingProvider struct {
	mu       sync.Mutex
	messages []notifications.EmailMessage
}

func (p *recordingProvider) Send(_ context.Context, msg notifications.EmailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

// bodies returns the plain bodies of every captured message. Seeded
// templates carry their own name as body, so this is the list of dispatched
// template variants in order.
func (p *recordingProvider) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, msg := range p.messages {
		out[i] = msg.PlainBody
	}
	return out
}

func (p *recordingProvider) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}

// escalatorFixture assembles the escalator on in-memory stores with a fixed
// clock and a recording mail provider.
type escalatorFixture struct {
	provider   *recordingProvider
	tickets    *repository.MemoryTicketRepository
	queues     *repository.MemoryQueueRepository
	followUps  *repository.MemoryFollowUpRepository
	exclusions *repository.MemoryExclusionRepository
	ccs        *repository.MemoryCCRepository
	users      *repository.MemoryUserRepository
	now        time.Time
	esc        *Escalator
}

func newEscalatorFixture(t *testing.T) *escalatorFixture {
	t.Helper()

	provider := &recordingProvider{}
	templates := repository.NewMemoryEmailTemplateRepository()
	for _, name := range []string{"escalated_submitter", "escalated_cc", "escalated_owner"} {
		err := templates.Upsert(&models.EmailTemplate{
			TemplateName: name,
			Subject:      "{{ queue.title }} update",
			PlainText:    name,
		})
		if err != nil {
			t.Fatalf("seed template %s: %v", name, err)
		}
	}

	renderer := template.NewRenderer()
	sender := notifications.NewTemplatedSender(templates, renderer, provider, 512000)

	fix := &escalatorFixture{
		provider:   provider,
		tickets:    repository.NewMemoryTicketRepository(),
		queues:     repository.NewMemoryQueueRepository(),
		followUps:  repository.NewMemoryFollowUpRepository(),
		exclusions: repository.NewMemoryExclusionRepository(),
		ccs:        repository.NewMemoryCCRepository(),
		users:      repository.NewMemoryUserRepository(),
		now:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	cfg := &config.Config{}
	cfg.Email.DefaultFrom = "helpdesk@example.com"

	fanout := notifications.NewFanout(sender, fix.ccs, fix.users,
		repository.NewMemoryIgnoreRepository(), "helpdesk@example.com", "en", false)

	fix.esc = NewEscalator(fix.tickets, fix.queues, fix.followUps, fix.exclusions, fanout, cfg)
	fix.esc.now = func() time.Time { return fix.now }
	return fix
}

func (f *escalatorFixture) addQueue(t *testing.T, title, slug string, escalateDays int) *models.Queue {
	t.Helper()
	queue := &models.Queue{
		Title:        title,
		Slug:         slug,
		EmailAddress: models.StringPtr(slug + "@example.com"),
		EscalateDays: escalateDays,
	}
	if err := f.queues.Create(queue); err != nil {
		t.Fatalf("seed queue: %v", err)
	}
	return queue
}

// addTicket persists an open ticket whose creation is backdated by age.
func (f *escalatorFixture) addTicket(t *testing.T, queue *models.Queue, age time.Duration, mutate func(*models.Ticket)) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		Title:          "Printer on fire",
		QueueID:        queue.ID,
		Status:         models.StatusOpen,
		Priority:       models.PriorityNormal,
		SubmitterEmail: models.StringPtr("submitter@example.com"),
		Created:        f.now.Add(-age),
		Modified:       f.now.Add(-age),
	}
	if mutate != nil {
		mutate(ticket)
	}
	if err := f.tickets.Create(ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func (f *escalatorFixture) reload(t *testing.T, id uint) *models.Ticket {
	t.Helper()
	ticket, err := f.tickets.GetByID(id)
	if err != nil {
		t.Fatalf("reload ticket %d: %v", id, err)
	}
	if ticket == nil {
		t.Fatalf("ticket %d vanished", id)
	}
	return ticket
}

func (f *escalatorFixture) excludeDay(t *testing.T, name string, day time.Time) {
	t.Helper()
	if err := f.exclusions.Create(&models.EscalationExclusion{Name: name, Date: day}); err != nil {
		t.Fatalf("seed exclusion: %v", err)
	}
}

func TestEscalateRaisesPriorityAndRecordsTrail(t *testing.T) {
	fix := newEscalatorFixture(t)
	queue := fix.addQueue(t, "Support", "support", 2)
	ticket := fix.addTicket(t, queue, 5*24*time.Hour, nil)

	escalated, err := fix.esc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(escalated) != 1 || escalated[0] != ticket.ID {
		t.Fatalf("expected [%d], got %v", ticket.ID, escalated)
	}

	got := fix.reload(t, ticket.ID)
	if got.Priority != models.PriorityHigh {
		t.Fatalf("priority not raised: %d", got.Priority)
	}
	if got.LastEscalation == nil || !got.LastEscalation.Equal(fix.now) {
		t.Fatalf("last escalation not stamped: %v", got.LastEscalation)
	}
	if !got.Modified.Equal(fix.now) {
		t.Fatalf("modified not touched: %v", got.Modified)
	}

	followUps, err := fix.followUps.ListByTicket(ticket.ID)
	if err != nil {
		t.Fatalf("list follow-ups: %v", err)
	}
	if len(followUps) != 1 {
		t.Fatalf("expected 1 follow-up, got %d", len(followUps))
	}
	followUp := followUps[0]
	if models.DerefString(followUp.Title) != history.TitleEscalated {
		t.Fatalf("wrong title: %q", models.DerefString(followUp.Title))
	}
	if !followUp.Public {
		t.Fatal("escalation follow-up must be public")
	}
	if followUp.UserID != nil {
		t.Fatalf("escalation follow-up carries a user: %d", *followUp.UserID)
	}
	if models.DerefString(followUp.Comment) != "Ticket escalated after 2 working days" {
		t.Fatalf("wrong comment: %q", models.DerefString(followUp.Comment))
	}

	changes, err := fix.followUps.ListChanges(followUp.ID)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change row, got %d", len(changes))
	}
	if changes[0].Field != history.FieldPriority {
		t.Fatalf("wrong field: %q", changes[0].Field)
	}
	if models.DerefString(changes[0].OldValue) != "3. Normal" || models.DerefString(changes[0].NewValue) != "2. High" {
		t.Fatalf("wrong change values: %q -> %q",
			models.DerefString(changes[0].OldValue), models.DerefString(changes[0].NewValue))
	}

	bodies := fix.provider.bodies()
	if len(bodies) != 1 || bodies[0] != "escalated_submitter" {
		t.Fatalf("unexpected dispatches: %v", bodies)
	}

	// A second sweep right after finds the fresh escalation stamp and does
	// nothing.
	fix.provider.reset()
	escalated, err = fix.esc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(escalated) != 0 {
		t.Fatalf("second run escalated %v", escalated)
	}
	followUps, err = fix.followUps.ListByTicket(ticket.ID)
	if err != nil {
		t.Fatalf("list follow-ups: %v", err)
	}
	if len(followUps) != 1 {
		t.Fatalf("second run added follow-ups: %d", len(followUps))
	}
	if len(fix.provider.bodies()) != 0 {
		t.Fatalf("second run sent mail: %v", fix.provider.bodies())
	}
}

func TestEscalateSkipsIneligibleTickets(t *testing.T) {
	fix := newEscalatorFixture(t)
	queue := fix.addQueue(t, "Support", "support", 2)
	noEscalation := fix.addQueue(t, "Billing", "billing", 0)

	held := fix.addTicket(t, queue, 5*24*time.Hour, func(tk *models.Ticket) {
		tk.OnHold = true
	})
	critical := fix.addTicket(t, queue, 5*24*time.Hour, func(tk *models.Ticket) {
		tk.Priority = models.PriorityCritical
	})
	fresh := fix.addTicket(t, queue, 24*time.Hour, nil)
	closed := fix.addTicket(t, queue, 5*24*time.Hour, func(tk *models.Ticket) {
		tk.Status = models.StatusClosed
	})
	justEscalated := fix.addTicket(t, queue, 10*24*time.Hour, func(tk *models.Ticket) {
		tk.LastEscalation = models.TimePtr(fix.now.Add(-24 * time.Hour))
	})
	staleElsewhere := fix.addTicket(t, noEscalation, 10*24*time.Hour, nil)

	escalated, err := fix.esc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(escalated) != 0 {
		t.Fatalf("expected no escalations, got %v", escalated)
	}

	for _, tk := range []*models.Ticket{held, fresh, closed, justEscalated, staleElsewhere} {
		if got := fix.reload(t, tk.ID); got.Priority != models.PriorityNormal {
			t.Fatalf("ticket %d priority changed to %d", tk.ID, got.Priority)
		}
	}
	if got := fix.reload(t, critical.ID); got.Priority != models.PriorityCritical {
		t.Fatalf("critical ticket moved to %d", got.Priority)
	}
	if got := fix.reload(t, justEscalated.ID); !got.LastEscalation.Equal(fix.now.Add(-24 * time.Hour)) {
		t.Fatalf("escalation stamp rewritten: %v", got.LastEscalation)
	}
	if len(fix.provider.bodies()) != 0 {
		t.Fatalf("mail sent for skipped tickets: %v", fix.provider.bodies())
	}
}

func TestEscalateWalksBackOverExclusionDates(t *testing.T) {
	fix := newEscalatorFixture(t)
	queue := fix.addQueue(t, "Support", "support", 2)

	// The two days before the sweep are excluded, so two working days back
	// lands on March 6th instead of March 8th.
	fix.excludeDay(t, "Holiday", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	fix.excludeDay(t, "Holiday", time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC))

	overdue := fix.addTicket(t, queue, 5*24*time.Hour, nil)
	// Created March 7th: due without the exclusions, spared with them.
	spared := fix.addTicket(t, queue, 3*24*time.Hour, nil)

	escalated, err := fix.esc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(escalated) != 1 || escalated[0] != overdue.ID {
		t.Fatalf("expected [%d], got %v", overdue.ID, escalated)
	}
	if got := fix.reload(t, spared.ID); got.Priority != models.PriorityNormal {
		t.Fatalf("spared ticket escalated to %d", got.Priority)
	}
}

func TestEscalateHonorsQueueFilter(t *testing.T) {
	fix := newEscalatorFixture(t)
	support := fix.addQueue(t, "Support", "support", 2)
	billing := fix.addQueue(t, "Billing", "billing", 2)

	inSupport := fix.addTicket(t, support, 5*24*time.Hour, nil)
	inBilling := fix.addTicket(t, billing, 5*24*time.Hour, nil)

	escalated, err := fix.esc.Run(context.Background(), []string{"support"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(escalated) != 1 || escalated[0] != inSupport.ID {
		t.Fatalf("expected [%d], got %v", inSupport.ID, escalated)
	}
	if got := fix.reload(t, inBilling.ID); got.Priority != models.PriorityNormal {
		t.Fatalf("filtered queue escalated: %d", got.Priority)
	}

	// An unrestricted sweep now picks up only the billing ticket.
	escalated, err = fix.esc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(escalated) != 1 || escalated[0] != inBilling.ID {
		t.Fatalf("expected [%d], got %v", inBilling.ID, escalated)
	}
}

func TestEscalateNotifiesTicketAudiences(t *testing.T) {
	fix := newEscalatorFixture(t)
	queue := fix.addQueue(t, "Support", "support", 2)

	assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
	fix.users.AddUser(assignee)

	ticket := fix.addTicket(t, queue, 5*24*time.Hour, func(tk *models.Ticket) {
		tk.AssignedToID = models.UintPtr(assignee.ID)
	})
	if err := fix.ccs.Create(&models.TicketCC{TicketID: ticket.ID, Email: models.StringPtr("watcher@example.com")}); err != nil {
		t.Fatalf("seed cc: %v", err)
	}

	if _, err := fix.esc.Run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"escalated_submitter", "escalated_cc", "escalated_owner"}
	bodies := fix.provider.bodies()
	if len(bodies) != len(want) {
		t.Fatalf("expected %v, got %v", want, bodies)
	}
	for i := range want {
		if bodies[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, bodies)
		}
	}
}
