package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/storage"
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

func (p *recordingProvider) sent() []notifications.EmailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.EmailMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// bodies returns the plain bodies of every captured message. Seeded
// templates carry their own name as body, so this is the list of dispatched
// template variants in order.
func (p *recordingProvider) bodies() []string {
	msgs := p.sent()
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.PlainBody
	}
	return out
}

func (p *recordingProvider) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}

// seedTemplates stores one template per name with the name as plain body so
// tests can tell which variant was dispatched.
func seedTemplates(t *testing.T, repo repository.IEmailTemplateRepository, names ...string) {
	t.Helper()
	for _, name := range names {
		err := repo.Upsert(&models.EmailTemplate{
			TemplateName: name,
			Subject:      "{{ queue.title }} update",
			PlainText:    name,
		})
		if err != nil {
			t.Fatalf("seed template %s: %v", name, err)
		}
	}
}

// serviceFixture assembles the ticket service on in-memory stores with a
// fixed clock and a recording mail provider.
type serviceFixture struct {
	provider     *recordingProvider
	tickets      *repository.MemoryTicketRepository
	queues       *repository.MemoryQueueRepository
	followUps    *repository.MemoryFollowUpRepository
	ccs          *repository.MemoryCCRepository
	users        *repository.MemoryUserRepository
	lookups      *repository.MemoryLookupRepository
	customFields *repository.MemoryCustomFieldRepository
	files        *storage.MemoryStore
	cfg          *config.Config
	now          time.Time
	svc          *TicketService
}

func newServiceFixture(t *testing.T, templateNames ...string) *serviceFixture {
	t.Helper()

	provider := &recordingProvider{}
	templates := repository.NewMemoryEmailTemplateRepository()
	seedTemplates(t, templates, templateNames...)

	renderer := template.NewRenderer()
	sender := notifications.NewTemplatedSender(templates, renderer, provider, 512000)

	fix := &serviceFixture{
		provider:     provider,
		tickets:      repository.NewMemoryTicketRepository(),
		queues:       repository.NewMemoryQueueRepository(),
		followUps:    repository.NewMemoryFollowUpRepository(),
		ccs:          repository.NewMemoryCCRepository(),
		users:        repository.NewMemoryUserRepository(),
		lookups:      repository.NewMemoryLookupRepository(),
		customFields: repository.NewMemoryCustomFieldRepository(),
		files:        storage.NewMemoryStore(),
		cfg:          &config.Config{},
		now:          time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	fix.cfg.Email.DefaultFrom = "helpdesk@example.com"

	fanout := notifications.NewFanout(sender, fix.ccs, fix.users,
		repository.NewMemoryIgnoreRepository(), "helpdesk@example.com", "en", false)

	fix.svc = NewTicketService(fix.tickets, fix.queues, fix.followUps, fix.ccs,
		fix.users, fix.lookups, fix.customFields, renderer, fanout, fix.files,
		cache.NewMemoryStore("test", time.Minute), fix.cfg)
	fix.svc.now = func() time.Time { return fix.now }
	return fix
}

func (f *serviceFixture) addQueue(t *testing.T) *models.Queue {
	t.Helper()
	queue := &models.Queue{
		Title:                 "Support",
		Slug:                  "support",
		EmailAddress:          models.StringPtr("support@example.com"),
		AllowPublicSubmission: true,
	}
	if err := f.queues.Create(queue); err != nil {
		t.Fatalf("seed queue: %v", err)
	}
	return queue
}

func (f *serviceFixture) addStaff(t *testing.T, username, email string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email, IsStaff: true}
	f.users.AddUser(user)
	return user
}

// addTicket persists a ticket directly, bypassing the creation workflow, so
// update tests start from a known row. Created is backdated half an hour.
func (f *serviceFixture) addTicket(t *testing.T, queue *models.Queue, mutate func(*models.Ticket)) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		Title:          "Printer on fire",
		QueueID:        queue.ID,
		Status:         models.StatusOpen,
		Priority:       models.PriorityNormal,
		SubmitterEmail: models.StringPtr("submitter@example.com"),
		Created:        f.now.Add(-30 * time.Minute),
		Modified:       f.now.Add(-30 * time.Minute),
	}
	if mutate != nil {
		mutate(ticket)
	}
	if err := f.tickets.Create(ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func (f *serviceFixture) reload(t *testing.T, ticketID uint) *models.Ticket {
	t.Helper()
	ticket, err := f.tickets.GetByID(ticketID)
	if err != nil {
		t.Fatalf("reload ticket %d: %v", ticketID, err)
	}
	if ticket == nil {
		t.Fatalf("ticket %d vanished", ticketID)
	}
	return ticket
}

func (f *serviceFixture) ticketFollowUps(t *testing.T, ticketID uint) []*models.FollowUp {
	t.Helper()
	list, err := f.followUps.ListByTicket(ticketID)
	if err != nil {
		t.Fatalf("list follow-ups: %v", err)
	}
	return list
}

func (f *serviceFixture) followUpChanges(t *testing.T, followUpID uint) []models.TicketChange {
	t.Helper()
	changes, err := f.followUps.ListChanges(followUpID)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	return changes
}
