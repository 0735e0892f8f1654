package notifications

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// recordingProvider captures outbound messages instead of delivering them.
type recordingProvider struct {
	mu       sync.Mutex
	messages []EmailMessage
}

func (p *recordingProvider) Send(_ context.Context, msg EmailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingProvider) sent() []EmailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EmailMessage, len(p.messages))
	copy(out, p.messages)
	return out
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

type fanoutFixture struct {
	provider *recordingProvider
	users    *repository.MemoryUserRepository
	ccs      *repository.MemoryCCRepository
	ignores  *repository.MemoryIgnoreRepository
	fanout   *Fanout
}

func newFanoutFixture(t *testing.T, templateNames ...string) *fanoutFixture {
	t.Helper()
	provider := &recordingProvider{}
	templates := repository.NewMemoryEmailTemplateRepository()
	seedTemplates(t, templates, templateNames...)

	sender := NewTemplatedSender(templates, template.NewRenderer(), provider, 512000)
	users := repository.NewMemoryUserRepository()
	ccs := repository.NewMemoryCCRepository()
	ignores := repository.NewMemoryIgnoreRepository()

	return &fanoutFixture{
		provider: provider,
		users:    users,
		ccs:      ccs,
		ignores:  ignores,
		fanout:   NewFanout(sender, ccs, users, ignores, "helpdesk@example.com", "en", false),
	}
}

func testQueue() *models.Queue {
	return &models.Queue{
		ID:           1,
		Title:        "Support",
		Slug:         "support",
		EmailAddress: models.StringPtr("support@example.com"),
	}
}

func testTicket() *models.Ticket {
	return &models.Ticket{
		ID:             42,
		Title:          "Printer on fire",
		QueueID:        1,
		Status:         models.StatusOpen,
		Priority:       models.PriorityNormal,
		SubmitterEmail: models.StringPtr("submitter@example.com"),
		Created:        time.Now(),
	}
}

func TestDispatchResolvedUnassignedNotifiesSubmitterOnly(t *testing.T) {
	fix := newFanoutFixture(t, "resolved_submitter", "resolved_cc", "resolved_owner")

	ticket := testTicket()
	ticket.Status = models.StatusResolved
	queue := testQueue()
	tctx := template.SafeContext(ticket, queue, "helpdesk@example.com")

	sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
		Event{Public: true, Comment: true, Resolved: true}, tctx, nil, nil)

	if len(sentTo) != 1 || sentTo[0] != "submitter@example.com" {
		t.Fatalf("expected submitter only, got %v", sentTo)
	}
	msgs := fix.provider.sent()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].PlainBody != "resolved_submitter" {
		t.Fatalf("wrong template dispatched: %q", msgs[0].PlainBody)
	}
	if !strings.HasPrefix(msgs[0].Subject, "[support-42] Printer on fire") {
		t.Fatalf("subject missing ticket reference: %q", msgs[0].Subject)
	}
	if msgs[0].From != "Support <support@example.com>" {
		t.Fatalf("wrong sender: %q", msgs[0].From)
	}
}

func TestDispatchOrderAndVariants(t *testing.T) {
	fix := newFanoutFixture(t, "updated_submitter", "updated_cc", "updated_owner")

	assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
	fix.users.AddUser(assignee)

	ticket := testTicket()
	ticket.AssignedToID = models.UintPtr(assignee.ID)
	queue := testQueue()
	queue.UpdatedTicketCC = models.StringPtr("audit@example.com")

	if err := fix.ccs.Create(&models.TicketCC{TicketID: ticket.ID, Email: models.StringPtr("watcher@example.com")}); err != nil {
		t.Fatalf("seed cc: %v", err)
	}

	tctx := template.SafeContext(ticket, queue, "helpdesk@example.com")
	sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
		Event{Public: true, Comment: true}, tctx, nil, nil)

	want := []string{"submitter@example.com", "watcher@example.com", "agent@example.com", "audit@example.com"}
	if len(sentTo) != len(want) {
		t.Fatalf("expected %v, got %v", want, sentTo)
	}
	for i := range want {
		if sentTo[i] != want[i] {
			t.Fatalf("recipient order: expected %v, got %v", want, sentTo)
		}
	}

	msgs := fix.provider.sent()
	variants := make([]string, len(msgs))
	for i, m := range msgs {
		variants[i] = m.PlainBody
	}
	wantVariants := []string{"updated_submitter", "updated_cc", "updated_owner", "updated_cc"}
	for i := range wantVariants {
		if variants[i] != wantVariants[i] {
			t.Fatalf("variant order: expected %v, got %v", wantVariants, variants)
		}
	}
}

func TestDispatchDeduplicatesByResolvedAddress(t *testing.T) {
	fix := newFanoutFixture(t, "updated_submitter", "updated_cc", "updated_owner")

	// The same address shows up three times: as a user subscription, as a
	// bare address subscription, and as the assignee.
	assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
	fix.users.AddUser(assignee)

	ticket := testTicket()
	ticket.AssignedToID = models.UintPtr(assignee.ID)

	if err := fix.ccs.Create(&models.TicketCC{
		TicketID: ticket.ID,
		UserID:   models.UintPtr(assignee.ID),
		User:     assignee,
	}); err != nil {
		t.Fatalf("seed cc: %v", err)
	}
	if err := fix.ccs.Create(&models.TicketCC{TicketID: ticket.ID, Email: models.StringPtr("agent@example.com")}); err != nil {
		t.Fatalf("seed cc: %v", err)
	}

	queue := testQueue()
	tctx := template.SafeContext(ticket, queue, "helpdesk@example.com")

	sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
		Event{Public: true, Comment: true}, tctx, nil, nil)

	seen := map[string]int{}
	for _, addr := range sentTo {
		seen[addr]++
		if seen[addr] > 1 {
			t.Fatalf("address %q notified twice: %v", addr, sentTo)
		}
	}
	if seen["agent@example.com"] != 1 {
		t.Fatalf("agent should be notified exactly once: %v", sentTo)
	}
}

func TestDispatchPrivateEventSkipsSubmitterAndCC(t *testing.T) {
	fix := newFanoutFixture(t, "updated_submitter", "updated_cc", "updated_owner")

	assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
	fix.users.AddUser(assignee)

	ticket := testTicket()
	ticket.AssignedToID = models.UintPtr(assignee.ID)

	if err := fix.ccs.Create(&models.TicketCC{TicketID: ticket.ID, Email: models.StringPtr("watcher@example.com")}); err != nil {
		t.Fatalf("seed cc: %v", err)
	}

	queue := testQueue()
	tctx := template.SafeContext(ticket, queue, "helpdesk@example.com")

	sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
		Event{Public: false, Comment: true}, tctx, nil, nil)

	if len(sentTo) != 1 || sentTo[0] != "agent@example.com" {
		t.Fatalf("expected assignee only for private update, got %v", sentTo)
	}
}

func TestDispatchAssigneePreferences(t *testing.T) {
	t.Run("self_update_not_notified", func(t *testing.T) {
		fix := newFanoutFixture(t, "updated_owner")
		assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
		fix.users.AddUser(assignee)

		ticket := testTicket()
		ticket.SubmitterEmail = nil
		ticket.AssignedToID = models.UintPtr(assignee.ID)
		queue := testQueue()

		sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
			Event{Public: true, Comment: true}, pongo2.Context{}, assignee, nil)
		if len(sentTo) != 0 {
			t.Fatalf("assignee notified about own update: %v", sentTo)
		}
	})

	t.Run("assign_preference_disabled", func(t *testing.T) {
		fix := newFanoutFixture(t, "assigned_owner")
		assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
		fix.users.AddUser(assignee)

		settings := models.DefaultUserSettings(assignee.ID)
		settings.EmailOnTicketAssign = false
		if err := fix.users.SaveSettings(settings); err != nil {
			t.Fatalf("save settings: %v", err)
		}

		ticket := testTicket()
		ticket.SubmitterEmail = nil
		ticket.AssignedToID = models.UintPtr(assignee.ID)
		queue := testQueue()

		sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
			Event{Reassigned: true}, pongo2.Context{}, nil, nil)
		if len(sentTo) != 0 {
			t.Fatalf("assignee notified despite disabled preference: %v", sentTo)
		}
	})

	t.Run("change_preference_disabled", func(t *testing.T) {
		fix := newFanoutFixture(t, "updated_owner")
		assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
		fix.users.AddUser(assignee)

		settings := models.DefaultUserSettings(assignee.ID)
		settings.EmailOnTicketChange = false
		if err := fix.users.SaveSettings(settings); err != nil {
			t.Fatalf("save settings: %v", err)
		}

		ticket := testTicket()
		ticket.SubmitterEmail = nil
		ticket.AssignedToID = models.UintPtr(assignee.ID)
		queue := testQueue()

		sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
			Event{Public: true, Comment: true}, pongo2.Context{}, nil, nil)
		if len(sentTo) != 0 {
			t.Fatalf("assignee notified despite disabled preference: %v", sentTo)
		}
	})
}

func TestDispatchReassignedUsesAssignedVariants(t *testing.T) {
	fix := newFanoutFixture(t, "updated_submitter", "assigned_owner", "assigned_cc")

	assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
	fix.users.AddUser(assignee)

	ticket := testTicket()
	ticket.AssignedToID = models.UintPtr(assignee.ID)
	queue := testQueue()
	queue.UpdatedTicketCC = models.StringPtr("audit@example.com")

	tctx := template.SafeContext(ticket, queue, "helpdesk@example.com")
	fix.fanout.Dispatch(context.Background(), ticket, queue,
		Event{Public: true, Comment: true, Reassigned: true}, tctx, nil, nil)

	var ownerVariant, queueVariant string
	for _, m := range fix.provider.sent() {
		switch m.To[0] {
		case "agent@example.com":
			ownerVariant = m.PlainBody
		case "audit@example.com":
			queueVariant = m.PlainBody
		}
	}
	if ownerVariant != "assigned_owner" {
		t.Fatalf("owner variant: %q", ownerVariant)
	}
	if queueVariant != "assigned_cc" {
		t.Fatalf("queue cc variant: %q", queueVariant)
	}
}

func TestDispatchSuppressesIgnoredAddresses(t *testing.T) {
	fix := newFanoutFixture(t, "updated_submitter", "updated_cc")

	if err := fix.ignores.Create(&models.IgnoreEmail{EmailAddress: "*@spam.example"}); err != nil {
		t.Fatalf("seed ignore: %v", err)
	}

	ticket := testTicket()
	ticket.SubmitterEmail = models.StringPtr("noisy@spam.example")
	queue := testQueue()

	sentTo := fix.fanout.Dispatch(context.Background(), ticket, queue,
		Event{Public: true, Comment: true}, pongo2.Context{}, nil, nil)
	if len(sentTo) != 0 {
		t.Fatalf("ignored address was notified: %v", sentTo)
	}
}

func TestDispatchNew(t *testing.T) {
	fix := newFanoutFixture(t, "newticket_submitter", "newticket_cc", "assigned_owner")

	assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
	fix.users.AddUser(assignee)

	ticket := testTicket()
	ticket.AssignedToID = models.UintPtr(assignee.ID)
	queue := testQueue()
	queue.NewTicketCC = models.StringPtr("intake@example.com, agent@example.com")

	tctx := template.SafeContext(ticket, queue, "helpdesk@example.com")
	sentTo := fix.fanout.DispatchNew(context.Background(), ticket, queue, tctx, nil, nil)

	want := []string{"submitter@example.com", "agent@example.com", "intake@example.com"}
	if len(sentTo) != len(want) {
		t.Fatalf("expected %v, got %v", want, sentTo)
	}
	for i := range want {
		if sentTo[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, sentTo)
		}
	}
}

func TestDispatchEscalated(t *testing.T) {
	fix := newFanoutFixture(t, "escalated_submitter", "escalated_cc", "escalated_owner")

	assignee := &models.User{Username: "agent", Email: "agent@example.com", IsStaff: true}
	fix.users.AddUser(assignee)

	ticket := testTicket()
	ticket.AssignedToID = models.UintPtr(assignee.ID)
	queue := testQueue()

	if err := fix.ccs.Create(&models.TicketCC{TicketID: ticket.ID, Email: models.StringPtr("watcher@example.com")}); err != nil {
		t.Fatalf("seed cc: %v", err)
	}

	tctx := template.SafeContext(ticket, queue, "helpdesk@example.com")
	sentTo := fix.fanout.DispatchEscalated(context.Background(), ticket, queue, tctx)

	want := []string{"submitter@example.com", "watcher@example.com", "agent@example.com"}
	if len(sentTo) != len(want) {
		t.Fatalf("expected %v, got %v", want, sentTo)
	}
	for i := range want {
		if sentTo[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, sentTo)
		}
	}
	msgs := fix.provider.sent()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, variant := range []string{"escalated_submitter", "escalated_cc", "escalated_owner"} {
		if msgs[i].PlainBody != variant {
			t.Fatalf("message %d: wrong template %q", i, msgs[i].PlainBody)
		}
	}
}
