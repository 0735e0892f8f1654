package service

import (
	"errors"
	"testing"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

func newPresetReplyService(fix *serviceFixture) (*PresetReplyService, *repository.MemoryPresetReplyRepository) {
	replies := repository.NewMemoryPresetReplyRepository()
	return NewPresetReplyService(fix.tickets, fix.queues, replies, template.NewRenderer(), fix.cfg), replies
}

func TestPresetRepliesScopedToQueue(t *testing.T) {
	fix := newServiceFixture(t)
	queue := fix.addQueue(t)
	agent := fix.addStaff(t, "alice", "alice@example.com")
	svc, replies := newPresetReplyService(fix)

	other := &models.Queue{Title: "Billing", Slug: "billing"}
	if err := fix.queues.Create(other); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	if err := replies.Create(&models.PresetReply{Name: "Thanks", Body: "Thanks for reporting."}); err != nil {
		t.Fatalf("seed reply: %v", err)
	}
	if err := replies.Create(&models.PresetReply{Name: "Billing notice", Body: "See your invoice.", QueueIDs: []uint{other.ID}}); err != nil {
		t.Fatalf("seed reply: %v", err)
	}

	list, err := svc.ListForQueue(access.StaffIdentity(agent), queue.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Thanks" {
		t.Fatalf("expected the unrestricted reply only, got %d entries", len(list))
	}

	list, err = svc.ListForQueue(access.StaffIdentity(agent), other.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected both replies for billing, got %d", len(list))
	}

	if _, err := svc.ListForQueue(access.PublicIdentity("someone@example.com"), queue.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("public caller got %v", err)
	}
	if _, err := svc.ListForQueue(access.StaffIdentity(agent), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown queue got %v", err)
	}
}

func TestPresetReplyRenderSubstitutesTicket(t *testing.T) {
	fix := newServiceFixture(t)
	queue := fix.addQueue(t)
	agent := fix.addStaff(t, "alice", "alice@example.com")
	ticket := fix.addTicket(t, queue, nil)
	svc, replies := newPresetReplyService(fix)

	reply := &models.PresetReply{
		Name: "Acknowledge",
		Body: "Re {{ ticket.title }}: we are on it. {% if %} stays literal.",
	}
	if err := replies.Create(reply); err != nil {
		t.Fatalf("seed reply: %v", err)
	}

	body, err := svc.Render(access.StaffIdentity(agent), ticket.ID, reply.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "Re Printer on fire: we are on it. {% if %} stays literal."
	if body != want {
		t.Fatalf("rendered body:\n got %q\nwant %q", body, want)
	}

	if _, err := svc.Render(access.PublicIdentity("submitter@example.com"), ticket.ID, reply.ID); !errors.Is(err, ErrPermission) {
		t.Fatalf("public caller got %v", err)
	}
}

func TestPresetReplyRestrictedToOtherQueueNotFound(t *testing.T) {
	fix := newServiceFixture(t)
	queue := fix.addQueue(t)
	agent := fix.addStaff(t, "alice", "alice@example.com")
	ticket := fix.addTicket(t, queue, nil)
	svc, replies := newPresetReplyService(fix)

	other := &models.Queue{Title: "Billing", Slug: "billing"}
	if err := fix.queues.Create(other); err != nil {
		t.Fatalf("seed queue: %v", err)
	}
	restricted := &models.PresetReply{Name: "Elsewhere", Body: "n/a", QueueIDs: []uint{other.ID}}
	if err := replies.Create(restricted); err != nil {
		t.Fatalf("seed reply: %v", err)
	}

	if _, err := svc.Render(access.StaffIdentity(agent), ticket.ID, restricted.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("restricted reply got %v", err)
	}
}
