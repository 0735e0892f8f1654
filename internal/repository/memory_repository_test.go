package repository

import (
	"testing"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func TestMemoryTicketRepository(t *testing.T) {
	repo := NewMemoryTicketRepository()

	ticket := &models.Ticket{
		Title:    "Printer on fire",
		QueueID:  1,
		Status:   models.StatusOpen,
		Priority: models.PriorityNormal,
		Created:  time.Now(),
	}
	if err := repo.Create(ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	got, err := repo.GetByID(ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "Printer on fire" {
		t.Fatalf("unexpected ticket: %+v", got)
	}

	// Mutating the returned copy must not touch the stored row.
	got.Title = "changed locally"
	again, _ := repo.GetByID(ticket.ID)
	if again.Title != "Printer on fire" {
		t.Fatal("stored ticket aliased by returned copy")
	}

	missing, err := repo.GetByID(99999)
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing ticket, got (%+v, %v)", missing, err)
	}

	got.Title = "updated"
	if err := repo.Update(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, _ := repo.GetByID(ticket.ID)
	if after.Title != "updated" {
		t.Fatalf("update not persisted: %q", after.Title)
	}
}

func TestMemoryTicketRepositoryListMergedInto(t *testing.T) {
	repo := NewMemoryTicketRepository()

	target := &models.Ticket{Title: "target", QueueID: 1, Status: models.StatusOpen}
	if err := repo.Create(target); err != nil {
		t.Fatalf("create target: %v", err)
	}

	for i := 0; i < 2; i++ {
		dup := &models.Ticket{
			Title:      "dup",
			QueueID:    1,
			Status:     models.StatusDuplicate,
			MergedToID: models.UintPtr(target.ID),
		}
		if err := repo.Create(dup); err != nil {
			t.Fatalf("create dup: %v", err)
		}
	}

	merged, err := repo.ListMergedInto(target.ID)
	if err != nil {
		t.Fatalf("list merged: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged tickets, got %d", len(merged))
	}
}

func TestMemoryTicketRepositoryListOpenByQueue(t *testing.T) {
	repo := NewMemoryTicketRepository()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	statuses := []int{models.StatusOpen, models.StatusClosed, models.StatusReopened}
	for i, status := range statuses {
		ticket := &models.Ticket{
			Title:   "t",
			QueueID: 5,
			Status:  status,
			Created: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Create(ticket); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	open, err := repo.ListOpenByQueue(5)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open tickets, got %d", len(open))
	}
	if !open[0].Created.Before(open[1].Created) {
		t.Fatal("expected chronological order")
	}
}

func TestMemoryFollowUpRepository(t *testing.T) {
	repo := NewMemoryFollowUpRepository()

	fu := &models.FollowUp{
		TicketID: 1,
		Date:     time.Now(),
		Title:    models.StringPtr("Comment"),
		Public:   true,
		UserID:   models.UintPtr(10),
	}
	if err := repo.Create(fu); err != nil {
		t.Fatalf("create: %v", err)
	}

	changes := []models.TicketChange{
		{Field: "Status", OldValue: models.StringPtr("Open"), NewValue: models.StringPtr("Resolved")},
	}
	if err := repo.AddChanges(fu.ID, changes); err != nil {
		t.Fatalf("add changes: %v", err)
	}

	listed, err := repo.ListChanges(fu.ID)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	if len(listed) != 1 || listed[0].Field != "Status" {
		t.Fatalf("unexpected changes: %+v", listed)
	}

	att := &models.Attachment{FollowUpID: fu.ID, Filename: "log.txt", MimeType: "text/plain", Size: 4}
	if err := repo.AddAttachment(att); err != nil {
		t.Fatalf("add attachment: %v", err)
	}
	atts, err := repo.ListAttachments(fu.ID)
	if err != nil || len(atts) != 1 {
		t.Fatalf("unexpected attachments: %+v, %v", atts, err)
	}

	hasStaff, err := repo.HasPublicStaffFollowUp(1)
	if err != nil {
		t.Fatalf("has public staff: %v", err)
	}
	if !hasStaff {
		t.Fatal("expected public staff follow-up to be found")
	}

	hasStaff, _ = repo.HasPublicStaffFollowUp(2)
	if hasStaff {
		t.Fatal("wrong ticket matched")
	}
}

func TestMemoryEmailTemplateRepositoryLocaleFallback(t *testing.T) {
	repo := NewMemoryEmailTemplateRepository()

	base := &models.EmailTemplate{
		TemplateName: models.TemplateUpdatedSubmitter,
		Subject:      "updated",
	}
	if err := repo.Upsert(base); err != nil {
		t.Fatalf("upsert base: %v", err)
	}
	french := &models.EmailTemplate{
		TemplateName: models.TemplateUpdatedSubmitter,
		Subject:      "mis a jour",
		Locale:       models.StringPtr("fr"),
	}
	if err := repo.Upsert(french); err != nil {
		t.Fatalf("upsert fr: %v", err)
	}

	got, err := repo.Get(models.TemplateUpdatedSubmitter, "fr")
	if err != nil || got == nil {
		t.Fatalf("get fr: %+v, %v", got, err)
	}
	if got.Subject != "mis a jour" {
		t.Fatalf("expected locale row, got %q", got.Subject)
	}

	got, err = repo.Get(models.TemplateUpdatedSubmitter, "de")
	if err != nil || got == nil {
		t.Fatalf("get de: %+v, %v", got, err)
	}
	if got.Subject != "updated" {
		t.Fatalf("expected fallback row, got %q", got.Subject)
	}

	got, err = repo.Get("never_seeded", "fr")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) for unknown template, got (%+v, %v)", got, err)
	}
}

func TestMemoryDependencyRepositoryJoinsBlockingTickets(t *testing.T) {
	tickets := NewMemoryTicketRepository()
	deps := NewMemoryDependencyRepository(tickets)

	blocker := &models.Ticket{Title: "blocker", QueueID: 1, Status: models.StatusOpen}
	if err := tickets.Create(blocker); err != nil {
		t.Fatalf("create blocker: %v", err)
	}

	dep := &models.TicketDependency{TicketID: 500, DependsOnID: blocker.ID}
	if err := deps.Create(dep); err != nil {
		t.Fatalf("create dep: %v", err)
	}

	exists, err := deps.Exists(500, blocker.ID)
	if err != nil || !exists {
		t.Fatalf("expected edge to exist: %v", err)
	}

	listed, err := deps.ListByTicket(500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].DependsOn == nil || listed[0].DependsOn.Title != "blocker" {
		t.Fatalf("blocking ticket not joined: %+v", listed)
	}
}

func TestMemoryUserRepositorySettings(t *testing.T) {
	repo := NewMemoryUserRepository()

	settings, err := repo.GetSettings(42)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.TicketsPerPage != models.DefaultTicketsPerPage {
		t.Fatalf("expected defaults, got %+v", settings)
	}

	settings.TicketsPerPage = 50
	settings.EmailOnTicketChange = false
	if err := repo.SaveSettings(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	stored, _ := repo.GetSettings(42)
	if stored.TicketsPerPage != 50 || stored.EmailOnTicketChange {
		t.Fatalf("settings not persisted: %+v", stored)
	}

	settings.TicketsPerPage = 33
	if err := repo.SaveSettings(settings); err == nil {
		t.Fatal("expected validation error for bad page size")
	}
}
