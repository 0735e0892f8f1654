package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

func seedKB(t *testing.T) (*KBService, *models.KBCategory, *models.KBItem) {
	t.Helper()
	repo := repository.NewMemoryKBRepository()
	category := &models.KBCategory{Title: "Networking", Slug: "networking", Description: "VPN and Wi-Fi"}
	repo.AddCategory(category)
	item := &models.KBItem{
		CategoryID: category.ID,
		Title:      "VPN drops",
		Question:   "Why does the VPN keep dropping?",
		Answer:     "Restart the client.\n\n**Still failing?** Call us.",
	}
	repo.AddItem(item)
	return NewKBService(repo), category, item
}

func TestKBCategoryBrowsing(t *testing.T) {
	svc, category, item := seedKB(t)

	categories, err := svc.Categories()
	if err != nil || len(categories) != 1 {
		t.Fatalf("categories: %v (%d)", err, len(categories))
	}

	loaded, items, err := svc.Category("networking")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if loaded.ID != category.ID || len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("wrong category load: %+v, %d items", loaded, len(items))
	}
	if items[0].Category == nil || items[0].Category.Slug != "networking" {
		t.Fatalf("category not joined onto item: %+v", items[0].Category)
	}

	if _, _, err := svc.Category("no-such"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing category: got %v", err)
	}
}

func TestKBItemRendersAnswer(t *testing.T) {
	svc, _, item := seedKB(t)

	view, err := svc.Item(item.ID)
	if err != nil {
		t.Fatalf("item: %v", err)
	}
	if !strings.Contains(view.AnswerHTML, "<strong>Still failing?</strong>") {
		t.Fatalf("markdown not rendered: %q", view.AnswerHTML)
	}
	if view.Rated {
		t.Fatal("unvoted item reads as rated")
	}
}

func TestKBVoteUpdatesScore(t *testing.T) {
	svc, _, item := seedKB(t)

	view, err := svc.Vote(item.ID, true)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !view.Rated || view.Score != 10 {
		t.Fatalf("after one up vote: rated=%v score=%d", view.Rated, view.Score)
	}

	view, err = svc.Vote(item.ID, false)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if view.Votes != 2 || view.Recommendations != 1 || view.Score != 5 {
		t.Fatalf("after a down vote: %d/%d score=%d", view.Recommendations, view.Votes, view.Score)
	}

	if _, err := svc.Vote(9999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("vote on missing item: got %v", err)
	}
}
