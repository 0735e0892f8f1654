package service

import (
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// KBService serves the public knowledge base: category browsing, item
// display with rendered answers, and usefulness voting. No identity is
// involved; every operation is anonymous.
type KBService struct {
	kb repository.IKBRepository
}

// NewKBService creates a new knowledge-base service.
func NewKBService(kb repository.IKBRepository) *KBService {
	return &KBService{kb: kb}
}

// KBItemView is a display projection: the item plus its rendered answer and
// computed usefulness score. Rated is false while the item has no votes.
type KBItemView struct {
	*models.KBItem
	AnswerHTML string `json:"answer_html"`
	Score      int    `json:"score"`
	Rated      bool   `json:"rated"`
}

// Categories lists every knowledge-base category.
func (s *KBService) Categories() ([]*models.KBCategory, error) {
	categories, err := s.kb.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Category resolves a category by slug and returns it with its items.
func (s *KBService) Category(slug string) (*models.KBCategory, []*KBItemView, error) {
	category, err := s.kb.GetCategoryBySlug(slug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load category: %w", err)
	}
	if category == nil {
		return nil, nil, fmt.Errorf("category %q: %w", slug, ErrNotFound)
	}
	items, err := s.kb.ListItems(category.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list items: %w", err)
	}
	views := make([]*KBItemView, 0, len(items))
	for _, item := range items {
		item.Category = category
		views = append(views, itemView(item))
	}
	return category, views, nil
}

// Item returns one knowledge-base entry with its answer rendered to HTML.
func (s *KBService) Item(itemID uint) (*KBItemView, error) {
	item, err := s.kb.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("knowledge base item %d: %w", itemID, ErrNotFound)
	}
	return itemView(item), nil
}

// Vote records one up or down vote and returns the item with its updated
// score. Votes are anonymous and unlimited, matching the public form.
func (s *KBService) Vote(itemID uint, recommend bool) (*KBItemView, error) {
	item, err := s.kb.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("knowledge base item %d: %w", itemID, ErrNotFound)
	}
	if err := s.kb.RecordVote(itemID, recommend); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}
	item, err = s.kb.GetItem(itemID)
	if err != nil || item == nil {
		return nil, fmt.Errorf("failed to reload item: %w", err)
	}
	return itemView(item), nil
}

func itemView(item *models.KBItem) *KBItemView {
	score, rated := item.Score()
	return &KBItemView{
		KBItem:     item,
		AnswerHTML: template.RenderMarkdown(item.Answer),
		Score:      score,
		Rated:      rated,
	}
}
