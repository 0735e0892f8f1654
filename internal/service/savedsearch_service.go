package service

import (
	"fmt"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/query"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// SavedSearchService persists and shares named ticket queries.
type SavedSearchService struct {
	searches repository.ISavedSearchRepository
	now      func() time.Time
}

// NewSavedSearchService creates a new saved search service.
func NewSavedSearchService(searches repository.ISavedSearchRepository) *SavedSearchService {
	return &SavedSearchService{searches: searches, now: time.Now}
}

// Save stores the encoded query under a title for the acting user. The
// stored string is re-encoded through the specification codec, so whatever
// is later loaded always decodes cleanly.
func (s *SavedSearchService) Save(id *access.Identity, title string, shared bool, encodedQuery string) (*models.SavedSearch, error) {
	user := actingUser(id)
	if user == nil {
		return nil, fmt.Errorf("saved searches are a staff feature: %w", ErrPermission)
	}
	if title == "" {
		return nil, fmt.Errorf("a title is required: %w", ErrValidation)
	}

	spec, _ := query.Decode(encodedQuery)
	canonical, err := query.Encode(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	search := &models.SavedSearch{
		UserID:  user.ID,
		Title:   title,
		Shared:  shared,
		Query:   canonical,
		Created: s.now(),
	}
	if err := s.searches.Create(search); err != nil {
		return nil, fmt.Errorf("failed to create saved search: %w", err)
	}
	return search, nil
}

// Load returns a saved search the acting user may see: their own or a
// shared one. Anything else reads as missing.
func (s *SavedSearchService) Load(id *access.Identity, searchID uint) (*models.SavedSearch, error) {
	user := actingUser(id)
	if user == nil {
		return nil, fmt.Errorf("saved searches are a staff feature: %w", ErrPermission)
	}
	search, err := s.searches.GetByID(searchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved search: %w", err)
	}
	if search == nil || !search.VisibleTo(user.ID) {
		return nil, fmt.Errorf("saved search %d: %w", searchID, ErrNotFound)
	}
	return search, nil
}

// ListFor returns the acting user's own searches plus every shared one.
func (s *SavedSearchService) ListFor(id *access.Identity) ([]*models.SavedSearch, error) {
	user := actingUser(id)
	if user == nil {
		return nil, fmt.Errorf("saved searches are a staff feature: %w", ErrPermission)
	}
	searches, err := s.searches.ListVisibleTo(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	return searches, nil
}

// Delete removes a saved search. Only the owner may delete it; a shared
// search still reads as missing to everyone else here.
func (s *SavedSearchService) Delete(id *access.Identity, searchID uint) error {
	user := actingUser(id)
	if user == nil {
		return fmt.Errorf("saved searches are a staff feature: %w", ErrPermission)
	}
	search, err := s.searches.GetByID(searchID)
	if err != nil {
		return fmt.Errorf("failed to load saved search: %w", err)
	}
	if search == nil || search.UserID != user.ID {
		return fmt.Errorf("saved search %d: %w", searchID, ErrNotFound)
	}
	if err := s.searches.Delete(searchID); err != nil {
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	return nil
}
