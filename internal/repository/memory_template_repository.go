package repository

import (
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryEmailTemplateRepository implements IEmailTemplateRepository with
// in-memory storage
type MemoryEmailTemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]*models.EmailTemplate
	nextID    uint
}

// NewMemoryEmailTemplateRepository creates a new in-memory template repository
func NewMemoryEmailTemplateRepository() *MemoryEmailTemplateRepository {
	return &MemoryEmailTemplateRepository{
		templates: make(map[string]*models.EmailTemplate),
		nextID:    1001,
	}
}

func templateKey(name string, locale *string) string {
	if locale == nil {
		return name
	}
	return name + "|" + *locale
}

// Get retrieves a template by name for the given locale, falling back to the
// locale-less row. Missing templates return (nil, nil).
func (r *MemoryEmailTemplateRepository) Get(name, locale string) (*models.EmailTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if locale != "" {
		if stored, exists := r.templates[templateKey(name, &locale)]; exists {
			tmpl := *stored
			return &tmpl, nil
		}
	}
	if stored, exists := r.templates[templateKey(name, nil)]; exists {
		tmpl := *stored
		return &tmpl, nil
	}
	return nil, nil
}

// Upsert stores a template keyed by (name, locale).
func (r *MemoryEmailTemplateRepository) Upsert(template *models.EmailTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := templateKey(template.TemplateName, template.Locale)
	if existing, exists := r.templates[key]; exists {
		template.ID = existing.ID
	} else {
		template.ID = r.nextID
		r.nextID++
	}
	stored := *template
	r.templates[key] = &stored
	return nil
}

// List returns all templates ordered by name then locale.
func (r *MemoryEmailTemplateRepository) List() ([]*models.EmailTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*models.EmailTemplate, 0, len(r.templates))
	for _, stored := range r.templates {
		tmpl := *stored
		templates = append(templates, &tmpl)
	}
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].TemplateName != templates[j].TemplateName {
			return templates[i].TemplateName < templates[j].TemplateName
		}
		return models.DerefString(templates[i].Locale) < models.DerefString(templates[j].Locale)
	})
	return templates, nil
}

// MemoryPresetReplyRepository implements IPresetReplyRepository with
// in-memory storage
type MemoryPresetReplyRepository struct {
	mu      sync.RWMutex
	replies map[uint]*models.PresetReply
	nextID  uint
}

// NewMemoryPresetReplyRepository creates a new in-memory preset reply
// repository
func NewMemoryPresetReplyRepository() *MemoryPresetReplyRepository {
	return &MemoryPresetReplyRepository{
		replies: make(map[uint]*models.PresetReply),
		nextID:  1001,
	}
}

// Create saves a new reply to memory
func (r *MemoryPresetReplyRepository) Create(reply *models.PresetReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reply.ID = r.nextID
	r.nextID++

	stored := *reply
	stored.QueueIDs = append([]uint(nil), reply.QueueIDs...)
	r.replies[reply.ID] = &stored
	return nil
}

// ListForQueue returns the replies offered for a queue.
func (r *MemoryPresetReplyRepository) ListForQueue(queueID uint) ([]*models.PresetReply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var replies []*models.PresetReply
	for _, stored := range r.replies {
		if stored.AppliesToQueue(queueID) {
			reply := *stored
			reply.QueueIDs = append([]uint(nil), stored.QueueIDs...)
			replies = append(replies, &reply)
		}
	}
	sort.Slice(replies, func(i, j int) bool { return replies[i].Name < replies[j].Name })
	return replies, nil
}
