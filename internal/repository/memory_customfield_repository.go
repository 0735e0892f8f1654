package repository

import (
	"sort"
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryCustomFieldRepository implements ICustomFieldRepository with
// in-memory storage
type MemoryCustomFieldRepository struct {
	mu     sync.RWMutex
	fields map[uint]*models.CustomField
	values map[uint]map[uint]*models.TicketCustomFieldValue
	nextID uint
}

// NewMemoryCustomFieldRepository creates a new in-memory custom field
// repository
func NewMemoryCustomFieldRepository() *MemoryCustomFieldRepository {
	return &MemoryCustomFieldRepository{
		fields: make(map[uint]*models.CustomField),
		values: make(map[uint]map[uint]*models.TicketCustomFieldValue),
		nextID: 1001,
	}
}

// CreateField saves a new field definition to memory
func (r *MemoryCustomFieldRepository) CreateField(field *models.CustomField) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	field.ID = r.nextID
	r.nextID++

	stored := *field
	r.fields[field.ID] = &stored
	return nil
}

// GetFieldByName retrieves a field definition. Missing fields return (nil, nil).
func (r *MemoryCustomFieldRepository) GetFieldByName(name string) (*models.CustomField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.fields {
		if stored.Name == name {
			field := *stored
			return &field, nil
		}
	}
	return nil, nil
}

// ListFields returns all field definitions in display order.
func (r *MemoryCustomFieldRepository) ListFields() ([]*models.CustomField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make([]*models.CustomField, 0, len(r.fields))
	for _, stored := range r.fields {
		field := *stored
		fields = append(fields, &field)
	}
	sort.Slice(fields, func(i, j int) bool {
		oi, oj := models.DerefInt(fields[i].Ordering), models.DerefInt(fields[j].Ordering)
		if oi != oj {
			return oi < oj
		}
		return fields[i].ID < fields[j].ID
	})
	return fields, nil
}

// SetValue upserts the serialized value for one (ticket, field) pair.
func (r *MemoryCustomFieldRepository) SetValue(ticketID, fieldID uint, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byField, exists := r.values[ticketID]
	if !exists {
		byField = make(map[uint]*models.TicketCustomFieldValue)
		r.values[ticketID] = byField
	}

	if existing, exists := byField[fieldID]; exists {
		v := value
		existing.Value = &v
		return nil
	}

	v := value
	byField[fieldID] = &models.TicketCustomFieldValue{
		ID:       r.nextID,
		TicketID: ticketID,
		FieldID:  fieldID,
		Value:    &v,
	}
	r.nextID++
	return nil
}

// ListValues returns a ticket's values with field definitions joined in.
func (r *MemoryCustomFieldRepository) ListValues(ticketID uint) ([]*models.TicketCustomFieldValue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var values []*models.TicketCustomFieldValue
	for fieldID, stored := range r.values[ticketID] {
		value := *stored
		if field, exists := r.fields[fieldID]; exists {
			f := *field
			value.Field = &f
		}
		values = append(values, &value)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].ID < values[j].ID })
	return values, nil
}
