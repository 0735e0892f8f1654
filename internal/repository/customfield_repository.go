package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const customFieldColumns = `id, name, label, help_text, data_type, max_length,
	decimal_places, list_values, empty_selection_list, required, staff_only, ordering`

// CustomFieldRepository handles database operations for custom field
// definitions and per-ticket values
type CustomFieldRepository struct {
	db *sql.DB
}

// NewCustomFieldRepository creates a new custom field repository
func NewCustomFieldRepository(db *sql.DB) *CustomFieldRepository {
	return &CustomFieldRepository{db: db}
}

func scanCustomField(row rowScanner) (*models.CustomField, error) {
	var f models.CustomField
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Label,
		&f.HelpText,
		&f.DataType,
		&f.MaxLength,
		&f.DecimalPlaces,
		&f.ListValues,
		&f.EmptySelectionList,
		&f.Required,
		&f.StaffOnly,
		&f.Ordering,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateField inserts a field definition and fills its ID.
func (r *CustomFieldRepository) CreateField(field *models.CustomField) error {
	query := `
		INSERT INTO custom_fields (
			name, label, help_text, data_type, max_length, decimal_places,
			list_values, empty_selection_list, required, staff_only, ordering
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		field.Name,
		field.Label,
		field.HelpText,
		field.DataType,
		field.MaxLength,
		field.DecimalPlaces,
		field.ListValues,
		field.EmptySelectionList,
		field.Required,
		field.StaffOnly,
		field.Ordering,
	)
	if err != nil {
		return fmt.Errorf("create custom field: %w", err)
	}
	field.ID = uint(id)
	return nil
}

// GetFieldByName retrieves a field definition. Missing fields return (nil, nil).
func (r *CustomFieldRepository) GetFieldByName(name string) (*models.CustomField, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + customFieldColumns + ` FROM custom_fields WHERE name = $1`)

	field, err := scanCustomField(r.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get custom field %q: %w", name, err)
	}
	return field, nil
}

// ListFields retrieves all field definitions in display order.
func (r *CustomFieldRepository) ListFields() ([]*models.CustomField, error) {
	query := `SELECT ` + customFieldColumns + ` FROM custom_fields ORDER BY ordering, id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	defer rows.Close()

	var fields []*models.CustomField
	for rows.Next() {
		field, err := scanCustomField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

// SetValue upserts the serialized value for one (ticket, field) pair.
func (r *CustomFieldRepository) SetValue(ticketID, fieldID uint, value string) error {
	adapter := database.GetAdapter()

	result, err := adapter.Exec(r.db,
		`UPDATE ticket_custom_field_values SET value = $3 WHERE ticket_id = $1 AND field_id = $2`,
		ticketID, fieldID, value)
	if err != nil {
		return fmt.Errorf("set custom field value: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = adapter.InsertWithReturning(r.db,
		`INSERT INTO ticket_custom_field_values (ticket_id, field_id, value)
		VALUES ($1, $2, $3) RETURNING id`,
		ticketID, fieldID, value)
	if err != nil {
		return fmt.Errorf("set custom field value: %w", err)
	}
	return nil
}

// ListValues retrieves a ticket's values with field definitions joined in.
func (r *CustomFieldRepository) ListValues(ticketID uint) ([]*models.TicketCustomFieldValue, error) {
	query := database.ConvertPlaceholders(`
		SELECT v.id, v.ticket_id, v.field_id, v.value, ` + prefixColumns("f", customFieldColumns) + `
		FROM ticket_custom_field_values v
		JOIN custom_fields f ON f.id = v.field_id
		WHERE v.ticket_id = $1
		ORDER BY f.ordering, f.id`)

	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list custom field values for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var values []*models.TicketCustomFieldValue
	for rows.Next() {
		var v models.TicketCustomFieldValue
		var f models.CustomField
		err := rows.Scan(
			&v.ID, &v.TicketID, &v.FieldID, &v.Value,
			&f.ID, &f.Name, &f.Label, &f.HelpText, &f.DataType, &f.MaxLength,
			&f.DecimalPlaces, &f.ListValues, &f.EmptySelectionList,
			&f.Required, &f.StaffOnly, &f.Ordering,
		)
		if err != nil {
			return nil, err
		}
		v.Field = &f
		values = append(values, &v)
	}
	return values, rows.Err()
}
