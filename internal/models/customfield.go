package models

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Custom field data types
const (
	FieldTypeVarchar   = "varchar"
	FieldTypeText      = "text"
	FieldTypeInteger   = "integer"
	FieldTypeDecimal   = "decimal"
	FieldTypeList      = "list"
	FieldTypeBoolean   = "boolean"
	FieldTypeDate      = "date"
	FieldTypeTime      = "time"
	FieldTypeDateTime  = "datetime"
	FieldTypeEmail     = "email"
	FieldTypeURL       = "url"
	FieldTypeIPAddress = "ipaddress"
	FieldTypeSlug      = "slug"
)

// CustomField defines a typed extension attribute attachable to any ticket.
type CustomField struct {
	ID                 uint    `json:"id" db:"id"`
	Name               string  `json:"name" db:"name"`
	Label              string  `json:"label" db:"label"`
	HelpText           *string `json:"help_text,omitempty" db:"help_text"`
	DataType           string  `json:"data_type" db:"data_type"`
	MaxLength          *int    `json:"max_length,omitempty" db:"max_length"`
	DecimalPlaces      *int    `json:"decimal_places,omitempty" db:"decimal_places"`
	ListValues         *string `json:"list_values,omitempty" db:"list_values"`
	EmptySelectionList bool    `json:"empty_selection_list" db:"empty_selection_list"`
	Required           bool    `json:"required" db:"required"`
	StaffOnly          bool    `json:"staff_only" db:"staff_only"`
	Ordering           *int    `json:"ordering,omitempty" db:"ordering"`
}

// TicketCustomFieldValue stores one (ticket, field) -> value pair. Values are
// kept serialized; type-specific decoding happens at the boundary.
type TicketCustomFieldValue struct {
	ID       uint    `json:"id" db:"id"`
	TicketID uint    `json:"ticket_id" db:"ticket_id"`
	FieldID  uint    `json:"field_id" db:"field_id"`
	Value    *string `json:"value,omitempty" db:"value"`

	// Joined field (populated when needed)
	Field *CustomField `json:"field,omitempty"`
}

// Choices returns the selectable values of a list field, one per line of
// ListValues.
func (f *CustomField) Choices() []string {
	if f.ListValues == nil {
		return nil
	}
	lines := strings.Split(*f.ListValues, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if v := strings.TrimSpace(line); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var slugValuePattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
}

// ValidateValue checks a serialized value against the field's data type.
// An empty value is only rejected for required fields. Unrecognized data
// types are a validation error, never silently accepted.
func (f *CustomField) ValidateValue(value string) error {
	if value == "" {
		if f.Required {
			return &FieldError{Field: f.Name, Reason: "required"}
		}
		return nil
	}

	switch f.DataType {
	case FieldTypeVarchar:
		if f.MaxLength != nil && len(value) > *f.MaxLength {
			return &FieldError{Field: f.Name, Reason: fmt.Sprintf("longer than %d characters", *f.MaxLength)}
		}
	case FieldTypeText:
		// free text
	case FieldTypeInteger:
		if _, err := strconv.Atoi(value); err != nil {
			return &FieldError{Field: f.Name, Reason: "not an integer"}
		}
	case FieldTypeDecimal:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return &FieldError{Field: f.Name, Reason: "not a decimal number"}
		}
	case FieldTypeList:
		for _, choice := range f.Choices() {
			if value == choice {
				return nil
			}
		}
		return &FieldError{Field: f.Name, Reason: "not one of the configured choices"}
	case FieldTypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return &FieldError{Field: f.Name, Reason: "not a boolean"}
		}
	case FieldTypeDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return &FieldError{Field: f.Name, Reason: "not a date (YYYY-MM-DD)"}
		}
	case FieldTypeTime:
		if !parseAny(value, timeLayouts) {
			return &FieldError{Field: f.Name, Reason: "not a time (HH:MM)"}
		}
	case FieldTypeDateTime:
		if !parseAny(value, datetimeLayouts) {
			return &FieldError{Field: f.Name, Reason: "not a datetime"}
		}
	case FieldTypeEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return &FieldError{Field: f.Name, Reason: "not an e-mail address"}
		}
	case FieldTypeURL:
		u, err := url.ParseRequestURI(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &FieldError{Field: f.Name, Reason: "not a URL"}
		}
	case FieldTypeIPAddress:
		if net.ParseIP(value) == nil {
			return &FieldError{Field: f.Name, Reason: "not an IP address"}
		}
	case FieldTypeSlug:
		if !slugValuePattern.MatchString(value) {
			return &FieldError{Field: f.Name, Reason: "not a slug"}
		}
	default:
		return &FieldError{Field: f.Name, Reason: fmt.Sprintf("unrecognized data type %q", f.DataType)}
	}
	return nil
}

func parseAny(value string, layouts []string) bool {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
