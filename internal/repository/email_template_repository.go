package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const emailTemplateColumns = `id, template_name, subject, heading, plain_text, html, locale`

// EmailTemplateRepository handles database operations for notification
// templates
type EmailTemplateRepository struct {
	db *sql.DB
}

// NewEmailTemplateRepository creates a new e-mail template repository
func NewEmailTemplateRepository(db *sql.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

func scanEmailTemplate(row rowScanner) (*models.EmailTemplate, error) {
	var t models.EmailTemplate
	err := row.Scan(
		&t.ID,
		&t.TemplateName,
		&t.Subject,
		&t.Heading,
		&t.PlainText,
		&t.HTML,
		&t.Locale,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get retrieves a template by name for the given locale, falling back to the
// locale-less row. Missing templates return (nil, nil).
func (r *EmailTemplateRepository) Get(name, locale string) (*models.EmailTemplate, error) {
	if locale != "" {
		query := database.ConvertPlaceholders(
			`SELECT ` + emailTemplateColumns + ` FROM email_templates
			WHERE template_name = $1 AND locale = $2`)

		tmpl, err := scanEmailTemplate(r.db.QueryRow(query, name, locale))
		if err == nil {
			return tmpl, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get template %q (%s): %w", name, locale, err)
		}
	}

	query := database.ConvertPlaceholders(
		`SELECT ` + emailTemplateColumns + ` FROM email_templates
		WHERE template_name = $1 AND locale IS NULL`)

	tmpl, err := scanEmailTemplate(r.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template %q: %w", name, err)
	}
	return tmpl, nil
}

// Upsert inserts or replaces a template row keyed by (name, locale).
func (r *EmailTemplateRepository) Upsert(template *models.EmailTemplate) error {
	adapter := database.GetAdapter()

	var (
		result sql.Result
		err    error
	)
	if template.Locale != nil {
		result, err = adapter.Exec(r.db, `
			UPDATE email_templates SET subject = $3, heading = $4, plain_text = $5, html = $6
			WHERE template_name = $1 AND locale = $2`,
			template.TemplateName, template.Locale,
			template.Subject, template.Heading, template.PlainText, template.HTML)
	} else {
		result, err = adapter.Exec(r.db, `
			UPDATE email_templates SET subject = $2, heading = $3, plain_text = $4, html = $5
			WHERE template_name = $1 AND locale IS NULL`,
			template.TemplateName,
			template.Subject, template.Heading, template.PlainText, template.HTML)
	}
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", template.TemplateName, err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	id, err := adapter.InsertWithReturning(r.db, `
		INSERT INTO email_templates (template_name, subject, heading, plain_text, html, locale)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		template.TemplateName,
		template.Subject,
		template.Heading,
		template.PlainText,
		template.HTML,
		template.Locale,
	)
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", template.TemplateName, err)
	}
	template.ID = uint(id)
	return nil
}

// List retrieves all templates ordered by name then locale.
func (r *EmailTemplateRepository) List() ([]*models.EmailTemplate, error) {
	query := `SELECT ` + emailTemplateColumns + ` FROM email_templates ORDER BY template_name, locale`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.EmailTemplate
	for rows.Next() {
		tmpl, err := scanEmailTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}
