package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const queueColumns = `id, title, slug, email_address, locale,
	allow_public_submission, allow_email_submission, escalate_days,
	new_ticket_cc, updated_ticket_cc,
	email_box_type, email_box_host, email_box_port, email_box_ssl,
	email_box_user, email_box_pass, email_box_imap_folder, email_box_interval,
	default_owner_id, permission_name`

// QueueRepository handles database operations for queues
type QueueRepository struct {
	db *sql.DB
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

func scanQueue(row rowScanner) (*models.Queue, error) {
	var q models.Queue
	err := row.Scan(
		&q.ID,
		&q.Title,
		&q.Slug,
		&q.EmailAddress,
		&q.Locale,
		&q.AllowPublicSubmission,
		&q.AllowEmailSubmission,
		&q.EscalateDays,
		&q.NewTicketCC,
		&q.UpdatedTicketCC,
		&q.EmailBoxType,
		&q.EmailBoxHost,
		&q.EmailBoxPort,
		&q.EmailBoxSSL,
		&q.EmailBoxUser,
		&q.EmailBoxPass,
		&q.EmailBoxImapFolder,
		&q.EmailBoxInterval,
		&q.DefaultOwnerID,
		&q.PermissionName,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a queue after filling its derived defaults.
func (r *QueueRepository) Create(queue *models.Queue) error {
	queue.EnsureDefaults()

	query := `
		INSERT INTO queues (
			title, slug, email_address, locale,
			allow_public_submission, allow_email_submission, escalate_days,
			new_ticket_cc, updated_ticket_cc,
			email_box_type, email_box_host, email_box_port, email_box_ssl,
			email_box_user, email_box_pass, email_box_imap_folder, email_box_interval,
			default_owner_id, permission_name
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		) RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(
		r.db, query,
		queue.Title,
		queue.Slug,
		queue.EmailAddress,
		queue.Locale,
		queue.AllowPublicSubmission,
		queue.AllowEmailSubmission,
		queue.EscalateDays,
		queue.NewTicketCC,
		queue.UpdatedTicketCC,
		queue.EmailBoxType,
		queue.EmailBoxHost,
		queue.EmailBoxPort,
		queue.EmailBoxSSL,
		queue.EmailBoxUser,
		queue.EmailBoxPass,
		queue.EmailBoxImapFolder,
		queue.EmailBoxInterval,
		queue.DefaultOwnerID,
		queue.PermissionName,
	)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	queue.ID = uint(id)
	return nil
}

// GetByID retrieves a queue by ID. Missing queues return (nil, nil).
func (r *QueueRepository) GetByID(id uint) (*models.Queue, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + queueColumns + ` FROM queues WHERE id = $1`)

	queue, err := scanQueue(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue %d: %w", id, err)
	}
	return queue, nil
}

// GetBySlug retrieves a queue by slug. Missing queues return (nil, nil).
func (r *QueueRepository) GetBySlug(slug string) (*models.Queue, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + queueColumns + ` FROM queues WHERE slug = $1`)

	queue, err := scanQueue(r.db.QueryRow(query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue %q: %w", slug, err)
	}
	return queue, nil
}

// Update persists all mutable queue fields.
func (r *QueueRepository) Update(queue *models.Queue) error {
	queue.EnsureDefaults()

	query := `
		UPDATE queues SET
			title = $2,
			slug = $3,
			email_address = $4,
			locale = $5,
			allow_public_submission = $6,
			allow_email_submission = $7,
			escalate_days = $8,
			new_ticket_cc = $9,
			updated_ticket_cc = $10,
			email_box_type = $11,
			email_box_host = $12,
			email_box_port = $13,
			email_box_ssl = $14,
			email_box_user = $15,
			email_box_pass = $16,
			email_box_imap_folder = $17,
			email_box_interval = $18,
			default_owner_id = $19,
			permission_name = $20
		WHERE id = $1`

	adapter := database.GetAdapter()
	_, err := adapter.Exec(
		r.db, query,
		queue.ID,
		queue.Title,
		queue.Slug,
		queue.EmailAddress,
		queue.Locale,
		queue.AllowPublicSubmission,
		queue.AllowEmailSubmission,
		queue.EscalateDays,
		queue.NewTicketCC,
		queue.UpdatedTicketCC,
		queue.EmailBoxType,
		queue.EmailBoxHost,
		queue.EmailBoxPort,
		queue.EmailBoxSSL,
		queue.EmailBoxUser,
		queue.EmailBoxPass,
		queue.EmailBoxImapFolder,
		queue.EmailBoxInterval,
		queue.DefaultOwnerID,
		queue.PermissionName,
	)
	if err != nil {
		return fmt.Errorf("update queue %d: %w", queue.ID, err)
	}
	return nil
}

// List retrieves all queues ordered by title.
func (r *QueueRepository) List() ([]*models.Queue, error) {
	query := `SELECT ` + queueColumns + ` FROM queues ORDER BY title`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()

	var queues []*models.Queue
	for rows.Next() {
		queue, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}
