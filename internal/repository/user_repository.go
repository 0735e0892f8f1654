package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

const userColumns = `id, username, first_name, last_name, email, is_active, is_staff, is_superuser, created`

// UserRepository handles database operations for staff users, simple
// e-mail identities, and per-user settings
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.IsActive,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.Created,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID. Missing users return (nil, nil).
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + userColumns + ` FROM users WHERE id = $1`)

	user, err := scanUser(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by e-mail address. Missing users return (nil, nil).
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := database.ConvertPlaceholders(
		`SELECT ` + userColumns + ` FROM users WHERE email = $1`)

	user, err := scanUser(r.db.QueryRow(query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetSettings retrieves a user's stored settings, falling back to the
// defaults when no record exists.
func (r *UserRepository) GetSettings(userID uint) (*models.UserSettings, error) {
	query := database.ConvertPlaceholders(`
		SELECT user_id, login_view_ticketlist, email_on_ticket_change,
			email_on_ticket_assign, tickets_per_page, use_email_as_submitter
		FROM user_settings WHERE user_id = $1`)

	var s models.UserSettings
	err := r.db.QueryRow(query, userID).Scan(
		&s.UserID,
		&s.LoginViewTicketlist,
		&s.EmailOnTicketChange,
		&s.EmailOnTicketAssign,
		&s.TicketsPerPage,
		&s.UseEmailAsSubmitter,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultUserSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings for user %d: %w", userID, err)
	}
	return &s, nil
}

// SaveSettings validates and upserts a user's settings record.
func (r *UserRepository) SaveSettings(settings *models.UserSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	adapter := database.GetAdapter()

	result, err := adapter.Exec(r.db, `
		UPDATE user_settings SET
			login_view_ticketlist = $2,
			email_on_ticket_change = $3,
			email_on_ticket_assign = $4,
			tickets_per_page = $5,
			use_email_as_submitter = $6
		WHERE user_id = $1`,
		settings.UserID,
		settings.LoginViewTicketlist,
		settings.EmailOnTicketChange,
		settings.EmailOnTicketAssign,
		settings.TicketsPerPage,
		settings.UseEmailAsSubmitter,
	)
	if err != nil {
		return fmt.Errorf("save settings for user %d: %w", settings.UserID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = adapter.Exec(r.db, `
		INSERT INTO user_settings (
			user_id, login_view_ticketlist, email_on_ticket_change,
			email_on_ticket_assign, tickets_per_page, use_email_as_submitter
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		settings.UserID,
		settings.LoginViewTicketlist,
		settings.EmailOnTicketChange,
		settings.EmailOnTicketAssign,
		settings.TicketsPerPage,
		settings.UseEmailAsSubmitter,
	)
	if err != nil {
		return fmt.Errorf("save settings for user %d: %w", settings.UserID, err)
	}
	return nil
}

// FindSimpleUserByEmail retrieves a simple e-mail identity. Missing rows
// return (nil, nil).
func (r *UserRepository) FindSimpleUserByEmail(email string) (*models.SimpleUserEmail, error) {
	query := database.ConvertPlaceholders(
		`SELECT id, email, customer_id, created FROM simple_user_emails WHERE email = $1`)

	var u models.SimpleUserEmail
	err := r.db.QueryRow(query, email).Scan(&u.ID, &u.Email, &u.CustomerID, &u.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find simple user by email: %w", err)
	}
	return &u, nil
}

// CreateSimpleUser inserts a simple e-mail identity and fills its ID.
func (r *UserRepository) CreateSimpleUser(user *models.SimpleUserEmail) error {
	query := `
		INSERT INTO simple_user_emails (email, customer_id, created)
		VALUES ($1, $2, $3)
		RETURNING id`

	adapter := database.GetAdapter()
	id, err := adapter.InsertWithReturning(r.db, query, user.Email, user.CustomerID, user.Created)
	if err != nil {
		return fmt.Errorf("create simple user: %w", err)
	}
	user.ID = uint(id)
	return nil
}

// UpdateSimpleUserCustomer sets the customer link on a simple identity.
func (r *UserRepository) UpdateSimpleUserCustomer(id uint, customerID *uint) error {
	adapter := database.GetAdapter()
	_, err := adapter.Exec(r.db,
		`UPDATE simple_user_emails SET customer_id = $2 WHERE id = $1`, id, customerID)
	if err != nil {
		return fmt.Errorf("update simple user %d: %w", id, err)
	}
	return nil
}
