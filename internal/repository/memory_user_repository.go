package repository

import (
	"sync"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryUserRepository implements IUserRepository with in-memory storage
type MemoryUserRepository struct {
	mu          sync.RWMutex
	users       map[uint]*models.User
	settings    map[uint]*models.UserSettings
	simpleUsers map[uint]*models.SimpleUserEmail
	nextID      uint
}

// NewMemoryUserRepository creates a new in-memory user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:       make(map[uint]*models.User),
		settings:    make(map[uint]*models.UserSettings),
		simpleUsers: make(map[uint]*models.SimpleUserEmail),
		nextID:      1001,
	}
}

// AddUser seeds a staff user. Test helper; staff identities are owned by the
// surrounding application and never created through the helpdesk itself.
func (r *MemoryUserRepository) AddUser(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	stored := *user
	r.users[user.ID] = &stored
}

// GetByID retrieves a user by ID. Missing users return (nil, nil).
func (r *MemoryUserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.users[id]
	if !exists {
		return nil, nil
	}
	user := *stored
	return &user, nil
}

// GetByEmail retrieves a user by e-mail. Missing users return (nil, nil).
func (r *MemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.users {
		if stored.Email == email {
			user := *stored
			return &user, nil
		}
	}
	return nil, nil
}

// GetSettings returns a user's settings, falling back to the defaults.
func (r *MemoryUserRepository) GetSettings(userID uint) (*models.UserSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.settings[userID]
	if !exists {
		return models.DefaultUserSettings(userID), nil
	}
	settings := *stored
	return &settings, nil
}

// SaveSettings validates and stores a user's settings.
func (r *MemoryUserRepository) SaveSettings(settings *models.UserSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *settings
	r.settings[settings.UserID] = &stored
	return nil
}

// FindSimpleUserByEmail retrieves a simple identity. Missing rows return (nil, nil).
func (r *MemoryUserRepository) FindSimpleUserByEmail(email string) (*models.SimpleUserEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.simpleUsers {
		if stored.Email == email {
			user := *stored
			return &user, nil
		}
	}
	return nil, nil
}

// CreateSimpleUser saves a new simple identity to memory
func (r *MemoryUserRepository) CreateSimpleUser(user *models.SimpleUserEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = r.nextID
	r.nextID++

	stored := *user
	r.simpleUsers[user.ID] = &stored
	return nil
}

// UpdateSimpleUserCustomer sets the customer link on a simple identity.
func (r *MemoryUserRepository) UpdateSimpleUserCustomer(id uint, customerID *uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, exists := r.simpleUsers[id]; exists {
		stored.CustomerID = customerID
	}
	return nil
}
