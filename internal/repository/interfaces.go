package repository

import (
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// ITicketRepository defines the interface for ticket data operations
type ITicketRepository interface {
	Create(ticket *models.Ticket) error
	GetByID(id uint) (*models.Ticket, error)
	Update(ticket *models.Ticket) error
	Delete(id uint) error
	List() ([]*models.Ticket, error)
	ListMergedInto(targetID uint) ([]*models.Ticket, error)
	ListOpenByQueue(queueID uint) ([]*models.Ticket, error)
}

// IQueueRepository defines the interface for queue data operations
type IQueueRepository interface {
	Create(queue *models.Queue) error
	GetByID(id uint) (*models.Queue, error)
	GetBySlug(slug string) (*models.Queue, error)
	Update(queue *models.Queue) error
	List() ([]*models.Queue, error)
}

// IFollowUpRepository defines the interface for follow-up, change-row, and
// attachment data operations. Follow-ups and their children are append-only.
type IFollowUpRepository interface {
	Create(followUp *models.FollowUp) error
	GetByID(id uint) (*models.FollowUp, error)
	ListByTicket(ticketID uint) ([]*models.FollowUp, error)
	AddChanges(followUpID uint, changes []models.TicketChange) error
	ListChanges(followUpID uint) ([]models.TicketChange, error)
	AddAttachment(attachment *models.Attachment) error
	GetAttachment(id uint) (*models.Attachment, error)
	DeleteAttachment(id uint) error
	ListAttachments(followUpID uint) ([]models.Attachment, error)
	HasPublicStaffFollowUp(ticketID uint) (bool, error)
}

// ICCRepository defines the interface for ticket subscription data operations
type ICCRepository interface {
	Create(cc *models.TicketCC) error
	ListByTicket(ticketID uint) ([]*models.TicketCC, error)
	Delete(id uint) error
}

// IDependencyRepository defines the interface for ticket dependency data operations
type IDependencyRepository interface {
	Create(dep *models.TicketDependency) error
	ListByTicket(ticketID uint) ([]*models.TicketDependency, error)
	Exists(ticketID, dependsOnID uint) (bool, error)
	Delete(id uint) error
}

// ICustomFieldRepository defines the interface for custom field schema and value data operations
type ICustomFieldRepository interface {
	CreateField(field *models.CustomField) error
	GetFieldByName(name string) (*models.CustomField, error)
	ListFields() ([]*models.CustomField, error)
	SetValue(ticketID, fieldID uint, value string) error
	ListValues(ticketID uint) ([]*models.TicketCustomFieldValue, error)
}

// IUserRepository defines the interface for staff identities, simple e-mail
// identities, and per-user settings data operations
type IUserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetSettings(userID uint) (*models.UserSettings, error)
	SaveSettings(settings *models.UserSettings) error
	FindSimpleUserByEmail(email string) (*models.SimpleUserEmail, error)
	CreateSimpleUser(user *models.SimpleUserEmail) error
	UpdateSimpleUserCustomer(id uint, customerID *uint) error
}

// IEmailTemplateRepository defines the interface for notification template data operations
type IEmailTemplateRepository interface {
	Get(name, locale string) (*models.EmailTemplate, error)
	Upsert(template *models.EmailTemplate) error
	List() ([]*models.EmailTemplate, error)
}

// IPresetReplyRepository defines the interface for canned response data operations
type IPresetReplyRepository interface {
	Create(reply *models.PresetReply) error
	ListForQueue(queueID uint) ([]*models.PresetReply, error)
}

// ISavedSearchRepository defines the interface for saved query data operations
type ISavedSearchRepository interface {
	Create(search *models.SavedSearch) error
	GetByID(id uint) (*models.SavedSearch, error)
	ListVisibleTo(userID uint) ([]*models.SavedSearch, error)
	Delete(id uint) error
}

// IKBRepository defines the interface for knowledge-base data operations
type IKBRepository interface {
	ListCategories() ([]*models.KBCategory, error)
	GetCategoryBySlug(slug string) (*models.KBCategory, error)
	ListItems(categoryID uint) ([]*models.KBItem, error)
	GetItem(id uint) (*models.KBItem, error)
	RecordVote(itemID uint, recommend bool) error
}

// ILookupRepository resolves classifier links to their display records.
type ILookupRepository interface {
	GetCategory(id uint) (*models.Category, error)
	GetTicketType(id uint) (*models.TicketType, error)
	GetCustomer(id uint) (*models.Customer, error)
	GetCustomerContact(id uint) (*models.CustomerContact, error)
	GetSite(id uint) (*models.Site, error)
	GetCustomerProduct(id uint) (*models.CustomerProduct, error)
}

// IExclusionRepository defines the interface for escalation exclusion data operations
type IExclusionRepository interface {
	Create(exclusion *models.EscalationExclusion) error
	List() ([]*models.EscalationExclusion, error)
}

// IIgnoreRepository defines the interface for ignore-list data operations
type IIgnoreRepository interface {
	Create(entry *models.IgnoreEmail) error
	List() ([]*models.IgnoreEmail, error)
}
