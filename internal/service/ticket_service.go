// Package service implements the helpdesk workflows over the repository
// layer: ticket creation, the audited update, bulk actions, subscriptions,
// dependencies, saved searches, settings, the knowledge base, and reporting.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/history"
	"github.com/helpdesk-io/helpdesk-ce/internal/lifecycle"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/storage"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// TicketService handles business logic for tickets: creation (staff and
// public), the update workflow, holds, quick patches, bulk actions, and
// deletion.
type TicketService struct {
	tickets      repository.ITicketRepository
	queues       repository.IQueueRepository
	followUps    repository.IFollowUpRepository
	ccs          repository.ICCRepository
	users        repository.IUserRepository
	lookups      repository.ILookupRepository
	customFields repository.ICustomFieldRepository
	renderer     *template.Renderer
	fanout       *notifications.Fanout
	files        storage.Store
	cache        cache.Store
	checker      *access.Checker
	cfg          *config.Config
	now          func() time.Time
}

// NewTicketService creates a new ticket service.
func NewTicketService(
	tickets repository.ITicketRepository,
	queues repository.IQueueRepository,
	followUps repository.IFollowUpRepository,
	ccs repository.ICCRepository,
	users repository.IUserRepository,
	lookups repository.ILookupRepository,
	customFields repository.ICustomFieldRepository,
	renderer *template.Renderer,
	fanout *notifications.Fanout,
	files storage.Store,
	cacheStore cache.Store,
	cfg *config.Config,
) *TicketService {
	return &TicketService{
		tickets:      tickets,
		queues:       queues,
		followUps:    followUps,
		ccs:          ccs,
		users:        users,
		lookups:      lookups,
		customFields: customFields,
		renderer:     renderer,
		fanout:       fanout,
		files:        files,
		cache:        cacheStore,
		checker:      access.NewChecker(cfg.Helpdesk.PerQueuePermissions),
		cfg:          cfg,
		now:          time.Now,
	}
}

// UploadedFile is an incoming attachment: raw bytes plus client metadata.
type UploadedFile struct {
	Filename string
	MimeType string
	Content  []byte
}

// CreateTicketRequest carries the staff ticket creation form. Zero-valued
// link ids mean "not set"; Priority 0 takes the default.
type CreateTicketRequest struct {
	QueueID        uint
	Title          string
	Body           string
	SubmitterEmail string
	Priority       int
	DueDate        *time.Time
	AssignedToID   uint
	CategoryID     uint
	TypeID         uint
	Billing        int
	ContactID      uint
	CustomerID     uint
	SiteID         uint
	ProductID      uint
	CustomFields   map[string]string
	Files          []UploadedFile
}

// PublicTicketRequest carries the public submission form.
type PublicTicketRequest struct {
	QueueID        uint
	Title          string
	Body           string
	SubmitterEmail string
	Priority       int
	DueDate        *time.Time
	CustomFields   map[string]string
	Files          []UploadedFile
}

// Get loads a ticket with its display joins, enforcing queue access for
// staff callers and ticket visibility for everyone else.
func (s *TicketService) Get(id *access.Identity, ticketID uint) (*models.Ticket, error) {
	ticket, _, err := s.loadAuthorized(id, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.attachDisplayRefs(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// History returns the ticket's follow-ups oldest first, with change rows,
// attachment metadata, and authors attached. Private entries are dropped
// for callers without a staff user.
func (s *TicketService) History(id *access.Identity, ticketID uint) ([]*models.FollowUp, error) {
	ticket, _, err := s.loadAuthorized(id, ticketID)
	if err != nil {
		return nil, err
	}

	followUps, err := s.followUps.ListByTicket(ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}

	staff := id != nil && id.User != nil
	out := make([]*models.FollowUp, 0, len(followUps))
	for _, followUp := range followUps {
		if !staff && !followUp.Public {
			continue
		}
		if followUp.Changes, err = s.followUps.ListChanges(followUp.ID); err != nil {
			return nil, fmt.Errorf("failed to list changes: %w", err)
		}
		if followUp.Attachments, err = s.followUps.ListAttachments(followUp.ID); err != nil {
			return nil, fmt.Errorf("failed to list attachments: %w", err)
		}
		if followUp.UserID != nil {
			if followUp.User, err = s.users.GetByID(*followUp.UserID); err != nil {
				return nil, fmt.Errorf("failed to load follow-up author: %w", err)
			}
		}
		out = append(out, followUp)
	}
	return out, nil
}

// Create opens a ticket from the staff form: the ticket row, the opening
// follow-up with any attachments, and the creation notifications.
func (s *TicketService) Create(ctx context.Context, id *access.Identity, req *CreateTicketRequest) (*models.Ticket, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}
	queue, err := s.requireQueue(req.QueueID)
	if err != nil {
		return nil, err
	}
	if !s.checker.CanAccessQueue(id, queue) {
		return nil, ErrPermission
	}

	ticket := &models.Ticket{
		Title:          req.Title,
		QueueID:        queue.ID,
		Status:         models.StatusOpen,
		Priority:       req.Priority,
		Description:    models.NullableString(req.Body),
		SubmitterEmail: models.NullableString(req.SubmitterEmail),
		DueDate:        req.DueDate,
	}

	var assignee *models.User
	if req.AssignedToID != 0 {
		if assignee, err = s.requireUser(req.AssignedToID); err != nil {
			return nil, err
		}
		ticket.AssignedToID = &assignee.ID
	}
	if err := s.applyClassifiers(ticket, req); err != nil {
		return nil, err
	}
	values, err := s.resolveCustomFields(req.CustomFields)
	if err != nil {
		return nil, err
	}

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := s.customFields.SetValue(ticket.ID, v.fieldID, v.value); err != nil {
			return nil, fmt.Errorf("failed to save custom field value: %w", err)
		}
	}

	title := history.TitleOpened
	if assignee != nil {
		title = history.OpenedAndAssignedTitle(assignee.DisplayName())
	}
	if _, err := s.recordFollowUp(ctx, ticket, actingUser(id), followUpSpec{
		title:   title,
		comment: req.Body,
		public:  true,
		files:   req.Files,
	}); err != nil {
		return nil, err
	}

	if err := s.attachDisplayRefs(ticket); err != nil {
		return nil, err
	}
	ticket.Queue = queue
	tctx := template.SafeContext(ticket, queue, s.defaultFrom())
	s.fanout.DispatchNew(ctx, ticket, queue, tctx, actingUser(id), notifyFiles(req.Files))

	return ticket, nil
}

// CreatePublic opens a ticket from the public submission form. The queue
// must allow public submission; the queue's default owner is applied when
// configured.
func (s *TicketService) CreatePublic(ctx context.Context, req *PublicTicketRequest) (*models.Ticket, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if req.SubmitterEmail == "" {
		return nil, fmt.Errorf("submitter e-mail is required: %w", ErrValidation)
	}
	queue, err := s.requireQueue(req.QueueID)
	if err != nil {
		return nil, err
	}
	if !queue.AllowPublicSubmission {
		return nil, fmt.Errorf("queue %q does not accept public tickets: %w", queue.Slug, ErrValidation)
	}

	ticket := &models.Ticket{
		Title:          req.Title,
		QueueID:        queue.ID,
		Status:         models.StatusOpen,
		Priority:       req.Priority,
		Description:    models.NullableString(req.Body),
		SubmitterEmail: models.NullableString(req.SubmitterEmail),
		DueDate:        req.DueDate,
	}
	if queue.DefaultOwnerID != nil {
		owner, err := s.users.GetByID(*queue.DefaultOwnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load default owner: %w", err)
		}
		if owner != nil {
			ticket.AssignedToID = &owner.ID
		}
	}
	values, err := s.resolveCustomFields(req.CustomFields)
	if err != nil {
		return nil, err
	}

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := s.customFields.SetValue(ticket.ID, v.fieldID, v.value); err != nil {
			return nil, fmt.Errorf("failed to save custom field value: %w", err)
		}
	}

	if _, err := s.recordFollowUp(ctx, ticket, nil, followUpSpec{
		title:   history.TitleOpenedViaWeb,
		comment: req.Body,
		public:  true,
		files:   req.Files,
	}); err != nil {
		return nil, err
	}

	if err := s.attachDisplayRefs(ticket); err != nil {
		return nil, err
	}
	ticket.Queue = queue
	tctx := template.SafeContext(ticket, queue, s.defaultFrom())
	s.fanout.DispatchNew(ctx, ticket, queue, tctx, nil, notifyFiles(req.Files))

	return ticket, nil
}

// Hold marks the ticket on hold and records the audit entry.
func (s *TicketService) Hold(ctx context.Context, id *access.Identity, ticketID uint) (*models.Ticket, error) {
	return s.setHold(ctx, id, ticketID, true)
}

// Unhold takes the ticket off hold and records the audit entry.
func (s *TicketService) Unhold(ctx context.Context, id *access.Identity, ticketID uint) (*models.Ticket, error) {
	return s.setHold(ctx, id, ticketID, false)
}

func (s *TicketService) setHold(ctx context.Context, id *access.Identity, ticketID uint, hold bool) (*models.Ticket, error) {
	ticket, _, err := s.loadAuthorized(id, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.OnHold = hold
	title := history.TitleOnHold
	if !hold {
		title = history.TitleOffHold
	}
	if _, err := s.recordFollowUp(ctx, ticket, actingUser(id), followUpSpec{
		title:  title,
		public: true,
	}); err != nil {
		return nil, err
	}
	return ticket, nil
}

// QuickUpdateResult is the structured outcome of a quick field patch.
type QuickUpdateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Quick-update field names.
var quickUpdateFields = map[string]bool{
	"category": true,
	"type":     true,
	"billing":  true,
}

// QuickUpdate patches one classification field in place without an audit
// entry. Only category, type, and billing may be patched this way; value 0
// clears the field. Bad fields and values come back as a structured failure
// rather than an error.
func (s *TicketService) QuickUpdate(ctx context.Context, id *access.Identity, ticketID uint, field string, value int) (*QuickUpdateResult, error) {
	ticket, _, err := s.loadAuthorized(id, ticketID)
	if err != nil {
		return nil, err
	}

	if !quickUpdateFields[field] {
		return &QuickUpdateResult{Error: fmt.Sprintf("field %q cannot be patched", field)}, nil
	}
	if value < 0 {
		return &QuickUpdateResult{Error: "value must be a non-negative integer"}, nil
	}

	switch field {
	case "category":
		if value == 0 {
			ticket.CategoryID = nil
		} else {
			if _, err := s.requireRef(refCategory, uint(value)); err != nil {
				return &QuickUpdateResult{Error: fmt.Sprintf("category %d does not exist", value)}, nil
			}
			ticket.CategoryID = models.UintPtr(uint(value))
		}
	case "type":
		if value == 0 {
			ticket.TypeID = nil
		} else {
			if _, err := s.requireRef(refType, uint(value)); err != nil {
				return &QuickUpdateResult{Error: fmt.Sprintf("type %d does not exist", value)}, nil
			}
			ticket.TypeID = models.UintPtr(uint(value))
		}
	case "billing":
		if value == 0 {
			ticket.Billing = nil
		} else {
			if models.BillingLabel(value) == "Unknown" {
				return &QuickUpdateResult{Error: fmt.Sprintf("billing %d is not a known value", value)}, nil
			}
			ticket.Billing = models.IntPtr(value)
		}
	}

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return &QuickUpdateResult{Success: true}, nil
}

// Delete removes a ticket and everything hanging off it.
func (s *TicketService) Delete(ctx context.Context, id *access.Identity, ticketID uint) error {
	ticket, _, err := s.loadAuthorized(id, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ticket.ID); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return cache.InvalidateDerived(ctx, s.cache)
}

// AttachmentBody loads an attachment's metadata and stored content,
// enforcing the caller's access to the owning ticket.
func (s *TicketService) AttachmentBody(ctx context.Context, id *access.Identity, attachmentID uint) (*models.Attachment, []byte, error) {
	attachment, _, err := s.loadAttachment(id, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.files.Load(ctx, attachment.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load attachment body: %w", err)
	}
	if content == nil {
		return nil, nil, fmt.Errorf("attachment %d body: %w", attachmentID, ErrNotFound)
	}
	return attachment, content, nil
}

// DeleteAttachment removes an attachment row and its stored body.
func (s *TicketService) DeleteAttachment(ctx context.Context, id *access.Identity, attachmentID uint) error {
	attachment, _, err := s.loadAttachment(id, attachmentID)
	if err != nil {
		return err
	}
	if err := s.followUps.DeleteAttachment(attachment.ID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if err := s.files.Delete(ctx, attachment.StorageKey); err != nil {
		return fmt.Errorf("failed to delete attachment body: %w", err)
	}
	return nil
}

// --- shared internals ---

type followUpSpec struct {
	title     string
	comment   string
	public    bool
	newStatus *int
	changes   []models.TicketChange
	files     []UploadedFile
}

// recordFollowUp persists one audit entry with its change rows and
// attachments, then saves the ticket so the modified stamp and the
// first-answer bookkeeping land with it.
func (s *TicketService) recordFollowUp(ctx context.Context, ticket *models.Ticket, user *models.User, spec followUpSpec) (*models.FollowUp, error) {
	followUp := &models.FollowUp{
		TicketID:  ticket.ID,
		Date:      s.now(),
		Title:     models.NullableString(spec.title),
		Comment:   models.NullableString(spec.comment),
		Public:    spec.public,
		NewStatus: spec.newStatus,
	}
	if user != nil {
		followUp.UserID = &user.ID
	}

	if err := s.noteFirstAnswer(ticket, followUp, user); err != nil {
		return nil, err
	}

	if err := s.followUps.Create(followUp); err != nil {
		return nil, fmt.Errorf("failed to create follow-up: %w", err)
	}
	if len(spec.changes) > 0 {
		if err := s.followUps.AddChanges(followUp.ID, spec.changes); err != nil {
			return nil, fmt.Errorf("failed to record changes: %w", err)
		}
		followUp.Changes = spec.changes
	}
	attachments, err := s.storeFiles(ctx, followUp.ID, spec.files)
	if err != nil {
		return nil, err
	}
	followUp.Attachments = attachments

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return followUp, nil
}

// noteFirstAnswer records the elapsed seconds between ticket creation and
// the first public staff answer, once. Entries older than the ticket
// (merge leftovers) clamp to zero.
func (s *TicketService) noteFirstAnswer(ticket *models.Ticket, followUp *models.FollowUp, user *models.User) error {
	if ticket.TimeBeforeFirstAnswer != nil || !followUp.Public || user == nil || !user.IsStaff {
		return nil
	}
	answered, err := s.followUps.HasPublicStaffFollowUp(ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to check for a prior staff answer: %w", err)
	}
	if answered {
		return nil
	}
	seconds := int64(followUp.Date.Sub(ticket.Created) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	ticket.TimeBeforeFirstAnswer = &seconds
	return nil
}

// saveTicket runs the store-level bookkeeping of every ticket save: identity
// auto-creation on first save, the two-way customer backfill, timestamp
// normalization, persistence, and the merge override onto merged tickets.
func (s *TicketService) saveTicket(ctx context.Context, ticket *models.Ticket) error {
	isNew := ticket.ID == 0
	submitter := models.DerefString(ticket.SubmitterEmail)

	if isNew && submitter != "" {
		if err := s.ensureSubmitterIdentity(submitter); err != nil {
			return err
		}
	}

	lifecycle.PrepareSave(ticket, s.now())

	if submitter != "" {
		if err := s.backfillCustomer(ticket, submitter); err != nil {
			return err
		}
	}

	if isNew {
		if err := s.tickets.Create(ticket); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
	} else {
		if err := s.tickets.Update(ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}
	}

	if err := s.propagateMergeOverride(ticket); err != nil {
		return err
	}
	return cache.InvalidateDerived(ctx, s.cache)
}

// ensureSubmitterIdentity creates a simple e-mail identity for a submitter
// address that matches neither a staff user nor an existing identity.
func (s *TicketService) ensureSubmitterIdentity(email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to look up submitter: %w", err)
	}
	if user != nil {
		return nil
	}
	simple, err := s.users.FindSimpleUserByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to look up submitter identity: %w", err)
	}
	if simple != nil {
		return nil
	}
	err = s.users.CreateSimpleUser(&models.SimpleUserEmail{Email: email, Created: s.now()})
	if err != nil {
		return fmt.Errorf("failed to create submitter identity: %w", err)
	}
	return nil
}

// backfillCustomer syncs the customer association between the ticket and the
// submitter's simple identity. A ticket with a customer fills an identity
// without one; an identity with a customer fills a ticket without one.
func (s *TicketService) backfillCustomer(ticket *models.Ticket, submitter string) error {
	simple, err := s.users.FindSimpleUserByEmail(submitter)
	if err != nil {
		return fmt.Errorf("failed to look up submitter identity: %w", err)
	}
	if simple == nil {
		return nil
	}
	if ticket.CustomerID != nil && simple.CustomerID == nil {
		if err := s.users.UpdateSimpleUserCustomer(simple.ID, ticket.CustomerID); err != nil {
			return fmt.Errorf("failed to update submitter identity: %w", err)
		}
	} else if ticket.CustomerID == nil && simple.CustomerID != nil {
		ticket.CustomerID = simple.CustomerID
	}
	return nil
}

// propagateMergeOverride copies the classification fields onto every ticket
// merged into this one. Runs on every save; idempotent.
func (s *TicketService) propagateMergeOverride(ticket *models.Ticket) error {
	merged, err := s.tickets.ListMergedInto(ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to list merged tickets: %w", err)
	}
	for _, m := range merged {
		lifecycle.ApplyMergeOverride(ticket, m)
		if err := s.tickets.Update(m); err != nil {
			return fmt.Errorf("failed to propagate merge override: %w", err)
		}
	}
	return nil
}

// storeFiles writes uploaded bodies to the attachment store and records
// their metadata rows.
func (s *TicketService) storeFiles(ctx context.Context, followUpID uint, files []UploadedFile) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}
	attachments := make([]models.Attachment, 0, len(files))
	for _, file := range files {
		if file.Filename == "" || len(file.Content) == 0 {
			return nil, fmt.Errorf("attachment needs a filename and content: %w", ErrValidation)
		}
		key, err := s.files.Save(ctx, file.Filename, file.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		mimeType := file.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		attachment := models.Attachment{
			FollowUpID: followUpID,
			Filename:   file.Filename,
			MimeType:   mimeType,
			Size:       int64(len(file.Content)),
			StorageKey: key,
		}
		if err := s.followUps.AddAttachment(&attachment); err != nil {
			return nil, fmt.Errorf("failed to record attachment: %w", err)
		}
		attachments = append(attachments, attachment)
	}
	return attachments, nil
}

// loadAuthorized loads a ticket and its queue and enforces the caller's
// access to both.
func (s *TicketService) loadAuthorized(id *access.Identity, ticketID uint) (*models.Ticket, *models.Queue, error) {
	return loadTicketAuthorized(s.tickets, s.queues, s.checker, id, ticketID)
}

// loadAttachment resolves an attachment back to its ticket and authorizes
// the caller against it.
func (s *TicketService) loadAttachment(id *access.Identity, attachmentID uint) (*models.Attachment, *models.Ticket, error) {
	attachment, err := s.followUps.GetAttachment(attachmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load attachment: %w", err)
	}
	if attachment == nil {
		return nil, nil, fmt.Errorf("attachment %d: %w", attachmentID, ErrNotFound)
	}
	followUp, err := s.followUps.GetByID(attachment.FollowUpID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load follow-up: %w", err)
	}
	if followUp == nil {
		return nil, nil, fmt.Errorf("follow-up %d: %w", attachment.FollowUpID, ErrNotFound)
	}
	ticket, _, err := s.loadAuthorized(id, followUp.TicketID)
	if err != nil {
		return nil, nil, err
	}
	return attachment, ticket, nil
}

// attachDisplayRefs populates the joined display entities on a ticket.
// Dangling links stay nil rather than failing the read.
func (s *TicketService) attachDisplayRefs(ticket *models.Ticket) error {
	var err error
	if ticket.AssignedToID != nil {
		if ticket.AssignedTo, err = s.users.GetByID(*ticket.AssignedToID); err != nil {
			return fmt.Errorf("failed to load assignee: %w", err)
		}
	}
	if ticket.CustomerContactID != nil {
		if ticket.CustomerContact, err = s.lookups.GetCustomerContact(*ticket.CustomerContactID); err != nil {
			return fmt.Errorf("failed to load customer contact: %w", err)
		}
	}
	if ticket.CustomerID != nil {
		if ticket.Customer, err = s.lookups.GetCustomer(*ticket.CustomerID); err != nil {
			return fmt.Errorf("failed to load customer: %w", err)
		}
	}
	if ticket.SiteID != nil {
		if ticket.Site, err = s.lookups.GetSite(*ticket.SiteID); err != nil {
			return fmt.Errorf("failed to load site: %w", err)
		}
	}
	if ticket.CustomerProductID != nil {
		if ticket.CustomerProduct, err = s.lookups.GetCustomerProduct(*ticket.CustomerProductID); err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
	}
	return nil
}

// applyClassifiers validates and applies the classification links of a
// creation request. Dangling ids are a validation error, never silently
// dropped.
func (s *TicketService) applyClassifiers(ticket *models.Ticket, req *CreateTicketRequest) error {
	if req.CategoryID != 0 {
		if _, err := s.requireRef(refCategory, req.CategoryID); err != nil {
			return err
		}
		ticket.CategoryID = models.UintPtr(req.CategoryID)
	}
	if req.TypeID != 0 {
		if _, err := s.requireRef(refType, req.TypeID); err != nil {
			return err
		}
		ticket.TypeID = models.UintPtr(req.TypeID)
	}
	if req.Billing != 0 {
		if models.BillingLabel(req.Billing) == "Unknown" {
			return fmt.Errorf("billing %d is not a known value: %w", req.Billing, ErrValidation)
		}
		ticket.Billing = models.IntPtr(req.Billing)
	}
	if req.ContactID != 0 {
		if _, err := s.requireRef(refContact, req.ContactID); err != nil {
			return err
		}
		ticket.CustomerContactID = models.UintPtr(req.ContactID)
	}
	if req.CustomerID != 0 {
		if _, err := s.requireRef(refCustomer, req.CustomerID); err != nil {
			return err
		}
		ticket.CustomerID = models.UintPtr(req.CustomerID)
	}
	if req.SiteID != 0 {
		if _, err := s.requireRef(refSite, req.SiteID); err != nil {
			return err
		}
		ticket.SiteID = models.UintPtr(req.SiteID)
	}
	if req.ProductID != 0 {
		if _, err := s.requireRef(refProduct, req.ProductID); err != nil {
			return err
		}
		ticket.CustomerProductID = models.UintPtr(req.ProductID)
	}
	return nil
}

type customFieldValue struct {
	fieldID uint
	value   string
}

// resolveCustomFields validates submitted custom-field values against the
// registered field definitions.
func (s *TicketService) resolveCustomFields(values map[string]string) ([]customFieldValue, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]customFieldValue, 0, len(values))
	for name, value := range values {
		field, err := s.customFields.GetFieldByName(name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up custom field: %w", err)
		}
		if field == nil {
			return nil, fmt.Errorf("custom field %q does not exist: %w", name, ErrValidation)
		}
		if err := field.ValidateValue(value); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		out = append(out, customFieldValue{fieldID: field.ID, value: value})
	}
	return out, nil
}

// Classifier reference kinds, named as they appear in audit rows.
const (
	refCategory = "category"
	refType     = "type"
	refContact  = "customer contact"
	refCustomer = "customer"
	refSite     = "site"
	refProduct  = "product"
)

// requireRef checks that a classifier link points at an existing row and
// returns its display name.
func (s *TicketService) requireRef(kind string, id uint) (string, error) {
	name, found, err := s.lookupRef(kind, id)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s %d: %w", kind, id, err)
	}
	if !found {
		return "", fmt.Errorf("%s %d does not exist: %w", kind, id, ErrValidation)
	}
	return name, nil
}

// refDisplay renders a stored classifier link for an audit row. Dangling or
// empty links render as "".
func (s *TicketService) refDisplay(kind string, id *uint) string {
	if id == nil {
		return ""
	}
	name, found, err := s.lookupRef(kind, *id)
	if err != nil || !found {
		return ""
	}
	return name
}

func (s *TicketService) lookupRef(kind string, id uint) (string, bool, error) {
	switch kind {
	case refCategory:
		c, err := s.lookups.GetCategory(id)
		if err != nil || c == nil {
			return "", false, err
		}
		return c.Name, true, nil
	case refType:
		t, err := s.lookups.GetTicketType(id)
		if err != nil || t == nil {
			return "", false, err
		}
		return t.Name, true, nil
	case refContact:
		c, err := s.lookups.GetCustomerContact(id)
		if err != nil || c == nil {
			return "", false, err
		}
		return c.Name, true, nil
	case refCustomer:
		c, err := s.lookups.GetCustomer(id)
		if err != nil || c == nil {
			return "", false, err
		}
		return c.Name, true, nil
	case refSite:
		st, err := s.lookups.GetSite(id)
		if err != nil || st == nil {
			return "", false, err
		}
		return st.Name, true, nil
	case refProduct:
		p, err := s.lookups.GetCustomerProduct(id)
		if err != nil || p == nil {
			return "", false, err
		}
		return p.Name, true, nil
	}
	return "", false, fmt.Errorf("unknown reference kind %q", kind)
}

// requireQueue loads a queue chosen by a request; a dangling id is a
// validation error.
func (s *TicketService) requireQueue(id uint) (*models.Queue, error) {
	queue, err := s.queues.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	if queue == nil {
		return nil, fmt.Errorf("queue %d does not exist: %w", id, ErrValidation)
	}
	return queue, nil
}

// requireUser loads a user chosen by a request; a dangling id is a
// validation error.
func (s *TicketService) requireUser(id uint) (*models.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d does not exist: %w", id, ErrValidation)
	}
	return user, nil
}

func (s *TicketService) defaultFrom() string {
	return s.cfg.Email.DefaultFrom
}

// actingUser unwraps the staff user of an identity, nil for public callers.
func actingUser(id *access.Identity) *models.User {
	if id == nil {
		return nil
	}
	return id.User
}

// notifyFiles converts uploads to outbound mail attachments.
func notifyFiles(files []UploadedFile) []notifications.File {
	if len(files) == 0 {
		return nil
	}
	out := make([]notifications.File, 0, len(files))
	for _, f := range files {
		out = append(out, notifications.File{Filename: f.Filename, MimeType: f.MimeType, Content: f.Content})
	}
	return out
}
