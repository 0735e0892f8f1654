package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

// handleListTickets runs the caller's ticket query. The q parameter
// carries an encoded query spec; without one the default listing applies.
func (router *APIRouter) handleListTickets(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	spec, rows, err := router.search.Run(id, c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{
		"tickets": rows,
		"count":   len(rows),
		"sorting": spec.Sorting,
	})
}

// handleGetTicket returns one ticket with its display joins.
func (router *APIRouter) handleGetTicket(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ticket, err := router.tickets.Get(middleware.CurrentIdentity(c), ticketID)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, ticket)
}

// handleTicketHistory returns the ticket's follow-ups oldest first.
// Submitters see the public trail only.
func (router *APIRouter) handleTicketHistory(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	followUps, err := router.tickets.History(middleware.CurrentIdentity(c), ticketID)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{"follow_ups": followUps})
}

// handleCreateTicket opens a ticket from the staff form. JSON bodies and
// multipart forms with attached files are both accepted.
func (router *APIRouter) handleCreateTicket(c *gin.Context) {
	req, ok := router.bindCreateRequest(c)
	if !ok {
		return
	}
	ticket, err := router.tickets.Create(c.Request.Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	sendCreated(c, ticket)
}

// handleCreatePublicTicket opens a ticket from the public submission
// form. The queue may be named by id or slug; without either the
// configured fallback queue takes the ticket.
func (router *APIRouter) handleCreatePublicTicket(c *gin.Context) {
	req, ok := router.bindPublicRequest(c)
	if !ok {
		return
	}
	ticket, err := router.tickets.CreatePublic(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	sendCreated(c, ticket)
}

// handleListPublicQueues lists the queues the public form may submit
// into. Mailbox settings never leave the server.
func (router *APIRouter) handleListPublicQueues(c *gin.Context) {
	queues, err := router.queues.List()
	if err != nil {
		fail(c, err)
		return
	}
	open := []gin.H{}
	for _, queue := range queues {
		if !queue.AllowPublicSubmission {
			continue
		}
		open = append(open, gin.H{
			"id":    queue.ID,
			"title": queue.Title,
			"slug":  queue.Slug,
		})
	}
	sendSuccess(c, gin.H{"queues": open})
}

// handleUpdateTicket runs the audited update workflow. Fields absent from
// the request keep their stored value; link ids sent as 0 clear the link,
// and an empty due_date clears the deadline.
func (router *APIRouter) handleUpdateTicket(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, ok := router.bindUpdateRequest(c, ticketID)
	if !ok {
		return
	}
	ticket, followUp, err := router.tickets.Update(c.Request.Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{
		"ticket":    ticket,
		"follow_up": followUp,
	})
}

// handleQuickUpdate patches one classification field in place. Bad fields
// and values come back as a structured failure, not an HTTP error.
func (router *APIRouter) handleQuickUpdate(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Field string `json:"field" binding:"required"`
		Value int    `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid quick update request: "+err.Error())
		return
	}
	result, err := router.tickets.QuickUpdate(c.Request.Context(), middleware.CurrentIdentity(c), ticketID, body.Field, body.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleHoldTicket takes the ticket out of the escalation cycle.
func (router *APIRouter) handleHoldTicket(c *gin.Context) {
	router.setHold(c, true)
}

// handleUnholdTicket puts the ticket back into the escalation cycle.
func (router *APIRouter) handleUnholdTicket(c *gin.Context) {
	router.setHold(c, false)
}

func (router *APIRouter) setHold(c *gin.Context, hold bool) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var (
		ticket interface{}
		err    error
	)
	if hold {
		ticket, err = router.tickets.Hold(c.Request.Context(), middleware.CurrentIdentity(c), ticketID)
	} else {
		ticket, err = router.tickets.Unhold(c.Request.Context(), middleware.CurrentIdentity(c), ticketID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, ticket)
}

// handleDeleteTicket removes a ticket and everything hanging off it.
func (router *APIRouter) handleDeleteTicket(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := router.tickets.Delete(c.Request.Context(), middleware.CurrentIdentity(c), ticketID); err != nil {
		fail(c, err)
		return
	}
	sendMessage(c, "ticket deleted")
}

// handleMassUpdate runs one bulk action over a ticket id list and reports
// which tickets it touched.
func (router *APIRouter) handleMassUpdate(c *gin.Context) {
	var body struct {
		TicketIDs  []uint `json:"ticket_ids" binding:"required"`
		Action     string `json:"action" binding:"required"`
		AssigneeID uint   `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid bulk request: "+err.Error())
		return
	}
	result, err := router.tickets.MassUpdate(c.Request.Context(), middleware.CurrentIdentity(c), &service.MassUpdateRequest{
		TicketIDs:  body.TicketIDs,
		Action:     body.Action,
		AssigneeID: body.AssigneeID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, result)
}

// --- request binding ---

type createTicketRequest struct {
	QueueID        uint              `json:"queue_id" binding:"required"`
	Title          string            `json:"title" binding:"required"`
	Body           string            `json:"body"`
	SubmitterEmail string            `json:"submitter_email"`
	Priority       int               `json:"priority"`
	DueDate        string            `json:"due_date"`
	AssignedToID   uint              `json:"assigned_to_id"`
	CategoryID     uint              `json:"category_id"`
	TypeID         uint              `json:"type_id"`
	Billing        int               `json:"billing"`
	ContactID      uint              `json:"contact_id"`
	CustomerID     uint              `json:"customer_id"`
	SiteID         uint              `json:"site_id"`
	ProductID      uint              `json:"product_id"`
	CustomFields   map[string]string `json:"custom_fields"`
}

func (router *APIRouter) bindCreateRequest(c *gin.Context) (*service.CreateTicketRequest, bool) {
	if isMultipart(c) {
		return router.createRequestFromForm(c)
	}
	var body createTicketRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid ticket request: "+err.Error())
		return nil, false
	}
	due, ok := parseStamp(c, body.DueDate)
	if !ok {
		return nil, false
	}
	return &service.CreateTicketRequest{
		QueueID:        body.QueueID,
		Title:          body.Title,
		Body:           body.Body,
		SubmitterEmail: body.SubmitterEmail,
		Priority:       body.Priority,
		DueDate:        due,
		AssignedToID:   body.AssignedToID,
		CategoryID:     body.CategoryID,
		TypeID:         body.TypeID,
		Billing:        body.Billing,
		ContactID:      body.ContactID,
		CustomerID:     body.CustomerID,
		SiteID:         body.SiteID,
		ProductID:      body.ProductID,
		CustomFields:   body.CustomFields,
	}, true
}

func (router *APIRouter) createRequestFromForm(c *gin.Context) (*service.CreateTicketRequest, bool) {
	req := &service.CreateTicketRequest{
		Title:          c.PostForm("title"),
		Body:           c.PostForm("body"),
		SubmitterEmail: c.PostForm("submitter_email"),
		CustomFields:   formCustomFields(c),
	}
	var ok bool
	if req.QueueID, ok = formUint(c, "queue_id"); !ok {
		return nil, false
	}
	if req.Priority, ok = formInt(c, "priority"); !ok {
		return nil, false
	}
	if req.Billing, ok = formInt(c, "billing"); !ok {
		return nil, false
	}
	if req.DueDate, ok = parseStamp(c, c.PostForm("due_date")); !ok {
		return nil, false
	}
	for field, target := range map[string]*uint{
		"assigned_to_id": &req.AssignedToID,
		"category_id":    &req.CategoryID,
		"type_id":        &req.TypeID,
		"contact_id":     &req.ContactID,
		"customer_id":    &req.CustomerID,
		"site_id":        &req.SiteID,
		"product_id":     &req.ProductID,
	} {
		if *target, ok = formUint(c, field); !ok {
			return nil, false
		}
	}
	if req.Files, ok = readUploads(c); !ok {
		return nil, false
	}
	return req, true
}

type publicTicketRequest struct {
	Queue          string            `json:"queue"`
	QueueID        uint              `json:"queue_id"`
	Title          string            `json:"title" binding:"required"`
	Body           string            `json:"body"`
	SubmitterEmail string            `json:"submitter_email" binding:"required,email"`
	Priority       int               `json:"priority"`
	DueDate        string            `json:"due_date"`
	CustomFields   map[string]string `json:"custom_fields"`
}

func (router *APIRouter) bindPublicRequest(c *gin.Context) (*service.PublicTicketRequest, bool) {
	if isMultipart(c) {
		return router.publicRequestFromForm(c)
	}
	var body publicTicketRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid ticket request: "+err.Error())
		return nil, false
	}
	queueID, ok := router.resolvePublicQueue(c, body.QueueID, body.Queue)
	if !ok {
		return nil, false
	}
	due, ok := parseStamp(c, body.DueDate)
	if !ok {
		return nil, false
	}
	return &service.PublicTicketRequest{
		QueueID:        queueID,
		Title:          body.Title,
		Body:           body.Body,
		SubmitterEmail: body.SubmitterEmail,
		Priority:       body.Priority,
		DueDate:        due,
		CustomFields:   body.CustomFields,
	}, true
}

func (router *APIRouter) publicRequestFromForm(c *gin.Context) (*service.PublicTicketRequest, bool) {
	req := &service.PublicTicketRequest{
		Title:          c.PostForm("title"),
		Body:           c.PostForm("body"),
		SubmitterEmail: c.PostForm("submitter_email"),
		CustomFields:   formCustomFields(c),
	}
	rawQueueID, ok := formUint(c, "queue_id")
	if !ok {
		return nil, false
	}
	if req.QueueID, ok = router.resolvePublicQueue(c, rawQueueID, c.PostForm("queue")); !ok {
		return nil, false
	}
	if req.Priority, ok = formInt(c, "priority"); !ok {
		return nil, false
	}
	if req.DueDate, ok = parseStamp(c, c.PostForm("due_date")); !ok {
		return nil, false
	}
	if req.Files, ok = readUploads(c); !ok {
		return nil, false
	}
	return req, true
}

// resolvePublicQueue turns the submitted queue reference into a queue id.
// An explicit id wins, then the slug, then the configured fallback.
func (router *APIRouter) resolvePublicQueue(c *gin.Context, queueID uint, slug string) (uint, bool) {
	if queueID != 0 {
		return queueID, true
	}
	if slug == "" {
		slug = router.cfg.Helpdesk.PublicTicketQueueFallback
	}
	if slug == "" {
		sendError(c, http.StatusBadRequest, "a queue is required")
		return 0, false
	}
	queue, err := router.queues.GetBySlug(slug)
	if err != nil {
		fail(c, err)
		return 0, false
	}
	if queue == nil {
		sendError(c, http.StatusBadRequest, "unknown queue "+slug)
		return 0, false
	}
	return queue.ID, true
}

type updateTicketRequest struct {
	Comment  string  `json:"comment"`
	Public   bool    `json:"public"`
	Title    *string `json:"title"`
	Status   *int    `json:"status"`
	Priority *int    `json:"priority"`
	Owner    *uint   `json:"owner_id"`
	DueDate  *string `json:"due_date"`
	Contact  *uint   `json:"contact_id"`
	Customer *uint   `json:"customer_id"`
	Site     *uint   `json:"site_id"`
	Product  *uint   `json:"product_id"`
}

func (router *APIRouter) bindUpdateRequest(c *gin.Context, ticketID uint) (*service.UpdateRequest, bool) {
	if isMultipart(c) {
		return router.updateRequestFromForm(c, ticketID)
	}
	var body updateTicketRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid update request: "+err.Error())
		return nil, false
	}
	req := &service.UpdateRequest{
		TicketID: ticketID,
		Comment:  body.Comment,
		Public:   body.Public,
		Title:    body.Title,
		Status:   body.Status,
		Priority: body.Priority,
		Owner:    optionalRef(body.Owner),
		Contact:  optionalRef(body.Contact),
		Customer: optionalRef(body.Customer),
		Site:     optionalRef(body.Site),
		Product:  optionalRef(body.Product),
	}
	var ok bool
	if req.DueDate, ok = optionalStamp(c, body.DueDate); !ok {
		return nil, false
	}
	return req, true
}

func (router *APIRouter) updateRequestFromForm(c *gin.Context, ticketID uint) (*service.UpdateRequest, bool) {
	req := &service.UpdateRequest{
		TicketID: ticketID,
		Comment:  c.PostForm("comment"),
		Public:   c.PostForm("public") == "true",
	}
	if title := c.PostForm("title"); title != "" {
		req.Title = &title
	}
	var ok bool
	if req.Status, ok = formIntPtr(c, "status"); !ok {
		return nil, false
	}
	if req.Priority, ok = formIntPtr(c, "priority"); !ok {
		return nil, false
	}
	for field, target := range map[string]*service.OptionalRef{
		"owner_id":    &req.Owner,
		"contact_id":  &req.Contact,
		"customer_id": &req.Customer,
		"site_id":     &req.Site,
		"product_id":  &req.Product,
	} {
		if *target, ok = formOptionalRef(c, field); !ok {
			return nil, false
		}
	}
	if raw, present := c.GetPostForm("due_date"); present {
		if req.DueDate, ok = optionalStamp(c, &raw); !ok {
			return nil, false
		}
	}
	if req.Files, ok = readUploads(c); !ok {
		return nil, false
	}
	return req, true
}

// optionalRef maps a nullable link id onto the update's tri-state: absent
// keeps the stored link, 0 clears it, anything else points it.
func optionalRef(id *uint) service.OptionalRef {
	if id == nil {
		return service.OptionalRef{}
	}
	if *id == 0 {
		return service.ClearRef()
	}
	return service.SetRef(*id)
}

// optionalStamp maps a nullable RFC 3339 stamp onto the update's
// tri-state: absent keeps the stored value, "" clears it.
func optionalStamp(c *gin.Context, raw *string) (service.OptionalTime, bool) {
	if raw == nil {
		return service.OptionalTime{}, true
	}
	if *raw == "" {
		return service.ClearTime(), true
	}
	stamp, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		sendError(c, http.StatusBadRequest, "due_date must be an RFC 3339 timestamp")
		return service.OptionalTime{}, false
	}
	return service.SetTime(stamp), true
}

// parseStamp parses an RFC 3339 stamp for creation forms; empty means
// no deadline.
func parseStamp(c *gin.Context, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	stamp, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		sendError(c, http.StatusBadRequest, "due_date must be an RFC 3339 timestamp")
		return nil, false
	}
	return &stamp, true
}
