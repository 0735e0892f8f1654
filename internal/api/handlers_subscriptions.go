package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

// handleListCC returns the ticket's subscription list.
func (router *APIRouter) handleListCC(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := router.ccs.List(middleware.CurrentIdentity(c), ticketID)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{"cc": list})
}

// handleAddCC subscribes a user or a bare address to the ticket.
func (router *APIRouter) handleAddCC(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		UserID uint   `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid subscription request: "+err.Error())
		return
	}
	cc, err := router.ccs.Add(middleware.CurrentIdentity(c), &service.AddCCRequest{
		TicketID: ticketID,
		UserID:   body.UserID,
		Email:    body.Email,
	})
	if err != nil {
		fail(c, err)
		return
	}
	sendCreated(c, cc)
}

// handleRemoveCC drops one subscription from the ticket.
func (router *APIRouter) handleRemoveCC(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ccID, ok := paramID(c, "subID")
	if !ok {
		return
	}
	if err := router.ccs.Remove(middleware.CurrentIdentity(c), ticketID, ccID); err != nil {
		fail(c, err)
		return
	}
	sendMessage(c, "subscription removed")
}

// handleListDependencies returns the ticket's open blockers together with
// whether the ticket may currently be resolved.
func (router *APIRouter) handleListDependencies(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id := middleware.CurrentIdentity(c)
	dependencies, err := router.dependencies.List(id, ticketID)
	if err != nil {
		fail(c, err)
		return
	}
	resolvable, err := router.dependencies.CanBeResolved(id, ticketID)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{
		"dependencies": dependencies,
		"resolvable":   resolvable,
	})
}

// handleAddDependency blocks the ticket on another ticket.
func (router *APIRouter) handleAddDependency(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		DependsOnID uint `json:"depends_on_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid dependency request: "+err.Error())
		return
	}
	dependency, err := router.dependencies.Add(middleware.CurrentIdentity(c), ticketID, body.DependsOnID)
	if err != nil {
		fail(c, err)
		return
	}
	sendCreated(c, dependency)
}

// handleRemoveDependency unblocks the ticket from one dependency.
func (router *APIRouter) handleRemoveDependency(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	depID, ok := paramID(c, "subID")
	if !ok {
		return
	}
	if err := router.dependencies.Remove(middleware.CurrentIdentity(c), ticketID, depID); err != nil {
		fail(c, err)
		return
	}
	sendMessage(c, "dependency removed")
}
