package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
)

// handleListSavedSearches returns the caller's own searches plus the
// shared ones.
func (router *APIRouter) handleListSavedSearches(c *gin.Context) {
	searches, err := router.savedSearches.ListFor(middleware.CurrentIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{"searches": searches})
}

// handleSaveSearch stores the posted query under a title, optionally
// shared with the whole staff.
func (router *APIRouter) handleSaveSearch(c *gin.Context) {
	var body struct {
		Title  string `json:"title" binding:"required"`
		Shared bool   `json:"shared"`
		Query  string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid saved search request: "+err.Error())
		return
	}
	search, err := router.savedSearches.Save(middleware.CurrentIdentity(c), body.Title, body.Shared, body.Query)
	if err != nil {
		fail(c, err)
		return
	}
	sendCreated(c, search)
}

// handleGetSavedSearch loads one saved search and runs it, returning the
// stored record together with the matching tickets.
func (router *APIRouter) handleGetSavedSearch(c *gin.Context) {
	searchID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id := middleware.CurrentIdentity(c)
	search, err := router.savedSearches.Load(id, searchID)
	if err != nil {
		fail(c, err)
		return
	}
	_, rows, err := router.search.Run(id, search.Query)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{
		"search":  search,
		"tickets": rows,
		"count":   len(rows),
	})
}

// handleDeleteSavedSearch removes one of the caller's saved searches.
func (router *APIRouter) handleDeleteSavedSearch(c *gin.Context) {
	searchID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := router.savedSearches.Delete(middleware.CurrentIdentity(c), searchID); err != nil {
		fail(c, err)
		return
	}
	sendMessage(c, "saved search deleted")
}
