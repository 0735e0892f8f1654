package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListKBCategories lists every knowledge-base category.
func (router *APIRouter) handleListKBCategories(c *gin.Context) {
	categories, err := router.kb.Categories()
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{"categories": categories})
}

// handleGetKBCategory returns one category with its rendered items.
func (router *APIRouter) handleGetKBCategory(c *gin.Context) {
	category, items, err := router.kb.Category(c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{
		"category": category,
		"items":    items,
	})
}

// handleGetKBItem returns one knowledge-base item with its rendered
// answer and vote score.
func (router *APIRouter) handleGetKBItem(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := router.kb.Item(itemID)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, item)
}

// handleVoteKBItem records a recommendation vote and returns the updated
// item.
func (router *APIRouter) handleVoteKBItem(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Recommend *bool `json:"recommend" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid vote request: "+err.Error())
		return
	}
	item, err := router.kb.Vote(itemID, *body.Recommend)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, item)
}
