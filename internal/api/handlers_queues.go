package api

import (
	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
)

// handleListPresetReplies returns the canned responses usable in the
// queue: the unrestricted ones plus those pinned to it.
func (router *APIRouter) handleListPresetReplies(c *gin.Context) {
	queueID, ok := paramID(c, "id")
	if !ok {
		return
	}
	replies, err := router.replies.ListForQueue(middleware.CurrentIdentity(c), queueID)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{"replies": replies})
}

// handleRenderPresetReply renders one canned response against the ticket
// so the agent can review the filled-in text before sending it.
func (router *APIRouter) handleRenderPresetReply(c *gin.Context) {
	ticketID, ok := paramID(c, "id")
	if !ok {
		return
	}
	replyID, ok := paramID(c, "subID")
	if !ok {
		return
	}
	body, err := router.replies.Render(middleware.CurrentIdentity(c), ticketID, replyID)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, gin.H{"body": body})
}
