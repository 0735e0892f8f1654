package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
)

// handleDownloadAttachment streams an attachment body with its stored
// content type and download filename. Access follows the owning ticket.
func (router *APIRouter) handleDownloadAttachment(c *gin.Context) {
	attachmentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	attachment, content, err := router.tickets.AttachmentBody(c.Request.Context(), middleware.CurrentIdentity(c), attachmentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	c.Data(http.StatusOK, attachment.MimeType, content)
}

// handleDeleteAttachment removes an attachment row and its stored body.
func (router *APIRouter) handleDeleteAttachment(c *gin.Context) {
	attachmentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := router.tickets.DeleteAttachment(c.Request.Context(), middleware.CurrentIdentity(c), attachmentID); err != nil {
		fail(c, err)
		return
	}
	sendMessage(c, "attachment deleted")
}
