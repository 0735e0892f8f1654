package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// handleGetSettings returns the caller's preference record, defaults
// included for users who never saved one.
func (router *APIRouter) handleGetSettings(c *gin.Context) {
	settings, err := router.settings.Get(middleware.CurrentIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, settings)
}

// handleUpdateSettings replaces the caller's preference record. The
// record is always written under the caller's own id.
func (router *APIRouter) handleUpdateSettings(c *gin.Context) {
	var settings models.UserSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid settings request: "+err.Error())
		return
	}
	saved, err := router.settings.Update(middleware.CurrentIdentity(c), &settings)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, saved)
}
