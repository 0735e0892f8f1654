package api

import (
	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
)

// handleStats returns the dashboard numbers over the caller's visible
// tickets: resolution averages and the open-age distribution.
func (router *APIRouter) handleStats(c *gin.Context) {
	stats, err := router.reports.Stats(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, stats)
}

// handleReport builds one named pivot table, optionally narrowed by the
// q query parameter's encoded spec.
func (router *APIRouter) handleReport(c *gin.Context) {
	pivot, err := router.reports.Report(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("name"), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, pivot)
}
