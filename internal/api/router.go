// Package api exposes the helpdesk over a JSON surface under /api/v1.
// Handlers stay thin: they bind the request, call one service operation,
// and wrap the result in the response envelope. Authorization decisions
// live in the service layer; the router only separates the public,
// identified, and staff route groups.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/version"
)

// APIRouter handles all v1 API routes
type APIRouter struct {
	engine        *gin.Engine
	tickets       *service.TicketService
	search        *service.SearchService
	savedSearches *service.SavedSearchService
	ccs           *service.CCService
	dependencies  *service.DependencyService
	kb            *service.KBService
	settings      *service.SettingsService
	reports       *service.ReportService
	replies       *service.PresetReplyService
	users         repository.IUserRepository
	queues        repository.IQueueRepository
	cfg           *config.Config
}

// NewAPIRouter creates a new API router
func NewAPIRouter(
	engine *gin.Engine,
	ticketService *service.TicketService,
	searchService *service.SearchService,
	savedSearchService *service.SavedSearchService,
	ccService *service.CCService,
	dependencyService *service.DependencyService,
	kbService *service.KBService,
	settingsService *service.SettingsService,
	reportService *service.ReportService,
	presetReplyService *service.PresetReplyService,
	users repository.IUserRepository,
	queues repository.IQueueRepository,
	cfg *config.Config,
) *APIRouter {
	return &APIRouter{
		engine:        engine,
		tickets:       ticketService,
		search:        searchService,
		savedSearches: savedSearchService,
		ccs:           ccService,
		dependencies:  dependencyService,
		kb:            kbService,
		settings:      settingsService,
		reports:       reportService,
		replies:       presetReplyService,
		users:         users,
		queues:        queues,
		cfg:           cfg,
	}
}

// SetupRoutes configures all API v1 routes
func (router *APIRouter) SetupRoutes() {
	router.engine.Use(middleware.RequestID(), middleware.Metrics())
	if router.cfg.Metrics.Enabled {
		router.engine.GET(router.cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.engine.Group("/api/v1")
	api.Use(middleware.ResolveIdentity(router.users))

	api.GET("/health", router.handleHealth)

	// Public surface: ticket submission and the knowledge base.
	api.GET("/public/queues", router.handleListPublicQueues)
	api.POST("/public/tickets", router.handleCreatePublicTicket)
	api.GET("/kb/categories", router.handleListKBCategories)
	api.GET("/kb/categories/:slug", router.handleGetKBCategory)
	api.GET("/kb/items/:id", router.handleGetKBItem)
	api.POST("/kb/items/:id/vote", router.handleVoteKBItem)

	// Identified surface: submitters reach their own tickets here, staff
	// reach everything their queue grants allow.
	api.GET("/tickets/:id", router.handleGetTicket)
	api.GET("/tickets/:id/history", router.handleTicketHistory)
	api.GET("/attachments/:id", router.handleDownloadAttachment)

	// Staff surface.
	staff := api.Group("", router.requireStaff)
	staff.GET("/tickets", router.handleListTickets)
	staff.POST("/tickets", router.handleCreateTicket)
	staff.PUT("/tickets/:id", router.handleUpdateTicket)
	staff.POST("/tickets/:id/quick", router.handleQuickUpdate)
	staff.POST("/tickets/:id/hold", router.handleHoldTicket)
	staff.POST("/tickets/:id/unhold", router.handleUnholdTicket)
	staff.DELETE("/tickets/:id", router.handleDeleteTicket)
	staff.POST("/tickets/bulk", router.handleMassUpdate)
	staff.DELETE("/attachments/:id", router.handleDeleteAttachment)

	staff.GET("/tickets/:id/cc", router.handleListCC)
	staff.POST("/tickets/:id/cc", router.handleAddCC)
	staff.DELETE("/tickets/:id/cc/:subID", router.handleRemoveCC)
	staff.GET("/tickets/:id/dependencies", router.handleListDependencies)
	staff.POST("/tickets/:id/dependencies", router.handleAddDependency)
	staff.DELETE("/tickets/:id/dependencies/:subID", router.handleRemoveDependency)

	staff.GET("/queues/:id/preset-replies", router.handleListPresetReplies)
	staff.GET("/tickets/:id/preset-replies/:subID", router.handleRenderPresetReply)

	staff.GET("/saved-searches", router.handleListSavedSearches)
	staff.POST("/saved-searches", router.handleSaveSearch)
	staff.GET("/saved-searches/:id", router.handleGetSavedSearch)
	staff.DELETE("/saved-searches/:id", router.handleDeleteSavedSearch)

	staff.GET("/settings", router.handleGetSettings)
	staff.PUT("/settings", router.handleUpdateSettings)

	staff.GET("/stats", router.handleStats)
	staff.GET("/reports/:name", router.handleReport)
}

// requireStaff turns away callers without a resolved staff user. Queue
// grants and ticket visibility stay with the services.
func (router *APIRouter) requireStaff(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	if id == nil || id.User == nil {
		sendError(c, http.StatusForbidden, "staff access required")
		c.Abort()
		return
	}
	c.Next()
}

// handleHealth returns API health status
func (router *APIRouter) handleHealth(c *gin.Context) {
	sendSuccess(c, gin.H{
		"status":  "healthy",
		"service": "helpdesk-api",
		"version": version.Version,
	})
}
