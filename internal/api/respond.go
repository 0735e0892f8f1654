package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

// APIResponse is the uniform JSON envelope of the v1 surface.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func sendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func sendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

func sendMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message})
}

func sendError(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Success: false, Error: message})
}

// fail translates a service error into an envelope response. Validation
// and no-change failures carry their message to the caller; permission
// denials stay generic so probing reveals nothing about what exists.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrNoChanges):
		sendError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		sendError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPermission):
		sendError(c, http.StatusForbidden, "permission denied")
	default:
		log.Printf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
		sendError(c, http.StatusInternalServerError, "internal error")
	}
}

// paramID parses a positive integer path parameter, answering the request
// itself on bad input.
func paramID(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || value == 0 {
		sendError(c, http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return uint(value), true
}
