package delivery

import (
	"errors"
	"net/http"

	"todo-backend/internal/calendar/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthURLBuilder builds the provider consent URL
type AuthURLBuilder interface {
	AuthCodeURL(state string) string
}

// CalendarHandler connects calendars and pushes task deadlines to them
type CalendarHandler struct {
	sync *usecase.CalendarSync
	urls AuthURLBuilder
}

func NewCalendarHandler(sync *usecase.CalendarSync, urls AuthURLBuilder) *CalendarHandler {
	return &CalendarHandler{sync: sync, urls: urls}
}

// AuthURL returns the consent page to start a connection
// GET /api/calendar/auth-url
func (h *CalendarHandler) AuthURL(c *gin.Context) {
	state := uuid.New().String()
	c.JSON(http.StatusOK, gin.H{
		"url":   h.urls.AuthCodeURL(state),
		"state": state,
	})
}

// Connect exchanges an authorization code and (re-)enables the credential
// POST /api/calendar/connect
func (h *CalendarHandler) Connect(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := h.sync.Connect(c.Request.Context(), c.GetString("userID"), req.Code)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":  cred.Enabled,
		"expires_at": cred.ExpiresAt,
	})
}

// PushTask creates a calendar event for the task's deadline
// POST /api/tasks/:id/calendar
func (h *CalendarHandler) PushTask(c *gin.Context) {
	id, err := h.sync.PushTask(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": id})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrReauthorize):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "action": "reauthorize"})
	case errors.Is(err, usecase.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "action": "retry"})
	case errors.Is(err, usecase.ErrNotConnected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "action": "connect"})
	case errors.Is(err, usecase.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, usecase.ErrNoDeadline):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
