package delivery

import (
	"net/http"

	pushdomain "todo-backend/internal/push/domain"
	"todo-backend/internal/push/repository"

	"github.com/gin-gonic/gin"
)

// PushHandler manages device subscriptions and notification preferences
type PushHandler struct {
	subRepo  repository.SubscriptionRepository
	prefRepo repository.PreferenceRepository
}

func NewPushHandler(subRepo repository.SubscriptionRepository, prefRepo repository.PreferenceRepository) *PushHandler {
	return &PushHandler{subRepo: subRepo, prefRepo: prefRepo}
}

type registerRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

// RegisterSubscription stores a device token for the user
// POST /api/push/subscriptions
func (h *PushHandler) RegisterSubscription(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.subRepo.SaveToken(c.Request.Context(), c.GetString("userID"), req.Token, req.DeviceInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription registered"})
}

// UnregisterSubscription removes one of the user's device tokens
// DELETE /api/push/subscriptions/:token
func (h *PushHandler) UnregisterSubscription(c *gin.Context) {
	if err := h.subRepo.DeleteUserToken(c.Request.Context(), c.GetString("userID"), c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription removed"})
}

// GetPreferences returns the user's opt-ins
// GET /api/push/preferences
func (h *PushHandler) GetPreferences(c *gin.Context) {
	userID := c.GetString("userID")
	pref, err := h.prefRepo.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if pref == nil {
		pref = &pushdomain.Preference{UserID: userID}
	}
	c.JSON(http.StatusOK, pref)
}

// UpdatePreferences replaces the user's opt-ins
// PUT /api/push/preferences
func (h *PushHandler) UpdatePreferences(c *gin.Context) {
	var req struct {
		WaterReminders bool `json:"water_reminders"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := &pushdomain.Preference{UserID: c.GetString("userID"), WaterReminders: req.WaterReminders}
	if err := h.prefRepo.Save(c.Request.Context(), pref); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pref)
}
