package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"okusuri/backend/internal/middleware"
	"okusuri/backend/internal/model"
	"okusuri/backend/internal/service"
)

type ReminderHandler struct {
	reminderService *service.ReminderService
}

type reminderEventRequest struct {
	Event string `json:"event"`
}

func NewReminderHandler(reminderService *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

func (h *ReminderHandler) GetState(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "unauthorized", "message": "unauthorized"},
		})
		return
	}

	snapshot := h.reminderService.State(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"reminder": snapshot})
}

func (h *ReminderHandler) Start(c *gin.Context) {
	userID := middleware.UserID(c)
	snapshot, started := h.reminderService.Start(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"reminder": snapshot, "started": started})
}

func (h *ReminderHandler) MarkTaken(c *gin.Context) {
	userID := middleware.UserID(c)
	snapshot := h.reminderService.MarkTaken(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"reminder": snapshot})
}

func (h *ReminderHandler) MarkPostponed(c *gin.Context) {
	userID := middleware.UserID(c)
	snapshot := h.reminderService.MarkPostponed(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"reminder": snapshot})
}

func (h *ReminderHandler) ResetInactivity(c *gin.Context) {
	userID := middleware.UserID(c)
	h.reminderService.ResetInactivity(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ReminderHandler) HandleEvent(c *gin.Context) {
	var req reminderEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}
	if req.Event == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_event", "message": "event is required"},
		})
		return
	}

	userID := middleware.UserID(c)
	snapshot, apiErr := h.reminderService.HandleEvent(c.Request.Context(), userID, model.ReminderEvent(req.Event))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminder": snapshot})
}

func (h *ReminderHandler) GetNotifications(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "unauthorized", "message": "unauthorized"},
		})
		return
	}

	snapshot := h.reminderService.State(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{
		"results":      snapshot.Results,
		"successCount": snapshot.SuccessCount,
		"totalCount":   snapshot.TotalCount,
	})
}
