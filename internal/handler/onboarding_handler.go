package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"okusuri/backend/internal/middleware"
	"okusuri/backend/internal/model"
	"okusuri/backend/internal/service"
)

type OnboardingHandler struct {
	onboardingService *service.OnboardingService
}

type permissionRequest struct {
	Kind    string `json:"kind"`
	Granted bool   `json:"granted"`
}

type familySetupRequest struct {
	Enabled bool   `json:"enabled"`
	Method  string `json:"method"`
}

type addContactRequest struct {
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Relationship    string `json:"relationship"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	PreferredMethod string `json:"preferredMethod"`
}

func NewOnboardingHandler(onboardingService *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

func (h *OnboardingHandler) GetState(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "unauthorized", "message": "unauthorized"},
		})
		return
	}

	snapshot := h.onboardingService.State(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"onboarding": snapshot})
}

func (h *OnboardingHandler) Advance(c *gin.Context) {
	userID := middleware.UserID(c)
	snapshot := h.onboardingService.Advance(userID)
	c.JSON(http.StatusOK, gin.H{"onboarding": snapshot})
}

func (h *OnboardingHandler) Retreat(c *gin.Context) {
	userID := middleware.UserID(c)
	snapshot := h.onboardingService.Retreat(userID)
	c.JSON(http.StatusOK, gin.H{"onboarding": snapshot})
}

func (h *OnboardingHandler) SetPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	snapshot, apiErr := h.onboardingService.SetPermission(userID, req.Kind, req.Granted)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"onboarding": snapshot})
}

func (h *OnboardingHandler) SetFamilySetup(c *gin.Context) {
	var req familySetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	snapshot, apiErr := h.onboardingService.SetFamilySetup(userID, req.Enabled, req.Method)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"onboarding": snapshot})
}

func (h *OnboardingHandler) AddContact(c *gin.Context) {
	var req addContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_contact", "message": "contact name is required"},
		})
		return
	}

	userID := middleware.UserID(c)
	contact, apiErr := h.onboardingService.AddContact(userID, req.Kind, model.FamilyContact{
		Name:            req.Name,
		Relationship:    req.Relationship,
		Phone:           req.Phone,
		Email:           req.Email,
		PreferredMethod: req.PreferredMethod,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": contact})
}

func (h *OnboardingHandler) Complete(c *gin.Context) {
	userID := middleware.UserID(c)
	snapshot, apiErr := h.onboardingService.Complete(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"onboarding": snapshot})
}

func (h *OnboardingHandler) ListContacts(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "unauthorized", "message": "unauthorized"},
		})
		return
	}

	contacts, apiErr := h.onboardingService.Contacts(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}
