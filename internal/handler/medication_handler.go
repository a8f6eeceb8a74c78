package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"okusuri/backend/internal/middleware"
	"okusuri/backend/internal/model"
	"okusuri/backend/internal/service"
)

type MedicationHandler struct {
	medicationService *service.MedicationService
}

type addManualRequest struct {
	Medications []model.ManualMedication `json:"medications"`
}

type importScannedRequest struct {
	Medications []model.ScannedMedication `json:"medications"`
}

func NewMedicationHandler(medicationService *service.MedicationService) *MedicationHandler {
	return &MedicationHandler{medicationService: medicationService}
}

func (h *MedicationHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "unauthorized", "message": "unauthorized"},
		})
		return
	}

	medications, apiErr := h.medicationService.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"medications": medications})
}

func (h *MedicationHandler) AddManual(c *gin.Context) {
	var req addManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}
	if len(req.Medications) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "empty_medications", "message": "medications are required"},
		})
		return
	}

	userID := middleware.UserID(c)
	created, apiErr := h.medicationService.AddManual(c.Request.Context(), userID, req.Medications)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"medications": created})
}

func (h *MedicationHandler) ImportScanned(c *gin.Context) {
	var req importScannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}
	if len(req.Medications) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "empty_medications", "message": "medications are required"},
		})
		return
	}

	userID := middleware.UserID(c)
	created, apiErr := h.medicationService.ImportScanned(c.Request.Context(), userID, req.Medications)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"medications": created})
}
