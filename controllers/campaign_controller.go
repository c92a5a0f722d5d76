// controllers/campaign_controller.go
package controllers

import (
	"errors"
	"log"
	"net/http"

	"guesthouse-backend/models"
	"guesthouse-backend/services"
	"guesthouse-backend/utils"

	"github.com/gin-gonic/gin"
)

type CampaignController struct {
	Dispatch *services.DispatchService
}

func NewCampaignController(dispatch *services.DispatchService) *CampaignController {
	return &CampaignController{Dispatch: dispatch}
}

// RunDispatch sends one notification kind to the matching reservations.
// POST /api/campaigns/dispatch
func (ctl *CampaignController) RunDispatch(c *gin.Context) {
	var req services.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := ctl.Dispatch.Run(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTemplateNotFound):
			utils.JSONError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, models.ErrGatewayFailure):
			log.Printf("❌ Dispatch %s gateway failure: %v", result.BatchID, err)
			utils.JSONError(c, http.StatusBadGateway, err.Error())
		default:
			log.Printf("❌ Dispatch %s failed: %v", result.BatchID, err)
			utils.JSONError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	log.Printf("✅ Dispatch %s: %d targeted, %d sent", result.BatchID, result.Targeted, result.Sent)
	utils.JSONSuccess(c, http.StatusOK, result)
}

// PreviewTargets resolves a dispatch request's target set without sending.
// POST /api/campaigns/preview
func (ctl *CampaignController) PreviewTargets(c *gin.Context) {
	var req services.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	targets, err := ctl.Dispatch.PreviewTargets(req)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"count": len(targets), "targets": targets})
}

// GetCampaignLogs lists past dispatch runs, newest first.
// GET /api/campaigns/logs?date=&kind=
func (ctl *CampaignController) GetCampaignLogs(c *gin.Context) {
	query := ctl.Dispatch.DB.Model(&models.CampaignLog{}).Order("sent_at DESC")
	if date := c.Query("date"); date != "" {
		query = query.Where("date = ?", date)
	}
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var logs []models.CampaignLog
	if err := query.Limit(200).Find(&logs).Error; err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, logs)
}
