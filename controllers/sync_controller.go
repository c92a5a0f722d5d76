// controllers/sync_controller.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"guesthouse-backend/models"
	"guesthouse-backend/services"
	"guesthouse-backend/utils"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	Reconcile *services.ReconcileService
}

func NewSyncController(svc *services.ReconcileService) *SyncController {
	return &SyncController{Reconcile: svc}
}

// ---------------------------
// Payload / DTOs
// ---------------------------

type RunSyncPayload struct {
	Date  string `json:"date" binding:"required"`
	Since string `json:"since,omitempty"` // RFC3339; empty = full resync
}

// RunSync merges the feed into the given date. POST /api/sync/run
func (ctl *SyncController) RunSync(c *gin.Context) {
	var payload RunSyncPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if _, err := time.Parse("2006-01-02", payload.Date); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	opts := services.ReconcileOptions{}
	if payload.Since != "" {
		since, err := time.Parse(time.RFC3339, payload.Since)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		opts.ConfirmedAfter = &since
	}

	result, err := ctl.Reconcile.Reconcile(c.Request.Context(), payload.Date, opts)
	if err != nil {
		if errors.Is(err, models.ErrFeedUnavailable) {
			log.Printf("❌ Sync failed, feed unavailable: %v", err)
			utils.JSONError(c, http.StatusBadGateway, "Booking feed unavailable")
			return
		}
		log.Printf("❌ Sync failed for %s: %v", payload.Date, err)
		utils.JSONError(c, http.StatusInternalServerError, "Sync failed")
		return
	}

	log.Printf("✅ Sync %s: %d fetched, %d inserted, %d retired", payload.Date, result.Fetched, result.Inserted, result.Retired)
	utils.JSONSuccess(c, http.StatusOK, result)
}
