// controllers/schedule_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"guesthouse-backend/models"
	"guesthouse-backend/services"
	"guesthouse-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ScheduleController struct {
	Schedules *services.ScheduleService
	Validate  *validator.Validate
}

func NewScheduleController(svc *services.ScheduleService) *ScheduleController {
	return &ScheduleController{Schedules: svc, Validate: validator.New()}
}

func respondScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrScheduleNotFound), errors.Is(err, models.ErrTemplateNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrScheduleMisconfigured):
		utils.JSONError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrGatewayFailure):
		utils.JSONError(c, http.StatusBadGateway, err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
	}
}

// GetSchedules lists all schedules. GET /api/schedules
func (ctl *ScheduleController) GetSchedules(c *gin.Context) {
	schedules, err := ctl.Schedules.GetAllSchedules()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, schedules)
}

// CreateSchedule. POST /api/schedules
func (ctl *ScheduleController) CreateSchedule(c *gin.Context) {
	var schedule models.Schedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := ctl.Validate.Struct(&schedule); err != nil {
		utils.JSONValidationError(c, err)
		return
	}
	if err := ctl.Schedules.CreateSchedule(&schedule); err != nil {
		respondScheduleError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, schedule)
}

// UpdateSchedule. PATCH /api/schedules/:id
func (ctl *ScheduleController) UpdateSchedule(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	updates = utils.SnakeCaseKeys(updates)
	for _, key := range []string{"id", "created_at", "updated_at", "deleted_at", "last_run", "next_run"} {
		delete(updates, key)
	}
	schedule, err := ctl.Schedules.UpdateSchedule(id, updates)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, schedule)
}

// DeleteSchedule. DELETE /api/schedules/:id
func (ctl *ScheduleController) DeleteSchedule(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := ctl.Schedules.DeleteSchedule(id); err != nil {
		respondScheduleError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// SetActive pauses or resumes a schedule. POST /api/schedules/:id/active
func (ctl *ScheduleController) SetActive(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var payload struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	schedule, err := ctl.Schedules.SetActive(id, *payload.Active)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, schedule)
}

// RunNow fires a schedule immediately. POST /api/schedules/:id/run
func (ctl *ScheduleController) RunNow(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	result, err := ctl.Schedules.Execute(c.Request.Context(), id)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

// Preview returns the next fire times. GET /api/schedules/:id/preview?count=5
func (ctl *ScheduleController) Preview(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", "5"))
	if err != nil || count < 1 || count > 50 {
		count = 5
	}
	times, err := ctl.Schedules.Preview(id, count)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"nextRuns": times})
}
