// controllers/reservation_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"guesthouse-backend/models"
	"guesthouse-backend/services"
	"guesthouse-backend/utils"

	"github.com/gin-gonic/gin"
)

type ReservationController struct {
	Reservations *services.ReservationService
	Assignments  *services.AssignmentService
	Alloc        *services.AllocationService
}

func NewReservationController(res *services.ReservationService, asg *services.AssignmentService, alloc *services.AllocationService) *ReservationController {
	return &ReservationController{Reservations: res, Assignments: asg, Alloc: alloc}
}

// ---------------------------
// Payload / DTOs
// ---------------------------

type AssignRoomPayload struct {
	RoomID uint `json:"roomId" binding:"required"`
}

type SetTagsPayload struct {
	Tags []string `json:"tags"`
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

func respondReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrReservationNotFound), errors.Is(err, models.ErrRoomNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		utils.JSONError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrMalformedRecord):
		utils.JSONError(c, http.StatusBadRequest, err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
	}
}

// ---------------------------
// Handlers
// ---------------------------

// GetReservations lists one date's reservations. GET /api/reservations?date=
func (ctl *ReservationController) GetReservations(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.JSONError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}
	reservations, err := ctl.Reservations.GetForDate(date)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservations)
}

// GetDayTable returns the full allocation view for a date: each room with
// its occupant, the waiting pool and the party-only group.
// GET /api/reservations/day-table?date=
func (ctl *ReservationController) GetDayTable(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.JSONError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}
	table, err := ctl.Alloc.DayTable(date)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, table)
}

func (ctl *ReservationController) GetReservation(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	reservation, err := ctl.Reservations.GetByID(id)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}

// CreateReservation adds a manual reservation. POST /api/reservations
func (ctl *ReservationController) CreateReservation(c *gin.Context) {
	var reservation models.Reservation
	if err := c.ShouldBindJSON(&reservation); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := ctl.Reservations.CreateManual(&reservation); err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, reservation)
}

// UpdateReservation applies a partial edit. PATCH /api/reservations/:id
func (ctl *ReservationController) UpdateReservation(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	reservation, err := ctl.Reservations.Update(id, updates)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}

// CancelReservation marks a reservation cancelled and frees its room.
// POST /api/reservations/:id/cancel
func (ctl *ReservationController) CancelReservation(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	reservation, err := ctl.Reservations.Cancel(id)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}

func (ctl *ReservationController) DeleteReservation(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := ctl.Reservations.Delete(id); err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// AssignRoom places a reservation into a room. POST /api/reservations/:id/assign
func (ctl *ReservationController) AssignRoom(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var payload AssignRoomPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	reservation, err := ctl.Assignments.Assign(id, payload.RoomID)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}

// UnassignRoom returns a reservation to the pool. POST /api/reservations/:id/unassign
func (ctl *ReservationController) UnassignRoom(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	reservation, err := ctl.Assignments.Unassign(id)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}

// ConvertToPartyOnly. POST /api/reservations/:id/party-only
func (ctl *ReservationController) ConvertToPartyOnly(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	reservation, err := ctl.Assignments.ConvertToPartyOnly(id)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}

// SetTags replaces a reservation's tags. PUT /api/reservations/:id/tags
func (ctl *ReservationController) SetTags(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var payload SetTagsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	reservation, err := ctl.Reservations.SetTags(id, payload.Tags)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}
