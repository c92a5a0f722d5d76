// controllers/room_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"guesthouse-backend/models"
	"guesthouse-backend/services"
	"guesthouse-backend/utils"

	"github.com/gin-gonic/gin"
	mysql "github.com/go-sql-driver/mysql"
)

type RoomController struct {
	Rooms *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{Rooms: svc}
}

func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1062
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate entry") || strings.Contains(lower, "unique constraint failed")
}

// GetRooms lists all rooms with their types. GET /api/rooms
func (ctl *RoomController) GetRooms(c *gin.Context) {
	rooms, err := ctl.Rooms.GetAllRooms()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// CreateRoom adds a room. POST /api/rooms
func (ctl *RoomController) CreateRoom(c *gin.Context) {
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if strings.TrimSpace(room.RoomNumber) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Room number is required")
		return
	}
	if err := ctl.Rooms.CreateRoom(&room); err != nil {
		if isDuplicateEntryError(err) {
			utils.JSONError(c, http.StatusConflict, "Room number already exists")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

// UpdateRoom applies a partial edit. PATCH /api/rooms/:id
func (ctl *RoomController) UpdateRoom(c *gin.Context) {
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
	for _, key := range []string{"id", "created_at", "updated_at", "deleted_at"} {
		delete(updates, key)
	}
	room, err := ctl.Rooms.UpdateRoom(id, updates)
	if err != nil {
		if errors.Is(err, models.ErrRoomNotFound) {
			utils.JSONError(c, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

// DeleteRoom removes a room. DELETE /api/rooms/:id
func (ctl *RoomController) DeleteRoom(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := ctl.Rooms.DeleteRoom(id); err != nil {
		if errors.Is(err, models.ErrRoomNotFound) {
			utils.JSONError(c, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// GetRoomTypes lists room types. GET /api/room-types
func (ctl *RoomController) GetRoomTypes(c *gin.Context) {
	types, err := ctl.Rooms.GetAllRoomTypes()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, types)
}

// CreateRoomType adds a room type. POST /api/room-types
func (ctl *RoomController) CreateRoomType(c *gin.Context) {
	var rt models.RoomType
	if err := c.ShouldBindJSON(&rt); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := ctl.Rooms.CreateRoomType(&rt); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, rt)
}

// UpdateRoomType. PATCH /api/room-types/:id
func (ctl *RoomController) UpdateRoomType(c *gin.Context) {
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
	for _, key := range []string{"id", "created_at", "updated_at", "deleted_at"} {
		delete(updates, key)
	}
	rt, err := ctl.Rooms.UpdateRoomType(id, updates)
	if err != nil {
		if errors.Is(err, models.ErrRoomNotFound) {
			utils.JSONError(c, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rt)
}
