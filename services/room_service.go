// services/room_service.go
package services

import (
	"errors"
	"strings"

	"guesthouse-backend/models"

	"gorm.io/gorm"
)

type RoomService struct {
	DB *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{DB: db}
}

func (s *RoomService) GetAllRooms() ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.Preload("RoomType").
		Order("display_order, room_number").
		Find(&rooms).Error
	return rooms, err
}

func (s *RoomService) GetRoomByID(id uint) (*models.Room, error) {
	var room models.Room
	err := s.DB.Preload("RoomType").First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *RoomService) CreateRoom(room *models.Room) error {
	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	return s.DB.Create(room).Error
}

func (s *RoomService) UpdateRoom(id uint, updates map[string]interface{}) (*models.Room, error) {
	room, err := s.GetRoomByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(room).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetRoomByID(id)
}

func (s *RoomService) DeleteRoom(id uint) error {
	result := s.DB.Delete(&models.Room{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrRoomNotFound
	}
	return nil
}

func (s *RoomService) GetAllRoomTypes() ([]models.RoomType, error) {
	var types []models.RoomType
	err := s.DB.Order("id").Find(&types).Error
	return types, err
}

func (s *RoomService) CreateRoomType(rt *models.RoomType) error {
	return s.DB.Create(rt).Error
}

func (s *RoomService) UpdateRoomType(id uint, updates map[string]interface{}) (*models.RoomType, error) {
	var rt models.RoomType
	if err := s.DB.First(&rt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRoomNotFound
		}
		return nil, err
	}
	if err := s.DB.Model(&rt).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}
