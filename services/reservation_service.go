// services/reservation_service.go
package services

import (
	"errors"
	"fmt"

	"guesthouse-backend/models"
	"guesthouse-backend/utils"

	"gorm.io/gorm"
)

// ReservationService handles manual reservation CRUD. Feed-owned rows are
// created by reconciliation only; rows created here carry SourceManual and
// are never retired by a feed cancellation.
type ReservationService struct {
	DB    *gorm.DB
	Alloc *AllocationService
}

func NewReservationService(db *gorm.DB) *ReservationService {
	return &ReservationService{DB: db, Alloc: NewAllocationService(db)}
}

func (s *ReservationService) GetByID(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.DB.Preload("Room").First(&reservation, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (s *ReservationService) GetForDate(date string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.DB.Preload("Room").
		Where("date = ?", date).
		Order("pool_position, id").
		Find(&reservations).Error
	return reservations, err
}

// CreateManual inserts a staff-entered reservation at the end of the pool.
func (s *ReservationService) CreateManual(reservation *models.Reservation) error {
	reservation.Phone = utils.NormalizePhone(reservation.Phone)
	reservation.VisitorPhone = utils.NormalizePhone(reservation.VisitorPhone)
	if reservation.GuestName == "" || !utils.IsValidPhone(reservation.ContactPhone()) {
		return fmt.Errorf("%w: name and a valid phone are required", models.ErrMalformedRecord)
	}
	if reservation.Date == "" {
		return fmt.Errorf("%w: date is required", models.ErrMalformedRecord)
	}

	reservation.Source = models.SourceManual
	reservation.ExternalID = nil
	if reservation.Status == "" {
		reservation.Status = models.StatusConfirmed
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		pos, err := s.Alloc.NextPoolPosition(tx, reservation.Date)
		if err != nil {
			return err
		}
		reservation.PoolPosition = pos
		return tx.Create(reservation).Error
	})
}

// editableColumns maps accepted payload keys to their columns. Placement,
// provenance and idempotence bookkeeping have their own entry points and are
// deliberately absent.
var editableColumns = map[string]string{
	"guestName":          "guest_name",
	"guest_name":         "guest_name",
	"visitorName":        "visitor_name",
	"visitor_name":       "visitor_name",
	"phone":              "phone",
	"visitorPhone":       "visitor_phone",
	"visitor_phone":      "visitor_phone",
	"date":               "date",
	"time":               "time",
	"status":             "status",
	"partySize":          "party_size",
	"party_size":         "party_size",
	"partyParticipants":  "party_participants",
	"party_participants": "party_participants",
	"gender":             "gender",
	"roomTypeHint":       "room_type_hint",
	"room_type_hint":     "room_type_hint",
}

// Update applies a partial edit, dropping any field outside the editable set.
func (s *ReservationService) Update(id uint, updates map[string]interface{}) (*models.Reservation, error) {
	reservation, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	filtered := make(map[string]interface{}, len(updates))
	for key, value := range updates {
		column, ok := editableColumns[key]
		if !ok {
			continue
		}
		if column == "phone" || column == "visitor_phone" {
			if str, isStr := value.(string); isStr {
				value = utils.NormalizePhone(str)
			}
		}
		filtered[column] = value
	}
	if len(filtered) == 0 {
		return reservation, nil
	}

	if err := s.DB.Model(reservation).Updates(filtered).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Cancel marks a reservation cancelled and frees its room slot.
func (s *ReservationService) Cancel(id uint) (*models.Reservation, error) {
	reservation, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"status":   models.StatusCancelled,
		"room_id":  nil,
		"passcode": "",
	}
	if err := s.DB.Model(reservation).Updates(updates).Error; err != nil {
		return nil, err
	}
	reservation.Status = models.StatusCancelled
	reservation.RoomID = nil
	reservation.Passcode = ""
	return reservation, nil
}

func (s *ReservationService) Delete(id uint) error {
	result := s.DB.Delete(&models.Reservation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrReservationNotFound
	}
	return nil
}

// SetTags replaces a reservation's tag set.
func (s *ReservationService) SetTags(id uint, tags []string) (*models.Reservation, error) {
	reservation, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	reservation.SetTagList(tags)
	if err := s.DB.Model(reservation).Update("tags", reservation.Tags).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}
