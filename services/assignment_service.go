// services/assignment_service.go
package services

import (
	"errors"
	"fmt"
	"sync"

	"guesthouse-backend/models"
	"guesthouse-backend/utils"

	"gorm.io/gorm"
)

// AssignmentService moves reservations between the three placement states.
// All room moves go through one mutex so two concurrent assigns can never
// interleave their read-check-write sequences.
type AssignmentService struct {
	DB *gorm.DB
	mu sync.Mutex
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{DB: db}
}

// Assign places a reservation into a room for its own date. If the room
// already holds another reservation that day, the old occupant is moved
// back to the pool in the same transaction, so a reader never sees the
// room doubly occupied. The reservation's own previous room is freed the
// same way. A party-only tag stays on the record; placement derivation
// lets the room reference win (see Reservation.PlacementState).
func (s *AssignmentService) Assign(reservationID, roomID uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reservation models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrReservationNotFound
			}
			return err
		}
		if reservation.Status == models.StatusCancelled {
			return fmt.Errorf("%w: reservation is cancelled", models.ErrConflict)
		}

		var room models.Room
		if err := tx.First(&room, roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrRoomNotFound
			}
			return err
		}
		if !room.Active {
			return fmt.Errorf("%w: room %s is inactive", models.ErrConflict, room.RoomNumber)
		}

		// Vacate the current occupant, if any, before placing the new one.
		err := tx.Model(&models.Reservation{}).
			Where("date = ? AND room_id = ? AND id <> ?", reservation.Date, roomID, reservation.ID).
			Updates(map[string]interface{}{"room_id": nil, "passcode": ""}).Error
		if err != nil {
			return err
		}

		passcode, err := utils.GenerateRoomPasscode(room.RoomNumber)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"room_id":  roomID,
			"passcode": passcode,
		}
		if err := tx.Model(&reservation).Updates(updates).Error; err != nil {
			return err
		}
		reservation.RoomID = &roomID
		reservation.Room = room
		reservation.Passcode = passcode
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Unassign returns a reservation to the unassigned pool.
func (s *AssignmentService) Unassign(reservationID uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reservation models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrReservationNotFound
			}
			return err
		}
		updates := map[string]interface{}{
			"room_id":  nil,
			"passcode": "",
		}
		if err := tx.Model(&reservation).Updates(updates).Error; err != nil {
			return err
		}
		reservation.RoomID = nil
		reservation.Passcode = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ConvertToPartyOnly downgrades a room-holding reservation to a
// party-only stay: the room is vacated and the party-only tag added in
// one transaction. Idempotent for reservations already in the party-only
// state; rejects reservations that sit in the pool with no room to give
// up.
func (s *AssignmentService) ConvertToPartyOnly(reservationID uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reservation models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrReservationNotFound
			}
			return err
		}
		if reservation.PlacementState() == models.PlacementPartyOnly {
			return nil
		}
		if reservation.RoomID == nil {
			return fmt.Errorf("%w: reservation holds no room to convert", models.ErrConflict)
		}

		reservation.AddTag(models.TagPartyOnly)
		updates := map[string]interface{}{
			"room_id":  nil,
			"passcode": "",
			"tags":     reservation.Tags,
		}
		if err := tx.Model(&reservation).Updates(updates).Error; err != nil {
			return err
		}
		reservation.RoomID = nil
		reservation.Passcode = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}
