// services/allocation_service.go
package services

import (
	"guesthouse-backend/models"

	"gorm.io/gorm"
)

// AllocationService is the day-indexed view over reservations: room-bound
// slots (one occupant each), the unassigned pool ordered by arrival, and the
// party-only list. Reconciliation, assignment and dispatch all read it.
type AllocationService struct {
	DB *gorm.DB
}

func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{DB: db}
}

// RoomSlot binds a physical room to its occupant for the day (nil = empty).
type RoomSlot struct {
	Room        models.Room         `json:"room"`
	Reservation *models.Reservation `json:"reservation,omitempty"`
}

// DayAllocation is the assembled table for one date.
type DayAllocation struct {
	Date      string               `json:"date"`
	RoomSlots []RoomSlot           `json:"roomSlots"`
	Pool      []models.Reservation `json:"pool"`
	PartyOnly []models.Reservation `json:"partyOnly"`
}

// DayTable builds the full allocation table for a date. Cancelled
// reservations are excluded; they hold no slot.
func (s *AllocationService) DayTable(date string) (DayAllocation, error) {
	out := DayAllocation{Date: date}

	var rooms []models.Room
	if err := s.DB.Where("active = ?", true).Order("display_order, room_number").Find(&rooms).Error; err != nil {
		return out, err
	}

	reservations, err := s.OccupiedForDay(s.DB, date)
	if err != nil {
		return out, err
	}

	byRoom := make(map[uint]*models.Reservation, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		switch r.PlacementState() {
		case models.PlacementRoomAssigned:
			byRoom[*r.RoomID] = r
		case models.PlacementPartyOnly:
			out.PartyOnly = append(out.PartyOnly, *r)
		default:
			out.Pool = append(out.Pool, *r)
		}
	}

	for _, room := range rooms {
		out.RoomSlots = append(out.RoomSlots, RoomSlot{Room: room, Reservation: byRoom[room.ID]})
	}
	return out, nil
}

// OccupiedForDay returns every non-cancelled reservation holding a slot on
// the date, pool ordered by arrival. Used as the dedup base by
// reconciliation.
func (s *AllocationService) OccupiedForDay(tx *gorm.DB, date string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := tx.Where("date = ? AND status <> ?", date, models.StatusCancelled).
		Order("pool_position, id").
		Find(&reservations).Error
	return reservations, err
}

// NextPoolPosition returns the append position for a new pool entry. The
// pool grows by arrival order; positions are never reused within a day.
func (s *AllocationService) NextPoolPosition(tx *gorm.DB, date string) (int, error) {
	var max struct{ N int }
	err := tx.Model(&models.Reservation{}).
		Select("COALESCE(MAX(pool_position), 0) AS n").
		Where("date = ?", date).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max.N + 1, nil
}
