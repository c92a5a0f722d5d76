package services

import (
	"errors"
	"testing"

	"guesthouse-backend/models"
)

func TestAssignPlacesReservation(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	room := seedRoom(t, db, "A3", "A", 1)
	res := seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1})

	got, err := svc.Assign(res.ID, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PlacementState() != models.PlacementRoomAssigned {
		t.Errorf("placement = %q, want room_assigned", got.PlacementState())
	}
	if got.Passcode == "" {
		t.Error("assignment should set a door passcode")
	}
	// A3 -> 3*4=12, so the code ends in "012"
	if got.Passcode[1:] != "012" {
		t.Errorf("passcode = %q, want suffix 012", got.Passcode)
	}
}

func TestAssignDisplacesOccupant(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	room := seedRoom(t, db, "A1", "A", 1)
	first := seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1})
	second := seedReservation(t, db, models.Reservation{GuestName: "lee", Phone: "01033334444", PoolPosition: 2})

	if _, err := svc.Assign(first.ID, room.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Assign(second.ID, room.ID); err != nil {
		t.Fatalf("assigning over an occupant should displace, got %v", err)
	}

	// The room holds exactly the new occupant; the old one is back in the pool.
	var occupants []models.Reservation
	db.Where("date = ? AND room_id = ?", "2026-09-01", room.ID).Find(&occupants)
	if len(occupants) != 1 || occupants[0].ID != second.ID {
		t.Fatalf("room occupants = %v, want only %q", occupants, second.GuestName)
	}
	var displaced models.Reservation
	db.First(&displaced, first.ID)
	if displaced.PlacementState() != models.PlacementUnassigned {
		t.Errorf("displaced placement = %q, want unassigned", displaced.PlacementState())
	}
	if displaced.Passcode != "" {
		t.Error("displaced occupant should lose its passcode")
	}

	// A different date is a different slot: no displacement across days.
	other := seedReservation(t, db, models.Reservation{GuestName: "park", Phone: "01055556666", Date: "2026-09-02", PoolPosition: 1})
	if _, err := svc.Assign(other.ID, room.ID); err != nil {
		t.Fatalf("same room on another date should assign: %v", err)
	}
	db.First(&second, second.ID)
	if second.RoomID == nil || *second.RoomID != room.ID {
		t.Error("assignment on another date must not displace the current day's occupant")
	}
}

func TestAssignMovesBetweenRooms(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	roomA := seedRoom(t, db, "A1", "A", 1)
	roomB := seedRoom(t, db, "B2", "B", 2)
	res := seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1})

	if _, err := svc.Assign(res.ID, roomA.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Assign(res.ID, roomB.ID); err != nil {
		t.Fatal(err)
	}

	// The old room is free again.
	other := seedReservation(t, db, models.Reservation{GuestName: "lee", Phone: "01033334444", PoolPosition: 2})
	if _, err := svc.Assign(other.ID, roomA.ID); err != nil {
		t.Fatalf("vacated room should accept a new occupant: %v", err)
	}

	var count int64
	db.Model(&models.Reservation{}).Where("id = ? AND room_id = ?", res.ID, roomB.ID).Count(&count)
	if count != 1 {
		t.Error("reservation not in its new room")
	}
}

func TestAssignKeepsPartyOnlyTag(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	room := seedRoom(t, db, "A1", "A", 1)
	partyGuest := models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1}
	partyGuest.AddTag(models.TagPartyOnly)
	res := seedReservation(t, db, partyGuest)

	if res.PlacementState() != models.PlacementPartyOnly {
		t.Fatalf("seed placement = %q, want party_only", res.PlacementState())
	}
	got, err := svc.Assign(res.ID, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	// The tag stays; the room reference wins when deriving placement.
	if !got.HasTag(models.TagPartyOnly) {
		t.Error("assignment should leave the party-only tag in place")
	}
	if got.PlacementState() != models.PlacementRoomAssigned {
		t.Errorf("placement = %q, want room_assigned", got.PlacementState())
	}
}

func TestAssignRejectsCancelledAndInactive(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	room := seedRoom(t, db, "A1", "A", 1)

	cancelled := seedReservation(t, db, models.Reservation{
		GuestName: "kim", Phone: "01011112222", Status: models.StatusCancelled, PoolPosition: 1,
	})
	if _, err := svc.Assign(cancelled.ID, room.ID); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("cancelled reservation: err = %v, want ErrConflict", err)
	}

	inactive := models.Room{RoomNumber: "A9", Building: "A", Active: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatal(err)
	}
	res := seedReservation(t, db, models.Reservation{GuestName: "lee", Phone: "01033334444", PoolPosition: 2})
	if _, err := svc.Assign(res.ID, inactive.ID); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("inactive room: err = %v, want ErrConflict", err)
	}
}

func TestUnassignReturnsToPool(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	room := seedRoom(t, db, "A1", "A", 1)
	res := seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1})

	if _, err := svc.Assign(res.ID, room.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Unassign(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PlacementState() != models.PlacementUnassigned {
		t.Errorf("placement = %q, want unassigned", got.PlacementState())
	}
	if got.Passcode != "" {
		t.Error("passcode should be cleared on unassign")
	}
	if got.PoolPosition != 1 {
		t.Errorf("pool position = %d, should keep the arrival slot", got.PoolPosition)
	}
}

func TestConvertToPartyOnlyIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	room := seedRoom(t, db, "A1", "A", 1)
	res := seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1})

	if _, err := svc.Assign(res.ID, room.ID); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ConvertToPartyOnly(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PlacementState() != models.PlacementPartyOnly {
		t.Errorf("placement = %q, want party_only", got.PlacementState())
	}

	again, err := svc.ConvertToPartyOnly(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.PlacementState() != models.PlacementPartyOnly {
		t.Errorf("repeat conversion changed state: %q", again.PlacementState())
	}

	// Room freed by the conversion.
	var occupants int64
	db.Model(&models.Reservation{}).Where("room_id = ?", room.ID).Count(&occupants)
	if occupants != 0 {
		t.Error("room should be free after party-only conversion")
	}
}

func TestConvertToPartyOnlyRequiresRoom(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	res := seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1})

	if _, err := svc.ConvertToPartyOnly(res.ID); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("pool guest without a room: err = %v, want ErrConflict", err)
	}
}

func TestAssignmentNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(db)
	room := seedRoom(t, db, "A1", "A", 1)
	res := seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1})

	if _, err := svc.Assign(999, room.ID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("err = %v, want ErrReservationNotFound", err)
	}
	if _, err := svc.Assign(res.ID, 999); !errors.Is(err, models.ErrRoomNotFound) {
		t.Errorf("err = %v, want ErrRoomNotFound", err)
	}
}
