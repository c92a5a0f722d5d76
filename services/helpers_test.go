package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"guesthouse-backend/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives every test its own in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.RoomType{},
		&models.Room{},
		&models.Reservation{},
		&models.MessageTemplate{},
		&models.Schedule{},
		&models.CampaignLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRoom(t *testing.T, db *gorm.DB, number, building string, order int) models.Room {
	t.Helper()
	room := models.Room{RoomNumber: number, Building: building, Active: true, DisplayOrder: order}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room %s: %v", number, err)
	}
	return room
}

func seedReservation(t *testing.T, db *gorm.DB, r models.Reservation) models.Reservation {
	t.Helper()
	if r.Status == "" {
		r.Status = models.StatusConfirmed
	}
	if r.Date == "" {
		r.Date = "2026-09-01"
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed reservation %s: %v", r.GuestName, err)
	}
	return r
}

func seedTemplate(t *testing.T, db *gorm.DB, key, content string) models.MessageTemplate {
	t.Helper()
	tpl := models.MessageTemplate{Key: key, Name: key, Content: content, Active: true}
	if err := db.Create(&tpl).Error; err != nil {
		t.Fatalf("seed template %s: %v", key, err)
	}
	return tpl
}

func externalRef(id string) *string { return &id }

// ---------------------------
// Fakes
// ---------------------------

// fakeFeed returns a canned booking list, or an error when set.
type fakeFeed struct {
	bookings []FeedBooking
	err      error
	calls    int
}

func (f *fakeFeed) FetchBookings(ctx context.Context, date string) ([]FeedBooking, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bookings, nil
}

// fakeGateway records every batch and answers with a fixed response.
type fakeGateway struct {
	response BatchResponse
	err      error
	batches  []BatchRequest
}

func (g *fakeGateway) SendBatch(ctx context.Context, req BatchRequest) (BatchResponse, error) {
	g.batches = append(g.batches, req)
	if g.err != nil {
		return BatchResponse{}, g.err
	}
	return g.response, nil
}

func confirmedBooking(id, name, phone, itemID string) FeedBooking {
	return FeedBooking{
		BookingID:   id,
		ItemID:      itemID,
		Name:        name,
		Phone:       phone,
		StatusCode:  FeedStatusConfirmed,
		StartDate:   "2026-09-01",
		EndDate:     "2026-09-02",
		ConfirmedAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		UnitCount:   1,
	}
}
