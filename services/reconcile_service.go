// services/reconcile_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"guesthouse-backend/models"

	"gorm.io/gorm"
)

// ReconcileService merges the external booking feed into the allocation
// table for one date. Safe to re-run: matched bookings are left untouched,
// so repeated invocations with unchanged feed data are no-ops.
type ReconcileService struct {
	DB    *gorm.DB
	Feed  BookingFeed
	Alloc *AllocationService
}

func NewReconcileService(db *gorm.DB, feed BookingFeed) *ReconcileService {
	return &ReconcileService{DB: db, Feed: feed, Alloc: NewAllocationService(db)}
}

// ReconcileOptions narrows a run. ConfirmedAfter keeps only bookings
// confirmed after that instant (incremental sync); nil means full resync.
type ReconcileOptions struct {
	ConfirmedAfter *time.Time
}

type ReconcileResult struct {
	Fetched        int `json:"fetched"`
	Matched        int `json:"matched"`
	Inserted       int `json:"inserted"`
	Retired        int `json:"retired"`
	CancelledPairs int `json:"cancelledPairs"`
	Skipped        int `json:"skipped"`
}

// Reconcile runs one merge pass for date (YYYY-MM-DD). A feed failure aborts
// before any write; all computed mutations commit in a single transaction.
func (s *ReconcileService) Reconcile(ctx context.Context, date string, opts ReconcileOptions) (ReconcileResult, error) {
	var result ReconcileResult

	bookings, err := s.Feed.FetchBookings(ctx, date)
	if err != nil {
		return result, fmt.Errorf("%w: %v", models.ErrFeedUnavailable, err)
	}
	result.Fetched = len(bookings)

	confirmed, cancelled := s.partition(bookings, date, opts, &result)

	// A cancelled booking paired with a confirmed one on (item, name, phone)
	// is a cancel-then-rebook; neither side is processed further.
	confirmed, cancelled, pairs := dropCancelConfirmPairs(confirmed, cancelled)
	result.CancelledPairs = pairs

	multiIDs := detectMultiBookings(confirmed)

	capacities, err := s.capacityByItem()
	if err != nil {
		return result, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		occupied, err := s.Alloc.OccupiedForDay(tx, date)
		if err != nil {
			return err
		}

		// Retire resolved cancellations before the dedup scan, so a guest
		// who cancelled and rebooked is re-inserted this run instead of
		// matching the row being retired. Only feed-owned rows, never manual.
		for _, c := range cancelled {
			r := findCancellationTarget(c, occupied)
			if r == nil {
				continue
			}
			updates := map[string]interface{}{
				"status":  models.StatusCancelled,
				"room_id": nil,
			}
			if err := tx.Model(&models.Reservation{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
				return err
			}
			r.Status = models.StatusCancelled
			r.RoomID = nil
			result.Retired++
		}

		// Dedup pass: bookings already present keep their slot untouched,
		// which is what preserves manual edits.
		unresolved := make([]FeedBooking, 0, len(confirmed))
		for _, b := range confirmed {
			if matchesOccupied(b, occupied, multiIDs) {
				result.Matched++
				continue
			}
			unresolved = append(unresolved, b)
		}

		// Insertion: every still-unresolved confirmed booking goes to the
		// next pool position in arrival order.
		nextPos, err := s.Alloc.NextPoolPosition(tx, date)
		if err != nil {
			return err
		}
		for _, b := range unresolved {
			res := s.buildReservation(b, date, nextPos, multiIDs[b.BookingID], capacities)
			if err := tx.Create(&res).Error; err != nil {
				return err
			}
			nextPos++
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// partition splits the raw feed by status, dropping same-day-checkout noise
// (stay end equal to the target date), malformed records, and — for
// incremental runs — confirmations outside the time window.
func (s *ReconcileService) partition(bookings []FeedBooking, date string, opts ReconcileOptions, result *ReconcileResult) (confirmed, cancelled []FeedBooking) {
	for _, b := range bookings {
		if b.EndDate == date {
			continue
		}
		if b.IsMalformed() {
			log.Printf("reconcile: skipping malformed booking id=%q name=%q", b.BookingID, b.Name)
			result.Skipped++
			continue
		}
		switch b.StatusCode {
		case FeedStatusConfirmed:
			if opts.ConfirmedAfter != nil && b.ConfirmedAt.Before(*opts.ConfirmedAfter) {
				continue
			}
			confirmed = append(confirmed, b)
		case FeedStatusCancelled:
			cancelled = append(cancelled, b)
		}
	}
	return confirmed, cancelled
}

// dropCancelConfirmPairs removes each cancelled booking together with one
// confirmed booking sharing (item, name, phone). Pairing is one-to-one.
func dropCancelConfirmPairs(confirmed, cancelled []FeedBooking) ([]FeedBooking, []FeedBooking, int) {
	pairedConfirmed := make(map[int]bool)
	keptCancelled := cancelled[:0]
	pairs := 0

	for _, c := range cancelled {
		matched := -1
		for j, b := range confirmed {
			if pairedConfirmed[j] {
				continue
			}
			if c.ItemID == b.ItemID && c.Name == b.Name && c.Phone == b.Phone {
				matched = j
				break
			}
		}
		if matched >= 0 {
			pairedConfirmed[matched] = true
			pairs++
			continue
		}
		keptCancelled = append(keptCancelled, c)
	}

	keptConfirmed := make([]FeedBooking, 0, len(confirmed))
	for j, b := range confirmed {
		if !pairedConfirmed[j] {
			keptConfirmed = append(keptConfirmed, b)
		}
	}
	return keptConfirmed, keptCancelled, pairs
}

// detectMultiBookings flags every booking id belonging to a (name, phone)
// group with more than one distinct id. Those guests are legitimate repeat
// bookers and must be matched by booking id, never by phone.
func detectMultiBookings(confirmed []FeedBooking) map[string]bool {
	groups := make(map[string]map[string]bool)
	for _, b := range confirmed {
		key := b.Name + "_" + b.Phone
		if groups[key] == nil {
			groups[key] = make(map[string]bool)
		}
		groups[key][b.BookingID] = true
	}

	multi := make(map[string]bool)
	for _, ids := range groups {
		if len(ids) > 1 {
			for id := range ids {
				multi[id] = true
			}
		}
	}
	return multi
}

func matchesOccupied(b FeedBooking, occupied []models.Reservation, multiIDs map[string]bool) bool {
	if multiIDs[b.BookingID] {
		for i := range occupied {
			r := &occupied[i]
			if r.Status == models.StatusCancelled {
				continue
			}
			if r.ExternalID != nil && *r.ExternalID == b.BookingID {
				return true
			}
		}
		return false
	}

	visitorPhone := ""
	if b.VisitorName != "" {
		visitorPhone = b.VisitorPhone
	}
	for i := range occupied {
		r := &occupied[i]
		if r.Status == models.StatusCancelled {
			continue
		}
		for _, stored := range []string{r.Phone, r.VisitorPhone} {
			if stored == "" {
				continue
			}
			if stored == b.Phone || (visitorPhone != "" && stored == visitorPhone) {
				return true
			}
		}
	}
	return false
}

// findCancellationTarget picks the stored row a cancellation retires. The
// external booking id is authoritative: if any row carries the cancelled
// id, that row is the target or, when it is manual or already cancelled,
// there is no target at all. The phone fallback covers feeds that recycle
// ids across edits, and never applies to multi-booking rows, whose phone
// is shared across distinct stays.
func findCancellationTarget(c FeedBooking, occupied []models.Reservation) *models.Reservation {
	for i := range occupied {
		r := &occupied[i]
		if r.ExternalID != nil && *r.ExternalID == c.BookingID {
			if retirable(r) {
				return r
			}
			return nil
		}
	}

	phone := c.ContactPhone()
	if phone == "" {
		return nil
	}
	for i := range occupied {
		r := &occupied[i]
		if !retirable(r) || r.IsMultiBooking {
			continue
		}
		if r.Phone == phone || r.VisitorPhone == phone {
			return r
		}
	}
	return nil
}

func retirable(r *models.Reservation) bool {
	return r.Source == models.SourceExternal && r.Status != models.StatusCancelled
}

func (s *ReconcileService) buildReservation(b FeedBooking, date string, poolPos int, multi bool, capacities map[string]capacityEntry) models.Reservation {
	externalID := b.BookingID
	res := models.Reservation{
		ExternalID:     &externalID,
		Source:         models.SourceExternal,
		GuestName:      b.Name,
		VisitorName:    b.VisitorName,
		Phone:          b.Phone,
		VisitorPhone:   b.VisitorPhone,
		Date:           date,
		Status:         models.StatusConfirmed,
		PartySize:      occupancyFor(b, capacities),
		RawUnitCount:   b.UnitCount,
		PoolPosition:   poolPos,
		IsMultiBooking: multi,
		Gender:         b.Gender,
	}
	if entry, ok := capacities[b.ItemID]; ok {
		res.RoomTypeHint = entry.typeName
		if entry.dormGender != "" {
			res.Gender = entry.dormGender
		}
	}
	return res
}

type capacityEntry struct {
	typeName   string
	maxGuests  int
	dormGender string
}

func (s *ReconcileService) capacityByItem() (map[string]capacityEntry, error) {
	var types []models.RoomType
	if err := s.DB.Where("external_item_id <> ''").Find(&types).Error; err != nil {
		return nil, err
	}
	out := make(map[string]capacityEntry, len(types))
	for _, t := range types {
		out[t.ExternalItemID] = capacityEntry{typeName: t.TypeName, maxGuests: t.MaxGuests, dormGender: t.DormGender}
	}
	return out, nil
}

// occupancyFor derives head count: explicit per-option count wins, a single
// raw unit defaults to the room type's capacity, anything else is the raw
// unit count itself.
func occupancyFor(b FeedBooking, capacities map[string]capacityEntry) int {
	if len(b.OptionCounts) > 0 {
		return b.OptionCounts[0]
	}
	if b.UnitCount == 1 {
		if entry, ok := capacities[b.ItemID]; ok && entry.maxGuests > 0 {
			return entry.maxGuests
		}
	}
	return b.UnitCount
}

// StartAutoSync runs incremental reconciliation for today on a fixed
// interval until ctx is cancelled. The wall clock is read only here, never
// inside the merge itself.
func (s *ReconcileService) StartAutoSync(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			date := now.Format("2006-01-02")
			since := now.Add(-window)
			if _, err := s.Reconcile(ctx, date, ReconcileOptions{ConfirmedAfter: &since}); err != nil {
				log.Printf("auto sync failed for %s: %v", date, err)
			}
		}
	}
}
