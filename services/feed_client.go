// services/feed_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"guesthouse-backend/utils"
)

// Booking feed status codes.
const (
	FeedStatusConfirmed = "RC03"
	FeedStatusCancelled = "RC04"
)

// FeedBooking is one raw record from the external reservation platform.
type FeedBooking struct {
	BookingID    string
	ItemID       string // room-type identifier as the platform knows it
	Name         string
	Phone        string
	VisitorName  string
	VisitorPhone string
	StatusCode   string
	StartDate    string // YYYY-MM-DD
	EndDate      string // YYYY-MM-DD
	ConfirmedAt  time.Time
	UnitCount    int
	OptionCounts []int
	Gender       string
}

// BookingFeed is the external reservation platform. Implementations must
// respect ctx for timeouts; callers treat a fetch as one blocking call.
type BookingFeed interface {
	FetchBookings(ctx context.Context, date string) ([]FeedBooking, error)
}

// ---------------------------
// HTTP implementation
// ---------------------------

type feedWireRecord struct {
	BookingID         json.Number `json:"bookingId"`
	BizItemID         json.Number `json:"bizItemId"`
	Name              string      `json:"name"`
	Phone             string      `json:"phone"`
	VisitorName       string      `json:"visitorName"`
	VisitorPhone      string      `json:"visitorPhone"`
	BookingStatusCode string      `json:"bookingStatusCode"`
	StartDate         string      `json:"startDate"`
	EndDate           string      `json:"endDate"`
	ConfirmedDateTime string      `json:"confirmedDateTime"`
	BookingCount      int         `json:"bookingCount"`
	Gender            string      `json:"gender"`
	BookingOptionJSON []struct {
		BookingCount int `json:"bookingCount"`
	} `json:"bookingOptionJson"`
}

// HTTPBookingFeed queries the partner booking API by date window.
type HTTPBookingFeed struct {
	BaseURL    string
	BusinessID string
	Cookie     string
	Client     *http.Client
}

func NewHTTPBookingFeed() *HTTPBookingFeed {
	return &HTTPBookingFeed{
		BaseURL:    utils.EnvOrDefault("FEED_BASE_URL", "https://partner.booking.naver.com"),
		BusinessID: utils.EnvOrDefault("FEED_BUSINESS_ID", ""),
		Cookie:     utils.EnvOrDefault("FEED_COOKIE", ""),
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPBookingFeed) FetchBookings(ctx context.Context, date string) ([]FeedBooking, error) {
	url := fmt.Sprintf(
		"%s/api/businesses/%s/bookings?bizItemTypes=STANDARD&dateFilter=USEDATE&startDateTime=%sT00%%3A00%%3A00.000Z&endDateTime=%sT00%%3A00%%3A00.000Z&orderByStartDate=ASC&page=0&size=200",
		f.BaseURL, f.BusinessID, date, date,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.Cookie != "" {
		req.Header.Set("Cookie", f.Cookie)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed HTTP error %d: %s", resp.StatusCode, string(body))
	}

	// Decode record by record so one malformed entry never kills the run.
	var rawItems []json.RawMessage
	if err := json.Unmarshal(body, &rawItems); err != nil {
		return nil, fmt.Errorf("feed JSON parse error: %w", err)
	}

	bookings := make([]FeedBooking, 0, len(rawItems))
	for i, raw := range rawItems {
		var rec feedWireRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("skipping malformed feed record %d: %v", i, err)
			continue
		}
		bookings = append(bookings, rec.toBooking())
	}
	return bookings, nil
}

func (r feedWireRecord) toBooking() FeedBooking {
	b := FeedBooking{
		BookingID:    r.BookingID.String(),
		ItemID:       r.BizItemID.String(),
		Name:         r.Name,
		Phone:        utils.NormalizePhone(r.Phone),
		VisitorName:  r.VisitorName,
		VisitorPhone: utils.NormalizePhone(r.VisitorPhone),
		StatusCode:   r.BookingStatusCode,
		StartDate:    shortDate(r.StartDate),
		EndDate:      shortDate(r.EndDate),
		UnitCount:    r.BookingCount,
		Gender:       r.Gender,
	}
	if t, err := time.Parse(time.RFC3339, r.ConfirmedDateTime); err == nil {
		b.ConfirmedAt = t
	}
	for _, opt := range r.BookingOptionJSON {
		b.OptionCounts = append(b.OptionCounts, opt.BookingCount)
	}
	return b
}

func shortDate(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

// IsMalformed reports whether the record is unusable for reconciliation:
// no identity to match on and no way to contact the guest.
func (b FeedBooking) IsMalformed() bool {
	if b.BookingID == "" || b.Name == "" {
		return true
	}
	return !utils.IsValidPhone(b.Phone) && !utils.IsValidPhone(b.VisitorPhone)
}

// ContactPhone mirrors the reservation rule: the visitor phone wins.
func (b FeedBooking) ContactPhone() string {
	if b.VisitorName != "" && b.VisitorPhone != "" {
		return b.VisitorPhone
	}
	return b.Phone
}
