package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservation status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Reservation sources.
const (
	SourceExternal = "external"
	SourceManual   = "manual"
)

// NotificationKind identifies one kind of guest SMS. Sent kinds are recorded
// per reservation as an append-only set.
type NotificationKind string

const (
	KindRoomGuide  NotificationKind = "room_guide"
	KindPartyGuide NotificationKind = "party_guide"
	KindUpsell     NotificationKind = "upsell"
)

// TagPartyOnly marks guests attending only the party program, holding no room.
const TagPartyOnly = "party-only"

// TagUpsell marks guests owed an upsell follow-up message.
const TagUpsell = "needs-upsell-followup"

// Placement is the derived classification of a reservation for a day.
// Exactly one of the three holds for every non-cancelled reservation.
type Placement string

const (
	PlacementRoomAssigned Placement = "room_assigned"
	PlacementUnassigned   Placement = "unassigned"
	PlacementPartyOnly    Placement = "party_only"
)

type Reservation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Provenance. ExternalID is set only for source=external; manual rows
	// must never be silently overwritten by reconciliation.
	ExternalID *string `gorm:"column:external_id;size:100;index" json:"externalId,omitempty"`
	Source     string  `gorm:"column:source;size:20;default:manual" json:"source"`

	GuestName    string `gorm:"column:guest_name;size:100" json:"guestName"`
	Phone        string `gorm:"column:phone;size:20;index" json:"phone"`
	VisitorName  string `gorm:"column:visitor_name;size:100" json:"visitorName,omitempty"`
	VisitorPhone string `gorm:"column:visitor_phone;size:20" json:"visitorPhone,omitempty"`

	Date   string `gorm:"column:date;size:10;index;uniqueIndex:idx_day_room" json:"date"` // YYYY-MM-DD
	Time   string `gorm:"column:time;size:5" json:"time,omitempty"`                       // HH:MM
	Status string `gorm:"column:status;size:20;default:pending" json:"status"`

	PartySize         int    `gorm:"column:party_size;default:0" json:"partySize"`
	PartyParticipants int    `gorm:"column:party_participants;default:0" json:"partyParticipants"`
	Gender            string `gorm:"column:gender;size:10" json:"gender,omitempty"`

	// Placement. RoomID nil means unassigned or party-only; the unique index
	// on (date, room_id) guarantees one occupant per room per day.
	RoomID       *uint  `gorm:"column:room_id;uniqueIndex:idx_day_room" json:"roomId,omitempty"`
	Room         Room   `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	RoomTypeHint string `gorm:"column:room_type_hint;size:50" json:"roomTypeHint,omitempty"`

	// PoolPosition orders the unassigned pool by arrival; assigned and
	// party-only entries keep the position they were inserted at.
	PoolPosition int `gorm:"column:pool_position;default:0" json:"poolPosition"`

	RawUnitCount   int  `gorm:"column:raw_unit_count;default:0" json:"rawUnitCount"`
	IsMultiBooking bool `gorm:"column:is_multi_booking;default:false" json:"isMultiBooking"`

	Tags      datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`
	SentKinds datatypes.JSON `gorm:"column:sent_kinds" json:"sentKinds,omitempty"`

	Passcode string `gorm:"column:passcode;size:10" json:"passcode,omitempty"`
}

// ---------------------------
// JSON set helpers
// ---------------------------

func decodeStringSet(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeStringSet(values []string) datatypes.JSON {
	b, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

// TagList returns the semantic tags stored on the reservation.
func (r *Reservation) TagList() []string {
	return decodeStringSet(r.Tags)
}

func (r *Reservation) HasTag(tag string) bool {
	for _, t := range r.TagList() {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag if absent. Returns true when the set changed.
func (r *Reservation) AddTag(tag string) bool {
	if r.HasTag(tag) {
		return false
	}
	r.Tags = encodeStringSet(append(r.TagList(), tag))
	return true
}

// RemoveTag drops tag if present. Returns true when the set changed.
func (r *Reservation) RemoveTag(tag string) bool {
	tags := r.TagList()
	out := tags[:0]
	removed := false
	for _, t := range tags {
		if t == tag {
			removed = true
			continue
		}
		out = append(out, t)
	}
	if removed {
		r.Tags = encodeStringSet(out)
	}
	return removed
}

// SetTagList replaces the whole tag set, dropping blanks and duplicates.
func (r *Reservation) SetTagList(tags []string) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	r.Tags = encodeStringSet(out)
}

// SentKindList returns the notification kinds already delivered.
func (r *Reservation) SentKindList() []NotificationKind {
	raw := decodeStringSet(r.SentKinds)
	kinds := make([]NotificationKind, 0, len(raw))
	for _, k := range raw {
		kinds = append(kinds, NotificationKind(k))
	}
	return kinds
}

func (r *Reservation) HasSent(kind NotificationKind) bool {
	for _, k := range r.SentKindList() {
		if k == kind {
			return true
		}
	}
	return false
}

// MarkSent records kind as delivered. Adding an already-present kind is a
// no-op, so repeated dispatch runs never duplicate markers.
func (r *Reservation) MarkSent(kind NotificationKind) bool {
	if r.HasSent(kind) {
		return false
	}
	raw := decodeStringSet(r.SentKinds)
	r.SentKinds = encodeStringSet(append(raw, string(kind)))
	return true
}

// ---------------------------
// Derived placement
// ---------------------------

// PlacementState derives the partition bucket: a set room reference wins over
// any stored tag, party-only requires the tag with no room, everything else
// is unassigned.
func (r *Reservation) PlacementState() Placement {
	if r.RoomID != nil {
		return PlacementRoomAssigned
	}
	if r.HasTag(TagPartyOnly) {
		return PlacementPartyOnly
	}
	return PlacementUnassigned
}

// ContactPhone returns the number SMS goes to; the visitor phone is
// authoritative when a delegate checks in.
func (r *Reservation) ContactPhone() string {
	if r.VisitorPhone != "" {
		return r.VisitorPhone
	}
	return r.Phone
}

// DisplayName is the guest name with the visitor appended in brackets,
// matching how imported entries are labeled.
func (r *Reservation) DisplayName() string {
	if r.VisitorName != "" {
		return r.GuestName + "[" + r.VisitorName + "]"
	}
	return r.GuestName
}
