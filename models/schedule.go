package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Schedule cadence types.
const (
	ScheduleDaily    = "daily"
	ScheduleWeekly   = "weekly"
	ScheduleHourly   = "hourly"
	ScheduleInterval = "interval"
)

// Target selection types for dispatch runs.
const (
	TargetAll          = "all"
	TargetTag          = "tag"
	TargetRoomAssigned = "room_assigned"
	TargetPartyOnly    = "party_only"
)

// Date filter values understood by the scheduler.
const (
	DateFilterToday    = "today"
	DateFilterTomorrow = "tomorrow"
)

// Schedule is a recurring dispatch trigger. Mutated only by administrative
// action; the scheduler reads it, fires the associated dispatch, and updates
// LastRun/NextRun.
type Schedule struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name       string          `gorm:"column:name;size:100" json:"name"`
	TemplateID uint            `gorm:"column:template_id" json:"templateId"`
	Template   MessageTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`

	ScheduleType    string `gorm:"column:schedule_type;size:20" json:"scheduleType" validate:"required,oneof=daily weekly hourly interval"`
	Hour            int    `gorm:"column:hour;default:0" json:"hour" validate:"min=0,max=23"`
	Minute          int    `gorm:"column:minute;default:0" json:"minute" validate:"min=0,max=59"`
	DaysOfWeek      string `gorm:"column:days_of_week;size:50" json:"daysOfWeek,omitempty"` // csv: mon,tue,...
	IntervalMinutes int    `gorm:"column:interval_minutes;default:0" json:"intervalMinutes,omitempty"`
	Timezone        string `gorm:"column:timezone;size:50;default:Asia/Seoul" json:"timezone"`

	TargetType  string           `gorm:"column:target_type;size:30" json:"targetType" validate:"required,oneof=all tag room_assigned party_only"`
	TargetValue string           `gorm:"column:target_value;size:100" json:"targetValue,omitempty"`
	DateFilter  string           `gorm:"column:date_filter;size:10" json:"dateFilter,omitempty"` // today, tomorrow or YYYY-MM-DD
	Kind        NotificationKind `gorm:"column:kind;size:30" json:"kind"`
	ExcludeSent bool             `gorm:"column:exclude_sent;default:true" json:"excludeSent"`

	Active  bool       `gorm:"column:active;default:true" json:"active"`
	LastRun *time.Time `gorm:"column:last_run" json:"lastRun,omitempty"`
	NextRun *time.Time `gorm:"column:next_run" json:"nextRun,omitempty"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func (s *Schedule) weekdaySet() map[time.Weekday]bool {
	set := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s.DaysOfWeek, ",") {
		if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(part))]; ok {
			set[wd] = true
		}
	}
	return set
}

// Location resolves the schedule's timezone, falling back to Asia/Seoul.
func (s *Schedule) Location() *time.Location {
	name := s.Timezone
	if name == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate surfaces impossible definitions before the schedule ever fires.
func (s *Schedule) Validate() error {
	if s.TemplateID == 0 {
		return ErrScheduleMisconfigured
	}
	if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
		return ErrScheduleMisconfigured
	}
	switch s.ScheduleType {
	case ScheduleDaily, ScheduleHourly:
	case ScheduleWeekly:
		if len(s.weekdaySet()) == 0 {
			return ErrScheduleMisconfigured
		}
	case ScheduleInterval:
		if s.IntervalMinutes <= 0 {
			return ErrScheduleMisconfigured
		}
	default:
		return ErrScheduleMisconfigured
	}
	switch s.TargetType {
	case TargetAll, TargetRoomAssigned, TargetPartyOnly:
	case TargetTag:
		if s.TargetValue == "" {
			return ErrScheduleMisconfigured
		}
	default:
		return ErrScheduleMisconfigured
	}
	return nil
}

// NextRunAfter computes the deterministic next firing time strictly after t.
func (s *Schedule) NextRunAfter(t time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	loc := s.Location()
	now := t.In(loc)

	switch s.ScheduleType {
	case ScheduleDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil

	case ScheduleWeekly:
		days := s.weekdaySet()
		for i := 0; i < 8; i++ {
			day := now.AddDate(0, 0, i)
			next := time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, loc)
			if days[next.Weekday()] && next.After(now) {
				return next, nil
			}
		}
		return time.Time{}, ErrScheduleMisconfigured

	case ScheduleHourly:
		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), s.Minute, 0, 0, loc)
		if !next.After(now) {
			next = next.Add(time.Hour)
		}
		return next, nil

	case ScheduleInterval:
		return now.Add(time.Duration(s.IntervalMinutes) * time.Minute), nil
	}
	return time.Time{}, ErrScheduleMisconfigured
}

// TargetDate resolves the schedule's date filter against the given now.
// Returns "" when no date filter restricts the run.
func (s *Schedule) TargetDate(now time.Time) string {
	switch s.DateFilter {
	case DateFilterToday:
		return now.In(s.Location()).Format("2006-01-02")
	case DateFilterTomorrow:
		return now.In(s.Location()).AddDate(0, 0, 1).Format("2006-01-02")
	case "":
		return ""
	default:
		if len(s.DateFilter) == 10 {
			return s.DateFilter
		}
		return ""
	}
}
