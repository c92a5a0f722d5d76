// services/schedule_service.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"guesthouse-backend/models"

	"gorm.io/gorm"
)

// ScheduleService stores campaign schedules and fires the due ones through
// the same dispatch path a manual run uses.
type ScheduleService struct {
	DB       *gorm.DB
	Dispatch *DispatchService
}

func NewScheduleService(db *gorm.DB, dispatch *DispatchService) *ScheduleService {
	return &ScheduleService{DB: db, Dispatch: dispatch}
}

func (s *ScheduleService) GetAllSchedules() ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := s.DB.Preload("Template").Order("id").Find(&schedules).Error
	return schedules, err
}

func (s *ScheduleService) GetScheduleByID(id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.DB.Preload("Template").First(&schedule, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (s *ScheduleService) CreateSchedule(schedule *models.Schedule) error {
	next, err := schedule.NextRunAfter(time.Now())
	if err != nil {
		return err
	}
	schedule.NextRun = &next
	return s.DB.Create(schedule).Error
}

// UpdateSchedule applies a partial edit. An edit that would leave the
// schedule unable to fire is rolled back whole.
func (s *ScheduleService) UpdateSchedule(id uint, updates map[string]interface{}) (*models.Schedule, error) {
	schedule, err := s.GetScheduleByID(id)
	if err != nil {
		return nil, err
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(schedule).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(schedule, id).Error; err != nil {
			return err
		}
		next, err := schedule.NextRunAfter(time.Now())
		if err != nil {
			return err
		}
		schedule.NextRun = &next
		return tx.Model(schedule).Update("next_run", next).Error
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *ScheduleService) DeleteSchedule(id uint) error {
	result := s.DB.Delete(&models.Schedule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrScheduleNotFound
	}
	return nil
}

func (s *ScheduleService) SetActive(id uint, active bool) (*models.Schedule, error) {
	schedule, err := s.GetScheduleByID(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"active": active}
	if active {
		next, err := schedule.NextRunAfter(time.Now())
		if err != nil {
			return nil, err
		}
		schedule.NextRun = &next
		updates["next_run"] = next
	}
	if err := s.DB.Model(schedule).Updates(updates).Error; err != nil {
		return nil, err
	}
	schedule.Active = active
	return schedule, nil
}

// Preview returns the next n fire times without touching stored state.
func (s *ScheduleService) Preview(id uint, n int) ([]time.Time, error) {
	schedule, err := s.GetScheduleByID(id)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, 0, n)
	cursor := time.Now()
	for i := 0; i < n; i++ {
		next, err := schedule.NextRunAfter(cursor)
		if err != nil {
			return nil, err
		}
		times = append(times, next)
		cursor = next
	}
	return times, nil
}

// Execute fires one schedule immediately and advances its run markers.
func (s *ScheduleService) Execute(ctx context.Context, id uint) (*DispatchResult, error) {
	schedule, err := s.GetScheduleByID(id)
	if err != nil {
		return nil, err
	}
	return s.fire(ctx, schedule, time.Now())
}

func (s *ScheduleService) fire(ctx context.Context, schedule *models.Schedule, now time.Time) (*DispatchResult, error) {
	tpl, err := NewTemplateService(s.DB).GetTemplateByID(schedule.TemplateID)
	if err != nil {
		return nil, err
	}

	date := schedule.TargetDate(now)
	if date == "" {
		date = now.In(schedule.Location()).Format("2006-01-02")
	}

	result, runErr := s.Dispatch.Run(ctx, DispatchRequest{
		Date:        date,
		TemplateKey: tpl.Key,
		Kind:        schedule.Kind,
		TargetType:  schedule.TargetType,
		TargetValue: schedule.TargetValue,
		ExcludeSent: schedule.ExcludeSent,
	})

	next, nextErr := schedule.NextRunAfter(now)
	updates := map[string]interface{}{"last_run": now}
	if nextErr == nil {
		updates["next_run"] = next
		schedule.NextRun = &next
	}
	if err := s.DB.Model(schedule).Updates(updates).Error; err != nil {
		log.Printf("schedule %d: run marker update failed: %v", schedule.ID, err)
	}
	schedule.LastRun = &now
	return result, runErr
}

// RunDue fires every active schedule whose next run is at or before now.
// One failing schedule never blocks the rest.
func (s *ScheduleService) RunDue(ctx context.Context, now time.Time) int {
	var due []models.Schedule
	err := s.DB.Where("active = ? AND next_run IS NOT NULL AND next_run <= ?", true, now).Find(&due).Error
	if err != nil {
		log.Printf("schedule sweep failed: %v", err)
		return 0
	}

	fired := 0
	for i := range due {
		schedule := due[i]
		if _, err := s.fire(ctx, &schedule, now); err != nil {
			log.Printf("schedule %d (%s) failed: %v", schedule.ID, schedule.Name, err)
			continue
		}
		fired++
	}
	return fired
}

// Start sweeps for due schedules once a minute until ctx is cancelled.
func (s *ScheduleService) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.RunDue(ctx, now)
		}
	}
}
