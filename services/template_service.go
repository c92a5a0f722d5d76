// services/template_service.go
package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"guesthouse-backend/models"

	"gorm.io/gorm"
)

type TemplateService struct {
	DB *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{DB: db}
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z][a-zA-Z0-9_]*)\s*\}\}`)

func (s *TemplateService) GetAllTemplates() ([]models.MessageTemplate, error) {
	var templates []models.MessageTemplate
	err := s.DB.Order("category, `key`").Find(&templates).Error
	return templates, err
}

func (s *TemplateService) GetTemplateByKey(key string) (*models.MessageTemplate, error) {
	var tpl models.MessageTemplate
	err := s.DB.Where("`key` = ? AND active = ?", key, true).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *TemplateService) GetTemplateByID(id uint) (*models.MessageTemplate, error) {
	var tpl models.MessageTemplate
	err := s.DB.First(&tpl, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *TemplateService) CreateTemplate(tpl *models.MessageTemplate) error {
	return s.DB.Create(tpl).Error
}

func (s *TemplateService) UpdateTemplate(id uint, updates map[string]interface{}) (*models.MessageTemplate, error) {
	tpl, err := s.GetTemplateByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(tpl).Updates(updates).Error; err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *TemplateService) DeleteTemplate(id uint) error {
	result := s.DB.Delete(&models.MessageTemplate{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTemplateNotFound
	}
	return nil
}

// RenderStrict substitutes every {{var}} placeholder from vars. Any
// placeholder without a value fails the whole render; partially filled
// messages must never reach a guest.
func RenderStrict(content string, vars map[string]string) (string, error) {
	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(content, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		val, ok := vars[name]
		if !ok || val == "" {
			missing = append(missing, name)
			return m
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", models.ErrTemplateRender, strings.Join(missing, ", "))
	}
	return rendered, nil
}

// ContextFor builds the substitution variables for one reservation. Only
// facts that exist are present: a reservation without a room contributes no
// room variables, so room-dependent templates exclude it under RenderStrict.
func ContextFor(r *models.Reservation) map[string]string {
	vars := map[string]string{
		"name":  r.DisplayName(),
		"phone": r.ContactPhone(),
		"date":  r.Date,
	}
	if r.Time != "" {
		vars["time"] = r.Time
	}
	if r.PartySize > 0 {
		vars["partySize"] = strconv.Itoa(r.PartySize)
	}
	if r.PartyParticipants > 0 {
		vars["partyParticipants"] = strconv.Itoa(r.PartyParticipants)
	}
	if r.RoomID != nil && r.Room.RoomNumber != "" {
		vars["roomNumber"] = r.Room.RoomNumber
		vars["building"] = r.Room.Building
		if num := strings.TrimLeft(r.Room.RoomNumber, "AB"); num != "" {
			vars["roomNum"] = num
		}
	}
	if r.Passcode != "" {
		vars["passcode"] = r.Passcode
	}
	return vars
}
