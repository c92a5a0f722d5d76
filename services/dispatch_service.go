// services/dispatch_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"guesthouse-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DispatchService sends one notification kind to a filtered set of
// reservations through a single gateway batch. Sent markers are written only
// after the gateway confirms, and every run leaves a CampaignLog row whether
// it succeeded or not.
type DispatchService struct {
	DB        *gorm.DB
	Gateway   SMSGateway
	Templates *TemplateService
}

func NewDispatchService(db *gorm.DB, gateway SMSGateway) *DispatchService {
	return &DispatchService{DB: db, Gateway: gateway, Templates: NewTemplateService(db)}
}

type DispatchRequest struct {
	Date        string                  `json:"date" binding:"required"`
	TemplateKey string                  `json:"templateKey" binding:"required"`
	Kind        models.NotificationKind `json:"kind" binding:"required"`
	TargetType  string                  `json:"targetType"`
	TargetValue string                  `json:"targetValue"`
	ExcludeSent bool                    `json:"excludeSent"`
}

type DispatchResult struct {
	BatchID   string   `json:"batchId"`
	Targeted  int      `json:"targeted"`
	Rendered  int      `json:"rendered"`
	Sent      int      `json:"sent"`
	Excluded  []string `json:"excluded,omitempty"`
	MessageID string   `json:"messageId,omitempty"`
}

// Run executes one dispatch. Target selection, rendering and exclusion all
// happen before the gateway call; a gateway failure leaves every sent marker
// untouched so the next run retries the same set.
func (s *DispatchService) Run(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	result := &DispatchResult{BatchID: uuid.NewString()}
	entry := &models.CampaignLog{
		BatchID:     result.BatchID,
		Kind:        req.Kind,
		TargetType:  req.TargetType,
		TargetValue: req.TargetValue,
		Date:        req.Date,
		SentAt:      time.Now(),
	}

	runErr := s.run(ctx, req, result, entry)
	if runErr != nil {
		entry.ErrorMessage = runErr.Error()
	}
	if err := s.DB.Create(entry).Error; err != nil {
		log.Printf("campaign log write failed: %v", err)
	}
	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func (s *DispatchService) run(ctx context.Context, req DispatchRequest, result *DispatchResult, entry *models.CampaignLog) error {
	tpl, err := s.Templates.GetTemplateByKey(req.TemplateKey)
	if err != nil {
		return err
	}

	targets, err := s.selectTargets(req)
	if err != nil {
		return err
	}
	result.Targeted = len(targets)
	entry.TargetCount = len(targets)

	partyTotal := partyTotalFor(targets)

	var recipients, messages []string
	var sendable []*models.Reservation
	for i := range targets {
		r := &targets[i]
		vars := ContextFor(r)
		if partyTotal > 0 {
			vars["partyTotal"] = strconv.Itoa(partyTotal)
		}
		body, err := RenderStrict(tpl.Content, vars)
		if err != nil {
			log.Printf("dispatch %s: excluding %s: %v", result.BatchID, r.DisplayName(), err)
			result.Excluded = append(result.Excluded, r.DisplayName())
			continue
		}
		recipients = append(recipients, r.ContactPhone())
		messages = append(messages, body)
		sendable = append(sendable, r)
	}
	result.Rendered = len(sendable)
	entry.FailedCount = len(result.Excluded)
	if len(sendable) == 0 {
		return nil
	}

	resp, err := s.Gateway.SendBatch(ctx, BatchRequest{
		MessageType: "SMS",
		Recipients:  recipients,
		Messages:    messages,
	})
	if err != nil {
		entry.FailedCount += len(sendable)
		return err
	}
	if resp.ResultCode != GatewayResultSuccess {
		entry.FailedCount += len(sendable)
		return fmt.Errorf("%w: result_code=%d %s", models.ErrGatewayFailure, resp.ResultCode, resp.Message)
	}

	result.MessageID = resp.MessageID
	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, r := range sendable {
			if !r.MarkSent(req.Kind) {
				continue
			}
			if err := tx.Model(r).Update("sent_kinds", r.SentKinds).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	result.Sent = len(sendable)
	entry.SentCount = len(sendable)
	entry.CompletedAt = &now
	return nil
}

// PreviewTargets resolves the target set without rendering or sending, so
// staff can check who a campaign would reach.
func (s *DispatchService) PreviewTargets(req DispatchRequest) ([]models.Reservation, error) {
	return s.selectTargets(req)
}

// selectTargets loads the date's live reservations and filters them in
// memory. Set-valued columns are JSON blobs, so predicates on tags and sent
// markers run here rather than in SQL.
func (s *DispatchService) selectTargets(req DispatchRequest) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.DB.Preload("Room").
		Where("date = ? AND status <> ?", req.Date, models.StatusCancelled).
		Order("pool_position, id").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.Reservation, 0, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		if !s.targetMatches(r, req.TargetType, req.TargetValue) {
			continue
		}
		if !kindApplies(r, req.Kind) {
			continue
		}
		if req.ExcludeSent && r.HasSent(req.Kind) {
			continue
		}
		if r.ContactPhone() == "" {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *DispatchService) targetMatches(r *models.Reservation, targetType, targetValue string) bool {
	switch targetType {
	case models.TargetTag:
		return r.HasTag(targetValue)
	case models.TargetRoomAssigned:
		return r.PlacementState() == models.PlacementRoomAssigned
	case models.TargetPartyOnly:
		return r.PlacementState() == models.PlacementPartyOnly
	default:
		return true
	}
}

// kindApplies is the per-kind eligibility predicate, independent of the
// caller's target filter.
func kindApplies(r *models.Reservation, kind models.NotificationKind) bool {
	switch kind {
	case models.KindRoomGuide:
		return r.PlacementState() == models.PlacementRoomAssigned
	case models.KindPartyGuide:
		return r.PartyParticipants > 0 || r.HasTag(models.TagPartyOnly)
	case models.KindUpsell:
		return r.HasTag(models.TagUpsell)
	default:
		return true
	}
}

// partyTotalFor sums the party head count across the batch and rounds up to
// the next ten, plus ten for the hosts.
func partyTotalFor(targets []models.Reservation) int {
	sum := 0
	for i := range targets {
		sum += targets[i].PartyParticipants
	}
	if sum == 0 {
		return 0
	}
	return int(math.Ceil(float64(sum)/10))*10 + 10
}
