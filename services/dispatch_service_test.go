package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"guesthouse-backend/models"
)

func newDispatchFixture(t *testing.T) (*DispatchService, *fakeGateway) {
	t.Helper()
	db := openTestDB(t)
	gateway := &fakeGateway{response: BatchResponse{ResultCode: GatewayResultSuccess, MessageID: "msg-1", SuccessCount: 1}}
	return NewDispatchService(db, gateway), gateway
}

func TestDispatchSendsAndMarks(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "welcome", "Hi {{name}}, see you on {{date}}!")
	room := seedRoom(t, db, "A1", "A", 1)
	seedReservation(t, db, models.Reservation{
		GuestName: "kim", Phone: "01011112222", RoomID: &room.ID, Passcode: "7004", PoolPosition: 1,
	})

	result, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "welcome", Kind: models.KindRoomGuide, ExcludeSent: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Sent != 1 || result.Targeted != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(gateway.batches) != 1 {
		t.Fatalf("gateway called %d times, want exactly one batch", len(gateway.batches))
	}
	batch := gateway.batches[0]
	if len(batch.Recipients) != 1 || batch.Recipients[0] != "01011112222" {
		t.Errorf("recipients = %v", batch.Recipients)
	}
	if !strings.Contains(batch.Messages[0], "kim") {
		t.Errorf("message not rendered: %q", batch.Messages[0])
	}

	var row models.Reservation
	if err := db.First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if !row.HasSent(models.KindRoomGuide) {
		t.Error("sent marker missing after successful dispatch")
	}
}

func TestDispatchIsIdempotentWithExcludeSent(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "welcome", "Hi {{name}}!")
	room := seedRoom(t, db, "A1", "A", 1)
	seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", RoomID: &room.ID, PoolPosition: 1})

	req := DispatchRequest{Date: testDate, TemplateKey: "welcome", Kind: models.KindRoomGuide, ExcludeSent: true}
	if _, err := svc.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	result, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Targeted != 0 || result.Sent != 0 {
		t.Fatalf("second run: %+v, want empty target set", result)
	}
	if len(gateway.batches) != 1 {
		t.Errorf("gateway called again for an already-notified guest")
	}
}

func TestDispatchStrictRenderExcludes(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "room-guide", "Room {{roomNumber}}, code {{passcode}}#")
	room := seedRoom(t, db, "A1", "A", 1)
	seedReservation(t, db, models.Reservation{
		GuestName: "kim", Phone: "01011112222", RoomID: &room.ID, Passcode: "7004", PoolPosition: 1,
	})
	// Assigned but passcode missing: must be excluded, not sent a broken text.
	roomB := seedRoom(t, db, "B1", "B", 2)
	seedReservation(t, db, models.Reservation{
		GuestName: "lee", Phone: "01033334444", RoomID: &roomB.ID, PoolPosition: 2,
	})

	result, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "room-guide", Kind: models.KindRoomGuide,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Targeted != 2 || result.Sent != 1 {
		t.Fatalf("result = %+v, want 1 of 2 sent", result)
	}
	if len(result.Excluded) != 1 {
		t.Fatalf("Excluded = %v", result.Excluded)
	}
	if got := gateway.batches[0].Recipients; len(got) != 1 || got[0] != "01011112222" {
		t.Errorf("recipients = %v", got)
	}

	var lee models.Reservation
	if err := db.Where("guest_name = ?", "lee").First(&lee).Error; err != nil {
		t.Fatal(err)
	}
	if lee.HasSent(models.KindRoomGuide) {
		t.Error("excluded guest must not be marked sent")
	}
}

func TestDispatchGatewayFailureLeavesMarkers(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	gateway.response = BatchResponse{ResultCode: 0, Message: "quota exceeded"}
	db := svc.DB
	seedTemplate(t, db, "welcome", "Hi {{name}}!")
	room := seedRoom(t, db, "A1", "A", 1)
	seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", RoomID: &room.ID, PoolPosition: 1})

	_, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "welcome", Kind: models.KindRoomGuide,
	})
	if !errors.Is(err, models.ErrGatewayFailure) {
		t.Fatalf("err = %v, want ErrGatewayFailure", err)
	}

	var row models.Reservation
	if err := db.First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.HasSent(models.KindRoomGuide) {
		t.Error("marker written despite gateway failure")
	}

	var entry models.CampaignLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatal("campaign log missing after failed run:", err)
	}
	if entry.ErrorMessage == "" || entry.CompletedAt != nil {
		t.Errorf("failed run log = %+v", entry)
	}
}

func TestDispatchAlwaysWritesCampaignLog(t *testing.T) {
	svc, _ := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "welcome", "Hi {{name}}!")
	room := seedRoom(t, db, "A1", "A", 1)
	seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", RoomID: &room.ID, PoolPosition: 1})

	result, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "welcome", Kind: models.KindRoomGuide,
	})
	if err != nil {
		t.Fatal(err)
	}

	var entry models.CampaignLog
	if err := db.Where("batch_id = ?", result.BatchID).First(&entry).Error; err != nil {
		t.Fatal(err)
	}
	if entry.SentCount != 1 || entry.TargetCount != 1 || entry.CompletedAt == nil {
		t.Errorf("log entry = %+v", entry)
	}
	if entry.Kind != models.KindRoomGuide {
		t.Errorf("log kind = %q", entry.Kind)
	}
}

func TestDispatchKindPredicates(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "party", "Party tonight, {{name}}!")
	room := seedRoom(t, db, "A1", "A", 1)

	// Room guest without party participation: not a party-guide target.
	seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", RoomID: &room.ID, PoolPosition: 1})
	// Party-only guest.
	partyOnly := models.Reservation{GuestName: "lee", Phone: "01033334444", PoolPosition: 2}
	partyOnly.AddTag(models.TagPartyOnly)
	seedReservation(t, db, partyOnly)
	// Room guest with party heads.
	roomB := seedRoom(t, db, "B1", "B", 2)
	seedReservation(t, db, models.Reservation{GuestName: "park", Phone: "01055556666", RoomID: &roomB.ID, PartyParticipants: 2, PoolPosition: 3})

	result, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "party", Kind: models.KindPartyGuide,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Sent != 2 {
		t.Fatalf("Sent = %d, want the party-only and participating guests", result.Sent)
	}
	recipients := gateway.batches[0].Recipients
	for _, r := range recipients {
		if r == "01011112222" {
			t.Error("non-participant received the party guide")
		}
	}
}

func TestDispatchUpsellTagTarget(t *testing.T) {
	svc, _ := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "upsell", "Hi {{name}}, join tonight!")

	tagged := models.Reservation{GuestName: "kim", Phone: "01011112222", PoolPosition: 1}
	tagged.AddTag(models.TagUpsell)
	seedReservation(t, db, tagged)
	seedReservation(t, db, models.Reservation{GuestName: "lee", Phone: "01033334444", PoolPosition: 2})

	result, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "upsell", Kind: models.KindUpsell,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Sent != 1 {
		t.Fatalf("Sent = %d, want only the tagged guest", result.Sent)
	}
}

func TestDispatchPartyTotalVariable(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "party", "{{name}}: {{partyTotal}} bottles ready")

	a := models.Reservation{GuestName: "kim", Phone: "01011112222", PartyParticipants: 7, PoolPosition: 1}
	a.AddTag(models.TagPartyOnly)
	seedReservation(t, db, a)
	b := models.Reservation{GuestName: "lee", Phone: "01033334444", PartyParticipants: 6, PoolPosition: 2}
	b.AddTag(models.TagPartyOnly)
	seedReservation(t, db, b)

	_, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "party", Kind: models.KindPartyGuide,
	})
	if err != nil {
		t.Fatal(err)
	}
	// 13 heads -> rounded to 20, plus 10 for the hosts.
	for _, msg := range gateway.batches[0].Messages {
		if !strings.Contains(msg, "30") {
			t.Errorf("message %q missing party total 30", msg)
		}
	}
}

func TestPreviewTargetsDoesNotSend(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	db := svc.DB
	room := seedRoom(t, db, "A1", "A", 1)
	seedReservation(t, db, models.Reservation{GuestName: "kim", Phone: "01011112222", RoomID: &room.ID, PoolPosition: 1})
	seedReservation(t, db, models.Reservation{GuestName: "lee", Phone: "01033334444", PoolPosition: 2})

	targets, err := svc.PreviewTargets(DispatchRequest{
		Date: testDate, Kind: models.KindRoomGuide,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].GuestName != "kim" {
		t.Fatalf("targets = %+v, want only the assigned guest", targets)
	}
	if len(gateway.batches) != 0 {
		t.Error("preview must not call the gateway")
	}

	var logs int64
	db.Model(&models.CampaignLog{}).Count(&logs)
	if logs != 0 {
		t.Error("preview must not write campaign logs")
	}
}

func TestDispatchCancelledExcluded(t *testing.T) {
	svc, gateway := newDispatchFixture(t)
	db := svc.DB
	seedTemplate(t, db, "welcome", "Hi {{name}}!")
	room := seedRoom(t, db, "A1", "A", 1)
	seedReservation(t, db, models.Reservation{
		GuestName: "kim", Phone: "01011112222", RoomID: &room.ID,
		Status: models.StatusCancelled, PoolPosition: 1,
	})

	result, err := svc.Run(context.Background(), DispatchRequest{
		Date: testDate, TemplateKey: "welcome", Kind: models.KindRoomGuide,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Targeted != 0 || len(gateway.batches) != 0 {
		t.Fatalf("cancelled reservation targeted: %+v", result)
	}
}
