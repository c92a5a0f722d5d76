package services

import (
	"errors"
	"testing"

	"guesthouse-backend/models"
)

func TestRenderStrict(t *testing.T) {
	tt := []struct {
		name    string
		content string
		vars    map[string]string
		want    string
		wantErr bool
	}{
		{
			name:    "all variables present",
			content: "Hi {{name}}, room {{roomNumber}}",
			vars:    map[string]string{"name": "kim", "roomNumber": "A1"},
			want:    "Hi kim, room A1",
		},
		{
			name:    "whitespace inside braces",
			content: "Hi {{ name }}!",
			vars:    map[string]string{"name": "kim"},
			want:    "Hi kim!",
		},
		{
			name:    "missing variable fails",
			content: "Code {{passcode}}#",
			vars:    map[string]string{"name": "kim"},
			wantErr: true,
		},
		{
			name:    "empty value counts as missing",
			content: "Code {{passcode}}#",
			vars:    map[string]string{"passcode": ""},
			wantErr: true,
		},
		{
			name:    "no placeholders",
			content: "Party at 19:00",
			vars:    nil,
			want:    "Party at 19:00",
		},
		{
			name:    "repeated placeholder",
			content: "{{name}} and {{name}}",
			vars:    map[string]string{"name": "kim"},
			want:    "kim and kim",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderStrict(tc.content, tc.vars)
			if tc.wantErr {
				if !errors.Is(err, models.ErrTemplateRender) {
					t.Fatalf("err = %v, want ErrTemplateRender", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestContextFor(t *testing.T) {
	roomID := uint(1)
	r := models.Reservation{
		GuestName: "kim", Phone: "01011112222", Date: testDate,
		RoomID: &roomID,
		Room:   models.Room{RoomNumber: "A3", Building: "A"},
	}
	vars := ContextFor(&r)

	if vars["name"] != "kim" || vars["phone"] != "01011112222" || vars["date"] != testDate {
		t.Errorf("base vars = %v", vars)
	}
	if vars["roomNumber"] != "A3" || vars["building"] != "A" || vars["roomNum"] != "3" {
		t.Errorf("room vars = %v", vars)
	}
	if _, ok := vars["passcode"]; ok {
		t.Error("passcode var present without a passcode")
	}

	bare := models.Reservation{GuestName: "lee", Phone: "01033334444", Date: testDate}
	vars = ContextFor(&bare)
	if _, ok := vars["roomNumber"]; ok {
		t.Error("room vars present on an unassigned reservation")
	}
}

func TestGetTemplateByKey(t *testing.T) {
	db := openTestDB(t)
	svc := NewTemplateService(db)
	seedTemplate(t, db, "welcome", "Hi {{name}}!")

	inactive := models.MessageTemplate{Key: "retired", Name: "retired", Content: "x", Active: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatal(err)
	}

	tpl, err := svc.GetTemplateByKey("welcome")
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Content != "Hi {{name}}!" {
		t.Errorf("content = %q", tpl.Content)
	}

	if _, err := svc.GetTemplateByKey("retired"); !errors.Is(err, models.ErrTemplateNotFound) {
		t.Errorf("inactive template: err = %v, want ErrTemplateNotFound", err)
	}
	if _, err := svc.GetTemplateByKey("nope"); !errors.Is(err, models.ErrTemplateNotFound) {
		t.Errorf("unknown key: err = %v, want ErrTemplateNotFound", err)
	}
}
