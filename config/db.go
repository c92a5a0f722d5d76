package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"guesthouse-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "guesthouse_db")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	)
	return dsn, nil
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}
	DB = db

	// AutoMigrate in parent->child order
	if err := DB.AutoMigrate(
		&models.RoomType{},
		&models.Room{},
		&models.Reservation{},
		&models.MessageTemplate{},
		&models.Schedule{},
		&models.CampaignLog{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}

// SeedDatabase inserts the baseline room inventory and message templates on
// an empty database. Every block is count-guarded so restarts never
// duplicate rows.
func SeedDatabase() {
	// ---------------- RoomTypes ----------------
	var rtCount int64
	DB.Model(&models.RoomType{}).Count(&rtCount)
	if rtCount == 0 {
		roomTypes := []models.RoomType{
			{TypeName: "Double", Description: "Double private room", MaxGuests: 2, ExternalItemID: envOrDefault("FEED_ITEM_DOUBLE", "")},
			{TypeName: "Family", Description: "Family private room", MaxGuests: 4, ExternalItemID: envOrDefault("FEED_ITEM_FAMILY", "")},
			{TypeName: "Dorm (F)", Description: "Female dormitory bed", MaxGuests: 1, ExternalItemID: envOrDefault("FEED_ITEM_DORM_F", ""), DormGender: "F"},
			{TypeName: "Dorm (M)", Description: "Male dormitory bed", MaxGuests: 1, ExternalItemID: envOrDefault("FEED_ITEM_DORM_M", ""), DormGender: "M"},
		}
		DB.Create(&roomTypes)
		log.Println("RoomTypes seeded")
	}

	// ---------------- Rooms ----------------
	var roomCount int64
	DB.Model(&models.Room{}).Count(&roomCount)
	if roomCount == 0 {
		var double, family models.RoomType
		DB.Where("type_name = ?", "Double").First(&double)
		DB.Where("type_name = ?", "Family").First(&family)

		rooms := make([]models.Room, 0, 12)
		order := 0
		for _, num := range []string{"A1", "A2", "A3", "A4", "A5", "A6"} {
			order++
			rooms = append(rooms, models.Room{RoomNumber: num, Building: "A", RoomTypeID: &double.ID, Active: true, DisplayOrder: order})
		}
		for _, num := range []string{"B1", "B2", "B3", "B4", "B5", "B6"} {
			order++
			rooms = append(rooms, models.Room{RoomNumber: num, Building: "B", RoomTypeID: &family.ID, Active: true, DisplayOrder: order})
		}
		if err := DB.Create(&rooms).Error; err != nil {
			log.Printf("warning: failed to seed rooms: %v", err)
		} else {
			log.Println("Rooms seeded")
		}
	}

	// ---------------- Message templates ----------------
	var tplCount int64
	DB.Model(&models.MessageTemplate{}).Count(&tplCount)
	if tplCount == 0 {
		templates := []models.MessageTemplate{
			{
				Key:      "room-guide",
				Name:     "Room guide",
				Category: "guide",
				Active:   true,
				Content:  "Hello {{name}}! Your room for {{date}} is {{roomNumber}}. Door passcode: {{passcode}}#. See you soon!",
			},
			{
				Key:      "party-guide",
				Name:     "Party guide",
				Category: "guide",
				Active:   true,
				Content:  "Hi {{name}}, the party starts at 19:00 tonight. Your group: {{partyParticipants}}. Come to the lounge!",
			},
			{
				Key:      "upsell",
				Name:     "Party invitation",
				Category: "marketing",
				Active:   true,
				Content:  "Hi {{name}}, tonight's party still has seats. Reply to this message to join!",
			},
		}
		if err := DB.Create(&templates).Error; err != nil {
			log.Printf("warning: failed to seed templates: %v", err)
		} else {
			log.Println("Message templates seeded")
		}
	}

	// ---------------- Schedules ----------------
	var schedCount int64
	DB.Model(&models.Schedule{}).Count(&schedCount)
	if schedCount == 0 {
		var roomGuide models.MessageTemplate
		if err := DB.Where("`key` = ?", "room-guide").First(&roomGuide).Error; err == nil {
			// Inactive by default; staff enables it once the gateway is configured.
			schedule := models.Schedule{
				Name:         "Evening room guide",
				TemplateID:   roomGuide.ID,
				ScheduleType: models.ScheduleDaily,
				Hour:         17,
				TargetType:   models.TargetRoomAssigned,
				DateFilter:   models.DateFilterToday,
				Kind:         models.KindRoomGuide,
				ExcludeSent:  true,
				Active:       false,
			}
			if err := DB.Create(&schedule).Error; err != nil {
				log.Printf("warning: failed to seed schedule: %v", err)
			} else {
				log.Println("Example schedule seeded")
			}
		}
	}
}
