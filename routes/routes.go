package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"guesthouse-backend/controllers"
	"guesthouse-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRouter(
	sc *controllers.SyncController,
	rc *controllers.ReservationController,
	rmc *controllers.RoomController,
	tc *controllers.TemplateController,
	cc *controllers.CampaignController,
	shc *controllers.ScheduleController,
) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		sync := api.Group("/sync")
		{
			sync.POST("/run", sc.RunSync)
		}

		reservations := api.Group("/reservations")
		{
			reservations.GET("", rc.GetReservations)

			// must come before /:id
			reservations.GET("/day-table", rc.GetDayTable)

			reservations.GET("/:id", rc.GetReservation)
			reservations.POST("", rc.CreateReservation)
			reservations.PATCH("/:id", rc.UpdateReservation)
			reservations.DELETE("/:id", rc.DeleteReservation)
			reservations.POST("/:id/cancel", rc.CancelReservation)
			reservations.POST("/:id/assign", rc.AssignRoom)
			reservations.POST("/:id/unassign", rc.UnassignRoom)
			reservations.POST("/:id/party-only", rc.ConvertToPartyOnly)
			reservations.PUT("/:id/tags", rc.SetTags)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", rmc.GetRooms)
			rooms.POST("", rmc.CreateRoom)
			rooms.PATCH("/:id", rmc.UpdateRoom)
			rooms.DELETE("/:id", rmc.DeleteRoom)
		}

		roomTypes := api.Group("/room-types")
		{
			roomTypes.GET("", rmc.GetRoomTypes)
			roomTypes.POST("", rmc.CreateRoomType)
			roomTypes.PATCH("/:id", rmc.UpdateRoomType)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", tc.GetTemplates)
			templates.POST("", tc.CreateTemplate)
			templates.PATCH("/:id", tc.UpdateTemplate)
			templates.DELETE("/:id", tc.DeleteTemplate)

			// static segment first so it never collides with /:id
			templates.POST("/preview/:key", tc.PreviewTemplate)
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("/dispatch", cc.RunDispatch)
			campaigns.POST("/preview", cc.PreviewTargets)
			campaigns.GET("/logs", cc.GetCampaignLogs)
		}

		schedules := api.Group("/schedules")
		{
			schedules.GET("", shc.GetSchedules)
			schedules.POST("", shc.CreateSchedule)
			schedules.PATCH("/:id", shc.UpdateSchedule)
			schedules.DELETE("/:id", shc.DeleteSchedule)
			schedules.POST("/:id/active", shc.SetActive)
			schedules.POST("/:id/run", shc.RunNow)
			schedules.GET("/:id/preview", shc.Preview)
		}
	}

	return r
}
