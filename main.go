package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"guesthouse-backend/config"
	"guesthouse-backend/controllers"
	"guesthouse-backend/routes"
	"guesthouse-backend/services"
)

func envMinutes(key string, def int) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(def) * time.Minute
}

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	// Connect database (config.ConnectDatabase sets config.DB)
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("❌ config.DB is nil after ConnectDatabase()")
	}
	log.Println("✅ Database connection established and migrations applied.")

	// External collaborators
	feed := services.NewHTTPBookingFeed()
	gateway := services.NewHTTPSMSGateway()

	// Initialize services
	reconcileService := services.NewReconcileService(db, feed)
	reservationService := services.NewReservationService(db)
	assignmentService := services.NewAssignmentService(db)
	allocationService := services.NewAllocationService(db)
	roomService := services.NewRoomService(db)
	templateService := services.NewTemplateService(db)
	dispatchService := services.NewDispatchService(db, gateway)
	scheduleService := services.NewScheduleService(db, dispatchService)

	// Initialize controllers
	syncController := controllers.NewSyncController(reconcileService)
	reservationController := controllers.NewReservationController(reservationService, assignmentService, allocationService)
	roomController := controllers.NewRoomController(roomService)
	templateController := controllers.NewTemplateController(templateService)
	campaignController := controllers.NewCampaignController(dispatchService)
	scheduleController := controllers.NewScheduleController(scheduleService)

	// Build router
	router := routes.SetupRouter(
		syncController,
		reservationController,
		roomController,
		templateController,
		campaignController,
		scheduleController,
	)

	// Background loops: feed auto-sync and the campaign scheduler
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if os.Getenv("AUTO_SYNC_DISABLED") == "" {
		interval := envMinutes("AUTO_SYNC_INTERVAL_MINUTES", 10)
		window := envMinutes("AUTO_SYNC_WINDOW_MINUTES", 30)
		go reconcileService.StartAutoSync(bgCtx, interval, window)
		log.Printf("✅ Feed auto-sync running every %s", interval)
	}
	go scheduleService.Start(bgCtx)
	log.Println("✅ Campaign scheduler running")

	// Port from env (prefer), fallback to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
