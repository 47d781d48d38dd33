package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherup/backend/internal/config"
	"github.com/gatherup/backend/internal/database"
	"github.com/gatherup/backend/internal/handlers"
	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/realtime"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/internal/storage"
	"github.com/gatherup/backend/pkg/logger"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	lockTimeout := cfg.DB.LockTimeout

	groupService := services.NewGroupService(db, lockTimeout)
	tripService := services.NewTripService(db, lockTimeout)
	paymentService := services.NewPaymentService(db, cfg.Retry, lockTimeout)
	departureService := services.NewDepartureService(db, cfg.Retry, lockTimeout)
	calendarService := services.NewCalendarService(db, lockTimeout)
	analysisService := services.NewAnalysisService(db)
	historyService := services.NewHistoryService(db)

	app := fiber.New(fiber.Config{BodyLimit: 20 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	handlers.RegisterRoutes(app, handlers.RouterDeps{
		Auth:           handlers.NewAuthHandler(db),
		OAuth:          handlers.NewOAuthHandler(services.NewOAuthService(db, cfg.OAuth)),
		Groups:         handlers.NewGroupsHandler(groupService, tripService),
		Trips:          handlers.NewTripsHandler(tripService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		Analysis:       handlers.NewAnalysisHandler(analysisService),
		History:        handlers.NewHistoryHandler(historyService),
		Departure:      handlers.NewDepartureHandler(departureService),
		Images:         handlers.NewImagesHandler(db, storageClient, historyService),
		AuthMiddleware: middleware.NewAuthMiddleware(db),
	})

	hub := realtime.NewHub()
	registry := realtime.NewRegistry()
	coordinator := realtime.NewCoordinator(hub, registry, groupService, departureService, calendarService)
	realtime.RegisterRoutes(app, coordinator, cfg.Socket.SendBufferSize)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
