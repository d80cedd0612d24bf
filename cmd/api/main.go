package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quranakh/quranakh-api/internal/config"
	"github.com/quranakh/quranakh-api/internal/database"
	"github.com/quranakh/quranakh-api/internal/handler"
	"github.com/quranakh/quranakh-api/internal/middleware"
	"github.com/quranakh/quranakh-api/internal/repository"
	"github.com/quranakh/quranakh-api/internal/router"
	"github.com/quranakh/quranakh-api/internal/service"
	cloud "github.com/quranakh/quranakh-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NatsURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	masteryRepo := repository.NewMasteryRepository(db)

	var notifier service.TransitionNotifier
	if natsConn != nil {
		notifier = service.NewNATSTransitionNotifier(natsConn, cfg.TransitionSubject, logger)
	}

	lifecycleService := service.NewLifecycleService(assignmentRepo, eventRepo, submissionRepo, notifier, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, notifier, validate, uploader, logger)
	rubricService := service.NewRubricService(rubricRepo, assignmentRepo, gradeRepo, validate, logger)
	gradingService := service.NewGradingService(gradeRepo, assignmentRepo, rubricRepo, eventRepo, redisClient, validate, logger)
	gradebookService := service.NewGradebookService(assignmentRepo, gradeRepo, rubricRepo, guardianRepo, redisClient, cfg.GradebookCacheTTL, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, validate, logger)
	masteryService := service.NewMasteryService(masteryRepo, redisClient, cfg.HeatmapCacheTTL, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(lifecycleService, validate, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, validate, logger),
		RubricHandler:     handler.NewRubricHandler(rubricService, validate, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, validate, logger),
		GradebookHandler:  handler.NewGradebookHandler(gradebookService, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, validate, logger),
		MasteryHandler:    handler.NewMasteryHandler(masteryService, validate, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
