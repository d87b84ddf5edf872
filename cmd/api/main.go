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

	"github.com/campushq/campus-api/internal/config"
	"github.com/campushq/campus-api/internal/database"
	"github.com/campushq/campus-api/internal/handler"
	"github.com/campushq/campus-api/internal/middleware"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	"github.com/campushq/campus-api/internal/router"
	"github.com/campushq/campus-api/internal/service"
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

	if err := db.AutoMigrate(
		&models.User{},
		&models.ParentLink{},
		&models.Course{},
		&models.Class{},
		&models.LiveSession{},
		&models.Enrollment{},
		&models.PresenceEvent{},
		&models.GamificationProfile{},
		&models.XPTransaction{},
		&models.Badge{},
		&models.Ticket{},
		&models.TicketSequence{},
		&models.CatchUp{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	classRepo := repository.NewClassRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gamificationRepo := repository.NewGamificationRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	catchUpRepo := repository.NewCatchUpRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	leaderboard := repository.NewLeaderboardStore(redisClient)

	auditService := service.NewAuditService(auditRepo, natsConn, cfg.AuditSubject, logger)
	userService := service.NewUserService(userRepo, auditService, validate, logger)
	academicService := service.NewAcademicService(courseRepo, classRepo, sessionRepo, auditService, validate, logger)
	presenceService := service.NewPresenceService(enrollmentRepo, sessionRepo, validate, logger)
	gamificationService := service.NewGamificationService(gamificationRepo, userRepo, leaderboard, auditService, validate, logger)
	ticketService := service.NewTicketService(ticketRepo, auditService, validate, logger)
	catchUpService := service.NewCatchUpService(catchUpRepo, userRepo, validate, logger)
	dashboardService := service.NewDashboardService(gamificationRepo, enrollmentRepo, catchUpRepo, redisClient, cfg.DashboardCacheTTL, logger)

	deps := router.Dependencies{
		PresenceHandler:     handler.NewPresenceHandler(presenceService, logger),
		GamificationHandler: handler.NewGamificationHandler(gamificationService, userService, logger),
		TicketHandler:       handler.NewTicketHandler(ticketService, userService, logger),
		AcademicHandler:     handler.NewAcademicHandler(academicService, logger),
		CatchUpHandler:      handler.NewCatchUpHandler(catchUpService, userService, logger),
		UserHandler:         handler.NewUserHandler(userService, logger),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		DB:                  db,
		StartedAt:           time.Now(),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:          &logger,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})
	router.Register(app, cfg, deps)

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
