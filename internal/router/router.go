package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/config"
	"github.com/campushq/campus-api/internal/handler"
	"github.com/campushq/campus-api/internal/middleware"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	PresenceHandler     *handler.PresenceHandler
	GamificationHandler *handler.GamificationHandler
	TicketHandler       *handler.TicketHandler
	AcademicHandler     *handler.AcademicHandler
	CatchUpHandler      *handler.CatchUpHandler
	UserHandler         *handler.UserHandler
	AuditHandler        *handler.AuditHandler
	DashboardHandler    *handler.DashboardHandler
	DB                  *gorm.DB
	StartedAt           time.Time
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB, deps.StartedAt))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireStaff()
	supervisorUp := middleware.RequireRole(string(models.RoleSupervisor), string(models.RoleAdmin), string(models.RoleSuperAdmin))
	adminOnly := middleware.RequireRole(string(models.RoleAdmin), string(models.RoleSuperAdmin))

	// Live sessions and presence tracking
	if deps.PresenceHandler != nil {
		sessions := api.Group("/sessions", jwtMiddleware)
		deps.PresenceHandler.Register(sessions)
	}

	// Courses, classes and session scheduling
	if deps.AcademicHandler != nil {
		academic := api.Group("/academic", jwtMiddleware)
		deps.AcademicHandler.Register(academic)
		deps.AcademicHandler.RegisterStaff(academic.Group("", staffOnly))
	}

	// XP, badges, streaks and leaderboards
	if deps.GamificationHandler != nil {
		gamification := api.Group("/gamification", jwtMiddleware)
		deps.GamificationHandler.Register(gamification)
		deps.GamificationHandler.RegisterStaff(gamification.Group("", staffOnly))
		deps.GamificationHandler.RegisterAdmin(gamification.Group("", supervisorUp))
	}

	// Support tickets
	if deps.TicketHandler != nil {
		tickets := api.Group("/tickets", jwtMiddleware)
		deps.TicketHandler.Register(tickets)
		deps.TicketHandler.RegisterEscalation(tickets.Group("", supervisorUp))
	}

	// Catch-up assignments
	if deps.CatchUpHandler != nil {
		catchUps := api.Group("/catch-ups", jwtMiddleware)
		deps.CatchUpHandler.Register(catchUps)
		deps.CatchUpHandler.RegisterStaff(catchUps.Group("", staffOnly))
	}

	// User accounts
	if deps.UserHandler != nil {
		users := api.Group("/users", jwtMiddleware)
		deps.UserHandler.Register(users)
		deps.UserHandler.RegisterStaff(users.Group("", staffOnly))
		deps.UserHandler.RegisterAdmin(users.Group("", adminOnly))
	}

	// Audit trail
	if deps.AuditHandler != nil {
		audit := api.Group("/audit", jwtMiddleware, adminOnly)
		deps.AuditHandler.Register(audit)
	}

	// Aggregated dashboards
	if deps.DashboardHandler != nil {
		dashboard := api.Group("/dashboard", jwtMiddleware)
		deps.DashboardHandler.Register(dashboard)
	}
}
