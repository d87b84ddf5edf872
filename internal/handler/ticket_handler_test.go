package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/config"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/handler"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	"github.com/campushq/campus-api/internal/router"
	"github.com/campushq/campus-api/internal/service"
)

func setupTicketApp(t *testing.T, db *gorm.DB, actor testActor) *fiber.App {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	auditService := service.NewAuditService(repository.NewAuditLogRepository(db), nil, "campus.audit", logger)
	userService := service.NewUserService(repository.NewUserRepository(db), auditService, validate, logger)
	ticketService := service.NewTicketService(repository.NewTicketRepository(db), auditService, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		TicketHandler: handler.NewTicketHandler(ticketService, userService, logger),
		JWTMiddleware: stubJWT(actor),
	})

	return app
}

func seedTicket(t *testing.T, db *gorm.DB, centreID, openedBy uint, priority models.TicketPriority, status models.TicketStatus) models.Ticket {
	t.Helper()

	now := time.Now().UTC()
	ticket := models.Ticket{
		CentreID:    centreID,
		Number:      models.FormatTicketNumber(now.Year(), int64(openedBy)*100+int64(centreID)),
		OpenedByID:  openedBy,
		Type:        "technical",
		Priority:    priority,
		Status:      status,
		Subject:     "Video keeps buffering",
		Description: "The stream drops every few minutes.",
		SLADueAt:    now.Add(models.TicketSLA),
	}
	require.NoError(t, db.Create(&ticket).Error)
	return ticket
}

func TestTicketHandlerGetOwner(t *testing.T) {
	db := openTestDB(t)
	ticket := seedTicket(t, db, 1, 7, models.TicketPriorityLow, models.TicketStatusOpen)

	app := setupTicketApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tickets/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool               `json:"success"`
		Data    dto.TicketResponse `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.True(t, envelope.Success)
	require.Equal(t, ticket.Number, envelope.Data.Number)
}

func TestTicketHandlerGetStranger(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 7, models.TicketPriorityLow, models.TicketStatusOpen)

	app := setupTicketApp(t, db, testActor{UserID: 8, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tickets/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestTicketHandlerGetNotFound(t *testing.T) {
	db := openTestDB(t)
	app := setupTicketApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tickets/99", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestTicketHandlerListScopedToOpener(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 7, models.TicketPriorityLow, models.TicketStatusOpen)
	seedTicket(t, db, 1, 8, models.TicketPriorityLow, models.TicketStatusOpen)

	app := setupTicketApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tickets", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Tickets []dto.TicketResponse `json:"tickets"`
			Total   int64                `json:"total"`
		} `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.Equal(t, int64(1), envelope.Data.Total)
	require.Equal(t, uint(7), envelope.Data.Tickets[0].OpenedByID)
}

func TestTicketHandlerEscalate(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 7, models.TicketPriorityLow, models.TicketStatusOpen)

	app := setupTicketApp(t, db, testActor{UserID: 2, Role: "supervisor", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/tickets/1/escalate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool               `json:"success"`
		Data    dto.TicketResponse `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.Equal(t, models.TicketPriorityMedium, envelope.Data.Priority)

	// The escalation leaves an audit trail.
	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "ticket.escalate").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestTicketHandlerEscalateRequiresSupervisor(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 7, models.TicketPriorityLow, models.TicketStatusOpen)

	app := setupTicketApp(t, db, testActor{UserID: 3, Role: "teacher", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/tickets/1/escalate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestTicketHandlerEscalateAtMaxLevel(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 7, models.TicketPriorityUrgent, models.TicketStatusOpen)

	app := setupTicketApp(t, db, testActor{UserID: 2, Role: "supervisor", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/tickets/1/escalate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTicketHandlerResolve(t *testing.T) {
	db := openTestDB(t)
	seedTicket(t, db, 1, 7, models.TicketPriorityLow, models.TicketStatusInProgress)

	app := setupTicketApp(t, db, testActor{UserID: 3, Role: "teacher", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/tickets/1/resolve", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.Ticket
	require.NoError(t, db.First(&stored, 1).Error)
	require.Equal(t, models.TicketStatusResolved, stored.Status)
}
