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

func setupCatchUpApp(t *testing.T, db *gorm.DB, actor testActor) *fiber.App {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	auditService := service.NewAuditService(repository.NewAuditLogRepository(db), nil, "campus.audit", logger)
	userService := service.NewUserService(repository.NewUserRepository(db), auditService, validate, logger)
	catchUpService := service.NewCatchUpService(repository.NewCatchUpRepository(db), repository.NewUserRepository(db), validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		CatchUpHandler: handler.NewCatchUpHandler(catchUpService, userService, logger),
		JWTMiddleware:  stubJWT(actor),
	})

	return app
}

func seedStudent(t *testing.T, db *gorm.DB, id, centreID uint) models.User {
	t.Helper()

	student := models.User{
		ID:       id,
		CentreID: centreID,
		Name:     "Mira Tan",
		Email:    "mira@example.com",
		Role:     models.RoleStudent,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedCatchUp(t *testing.T, db *gorm.DB, centreID, studentID uint, status models.CatchUpStatus) models.CatchUp {
	t.Helper()

	catchUp := models.CatchUp{
		CentreID:  centreID,
		StudentID: studentID,
		Title:     "Review fractions worksheet",
		DueDate:   time.Now().UTC().Add(72 * time.Hour),
		Status:    status,
	}
	require.NoError(t, db.Create(&catchUp).Error)
	return catchUp
}

func TestCatchUpHandlerCreate(t *testing.T) {
	db := openTestDB(t)
	seedStudent(t, db, 7, 1)

	app := setupCatchUpApp(t, db, testActor{UserID: 3, Role: "teacher", CentreID: 1})

	payload := dto.CatchUpCreateRequest{
		StudentID: 7,
		Title:     "Re-watch the algebra session",
		DueDate:   time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
	}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/catch-ups", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var envelope struct {
		Success bool                `json:"success"`
		Data    dto.CatchUpResponse `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.True(t, envelope.Success)
	require.Equal(t, uint(7), envelope.Data.StudentID)
	require.Equal(t, models.CatchUpPending, envelope.Data.Status)

	var stored models.CatchUp
	require.NoError(t, db.First(&stored, envelope.Data.ID).Error)
	require.Equal(t, uint(1), stored.CentreID)
}

func TestCatchUpHandlerCreateStudentForbidden(t *testing.T) {
	db := openTestDB(t)
	seedStudent(t, db, 7, 1)

	app := setupCatchUpApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	payload := dto.CatchUpCreateRequest{
		StudentID: 7,
		Title:     "Self-assigned homework",
		DueDate:   time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/catch-ups", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCatchUpHandlerCreateUnknownStudent(t *testing.T) {
	db := openTestDB(t)

	app := setupCatchUpApp(t, db, testActor{UserID: 3, Role: "teacher", CentreID: 1})

	payload := dto.CatchUpCreateRequest{
		StudentID: 999,
		Title:     "Task for a ghost",
		DueDate:   time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/catch-ups", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCatchUpHandlerListScopedToStudent(t *testing.T) {
	db := openTestDB(t)
	seedCatchUp(t, db, 1, 7, models.CatchUpPending)
	seedCatchUp(t, db, 1, 8, models.CatchUpPending)

	app := setupCatchUpApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/catch-ups", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			CatchUps []dto.CatchUpResponse `json:"catch_ups"`
			Total    int64                 `json:"total"`
		} `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.Equal(t, int64(1), envelope.Data.Total)
	require.Len(t, envelope.Data.CatchUps, 1)
	require.Equal(t, uint(7), envelope.Data.CatchUps[0].StudentID)
}

func TestCatchUpHandlerCompleteOwner(t *testing.T) {
	db := openTestDB(t)
	catchUp := seedCatchUp(t, db, 1, 7, models.CatchUpPending)

	app := setupCatchUpApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/catch-ups/1/complete", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.CatchUp
	require.NoError(t, db.First(&stored, catchUp.ID).Error)
	require.Equal(t, models.CatchUpCompleted, stored.Status)
}

func TestCatchUpHandlerCompleteParent(t *testing.T) {
	db := openTestDB(t)
	seedCatchUp(t, db, 1, 7, models.CatchUpPending)
	require.NoError(t, db.Create(&models.ParentLink{ParentID: 20, ChildID: 7}).Error)

	app := setupCatchUpApp(t, db, testActor{UserID: 20, Role: "parent", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/catch-ups/1/complete", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCatchUpHandlerCompleteStranger(t *testing.T) {
	db := openTestDB(t)
	seedCatchUp(t, db, 1, 7, models.CatchUpPending)

	app := setupCatchUpApp(t, db, testActor{UserID: 8, Role: "student", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/catch-ups/1/complete", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCatchUpHandlerCompleteNotFound(t *testing.T) {
	db := openTestDB(t)

	app := setupCatchUpApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/catch-ups/999/complete", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
