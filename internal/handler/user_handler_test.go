package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

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

func setupUserApp(t *testing.T, db *gorm.DB, actor testActor) *fiber.App {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	auditService := service.NewAuditService(repository.NewAuditLogRepository(db), nil, "campus.audit", logger)
	userService := service.NewUserService(repository.NewUserRepository(db), auditService, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		UserHandler:   handler.NewUserHandler(userService, logger),
		JWTMiddleware: stubJWT(actor),
	})

	return app
}

func TestUserHandlerCreate(t *testing.T) {
	db := openTestDB(t)
	app := setupUserApp(t, db, testActor{UserID: 1, Role: "admin", CentreID: 2})

	payload := dto.UserCreateRequest{Name: "Aisha Rahman", Email: "aisha@example.com", Role: "teacher"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var envelope struct {
		Success bool             `json:"success"`
		Data    dto.UserResponse `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.Equal(t, uint(2), envelope.Data.CentreID)
	require.Equal(t, models.RoleTeacher, envelope.Data.Role)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "user.create").Count(&audits).Error)
	require.Equal(t, int64(1), audits)
}

func TestUserHandlerCreateTeacherForbidden(t *testing.T) {
	db := openTestDB(t)
	app := setupUserApp(t, db, testActor{UserID: 3, Role: "teacher", CentreID: 1})

	payload := dto.UserCreateRequest{Name: "New Student", Email: "new@example.com", Role: "student"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUserHandlerCreateSuperAdminRoleRejected(t *testing.T) {
	db := openTestDB(t)
	app := setupUserApp(t, db, testActor{UserID: 1, Role: "admin", CentreID: 1})

	payload := dto.UserCreateRequest{Name: "Root", Email: "root@example.com", Role: "super_admin"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUserHandlerLinkChild(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 20, CentreID: 1, Name: "Parent", Email: "parent@example.com", Role: models.RoleParent}).Error)
	seedStudent(t, db, 7, 1)

	app := setupUserApp(t, db, testActor{UserID: 1, Role: "admin", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/20/children", dto.LinkChildRequest{ChildID: 7}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var link models.ParentLink
	require.NoError(t, db.Where("parent_id = ? AND child_id = ?", 20, 7).First(&link).Error)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "user.link_child").Count(&audits).Error)
	require.Equal(t, int64(1), audits)
}

func TestUserHandlerLinkChildTeacherForbidden(t *testing.T) {
	db := openTestDB(t)
	app := setupUserApp(t, db, testActor{UserID: 3, Role: "teacher", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/20/children", dto.LinkChildRequest{ChildID: 7}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUserHandlerLinkChildRejectsNonStudent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 20, CentreID: 1, Name: "Parent", Email: "parent@example.com", Role: models.RoleParent}).Error)
	require.NoError(t, db.Create(&models.User{ID: 3, CentreID: 1, Name: "Teacher", Email: "teacher@example.com", Role: models.RoleTeacher}).Error)

	app := setupUserApp(t, db, testActor{UserID: 1, Role: "admin", CentreID: 1})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/20/children", dto.LinkChildRequest{ChildID: 3}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUserHandlerGetSelf(t *testing.T) {
	db := openTestDB(t)
	seedStudent(t, db, 7, 1)

	app := setupUserApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/7", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data dto.UserResponse `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.Equal(t, uint(7), envelope.Data.ID)
}

func TestUserHandlerGetStranger(t *testing.T) {
	db := openTestDB(t)
	seedStudent(t, db, 7, 1)

	app := setupUserApp(t, db, testActor{UserID: 8, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/7", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUserHandlerGetNotFound(t *testing.T) {
	db := openTestDB(t)
	app := setupUserApp(t, db, testActor{UserID: 1, Role: "admin", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users/999", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserHandlerListScopedToCentre(t *testing.T) {
	db := openTestDB(t)
	seedStudent(t, db, 7, 1)
	require.NoError(t, db.Create(&models.User{ID: 8, CentreID: 2, Name: "Other Centre", Email: "other@example.com", Role: models.RoleStudent}).Error)

	app := setupUserApp(t, db, testActor{UserID: 3, Role: "teacher", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Users []dto.UserResponse `json:"users"`
			Total int64              `json:"total"`
		} `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.Equal(t, int64(1), envelope.Data.Total)
	require.Equal(t, uint(7), envelope.Data.Users[0].ID)
}

func TestUserHandlerListStudentForbidden(t *testing.T) {
	db := openTestDB(t)
	app := setupUserApp(t, db, testActor{UserID: 7, Role: "student", CentreID: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
