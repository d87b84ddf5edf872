package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/service"
	"github.com/campushq/campus-api/internal/utils"
)

// AcademicHandler wires course, class and session HTTP routes.
type AcademicHandler struct {
	service service.AcademicService
	logger  zerolog.Logger
}

// NewAcademicHandler constructs the handler.
func NewAcademicHandler(service service.AcademicService, logger zerolog.Logger) *AcademicHandler {
	return &AcademicHandler{
		service: service,
		logger:  logger.With().Str("component", "academic_handler").Logger(),
	}
}

// Register attaches the read endpoints available to every authenticated user.
func (h *AcademicHandler) Register(router fiber.Router) {
	router.Get("/courses", h.listCourses)
	router.Get("/courses/:id", h.getCourse)
	router.Get("/classes/:id", h.getClass)
	router.Get("/classes/:id/sessions", h.listSessions)
}

// RegisterStaff attaches the staff-only endpoints.
func (h *AcademicHandler) RegisterStaff(router fiber.Router) {
	router.Post("/courses", h.createCourse)
	router.Get("/classes", h.listClasses)
	router.Post("/classes", h.createClass)
	router.Post("/sessions", h.scheduleSession)
	router.Post("/sessions/:id/status", h.transitionSession)
}

func (h *AcademicHandler) createCourse(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.CreateCourse(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *AcademicHandler) listCourses(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	courses, total, err := h.service.ListCourses(c.Context(), actorFromContext(c), c.Query("search"), page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", fiber.Map{"courses": courses, "total": total})
}

func (h *AcademicHandler) getCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.GetCourse(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *AcademicHandler) createClass(c *fiber.Ctx) error {
	var payload dto.ClassCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.CreateClass(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *AcademicHandler) listClasses(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var centreID *uint
	if raw, err := parseQueryInt(c, "centreId"); err == nil && raw > 0 {
		id := uint(raw)
		centreID = &id
	}

	classes, total, err := h.service.ListClasses(c.Context(), actorFromContext(c), centreID, page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classes retrieved", fiber.Map{"classes": classes, "total": total})
}

func (h *AcademicHandler) getClass(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	class, err := h.service.GetClass(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class retrieved", class)
}

func (h *AcademicHandler) scheduleSession(c *fiber.Ctx) error {
	var payload dto.SessionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.ScheduleSession(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session scheduled", session)
}

func (h *AcademicHandler) listSessions(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sessions, err := h.service.ListSessions(c.Context(), actorFromContext(c), classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "sessions retrieved", sessions)
}

func (h *AcademicHandler) transitionSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SessionStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	target := models.SessionStatus(payload.Status)
	if target != models.SessionLive && target != models.SessionEnded {
		return utils.SendError(c, fiber.StatusBadRequest, "status must be LIVE or ENDED")
	}

	session, err := h.service.TransitionSession(c.Context(), actorFromContext(c), id, target)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session transitioned", session)
}

func (h *AcademicHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
