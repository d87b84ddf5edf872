package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/service"
	"github.com/campushq/campus-api/internal/utils"
)

// PresenceHandler wires presence HTTP routes.
type PresenceHandler struct {
	service service.PresenceService
	logger  zerolog.Logger
}

// NewPresenceHandler constructs the handler.
func NewPresenceHandler(service service.PresenceService, logger zerolog.Logger) *PresenceHandler {
	return &PresenceHandler{
		service: service,
		logger:  logger.With().Str("component", "presence_handler").Logger(),
	}
}

// Register attaches presence endpoints to the router group.
func (h *PresenceHandler) Register(router fiber.Router) {
	router.Post("/presence", h.record)
	router.Post("/:id/enroll", h.enroll)
	router.Get("/:id/enrollments", h.listEnrollments)
}

func (h *PresenceHandler) record(c *fiber.Ctx) error {
	var payload dto.RecordPresenceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Record(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "presence recorded", response)
}

func (h *PresenceHandler) enroll(c *fiber.Ctx) error {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.StudentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	}

	enrollment, err := h.service.Enroll(c.Context(), actorFromContext(c), sessionID, payload.StudentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", enrollment)
}

func (h *PresenceHandler) listEnrollments(c *fiber.Ctx) error {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollments, err := h.service.ListBySession(c.Context(), actorFromContext(c), sessionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *PresenceHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, authz.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
