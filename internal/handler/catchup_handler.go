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

// CatchUpHandler wires catch-up HTTP routes.
type CatchUpHandler struct {
	service service.CatchUpService
	users   service.UserService
	logger  zerolog.Logger
}

// NewCatchUpHandler constructs the handler.
func NewCatchUpHandler(service service.CatchUpService, users service.UserService, logger zerolog.Logger) *CatchUpHandler {
	return &CatchUpHandler{
		service: service,
		users:   users,
		logger:  logger.With().Str("component", "catchup_handler").Logger(),
	}
}

// Register attaches catch-up endpoints to the router group.
func (h *CatchUpHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/:id/complete", h.complete)
}

// RegisterStaff attaches the staff-only creation endpoint.
func (h *CatchUpHandler) RegisterStaff(router fiber.Router) {
	router.Post("", h.create)
}

func (h *CatchUpHandler) create(c *fiber.Ctx) error {
	var payload dto.CatchUpCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	catchUp, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "catch-up created", catchUp)
}

func (h *CatchUpHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	catchUps, total, err := h.service.List(c.Context(), actorFromContext(c), page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "catch-ups retrieved", fiber.Map{"catch_ups": catchUps, "total": total})
}

func (h *CatchUpHandler) complete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := h.users.ResolveActor(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	catchUp, err := h.service.Complete(c.Context(), actor, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "catch-up completed", catchUp)
}

func (h *CatchUpHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCatchUpNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "catch-up not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, authz.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
