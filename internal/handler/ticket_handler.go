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

// TicketHandler wires ticket HTTP routes.
type TicketHandler struct {
	service service.TicketService
	users   service.UserService
	logger  zerolog.Logger
}

// NewTicketHandler constructs the handler.
func NewTicketHandler(service service.TicketService, users service.UserService, logger zerolog.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		users:   users,
		logger:  logger.With().Str("component", "ticket_handler").Logger(),
	}
}

// Register attaches ticket endpoints to the router group.
func (h *TicketHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/resolve", h.resolve)
}

// RegisterEscalation attaches the permission-gated escalation endpoint.
func (h *TicketHandler) RegisterEscalation(router fiber.Router) {
	router.Post("/:id/escalate", h.escalate)
}

func (h *TicketHandler) create(c *fiber.Ctx) error {
	var payload dto.TicketCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "ticket created", ticket)
}

func (h *TicketHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tickets, total, err := h.service.List(c.Context(), actorFromContext(c), page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "tickets retrieved", fiber.Map{"tickets": tickets, "total": total})
}

func (h *TicketHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := h.users.ResolveActor(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	ticket, err := h.service.Get(c.Context(), actor, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ticket retrieved", ticket)
}

func (h *TicketHandler) escalate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ticket, err := h.service.Escalate(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ticket escalated", ticket)
}

func (h *TicketHandler) resolve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ticket, err := h.service.Resolve(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ticket resolved", ticket)
}

func (h *TicketHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "ticket not found")
	case errors.Is(err, service.ErrTicketAtMaxLevel), errors.Is(err, service.ErrTicketNotEscalable):
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
