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

// GamificationHandler wires XP, badge and leaderboard HTTP routes.
type GamificationHandler struct {
	service service.GamificationService
	users   service.UserService
	logger  zerolog.Logger
}

// NewGamificationHandler constructs the handler.
func NewGamificationHandler(service service.GamificationService, users service.UserService, logger zerolog.Logger) *GamificationHandler {
	return &GamificationHandler{
		service: service,
		users:   users,
		logger:  logger.With().Str("component", "gamification_handler").Logger(),
	}
}

// RegisterStaff attaches the staff-only mutation endpoints.
func (h *GamificationHandler) RegisterStaff(router fiber.Router) {
	router.Post("/award-xp", h.awardXP)
	router.Post("/award-badge", h.awardBadge)
}

// RegisterAdmin attaches the supervisor/admin-only endpoints.
func (h *GamificationHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/deduct-xp", h.deductXP)
}

// Register attaches the read endpoints available to every authenticated user.
func (h *GamificationHandler) Register(router fiber.Router) {
	router.Get("/profiles/:userId", h.profile)
	router.Get("/profiles/:userId/transactions", h.transactions)
	router.Get("/leaderboard", h.leaderboard)
}

func (h *GamificationHandler) awardXP(c *fiber.Ctx) error {
	var payload dto.AwardXPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.AwardXP(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "xp awarded", response)
}

func (h *GamificationHandler) deductXP(c *fiber.Ctx) error {
	var payload dto.DeductXPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.DeductXP(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "xp deducted", response)
}

func (h *GamificationHandler) awardBadge(c *fiber.Ctx) error {
	var payload dto.AwardBadgeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	badge, err := h.service.AwardBadge(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "badge awarded", badge)
}

func (h *GamificationHandler) profile(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := h.users.ResolveActor(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	profile, err := h.service.Profile(c.Context(), actor, userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *GamificationHandler) transactions(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := h.users.ResolveActor(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	entries, total, err := h.service.Transactions(c.Context(), actor, userID, page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "transactions retrieved", fiber.Map{"transactions": entries, "total": total})
}

func (h *GamificationHandler) leaderboard(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	leaderboard, err := h.service.Leaderboard(c.Context(), actorFromContext(c), limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}

func (h *GamificationHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrProfileNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "profile not found")
	case errors.Is(err, authz.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
