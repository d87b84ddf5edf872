package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/service"
	"github.com/campushq/campus-api/internal/utils"
)

// DashboardHandler serves the aggregated student dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/student", h.student)
}

func (h *DashboardHandler) student(c *fiber.Ctx) error {
	dashboard, err := h.service.StudentDashboard(c.Context(), actorFromContext(c))
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
