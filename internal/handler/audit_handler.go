package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/service"
	"github.com/campushq/campus-api/internal/utils"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the audit listing endpoint.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, total, err := h.service.List(c.Context(), actorFromContext(c), page, pageSize)
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "audit log retrieved", fiber.Map{"entries": entries, "total": total})
}
