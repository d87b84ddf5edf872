package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/config"
	"github.com/campushq/campus-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, db *gorm.DB, startedAt time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Database:    "ok",
			Timestamp:   time.Now().UTC(),
			Uptime:      time.Since(startedAt).Round(time.Second).String(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
				payload.Status = "degraded"
				payload.Database = "unreachable"
			}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
