package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/middleware"
	"github.com/campushq/campus-api/internal/models"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func uintFromLocals(c *fiber.Ctx, key string) uint {
	if v := c.Locals(key); v != nil {
		switch id := v.(type) {
		case uint:
			return id
		case int:
			if id < 0 {
				return 0
			}
			return uint(id)
		case float64:
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

// actorFromContext builds the caller identity from the locals the JWT
// middleware populated. Parent child links are resolved later by the user
// service when ownership checks need them.
func actorFromContext(c *fiber.Ctx) authz.Actor {
	role := ""
	if v := c.Locals(middleware.LocalUserRole); v != nil {
		if str, ok := v.(string); ok {
			role = str
		}
	}

	return authz.Actor{
		UserID:   uintFromLocals(c, middleware.LocalUserID),
		Role:     models.Role(role),
		CentreID: uintFromLocals(c, middleware.LocalCentreID),
	}
}

func pagination(c *fiber.Ctx) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, errors.New("invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return 0, 0, errors.New("invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, nil
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
