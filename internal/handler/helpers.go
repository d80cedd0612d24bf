package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
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

func schoolIDFromContext(c *fiber.Ctx) uint {
	return uintFromLocals(c, "school_id")
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{ID: uintFromLocals(c, "user_id")}
	if v := c.Locals("user_role"); v != nil {
		if raw, ok := v.(string); ok {
			if role, ok := models.ParseRole(raw); ok {
				actor.Role = role
			}
		}
	}
	return actor
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
