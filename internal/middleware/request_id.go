package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type requestIDKey struct{}

var requestKey = requestIDKey{}

// RequestID ensures every request carries an identifier so log lines and
// published transition notices can be tied back to the originating call.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals("request_id", id)
		c.Set(fiber.HeaderXRequestID, id)
		c.SetUserContext(context.WithValue(c.Context(), requestKey, id))

		return c.Next()
	}
}

// RequestIDFromContext extracts the request identifier, if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestKey).(string); ok {
		return id
	}
	return ""
}

// GetRequestID returns the identifier bound to the active request.
func GetRequestID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals("request_id").(string); ok {
		return id
	}
	return RequestIDFromContext(c.Context())
}
