package middleware

import (
	"satfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// ActorUserID extracts the authenticated user id from the session payload.
// Returns uuid.Nil when absent or malformed.
func ActorUserID(c *fiber.Ctx) uuid.UUID {
	user, _ := c.Locals(userLocal).(map[string]interface{})
	if user == nil {
		return uuid.Nil
	}
	raw, _ := user["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
