package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

const userIDKey = "user_id"

// AuthMiddleware provides mock Bearer token authentication. The token is
// taken as the user id that scopes saved items, preferences and sessions.
// Public paths (health, swagger, metrics) bypass authentication.
func AuthMiddleware() fiber.Handler {
	publicPrefixes := []string{"/health", "/swagger", "/metrics"}

	return func(c fiber.Ctx) error {
		path := c.Path()

		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing Authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid Authorization header format, expected 'Bearer <token>'",
			})
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "empty bearer token",
			})
		}

		// Mock validation: accept any non-empty token
		c.Locals(userIDKey, token)

		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" on public paths.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
