package middleware

import (
	"log"
	"strings"

	"github.com/VictorBagz/KBR/services"

	"github.com/gofiber/fiber/v2"
)

// Context keys populated by SessionAuthMiddleware.
const (
	UserIDKey    = "user_id"
	UserRolesKey = "user_roles"
	SessionKey   = "session"
)

// AdminRole is required for every operator-facing route.
const AdminRole = "admin"

// SessionAuthMiddleware validates the Bearer session token against the
// hosted identity provider and attaches user identity to the request
// context. The provider stays external; we only hold the verdict.
func SessionAuthMiddleware(authClient *services.AuthServiceClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing Authorization header",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// No "Bearer " prefix — accept the raw value.
			token = authHeader
		}

		session, err := authClient.ValidateSession(c.Context(), token)
		if err != nil {
			log.Printf("[AUTH] session validation failed for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid session",
			})
		}

		c.Locals(UserIDKey, session.UserID)
		c.Locals(UserRolesKey, session.Roles)
		c.Locals(SessionKey, session)
		return c.Next()
	}
}

// RequireAdmin gates a route on the admin role set by SessionAuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, _ := c.Locals(SessionKey).(*services.SessionInfo)
		if session != nil && session.HasRole(AdminRole) {
			return c.Next()
		}
		log.Printf("[AUTH] admin role required for %s", c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin role required",
		})
	}
}
