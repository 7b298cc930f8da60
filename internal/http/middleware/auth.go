package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"channelapi/internal/auth"
)

// UserIDLocalKey is the Fiber locals key holding the authenticated user ID.
const UserIDLocalKey = "user_id"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer <token>" header
// with 401 and stores the token subject under UserIDLocalKey otherwise.
func RequireAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(UserIDLocalKey, claims.Subject)
		return c.Next()
	}
}

// UserID returns the authenticated user ID, or "" before RequireAuth ran.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(UserIDLocalKey).(string)
	return uid
}
