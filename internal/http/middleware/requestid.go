package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

type requestIDKey struct{}

// RequestID ensures every request has a request ID.
//
// Behavior:
//   - Reads X-Request-ID from the incoming request header, generating a UUID when missing.
//   - Stores the value in Fiber locals under RequestIDLocalKey and in the user context,
//     so service code can read it with RequestIDFromContext.
//   - Echoes X-Request-ID on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.SetUserContext(context.WithValue(c.UserContext(), requestIDKey{}, id))
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}

// RequestIDFromContext returns the request ID stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
