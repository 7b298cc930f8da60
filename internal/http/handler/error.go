package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"channelapi/internal/http/middleware"
	"channelapi/internal/model"
	"channelapi/internal/parser"
	"channelapi/internal/service"
	"channelapi/internal/tree"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Code:      code,
		Error:     message,
	})
}

// domainError maps a service error to a response. Domain errors carry their own message;
// anything unrecognised is logged and reported as a generic 500.
func domainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, parser.ErrMalformedDocument):
		return writeError(c, fiber.StatusUnprocessableEntity, "MALFORMED_DOCUMENT", err.Error())
	case errors.Is(err, tree.ErrInvalidTarget):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_TARGET", err.Error())
	case errors.Is(err, model.ErrUnsupportedFormat):
		return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
	case errors.Is(err, tree.ErrInvalidPath):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PATH", err.Error())
	case errors.Is(err, service.ErrInvalidTemplate):
		return writeError(c, fiber.StatusBadRequest, "INVALID_TEMPLATE", err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return writeError(c, fiber.StatusBadRequest, "EMAIL_TAKEN", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, service.ErrDocumentTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", err.Error())
	default:
		slog.ErrorContext(c.UserContext(), "request_failed",
			"request_id", requestIDFromCtx(c),
			"path", c.Path(),
			"error_message", err.Error(),
		)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", fe.Message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
