package middleware

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"channelapi/internal/logging"
)

// Logger logs each HTTP request as one JSON line on stdout.
func Logger(loc *time.Location) fiber.Handler {
	return LoggerWithWriter(os.Stdout, loc)
}

// LoggerWithWriter logs each HTTP request as one JSON line on w, with "ts" rendered in loc.
// Fields: request_id, method, path, status, latency (milliseconds), plus user_id and trace_id when known.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return LoggerWithLogger(logging.New(w, loc, slog.LevelInfo))
}

// LoggerWithLogger logs each HTTP request through logger.
func LoggerWithLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		attrs := []any{
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000,
		}
		if uid := UserID(c); uid != "" {
			attrs = append(attrs, "user_id", uid)
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			attrs = append(attrs, "trace_id", sc.TraceID().String())
		}

		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.UserContext(), level, "http_request", attrs...)

		return err
	}
}
