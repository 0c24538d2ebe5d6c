// Package middleware provides the echo collaborators every request passes
// through before reaching a handler: request-ID assignment and
// request-scoped structured logging. Grounded on CedrosPay-server's
// internal/logger middleware (request ID generation, context injection,
// start/finish log lines), adapted from net/http to echo's
// MiddlewareFunc/HandlerFunc shape, since no pack example wires zerolog
// through echo directly.
package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/x402-labs/facilitator-core/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns a request ID (reusing one supplied by the caller) and
// echoes it back on the response so a client can correlate logs.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(requestIDHeader, id)
			c.Set("request_id", id)
			return next(c)
		}
	}
}

// Logging builds a request-scoped logger carrying the request ID, method,
// and path, injects it into the request context, and logs the outcome of
// every request at info level (warn for 4xx, error for 5xx).
func Logging(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID, _ := c.Get("request_id").(string)

			reqLogger := base.With().
				Str("request_id", requestID).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Logger()

			ctx := logging.WithContext(c.Request().Context(), reqLogger)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			event := reqLogger.Info()
			status := c.Response().Status
			switch {
			case status >= 500:
				event = reqLogger.Error()
			case status >= 400:
				event = reqLogger.Warn()
			}
			event.
				Int("status", status).
				Dur("latency", time.Since(start)).
				Msg("request.completed")

			return err
		}
	}
}
