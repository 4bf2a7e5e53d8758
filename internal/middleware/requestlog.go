package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	ctxRequestID    = "request_id"
	headerRequestID = echo.HeaderXRequestID
)

// RequestLogger assigns every request an id (reusing an incoming
// X-Request-ID) and writes one structured line per request.  Only metadata
// is logged, never bodies.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(ctxRequestID, id)
			c.Response().Header().Set(headerRequestID, id)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("dur", time.Since(start)),
				zap.String("ip", c.RealIP()),
				zap.String("user", userID(c)),
			}
			switch {
			case c.Response().Status >= 500:
				log.Error("http", append(fields, zap.Error(err))...)
			case c.Response().Status >= 400:
				log.Warn("http", fields...)
			default:
				log.Info("http", fields...)
			}
			return nil
		}
	}
}
