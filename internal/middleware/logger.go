package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request. Headers and bodies are never
// logged since both can carry secrets.
func RequestLogger(logger zerolog.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()

		c.Next()

		event := logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Dur("duration", time.Since(start))
		if userID := GetUserID(c); userID != uuid.Nil {
			event = event.Str("user_id", userID.String())
		}
		event.Msg("request")
	}
}
