package routegate

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/routegate/routegate/apperr"
)

// errorEnvelope is the single user-facing error shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

const internalMessage = "Internal error."

// requestID ensures every request carries an X-Request-ID, generating one
// when the caller did not send it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set(keyRequestID, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// requestLogger emits one structured record per inbound request before
// dispatch.
func requestLogger(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Info().
			Str("request_id", c.GetString(keyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Str("remote", c.ClientIP()).
			Msg("request")
		c.Next()
	}
}

// responseLogger emits one structured record per outbound response. It is
// registered before the translator so it observes the final status.
func responseLogger(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(keyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Msg("response")
	}
}

// errorTranslator maps errors recorded on the context to HTTP responses.
// Typed application errors keep their declared status and expose message
// and data; anything else is logged and hidden behind a generic 500.
// All other middleware and the dispatch adapter abort without writing so
// this is the one place the error shape is decided.
func errorTranslator(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var ae *apperr.Error
		if errors.As(err, &ae) {
			status := ae.Status
			if status == 0 {
				status = http.StatusInternalServerError
			}
			if !c.Writer.Written() {
				c.JSON(status, errorEnvelope{Error: errorDetail{Data: ae.Data, Message: ae.Message}})
			}
			return
		}

		log.Error().
			Err(err).
			Str("request_id", c.GetString(keyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("unhandled error")
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, errorEnvelope{Error: errorDetail{Message: internalMessage}})
		}
	}
}

// recovery converts panics into errors for the translator, which renders
// them as generic internal failures.
func recovery(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if v := recover(); v != nil {
				log.Error().
					Interface("panic", v).
					Str("request_id", c.GetString(keyRequestID)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				abortWithError(c, fmt.Errorf("panic: %v", v))
			}
		}()
		c.Next()
	}
}
