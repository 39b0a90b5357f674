package routegate

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/routegate/routegate/apperr"
	"github.com/routegate/routegate/auth"
)

// gin context keys owned by this package.
const (
	keyRawBody   = "routegate.rawBody"
	keyBodyData  = "routegate.bodyData"
	keyAuth      = "routegate.auth"
	keyRequestID = "routegate.requestID"
)

// bodyCapture reads the request body once, keeps the raw bytes for the
// controller invocation, restores the stream for anything downstream,
// and parses JSON bodies eagerly so malformed payloads fail before the
// controller runs.
func bodyCapture() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			raw, err := io.ReadAll(c.Request.Body)
			if err != nil {
				abortWithError(c, apperr.New(http.StatusBadRequest, "Unable to read request body.").WithCause(err))
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			c.Set(keyRawBody, raw)

			if len(raw) > 0 && isJSON(c.ContentType()) {
				var data any
				if err := json.Unmarshal(raw, &data); err != nil {
					abortWithError(c, apperr.New(http.StatusBadRequest, "Invalid JSON body.").WithCause(err))
					return
				}
				c.Set(keyBodyData, data)
			}
		}
		c.Next()
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "json")
}

// authGuard authenticates the bearer token and checks the route's scope.
// It only ever aborts with typed errors; the translator writes the 401
// or 403 response.
func authGuard(an *auth.Authenticator, requiredScope string, log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac, err := an.Authenticate(c.Request.Header)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("authentication failed")
			abortWithError(c, err)
			return
		}
		if err := auth.RequireScope(ac, requiredScope); err != nil {
			log.Debug().
				Str("subject", ac.Subject).
				Str("required_scope", requiredScope).
				Str("path", c.FullPath()).
				Msg("scope check failed")
			abortWithError(c, err)
			return
		}
		c.Set(keyAuth, ac)
		c.Next()
	}
}

// dispatch adapts the request into a controller invocation and the
// controller's result into the JSON response. Errors propagate to the
// translator untouched.
func dispatch(ctrl Controller) gin.HandlerFunc {
	status := ctrl.SuccessStatus()
	if status == 0 {
		status = http.StatusOK
	}
	return func(c *gin.Context) {
		payload, err := ctrl.Execute(c.Request.Context(), invocationFrom(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(status, payload)
	}
}

// invocationFrom collects what the chain accumulated for the controller.
func invocationFrom(c *gin.Context) *Invocation {
	inv := &Invocation{
		Params:  make(map[string]string, len(c.Params)),
		Headers: make(map[string]string, len(c.Request.Header)),
	}
	for _, p := range c.Params {
		inv.Params[p.Key] = p.Value
	}
	for k, v := range c.Request.Header {
		if len(v) > 0 {
			inv.Headers[k] = v[0]
		}
	}
	if raw, ok := c.Get(keyRawBody); ok {
		inv.RawBody = raw.([]byte)
	}
	if data, ok := c.Get(keyBodyData); ok {
		inv.Data = data
	}
	if ac, ok := c.Get(keyAuth); ok {
		inv.Auth = ac.(*auth.Context)
	}
	return inv
}

// abortWithError records err for the translator and stops the chain
// without writing a response.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
