package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/auth"
)

const (
	// ContextKeyUserID is the context key for storing user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyUsername is the context key for storing username.
	ContextKeyUsername = "username"
)

// AuthMiddleware validates the bearer token when the auth service issues
// tokens and lets every request through otherwise. WebSocket clients that
// cannot set headers may pass the token as the "token" query parameter.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil || !authService.TokensEnabled() {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			logger.Debug().Str("path", c.Request.URL.Path).Msg("missing or malformed authorization")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", false
		}
		return token, true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// ownsSession reports whether caller may drive the engine session. Callers
// without a token identity and a closed session are let through; the
// engine rejects requests without a session on its own.
func ownsSession(sessions SessionManager, caller string) bool {
	if caller == "" || sessions == nil {
		return true
	}
	current := sessions.CurrentUser()
	return current == "" || current == caller
}

// SessionOwnerMiddleware rejects authenticated callers whose token names a
// different user than the open engine session. It runs after AuthMiddleware.
func SessionOwnerMiddleware(sessions SessionManager, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetString(ContextKeyUsername)
		if !ownsSession(sessions, caller) {
			logger.Warn().Str("path", c.Request.URL.Path).Str("caller", caller).Msg("caller does not own the engine session")
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "session belongs to another user"})
			return
		}
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
