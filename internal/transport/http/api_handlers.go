package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/auth"
	"github.com/vovakirdan/wirechat-bridge/internal/dispatch"
	"github.com/vovakirdan/wirechat-bridge/internal/proto"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	sessions    SessionManager
	invoker     Invoker
	maxBody     int64
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, sessions SessionManager, invoker Invoker, maxBody int64, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		sessions:    sessions,
		invoker:     invoker,
		maxBody:     maxBody,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token     string     `json:"token,omitempty"`
	Username  string     `json:"username"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InvokeResponse is the reply of the invoke endpoint.
type InvokeResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *proto.Error `json:"error,omitempty"`
}

func authResponse(sess *auth.Session) AuthResponse {
	resp := AuthResponse{Token: sess.Token, Username: sess.User.Username}
	if !sess.ExpiresAt.IsZero() {
		resp.ExpiresAt = &sess.ExpiresAt
	}
	return resp
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("username", req.Username).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("username", sess.User.Username).Msg("user registered")
	c.JSON(http.StatusCreated, authResponse(sess))
}

// Login checks credentials and opens the engine session for the user.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.sessions.Login(c.Request.Context(), sess.User.Username); err != nil {
		h.log.Error().Err(err).Str("username", sess.User.Username).Msg("failed to open engine session")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "engine login failed"})
		return
	}

	h.log.Info().Str("username", sess.User.Username).Msg("engine session opened")
	c.JSON(http.StatusOK, authResponse(sess))
}

// Logout closes the engine session.
// POST /api/logout
func (h *APIHandlers) Logout(c *gin.Context) {
	if !ownsSession(h.sessions, c.GetString(ContextKeyUsername)) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "session belongs to another user"})
		return
	}
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to close engine session")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "engine logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Methods lists the methods the dispatcher serves.
// GET /api/methods
func (h *APIHandlers) Methods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": h.invoker.Methods()})
}

// Invoke runs one request; the body is the parameter object.
// POST /api/invoke/:method
func (h *APIHandlers) Invoke(c *gin.Context) {
	method := c.Param("method")
	body := c.Request.Body
	if h.maxBody > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.maxBody)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, InvokeResponse{Error: &proto.Error{Kind: "validation", Code: http.StatusRequestEntityTooLarge, Message: "request body too large"}})
		return
	}
	params, err := dispatch.ParseParams(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, InvokeResponse{Error: &proto.Error{Kind: "validation", Code: http.StatusBadRequest, Message: "params must be a JSON object"}})
		return
	}

	res, err := h.invoker.Dispatch(c.Request.Context(), method, params)
	if err != nil {
		perr := protoError(err)
		c.JSON(httpStatus(perr.Kind), InvokeResponse{Error: perr})
		return
	}
	c.JSON(http.StatusOK, InvokeResponse{Data: res})
}
