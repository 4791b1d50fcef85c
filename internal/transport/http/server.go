package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/auth"
	"github.com/vovakirdan/wirechat-bridge/internal/config"
	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/dispatch"
	"github.com/vovakirdan/wirechat-bridge/internal/metrics"
)

// Invoker serves named requests.
type Invoker interface {
	Dispatch(ctx context.Context, method string, p dispatch.Params) (any, error)
	Methods() []string
}

// SessionManager opens and closes the engine session.
type SessionManager interface {
	Login(ctx context.Context, username string) error
	Logout(ctx context.Context) error
	CurrentUser() string
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Hub      *core.Hub
	Invoker  Invoker
	Auth     *auth.Service
	Sessions SessionManager
	Metrics  *metrics.Metrics
	Config   *config.Config
	Logger   *zerolog.Logger
}

// NewServer builds an HTTP server with all routes.
func NewServer(deps Deps) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              deps.Config.Addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: deps.Config.ReadHeaderTimeout,
	}
}

// NewRouter registers the bridge routes on a gin engine.
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "http").Logger()

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(&l))

	router.GET("/health", healthHandler)
	if deps.Config.MetricsEnabled && deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := NewAPIHandlers(deps.Auth, deps.Sessions, deps.Invoker, deps.Config.MaxMessageBytes, &l)
	requireAuth := AuthMiddleware(deps.Auth, &l)
	requireOwner := SessionOwnerMiddleware(deps.Sessions, &l)

	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)
	router.POST("/api/logout", requireAuth, api.Logout)
	router.GET("/api/methods", api.Methods)
	router.POST("/api/invoke/:method", requireAuth, requireOwner, api.Invoke)

	ws := NewWSHandler(deps.Hub, deps.Invoker, deps.Sessions, WSOptions{
		ClientBuffer:      deps.Config.ClientBuffer,
		MaxMessageBytes:   deps.Config.MaxMessageBytes,
		RequestsPerMinute: deps.Config.RequestsPerMinute,
	}, &l)
	router.GET("/ws", requireAuth, requireOwner, ws.Handle)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
