package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/loginflow/loginflow/internal/transport/http/middleware"
	sloggin "github.com/samber/slog-gin"
)

// Strategy is an authentication scheme mountable under the auth prefix.
// A strategy receives its collaborators at construction and registers
// its request handlers on the group it is given; strategies share no
// state with each other. The local email+password strategy
// (handler.AuthHandler) is the built-in.
type Strategy interface {
	Name() string
	Mount(g *gin.RouterGroup)
}

// NewRouter builds the HTTP entrypoint: recovery, request id, request
// logging, metrics, and the session middleware run on every route, then
// each strategy mounts under prefix ("/auth" by convention).
func NewRouter(logger *slog.Logger, sessionMW gin.HandlerFunc, prefix string, strategies ...Strategy) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(sessionMW)

	g := r.Group(prefix)
	for _, s := range strategies {
		logger.Info("mounting auth strategy", "strategy", s.Name(), "prefix", prefix)
		s.Mount(g)
	}

	return r
}
