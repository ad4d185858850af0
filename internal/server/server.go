package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AylerH/DB-GPT/internal/auth"
	"github.com/AylerH/DB-GPT/internal/config"
	"github.com/AylerH/DB-GPT/internal/platform/metrics"
	"github.com/AylerH/DB-GPT/internal/server/middleware"
	v1 "github.com/AylerH/DB-GPT/internal/server/v1"
)

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	gate    *auth.Gate
	metrics *metrics.Metrics
	handler *v1.Handler
}

// New builds the gin engine. m may be nil, in which case no metrics are
// recorded or exposed.
func New(cfg *config.Config, logger *zap.Logger, gate *auth.Gate, m *metrics.Metrics, handler *v1.Handler) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.Recovery(logger))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router:  engine,
		config:  cfg,
		logger:  logger,
		gate:    gate,
		metrics: m,
		handler: handler,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
