package server

import (
	"github.com/gin-gonic/gin"

	"github.com/AylerH/DB-GPT/internal/server/middleware"
)

func (s *Server) SetupRoutes() {
	if s.config.Tracing.Enabled {
		s.router.Use(middleware.Tracing(s.config.Tracing.ServiceName))
	}
	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	api := s.router.Group(s.config.Server.APIPrefix)

	// health stays reachable without a key
	api.GET("/health", s.handler.HandleHealth)

	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)

	gated := api.Group("")
	gated.Use(middleware.Auth(s.gate))
	gated.Use(limiter.Middleware())
	{
		gated.GET("/test_auth", s.handler.HandleTestAuth)
		gated.GET("/model-types", s.handler.HandleListModelTypes)

		gated.GET("/models", s.handler.HandleListModels)
		gated.GET("/models/:model_name", s.handler.HandleGetModel)
		gated.POST("/models", s.handler.HandleCreateModel)
		gated.POST("/models/stop", s.handler.HandleStopModel)
		gated.POST("/models/test", s.handler.HandleTestModel)
		gated.POST("/models/start", s.handler.HandleStartModel)
	}
}
