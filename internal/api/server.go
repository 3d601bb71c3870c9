package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cep-processor/internal/api/handlers"
	"github.com/nexconsult/cep-processor/internal/api/middleware"
	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	// Probes and metrics are not rate limited
	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)

	v1 := s.Router.Group("/api/v1")
	v1.Use(s.rateLimiter.Middleware())
	{
		processHandler := handlers.NewProcessHandler(s.services.Processor, s.config.Output.InputCSV, s.logger)
		v1.POST("/process", processHandler.Process)

		if s.services.CacheService != nil {
			cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.logger)
			cache := v1.Group("/cache")
			{
				cache.GET("/stats", cacheHandler.GetStats)
				cache.DELETE("/clear", cacheHandler.Clear)
				cache.DELETE("/:cep", cacheHandler.Delete)
			}
		}
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	s.Router.HandleMethodNotAllowed = true
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}

// Close releases background resources held by the router
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
