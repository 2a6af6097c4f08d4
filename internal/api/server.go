package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"loglite/internal/api/handlers"

	"github.com/gin-gonic/gin"
	"github.com/pterm/pterm"
)

// Server is the thin HTTP adapter in front of the ingestion/search/admin
// core: routing, body decoding, and status codes only. The route table
// mirrors spec.md §6 exactly.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *pterm.Logger
	port   int
}

type Config struct {
	Host       string
	Port       int
	Production bool
}

// NewServer wires the literal route table of spec.md §6 onto the given
// handlers.
func NewServer(
	cfg *Config,
	apps *handlers.AppsHandler,
	sources *handlers.SourcesHandler,
	ingest *handlers.IngestHandler,
	search *handlers.SearchHandler,
	logger *pterm.Logger,
) *Server {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/apps", apps.Create)
		api.GET("/apps", apps.List)

		api.POST("/sources", sources.Create)
		api.GET("/sources", sources.List)
		api.GET("/sources/:id", sources.Get)
		api.PUT("/sources/:id", sources.Update)
		api.DELETE("/sources/:id", sources.Delete)

		api.POST("/ingest", ingest.IngestJSON)
		api.POST("/ingest/:format", ingest.IngestText)

		api.POST("/search", search.Search)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		router: router,
		server: &http.Server{
			Addr:           addr,
			Handler:        router,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		logger: logger,
		port:   cfg.Port,
	}
}

func (s *Server) Run() error {
	s.logger.Info("Starting web server", s.logger.Args("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.WithCaller().Error("Web server failed", s.logger.Args("error", err))
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web server...")
	return s.server.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
