package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VilyWonca/KAF-BACK/config"
	"github.com/VilyWonca/KAF-BACK/core/answer"
	"github.com/VilyWonca/KAF-BACK/core/ingest"
	"github.com/VilyWonca/KAF-BACK/core/pipeline"
	"github.com/VilyWonca/KAF-BACK/database"
)

// Server exposes document management over HTTP and chat over websocket.
// When documents is nil the server runs degraded: it serves health and
// root but rejects storage-backed operations.
type Server struct {
	cfg       *config.Config
	documents database.DocumentsDBHandlerFunctions
	ingest    *ingest.Pipeline
	composer  *answer.Composer
	embed     pipeline.EmbedFunc
	log       *slog.Logger
}

// NewServer wires the service surface together
func NewServer(
	cfg *config.Config,
	documents database.DocumentsDBHandlerFunctions,
	ingestPipeline *ingest.Pipeline,
	composer *answer.Composer,
	embed pipeline.EmbedFunc,
	logger *slog.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		documents: documents,
		ingest:    ingestPipeline,
		composer:  composer,
		embed:     embed,
		log:       logger,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/uploads", s.handleUpload)
		api.DELETE("/documents", s.handleDeleteDocuments)
		api.GET("/documents/export", s.handleExport)
	}

	router.GET("/ws", s.handleChat)

	return router
}

// Run starts the HTTP server on the configured port
func (s *Server) Run() error {
	s.log.Info("Starting server", slog.String("port", s.cfg.ServerPort))
	return s.Router().Run(":" + s.cfg.ServerPort)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "kaf-back", "status": "running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.documents == nil {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "storage": "unavailable"})
		return
	}

	count, err := s.documents.CountDocuments()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "storage": "unreachable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": count})
}

// storageUnavailable rejects storage-backed requests in degraded mode
func (s *Server) storageUnavailable(c *gin.Context) bool {
	if s.documents != nil {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document storage is unavailable"})
	return true
}
