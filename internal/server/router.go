package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the handler's endpoints into a gin engine.
func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(CORS())

	router.POST("/analyze", h.Analyze)
	router.POST("/cleanup/:session_id", h.Cleanup)
	router.GET("/reverse/:engine", h.Reverse)
	router.GET("/export/:session_id/:image_id", h.Export)
	router.GET("/uploads/:session_id/:image_id", h.ServeUpload)
	router.GET("/health", h.Health)

	return router
}
