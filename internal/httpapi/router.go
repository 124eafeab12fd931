package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jyotish-ai/server/internal/agent/model"
)

// NewRouter wires up the handlers and returns a configured server.
func NewRouter(cfg model.HTTPConfig, handler *Handler) *http.Server {
	return &http.Server{
		Addr:           cfg.Addr,
		Handler:        NewEngine(handler),
		ReadTimeout:    time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// NewEngine builds the gin engine; split out so tests can drive it with httptest.
func NewEngine(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/sessions", handler.StartSession)
		api.GET("/sessions/:id/messages", handler.History)
		api.POST("/sessions/:id/messages", handler.Ask)
		api.DELETE("/sessions/:id", handler.EndSession)
	}
	return router
}
