package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/barisgudul/therapy-backend/internal/http/handlers"
	"github.com/barisgudul/therapy-backend/internal/http/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AuthMiddleware *middleware.AuthMiddleware
	MemoryHandler  *handlers.MemoryHandler
	DnaHandler     *handlers.DnaHandler
	VaultHandler   *handlers.VaultHandler
	UserHandler    *handlers.UserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Memory pipeline
	protected.POST("/memory/ingest", cfg.MemoryHandler.Ingest)
	// DNA synthesis
	protected.POST("/dna/synthesize", cfg.DnaHandler.Synthesize)
	// Vault + traits
	protected.GET("/vault", cfg.VaultHandler.GetVault)
	protected.PATCH("/vault", cfg.VaultHandler.UpdateVault)
	protected.GET("/traits", cfg.VaultHandler.GetTraits)
	// Account reset
	protected.DELETE("/user/data", cfg.UserHandler.EraseData)

	return router
}
