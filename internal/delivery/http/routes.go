package http

import (
	"github.com/DiegoDok7/hiperalia-ean-processing/config"
	"github.com/gin-gonic/gin"
)

// maxFormMemory bounds multipart form parsing for batch uploads
const maxFormMemory = 8 << 20

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxFormMemory

	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/products", handler.ProcessProduct)
		v1.POST("/batches", handler.ProcessBatch)
		v1.GET("/archives/:id", handler.GetArchive)
	}

	return router
}
