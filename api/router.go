package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/pdf-ocr-service/api/handler"
	"github.com/fyerfyer/pdf-ocr-service/api/middleware"
)

// SetupRouter configures all API endpoints and middleware.
// jobHandler may be nil when the async queue is disabled.
func SetupRouter(ocrHandler *handler.OCRHandler, jobHandler *handler.JobHandler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		// Synchronous recognition - POST /api/ocr
		api.POST("/ocr", ocrHandler.Recognize)

		// Batch recognition - POST /api/ocr/batch
		api.POST("/ocr/batch", ocrHandler.RecognizeBatch)

		// Health check - GET /api/health
		api.GET("/health", ocrHandler.Health)

		// Async job API, present only when the queue is enabled
		if jobHandler != nil {
			jobGroup := api.Group("/jobs")
			{
				jobGroup.POST("", jobHandler.CreateJob)
				jobGroup.GET("", jobHandler.ListJobs)
				jobGroup.GET("/:id", jobHandler.GetJob)
				jobGroup.DELETE("/:id", jobHandler.DeleteJob)
			}
		}
	}

	return router
}

// Cors allows cross-origin requests when the service sits behind a browser client.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
