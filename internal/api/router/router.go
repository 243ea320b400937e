package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OscarAspelin95/dx-go/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": deps.Config.App.Name,
		})
	})

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Initialize sample handler
	sampleHandler := handler.NewSampleHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// POST /api/v1/upload - Upload a fastq file and queue processing
		v1.POST("/upload", sampleHandler.Upload)

		samples := v1.Group("/samples")
		{
			// GET /api/v1/samples - List samples with filtering and pagination
			samples.GET("", sampleHandler.ListSamples)

			// GET /api/v1/samples/:sample_id - Get sample details and latest result
			samples.GET("/:sample_id", sampleHandler.GetSample)
		}
	}

	return r
}
