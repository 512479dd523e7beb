package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/http/handlers"
	"github.com/phambaophuc/artwork-critic/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	aiHandler *handlers.AIHandler
	logger    *zap.Logger
	hsts      bool
	maxBody   int64
}

func NewRouter(
	aiHandler *handlers.AIHandler,
	logger *zap.Logger,
	hsts bool,
	maxBody int64,
) *Router {
	return &Router{
		aiHandler: aiHandler,
		logger:    logger,
		hsts:      hsts,
		maxBody:   maxBody,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID(r.logger))
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders(r.hsts))

	api := router.Group("/api")
	{
		api.GET("/health", r.aiHandler.HealthCheck)
		api.GET("/stats", r.aiHandler.GetStats)

		ai := api.Group("/ai")
		ai.Use(middleware.BodyLimit(r.maxBody), middleware.RequireJSON())
		{
			ai.POST("/vision-analysis-stream", r.aiHandler.VisionAnalysisStream)
			ai.POST("/vision-analysis", r.aiHandler.VisionAnalysis)
			ai.POST("/critique", r.aiHandler.Critique)
			ai.POST("/agree-license", r.aiHandler.AgreeLicense)
			ai.POST("/generate-audio", r.aiHandler.GenerateAudio)
			ai.GET("/audio/:filename", r.aiHandler.GetAudio)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Artwork critic is running",
		})
	})

	return router
}
