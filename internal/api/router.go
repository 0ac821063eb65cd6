// internal/api/router.go
package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StandfmAI/internal/config"
	"github.com/Corphon/StandfmAI/internal/di"
	"github.com/Corphon/StandfmAI/internal/services"
	"github.com/Corphon/StandfmAI/internal/utils"
)

// SetupRouter builds the router from the services registered in the DI container.
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	container := di.GetContainer()

	generation, ok := container.Get(di.ServiceGeneration).(*services.GenerationService)
	if !ok {
		return nil, fmt.Errorf("generation service not initialized")
	}
	progress, ok := container.Get(di.ServiceProgress).(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("progress service not initialized")
	}
	history, ok := container.Get(di.ServiceHistory).(*services.HistoryService)
	if !ok {
		return nil, fmt.Errorf("history service not initialized")
	}
	profiles, ok := container.Get(di.ServiceProfile).(*services.ProfileService)
	if !ok {
		return nil, fmt.Errorf("profile service not initialized")
	}
	scripts, ok := container.Get(di.ServiceScripts).(*services.ScriptLibraryService)
	if !ok {
		return nil, fmt.Errorf("script library not initialized")
	}
	export, ok := container.Get(di.ServiceExport).(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("export service not initialized")
	}
	metrics, ok := container.Get(di.ServiceMetrics).(*utils.AppMetrics)
	if !ok {
		return nil, fmt.Errorf("metrics not initialized")
	}

	handler := NewHandler(generation, progress, history, profiles, scripts, export, metrics,
		StatusReport{
			TranscriptionConfigured: cfg.HasTranscriptionKey(),
			GenerationConfigured:    cfg.HasGenerationKey(),
			GenerationProvider:      cfg.Providers.GenerationProvider,
			StorageDriver:           cfg.Storage.Driver,
		},
		cfg.MaxUploadBytes(),
	)

	var limiter *RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = NewRateLimiter(cfg.Server.RateLimit, time.Minute)
	}
	return NewRouter(handler, limiter, cfg.Server.DebugMode), nil
}

// NewRouter registers every route on a new engine. limiter may be nil.
func NewRouter(handler *Handler, limiter *RateLimiter, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(handler.logger, handler.Metrics))
	r.Use(CORSMiddleware())

	r.NoRoute(func(c *gin.Context) {
		handler.Response.NotFound(c, ErrorNotFound, "ページが見つかりません")
	})

	// Web share target
	r.GET("/share", handler.GetShare)
	r.POST("/share", handler.PostShare)

	r.GET("/ws/progress/:taskID", handler.ProgressWebSocket)

	api := r.Group("/api")
	{
		api.GET("/status", handler.GetStatus)
		api.GET("/metrics", handler.GetMetrics)
		api.GET("/progress/:taskID", handler.SubscribeProgress)
		api.POST("/tasks", handler.CreateTask)

		generation := api.Group("")
		if limiter != nil {
			generation.Use(RateLimitByIP(limiter, handler.Response))
		}
		generation.POST("/process", handler.ProcessAudio)
		generation.POST("/script", handler.GenerateScript)

		api.POST("/materials/select", handler.SelectMaterials)

		historyGroup := api.Group("/history")
		{
			historyGroup.GET("", handler.ListHistory)
			historyGroup.DELETE("", handler.ClearHistory)
			historyGroup.GET("/:id", handler.GetHistoryPost)
			historyGroup.DELETE("/:id", handler.DeleteHistoryPost)
		}

		profileGroup := api.Group("/profile")
		{
			profileGroup.GET("", handler.GetProfile)
			profileGroup.PUT("", handler.SaveProfile)
			profileGroup.GET("/preview", handler.PreviewProfile)
		}

		scriptsGroup := api.Group("/scripts")
		{
			scriptsGroup.GET("", handler.ListScripts)
			scriptsGroup.POST("", handler.SaveScript)
			scriptsGroup.GET("/:id", handler.GetScript)
			scriptsGroup.DELETE("/:id", handler.DeleteScript)
			scriptsGroup.GET("/:id/export", handler.ExportScript)
		}
	}

	return r
}
