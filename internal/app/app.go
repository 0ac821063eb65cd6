// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Corphon/StandfmAI/internal/api"
	"github.com/Corphon/StandfmAI/internal/config"
	"github.com/Corphon/StandfmAI/internal/di"
	"github.com/Corphon/StandfmAI/internal/llm"
	"github.com/Corphon/StandfmAI/internal/llm/providers/openai"
	"github.com/Corphon/StandfmAI/internal/services"
	"github.com/Corphon/StandfmAI/internal/storage"
	"github.com/Corphon/StandfmAI/internal/utils"

	// registers the "google" provider
	_ "github.com/Corphon/StandfmAI/internal/llm/providers/google"
)

const (
	trackerMaxAge    = 30 * time.Minute
	maintenanceEvery = 5 * time.Minute
	shutdownTimeout  = 30 * time.Second
)

// App owns the HTTP server and the services behind it.
type App struct {
	config   *config.Config
	router   http.Handler
	server   *http.Server
	store    storage.Store
	progress *services.ProgressService
	metrics  *utils.AppMetrics
	logger   *utils.Logger
}

// New configures logging, initializes services and builds the router.
func New(cfg *config.Config) (*App, error) {
	logger := utils.GetLogger()
	logger.SetLogLevel(utils.ParseLogLevel(cfg.Logging.Level))
	if cfg.Logging.File != "" {
		if err := utils.InitLogger(cfg.Logging.File); err != nil {
			return nil, err
		}
	}

	if err := InitServices(cfg); err != nil {
		return nil, err
	}

	router, err := api.SetupRouter(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup router: %w", err)
	}

	container := di.GetContainer()
	return &App{
		config:   cfg,
		router:   router,
		store:    container.Get(di.ServiceStore).(storage.Store),
		progress: container.Get(di.ServiceProgress).(*services.ProgressService),
		metrics:  container.Get(di.ServiceMetrics).(*utils.AppMetrics),
		logger:   logger,
	}, nil
}

// InitServices builds every service in dependency order and registers it in
// the DI container. A collaborator whose key is missing stays unregistered and
// the generation service answers with canned responses.
func InitServices(cfg *config.Config) error {
	container := di.GetContainer()
	logger := utils.GetLogger()

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	container.Register(di.ServiceStore, store)

	metrics := utils.NewAppMetrics()
	container.Register(di.ServiceMetrics, metrics)
	container.Register(di.ServiceProgress, services.NewProgressService())

	history := services.NewHistoryService(store)
	profiles := services.NewProfileService(store)
	scripts := services.NewScriptLibraryService(store)
	container.Register(di.ServiceHistory, history)
	container.Register(di.ServiceProfile, profiles)
	container.Register(di.ServiceScripts, scripts)
	container.Register(di.ServiceExport, services.NewExportService(scripts, filepath.Join(cfg.Storage.DataDir, "tmp")))

	var transcriber services.Transcriber
	if cfg.HasTranscriptionKey() {
		provider, err := openai.New(map[string]string{
			"api_key":  cfg.Providers.OpenAIAPIKey,
			"base_url": cfg.Providers.OpenAIBaseURL,
		})
		if err != nil {
			return fmt.Errorf("init transcription provider: %w", err)
		}
		transcriber = services.NewTranscriptionService(provider, cfg.Providers.TranscriptionModel, cfg.Providers.TranscriptionLanguage)
		container.Register(di.ServiceTranscriber, transcriber)
	}

	var generator services.TextGenerator
	if cfg.HasGenerationKey() {
		provider, err := llm.GetProvider(cfg.Providers.GenerationProvider, generationProviderConfig(cfg))
		if err != nil {
			return fmt.Errorf("init generation provider: %w", err)
		}
		generator = services.NewLLMService(cfg.Providers.GenerationProvider, provider, cfg.Providers.GenerationModel)
		container.Register(di.ServiceGenerator, generator)
	}

	generation := services.NewGenerationService(transcriber, generator, history, profiles)
	generation.SetMaxUploadBytes(cfg.MaxUploadBytes())
	generation.SetMetrics(metrics)
	container.Register(di.ServiceGeneration, generation)

	logger.Info("Services initialized", map[string]interface{}{
		"storage":             cfg.Storage.Driver,
		"generation_provider": cfg.Providers.GenerationProvider,
		"mock_mode":           generation.MockMode(),
		"script_mock_mode":    generation.ScriptMockMode(),
	})
	return nil
}

func generationProviderConfig(cfg *config.Config) map[string]string {
	settings := map[string]string{"default_model": cfg.Providers.GenerationModel}
	switch cfg.Providers.GenerationProvider {
	case openai.ProviderName:
		settings["api_key"] = cfg.Providers.OpenAIAPIKey
		settings["base_url"] = cfg.Providers.OpenAIBaseURL
	default:
		settings["api_key"] = cfg.Providers.GoogleAIAPIKey
	}
	return settings
}

// Handler exposes the router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.server = &http.Server{
		Addr:              ":" + a.config.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.metrics.StartMetricsCollection(bgCtx, maintenanceEvery)
	go a.maintain(bgCtx)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Server listening", map[string]interface{}{
			"addr":      a.server.Addr,
			"mock_mode": a.config.MockMode(),
		})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server", nil)
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// maintain drops finished progress trackers periodically.
func (a *App) maintain(ctx context.Context) {
	ticker := time.NewTicker(maintenanceEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.progress.CleanupCompletedTasks(trackerMaxAge); n > 0 {
				a.logger.Debug("Removed finished progress trackers", map[string]interface{}{"count": n})
			}
		}
	}
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}
