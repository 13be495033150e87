package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"askflow/backend/internal/api"
	"askflow/backend/internal/config"
	"askflow/backend/internal/database"
	"askflow/backend/internal/extract"
	"askflow/backend/internal/llm"
	"askflow/backend/internal/observability"
	"askflow/backend/internal/repository"
	"askflow/backend/internal/search"
	"askflow/backend/internal/service"
	"askflow/backend/internal/session"
	"askflow/backend/internal/storage"
	"askflow/backend/internal/tools"
)

const shutdownTimeout = 30 * time.Second

// App is the assembled server with the resources that need an orderly shutdown.
type App struct {
	Config       *config.Config
	DB           *sql.DB
	Server       *http.Server
	Orchestrator *service.Orchestrator
	Store        storage.BlobStore

	shutdownTracer func(context.Context) error
}

// NewApp wires every component from cfg. The caller owns the returned App and
// must call Close.
func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName: "askflow",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Blob storage ready.", "backend", cfg.StorageBackend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	repo := repository.NewSQLiteRepository(db)
	provider := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	images := llm.NewOpenAIImageGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ImageModel)
	searcher := search.NewClient(cfg.SearchAPIURL, cfg.SearchAPIKey)

	settingsService := service.NewSettingsService(db, provider, service.Settings{
		QuickModel:    cfg.QuickModel,
		ThinkModel:    cfg.ThinkModel,
		ResearchModel: cfg.ResearchModel,
		TitleModel:    cfg.TitleModel,
		ImageModel:    cfg.ImageModel,
	})
	appSettings, err := settingsService.InitAndGet(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize application settings: %w", err)
	}
	slog.Info("Loaded application settings", "quick_model", appSettings.QuickModel, "think_model", appSettings.ThinkModel)

	chatService := service.NewChatService(repo, provider, settingsService)
	spaceService := service.NewSpaceService(repo)
	modelService := service.NewModelService(provider)

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		Repo:              repo,
		Provider:          provider,
		Tools:             tools.NewRegistry(time.Now),
		Executor:          tools.NewExecutor(searcher, images, store, metrics, tracer),
		Sessions:          session.NewRegistry(),
		Store:             store,
		Models:            settingsService,
		Titles:            chatService,
		Metrics:           metrics,
		Tracer:            tracer,
		KeepAliveInterval: cfg.KeepAliveInterval,
	})

	router := api.NewRouter(api.Handlers{
		Chat:     api.NewChatHandler(chatService, spaceService, settingsService),
		Exchange: api.NewExchangeHandler(orchestrator, extract.New(cfg.MaxDocumentChars), cfg.MaxUploadBytes),
		Models:   api.NewModelHandler(modelService),
		Files:    api.NewFileHandler(store),
	}, api.AuthMiddleware(cfg.JWTSecret), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		Config:         cfg,
		DB:             db,
		Server:         server,
		Orchestrator:   orchestrator,
		Store:          store,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Close waits for background persistence, then releases storage, tracing and
// the database, in that order.
func (a *App) Close(ctx context.Context) error {
	waited := make(chan struct{})
	go func() {
		a.Orchestrator.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		slog.Warn("Timed out waiting for background persistence", "error", ctx.Err())
	}

	var errs []error
	if c, ok := a.Store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}

// Run loads the configuration, serves until SIGINT or SIGTERM and returns the
// process exit code.
func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel, cfg.LogFormat)

	logConfigSource()

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to start application", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.AppPort)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	code := 0
	select {
	case err := <-serveErr:
		if err != nil {
			slog.Error("Server failed", "error", err)
			code = 1
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down server gracefully", "error", err)
		code = 1
	}
	if err := app.Close(shutdownCtx); err != nil {
		slog.Error("Failed to release resources", "error", err)
		code = 1
	}
	return code
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch strings.ToLower(cfg.StorageBackend) {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Prefix:          cfg.S3Prefix,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	case "", "file":
		return storage.NewFileStore(cfg.StorageDir, cfg.StoragePublicURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger installs the default logger. "text" gives a colored console
// format for local runs; anything else is JSON.
func setupLogger(logLevel, format string) {
	level := parseLevel(logLevel)

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	slog.SetDefault(slog.New(handler))
}
