package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"searchhub/backend/internal/api"
	"searchhub/backend/internal/config"
	"searchhub/backend/internal/currency"
	"searchhub/backend/internal/database"
	"searchhub/backend/internal/llm"
	"searchhub/backend/internal/repository"
	"searchhub/backend/internal/service"
)

// App holds the wired application: the open database handle and the configured
// HTTP server, ready to listen.
type App struct {
	DB     *sql.DB
	Server *http.Server
}

// NewApp wires every component from the configuration. It does not start
// listening; Run does that.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.")

	repo := repository.NewSQLiteRepository(db)
	provider := llm.NewOpenAIProvider(cfg.CompletionsURL, cfg.CompletionsAPIKey)

	settingsService := service.NewSettingsService(db)
	appSettings, err := settingsService.InitAndGet(context.Background(), service.Settings{
		SystemPrompt: cfg.InitialSystemPrompt,
		MainModel:    cfg.MainModel,
		SupportModel: cfg.SupportModel,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize application settings: %w", err)
	}
	slog.Info("Loaded application settings", "main_model", appSettings.MainModel)

	chatService := service.NewChatService(repo, provider, settingsService, cfg.NonStreamModel)

	rateSource := currency.NewClient(cfg.RateAPIURL, cfg.RateAPIKey)
	rateCache := newRateCache(cfg.RedisAddr)
	converter := currency.NewConverter(rateSource, rateCache)
	answerService := service.NewAnswerService(converter)

	chatHandler := api.NewChatHandler(chatService, settingsService)
	answersHandler := api.NewAnswersHandler(answerService)
	router := api.NewRouter(chatHandler, answersHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{DB: db, Server: server}, nil
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this one.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)
	logConfigSource()

	application, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to build application", "error", err)
		return 1
	}
	defer func() {
		if err := application.DB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	slog.Info("Starting server", "addr", application.Server.Addr)
	if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}
	return 0
}

// newRateCache picks the exchange-rate cache backend: Redis when an address is
// configured, otherwise in-process memory. Both honor the same TTL.
func newRateCache(redisAddr string) currency.Cache {
	if redisAddr == "" {
		slog.Info("Using in-memory exchange rate cache")
		return currency.NewMemoryCache()
	}
	slog.Info("Using Redis exchange rate cache", "addr", redisAddr)
	return currency.NewRedisCache(redis.NewClient(&redis.Options{Addr: redisAddr}))
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
