// Package main is the entrypoint for the ClaimFlow API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/joho/godotenv/autoload"

	"github.com/claimflow/claimflow/internal/config"
	"github.com/claimflow/claimflow/internal/handler"
	"github.com/claimflow/claimflow/internal/metrics"
	"github.com/claimflow/claimflow/internal/middleware"
	"github.com/claimflow/claimflow/internal/server"
	"github.com/claimflow/claimflow/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// A missing or unreachable store is not fatal: the server still answers
	// and reports the problem on /test.
	docStore, openErr := openStore(ctx, cfg, logger)

	r := setupRouter(cfg, docStore, openErr, metrics.NewNoop(), logger)

	srv := server.New(r, server.Options{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
	})
	if docStore != nil {
		srv.OnShutdown("store", func(ctx context.Context) error {
			return docStore.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"store_configured", docStore != nil,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects the document store described by cfg.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.DocumentStore, error) {
	if cfg.DatabaseURL == "" && cfg.StoreDriver == "" {
		logger.Warn("DATABASE_URL not set, running without a document store")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	docStore, err := store.Open(ctx, store.Options{
		URL:    cfg.DatabaseURL,
		Name:   cfg.DatabaseName,
		Driver: cfg.StoreDriver,
		Logger: logger,
	})
	if err != nil {
		logger.Error(
			"failed to connect to document store",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, err
	}
	if docStore == nil {
		logger.Warn("no document store configured")
		return nil, nil
	}

	logger.Info("connected to document store", "name", docStore.Name())
	return docStore, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
// docStore may be nil.
func setupRouter(
	cfg *config.Config,
	docStore store.DocumentStore,
	openErr error,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *chi.Mux {
	h := handler.New()
	healthHandler := handler.NewHealthHandler(docStore)
	submissionHandler := handler.NewSubmissionHandler(docStore, recorder, logger, cfg.ExposeErrorDetail)
	diagnosticsHandler := handler.NewDiagnosticsHandler(handler.DiagnosticsConfig{
		Store:        docStore,
		OpenErr:      openErr,
		DatabaseURL:  cfg.DatabaseURL,
		DatabaseName: cfg.DatabaseName,
	}, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	r.Get("/", h.Root)
	r.Get("/test", diagnosticsHandler.Test)

	r.Route("/api", func(r chi.Router) {
		r.Get("/hello", h.Hello)
		r.Post("/contact", submissionHandler.Contact)
		r.Post("/subscribe", submissionHandler.Subscribe)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
