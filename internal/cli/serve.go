package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aichat/internal/ai"
	"aichat/internal/cache"
	"aichat/internal/chat"
	"aichat/internal/config"
	"aichat/internal/database"
	"aichat/internal/handlers"
	"aichat/internal/middleware"
	"aichat/internal/render"
	"aichat/internal/router"
	"aichat/internal/session"
	"aichat/internal/storage"
	"aichat/internal/store"
	"aichat/web"
)

// shutdownTimeout bounds how long in-flight requests may take to finish
// after SIGINT or SIGTERM.
const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			setupLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

// providerConfigs maps every provider name to its settings from cfg.
// Providers without a key are skipped by ai.NewRegistry.
func providerConfigs(cfg *config.Config) map[string]ai.ProviderConfig {
	return map[string]ai.ProviderConfig{
		"openrouter": {
			APIKey:  cfg.OpenRouterKey,
			Model:   cfg.OpenRouterModel,
			BaseURL: cfg.OpenRouterBaseURL,
			Headers: ai.OpenRouterHeaders(cfg.OpenRouterReferer, cfg.OpenRouterTitle),
		},
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	}
}

// serve connects every backend, builds the router and runs the HTTP server
// until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"timezone", cfg.Location().String(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	// Seed the demo conversation in development (no-op if it exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	var archive handlers.Archiver
	if cfg.HasStorage() {
		storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3BucketPrivate)
		if err != nil {
			return fmt.Errorf("init s3 storage: %w", err)
		}
		if storageClient != nil {
			archive = storageClient
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
		}
	} else {
		slog.Warn("s3 storage not configured, transcript archiving disabled")
	}

	registry := ai.NewRegistry(cfg.AIProvider, providerConfigs(cfg))
	if len(registry.Available()) == 0 {
		slog.Warn("no ai provider configured, chat requests will fail")
	} else if !registry.HasProvider(cfg.AIProvider) {
		slog.Warn("active ai provider has no api key, chat requests will fail until it is switched",
			"provider", cfg.AIProvider)
	}
	slog.Info("ai providers initialized",
		"active", registry.ActiveName(),
		"available", registry.Available(),
	)

	service := chat.NewService(store.NewConversationStore(db), registry,
		chat.WithCache(cache.NewHistoryCache(valkeyClient, cache.DefaultHistoryTTL)),
		chat.WithSystemPrompt(cfg.SystemPrompt),
		chat.WithLocation(cfg.Location()),
	)

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN not set, provider switching disabled")
	}

	r := router.New(router.Deps{
		Chat:       handlers.NewChat(service, archive),
		Session:    handlers.NewSession(session.NewStore(valkeyClient), !cfg.IsDev()),
		Pages:      handlers.NewPages(renderer, service),
		Providers:  handlers.NewProviders(registry),
		Limiter:    limiter,
		Static:     web.Static(),
		AdminToken: cfg.AdminToken,
	})

	// WriteTimeout must outlast the provider client timeout.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
