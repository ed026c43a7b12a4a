// Package main is the entry point for the fashion assistant API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/classifier"
	"github.com/opuluxe-ai/fashion-assistant/internal/config"
	"github.com/opuluxe-ai/fashion-assistant/internal/handler"
	"github.com/opuluxe-ai/fashion-assistant/internal/llm"
	natsclient "github.com/opuluxe-ai/fashion-assistant/internal/nats"
	"github.com/opuluxe-ai/fashion-assistant/internal/service"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
	"github.com/opuluxe-ai/fashion-assistant/internal/toolctx"
	"github.com/opuluxe-ai/fashion-assistant/internal/tryon"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
	"github.com/opuluxe-ai/fashion-assistant/pkg/tracing"
)

const (
	serviceName = "fashion-assistant"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var log *logger.Logger
	if os.Getenv("ENV") == "development" {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server",
		zap.String("store", cfg.StoreBackend),
		zap.String("chat_provider", cfg.ChatProvider),
	)

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	st, pinger, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	registry := llm.NewRegistry(llm.Credentials{
		OpenAIKey:    cfg.OpenAIAPIKey,
		AnthropicKey: cfg.AnthropicAPIKey,
		GroqKey:      cfg.GroqAPIKey,
		GeminiKey:    cfg.GeminiAPIKey,
		OllamaURL:    cfg.OllamaURL,
	})

	// Without a chat client every chat request reports the service as disabled.
	chatClient, err := registry.Chat(ctx, llm.Provider(cfg.ChatProvider))
	if err != nil {
		log.Warn("chat backend unavailable, chat disabled", zap.String("provider", cfg.ChatProvider), zap.Error(err))
		chatClient = nil
	}

	catalog := toolctx.NewCatalog()
	mcpServer := toolctx.NewMCPServer(catalog, version)
	tools, closeTools := openTools(ctx, cfg, mcpServer, catalog, log)
	defer closeTools()

	recorder := service.NewRecorder(st, log)
	dispatcher := service.NewDispatcher(chatClient, service.DispatcherConfig{
		Model:        cfg.ChatModel,
		Temperature:  cfg.ChatTemperature,
		MaxTokens:    cfg.ChatMaxTokens,
		HistoryTurns: cfg.ChatHistoryTurns,
		Timeout:      cfg.LLMTimeout,
	}, log)
	analyzers := buildAnalyzers(ctx, registry, cfg.VisionProviders, log)
	photos := tryon.NewDescriber(analyzers, cfg.VisionTimeout, log)
	chatSvc := service.NewChatService(classifier.New(), tools, photos, dispatcher, recorder, cfg.ToolTimeout, log)
	conversationSvc := service.NewConversationService(st, log)
	profileSvc := service.NewProfileService(st)

	pipeline := tryon.NewPipeline(
		analyzers,
		buildGenerators(ctx, registry, cfg.TryOnProviders, log),
		tryon.Config{
			AnalysisTimeout:   cfg.VisionTimeout,
			GenerationTimeout: cfg.ImageTimeout,
			AspectRatio:       cfg.ImageAspectRatio,
			SafetyLevel:       cfg.ImageSafetyLevel,
		},
		log,
	)

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Health:            handler.NewHealthHandler(cfg.StoreBackend, pinger),
		Chat:              handler.NewChatHandler(chatSvc, log),
		Conversations:     handler.NewConversationHandler(conversationSvc, log),
		Profiles:          handler.NewProfileHandler(profileSvc, log),
		TryOn:             handler.NewTryOnHandler(pipeline, log),
		MCP:               server.NewStreamableHTTPServer(mcpServer),
		Logger:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// openStore connects the configured backend. The returned pinger is nil for
// the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, store.Pinger, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreNATS:
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return nil, nil, nil, err
		}
		kv, err := natsclient.NewKVStore(ctx, nc, log)
		if err != nil {
			nc.Close()
			return nil, nil, nil, err
		}
		return kv, kv, nc.Close, nil

	case config.StorePostgres:
		pg, err := store.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return pg, pg, func() {
			if err := pg.Close(); err != nil {
				log.Warn("failed to close postgres", zap.Error(err))
			}
		}, nil

	default:
		log.Warn("using in-memory store, transcripts are lost on restart")
		return store.NewMemory(), nil, func() {}, nil
	}
}

// openTools builds the tool-context provider chain: an MCP client (in-process
// or remote), optionally behind a Redis cache. When the MCP client cannot be
// started the catalog is used directly.
func openTools(ctx context.Context, cfg *config.Config, mcpServer *server.MCPServer, catalog *toolctx.Catalog, log *logger.Logger) (toolctx.Provider, func()) {
	var (
		provider toolctx.Provider = catalog
		closers  []func()
	)

	var (
		mcpProvider *toolctx.MCPProvider
		err         error
	)
	if cfg.ToolMCPURL != "" {
		mcpProvider, err = toolctx.NewRemoteMCPProvider(ctx, cfg.ToolMCPURL)
	} else {
		mcpProvider, err = toolctx.NewInProcessMCPProvider(ctx, mcpServer)
	}
	if err != nil {
		log.Warn("MCP tool client unavailable, using built-in catalog", zap.Error(err))
	} else {
		provider = mcpProvider
		closers = append(closers, func() { _ = mcpProvider.Close() })
	}

	if cfg.RedisAddr != "" {
		cached, err := toolctx.NewCachedProvider(ctx, toolctx.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		}, provider, log)
		if err != nil {
			log.Warn("redis unavailable, tool context not cached", zap.Error(err))
		} else {
			provider = cached
			closers = append(closers, func() { _ = cached.Close() })
		}
	}

	return provider, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func buildAnalyzers(ctx context.Context, registry *llm.Registry, specs []config.ProviderSpec, log *logger.Logger) []tryon.Analyzer {
	var out []tryon.Analyzer
	for _, spec := range specs {
		c, err := registry.Vision(ctx, llm.Provider(spec.Provider))
		if err != nil {
			log.Warn("skipping vision provider", zap.String("provider", spec.String()), zap.Error(err))
			continue
		}
		out = append(out, tryon.Analyzer{Provider: spec.Provider, Model: spec.Model, Client: c})
	}
	return out
}

func buildGenerators(ctx context.Context, registry *llm.Registry, specs []config.ProviderSpec, log *logger.Logger) []tryon.Generator {
	var out []tryon.Generator
	for _, spec := range specs {
		c, err := registry.Images(ctx, llm.Provider(spec.Provider))
		if err != nil {
			log.Warn("skipping image provider", zap.String("provider", spec.String()), zap.Error(err))
			continue
		}
		out = append(out, tryon.Generator{Provider: spec.Provider, Model: spec.Model, Client: c})
	}
	if len(out) == 0 {
		log.Warn("no image providers available, try-on disabled")
	}
	return out
}
