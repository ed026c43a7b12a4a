package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opuluxe-ai/fashion-assistant/internal/middleware"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

// RouterConfig collects everything the HTTP surface needs.
type RouterConfig struct {
	JWTSecret         string
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	Health        *HealthHandler
	Chat          *ChatHandler
	Conversations *ConversationHandler
	Profiles      *ProfileHandler
	TryOn         *TryOnHandler

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler

	Logger *logger.Logger
}

// NewRouter builds the chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Identify(cfg.JWTSecret))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Post("/chat", cfg.Chat.Chat)
		r.Post("/tryon", cfg.TryOn.TryOn)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", cfg.Conversations.List)
				r.Get("/{sessionID}", cfg.Conversations.Get)
				r.Delete("/{sessionID}", cfg.Conversations.Delete)
			})

			r.Route("/profiles", func(r chi.Router) {
				r.Get("/", cfg.Profiles.List)
				r.Post("/", cfg.Profiles.Save)
				r.Get("/{profileID}", cfg.Profiles.Get)
				r.Delete("/{profileID}", cfg.Profiles.Delete)
			})
		})
	})

	return r
}
