// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	StoreNATS     = "nats"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	AllowedOrigins     []string

	// Storage
	StoreBackend string
	PostgresDSN  string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Redis tool-context cache; disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// JWT settings
	JWTSecret string

	// Provider credentials
	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	OllamaURL       string

	// Chat
	ChatProvider     string
	ChatModel        string
	ChatTemperature  float64
	ChatMaxTokens    int
	ChatHistoryTurns int
	LLMTimeout       time.Duration

	// Tool context
	ToolMCPURL  string
	ToolTimeout time.Duration

	// Try-on
	VisionProviders    []ProviderSpec
	TryOnProviders     []ProviderSpec
	VisionTimeout      time.Duration
	ImageTimeout       time.Duration
	ImageAspectRatio   string
	ImageSafetyLevel   string
	TryOnProvidersFile string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables. Only the provider
// chains can fail to parse.
func Load() (*Config, error) {
	cfg := &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 180*time.Second),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		// Storage
		StoreBackend: getEnv("STORE_BACKEND", StoreNATS),
		PostgresDSN:  getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=fashion port=5432 sslmode=disable"),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisTTL:      getDurationEnv("REDIS_TTL", 15*time.Minute),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Providers
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OllamaURL:       getEnv("OLLAMA_HOST", ""),

		// Chat
		ChatProvider:     getEnv("CHAT_PROVIDER", "groq"),
		ChatModel:        getEnv("CHAT_MODEL", ""),
		ChatTemperature:  getFloatEnv("CHAT_TEMPERATURE", 0.7),
		ChatMaxTokens:    getIntEnv("CHAT_MAX_TOKENS", 1024),
		ChatHistoryTurns: getIntEnv("CHAT_HISTORY_TURNS", 5),
		LLMTimeout:       getDurationEnv("LLM_TIMEOUT", 60*time.Second),

		// Tool context
		ToolMCPURL:  getEnv("TOOL_MCP_URL", ""),
		ToolTimeout: getDurationEnv("TOOL_TIMEOUT", 3*time.Second),

		// Try-on
		VisionTimeout:      getDurationEnv("VISION_TIMEOUT", 30*time.Second),
		ImageTimeout:       getDurationEnv("IMAGE_TIMEOUT", 90*time.Second),
		ImageAspectRatio:   getEnv("IMAGE_ASPECT_RATIO", "3:4"),
		ImageSafetyLevel:   getEnv("IMAGE_SAFETY_LEVEL", "BLOCK_MEDIUM_AND_ABOVE"),
		TryOnProvidersFile: getEnv("TRYON_PROVIDERS_FILE", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}

	// Other providers use their client's default model.
	if cfg.ChatModel == "" && cfg.ChatProvider == "groq" {
		cfg.ChatModel = "llama-3.1-8b-instant"
	}

	switch cfg.StoreBackend {
	case StoreNATS, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	var err error
	if cfg.TryOnProvidersFile != "" {
		cfg.VisionProviders, cfg.TryOnProviders, err = LoadProviderFile(cfg.TryOnProvidersFile)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if cfg.VisionProviders, err = ParseProviderList(getEnv("VISION_PROVIDERS", DefaultVisionProviders)); err != nil {
		return nil, fmt.Errorf("VISION_PROVIDERS: %w", err)
	}
	if cfg.TryOnProviders, err = ParseProviderList(getEnv("TRYON_PROVIDERS", DefaultTryOnProviders)); err != nil {
		return nil, fmt.Errorf("TRYON_PROVIDERS: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
