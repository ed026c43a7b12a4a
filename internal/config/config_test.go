package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChatProvider != "groq" || cfg.ChatModel != "llama-3.1-8b-instant" {
		t.Errorf("chat = %s/%s, want groq/llama-3.1-8b-instant", cfg.ChatProvider, cfg.ChatModel)
	}
	if cfg.ChatHistoryTurns != 5 || cfg.ChatTemperature != 0.7 || cfg.ChatMaxTokens != 1024 {
		t.Errorf("unexpected chat parameters: %+v", cfg)
	}
	if cfg.StoreBackend != StoreNATS {
		t.Errorf("StoreBackend = %q, want nats", cfg.StoreBackend)
	}
	if len(cfg.TryOnProviders) != 3 || cfg.TryOnProviders[2].Model != "dall-e-3" {
		t.Errorf("TryOnProviders = %v", cfg.TryOnProviders)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHAT_HISTORY_TURNS", "8")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TRYON_PROVIDERS", "openai:dall-e-3, gemini:imagen-4.0-generate-001")
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChatHistoryTurns != 8 {
		t.Errorf("ChatHistoryTurns = %d, want 8", cfg.ChatHistoryTurns)
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Errorf("LLMTimeout = %v, want 15s", cfg.LLMTimeout)
	}
	if cfg.RateLimitRequests != 60 {
		t.Errorf("RateLimitRequests = %d, want fallback 60", cfg.RateLimitRequests)
	}
	want := []ProviderSpec{{"openai", "dall-e-3"}, {"gemini", "imagen-4.0-generate-001"}}
	if len(cfg.TryOnProviders) != len(want) {
		t.Fatalf("TryOnProviders = %v, want %v", cfg.TryOnProviders, want)
	}
	for i := range want {
		if cfg.TryOnProviders[i] != want[i] {
			t.Errorf("TryOnProviders[%d] = %v, want %v", i, cfg.TryOnProviders[i], want[i])
		}
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	if _, err := Load(); err == nil {
		t.Error("Load() accepted unknown store backend")
	}
}

func TestParseProviderList(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"openai:dall-e-3", 1, false},
		{"a:b, c:d ,", 2, false},
		{"", 0, false},
		{"openai", 0, true},
		{"openai:", 0, true},
		{":model", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseProviderList(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProviderList(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("ParseProviderList(%q) = %d entries, want %d", tt.in, len(got), tt.want)
		}
	}
}

func TestLoadProviderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.toml")
	content := `
[[vision]]
provider = "anthropic"
model = "claude-sonnet-4-5"

[[providers]]
provider = "gemini"
model = "imagen-4.0-generate-001"

[[providers]]
provider = "openai"
model = "dall-e-3"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRYON_PROVIDERS_FILE", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.VisionProviders) != 1 || cfg.VisionProviders[0].Provider != "anthropic" {
		t.Errorf("VisionProviders = %v", cfg.VisionProviders)
	}
	if len(cfg.TryOnProviders) != 2 || cfg.TryOnProviders[0].String() != "gemini:imagen-4.0-generate-001" {
		t.Errorf("TryOnProviders = %v", cfg.TryOnProviders)
	}
}

func TestLoadProviderFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.toml")
	if err := os.WriteFile(path, []byte("[[providers]]\nprovider = \"openai\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadProviderFile(path); err == nil {
		t.Error("LoadProviderFile() accepted entry without model")
	}
}
