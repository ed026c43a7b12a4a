// Package llm provides language, vision and image model clients behind
// provider-neutral interfaces.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Image is a raw image payload with its MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageRequest asks an image backend to render a prompt.
type ImageRequest struct {
	Model       string
	Prompt      string
	Reference   *Image
	AspectRatio string
	SafetyLevel string
}

// Client is the interface for chat completion providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// VisionClient describes an image following an instruction.
type VisionClient interface {
	Describe(ctx context.Context, model string, img Image, instruction string) (string, error)
	Name() string
}

// ImageClient renders images from text prompts.
type ImageClient interface {
	// GenerateImage returns the first rendered image. A response without image
	// bytes is reported as ErrNoImage.
	GenerateImage(ctx context.Context, req *ImageRequest) (*Image, error)
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGroq      Provider = "groq"
	ProviderGemini    Provider = "gemini"
	ProviderOllama    Provider = "ollama"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// Credentials carries what each provider needs to build a client.
type Credentials struct {
	OpenAIKey    string
	AnthropicKey string
	GroqKey      string
	GeminiKey    string
	OllamaURL    string
}

// Registry builds clients once at startup and hands the same instances to
// every component that needs them.
type Registry struct {
	creds   Credentials
	mu      sync.Mutex
	clients map[Provider]any
}

// NewRegistry creates an empty registry for the given credentials.
func NewRegistry(creds Credentials) *Registry {
	return &Registry{creds: creds, clients: make(map[Provider]any)}
}

func (r *Registry) get(ctx context.Context, p Provider) (any, error) {
	r.mu.Lock()
	c, ok := r.clients[p]
	r.mu.Unlock()
	if ok {
		return c, nil
	}

	// Constructors may dial out, so they run without the lock.
	c, err := r.build(ctx, p)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[p]; ok {
		return existing, nil
	}
	r.clients[p] = c
	return c, nil
}

func (r *Registry) build(ctx context.Context, p Provider) (any, error) {
	switch p {
	case ProviderAnthropic:
		return NewAnthropicClient(r.creds.AnthropicKey)
	case ProviderOpenAI:
		return NewOpenAIClient(r.creds.OpenAIKey, "")
	case ProviderGroq:
		return NewGroqClient(r.creds.GroqKey)
	case ProviderGemini:
		return NewGeminiClient(ctx, r.creds.GeminiKey)
	case ProviderOllama:
		return NewOllamaClient(r.creds.OllamaURL)
	default:
		return nil, fmt.Errorf("unknown provider %q", p)
	}
}

// Chat returns the chat client for provider p.
func (r *Registry) Chat(ctx context.Context, p Provider) (Client, error) {
	c, err := r.get(ctx, p)
	if err != nil {
		return nil, err
	}
	chat, ok := c.(Client)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support chat", p)
	}
	return chat, nil
}

// Vision returns the vision client for provider p.
func (r *Registry) Vision(ctx context.Context, p Provider) (VisionClient, error) {
	c, err := r.get(ctx, p)
	if err != nil {
		return nil, err
	}
	v, ok := c.(VisionClient)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support image analysis", p)
	}
	return v, nil
}

// Images returns the image generation client for provider p.
func (r *Registry) Images(ctx context.Context, p Provider) (ImageClient, error) {
	c, err := r.get(ctx, p)
	if err != nil {
		return nil, err
	}
	img, ok := c.(ImageClient)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support image generation", p)
	}
	return img, nil
}
