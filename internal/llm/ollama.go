package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const defaultOllamaModel = "llama3.1"

// OllamaClient talks to a local or self-hosted Ollama server.
type OllamaClient struct {
	client *api.Client
}

// NewOllamaClient creates a client for baseURL, or from OLLAMA_HOST when empty.
func NewOllamaClient(baseURL string) (*OllamaClient, error) {
	if baseURL == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return &OllamaClient{client: client}, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaClient{client: api.NewClient(u, http.DefaultClient)}, nil
}

// Name returns the provider name.
func (c *OllamaClient) Name() string {
	return string(ProviderOllama)
}

// Complete sends a non-streaming chat request.
func (c *OllamaClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = defaultOllamaModel
	}

	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	var final api.ChatResponse
	var content strings.Builder
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   new(bool),
		Options:  options,
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		final = resp
		return nil
	})
	if err != nil {
		return nil, c.wrap(err)
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      model,
		TokensIn:   final.PromptEvalCount,
		TokensOut:  final.EvalCount,
		StopReason: final.DoneReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Describe runs a multimodal model (llava, llama3.2-vision) over the image.
func (c *OllamaClient) Describe(ctx context.Context, model string, img Image, instruction string) (string, error) {
	if model == "" {
		model = "llava"
	}

	var content strings.Builder
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:  model,
		Stream: new(bool),
		Messages: []api.Message{{
			Role:    "user",
			Content: instruction,
			Images:  []api.ImageData{img.Data},
		}},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", c.wrap(err)
	}

	return content.String(), nil
}

func (c *OllamaClient) wrap(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return wrapError(c.Name(), statusErr.StatusCode, "", err)
	}
	return wrapError(c.Name(), 0, "", err)
}
