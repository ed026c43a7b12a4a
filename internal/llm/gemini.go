package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiImageModel = "imagen-4.0-generate-001"
)

// GeminiClient covers Gemini chat and vision plus Imagen and Gemini native
// image generation through one genai client.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini Developer API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini: %w", ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return string(ProviderGemini)
}

// Complete sends a completion request.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = defaultGeminiModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, c.wrap(err)
	}

	out := &CompletionResponse{
		Content:   resp.Text(),
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 {
		out.StopReason = string(resp.Candidates[0].FinishReason)
	}

	return out, nil
}

// Describe sends the image inline with the instruction.
func (c *GeminiClient) Describe(ctx context.Context, model string, img Image, instruction string) (string, error) {
	if model == "" {
		model = defaultGeminiModel
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: 300,
	})
	if err != nil {
		return "", c.wrap(err)
	}

	return resp.Text(), nil
}

// GenerateImage uses Imagen for "imagen-*" models and Gemini native image
// output for everything else. Only the latter can take a reference photo.
func (c *GeminiClient) GenerateImage(ctx context.Context, req *ImageRequest) (*Image, error) {
	model := req.Model
	if model == "" {
		model = defaultGeminiImageModel
	}

	if strings.HasPrefix(model, "imagen") {
		return c.generateImagen(ctx, model, req)
	}
	return c.generateNative(ctx, model, req)
}

func (c *GeminiClient) generateImagen(ctx context.Context, model string, req *ImageRequest) (*Image, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    req.AspectRatio,
	}
	if req.SafetyLevel != "" {
		config.SafetyFilterLevel = genai.SafetyFilterLevel(req.SafetyLevel)
	}

	resp, err := c.client.Models.GenerateImages(ctx, model, req.Prompt, config)
	if err != nil {
		return nil, c.wrap(err)
	}

	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mime := generated.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return &Image{Data: generated.Image.ImageBytes, MIMEType: mime}, nil
	}

	return nil, c.wrap(ErrNoImage)
}

func (c *GeminiClient) generateNative(ctx context.Context, model string, req *ImageRequest) (*Image, error) {
	parts := make([]*genai.Part, 0, 2)
	if req.Reference != nil && len(req.Reference.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Reference.Data, req.Reference.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	resp, err := c.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	)
	if err != nil {
		return nil, c.wrap(err)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &Image{Data: part.InlineData.Data, MIMEType: mime}, nil
			}
		}
	}

	return nil, c.wrap(ErrNoImage)
}

func (c *GeminiClient) wrap(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return wrapError(c.Name(), apiErr.Code, apiErr.Status, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return wrapError(c.Name(), apiErrPtr.Code, apiErrPtr.Status, err)
	}
	return wrapError(c.Name(), 0, "", err)
}
