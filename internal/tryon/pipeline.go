package tryon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/llm"
	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
	"github.com/opuluxe-ai/fashion-assistant/pkg/metrics"
	"github.com/opuluxe-ai/fashion-assistant/pkg/tracing"
)

var (
	// ErrEmptyInput is returned when no item is described.
	ErrEmptyInput = errors.New("item description is required")

	// ErrNoProviders is returned when no image provider is configured.
	ErrNoProviders = errors.New("no image providers configured")
)

// Strategies.
const (
	StrategyDirect  = "direct"
	StrategyAnalyze = "analyze_then_generate"
)

// Analyzer is a vision candidate for phase one.
type Analyzer struct {
	Provider string
	Model    string
	Client   llm.VisionClient
}

// Generator is an image candidate for phase two.
type Generator struct {
	Provider string
	Model    string
	Client   llm.ImageClient
}

// Config holds per-call bounds and generation parameters.
type Config struct {
	AnalysisTimeout   time.Duration
	GenerationTimeout time.Duration
	AspectRatio       string
	SafetyLevel       string
}

// Pipeline turns a try-on request into a rendered image.
type Pipeline struct {
	describer  *Describer
	generators []Generator
	cfg        Config
	logger     *logger.Logger
}

// NewPipeline creates a pipeline. Candidates are tried in slice order.
func NewPipeline(analyzers []Analyzer, generators []Generator, cfg Config, log *logger.Logger) *Pipeline {
	log = log.Named("tryon")
	return &Pipeline{
		describer:  NewDescriber(analyzers, cfg.AnalysisTimeout, log),
		generators: generators,
		cfg:        cfg,
		logger:     log,
	}
}

// Synthesize renders req. With a photo it first describes the person and then
// generates from that description; without one it generates directly. It
// never panics: every failure comes back as an error, and the result carries
// the attempt log even when generation failed.
func (p *Pipeline) Synthesize(ctx context.Context, req *model.TryOnRequest) (res *model.TryOnResult, err error) {
	item := strings.TrimSpace(req.Item)
	if item == "" {
		return nil, ErrEmptyInput
	}
	if len(p.generators) == 0 {
		return nil, ErrNoProviders
	}

	strategy := StrategyDirect
	if strings.TrimSpace(req.UserPhoto) != "" {
		strategy = StrategyAnalyze
	}

	ctx, span := tracing.Start(ctx, "tryon.synthesize", attribute.String("tryon.strategy", strategy))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", errPanic, r)
		}
		outcome := "success"
		if err != nil {
			outcome = "failure"
			tracing.Fail(span, err)
		}
		metrics.TryOnTotal.WithLabelValues(strategy, outcome).Inc()
	}()

	subject := subjectOf(req.Gender)
	result := &model.TryOnResult{Strategy: strategy}

	var (
		prompt    string
		reference *llm.Image
	)
	if strategy == StrategyAnalyze {
		reference, result.Description = p.analyze(ctx, req.UserPhoto, subject)
		prompt = GenerationPrompt(result.Description, item)
	} else {
		prompt = DirectPrompt(item, subject)
	}

	out, err := p.generate(ctx, prompt, reference)
	result.Attempts = out.Attempts
	if err != nil {
		p.logger.Error("try-on generation failed",
			zap.String("item", item),
			zap.String("strategy", strategy),
			zap.Int("attempts", len(out.Attempts)),
			zap.Error(err),
		)
		return result, err
	}

	result.Image = EncodeDataURI(out.Value)
	result.Provider = out.Provider
	result.Model = out.Model
	return result, nil
}

// analyze describes the photo. Any failure yields the generic description;
// the request continues either way.
func (p *Pipeline) analyze(ctx context.Context, photo, subject string) (*llm.Image, string) {
	img, err := DecodeDataURI(photo)
	if err != nil {
		p.logger.Warn("photo analysis skipped, using generic description", zap.Error(err))
		return nil, FallbackDescription(subject)
	}

	desc, err := p.describer.Describe(ctx, img, AnalysisInstruction)
	if err != nil {
		p.logger.Warn("photo analysis failed, using generic description", zap.Error(err))
		return img, FallbackDescription(subject)
	}
	return img, desc
}

func (p *Pipeline) generate(ctx context.Context, prompt string, reference *llm.Image) (*Outcome[*llm.Image], error) {
	steps := make([]Step[*llm.Image], 0, len(p.generators))
	for _, g := range p.generators {
		g := g
		steps = append(steps, Step[*llm.Image]{
			Provider: g.Provider,
			Model:    g.Model,
			Run: func(ctx context.Context) (*llm.Image, error) {
				return g.Client.GenerateImage(ctx, &llm.ImageRequest{
					Model:       g.Model,
					Prompt:      prompt,
					Reference:   reference,
					AspectRatio: p.cfg.AspectRatio,
					SafetyLevel: p.cfg.SafetyLevel,
				})
			},
		})
	}

	return FirstSuccess(ctx, steps, Options[*llm.Image]{
		Timeout:  p.cfg.GenerationTimeout,
		Validate: validImage,
		OnAttempt: func(a model.ProviderAttempt) {
			metrics.RecordProviderAttempt(a.Provider, a.Model, string(a.Outcome))
		},
		Logger: p.logger,
	})
}
