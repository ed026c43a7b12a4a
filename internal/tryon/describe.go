package tryon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/llm"
	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
	"github.com/opuluxe-ai/fashion-assistant/pkg/metrics"
)

// Describer asks the vision candidates, in order, to describe an image. The
// chat path uses it to read shared photos; the pipeline uses it for analysis.
type Describer struct {
	analyzers []Analyzer
	timeout   time.Duration
	logger    *logger.Logger
}

// NewDescriber creates a describer. timeout bounds each attempt.
func NewDescriber(analyzers []Analyzer, timeout time.Duration, log *logger.Logger) *Describer {
	return &Describer{analyzers: analyzers, timeout: timeout, logger: log.Named("vision")}
}

// Available reports whether any vision candidate is configured.
func (d *Describer) Available() bool {
	return d != nil && len(d.analyzers) > 0
}

// Describe returns the first non-empty description of img.
func (d *Describer) Describe(ctx context.Context, img *llm.Image, instruction string) (string, error) {
	if !d.Available() {
		return "", ErrNoProviders
	}
	if img == nil || len(img.Data) == 0 {
		return "", ErrInvalidPhoto
	}

	steps := make([]Step[string], 0, len(d.analyzers))
	for _, a := range d.analyzers {
		a := a
		steps = append(steps, Step[string]{
			Provider: a.Provider,
			Model:    a.Model,
			Run: func(ctx context.Context) (string, error) {
				return a.Client.Describe(ctx, a.Model, *img, instruction)
			},
		})
	}

	out, err := FirstSuccess(ctx, steps, Options[string]{
		Timeout: d.timeout,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%w: empty description", ErrInvalidResult)
			}
			return nil
		},
		OnAttempt: func(a model.ProviderAttempt) {
			metrics.RecordProviderAttempt(a.Provider, a.Model, string(a.Outcome))
		},
		Logger: d.logger,
	})
	if err != nil {
		d.logger.Warn("image description failed", zap.Int("attempts", len(out.Attempts)), zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(out.Value), nil
}
