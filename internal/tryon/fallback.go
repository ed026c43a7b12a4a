// Package tryon renders virtual try-on previews across an ordered list of
// image providers.
package tryon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
	"github.com/opuluxe-ai/fashion-assistant/pkg/tracing"
)

var (
	// ErrAllProvidersFailed is returned when every step failed.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrInvalidResult marks a step that returned without error but with
	// nothing usable.
	ErrInvalidResult = errors.New("provider returned an invalid result")

	errPanic = errors.New("provider panicked")
)

// Step is one provider/model candidate.
type Step[T any] struct {
	Provider string
	Model    string
	Run      func(ctx context.Context) (T, error)
}

// Options tune FirstSuccess.
type Options[T any] struct {
	// Timeout bounds each attempt. Zero means no per-attempt bound.
	Timeout time.Duration

	// Validate rejects results that arrived without an error. Nil accepts all.
	Validate func(T) error

	// OnAttempt observes each finished attempt.
	OnAttempt func(model.ProviderAttempt)

	Logger *logger.Logger
}

// Outcome is what FirstSuccess produced. Attempts is always populated, also
// on failure.
type Outcome[T any] struct {
	Value    T
	Provider string
	Model    string
	Attempts []model.ProviderAttempt
}

// FirstSuccess runs steps in order and returns the first valid result. Later
// steps are never started once one succeeds. Panics and invalid results count
// as failures.
func FirstSuccess[T any](ctx context.Context, steps []Step[T], opts Options[T]) (*Outcome[T], error) {
	out := &Outcome[T]{Attempts: make([]model.ProviderAttempt, 0, len(steps))}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var lastErr error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		v, attempt := runStep(ctx, step, opts)
		out.Attempts = append(out.Attempts, attempt)
		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt)
		}

		if attempt.Outcome == model.OutcomeSuccess {
			out.Value = v
			out.Provider = step.Provider
			out.Model = step.Model
			return out, nil
		}

		lastErr = errors.New(attempt.Error)
		log.Warn("provider attempt failed, trying next",
			zap.String("provider", step.Provider),
			zap.String("model", step.Model),
			zap.Bool("timeout", attempt.Timeout),
			zap.Duration("duration", attempt.Duration),
			zap.String("error", attempt.Error),
		)
	}

	if lastErr == nil {
		return out, ErrAllProvidersFailed
	}
	return out, fmt.Errorf("%w: last error: %v", ErrAllProvidersFailed, lastErr)
}

func runStep[T any](ctx context.Context, step Step[T], opts Options[T]) (T, model.ProviderAttempt) {
	attempt := model.ProviderAttempt{Provider: step.Provider, Model: step.Model}

	ctx, span := tracing.Start(ctx, "tryon.attempt",
		attribute.String("provider", step.Provider),
		attribute.String("model", step.Model),
	)
	defer span.End()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := call(ctx, step)
	attempt.SetDuration(time.Since(start))

	if err == nil && opts.Validate != nil {
		err = opts.Validate(v)
	}
	if err != nil {
		attempt.Outcome = model.OutcomeFailure
		attempt.Error = err.Error()
		attempt.Timeout = errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		tracing.Fail(span, err)
		var zero T
		return zero, attempt
	}

	attempt.Outcome = model.OutcomeSuccess
	return v, attempt
}

// call runs the step, converting a panic into an error.
func call[T any](ctx context.Context, step Step[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	if step.Run == nil {
		return v, fmt.Errorf("%w: no runner", ErrInvalidResult)
	}
	return step.Run(ctx)
}
