// Package toolctx supplies short structured fashion facts that ground a model
// answer: trend lists, occasion tips and seasonal recommendations.
package toolctx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opuluxe-ai/fashion-assistant/internal/classifier"
)

// ErrUnavailable is returned when context cannot be produced. Callers degrade
// to answering without context.
var ErrUnavailable = errors.New("tool context unavailable")

// FactGroup is a named list of facts, e.g. the trends for one category.
type FactGroup struct {
	Name  string   `json:"name"`
	Facts []string `json:"facts"`
}

// Payload is the structured context handed to the chat dispatcher.
type Payload struct {
	Kind        classifier.Kind `json:"kind"`
	Tag         string          `json:"tag"`
	Groups      []FactGroup     `json:"groups,omitempty"`
	Advice      string          `json:"advice,omitempty"`
	Inspiration string          `json:"inspiration,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Empty reports whether the payload carries no usable facts.
func (p *Payload) Empty() bool {
	if p == nil {
		return true
	}
	if strings.TrimSpace(p.Advice) != "" {
		return false
	}
	for _, g := range p.Groups {
		if len(g.Facts) > 0 {
			return false
		}
	}
	return true
}

// Render formats the payload as plain text for inclusion in a prompt.
func (p *Payload) Render() string {
	var b strings.Builder
	switch p.Kind {
	case classifier.KindTrend:
		fmt.Fprintf(&b, "Current fashion trends (%s):\n", p.Tag)
	case classifier.KindSeason:
		fmt.Fprintf(&b, "Seasonal recommendations (%s):\n", p.Tag)
	case classifier.KindTip:
		fmt.Fprintf(&b, "Style tip for %s occasions:\n", p.Tag)
	}

	for _, g := range p.Groups {
		if len(p.Groups) > 1 {
			fmt.Fprintf(&b, "%s:\n", g.Name)
		}
		for _, f := range g.Facts {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if p.Advice != "" {
		fmt.Fprintf(&b, "%s\n", p.Advice)
	}
	if p.Inspiration != "" {
		fmt.Fprintf(&b, "Inspiration: %s\n", p.Inspiration)
	}
	if !p.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "As of %s", p.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	}

	return strings.TrimRight(b.String(), "\n")
}

// Provider resolves a classifier request into context. Implementations may be
// static, remote or cached; callers do not need to know which.
type Provider interface {
	Fetch(ctx context.Context, req classifier.Request) (*Payload, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req classifier.Request) (*Payload, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, req classifier.Request) (*Payload, error) {
	return f(ctx, req)
}

// unavailable wraps cause so that errors.Is(err, ErrUnavailable) holds.
func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
