package tryon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opuluxe-ai/fashion-assistant/internal/llm"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

func TestDescriberFirstUsableDescription(t *testing.T) {
	d := NewDescriber([]Analyzer{
		{Provider: "openai", Model: "gpt-4o", Client: &fakeVision{err: errors.New("rate limited")}},
		{Provider: "anthropic", Model: "claude", Client: &fakeVision{text: "   "}},
		{Provider: "gemini", Model: "gemini-2.5-flash", Client: &fakeVision{text: " A navy peacoat with brass buttons. "}},
	}, time.Second, logger.NewNop())

	got, err := d.Describe(context.Background(), &llm.Image{Data: pngBytes, MIMEType: "image/png"}, "describe")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if got != "A navy peacoat with brass buttons." {
		t.Errorf("Describe() = %q", got)
	}
}

func TestDescriberErrors(t *testing.T) {
	img := &llm.Image{Data: pngBytes, MIMEType: "image/png"}
	failing := []Analyzer{{Provider: "openai", Model: "gpt-4o", Client: &fakeVision{err: errors.New("boom")}}}

	tests := []struct {
		name      string
		analyzers []Analyzer
		img       *llm.Image
		want      error
	}{
		{"no analyzers", nil, img, ErrNoProviders},
		{"missing image", failing, nil, ErrInvalidPhoto},
		{"empty image", failing, &llm.Image{}, ErrInvalidPhoto},
		{"all fail", failing, img, ErrAllProvidersFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDescriber(tt.analyzers, time.Second, logger.NewNop())
			if _, err := d.Describe(context.Background(), tt.img, "describe"); !errors.Is(err, tt.want) {
				t.Errorf("Describe() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDescriberNilIsUnavailable(t *testing.T) {
	var d *Describer
	if d.Available() {
		t.Error("nil describer should not be available")
	}
	if _, err := d.Describe(context.Background(), &llm.Image{Data: pngBytes}, "describe"); !errors.Is(err, ErrNoProviders) {
		t.Errorf("Describe() error = %v, want ErrNoProviders", err)
	}
}
