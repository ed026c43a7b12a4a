package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default candidate chains, in priority order.
const (
	DefaultVisionProviders = "openai:gpt-4o,gemini:gemini-2.5-flash"
	DefaultTryOnProviders  = "gemini:gemini-2.5-flash-image,gemini:imagen-4.0-generate-001,openai:dall-e-3"
)

// ProviderSpec names one provider/model candidate.
type ProviderSpec struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

func (p ProviderSpec) String() string {
	return p.Provider + ":" + p.Model
}

// providerFile is the TOML layout of TRYON_PROVIDERS_FILE:
//
//	[[vision]]
//	provider = "openai"
//	model = "gpt-4o"
//
//	[[providers]]
//	provider = "gemini"
//	model = "imagen-4.0-generate-001"
type providerFile struct {
	Vision    []ProviderSpec `toml:"vision"`
	Providers []ProviderSpec `toml:"providers"`
}

// ParseProviderList parses "provider:model,provider:model".
func ParseProviderList(s string) ([]ProviderSpec, error) {
	var out []ProviderSpec
	for _, item := range splitList(s) {
		provider, model, ok := strings.Cut(item, ":")
		spec := ProviderSpec{Provider: strings.TrimSpace(provider), Model: strings.TrimSpace(model)}
		if !ok {
			return nil, fmt.Errorf("entry %q is not provider:model", item)
		}
		if err := spec.validate(); err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

// LoadProviderFile reads the vision and generation chains from a TOML file.
func LoadProviderFile(path string) (vision, generation []ProviderSpec, err error) {
	var f providerFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to read provider file %s: %w", path, err)
	}
	for _, spec := range append(append([]ProviderSpec{}, f.Vision...), f.Providers...) {
		if err := spec.validate(); err != nil {
			return nil, nil, fmt.Errorf("provider file %s: %w", path, err)
		}
	}
	return f.Vision, f.Providers, nil
}

func (p ProviderSpec) validate() error {
	if p.Provider == "" || p.Model == "" {
		return fmt.Errorf("entry %q needs both provider and model", p.String())
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
