// Package domain defines the core domain models for the playground.
package domain

import (
	"fmt"
	"strings"
)

// Provider identifies a remote LLM vendor.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGemini     Provider = "gemini"
	ProviderOpenRouter Provider = "openrouter"
)

// Providers lists the supported providers in display order.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter}
}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter:
		return true
	}
	return false
}

// DisplayName returns the human-readable provider name.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Anthropic"
	case ProviderGemini:
		return "Gemini"
	case ProviderOpenRouter:
		return "OpenRouter"
	}
	return string(p)
}

// EnvVar returns the environment variable that carries the provider's API key.
func (p Provider) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	}
	return ""
}

// DefaultModel returns the model identifier used when the user picks a
// provider without naming a model.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4.1-mini"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderGemini:
		return "gemini-2.5-flash-preview-05-20"
	case ProviderOpenRouter:
		return "google/gemini-flash-1.5"
	}
	return ""
}

// ParseProvider normalizes a user-supplied provider name.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q", s)
	}
	return p, nil
}

// ParseModelSpec parses the "provider:model" syntax used by the task
// automation screen. A handful of well-known bare model names infer their
// provider; anything else without a prefix is rejected.
func ParseModelSpec(spec string) (Provider, string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", fmt.Errorf("model spec is empty")
	}

	if prefix, model, ok := strings.Cut(spec, ":"); ok {
		if model == "" {
			return "", "", fmt.Errorf("model name missing after prefix %q", prefix)
		}
		p, err := ParseProvider(prefix)
		if err != nil {
			return "", "", fmt.Errorf("unknown provider prefix %q in %q", prefix, spec)
		}
		return p, model, nil
	}

	switch strings.ToLower(spec) {
	case "gpt-4":
		return ProviderOpenAI, "gpt-4", nil
	case "gpt-3.5-turbo", "gpt-3.5":
		return ProviderOpenAI, "gpt-3.5-turbo", nil
	case "claude-2":
		return ProviderAnthropic, "claude-2", nil
	}
	return "", "", fmt.Errorf("cannot infer provider from model %q: use the provider:model form, e.g. %q", spec, "openrouter:google/gemini-flash-1.5")
}
