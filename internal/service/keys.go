package service

import (
	"fmt"
	"strings"

	"github.com/caravanai/caravan/internal/domain"
)

// ProviderStatus describes one provider's availability to the UI. Keys
// are never echoed back, only their presence.
type ProviderStatus struct {
	Provider     domain.Provider `json:"provider"`
	DisplayName  string          `json:"display_name"`
	DefaultModel string          `json:"default_model"`
	HasAPIKey    bool            `json:"has_api_key"`
	IsDefault    bool            `json:"is_default"`
}

// ListProviders returns the status of every supported provider.
func (s *Service) ListProviders() []ProviderStatus {
	defaultProvider := s.config.DefaultProvider()
	statuses := make([]ProviderStatus, 0, len(domain.Providers()))
	for _, p := range domain.Providers() {
		statuses = append(statuses, ProviderStatus{
			Provider:     p,
			DisplayName:  p.DisplayName(),
			DefaultModel: p.DefaultModel(),
			HasAPIKey:    s.config.HasAPIKey(p),
			IsDefault:    p == defaultProvider,
		})
	}
	return statuses
}

// SaveAPIKey stores an API key for a provider, optionally making it the
// default. An empty key removes the stored one.
func (s *Service) SaveAPIKey(provider domain.Provider, key string, makeDefault bool) error {
	if !provider.Valid() {
		return fmt.Errorf("invalid provider: %s", provider)
	}
	if err := s.config.SaveAPIKey(provider, strings.TrimSpace(key), makeDefault); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	return nil
}
