package llm

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caravanai/caravan/internal/domain"
)

const (
	// EnvCaravanMode is the environment variable name for mode selection.
	EnvCaravanMode = "CARAVAN_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewChatClient creates a chat client for the given provider. If
// CARAVAN_MODE=MOCK, returns a MockClient regardless of provider.
func NewChatClient(provider domain.Provider, apiKey string, timeout time.Duration) (ChatClient, error) {
	if os.Getenv(EnvCaravanMode) == ModeMock {
		log.Println("CARAVAN_MODE=MOCK detected, using mock chat client")
		return NewMockClient(), nil
	}

	switch provider {
	case domain.ProviderOpenAI:
		return NewOpenAIClient(apiKey, timeout), nil
	case domain.ProviderAnthropic:
		return NewAnthropicClient(apiKey, timeout), nil
	case domain.ProviderGemini:
		return NewGeminiClient(apiKey, timeout), nil
	case domain.ProviderOpenRouter:
		return NewOpenRouterClient(apiKey, timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
