// Package llm provides chat-completion clients for the supported
// providers behind one interface.
package llm

import (
	"context"
	"time"

	"github.com/caravanai/caravan/internal/domain"
)

// ChatClient defines the operations the agent layer needs from a provider.
type ChatClient interface {
	// Complete sends a chat completion request (non-streaming).
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// CompleteStream sends a streaming chat completion request. The
	// callback is called for each content delta; the assembled response
	// is returned once the stream finishes.
	CompleteStream(ctx context.Context, req *ChatRequest, callback StreamCallback) (*ChatResponse, error)
}

// Factory constructs a client for a provider. The service layer takes a
// Factory so tests can substitute counting or scripted clients.
type Factory func(p domain.Provider, apiKey string, timeout time.Duration) (ChatClient, error)

var (
	_ ChatClient = (*OpenAIClient)(nil)
	_ ChatClient = (*AnthropicClient)(nil)
	_ ChatClient = (*GeminiClient)(nil)
	_ ChatClient = (*MockClient)(nil)
)
