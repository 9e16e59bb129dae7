// Package service implements the playground's business logic over the
// store, history, policy and provider client layers.
package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/caravanai/caravan/internal/adapter/llm"
	"github.com/caravanai/caravan/internal/agent"
	"github.com/caravanai/caravan/internal/config"
	"github.com/caravanai/caravan/internal/domain"
	"github.com/caravanai/caravan/internal/history"
	"github.com/caravanai/caravan/internal/policy"
	store "github.com/caravanai/caravan/internal/repository"
)

type Service struct {
	store        store.Store
	history      *history.Store
	config       *config.Config
	policyEngine *policy.Engine
	factory      llm.Factory

	mu        sync.Mutex
	agents    map[string]*agent.Agent
	rolePlays map[string]*agent.RolePlay
	queueMu   map[string]*sync.Mutex
}

func New(store store.Store, historyStore *history.Store, cfg *config.Config, policyEngine *policy.Engine, factory llm.Factory) *Service {
	if factory == nil {
		factory = llm.NewChatClient
	}
	return &Service{
		store:        store,
		history:      historyStore,
		config:       cfg,
		policyEngine: policyEngine,
		factory:      factory,
		agents:       make(map[string]*agent.Agent),
		rolePlays:    make(map[string]*agent.RolePlay),
		queueMu:      make(map[string]*sync.Mutex),
	}
}

// newID generates a short prefixed identifier.
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

// clientFor evaluates the provider policy and constructs a chat client.
// A blocked decision fails before any client is built.
func (s *Service) clientFor(ctx context.Context, provider domain.Provider) (llm.ChatClient, error) {
	mockMode := os.Getenv(llm.EnvCaravanMode) == llm.ModeMock
	decision, reason, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Provider:  string(provider),
		HasAPIKey: s.config.HasAPIKey(provider),
		MockMode:  mockMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate provider policy: %w", err)
	}
	if decision != policy.DecisionAllow {
		if reason == "" {
			reason = "blocked by policy"
		}
		return nil, invalid("provider %s not available: %s", provider, reason)
	}

	client, err := s.factory(provider, s.config.APIKey(provider), s.config.LLMTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return client, nil
}

// resolveModel returns the model to use, falling back to the provider default.
func resolveModel(provider domain.Provider, model string) string {
	if strings.TrimSpace(model) == "" {
		return provider.DefaultModel()
	}
	return strings.TrimSpace(model)
}

// queueLock returns the mutex serializing runs of one task queue.
func (s *Service) queueLock(queueID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queueMu[queueID]; !ok {
		s.queueMu[queueID] = &sync.Mutex{}
	}
	return s.queueMu[queueID]
}

// turnsFromMessages converts stored messages to record turns.
func turnsFromMessages(messages []domain.Message) []domain.Turn {
	turns := make([]domain.Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, domain.Turn{
			Role:    msg.Role,
			Content: msg.Content,
			Ts:      msg.CreatedAt,
		})
	}
	return turns
}

// ErrNotFound is returned when a referenced session or queue does not exist.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func notFound(kind, id string) error {
	return &ErrNotFound{Kind: kind, ID: id}
}

// ErrInvalid is returned when a request cannot proceed for validation or
// configuration reasons, such as a policy block or a malformed input.
type ErrInvalid struct {
	Reason string
}

func (e *ErrInvalid) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ErrInvalid{Reason: fmt.Sprintf(format, args...)}
}
