package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caravanai/caravan/internal/adapter/llm"
	"github.com/caravanai/caravan/internal/agent"
	"github.com/caravanai/caravan/internal/domain"
)

// CreateChatSession starts a single-agent chat session.
func (s *Service) CreateChatSession(ctx context.Context, provider domain.Provider, model, role, roleDescription string) (*domain.Session, error) {
	if !provider.Valid() {
		return nil, invalid("invalid provider: %s", provider)
	}
	model = resolveModel(provider, model)

	client, err := s.clientFor(ctx, provider)
	if err != nil {
		return nil, err
	}

	cfg, _ := json.Marshal(domain.ChatConfig{Role: role, RoleDescription: roleDescription})
	session := &domain.Session{
		SessionID: newID("sess"),
		Kind:      domain.SessionKindChat,
		Provider:  provider,
		Model:     model,
		Config:    cfg,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.mu.Lock()
	s.agents[session.SessionID] = agent.New(client, model, role, roleDescription)
	s.mu.Unlock()

	return session, nil
}

// chatAgent returns the live agent for a session, rebuilding it from the
// store when the process has restarted since the session was created.
func (s *Service) chatAgent(ctx context.Context, sessionID string) (*agent.Agent, *domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Kind != domain.SessionKindChat {
		return nil, nil, notFound("chat session", sessionID)
	}

	s.mu.Lock()
	a, ok := s.agents[sessionID]
	s.mu.Unlock()
	if ok {
		return a, session, nil
	}

	client, err := s.clientFor(ctx, session.Provider)
	if err != nil {
		return nil, nil, err
	}
	var cfg domain.ChatConfig
	if len(session.Config) > 0 {
		_ = json.Unmarshal(session.Config, &cfg)
	}
	a = agent.New(client, session.Model, cfg.Role, cfg.RoleDescription)

	// Replay persisted turns so the rebuilt agent carries the history.
	messages, err := s.store.GetMessages(ctx, sessionID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get messages: %w", err)
	}
	a.Restore(historyFromMessages(messages))

	s.mu.Lock()
	s.agents[sessionID] = a
	s.mu.Unlock()
	return a, session, nil
}

func historyFromMessages(messages []domain.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// SendChatMessage sends a user message to a chat session and returns the
// stored user and assistant messages.
func (s *Service) SendChatMessage(ctx context.Context, sessionID, content string) ([]domain.Message, error) {
	return s.sendChat(ctx, sessionID, content, nil)
}

// SendChatMessageStream is SendChatMessage with delta delivery.
func (s *Service) SendChatMessageStream(ctx context.Context, sessionID, content string, callback llm.StreamCallback) ([]domain.Message, error) {
	return s.sendChat(ctx, sessionID, content, callback)
}

func (s *Service) sendChat(ctx context.Context, sessionID, content string, callback llm.StreamCallback) ([]domain.Message, error) {
	a, _, err := s.chatAgent(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var reply string
	if callback != nil {
		reply, err = a.StepStream(ctx, content, callback)
	} else {
		reply, err = a.Step(ctx, content)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := domain.Message{
		MessageID: newID("msg"),
		SessionID: sessionID,
		Role:      "user",
		Content:   content,
		CreatedAt: now,
	}
	assistantMsg := domain.Message{
		MessageID: newID("msg"),
		SessionID: sessionID,
		Role:      "assistant",
		Content:   reply,
		CreatedAt: now.Add(time.Millisecond),
	}
	for _, msg := range []domain.Message{userMsg, assistantMsg} {
		if err := s.store.CreateMessage(ctx, &msg); err != nil {
			return nil, fmt.Errorf("failed to store message: %w", err)
		}
	}
	return []domain.Message{userMsg, assistantMsg}, nil
}

// GetChatMessages returns a chat session's stored messages in order.
func (s *Service) GetChatMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Kind != domain.SessionKindChat {
		return nil, notFound("chat session", sessionID)
	}
	return s.store.GetMessages(ctx, sessionID, 0)
}

// SaveChatSession writes the session's conversation to a history record.
// Returns the record file path.
func (s *Service) SaveChatSession(ctx context.Context, sessionID string) (string, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Kind != domain.SessionKindChat {
		return "", notFound("chat session", sessionID)
	}

	messages, err := s.store.GetMessages(ctx, sessionID, 0)
	if err != nil {
		return "", fmt.Errorf("failed to get messages: %w", err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no conversation to save")
	}

	var cfg domain.ChatConfig
	if len(session.Config) > 0 {
		_ = json.Unmarshal(session.Config, &cfg)
	}

	path, err := s.history.SaveConversation(&domain.ConversationRecord{
		Role:     cfg.Role,
		Provider: session.Provider,
		Model:    session.Model,
		Messages: turnsFromMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save conversation: %w", err)
	}
	return path, nil
}

// DeleteChatSession removes a chat session and its live agent.
func (s *Service) DeleteChatSession(ctx context.Context, sessionID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Kind != domain.SessionKindChat {
		return notFound("chat session", sessionID)
	}

	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.mu.Lock()
	delete(s.agents, sessionID)
	s.mu.Unlock()
	return nil
}
