package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caravanai/caravan/internal/agent"
	"github.com/caravanai/caravan/internal/domain"
)

// RolePlayParams configures a new role-play session.
type RolePlayParams struct {
	Provider             domain.Provider
	Model                string
	AssistantRole        string
	AssistantDescription string
	UserRole             string
	UserDescription      string
	TaskPrompt           string
	WordLimit            int
	SpecifyTask          bool
}

// CreateRolePlaySession starts a two-agent role-play session. When
// SpecifyTask is set, a task-specify agent sharpens the seed prompt
// before the session begins.
func (s *Service) CreateRolePlaySession(ctx context.Context, params RolePlayParams) (*domain.Session, string, error) {
	if !params.Provider.Valid() {
		return nil, "", invalid("invalid provider: %s", params.Provider)
	}
	if params.AssistantRole == "" || params.UserRole == "" {
		return nil, "", invalid("both role names are required")
	}
	if params.TaskPrompt == "" {
		return nil, "", invalid("task prompt is required")
	}
	model := resolveModel(params.Provider, params.Model)

	client, err := s.clientFor(ctx, params.Provider)
	if err != nil {
		return nil, "", err
	}

	rp := agent.NewRolePlay(client, model, agent.RolePlayParams{
		AssistantRole:        params.AssistantRole,
		AssistantDescription: params.AssistantDescription,
		UserRole:             params.UserRole,
		UserDescription:      params.UserDescription,
		TaskPrompt:           params.TaskPrompt,
		WordLimit:            params.WordLimit,
	})

	specifiedTask := params.TaskPrompt
	if params.SpecifyTask {
		specifiedTask, err = rp.SpecifyTask(ctx, client, model)
		if err != nil {
			return nil, "", err
		}
	}

	cfg, _ := json.Marshal(domain.RolePlayConfig{
		AssistantRole:        params.AssistantRole,
		AssistantDescription: params.AssistantDescription,
		UserRole:             params.UserRole,
		UserDescription:      params.UserDescription,
		TaskPrompt:           params.TaskPrompt,
		SpecifiedTask:        specifiedTask,
		WordLimit:            params.WordLimit,
	})
	session := &domain.Session{
		SessionID: newID("rp"),
		Kind:      domain.SessionKindRolePlay,
		Provider:  params.Provider,
		Model:     model,
		Config:    cfg,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	s.mu.Lock()
	s.rolePlays[session.SessionID] = rp
	s.mu.Unlock()

	return session, specifiedTask, nil
}

// StepRolePlay runs one two-agent exchange and returns the new turns
// plus whether the session has finished.
func (s *Service) StepRolePlay(ctx context.Context, sessionID string) ([]domain.Message, bool, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Kind != domain.SessionKindRolePlay {
		return nil, false, notFound("role play session", sessionID)
	}

	s.mu.Lock()
	rp, ok := s.rolePlays[sessionID]
	s.mu.Unlock()
	if !ok {
		// Role-play agents carry in-flight prompt state that cannot be
		// rebuilt mid-exchange from the store.
		return nil, false, fmt.Errorf("role play session %s is no longer live, start a new one", sessionID)
	}

	turns, err := rp.Step(ctx)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	messages := make([]domain.Message, 0, len(turns))
	for i, turn := range turns {
		msg := domain.Message{
			MessageID: newID("msg"),
			SessionID: sessionID,
			Role:      turn.Role,
			Content:   turn.Content,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.store.CreateMessage(ctx, &msg); err != nil {
			return nil, false, fmt.Errorf("failed to store message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rp.Done(), nil
}

// GetRolePlayMessages returns a role-play session's turns in order.
func (s *Service) GetRolePlayMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Kind != domain.SessionKindRolePlay {
		return nil, notFound("role play session", sessionID)
	}
	return s.store.GetMessages(ctx, sessionID, 0)
}

// SaveRolePlaySession writes the session's exchange to a history record.
// Returns the record file path.
func (s *Service) SaveRolePlaySession(ctx context.Context, sessionID string) (string, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.Kind != domain.SessionKindRolePlay {
		return "", notFound("role play session", sessionID)
	}

	messages, err := s.store.GetMessages(ctx, sessionID, 0)
	if err != nil {
		return "", fmt.Errorf("failed to get messages: %w", err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no conversation to save")
	}

	var cfg domain.RolePlayConfig
	if len(session.Config) > 0 {
		_ = json.Unmarshal(session.Config, &cfg)
	}

	path, err := s.history.SaveRolePlay(&domain.RolePlayRecord{
		AssistantRole: cfg.AssistantRole,
		UserRole:      cfg.UserRole,
		TaskPrompt:    cfg.TaskPrompt,
		SpecifiedTask: cfg.SpecifiedTask,
		Provider:      session.Provider,
		Model:         session.Model,
		Messages:      turnsFromMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save role play record: %w", err)
	}
	return path, nil
}
