package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/caravanai/caravan/internal/domain"
)

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4.1-mini" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.MaxTokens == nil || *req.MaxTokens != DefaultMaxTokens {
			t.Errorf("expected default max_tokens to be applied")
		}

		json.NewEncoder(w).Encode(openAIResponse{
			ID:    "chatcmpl-1",
			Model: req.Model,
			Choices: []openAIChoice{
				{Message: &ChatMessage{Role: "assistant", Content: "Hello back"}, FinishReason: "stop"},
			},
			Usage: &Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
		})
	}))
	defer server.Close()

	client := NewOpenAICompatClient(server.URL, "test-key", 5*time.Second)
	resp, err := client.Complete(context.Background(), &ChatRequest{
		Model:    "gpt-4.1-mini",
		Messages: []ChatMessage{{Role: "user", Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "Hello back" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 7 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestOpenAIClient_CompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if !req.Stream {
			t.Errorf("expected stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hel", "lo ", "world"} {
			chunk, _ := json.Marshal(openAIResponse{
				ID:      "chatcmpl-2",
				Model:   req.Model,
				Choices: []openAIChoice{{Delta: &ChatMessage{Content: delta}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		final, _ := json.Marshal(openAIResponse{
			ID:      "chatcmpl-2",
			Choices: []openAIChoice{{Delta: &ChatMessage{}, FinishReason: "stop"}},
		})
		fmt.Fprintf(w, "data: %s\n\n", final)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewOpenAICompatClient(server.URL, "test-key", 5*time.Second)
	var deltas []string
	resp, err := client.CompleteStream(context.Background(), &ChatRequest{
		Model:    "gpt-4.1-mini",
		Messages: []ChatMessage{{Role: "user", Content: "Hello"}},
	}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("CompleteStream error: %v", err)
	}
	if resp.Content != "Hello world" {
		t.Errorf("unexpected assembled content: %q", resp.Content)
	}
	if len(deltas) != 3 {
		t.Errorf("expected 3 deltas, got %d", len(deltas))
	}
	if resp.FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %q", resp.FinishReason)
	}
}

func TestOpenAIClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(openAIErrorResponse{
			Error: &openAIError{Message: "Invalid API key", Type: "invalid_request_error"},
		})
	}))
	defer server.Close()

	client := NewOpenAICompatClient(server.URL, "bad-key", 5*time.Second)
	_, err := client.Complete(context.Background(), &ChatRequest{
		Model:    "gpt-4.1-mini",
		Messages: []ChatMessage{{Role: "user", Content: "Hello"}},
	})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error should carry API message, got: %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected status code: %d", apiErr.StatusCode)
	}
}

func TestAnthropicClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if key := r.Header.Get("x-api-key"); key != "test-key" {
			t.Errorf("unexpected api key header: %s", key)
		}
		if v := r.Header.Get("anthropic-version"); v != anthropicVersion {
			t.Errorf("unexpected version header: %s", v)
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.System != "You are a poet." {
			t.Errorf("system prompt not lifted out: %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.MaxTokens != DefaultMaxTokens {
			t.Errorf("expected default max_tokens, got %d", req.MaxTokens)
		}

		fmt.Fprint(w, `{"id":"msg_1","model":"claude-sonnet-4-20250514","content":[{"type":"text","text":"A verse"}],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":3}}`)
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", 5*time.Second)
	client.baseURL = server.URL
	resp, err := client.Complete(context.Background(), &ChatRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []ChatMessage{
			{Role: "system", Content: "You are a poet."},
			{Role: "user", Content: "Write a verse"},
		},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "A verse" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 13 {
		t.Errorf("unexpected total tokens: %d", resp.Usage.TotalTokens)
	}
}

func TestGeminiClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/gemini-2.5-flash-preview-05-20:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("unexpected key param: %s", key)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.SystemInstruction == nil || len(req.SystemInstruction.Parts) != 1 {
			t.Errorf("system instruction not set: %+v", req.SystemInstruction)
		}
		if len(req.Contents) != 2 || req.Contents[1].Role != "model" {
			t.Errorf("assistant role not mapped to model: %+v", req.Contents)
		}

		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Answer"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":8,"candidatesTokenCount":1,"totalTokenCount":9}}`)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", 5*time.Second)
	client.baseURL = server.URL
	resp, err := client.Complete(context.Background(), &ChatRequest{
		Model: "gemini-2.5-flash-preview-05-20",
		Messages: []ChatMessage{
			{Role: "system", Content: "Be brief."},
			{Role: "user", Content: "Question?"},
			{Role: "assistant", Content: "Earlier answer"},
		},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "Answer" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %q", resp.FinishReason)
	}
}

func TestMockClient_Stream(t *testing.T) {
	client := NewMockClient()
	var deltas []string
	resp, err := client.CompleteStream(context.Background(), &ChatRequest{
		Model:    "gpt-4.1-mini",
		Messages: []ChatMessage{{Role: "user", Content: "Hello there"}},
	}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("CompleteStream error: %v", err)
	}
	if strings.Join(deltas, "") != resp.Content {
		t.Errorf("deltas do not reassemble to content")
	}
	if !strings.Contains(resp.Content, "Hello there") {
		t.Errorf("mock response should echo input, got: %q", resp.Content)
	}
}

func TestNewChatClient_MockMode(t *testing.T) {
	t.Setenv(EnvCaravanMode, ModeMock)

	for _, p := range domain.Providers() {
		client, err := NewChatClient(p, "", time.Second)
		if err != nil {
			t.Fatalf("NewChatClient(%s) error: %v", p, err)
		}
		if _, ok := client.(*MockClient); !ok {
			t.Errorf("expected MockClient for %s in mock mode, got %T", p, client)
		}
	}
}

func TestNewChatClient_RealProviders(t *testing.T) {
	t.Setenv(EnvCaravanMode, "")

	cases := []struct {
		provider domain.Provider
		wantType string
	}{
		{domain.ProviderOpenAI, "*llm.OpenAIClient"},
		{domain.ProviderAnthropic, "*llm.AnthropicClient"},
		{domain.ProviderGemini, "*llm.GeminiClient"},
		{domain.ProviderOpenRouter, "*llm.OpenAIClient"},
	}
	for _, tc := range cases {
		client, err := NewChatClient(tc.provider, "key", time.Second)
		if err != nil {
			t.Fatalf("NewChatClient(%s) error: %v", tc.provider, err)
		}
		if got := fmt.Sprintf("%T", client); got != tc.wantType {
			t.Errorf("NewChatClient(%s) = %s, want %s", tc.provider, got, tc.wantType)
		}
	}

	if _, err := NewChatClient(domain.Provider("bogus"), "key", time.Second); err == nil {
		t.Error("expected error for unknown provider")
	}
}
