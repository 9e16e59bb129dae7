package policy

import (
	"context"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}

	cases := []struct {
		name       string
		input      Input
		want       string
		wantReason string
	}{
		{
			name:  "provider with key allowed",
			input: Input{Provider: "openai", HasAPIKey: true},
			want:  DecisionAllow,
		},
		{
			name:       "provider without key blocked",
			input:      Input{Provider: "anthropic", HasAPIKey: false},
			want:       DecisionBlock,
			wantReason: "no API key configured",
		},
		{
			name:  "mock mode bypasses key requirement",
			input: Input{Provider: "gemini", HasAPIKey: false, MockMode: true},
			want:  DecisionAllow,
		},
		{
			name:       "unknown provider blocked",
			input:      Input{Provider: "bedrock", HasAPIKey: true},
			want:       DecisionBlock,
			wantReason: "unknown provider",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, reason, err := engine.Evaluate(ctx, tc.input)
			if err != nil {
				t.Fatalf("Evaluate error: %v", err)
			}
			if decision != tc.want {
				t.Errorf("decision = %q, want %q", decision, tc.want)
			}
			if tc.wantReason != "" && reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", reason, tc.wantReason)
			}
		})
	}
}

func TestNewEngine_InvalidPolicy(t *testing.T) {
	if _, err := NewEngine(context.Background(), "not rego at all {"); err == nil {
		t.Error("expected error for invalid policy")
	}
}
