// Package policy gates provider access through an OPA rego policy
// evaluated before a chat client is constructed.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decision values returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.provider_policy.decision"),
		rego.Module("provider_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input is the document the policy evaluates.
type Input struct {
	Provider  string `json:"provider"`
	HasAPIKey bool   `json:"has_api_key"`
	MockMode  bool   `json:"mock_mode"`
}

// Evaluate checks the provider policy. Returns the decision and an
// optional reason.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	switch val := results[0].Expressions[0].Value.(type) {
	case string:
		return val, "", nil
	case map[string]interface{}:
		decision, _ := val["decision"].(string)
		reason, _ := val["reason"].(string)
		if decision == "" {
			decision = DecisionAllow
		}
		return decision, reason, nil
	default:
		return DecisionAllow, "unexpected return type", nil
	}
}

// DefaultPolicy is the default policy content: providers without a
// configured API key are blocked unless the service runs in mock mode.
const DefaultPolicy = `
package provider_policy

import rego.v1

default decision := {"decision": "allow", "reason": ""}

decision := {"decision": "block", "reason": "unknown provider"} if {
	not known_provider
}

decision := {"decision": "block", "reason": "no API key configured"} if {
	known_provider
	not input.has_api_key
	not input.mock_mode
}

known_provider if {
	input.provider == providers[_]
}

providers := ["openai", "anthropic", "gemini", "openrouter"]
`
