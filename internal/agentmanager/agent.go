// Package agentmanager loads registered agents, creates specialist agents on
// demand, and bootstraps the nine-member C-Suite, mirroring the teacher's
// runtime agent registration shape generalized from Goa's single fixed
// agent-per-process model to Launchonomy's dynamic, persona-driven roster.
package agentmanager

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

// Agent is the uniform contract every workflow agent, specialist, and
// C-Suite member satisfies: accept a structured input and return a
// structured output. The scheduler never needs to know whether an agent is
// a persona wrapping an LLM call or a factory-constructed tool integration.
type Agent interface {
	Name() string
	Execute(ctx context.Context, input map[string]any) (map[string]any, float64, error)
}

// PromptAgent is an Agent whose behavior is entirely defined by a system
// prompt and the shared communicator: Execute serializes input to JSON,
// asks the agent for a JSON reply, and returns the parsed object. This is
// how every persona created by create_agent, create_specialized_agent, and
// bootstrap_c_suite behaves.
type PromptAgent struct {
	name         string
	persona      string
	systemPrompt string
	asker        JSONAsker
}

// JSONAsker is the subset of Communicator a PromptAgent needs to execute.
type JSONAsker interface {
	GetJSON(ctx context.Context, agent, prompt, errMsg string, retryLog *communicator.RetryLog) (any, float64, error)
}

// NewPromptAgent constructs a PromptAgent. systemPrompt is the full composed
// prompt (role + persona + primer) sent as the system message on every ask.
func NewPromptAgent(name, persona, systemPrompt string, asker JSONAsker) *PromptAgent {
	return &PromptAgent{name: name, persona: persona, systemPrompt: systemPrompt, asker: asker}
}

func (a *PromptAgent) Name() string    { return a.name }
func (a *PromptAgent) Persona() string { return a.persona }

// Execute asks the agent to process input and return a JSON object, using
// the agent's system prompt as context.
func (a *PromptAgent) Execute(ctx context.Context, input map[string]any) (map[string]any, float64, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, 0, fmt.Errorf("agentmanager: marshal input for %s: %w", a.name, err)
	}
	prompt := fmt.Sprintf("%s\n\nInput:\n%s\n\nRespond with a single JSON object.", a.systemPrompt, string(payload))
	var log communicator.RetryLog
	parsed, cost, err := a.asker.GetJSON(ctx, a.name, prompt, "response must be a JSON object", &log)
	if err != nil {
		return nil, cost, err
	}
	out, ok := parsed.(map[string]any)
	if !ok {
		return nil, cost, fmt.Errorf("agentmanager: %s returned a non-object JSON value", a.name)
	}
	return out, cost, nil
}

// textAsker is the subset of Communicator needed for a raw, non-JSON-enforced
// ask. Callers that need to salvage a free-form response themselves (the
// scheduler's C-Suite planning/review/approval prompts) use AskText instead
// of Execute, which enforces a JSON object reply.
type textAsker interface {
	Ask(ctx context.Context, agent, prompt, systemPrompt string, expectJSON, includeHistory bool) (string, float64, error)
}

// AskText sends prompt to the agent with its system prompt as context and
// returns the raw reply text, without requiring or parsing JSON. Returns an
// error if the underlying asker does not support raw text asks.
func (a *PromptAgent) AskText(ctx context.Context, prompt string) (string, float64, error) {
	texter, ok := a.asker.(textAsker)
	if !ok {
		return "", 0, fmt.Errorf("agentmanager: %s's asker does not support raw text asks", a.name)
	}
	return texter.Ask(ctx, a.name, prompt, a.systemPrompt, false, true)
}
