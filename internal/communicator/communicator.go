// Package communicator implements the single entry point every mission
// component uses to talk to an agent: a conversational ask, and a JSON
// pipeline built on top of it with bounded, logged retries.
package communicator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/launchonomy/orchestrator/internal/telemetry"
)

// maxHistoryMessages bounds the trailing conversation window kept per agent.
const maxHistoryMessages = 20

// Message is one turn in a conversation, in the shape every ChatCompleter
// implementation accepts.
type Message struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// ChatCompleter is the minimal surface Communicator needs from a chat
// client. internal/chatclient.Client satisfies this structurally.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message) (reply string, cost float64, err error)
}

// AgentCommunicationError is returned when an ask fails outright: an empty
// response, repeated JSON parse failure, or an upstream error surviving all
// retries.
type AgentCommunicationError struct {
	Agent string
	Cause error
}

func (e *AgentCommunicationError) Error() string {
	return fmt.Sprintf("communicator: agent %s: %v", e.Agent, e.Cause)
}

func (e *AgentCommunicationError) Unwrap() error { return e.Cause }

// Communicator mediates every ask/get_json call, keeping a bounded
// per-agent conversation history.
type Communicator struct {
	client  ChatCompleter
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu      sync.Mutex
	history map[string][]Message
}

// New constructs a Communicator backed by client, with a nil logger/metrics
// defaulting to their noop implementations.
func New(client ChatCompleter, logger telemetry.Logger, metrics telemetry.Metrics) *Communicator {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Communicator{client: client, logger: logger, metrics: metrics, history: make(map[string][]Message)}
}

const jsonOnlyInstruction = "\n\nRespond with a single JSON value only. Do not include any surrounding prose, explanation, or markdown fences."

// Ask sends prompt to agent and returns its reply plus the call's cost.
// Messages are assembled as [system?] + [history ≤ 20, if requested] +
// [user]. When expectJSON is set and prompt does not already mention JSON,
// an instruction to reply with JSON only is appended. The agent's trailing
// history window is updated with the user prompt and the assistant's reply.
func (c *Communicator) Ask(ctx context.Context, agent, prompt, systemPrompt string, expectJSON, includeHistory bool) (string, float64, error) {
	userContent := prompt
	if expectJSON && !strings.Contains(strings.ToLower(prompt), "json") {
		userContent += jsonOnlyInstruction
	}

	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	if includeHistory {
		messages = append(messages, c.historyFor(agent)...)
	}
	messages = append(messages, Message{Role: "user", Content: userContent})

	reply, cost, err := c.client.Complete(ctx, messages)
	c.metrics.IncCounter("orchestrator.llm_calls", 1, "agent", agent)
	if err != nil {
		return "", cost, &AgentCommunicationError{Agent: agent, Cause: err}
	}
	if strings.TrimSpace(reply) == "" {
		return "", cost, &AgentCommunicationError{Agent: agent, Cause: fmt.Errorf("empty response")}
	}

	c.appendHistory(agent, Message{Role: "user", Content: userContent}, Message{Role: "assistant", Content: reply})
	return reply, cost, nil
}

func (c *Communicator) historyFor(agent string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.history[agent]
	out := make([]Message, len(h))
	copy(out, h)
	return out
}

func (c *Communicator) appendHistory(agent string, turns ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := append(c.history[agent], turns...)
	if len(h) > maxHistoryMessages {
		h = h[len(h)-maxHistoryMessages:]
	}
	c.history[agent] = h
}
