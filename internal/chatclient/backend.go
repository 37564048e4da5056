package chatclient

import (
	"context"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

// Usage reports the token counts a backend observed for one call. Either
// field may be zero when a provider does not report it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// CompletionResult is a single backend call's outcome.
type CompletionResult struct {
	Content string
	Usage   Usage
}

// Backend is the minimal surface a concrete provider adapter implements.
// Client wraps a Backend with timeout, retry-with-backoff, and cost
// accounting so provider swaps never touch call sites.
type Backend interface {
	// Name identifies the provider for error reporting and cost lookups
	// (for example "openai", "anthropic", "bedrock").
	Name() string
	// Complete issues one request. Errors should be *BackendError so Client
	// can decide whether to retry; any other error is treated as
	// CategorySystem and retried like a transient failure.
	Complete(ctx context.Context, messages []communicator.Message, model string) (CompletionResult, error)
}
