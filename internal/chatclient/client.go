// Package chatclient wraps a concrete LLM backend (OpenAI, Anthropic, or
// Bedrock) with a per-call timeout, bounded exponential-backoff retry, a
// process-local token-bucket rate limit, and usage-based cost accounting.
// Client satisfies communicator.ChatCompleter so it can sit behind the
// Agent Communicator without that package importing any provider SDK.
package chatclient

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/launchonomy/orchestrator/internal/communicator"
	"github.com/launchonomy/orchestrator/internal/costcalc"
	"github.com/launchonomy/orchestrator/internal/telemetry"
)

const (
	// DefaultTimeout bounds a single backend call, per spec.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxRetries is how many times a transient failure is retried
	// beyond the initial attempt.
	DefaultMaxRetries = 3
	// DefaultBackoffBase is the base delay for exponential backoff between
	// retries (base * 2^attempt).
	DefaultBackoffBase = 1 * time.Second
)

// Options configures Client. Zero values fall back to the package defaults.
type Options struct {
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	// RatePerMinute bounds outbound calls per minute via a token bucket.
	// Zero disables rate limiting.
	RatePerMinute int
	Logger        telemetry.Logger
}

// Client wraps a Backend with timeout, retry, rate limiting, and cost
// accounting. It satisfies communicator.ChatCompleter.
type Client struct {
	backend     Backend
	model       string
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	limiter     *rate.Limiter
	logger      telemetry.Logger
}

var _ communicator.ChatCompleter = (*Client)(nil)

// New builds a Client around backend using opts, filling unset fields with
// package defaults.
func New(backend Backend, opts Options) *Client {
	c := &Client{
		backend:     backend,
		model:       opts.Model,
		timeout:     opts.Timeout,
		maxRetries:  opts.MaxRetries,
		backoffBase: opts.BackoffBase,
		logger:      opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.backoffBase <= 0 {
		c.backoffBase = DefaultBackoffBase
	}
	if c.logger == nil {
		c.logger = telemetry.NewNoopLogger()
	}
	if opts.RatePerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60.0), opts.RatePerMinute)
	}
	return c
}

// Complete issues one logical request against the wrapped backend, retrying
// transient failures with exponential backoff, and returns the response text
// plus its dollar cost via costcalc.TokenCost. It satisfies
// communicator.ChatCompleter.
func (c *Client) Complete(ctx context.Context, messages []communicator.Message) (string, float64, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", 0, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		result, err := c.backend.Complete(callCtx, messages, c.model)
		cancel()

		if err == nil {
			cost := costcalc.TokenCost(result.Usage.InputTokens, result.Usage.OutputTokens, c.model)
			return result.Content, cost, nil
		}

		lastErr = err
		var backendErr *BackendError
		// Unclassified errors (context deadline, network I/O) are treated as
		// transient system failures and retried.
		retryable := true
		if errors.As(err, &backendErr) {
			retryable = backendErr.Retryable()
		}
		if !retryable || attempt == c.maxRetries {
			break
		}

		delay := backoffDelay(c.backoffBase, attempt)
		c.logger.Warn(ctx, "chat backend call failed, retrying", "backend", c.backend.Name(), "attempt", attempt, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", 0, ctx.Err()
		case <-timer.C:
		}
	}
	return "", 0, lastErr
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	return time.Duration(float64(base) * math.Pow(2, float64(attempt)))
}
