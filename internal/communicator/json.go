package communicator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxJSONRetries bounds how many times GetJSON re-prompts an agent after a
// parse failure before giving up.
const MaxJSONRetries = 2

var fencedJSONBlock = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Attempt records one try within a GetJSON call, successful or not.
type Attempt struct {
	Timestamp time.Time
	Agent     string
	Prompt    string
	Raw       string
	Snippet   string
	Parsed    any
	Err       error
	Cost      float64
}

// RetryLog accumulates Attempts across a GetJSON call. Callers typically
// persist it alongside the cycle log for post-hoc debugging.
type RetryLog struct {
	Attempts []Attempt
}

func (l *RetryLog) record(a Attempt) {
	if l != nil {
		l.Attempts = append(l.Attempts, a)
	}
}

// GetJSON asks agent for a JSON value and parses it, retrying up to
// MaxJSONRetries times (beyond the initial attempt) when extraction or
// parsing fails. Every attempt, successful or not, is appended to retryLog.
// The returned cost is the sum across every attempt made.
func (c *Communicator) GetJSON(ctx context.Context, agent, prompt, errMsg string, retryLog *RetryLog) (any, float64, error) {
	var totalCost float64
	currentPrompt := prompt

	for attempt := 0; attempt <= MaxJSONRetries; attempt++ {
		raw, cost, err := c.Ask(ctx, agent, currentPrompt, "", true, true)
		totalCost += cost
		if err != nil {
			retryLog.record(Attempt{Timestamp: time.Now().UTC(), Agent: agent, Prompt: currentPrompt, Err: err, Cost: cost})
			if attempt == MaxJSONRetries {
				return nil, totalCost, &AgentCommunicationError{Agent: agent, Cause: err}
			}
			currentPrompt = augmentWithError(prompt, errMsg, err.Error())
			continue
		}

		snippet := ExtractJSON(raw)
		var parsed any
		parseErr := json.Unmarshal([]byte(snippet), &parsed)
		retryLog.record(Attempt{
			Timestamp: time.Now().UTC(), Agent: agent, Prompt: currentPrompt,
			Raw: raw, Snippet: snippet, Parsed: parsed, Err: parseErr, Cost: cost,
		})
		if parseErr == nil {
			return parsed, totalCost, nil
		}
		if attempt == MaxJSONRetries {
			return nil, totalCost, &AgentCommunicationError{Agent: agent, Cause: fmt.Errorf("%s: %w", errMsg, parseErr)}
		}
		c.metrics.IncCounter("orchestrator.json_parse_retries", 1, "agent", agent)
		currentPrompt = augmentWithError(prompt, errMsg, parseErr.Error())
	}
	return nil, totalCost, &AgentCommunicationError{Agent: agent, Cause: fmt.Errorf("%s: exhausted retries", errMsg)}
}

func augmentWithError(prompt, errMsg, detail string) string {
	return fmt.Sprintf("%s\n\nYour previous response could not be parsed (%s: %s). Reply again, fixing the problem.", prompt, errMsg, detail)
}

// ExtractJSON pulls a JSON value out of free-form text: first a fenced
// ```json ... ``` block, then the first balanced {...} or [...] substring.
// If neither is found, the trimmed input is returned unchanged so json.
// Unmarshal can produce a meaningful parse error.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if m := fencedJSONBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if snippet := firstBalanced(text, '{', '}'); snippet != "" {
		return snippet
	}
	if snippet := firstBalanced(text, '[', ']'); snippet != "" {
		return snippet
	}
	return text
}

// firstBalanced returns the first substring of text starting at open and
// ending at its matching close, respecting quoted strings so braces inside
// string literals are not mistaken for structural ones.
func firstBalanced(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
