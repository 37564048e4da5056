package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

// conductReview runs Phase 3: up to 2 available strategic C-Suite agents
// assess the cycle's results and recommend adjustments/next focus, folded
// into context_updates the caller applies back onto mission context.
func (s *Scheduler) conductReview(ctx context.Context, cycleSummary string) reviewResult {
	result := reviewResult{ContextUpdates: make(map[string]any)}

	participants := s.availableStrategists(2)
	if len(participants) == 0 {
		return result
	}

	nextFocus := "continue_current_strategy"
	for _, name := range participants {
		agent, ok := s.agents.Get(name)
		if !ok {
			continue
		}
		prompt := fmt.Sprintf(`Cycle Results: %s

As %s, review this cycle's performance:
1. How do you assess this cycle's results?
2. What strategic adjustments should we make?
3. What should be our focus for the next iteration?

Respond with JSON: {"assessment": "...", "adjustments": [], "next_focus": "..."}`, cycleSummary, name)

		text, cost, err := s.askText(ctx, agent, prompt)
		result.Cost += cost
		if err != nil {
			s.logger.Warn(ctx, "scheduler: review ask failed", "agent", name, "error", err)
			continue
		}

		var parsed struct {
			Assessment  string   `json:"assessment"`
			Adjustments []string `json:"adjustments"`
			NextFocus   string   `json:"next_focus"`
		}
		if err := json.Unmarshal([]byte(communicator.ExtractJSON(text)), &parsed); err == nil && parsed.Assessment != "" {
			result.Assessments = append(result.Assessments, participantReview{
				Agent: name, Assessment: parsed.Assessment, Adjustments: parsed.Adjustments, NextFocus: parsed.NextFocus,
			})
			if parsed.NextFocus != "" {
				nextFocus = parsed.NextFocus
			}
			continue
		}

		// Salvage from free text, matching the original review session's
		// keyword-based interpretation.
		lower := strings.ToLower(text)
		pr := participantReview{Agent: name, Salvaged: true}
		if strings.Contains(lower, "adjust") || strings.Contains(lower, "change") {
			pr.Adjustments = []string{truncate(fmt.Sprintf("%s: %s", name, text), 100)}
		}
		switch {
		case strings.Contains(lower, "focus") && strings.Contains(lower, "marketing"):
			nextFocus = "marketing_optimization"
		case strings.Contains(lower, "focus") && strings.Contains(lower, "product"):
			nextFocus = "product_development"
		case strings.Contains(lower, "focus") && strings.Contains(lower, "growth"):
			nextFocus = "growth_acceleration"
		}
		result.Assessments = append(result.Assessments, pr)
	}

	result.ContextUpdates["next_iteration_focus"] = nextFocus
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
