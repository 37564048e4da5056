package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

const cfoAgentName = "CFO-Agent"

// cfoGrowthApproval runs the CFO Growth Approval guardrail: consults
// CFO-Agent for an approve/deny verdict on this cycle's revenue, with two
// distinct fallback heuristics depending on whether CFO-Agent exists at all
// versus exists but replied with unparseable JSON.
func (s *Scheduler) cfoGrowthApproval(ctx context.Context, revenue float64) growthApproval {
	agent, ok := s.agents.Get(cfoAgentName)
	if !ok {
		// CFO-Agent entirely absent: automatic approval logic based purely on
		// a revenue threshold, distinct from the non-JSON-reply fallback below.
		maxBudget := revenue * 0.2
		if maxBudget > 50 {
			return growthApproval{Approved: true, Budget: min(100, maxBudget), Reason: "Automatic approval based on revenue threshold"}
		}
		return growthApproval{Approved: false, Reason: fmt.Sprintf("Insufficient revenue ($%.2f) for automatic approval", revenue)}
	}

	prompt := fmt.Sprintf(`Current revenue generated: $%.2f

As CFO-Agent, should we approve growth investment for this cycle?
Consider our profit guardrail: total costs never exceed 20%% of revenue.

Respond with JSON: {"approved": true/false, "budget": amount, "reason": "explanation"}`, revenue)

	text, cost, err := s.askText(ctx, agent, prompt)
	if err != nil {
		s.logger.Warn(ctx, "scheduler: cfo growth approval ask failed", "error", err)
		return growthApproval{Reason: "CFO not available", Cost: cost}
	}

	var parsed struct {
		Approved bool    `json:"approved"`
		Budget   float64 `json:"budget"`
		Reason   string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(communicator.ExtractJSON(text)), &parsed); err == nil {
		return growthApproval{Approved: parsed.Approved, Budget: parsed.Budget, Reason: parsed.Reason, Cost: cost}
	}

	// CFO-Agent present but replied in free text: a conservative 15% of
	// revenue heuristic, distinct from the no-CFO-at-all branch above.
	lower := strings.ToLower(text)
	affirmative := []string{"yes", "approve", "approved", "go ahead", "proceed"}
	for _, word := range affirmative {
		if strings.Contains(lower, word) {
			budget := min(100, revenue*0.15)
			return growthApproval{
				Approved: true, Budget: budget, Cost: cost,
				Reason: "CFO approved based on natural language response: " + truncate(text, 100),
			}
		}
	}
	return growthApproval{
		Approved: false, Cost: cost,
		Reason: "CFO declined based on natural language response: " + truncate(text, 100),
	}
}
