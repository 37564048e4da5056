package costcalc

import (
	"fmt"
	"log"
)

// TokenUsage captures prompt/completion token counts for a single LLM call,
// along with the model that served it. This is the unit every other
// aggregation in this package is built from.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	Model        string
}

// CallCost is a single LLM call's token usage plus any direct (non-token)
// cost reported alongside it (e.g. a tool invocation fee).
type CallCost struct {
	TokenUsage TokenUsage
	DirectCost float64
}

// TokenCost returns the dollar cost of a token usage record against
// OpenAIPricing. Unknown models fall back to DefaultModel with a logged
// warning, matching the source calculator's behavior.
func TokenCost(inputTokens, outputTokens int, model string) float64 {
	pricing, ok := OpenAIPricing[model]
	if !ok {
		log.Printf("costcalc: unknown model %q, using %s pricing", model, DefaultModel)
		pricing = OpenAIPricing[DefaultModel]
	}
	return float64(inputTokens)*pricing.InputPerToken + float64(outputTokens)*pricing.OutputPerToken
}

// callCostSum sums TokenCost plus any direct cost across a set of calls.
func callCostSum(calls []CallCost) float64 {
	var total float64
	for _, c := range calls {
		if c.TokenUsage.InputTokens != 0 || c.TokenUsage.OutputTokens != 0 {
			model := c.TokenUsage.Model
			if model == "" {
				model = "gpt-4"
			}
			total += TokenCost(c.TokenUsage.InputTokens, c.TokenUsage.OutputTokens, model)
		}
		total += c.DirectCost
	}
	return total
}

// WorkflowStepCost sums the token cost and direct cost of a single workflow
// step's calls, plus the cost of any nested sub-operations (tool calls the
// step itself made).
func WorkflowStepCost(calls []CallCost, subOperations ...[]CallCost) float64 {
	total := callCostSum(calls)
	for _, sub := range subOperations {
		total += callCostSum(sub)
	}
	return total
}

// CSuitePlanningCost sums the token/direct cost of every C-Suite
// participant's Phase 1 planning call.
func CSuitePlanningCost(byAgent map[string]CallCost) float64 {
	return agentCostSum(byAgent)
}

// CSuiteReviewCost sums the token/direct cost of every C-Suite
// participant's Phase 3 review call.
func CSuiteReviewCost(byAgent map[string]CallCost) float64 {
	return agentCostSum(byAgent)
}

func agentCostSum(byAgent map[string]CallCost) float64 {
	var total float64
	for _, c := range byAgent {
		total += callCostSum([]CallCost{c})
	}
	return total
}

// CycleCostInputs groups the four contributions to a cycle's total cost.
type CycleCostInputs struct {
	Planning    map[string]CallCost
	Steps       map[string][]CallCost
	Review      map[string]CallCost
	DirectCosts float64
}

// CycleCost sums planning + steps + review + direct costs for one cycle.
func CycleCost(in CycleCostInputs) float64 {
	total := CSuitePlanningCost(in.Planning) + CSuiteReviewCost(in.Review) + in.DirectCosts
	for _, calls := range in.Steps {
		total += callCostSum(calls)
	}
	return total
}

// MissionCost sums CycleCost across every cycle in a mission's execution log.
func MissionCost(cycles []CycleCostInputs) float64 {
	var total float64
	for _, c := range cycles {
		total += CycleCost(c)
	}
	return total
}

// CostBreakdown reports the per-phase contribution to a cycle's total cost.
type CostBreakdown struct {
	Planning  float64
	Workflow  float64
	Review    float64
	Other     float64
}

// BreakdownCycleCost returns the same total as CycleCost, split by phase.
func BreakdownCycleCost(in CycleCostInputs) CostBreakdown {
	b := CostBreakdown{
		Planning: CSuitePlanningCost(in.Planning),
		Review:   CSuiteReviewCost(in.Review),
		Other:    in.DirectCosts,
	}
	for _, calls := range in.Steps {
		b.Workflow += callCostSum(calls)
	}
	return b
}

// FormatCostSummary renders a cost and optional breakdown for log/CLI display.
func FormatCostSummary(cost float64, breakdown *CostBreakdown) string {
	summary := fmt.Sprintf("$%.4f", cost)
	if breakdown == nil {
		return summary
	}
	parts := []struct {
		name   string
		amount float64
	}{
		{"csuite_planning", breakdown.Planning},
		{"workflow_execution", breakdown.Workflow},
		{"csuite_review", breakdown.Review},
		{"other", breakdown.Other},
	}
	details := ""
	for _, p := range parts {
		if p.amount <= 0 {
			continue
		}
		if details != "" {
			details += ", "
		}
		details += fmt.Sprintf("%s: $%.4f", p.name, p.amount)
	}
	if details != "" {
		summary += fmt.Sprintf(" (%s)", details)
	}
	return summary
}
