package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/launchonomy/orchestrator/internal/agentmanager"
	"github.com/launchonomy/orchestrator/internal/communicator"
)

// conductPlanning runs Phase 1: up to 3 available strategic C-Suite agents
// are each asked for their focus/budget/risks/opportunities, and the
// elected strategic_focus is the plurality vote among their answers.
func (s *Scheduler) conductPlanning(ctx context.Context, missionContext, cycleContext string) planningResult {
	result := planningResult{
		StrategicFocus: "customer_acquisition",
		Guidance:       make(map[string]participantPlan),
	}

	participants := s.availableStrategists(3)
	if len(participants) == 0 {
		s.logger.Warn(ctx, "scheduler: no c-suite agents available for planning, using default strategy")
		result.NextActions = nextActionsFor(result.StrategicFocus)
		return result
	}

	votes := make(map[string]int)
	for _, name := range participants {
		agent, ok := s.agents.Get(name)
		if !ok {
			continue
		}
		plan, cost := s.askForPlan(ctx, agent, name, missionContext, cycleContext)
		result.Cost += cost
		result.Guidance[name] = plan
		votes[plan.Focus]++
	}

	if len(votes) == 0 {
		result.NextActions = nextActionsFor(result.StrategicFocus)
		return result
	}

	result.StrategicFocus = plurality(votes)
	result.NextActions = nextActionsFor(result.StrategicFocus)
	return result
}

func (s *Scheduler) askForPlan(ctx context.Context, agent agentmanager.Agent, name, missionContext, cycleContext string) (participantPlan, float64) {
	prompt := fmt.Sprintf(`Mission Context: %s
Cycle Context: %s

As %s, provide your strategic input for this iteration:
1. What should be our primary focus this cycle?
2. How should we allocate our budget?
3. What are the key risks and opportunities?

Respond with JSON: {"focus": "...", "budget_recommendation": {}, "risks": [], "opportunities": []}`, missionContext, cycleContext, name)

	text, cost, err := s.askText(ctx, agent, prompt)
	if err != nil {
		s.logger.Warn(ctx, "scheduler: planning ask failed", "agent", name, "error", err)
		return participantPlan{Agent: name, Focus: "general_strategy"}, cost
	}

	var parsed struct {
		Focus                string         `json:"focus"`
		BudgetRecommendation map[string]any `json:"budget_recommendation"`
		Risks                []string       `json:"risks"`
		Opportunities        []string       `json:"opportunities"`
	}
	if err := json.Unmarshal([]byte(communicator.ExtractJSON(text)), &parsed); err == nil && parsed.Focus != "" {
		return participantPlan{
			Agent:         name,
			Focus:         parsed.Focus,
			Risks:         parsed.Risks,
			Opportunities: parsed.Opportunities,
		}, cost
	}

	// Salvage from free text, matching the fixed two-way heuristic the
	// original planning session falls back to on a JSON parse failure.
	focus := "product_development"
	if strings.Contains(strings.ToLower(text), "customer") {
		focus = "customer_acquisition"
	}
	return participantPlan{
		Agent:         name,
		Focus:         focus,
		Risks:         []string{"market_competition", "budget_constraints"},
		Opportunities: []string{"ai_automation", "saas_growth"},
		Salvaged:      true,
	}, cost
}

// nextActionsFor returns the fixed three action strings for a strategic
// focus, matching the original planning session's focus-to-actions table.
func nextActionsFor(focus string) []string {
	switch focus {
	case "customer_acquisition":
		return []string{
			"Execute ScanAgent to identify high-conversion opportunities",
			"Deploy customer acquisition campaigns via CampaignAgent",
			"Monitor conversion metrics and customer feedback",
		}
	case "product_development":
		return []string{
			"Execute DeployAgent for rapid MVP development",
			"Implement A/B testing for product features",
			"Gather user feedback and iterate quickly",
		}
	case "growth_acceleration":
		return []string{
			"Execute GrowthAgent for viral growth experiments",
			"Scale successful marketing channels",
			"Optimize conversion funnels and retention",
		}
	default:
		return []string{
			"Execute workflow agents based on strategic focus",
			"Monitor budget utilization and ROI",
			"Track key performance indicators",
		}
	}
}

// availableStrategists returns up to limit names from the fixed strategic
// subset that are currently live in Agent Manager.
func (s *Scheduler) availableStrategists(limit int) []string {
	var names []string
	for _, name := range agentmanager.StrategicSubset {
		if _, ok := s.agents.Get(name); ok {
			names = append(names, name)
			if len(names) == limit {
				break
			}
		}
	}
	return names
}

// plurality returns the key with the highest vote count, breaking ties by
// orderedVoteKeys' order to stay deterministic.
func plurality(votes map[string]int) string {
	best := ""
	bestCount := -1
	for _, candidate := range orderedVoteKeys(votes) {
		if votes[candidate] > bestCount {
			best = candidate
			bestCount = votes[candidate]
		}
	}
	return best
}

// orderedVoteKeys returns votes' keys in a stable order: known focuses
// first (in the table's order), then any unrecognized focus in
// encounter-insensitive alphabetical order, so plurality ties resolve the
// same way every run.
func orderedVoteKeys(votes map[string]int) []string {
	known := []string{"customer_acquisition", "product_development", "growth_acceleration", "general_strategy"}
	seen := make(map[string]bool, len(votes))
	ordered := make([]string, 0, len(votes))
	for _, k := range known {
		if _, ok := votes[k]; ok {
			ordered = append(ordered, k)
			seen[k] = true
		}
	}
	var unknown []string
	for k := range votes {
		if !seen[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return append(ordered, unknown...)
}
