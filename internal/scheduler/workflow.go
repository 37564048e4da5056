package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/launchonomy/orchestrator/internal/hooks"
	"github.com/launchonomy/orchestrator/internal/mission"
)

// runWorkflow executes the fixed six-step pipeline in order against cycle,
// isolating each step's failure from the rest: a missing or erroring agent
// records the step as failed and the pipeline continues to the next step.
// Returns the accumulated revenue (extracted from AnalyticsAgent's payload)
// and whether every step that ran succeeded.
func (s *Scheduler) runWorkflow(ctx context.Context, cycle *mission.Cycle, guidance map[string]participantPlan, missionContext, cycleContext string) (revenue float64, allSucceeded bool, totalCost float64) {
	allSucceeded = true
	stepResults := make(map[string]map[string]any)

	for _, step := range workflowSteps {
		outcome := s.runStep(ctx, step, cycle, stepResults, guidance, missionContext, cycleContext)
		totalCost += outcome.Cost

		record := map[string]any{
			"step":      outcome.Step,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if outcome.Succeeded {
			record["status"] = "success"
			record["result"] = outcome.Payload
			cycle.AgentsUsed = append(cycle.AgentsUsed, outcome.Step)
			s.memory.LogWorkflowEvent(ctx, outcome.Step, "step completed successfully", outcome.Payload)
			s.bus.Publish(ctx, hooks.NewStepExecuted(cycle.ParentMissionID, cycle.CycleID, outcome.Step, outcome.Cost))
			if outcome.Step == "AnalyticsAgent" {
				if r, ok := numberField(outcome.Payload, "revenue"); ok {
					revenue += r
				}
			}
		} else {
			record["status"] = "failed"
			errMsg := ""
			if outcome.Err != nil {
				errMsg = outcome.Err.Error()
			}
			record["error"] = errMsg
			allSucceeded = false
			s.memory.LogErrorOrFailure(ctx, outcome.Step, errMsg, map[string]any{"cycle_id": cycle.CycleID})
			s.bus.Publish(ctx, hooks.NewStepFailed(cycle.ParentMissionID, cycle.CycleID, outcome.Step, outcome.Err))
		}
		cycle.ExecutionAttempts = append(cycle.ExecutionAttempts, record)
		stepResults[step] = outcome.Payload
	}

	return revenue, allSucceeded, totalCost
}

// runStep resolves and executes one workflow step's agent, building its
// input from the prior steps' results per the fixed per-agent-type shape.
func (s *Scheduler) runStep(ctx context.Context, step string, cycle *mission.Cycle, priorResults map[string]map[string]any, guidance map[string]participantPlan, missionContext, cycleContext string) stepOutcome {
	ctx, span := s.tracer.Start(ctx, "orchestrator.workflow_step."+step)
	defer span.End()

	agent, cost, ok := s.resolveWorkflowAgent(ctx, step)
	if !ok {
		err := errAgentUnavailable(step)
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent unavailable")
		return stepOutcome{Step: step, Cost: cost, Err: err}
	}

	input := buildStepInput(step, priorResults, missionContext, cycleContext)
	if len(guidance) > 0 {
		input["csuite_guidance"] = guidance
	}

	payload, execCost, err := agent.Execute(ctx, input)
	totalCost := cost + execCost
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "step execution failed")
		return stepOutcome{Step: step, Cost: totalCost, Err: err}
	}
	span.SetStatus(codes.Ok, "step succeeded")
	return stepOutcome{Step: step, Succeeded: true, Payload: payload, Cost: totalCost}
}

// buildStepInput returns the step-specific input map, always carrying
// mission_context and cycle_context alongside the step's own fields.
func buildStepInput(step string, priorResults map[string]map[string]any, missionContext, cycleContext string) map[string]any {
	base := map[string]any{
		"mission_context": missionContext,
		"cycle_context":   cycleContext,
	}

	switch step {
	case "ScanAgent":
		base["focus_areas"] = []string{"saas", "automation", "ai"}
		base["max_opportunities"] = 5
	case "DeployAgent":
		opportunity := map[string]any{"name": "Default SaaS Product", "type": "web_application"}
		if scan := priorResults["ScanAgent"]; scan != nil {
			if opps, ok := scan["opportunities"].([]any); ok && len(opps) > 0 {
				if first, ok := opps[0].(map[string]any); ok {
					opportunity = first
				}
			}
		}
		base["opportunity"] = opportunity
		base["requirements"] = map[string]any{}
		base["budget_limit"] = 500
	case "CampaignAgent":
		productDetails := map[string]any{"name": "Default Product"}
		if deploy := priorResults["DeployAgent"]; deploy != nil {
			if pd, ok := deploy["product_details"].(map[string]any); ok {
				productDetails = pd
			}
		}
		base["campaign_type"] = "launch"
		base["product_details"] = productDetails
		base["budget_allocation"] = map[string]any{"total_budget": 200}
	case "AnalyticsAgent":
		base["analysis_type"] = "comprehensive"
		base["time_period"] = "current_month"
		base["specific_metrics"] = []string{"revenue", "users", "conversion_rate"}
	case "FinanceAgent":
		base["operation_type"] = "marketing_campaign"
		base["estimated_cost"] = 100.0
		base["time_period"] = "monthly"
	case "GrowthAgent":
		base["growth_phase"] = "early"
		base["current_metrics"] = map[string]any{}
		base["experiment_budget"] = 100
	}
	return base
}

func numberField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
