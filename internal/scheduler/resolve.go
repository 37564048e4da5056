package scheduler

import (
	"context"
	"fmt"

	"github.com/launchonomy/orchestrator/internal/agentmanager"
	"github.com/launchonomy/orchestrator/internal/provision"
)

// resolveWorkflowAgent resolves a fixed workflow step's agent: first
// against Agent Manager's live roster, then against the registry (loading a
// previously-registered entry into a live PromptAgent, the Go-native
// analogue of load_registered's dynamic module/class instantiation — Go has
// no runtime module loader, so a registry entry is loaded as a persona-only
// PromptAgent rather than resolved to an arbitrary constructor), and
// finally by requesting auto-provisioning (§4.8). Returns ok=false, with no
// error, if the agent remains unavailable after all three steps — the
// caller records the step as failed and continues, per spec.
func (s *Scheduler) resolveWorkflowAgent(ctx context.Context, name string) (agentmanager.Agent, float64, bool) {
	if agent, ok := s.agents.Get(name); ok {
		return agent, 0, true
	}

	if entry, ok := s.registry.GetAgentSpec(name); ok {
		persona := stringOrDefault(entry.Spec, "description", fmt.Sprintf("Workflow agent %s", name))
		primer := stringOrDefault(entry.Spec, "primer", "")
		agent, err := s.agents.CreateAgent(ctx, name, persona, primer)
		if err != nil {
			s.logger.Warn(ctx, "scheduler: failed to instantiate registered agent", "agent", name, "error", err)
		} else {
			return agent, 0, true
		}
	}

	req := provision.Request{Type: "agent", Name: name, Reason: "not_found"}
	s.metrics.IncCounter("orchestrator.auto_provision_attempts", 1, "agent", name)
	result, cost, err := s.provisionPipeline.Request(ctx, req, s.missionContextSummary(), s.agents.Names())
	if err != nil {
		s.logger.Warn(ctx, "scheduler: auto-provision request errored", "agent", name, "error", err)
		return nil, cost, false
	}
	if !result.Provisioned {
		s.logger.Info(ctx, "scheduler: agent unavailable after auto-provision attempt", "agent", name, "message", result.Message)
		return nil, cost, false
	}
	agent, ok := s.agents.Get(name)
	return agent, cost, ok
}

func stringOrDefault(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
