// Package memoryhelper provides typed convenience methods for logging
// mission events, insights, decisions, metrics, and outcomes into a
// mission's vector memory collection. Every method is best-effort: a
// storage failure is logged and swallowed, returning an empty memory id
// rather than an error, since memory is advisory context for agents, never
// load-bearing mission state.
package memoryhelper

import (
	"context"
	"fmt"
	"strings"

	"github.com/launchonomy/orchestrator/internal/telemetry"
	"github.com/launchonomy/orchestrator/internal/vectormemory"
)

// Helper logs structured entries into one mission's vector memory
// collection under a fixed set of categories agents and the scheduler can
// later query by.
type Helper struct {
	store     vectormemory.Store
	missionID string
	logger    telemetry.Logger
}

// New constructs a Helper scoped to one mission's collection. store may be
// nil, in which case every Log* method is a no-op returning "".
func New(store vectormemory.Store, missionID string, logger telemetry.Logger) *Helper {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Helper{store: store, missionID: missionID, logger: logger}
}

// LogWorkflowEvent records a workflow step's outcome under category
// "workflow_event".
func (h *Helper) LogWorkflowEvent(ctx context.Context, step, summary string, details map[string]any) string {
	lines := []string{"Workflow Step: " + step, "Summary: " + summary}
	if len(details) > 0 {
		lines = append(lines, "Details:")
		for k, v := range details {
			lines = append(lines, fmt.Sprintf("  - %s: %v", k, v))
		}
	}
	return h.upsert(ctx, strings.Join(lines, "\n"), map[string]any{
		"type":     "event",
		"step":     step,
		"category": "workflow_event",
	})
}

// LogInsight records a learning or observation under category "learning".
func (h *Helper) LogInsight(ctx context.Context, insight, source string, confidence float64) string {
	content := fmt.Sprintf("Insight: %s\nSource: %s\nConfidence: %.2f", insight, source, confidence)
	return h.upsert(ctx, content, map[string]any{
		"type":       "insight",
		"source":     source,
		"confidence": confidence,
		"category":   "learning",
	})
}

// LogDecision records an agent's decision and rationale under category
// "decision_making".
func (h *Helper) LogDecision(ctx context.Context, decision, rationale, agentName string) string {
	content := fmt.Sprintf("Decision: %s\nRationale: %s\nDecision Maker: %s", decision, rationale, agentName)
	return h.upsert(ctx, content, map[string]any{
		"type":     "decision",
		"agent":    agentName,
		"category": "decision_making",
	})
}

// LogPerformanceMetrics records a workflow step's metrics under category
// "performance".
func (h *Helper) LogPerformanceMetrics(ctx context.Context, step string, metrics map[string]any) string {
	lines := []string{fmt.Sprintf("Performance Metrics for %s:", step)}
	for k, v := range metrics {
		switch n := v.(type) {
		case float64:
			lines = append(lines, fmt.Sprintf("  - %s: %.2f", k, n))
		case float32:
			lines = append(lines, fmt.Sprintf("  - %s: %.2f", k, n))
		case int:
			lines = append(lines, fmt.Sprintf("  - %s: %d", k, n))
		default:
			lines = append(lines, fmt.Sprintf("  - %s: %v", k, v))
		}
	}
	return h.upsert(ctx, strings.Join(lines, "\n"), map[string]any{
		"type":     "metrics",
		"step":     step,
		"category": "performance",
	})
}

// LogErrorOrFailure records a step failure for future learning under
// category "failure_learning".
func (h *Helper) LogErrorOrFailure(ctx context.Context, step, description string, stepContext map[string]any) string {
	lines := []string{fmt.Sprintf("Error in %s:", step), "Description: " + description}
	if len(stepContext) > 0 {
		lines = append(lines, "Context:")
		for k, v := range stepContext {
			lines = append(lines, fmt.Sprintf("  - %s: %v", k, v))
		}
	}
	return h.upsert(ctx, strings.Join(lines, "\n"), map[string]any{
		"type":     "error",
		"step":     step,
		"category": "failure_learning",
	})
}

// LogSuccessPattern records a successful pattern for future replication
// under category "success_pattern".
func (h *Helper) LogSuccessPattern(ctx context.Context, step, description string, keyFactors []string) string {
	lines := []string{fmt.Sprintf("Success in %s:", step), "Description: " + description, "Key Success Factors:"}
	for _, f := range keyFactors {
		lines = append(lines, "  - "+f)
	}
	return h.upsert(ctx, strings.Join(lines, "\n"), map[string]any{
		"type":     "success",
		"step":     step,
		"category": "success_pattern",
	})
}

func (h *Helper) upsert(ctx context.Context, content string, metadata map[string]any) string {
	if h.store == nil {
		return ""
	}
	metadata["mission"] = h.missionID
	id, err := h.store.Upsert(ctx, h.missionID, "", content, "TEXT", metadata)
	if err != nil {
		h.logger.Error(ctx, "memoryhelper: failed to log memory entry", "category", metadata["category"], "error", err)
		return ""
	}
	return id
}
