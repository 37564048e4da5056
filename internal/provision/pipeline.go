package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/launchonomy/orchestrator/internal/agentmanager"
	"github.com/launchonomy/orchestrator/internal/registry"
	"github.com/launchonomy/orchestrator/internal/review"
	"github.com/launchonomy/orchestrator/internal/telemetry"
)

// Consensus is the subset of review.Manager the pipeline needs to put a
// provisioning proposal to a vote.
type Consensus interface {
	BatchPeerReview(ctx context.Context, subjectName, content string, availableAgents []string, final bool) ([]review.Review, float64, error)
	CheckConsensus(reviews []review.Review) bool
}

// Pipeline runs the full auto-provision flow: triviality check, spec
// generation, consensus proposal, and registry installation.
type Pipeline struct {
	registry     *registry.Registry
	agents       *agentmanager.Manager
	asker        JSONAsker
	consensus    Consensus
	logger       telemetry.Logger
	fallbackPort int
}

// New constructs a Pipeline. agents may be nil if the caller never expects
// agent proposals to be applied (trivial requests are always tool
// requests, so this is the common case).
func New(reg *registry.Registry, agents *agentmanager.Manager, asker JSONAsker, consensus Consensus, logger telemetry.Logger) *Pipeline {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Pipeline{
		registry:     reg,
		agents:       agents,
		asker:        asker,
		consensus:    consensus,
		logger:       logger,
		fallbackPort: DefaultFallbackPort,
	}
}

// WithFallbackPort overrides the port used in fallback stub placeholder
// URLs (default DefaultFallbackPort).
func (p *Pipeline) WithFallbackPort(port int) *Pipeline {
	if port > 0 {
		p.fallbackPort = port
	}
	return p
}

// Result describes the outcome of a provisioning attempt.
type Result struct {
	Provisioned bool
	Entry       registry.Entry
	Message     string
}

// Request runs the pipeline for req. A non-trivial request or a consensus
// rejection both return a Result with Provisioned false and an explanatory
// Message, never an error — per spec, failure to auto-provision must not
// prevent the calling workflow step from reporting its own structured
// error. Only infrastructure failures (registry write errors) return err.
func (p *Pipeline) Request(ctx context.Context, req Request, missionContext string, availableAgents []string) (Result, float64, error) {
	if !IsTrivial(req) {
		p.logger.Info(ctx, "provision: request not trivial, declining", "type", req.Type, "name", req.Name)
		return Result{Message: fmt.Sprintf("%s %q is not trivial enough to auto-provision", req.Type, req.Name)}, 0, nil
	}

	spec, cost, err := GenerateToolSpec(ctx, p.asker, req.Name, missionContext, p.fallbackPort)
	if err != nil {
		return Result{}, cost, err
	}

	proposal := registry.Proposal{
		Type: "add_" + req.Type,
		Name: req.Name,
		Spec: spec,
	}
	if req.Type == "agent" {
		proposal.Endpoint = fmt.Sprintf("stub_agents.%s.handle_request", strings.ToLower(req.Name))
	}

	summary := fmt.Sprintf("Proposal to %s %q: %v", proposal.Type, proposal.Name, spec["description"])
	reviews, reviewCost, err := p.consensus.BatchPeerReview(ctx, "AutoProvisionAgent", summary, availableAgents, false)
	cost += reviewCost
	if err != nil {
		return Result{}, cost, err
	}
	if !p.consensus.CheckConsensus(reviews) {
		p.logger.Warn(ctx, "provision: proposal rejected by consensus", "type", req.Type, "name", req.Name)
		return Result{Message: fmt.Sprintf("auto-provisioning of %s %q was rejected by consensus", req.Type, req.Name)}, cost, nil
	}

	if err := p.registry.ApplyProposal(ctx, proposal); err != nil {
		return Result{}, cost, fmt.Errorf("provision: apply proposal: %w", err)
	}
	entry := registry.Entry{Name: proposal.Name, Spec: proposal.Spec, Endpoint: proposal.Endpoint}

	// Only reachable if a caller's triviality policy ever allows an
	// "add_agent" proposal through (IsTrivial itself never does); kept so
	// the apply step matches the full behavior described for auto-provision.
	if req.Type == "agent" && p.agents != nil {
		persona := stringOr(spec, "description", fmt.Sprintf("Auto-provisioned agent for %s", req.Name))
		primer := fmt.Sprintf("You are %s. %s", req.Name, persona)
		if _, err := p.agents.CreateAgent(ctx, req.Name, persona, primer); err != nil {
			p.logger.Warn(ctx, "provision: registry entry applied but agent instantiation failed", "name", req.Name, "error", err)
		}
	}

	p.logger.Info(ctx, "provision: auto-provisioned", "type", req.Type, "name", req.Name, "source", spec["source"])
	return Result{
		Provisioned: true,
		Entry:       entry,
		Message:     fmt.Sprintf("Auto-provisioned %s %q. You can now use it.", req.Type, req.Name),
	}, cost, nil
}

func stringOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
