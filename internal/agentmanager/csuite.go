package agentmanager

import (
	"context"
	"fmt"
)

// csuiteSpec describes one fixed C-Suite persona.
type csuiteSpec struct {
	Persona         string
	Expertise       string
	Responsibilities string
}

// csuiteSpecs lists the nine C-Suite agents bootstrap_c_suite creates,
// ported verbatim from the original Launchonomy primer's agent roster.
var csuiteSpecs = map[string]csuiteSpec{
	"CEO-Agent": {
		Persona:          "Chief Executive Officer focused on vision & prioritization",
		Expertise:        "strategic vision, business prioritization, executive decision-making, market positioning",
		Responsibilities: "defines vision & prioritization for the business mission",
	},
	"CRO-Agent": {
		Persona:          "Chief Revenue Officer focused on customer acquisition & revenue",
		Expertise:        "sales strategy, customer acquisition, revenue optimization, conversion funnels",
		Responsibilities: "focuses on customer acquisition & revenue generation",
	},
	"CTO-Agent": {
		Persona:          "Chief Technology Officer owning technical infrastructure & tools",
		Expertise:        "technical architecture, infrastructure, development tools, system integration",
		Responsibilities: "owns technical infrastructure & tools implementation",
	},
	"CPO-Agent": {
		Persona:          "Chief Product Officer owning product/UX experiments & A/B tests",
		Expertise:        "product strategy, user experience, A/B testing, product optimization",
		Responsibilities: "owns product/UX experiments & A/B tests",
	},
	"CMO-Agent": {
		Persona:          "Chief Marketing Officer owning marketing channels & growth hacks",
		Expertise:        "marketing strategy, growth hacking, channel optimization, brand positioning",
		Responsibilities: "owns marketing channels & growth hacks",
	},
	"CDO-Agent": {
		Persona:          "Chief Data Officer owning data strategy, quality, and insights",
		Expertise:        "data strategy, analytics, data quality, business intelligence",
		Responsibilities: "owns data strategy, quality, and insights",
	},
	"CCO-Agent": {
		Persona:          "Chief Compliance Officer owning compliance, legal, and regulatory risk",
		Expertise:        "legal compliance, regulatory requirements, risk management, business law",
		Responsibilities: "owns compliance, legal, and regulatory risk",
	},
	"CFO-Agent": {
		Persona:          "Chief Financial Officer overseeing budgets, profitability & reinvestment strategy",
		Expertise:        "financial planning, budget management, profitability analysis, investment strategy",
		Responsibilities: "oversees budgets, profitability & reinvestment strategy",
	},
	"CCSO-Agent": {
		Persona:          "Chief Customer Success Officer owning post-purchase journey: onboarding, support, retention & advocacy",
		Expertise:        "customer success, onboarding, support systems, retention strategies",
		Responsibilities: "owns post-purchase journey: onboarding, support, retention & advocacy",
	},
}

// StrategicSubset is the fixed {CEO, CRO, CTO, CFO} subset the scheduler
// draws Phase 1 strategic planning participants from (spec §4.10).
var StrategicSubset = []string{"CEO-Agent", "CRO-Agent", "CTO-Agent", "CFO-Agent"}

// operatingPrinciples is appended verbatim to every C-Suite system prompt,
// ported from the Launchonomy orchestrator primer.
const operatingPrinciples = `Operating Principles (from the Launchonomy Primer):
- Objective: acquire the first paying customer as fast as possible, then ignite exponential, profitable growth, automatically and without human plan approvals.
- Budget Constraint: initial budget $500, profit guardrail: total costs never exceed 20% of revenue.
- Self-Governing: you participate in unanimous consensus voting for all proposals.
- Specialization: when faced with tasks beyond your scope, propose creation of new agents/tools.
- No Human Approval: plans never go to humans, only system-critical failures do.

You are part of the founding C-Suite team working together through consensus to achieve the mission. Always consider your specialized perspective while collaborating with other C-Suite agents for unanimous decisions.`

// BootstrapCSuite idempotently creates the nine C-Suite agents, seeding each
// with missionContext and the operating principles in its system prompt.
// C-Suite agents are added to the live agent map but, per spec §3
// Ownership, are never written to the registry — Agent Manager is their
// only owner and they do not survive past the mission.
func (m *Manager) BootstrapCSuite(ctx context.Context, missionContext string) error {
	if m.cSuiteBootstrapped {
		m.logger.Info(ctx, "agentmanager: c-suite already bootstrapped, skipping")
		return nil
	}
	m.logger.Info(ctx, "agentmanager: bootstrapping c-suite")

	for _, name := range orderedCSuiteNames() {
		if _, exists := m.agents[name]; exists {
			continue
		}
		spec := csuiteSpecs[name]
		systemPrompt := fmt.Sprintf(
			"You are %s, the %s.\n\nMission Context: %s\n\nYour Role & Responsibilities:\n%s\n\nYour Core Expertise:\n%s\n\n%s",
			name, spec.Persona, missionContext, spec.Responsibilities, spec.Expertise, operatingPrinciples,
		)
		agent := NewPromptAgent(name, spec.Persona, systemPrompt, m.asker)
		m.agents[name] = agent
		m.logger.Info(ctx, "agentmanager: bootstrapped c-suite agent", "agent", name)
	}

	m.cSuiteBootstrapped = true
	return nil
}

// orderedCSuiteNames returns the nine C-Suite names in their canonical
// presentation order (declaration order in the original primer), not map
// iteration order, so bootstrap logs read deterministically.
func orderedCSuiteNames() []string {
	return []string{
		"CEO-Agent", "CRO-Agent", "CTO-Agent", "CPO-Agent", "CMO-Agent",
		"CDO-Agent", "CCO-Agent", "CFO-Agent", "CCSO-Agent",
	}
}
