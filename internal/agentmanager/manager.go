package agentmanager

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/launchonomy/orchestrator/internal/communicator"
	"github.com/launchonomy/orchestrator/internal/registry"
	"github.com/launchonomy/orchestrator/internal/telemetry"
)

// Manager owns the in-memory map of live agent instances, per spec
// Ownership: the scheduler is single-threaded, so this map needs no
// synchronization of its own.
type Manager struct {
	registry           *registry.Registry
	asker              JSONAsker
	primers            PrimerLoader
	logger             telemetry.Logger
	agents             map[string]Agent
	cSuiteBootstrapped bool
}

// New constructs a Manager. asker answers the JSON prompts create_agent's
// personas issue when executed; primers loads role-specific specialist
// primer templates (a FileTemplateLoader in production, nil for "always
// fall back to the generated primer").
func New(reg *registry.Registry, asker JSONAsker, primers PrimerLoader, logger telemetry.Logger) *Manager {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if primers == nil {
		primers = NoPrimers{}
	}
	return &Manager{
		registry: reg,
		asker:    asker,
		primers:  primers,
		logger:   logger,
		agents:   make(map[string]Agent),
	}
}

// Agents returns the live agent map. Callers must not mutate it.
func (m *Manager) Agents() map[string]Agent {
	return m.agents
}

// Get returns the named live agent, if any.
func (m *Manager) Get(name string) (Agent, bool) {
	a, ok := m.agents[name]
	return a, ok
}

// Names returns the names of every currently live agent.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.agents))
	for name := range m.agents {
		names = append(names, name)
	}
	return names
}

// CreateAgent constructs a PromptAgent with composed system prompt
// "You are {roleName}. {persona}\n\n{primer}", resolving name collisions by
// appending _N, and registers it in the live map.
func (m *Manager) CreateAgent(ctx context.Context, roleName, persona, primer string) (*PromptAgent, error) {
	name := roleName
	if _, exists := m.agents[name]; exists {
		counter := 1
		for {
			candidate := fmt.Sprintf("%s_%d", roleName, counter)
			if _, exists := m.agents[candidate]; !exists {
				name = candidate
				break
			}
			counter++
		}
	}
	systemPrompt := fmt.Sprintf("You are %s. %s\n\n%s", name, persona, primer)
	agent := NewPromptAgent(name, persona, systemPrompt, m.asker)
	m.agents[name] = agent
	m.logger.Info(ctx, "agentmanager: created agent", "agent", name)
	return agent, nil
}

var nonWordRun = regexp.MustCompile(`\W+`)

// specializationSpec is the JSON object the orchestrator persona returns
// when asked to design a specialist for a decision.
type specializationSpec struct {
	Name      string `json:"name"`
	Persona   string `json:"persona"`
	Expertise string `json:"expertise"`
}

// CreateSpecializedAgent asks the orchestrator persona to design a spec for
// decision (name, persona, expertise), sanitizes the chosen name into an
// identifier, attempts to load a role-specific primer template, and falls
// back to a generic primer and name FallbackGenericSpecialist[_N] on any
// failure. Returns the created agent and the cost of the spec-design call.
func (m *Manager) CreateSpecializedAgent(ctx context.Context, decision string) (*PromptAgent, float64, error) {
	spec, cost, err := m.designSpecializationSpec(ctx, decision)
	if err != nil {
		m.logger.Warn(ctx, "agentmanager: specialization design failed, falling back", "decision", decision, "error", err)
		agent, fbErr := m.createFallbackGenericSpecialist(ctx)
		return agent, cost, fbErr
	}

	name := sanitizeIdentifier(spec.Name)
	name = disambiguate(name, m.agents)

	primer, source := m.loadSpecialistPrimer(spec.Name, spec.Persona, spec.Expertise, name)
	m.logger.Info(ctx, "agentmanager: created specialized agent", "agent", name, "primer_source", source)

	agent, err := m.CreateAgent(ctx, name, spec.Persona, primer)
	if err != nil {
		fallback, fbErr := m.createFallbackGenericSpecialist(ctx)
		return fallback, cost, fbErr
	}
	return agent, cost, nil
}

func (m *Manager) designSpecializationSpec(ctx context.Context, decision string) (specializationSpec, float64, error) {
	if m.asker == nil {
		return specializationSpec{}, 0, fmt.Errorf("agentmanager: no orchestrator available to design a specialist spec")
	}
	prompt := fmt.Sprintf(
		"Design a specialist agent for this decision: %q. The agent should be focused and "+
			"effective for this specific task. Reply with a JSON object containing these keys: "+
			"{\"name\": a concise descriptive name like \"CodeReviewAgent\", "+
			"\"persona\": a brief description of its persona, "+
			"\"expertise\": a comma-separated list of key expertise areas}.", decision)
	var log communicator.RetryLog
	parsed, cost, err := m.asker.GetJSON(ctx, "Orchestrator", prompt, "expected name/persona/expertise JSON object", &log)
	if err != nil {
		return specializationSpec{}, cost, err
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return specializationSpec{}, cost, fmt.Errorf("agentmanager: specialization spec was not a JSON object")
	}
	spec := specializationSpec{
		Name:      stringField(obj, "name"),
		Persona:   stringField(obj, "persona"),
		Expertise: stringField(obj, "expertise"),
	}
	if spec.Name == "" {
		return specializationSpec{}, cost, fmt.Errorf("agentmanager: specialization spec missing name")
	}
	return spec, cost, nil
}

func (m *Manager) createFallbackGenericSpecialist(ctx context.Context) (*PromptAgent, error) {
	name := disambiguate("FallbackGenericSpecialist", m.agents)
	primer, err := m.primers.Load("generic")
	if err != nil {
		primer = "You are a generic specialist AI agent. Use your analytical skills to address the task."
	}
	return m.CreateAgent(ctx, name, "a generic AI assistant for fallback scenarios", primer)
}

func (m *Manager) loadSpecialistPrimer(rawName, persona, expertise, sanitizedName string) (primer, source string) {
	templateKey := strings.ToLower(strings.ReplaceAll(rawName, " ", "_"))
	if text, err := m.primers.Load(templateKey); err == nil {
		return text, "template:" + templateKey
	}
	return fmt.Sprintf(
		"You are %s. %s.\nYour core expertise lies in: %s.\nFocus on your specialized role to address the tasks given to you.",
		sanitizedName, persona, expertise,
	), "generated_from_spec"
}

func sanitizeIdentifier(name string) string {
	sanitized := nonWordRun.ReplaceAllString(name, "_")
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		return "Specialist"
	}
	return sanitized
}

func disambiguate(base string, existing map[string]Agent) string {
	if _, exists := existing[base]; !exists {
		return base
	}
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d", base, counter)
		if _, exists := existing[candidate]; !exists {
			return candidate
		}
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
