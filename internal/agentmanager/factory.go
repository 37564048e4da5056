package agentmanager

import (
	"context"

	"github.com/launchonomy/orchestrator/internal/registry"
)

// FactoryDeps is what a registered factory needs to build an Agent: the
// registry (so the agent can resolve its own tool/agent dependents) and the
// manager itself (the Go analogue of the teacher's "coa"/"orchestrator"
// constructor parameter, minus the reflection-based parameter-name
// detection Python's inspect.signature allows — Go has no equivalent, so
// every factory takes the same fixed dependency bundle).
type FactoryDeps struct {
	Registry *registry.Registry
	Manager  *Manager
}

// Factory constructs a concrete Agent implementation from a registry entry
// and the manager's shared dependencies. Factories are registered at
// program initialization (typically from an init() in the package
// implementing a workflow agent) under the same module/class key written
// into the agent's registry entry, replacing the teacher's runtime
// importlib-based dynamic instantiation with an explicit compile-time table.
type Factory func(entry registry.Entry, deps FactoryDeps) (Agent, error)

var factories = map[string]Factory{}

// RegisterFactory registers a constructor for agents whose registry entry
// has Module == module and Class == class. Call from an init() function.
func RegisterFactory(module, class string, factory Factory) {
	factories[factoryKey(module, class)] = factory
}

func factoryKey(module, class string) string {
	return module + "." + class
}

// LoadRegistered iterates the registry and instantiates every agent entry
// that carries a module/class pair with a matching registered Factory.
// Entries without module/class, or whose factory is unregistered, are
// skipped (not an error): the scheduler falls back to auto-provisioning or
// records a step failure when it later fails to resolve the agent.
func (m *Manager) LoadRegistered(ctx context.Context, deps FactoryDeps) (loaded, skipped int) {
	for _, name := range m.registry.ListAgentNames() {
		entry, ok := m.registry.GetAgentSpec(name)
		if !ok {
			continue
		}
		if entry.Module == "" || entry.Class == "" {
			skipped++
			continue
		}
		factory, ok := factories[factoryKey(entry.Module, entry.Class)]
		if !ok {
			m.logger.Warn(ctx, "agentmanager: no factory registered, skipping", "agent", name, "module", entry.Module, "class", entry.Class)
			skipped++
			continue
		}
		agent, err := factory(entry, deps)
		if err != nil {
			m.logger.Warn(ctx, "agentmanager: failed to load agent", "agent", name, "error", err)
			skipped++
			continue
		}
		m.agents[name] = agent
		loaded++
	}
	return loaded, skipped
}
