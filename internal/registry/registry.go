// Package registry is the JSON-backed catalog of agents and tools a mission
// has learned about, distinct from the ephemeral C-Suite roster Agent
// Manager keeps in memory only.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ErrReservedName is returned when an agent entry is rejected because its
// name is reserved for an ephemeral C-Suite agent.
var ErrReservedName = errors.New("registry: agent names ending in -Agent must carry a module/class")

// Entry is one registered agent or tool specification.
type Entry struct {
	Name     string         `json:"name"`
	Spec     map[string]any `json:"spec"`
	Module   string         `json:"module,omitempty"`
	Class    string         `json:"class,omitempty"`
	Endpoint string         `json:"endpoint,omitempty"`
}

// Proposal is submitted to apply_proposal after a consensus vote.
type Proposal struct {
	Type     string         `json:"type"` // "add_agent" or "add_tool"
	Name     string         `json:"name"`
	Spec     map[string]any `json:"spec"`
	Endpoint string         `json:"endpoint,omitempty"`
}

type document struct {
	Agents map[string]Entry `json:"agents"`
	Tools  map[string]Entry `json:"tools"`
}

// Registry is a single mutex-guarded, JSON-file-backed catalog. Mutation is
// owned exclusively by whichever single process holds the mission (the
// scheduler), so only an in-process mutex is needed, never a cross-process
// file lock.
type Registry struct {
	path string

	mu  sync.Mutex
	doc document
}

// Load reads the registry from path, creating an empty one if the file does
// not exist.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, doc: document{Agents: map[string]Entry{}, Tools: map[string]Entry{}}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &r.doc); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}
	if r.doc.Agents == nil {
		r.doc.Agents = map[string]Entry{}
	}
	if r.doc.Tools == nil {
		r.doc.Tools = map[string]Entry{}
	}
	return r, nil
}

// AddAgent inserts or replaces an agent entry. Entries whose name ends in
// "-Agent" are reserved for the ephemeral C-Suite roster and must carry a
// module/class path to be accepted here; bare "-Agent"-suffixed specs
// without one are rejected with ErrReservedName.
func (r *Registry) AddAgent(_ context.Context, entry Entry) error {
	if strings.HasSuffix(entry.Name, "-Agent") && entry.Module == "" && entry.Class == "" {
		return ErrReservedName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc.Agents[entry.Name] = entry
	return nil
}

// AddTool inserts or replaces a tool entry.
func (r *Registry) AddTool(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc.Tools[entry.Name] = entry
	return nil
}

// GetAgentSpec returns the named agent entry.
func (r *Registry) GetAgentSpec(name string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.doc.Agents[name]
	return e, ok
}

// GetToolSpec returns the named tool entry.
func (r *Registry) GetToolSpec(name string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.doc.Tools[name]
	return e, ok
}

// ListAgentNames returns every registered agent name, sorted.
func (r *Registry) ListAgentNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.doc.Agents))
	for name := range r.doc.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListToolNames returns every registered tool name, sorted.
func (r *Registry) ListToolNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.doc.Tools))
	for name := range r.doc.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyProposal performs an insert-or-upsert of a consensus-approved
// proposal.
func (r *Registry) ApplyProposal(ctx context.Context, p Proposal) error {
	entry := Entry{Name: p.Name, Spec: p.Spec, Endpoint: p.Endpoint}
	switch p.Type {
	case "add_agent":
		return r.AddAgent(ctx, entry)
	case "add_tool":
		return r.AddTool(ctx, entry)
	default:
		return fmt.Errorf("registry: unknown proposal type %q", p.Type)
	}
}

// Save persists the registry to its backing JSON file.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}
	return os.WriteFile(r.path, data, 0o644)
}
