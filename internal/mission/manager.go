package mission

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/launchonomy/orchestrator/internal/telemetry"
	"github.com/launchonomy/orchestrator/internal/vectormemory"
	"github.com/launchonomy/orchestrator/internal/workspace"
)

var nonWord = regexp.MustCompile(`\W+`)

// Manager owns the current mission's Mission and Cycle records, backed by a
// workspace for persistence and a vector memory store for per-mission
// recall. Mission is the only thing in this package that may be mutated,
// and only through Manager's methods.
type Manager struct {
	workspace *workspace.Manager
	memory    vectormemory.Store
	logger    telemetry.Logger

	mu      sync.Mutex
	current *Mission
}

// New constructs a Manager. ws may be nil (mission runs without a
// workspace, as permitted when workspace creation fails at mission start);
// memory may be nil if no vector memory backend is configured.
func New(ws *workspace.Manager, memory vectormemory.Store, logger telemetry.Logger) *Manager {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Manager{workspace: ws, memory: memory, logger: logger}
}

// Current returns the active mission, if any.
func (m *Manager) Current() (*Mission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.current != nil
}

// CreateOrLoad resumes an existing active-or-paused mission matching name
// and overallMission when resume is true, else creates a new one with a
// fresh workspace (via Workspace Manager) and an implicitly fresh vector
// memory collection (a new mission id has no prior records).
func (m *Manager) CreateOrLoad(ctx context.Context, name, overallMission string, resume bool) (*Mission, error) {
	if resume {
		existing, err := m.findExisting(ctx, name, overallMission)
		if err != nil {
			m.logger.Warn(ctx, "mission: error searching for resumable mission, creating new one", "error", err)
		} else if existing != nil {
			m.logger.Info(ctx, "mission: resuming existing mission", "mission_id", existing.MissionID)
			m.mu.Lock()
			m.current = existing
			m.mu.Unlock()
			return existing, nil
		}
	}

	missionID := newMissionID(name)
	now := time.Now().UTC()
	msn := &Mission{
		MissionID:        missionID,
		MissionName:      name,
		OverallMission:   overallMission,
		StartTimestamp:   now,
		LastUpdated:      now,
		Status:           "active",
		PersistentAgents: []string{},
	}

	if m.workspace != nil {
		cfg, err := m.workspace.Create(ctx, missionID, name)
		if err != nil {
			m.logger.Error(ctx, "mission: failed to create workspace, mission runs without one", "mission_id", missionID, "error", err)
		} else {
			msn.WorkspacePath = cfg.Path
		}
	}

	m.mu.Lock()
	m.current = msn
	m.mu.Unlock()

	m.persist(ctx, msn)
	m.logger.Info(ctx, "mission: created new mission", "mission_id", missionID)
	return msn, nil
}

// LoadByID resumes a specific mission by id, as selected from a resume
// menu built on ListResumable. Returns an error if the mission's workspace
// or mission log cannot be read, or its status is no longer resumable.
func (m *Manager) LoadByID(ctx context.Context, missionID string) (*Mission, error) {
	if m.workspace == nil {
		return nil, fmt.Errorf("mission: no workspace configured, cannot load %s", missionID)
	}
	raw, err := m.workspace.LoadMissionLog(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("mission: load mission log for %s: %w", missionID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("mission: no mission log found for %s", missionID)
	}
	var msn Mission
	if err := json.Unmarshal(raw, &msn); err != nil {
		return nil, fmt.Errorf("mission: parse mission log for %s: %w", missionID, err)
	}
	if !Resumable(msn.Status) {
		return nil, fmt.Errorf("mission: %s has status %q, not resumable", missionID, msn.Status)
	}

	m.mu.Lock()
	m.current = &msn
	m.mu.Unlock()
	m.logger.Info(ctx, "mission: resumed mission by id", "mission_id", missionID)
	return &msn, nil
}

// ListResumable returns up to limit workspace configs whose mission log
// status is Resumable (each returned Config carries that mission log
// status), most recently created first, for a CLI resume menu to present.
// Returns nil without error if no workspace is configured.
func (m *Manager) ListResumable(limit int) ([]workspace.Config, error) {
	if m.workspace == nil {
		return nil, nil
	}
	configs, err := m.workspace.List("")
	if err != nil {
		return nil, err
	}
	var resumable []workspace.Config
	for _, cfg := range configs {
		raw, err := m.workspace.LoadMissionLog(context.Background(), cfg.MissionID)
		if err != nil || raw == nil {
			continue
		}
		var logged struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &logged); err != nil || !Resumable(logged.Status) {
			continue
		}
		cfg.Status = logged.Status
		resumable = append(resumable, cfg)
		if limit > 0 && len(resumable) >= limit {
			break
		}
	}
	return resumable, nil
}

func (m *Manager) findExisting(ctx context.Context, name, overallMission string) (*Mission, error) {
	if m.workspace == nil {
		return nil, nil
	}
	configs, err := m.workspace.List("")
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		raw, err := m.workspace.LoadMissionLog(ctx, cfg.MissionID)
		if err != nil || raw == nil {
			continue
		}
		var candidate Mission
		if err := json.Unmarshal(raw, &candidate); err != nil {
			continue
		}
		if candidate.MissionName == name && candidate.OverallMission == overallMission &&
			(candidate.Status == "active" || candidate.Status == "paused") {
			return &candidate, nil
		}
	}
	return nil, nil
}

// UpdateFromCycle atomically rolls a completed cycle's outcome into the
// current mission: appends the cycle id, rolls up cost/duration, increments
// the success/failure counter, appends a compact summary, extracts a key
// learning from a successful cycle that reported KPI outcomes, updates the persistent-agents list, and persists the
// mission log.
func (m *Manager) UpdateFromCycle(ctx context.Context, cycle *Cycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return fmt.Errorf("mission: no current mission to update")
	}
	msn := m.current

	msn.CycleIDs = append(msn.CycleIDs, cycle.CycleID)
	msn.CurrentCycleID = cycle.CycleID
	msn.LastUpdated = time.Now().UTC()
	msn.TotalCost += cycle.TotalCost
	msn.TotalMinutes += cycle.DurationMinutes

	if cycle.Status == "success" {
		msn.CompletedCycles++
	} else {
		msn.FailedCycles++
	}

	msn.CycleSummaries = append(msn.CycleSummaries, CycleSummary{
		CycleID:         cycle.CycleID,
		DecisionFocus:   cycle.Focus,
		Status:          cycle.Status,
		Cost:            cycle.TotalCost,
		DurationMinutes: cycle.DurationMinutes,
		AgentsUsed:      cycle.AgentsUsed,
		KPIOutcomes:     cycle.KPIOutcomes,
		Timestamp:       cycle.Timestamp,
	})

	if cycle.Status == "success" && len(cycle.KPIOutcomes) > 0 {
		outcome := "Completed successfully"
		if s, ok := cycle.KPIOutcomes["summary"].(string); ok && s != "" {
			outcome = s
		}
		msn.KeyLearnings = append(msn.KeyLearnings,
			fmt.Sprintf("Cycle %d: %s - %s", len(msn.CycleSummaries), cycle.Focus, outcome))
	}

	for _, agent := range cycle.AgentsUsed {
		if !contains(msn.PersistentAgents, agent) {
			msn.PersistentAgents = append(msn.PersistentAgents, agent)
		}
	}

	m.persist(ctx, msn)
	return nil
}

// LinkCycleToPrevious sets cycle's parent mission id, 1-based sequence
// number, and previous-cycle id, back-patches the previous cycle's saved
// log with next_cycle_id, and attaches the last 3 cycle summaries and last
// 5 key learnings as cycle-local context. Linking is atomic with the
// mission's current-cycle bookkeeping: call this before the cycle runs.
func (m *Manager) LinkCycleToPrevious(ctx context.Context, cycle *Cycle) *Cycle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return cycle
	}
	msn := m.current

	cycle.ParentMissionID = msn.MissionID
	cycle.SequenceNumber = len(msn.CycleIDs) + 1
	if msn.CurrentCycleID != "" {
		cycle.PreviousCycleID = msn.CurrentCycleID
		m.backpatchNextCycleID(ctx, msn.MissionID, msn.CurrentCycleID, cycle.CycleID)
	}
	cycle.PreviousCyclesContext = lastSummaries(msn.CycleSummaries, 3)
	cycle.KeyInsightsFromPrevious = lastStrings(msn.KeyLearnings, 5)
	return cycle
}

func (m *Manager) backpatchNextCycleID(ctx context.Context, missionID, previousCycleID, nextCycleID string) {
	if m.workspace == nil {
		return
	}
	raw, err := m.workspace.LoadCycleLog(ctx, missionID, previousCycleID)
	if err != nil || raw == nil {
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return
	}
	doc["next_cycle_id"] = nextCycleID
	if err := m.workspace.SaveCycleLog(ctx, missionID, previousCycleID, doc); err != nil {
		m.logger.Warn(ctx, "mission: failed to back-patch previous cycle link", "cycle_id", previousCycleID, "error", err)
	}
}

// SaveCycleLog persists cycle's full JSON document under
// logs/cycles/<cycle_id>.json. Returns false (never an error) on any
// failure, matching the error-handling table's "log and continue" rule for
// workspace write failures.
func (m *Manager) SaveCycleLog(ctx context.Context, cycle *Cycle) bool {
	m.mu.Lock()
	msn := m.current
	m.mu.Unlock()
	if msn == nil || m.workspace == nil {
		return false
	}
	if err := m.workspace.SaveCycleLog(ctx, msn.MissionID, cycle.CycleID, cycle); err != nil {
		m.logger.Error(ctx, "mission: failed to save cycle log", "cycle_id", cycle.CycleID, "error", err)
		return false
	}
	return true
}

// GetMissionContextForAgents returns the comprehensive mission summary
// agents use for decision-making.
func (m *Manager) GetMissionContextForAgents() AgentContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return AgentContext{}
	}
	msn := m.current
	return AgentContext{
		MissionID:        msn.MissionID,
		OverallMission:   msn.OverallMission,
		CyclesCompleted:  msn.CompletedCycles,
		TotalCostSoFar:   msn.TotalCost,
		KeyLearnings:     append([]string(nil), msn.KeyLearnings...),
		RecentCycles:     lastSummaries(msn.CycleSummaries, 3),
		PersistentAgents: append([]string(nil), msn.PersistentAgents...),
		MissionStatus:    msn.Status,
		WorkspacePath:    msn.WorkspacePath,
	}
}

// SetStatus updates and persists the current mission's status (e.g. on
// termination, pause, or archive).
func (m *Manager) SetStatus(ctx context.Context, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return fmt.Errorf("mission: no current mission to update")
	}
	m.current.Status = status
	m.current.LastUpdated = time.Now().UTC()
	m.persist(ctx, m.current)
	return nil
}

// persist writes the mission log to the workspace, logging (never
// returning) any failure, matching the error-handling table's
// "mission log write failure: logged as error, in-memory state retained"
// rule.
func (m *Manager) persist(ctx context.Context, msn *Mission) {
	if m.workspace == nil || msn.WorkspacePath == "" {
		return
	}
	if err := m.workspace.SaveMissionLog(ctx, msn.MissionID, msn); err != nil {
		m.logger.Error(ctx, "mission: failed to persist mission log", "mission_id", msn.MissionID, "error", err)
	}
}

func newMissionID(name string) string {
	safe := nonWord.ReplaceAllString(strings.ToLower(name), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "mission"
	}
	return fmt.Sprintf("%s_mission_%s", time.Now().UTC().Format("20060102_150405"), safe)
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func lastSummaries(list []CycleSummary, n int) []CycleSummary {
	if len(list) <= n {
		return append([]CycleSummary(nil), list...)
	}
	return append([]CycleSummary(nil), list[len(list)-n:]...)
}

func lastStrings(list []string, n int) []string {
	if len(list) <= n {
		return append([]string(nil), list...)
	}
	return append([]string(nil), list[len(list)-n:]...)
}
