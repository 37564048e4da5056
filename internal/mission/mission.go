// Package mission owns the Mission and Cycle records: creation, resume
// lookup, per-cycle rollups, doubly-linked cycle history, and the context
// summary handed to every agent decision.
package mission

import "time"

// Mission is the persisted, source-of-truth record for a long-running
// objective orchestrated as a sequence of cycles. Mutated only by Manager.
type Mission struct {
	MissionID      string    `json:"mission_id"`
	MissionName    string    `json:"mission_name"`
	OverallMission string    `json:"overall_mission"`
	StartTimestamp time.Time `json:"start_timestamp"`
	LastUpdated    time.Time `json:"last_updated"`
	Status         string    `json:"status"` // active, paused, completed, failed, archived

	CycleIDs        []string `json:"cycle_ids"`
	CurrentCycleID  string   `json:"current_cycle_id,omitempty"`
	CompletedCycles int      `json:"completed_cycles"`
	FailedCycles    int      `json:"failed_cycles"`

	TotalCost         float64 `json:"total_mission_cost"`
	TotalMinutes       float64 `json:"total_mission_time_minutes"`
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`

	PersistentAgents []string       `json:"persistent_agents"`
	CycleSummaries   []CycleSummary `json:"cycle_summaries"`
	KeyLearnings     []string       `json:"key_learnings"`

	WorkspacePath string   `json:"workspace_path"`
	Tags          []string `json:"tags,omitempty"`
}

// CycleSummary is the compact record appended to Mission.CycleSummaries on
// every cycle completion, giving later cycles cheap recent-history context
// without loading the full cycle log.
type CycleSummary struct {
	CycleID         string         `json:"cycle_id"`
	DecisionFocus   string         `json:"decision_focus"`
	Status          string         `json:"status"`
	Cost            float64        `json:"cost"`
	DurationMinutes float64        `json:"duration_minutes"`
	AgentsUsed      []string       `json:"agents_used"`
	KPIOutcomes     map[string]any `json:"kpi_outcomes"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Cycle is one iteration of the scheduler's three-phase pipeline.
type Cycle struct {
	CycleID         string `json:"cycle_id"`
	ParentMissionID string `json:"parent_mission_id,omitempty"`
	SequenceNumber  int    `json:"cycle_sequence_number"`
	PreviousCycleID string `json:"previous_cycle_id,omitempty"`
	NextCycleID     string `json:"next_cycle_id,omitempty"`

	Timestamp       time.Time `json:"timestamp"`
	Focus           string    `json:"focus"`
	Status          string    `json:"status"` // started, success, failed
	ErrorMessage    string    `json:"error_message,omitempty"`
	DurationMinutes float64   `json:"duration_minutes"`
	TotalCost       float64   `json:"total_cost"`

	AgentManagementEvents    []map[string]any `json:"agent_management_events,omitempty"`
	OrchestratorInteractions []map[string]any `json:"orchestrator_interactions,omitempty"`
	SpecialistInteractions   []map[string]any `json:"specialist_interactions,omitempty"`
	ReviewInteractions       []map[string]any `json:"review_interactions,omitempty"`
	ExecutionAttempts        []map[string]any `json:"execution_attempts,omitempty"`
	JSONParseAttempts        []map[string]any `json:"json_parse_attempts,omitempty"`

	KPIOutcomes map[string]any `json:"kpi_outcomes,omitempty"`
	AgentsUsed  []string       `json:"agents_used,omitempty"`
	ToolsUsed   []string       `json:"tools_used,omitempty"`

	PreviousCyclesContext   []CycleSummary `json:"previous_cycles_context,omitempty"`
	KeyInsightsFromPrevious []string       `json:"key_insights_from_previous,omitempty"`
}

// AgentContext is the comprehensive mission summary surfaced to agents for
// decision-making, returned by Manager.GetMissionContextForAgents.
type AgentContext struct {
	MissionID        string         `json:"mission_id"`
	OverallMission   string         `json:"overall_mission"`
	CyclesCompleted  int            `json:"cycles_completed"`
	TotalCostSoFar   float64        `json:"total_cost_so_far"`
	KeyLearnings     []string       `json:"key_learnings"`
	RecentCycles     []CycleSummary `json:"recent_cycles"`
	PersistentAgents []string       `json:"persistent_agents"`
	MissionStatus    string         `json:"mission_status"`
	WorkspacePath    string         `json:"workspace_path"`
}

// resumableStatuses lists the Mission.Status values LoadByID accepts and
// ListResumable offers for a CLI resume menu. CreateOrLoad's own name-based
// resume matches only "active" and "paused".
var resumableStatuses = map[string]bool{
	"active":             true,
	"paused":             true,
	"started":            true,
	"ended_unexpectedly": true,
	"critical_error":     true,
}

// Resumable reports whether status is one LoadByID or a resume menu may pick
// back up.
func Resumable(status string) bool {
	return resumableStatuses[status]
}
