// Package scheduler implements the Orchestration Scheduler: the core
// algorithm driving one mission through up to max_iterations cycles, each a
// three-phase pipeline (C-Suite planning, six-step workflow execution,
// C-Suite review) plus the CFO growth-approval guardrail and completion
// consensus check.
package scheduler

import "github.com/launchonomy/orchestrator/internal/mission"

// workflowSteps is the fixed six-step pipeline executed, in order, every
// cycle (spec's Orchestration Scheduler, Phase 2).
var workflowSteps = []string{
	"ScanAgent", "DeployAgent", "CampaignAgent", "AnalyticsAgent", "FinanceAgent", "GrowthAgent",
}

// TerminationReason names why the scheduler stopped iterating.
type TerminationReason string

const (
	ReasonCSuiteConsensus TerminationReason = "success_csuite_consensus"
	ReasonTooManyFailures TerminationReason = "too_many_failures"
	ReasonMaxIterations   TerminationReason = "max_iterations_reached"
	ReasonCriticalError   TerminationReason = "critical_error"
)

// Outcome is the scheduler's final report for a Run call.
type Outcome struct {
	MissionID        string
	Reason           TerminationReason
	IterationsRun    int
	SuccessfulCycles int
	FailedCycles     int
	TotalRevenue     float64
	TotalCost        float64
	Err              error
}

// planningResult is Phase 1's output: the elected strategic focus, its next
// actions, a per-agent guidance map for Phase 2's step inputs, and the
// planning asks' total cost.
type planningResult struct {
	StrategicFocus string
	NextActions    []string
	Guidance       map[string]participantPlan
	Cost           float64
}

// participantPlan is one C-Suite strategist's Phase 1 answer, either
// cleanly parsed or salvaged from free text via keyword heuristics.
type participantPlan struct {
	Agent         string
	Focus         string
	Risks         []string
	Opportunities []string
	Salvaged      bool
}

// reviewResult is Phase 3's output: each reviewer's assessment plus the
// context updates folded back into mission context.
type reviewResult struct {
	Assessments    []participantReview
	ContextUpdates map[string]any
	Cost           float64
}

type participantReview struct {
	Agent      string
	Assessment string
	Adjustments []string
	NextFocus   string
	Salvaged    bool
}

// growthApproval is the CFO Growth Approval guardrail's verdict.
type growthApproval struct {
	Approved bool
	Budget   float64
	Reason   string
	Cost     float64
}

// stepOutcome records one workflow step's execution result.
type stepOutcome struct {
	Step      string
	Succeeded bool
	Payload   map[string]any
	Err       error
	Cost      float64
}

// CycleOutcome is what one cycle run hands back to the scheduler's
// termination-rule evaluation and mission bookkeeping.
type CycleOutcome struct {
	Cycle      *mission.Cycle
	Revenue    float64
	Successful bool
}
