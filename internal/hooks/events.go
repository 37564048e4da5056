// Package hooks is the mission event bus: a synchronous fan-out of typed
// lifecycle events (cycle start, step execution, consensus votes, mission
// completion) to whichever subscribers a process has registered — the
// vector memory logger, progress reporters, a Pulse-backed stream for
// external observers.
package hooks

import (
	"time"
)

// EventType names one point in a mission's lifecycle.
type EventType string

const (
	MissionStarted        EventType = "mission_started"
	CycleStarted           EventType = "cycle_started"
	PlanningCompleted      EventType = "planning_completed"
	StepExecuted           EventType = "step_executed"
	StepFailed             EventType = "step_failed"
	ReviewCompleted        EventType = "review_completed"
	GrowthGuardrailDecided EventType = "growth_guardrail_decided"
	ConsensusReached       EventType = "consensus_reached"
	AutoProvisionRequested EventType = "auto_provision_requested"
	AutoProvisionApplied   EventType = "auto_provision_applied"
	CycleCompleted         EventType = "cycle_completed"
	MissionCompleted       EventType = "mission_completed"
)

// Event is the interface every hook event implements.
type Event interface {
	Type() EventType
	MissionID() string
	CycleID() string
	Timestamp() time.Time
}

type baseEvent struct {
	eventType EventType
	missionID string
	cycleID   string
	timestamp time.Time
}

func (b baseEvent) Type() EventType      { return b.eventType }
func (b baseEvent) MissionID() string    { return b.missionID }
func (b baseEvent) CycleID() string      { return b.cycleID }
func (b baseEvent) Timestamp() time.Time { return b.timestamp }

func newBase(t EventType, missionID, cycleID string) baseEvent {
	return baseEvent{eventType: t, missionID: missionID, cycleID: cycleID, timestamp: time.Now().UTC()}
}

// MissionStartedEvent fires once, when a mission is created or resumed.
type MissionStartedEvent struct {
	baseEvent
	MissionName string
	Resumed     bool
}

// NewMissionStarted constructs a MissionStartedEvent.
func NewMissionStarted(missionID, missionName string, resumed bool) *MissionStartedEvent {
	return &MissionStartedEvent{baseEvent: newBase(MissionStarted, missionID, ""), MissionName: missionName, Resumed: resumed}
}

// CycleStartedEvent fires at the top of each cycle.
type CycleStartedEvent struct {
	baseEvent
	SequenceNumber int
}

// NewCycleStarted constructs a CycleStartedEvent.
func NewCycleStarted(missionID, cycleID string, seq int) *CycleStartedEvent {
	return &CycleStartedEvent{baseEvent: newBase(CycleStarted, missionID, cycleID), SequenceNumber: seq}
}

// StepExecutedEvent fires once per successful workflow step.
type StepExecutedEvent struct {
	baseEvent
	StepName string
	Cost     float64
}

// NewStepExecuted constructs a StepExecutedEvent.
func NewStepExecuted(missionID, cycleID, stepName string, cost float64) *StepExecutedEvent {
	return &StepExecutedEvent{baseEvent: newBase(StepExecuted, missionID, cycleID), StepName: stepName, Cost: cost}
}

// StepFailedEvent fires once per failed workflow step.
type StepFailedEvent struct {
	baseEvent
	StepName string
	Err      error
}

// NewStepFailed constructs a StepFailedEvent.
func NewStepFailed(missionID, cycleID, stepName string, err error) *StepFailedEvent {
	return &StepFailedEvent{baseEvent: newBase(StepFailed, missionID, cycleID), StepName: stepName, Err: err}
}

// ConsensusReachedEvent fires whenever a majority/unanimous vote concludes
// (peer review, C-Suite planning, completion check).
type ConsensusReachedEvent struct {
	baseEvent
	Subject  string
	Approved bool
	Votes    int
	Total    int
}

// NewConsensusReached constructs a ConsensusReachedEvent.
func NewConsensusReached(missionID, cycleID, subject string, approved bool, votes, total int) *ConsensusReachedEvent {
	return &ConsensusReachedEvent{
		baseEvent: newBase(ConsensusReached, missionID, cycleID),
		Subject:   subject, Approved: approved, Votes: votes, Total: total,
	}
}

// CycleCompletedEvent fires once a cycle's three phases and guardrails have
// all run.
type CycleCompletedEvent struct {
	baseEvent
	Successful bool
	Revenue    float64
	Cost       float64
}

// NewCycleCompleted constructs a CycleCompletedEvent.
func NewCycleCompleted(missionID, cycleID string, successful bool, revenue, cost float64) *CycleCompletedEvent {
	return &CycleCompletedEvent{
		baseEvent:  newBase(CycleCompleted, missionID, cycleID),
		Successful: successful, Revenue: revenue, Cost: cost,
	}
}

// PlanningCompletedEvent fires once C-Suite strategic planning has elected a
// focus for the cycle.
type PlanningCompletedEvent struct {
	baseEvent
	StrategicFocus string
	Cost           float64
}

// NewPlanningCompleted constructs a PlanningCompletedEvent.
func NewPlanningCompleted(missionID, cycleID, focus string, cost float64) *PlanningCompletedEvent {
	return &PlanningCompletedEvent{baseEvent: newBase(PlanningCompleted, missionID, cycleID), StrategicFocus: focus, Cost: cost}
}

// ReviewCompletedEvent fires once C-Suite review has produced its next
// iteration focus.
type ReviewCompletedEvent struct {
	baseEvent
	NextFocus string
	Cost      float64
}

// NewReviewCompleted constructs a ReviewCompletedEvent.
func NewReviewCompleted(missionID, cycleID, nextFocus string, cost float64) *ReviewCompletedEvent {
	return &ReviewCompletedEvent{baseEvent: newBase(ReviewCompleted, missionID, cycleID), NextFocus: nextFocus, Cost: cost}
}

// GrowthGuardrailDecidedEvent fires once the CFO growth approval guardrail
// has reached a verdict.
type GrowthGuardrailDecidedEvent struct {
	baseEvent
	Approved bool
	Budget   float64
}

// NewGrowthGuardrailDecided constructs a GrowthGuardrailDecidedEvent.
func NewGrowthGuardrailDecided(missionID, cycleID string, approved bool, budget float64) *GrowthGuardrailDecidedEvent {
	return &GrowthGuardrailDecidedEvent{baseEvent: newBase(GrowthGuardrailDecided, missionID, cycleID), Approved: approved, Budget: budget}
}

// MissionCompletedEvent fires once, when the scheduler stops iterating.
type MissionCompletedEvent struct {
	baseEvent
	Status string
}

// NewMissionCompleted constructs a MissionCompletedEvent.
func NewMissionCompleted(missionID, status string) *MissionCompletedEvent {
	return &MissionCompletedEvent{baseEvent: newBase(MissionCompleted, missionID, ""), Status: status}
}
