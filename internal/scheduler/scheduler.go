package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/launchonomy/orchestrator/internal/agentmanager"
	"github.com/launchonomy/orchestrator/internal/costcalc"
	"github.com/launchonomy/orchestrator/internal/hooks"
	"github.com/launchonomy/orchestrator/internal/memoryhelper"
	"github.com/launchonomy/orchestrator/internal/mission"
	"github.com/launchonomy/orchestrator/internal/provision"
	"github.com/launchonomy/orchestrator/internal/registry"
	"github.com/launchonomy/orchestrator/internal/telemetry"
)

// maxFailedCycles is the fixed too-many-failures termination threshold.
const maxFailedCycles = 3

// interIterationDelay is the brief pause between cycles, matching the
// original loop's asyncio.sleep(1).
var interIterationDelay = time.Second

// Scheduler drives one mission through up to maxIterations cycles of the
// three-phase pipeline, the CFO growth guardrail, and the completion
// consensus check, per spec's Orchestration Scheduler.
type Scheduler struct {
	missionMgr        *mission.Manager
	agents            *agentmanager.Manager
	registry          *registry.Registry
	provisionPipeline *provision.Pipeline
	memory            *memoryhelper.Helper
	bus               hooks.Bus
	engine            Engine
	logger            telemetry.Logger
	metrics           telemetry.Metrics
	tracer            telemetry.Tracer

	maxIterations int
}

// Config bundles a Scheduler's collaborators.
type Config struct {
	MissionManager *mission.Manager
	Agents         *agentmanager.Manager
	Registry       *registry.Registry
	Provision      *provision.Pipeline
	Memory         *memoryhelper.Helper
	Bus            hooks.Bus
	Engine         Engine
	Logger         telemetry.Logger
	Metrics        telemetry.Metrics
	Tracer         telemetry.Tracer
	MaxIterations  int
}

// New constructs a Scheduler. A nil Bus is replaced with an in-memory one; a
// nil Engine defaults to InMemEngine; MaxIterations <= 0 defaults to 10; nil
// Metrics/Tracer default to their noop implementations.
func New(cfg Config) *Scheduler {
	if cfg.Bus == nil {
		cfg.Bus = hooks.NewBus()
	}
	if cfg.Engine == nil {
		cfg.Engine = NewInMemEngine()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NewNoopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewNoopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = telemetry.NewNoopTracer()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	return &Scheduler{
		missionMgr:        cfg.MissionManager,
		agents:            cfg.Agents,
		registry:          cfg.Registry,
		provisionPipeline: cfg.Provision,
		memory:            cfg.Memory,
		bus:               cfg.Bus,
		engine:            cfg.Engine,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		tracer:            cfg.Tracer,
		maxIterations:     cfg.MaxIterations,
	}
}

// Run drives the current mission through cycles until a termination rule
// fires, in the fixed order: completion consensus, too-many-failures,
// max-iterations, critical error.
func (s *Scheduler) Run(ctx context.Context) Outcome {
	msn, ok := s.missionMgr.Current()
	if !ok {
		return Outcome{Reason: ReasonCriticalError, Err: fmt.Errorf("scheduler: no current mission to run")}
	}
	s.bus.Publish(ctx, hooks.NewMissionStarted(msn.MissionID, msn.MissionName, false))

	var totalRevenue, totalCost float64
	var successfulCycles, failedCycles, iterationsRun int
	var lastPlanRevenue float64
	var lastPlanning planningResult

	for iteration := 1; iteration <= s.maxIterations; iteration++ {
		iterationsRun = iteration
		s.metrics.IncCounter("orchestrator.cycles_started", 1, "mission_id", msn.MissionID)
		outcome, err := s.runIteration(ctx, iteration, totalRevenue, &lastPlanRevenue, &lastPlanning)
		if err != nil {
			s.metrics.IncCounter("orchestrator.cycles_failed", 1, "mission_id", msn.MissionID)
			return s.finish(ctx, msn.MissionID, ReasonCriticalError, iterationsRun, successfulCycles, failedCycles, totalRevenue, totalCost, err)
		}

		totalRevenue += outcome.Revenue
		totalCost += costOf(outcome.Cycle)
		if outcome.Successful {
			successfulCycles++
			s.metrics.IncCounter("orchestrator.cycles_completed", 1, "mission_id", msn.MissionID)
		} else {
			failedCycles++
			s.metrics.IncCounter("orchestrator.cycles_failed", 1, "mission_id", msn.MissionID)
		}

		if err := s.missionMgr.UpdateFromCycle(ctx, outcome.Cycle); err != nil {
			s.logger.Error(ctx, "scheduler: failed to update mission from cycle", "error", err)
		}
		s.bus.Publish(ctx, hooks.NewCycleCompleted(msn.MissionID, outcome.Cycle.CycleID, outcome.Successful, outcome.Revenue, outcome.Cycle.TotalCost))

		complete, consensusCost := s.checkCompletionConsensus(ctx, totalRevenue, successfulCycles)
		totalCost += consensusCost
		if complete {
			s.bus.Publish(ctx, hooks.NewConsensusReached(msn.MissionID, outcome.Cycle.CycleID, "mission_completion", true, 0, 0))
			return s.finish(ctx, msn.MissionID, ReasonCSuiteConsensus, iterationsRun, successfulCycles, failedCycles, totalRevenue, totalCost, nil)
		}
		if failedCycles > maxFailedCycles {
			return s.finish(ctx, msn.MissionID, ReasonTooManyFailures, iterationsRun, successfulCycles, failedCycles, totalRevenue, totalCost, nil)
		}

		if iteration < s.maxIterations {
			time.Sleep(interIterationDelay)
		}
	}

	return s.finish(ctx, msn.MissionID, ReasonMaxIterations, iterationsRun, successfulCycles, failedCycles, totalRevenue, totalCost, nil)
}

// runIteration runs one full cycle: planning (conditionally), the six-step
// workflow, review (conditionally), and the CFO growth guardrail.
func (s *Scheduler) runIteration(ctx context.Context, iteration int, revenueSoFar float64, lastPlanRevenue *float64, lastPlanning *planningResult) (CycleOutcome, error) {
	msn, ok := s.missionMgr.Current()
	if !ok {
		return CycleOutcome{}, fmt.Errorf("scheduler: no current mission")
	}

	cycle := &mission.Cycle{
		CycleID:   fmt.Sprintf("%s_cycle_%d", msn.MissionID, iteration),
		Timestamp: time.Now().UTC(),
		Status:    "started",
	}
	cycle = s.missionMgr.LinkCycleToPrevious(ctx, cycle)
	s.bus.Publish(ctx, hooks.NewCycleStarted(msn.MissionID, cycle.CycleID, cycle.SequenceNumber))

	return s.engine.RunCycle(ctx, CycleRequest{MissionID: msn.MissionID, CycleID: cycle.CycleID}, func(ctx context.Context) (CycleOutcome, error) {
		ctx, cycleSpan := s.tracer.Start(ctx, "orchestrator.cycle")
		cycleSpan.AddEvent("cycle.id", "cycle_id", cycle.CycleID, "sequence", strconv.Itoa(cycle.SequenceNumber))
		defer cycleSpan.End()

		missionContext := s.missionContextSummary()
		cycleContext := cycleContextSummary(cycle)

		var cycleCost float64
		var guidance map[string]participantPlan

		if iteration == 1 || revenueSoFar != *lastPlanRevenue {
			*lastPlanRevenue = revenueSoFar
			planCtx, planSpan := s.tracer.Start(ctx, "orchestrator.phase.planning")
			planning := s.conductPlanning(planCtx, missionContext, cycleContext)
			planSpan.End()
			*lastPlanning = planning
			cycle.Focus = planning.StrategicFocus
			cycleCost += planning.Cost
			guidance = planning.Guidance
			s.bus.Publish(ctx, hooks.NewPlanningCompleted(msn.MissionID, cycle.CycleID, planning.StrategicFocus, planning.Cost))
		} else {
			guidance = lastPlanning.Guidance
			cycle.Focus = lastPlanning.StrategicFocus
		}

		workflowCtx, workflowSpan := s.tracer.Start(ctx, "orchestrator.phase.workflow")
		revenue, succeeded, workflowCost := s.runWorkflow(workflowCtx, cycle, guidance, missionContext, cycleContext)
		workflowSpan.End()
		cycleCost += workflowCost

		if len(cycle.ExecutionAttempts) > 0 {
			reviewCtx, reviewSpan := s.tracer.Start(ctx, "orchestrator.phase.review")
			review := s.conductReview(reviewCtx, cycleContextSummary(cycle))
			reviewSpan.End()
			cycleCost += review.Cost
			nextFocus, _ := review.ContextUpdates["next_iteration_focus"].(string)
			s.bus.Publish(ctx, hooks.NewReviewCompleted(msn.MissionID, cycle.CycleID, nextFocus, review.Cost))
		}

		growthAlreadyRan := stepSucceeded(cycle, "GrowthAgent")
		if revenue > 0 && !growthAlreadyRan {
			approval := s.cfoGrowthApproval(ctx, revenue)
			cycleCost += approval.Cost
			s.bus.Publish(ctx, hooks.NewGrowthGuardrailDecided(msn.MissionID, cycle.CycleID, approval.Approved, approval.Budget))
			if approval.Approved {
				growthOutcome := s.runStep(ctx, "GrowthAgent", cycle, map[string]map[string]any{}, guidance, missionContext, cycleContext)
				cycleCost += growthOutcome.Cost
				record := map[string]any{"step": "GrowthAgent", "timestamp": time.Now().UTC().Format(time.RFC3339)}
				if growthOutcome.Succeeded {
					record["status"] = "success"
					record["result"] = growthOutcome.Payload
					cycle.AgentsUsed = append(cycle.AgentsUsed, "GrowthAgent")
				} else {
					record["status"] = "failed"
					succeeded = false
				}
				cycle.ExecutionAttempts = append(cycle.ExecutionAttempts, record)
			} else {
				cycle.ExecutionAttempts = append(cycle.ExecutionAttempts, map[string]any{
					"step": "GrowthAgent", "status": "declined_by_cfo", "reason": approval.Reason,
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
			}
		}

		cycle.KPIOutcomes = map[string]any{"revenue": revenue}
		cycle.TotalCost = costcalc.CycleCost(costcalc.CycleCostInputs{DirectCosts: cycleCost})
		cycle.DurationMinutes = time.Since(cycle.Timestamp).Minutes()
		if succeeded {
			cycle.Status = "success"
			cycleSpan.SetStatus(codes.Ok, "cycle succeeded")
		} else {
			cycle.Status = "failed"
			cycleSpan.SetStatus(codes.Error, "cycle failed")
		}

		s.missionMgr.SaveCycleLog(ctx, cycle)
		return CycleOutcome{Cycle: cycle, Revenue: revenue, Successful: succeeded}, nil
	})
}

func (s *Scheduler) finish(ctx context.Context, missionID string, reason TerminationReason, iterations, successful, failed int, revenue, cost float64, err error) Outcome {
	status := string(reason)
	if serr := s.missionMgr.SetStatus(ctx, status); serr != nil {
		s.logger.Warn(ctx, "scheduler: failed to set final mission status", "error", serr)
	}
	s.bus.Publish(ctx, hooks.NewMissionCompleted(missionID, status))
	return Outcome{
		MissionID: missionID, Reason: reason, IterationsRun: iterations,
		SuccessfulCycles: successful, FailedCycles: failed, TotalRevenue: revenue, TotalCost: cost, Err: err,
	}
}

// askText asks agent a raw-text prompt via its AskText method, available on
// every agent this scheduler constructs (PromptAgent). Agents that do not
// support raw asks (none in this package) return an error.
func (s *Scheduler) askText(ctx context.Context, agent agentmanager.Agent, prompt string) (string, float64, error) {
	texter, ok := agent.(interface {
		AskText(ctx context.Context, prompt string) (string, float64, error)
	})
	if !ok {
		return "", 0, fmt.Errorf("scheduler: agent %s does not support raw text asks", agent.Name())
	}
	return texter.AskText(ctx, prompt)
}

func (s *Scheduler) missionContextSummary() string {
	agentCtx := s.missionMgr.GetMissionContextForAgents()
	data, err := json.Marshal(agentCtx)
	if err != nil {
		return agentCtx.OverallMission
	}
	return string(data)
}

func cycleContextSummary(cycle *mission.Cycle) string {
	data, err := json.Marshal(cycle)
	if err != nil {
		return cycle.CycleID
	}
	return string(data)
}

func stepSucceeded(cycle *mission.Cycle, step string) bool {
	for _, record := range cycle.ExecutionAttempts {
		if record["step"] == step && record["status"] == "success" {
			return true
		}
	}
	return false
}

func errAgentUnavailable(step string) error {
	return fmt.Errorf("scheduler: %s unavailable after registry lookup and auto-provision attempt", step)
}

func costOf(cycle *mission.Cycle) float64 {
	if cycle == nil {
		return 0
	}
	return cycle.TotalCost
}
