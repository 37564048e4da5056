package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// cycleActivityTimeout bounds a single cycle's durable activity execution.
// A cycle runs up to six agent calls plus C-Suite planning/review/approval
// asks, each bounded by the chat client's own 60s-with-retries budget, so
// 15 minutes comfortably covers the worst case without masking a genuinely
// stuck activity.
const cycleActivityTimeout = 15 * time.Minute

// TemporalEngine backs cycle execution with a durable Temporal workflow, so
// a crashed host process can resume a mission's in-flight cycle by its
// deterministic workflow id instead of losing it. Unlike the teacher's
// general-purpose engine/temporal adapter (which registers an arbitrary
// number of workflow/activity types with OTEL instrumentation baked in),
// this engine only ever runs ONE workflow definition wrapping ONE activity,
// because the scheduler only ever has one kind of durable unit of work: a
// mission's cycle pipeline. The cycle's actual LLM calls, registry lookups,
// and workspace writes happen inside the activity, not the workflow
// function itself, since only workflow code is subject to Temporal's
// determinism and replay constraints, and the cycle pipeline is anything
// but deterministic (it calls out to LLMs and the filesystem throughout).
type TemporalEngine struct {
	client    client.Client
	worker    worker.Worker
	taskQueue string
	run       CycleRunner
}

const temporalTaskQueue = "launchonomy-cycles"

// NewTemporalEngine connects to a Temporal server at hostPort/namespace and
// registers the single fixed RunCycleWorkflow/RunCycleActivity pair backing
// every mission's cycle execution. Call Start before the first RunCycle and
// Stop on shutdown.
func NewTemporalEngine(hostPort, namespace string) (*TemporalEngine, error) {
	c, err := client.Dial(client.Options{HostPort: hostPort, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("scheduler: connect to temporal at %s: %w", hostPort, err)
	}
	return &TemporalEngine{client: c, taskQueue: temporalTaskQueue}, nil
}

// Start registers the fixed workflow/activity and starts a worker on the
// engine's task queue. run is the initial CycleRunner; each RunCycle call
// replaces it with the runner it is given, and the activity dispatches to
// the most recently stored one.
func (e *TemporalEngine) Start(run CycleRunner) error {
	e.run = run
	w := worker.New(e.client, e.taskQueue, worker.Options{})
	w.RegisterWorkflow(e.runCycleWorkflow)
	w.RegisterActivity(e.runCycleActivity)
	if err := w.Start(); err != nil {
		return fmt.Errorf("scheduler: start temporal worker: %w", err)
	}
	e.worker = w
	return nil
}

// Stop releases the worker and client. Safe to call on a zero-value engine
// that never started.
func (e *TemporalEngine) Stop() {
	if e.worker != nil {
		e.worker.Stop()
	}
	if e.client != nil {
		e.client.Close()
	}
}

// RunCycle starts (or, on retry with the same ids, rejoins) a workflow
// execution keyed by "<missionID>-<cycleID>" and blocks for its result.
func (e *TemporalEngine) RunCycle(ctx context.Context, req CycleRequest, run CycleRunner) (CycleOutcome, error) {
	e.run = run
	workflowID := fmt.Sprintf("%s-%s", req.MissionID, req.CycleID)
	options := client.StartWorkflowOptions{ID: workflowID, TaskQueue: e.taskQueue}

	run2, err := e.client.ExecuteWorkflow(ctx, options, e.runCycleWorkflow, req)
	if err != nil {
		return CycleOutcome{}, fmt.Errorf("scheduler: start temporal workflow %s: %w", workflowID, err)
	}
	var outcome CycleOutcome
	if err := run2.Get(ctx, &outcome); err != nil {
		return CycleOutcome{}, fmt.Errorf("scheduler: await temporal workflow %s: %w", workflowID, err)
	}
	return outcome, nil
}

// runCycleWorkflow is the single fixed workflow definition: it has no
// branching logic of its own, only a single activity invocation, so it
// trivially satisfies Temporal's determinism requirement regardless of
// what the underlying CycleRunner actually does.
func (e *TemporalEngine) runCycleWorkflow(ctx workflow.Context, req CycleRequest) (CycleOutcome, error) {
	ao := workflow.ActivityOptions{StartToCloseTimeout: cycleActivityTimeout}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var outcome CycleOutcome
	err := workflow.ExecuteActivity(ctx, e.runCycleActivity, req).Get(ctx, &outcome)
	return outcome, err
}

// runCycleActivity forwards to the CycleRunner most recently stored by Start
// or RunCycle. All of the cycle's real I/O happens here, outside the
// workflow's deterministic-replay boundary.
func (e *TemporalEngine) runCycleActivity(ctx context.Context, _ CycleRequest) (CycleOutcome, error) {
	if e.run == nil {
		return CycleOutcome{}, fmt.Errorf("scheduler: temporal engine activity invoked without a registered cycle runner")
	}
	return e.run(ctx)
}
