package scheduler

import "context"

// CycleRequest identifies one cycle run for an Engine.
type CycleRequest struct {
	MissionID string
	CycleID   string
}

// CycleRunner executes one cycle's three-phase pipeline and returns its
// outcome. The scheduler supplies a fresh CycleRunner for each cycle it
// hands to an Engine.
type CycleRunner func(ctx context.Context) (CycleOutcome, error)

// Engine runs a cycle to completion, optionally durably. The scheduler's
// control flow (termination rules, inter-iteration delay, mission state
// updates) stays outside the Engine; Engine only owns how one cycle's body
// actually executes and whether a crash mid-cycle can be resumed.
type Engine interface {
	RunCycle(ctx context.Context, req CycleRequest, run CycleRunner) (CycleOutcome, error)
}

// InMemEngine runs a cycle synchronously in the calling goroutine. This is
// the default engine: a single mission is already a single-threaded
// cooperative driver (spec's concurrency model), so no extra scheduling
// machinery is needed for the common case.
type InMemEngine struct{}

// NewInMemEngine constructs the default, non-durable Engine.
func NewInMemEngine() *InMemEngine { return &InMemEngine{} }

func (e *InMemEngine) RunCycle(ctx context.Context, _ CycleRequest, run CycleRunner) (CycleOutcome, error) {
	return run(ctx)
}
