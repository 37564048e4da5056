package hooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/launchonomy/orchestrator/internal/telemetry"
)

// StreamClient is the subset of a Pulse client this package needs: opening a
// named stream and publishing byte payloads to it.
type StreamClient interface {
	Stream(name string) (Stream, error)
}

// Stream is the subset of a Pulse stream handle this package needs.
type Stream interface {
	Add(ctx context.Context, event string, payload []byte) (string, error)
}

// envelope is the JSON wire shape published to the mission's Pulse stream.
// Concrete Go event types are not portable across process boundaries, so
// external observers (a dashboard, a second orchestrator instance watching
// progress) decode this generic shape instead.
type envelope struct {
	Type      EventType      `json:"type"`
	MissionID string         `json:"mission_id"`
	CycleID   string         `json:"cycle_id,omitempty"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// PulseBus wraps an in-memory Bus for local subscriber fan-out and
// additionally mirrors every event to a Pulse stream named
// "mission/<mission_id>", so an out-of-process observer (a host progress
// reporter, a second CLI instance attached to the same Redis) can follow a
// mission's execution without sharing this process's memory.
type PulseBus struct {
	local  Bus
	client StreamClient
	logger telemetry.Logger
}

// NewPulseBus constructs a Bus that publishes to both local subscribers and
// a Pulse-backed stream.
func NewPulseBus(client StreamClient, logger telemetry.Logger) *PulseBus {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &PulseBus{local: NewBus(), client: client, logger: logger}
}

func (b *PulseBus) Publish(ctx context.Context, event Event) error {
	if err := b.local.Publish(ctx, event); err != nil {
		return err
	}
	return b.publishRemote(ctx, event)
}

func (b *PulseBus) Register(sub Subscriber) (Subscription, error) {
	return b.local.Register(sub)
}

func (b *PulseBus) publishRemote(ctx context.Context, event Event) error {
	stream, err := b.client.Stream(fmt.Sprintf("mission/%s", event.MissionID()))
	if err != nil {
		b.logger.Warn(ctx, "hooks: pulse stream open failed, event not mirrored", "mission_id", event.MissionID(), "error", err)
		return nil
	}
	payload, err := json.Marshal(toEnvelope(event))
	if err != nil {
		b.logger.Warn(ctx, "hooks: event encoding failed, event not mirrored", "mission_id", event.MissionID(), "error", err)
		return nil
	}
	if _, err := stream.Add(ctx, string(event.Type()), payload); err != nil {
		b.logger.Warn(ctx, "hooks: pulse publish failed, event not mirrored", "mission_id", event.MissionID(), "error", err)
	}
	return nil
}

func toEnvelope(event Event) envelope {
	env := envelope{
		Type:      event.Type(),
		MissionID: event.MissionID(),
		CycleID:   event.CycleID(),
		Timestamp: event.Timestamp().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	switch e := event.(type) {
	case *MissionStartedEvent:
		env.Data = map[string]any{"mission_name": e.MissionName, "resumed": e.Resumed}
	case *CycleStartedEvent:
		env.Data = map[string]any{"sequence_number": e.SequenceNumber}
	case *StepExecutedEvent:
		env.Data = map[string]any{"step": e.StepName, "cost": e.Cost}
	case *StepFailedEvent:
		data := map[string]any{"step": e.StepName}
		if e.Err != nil {
			data["error"] = e.Err.Error()
		}
		env.Data = data
	case *ConsensusReachedEvent:
		env.Data = map[string]any{"subject": e.Subject, "approved": e.Approved, "votes": e.Votes, "total": e.Total}
	case *CycleCompletedEvent:
		env.Data = map[string]any{"successful": e.Successful, "revenue": e.Revenue, "cost": e.Cost}
	case *MissionCompletedEvent:
		env.Data = map[string]any{"status": e.Status}
	}
	return env
}
