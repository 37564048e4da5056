package mission

import (
	"context"
	"testing"
	"time"

	"github.com/launchonomy/orchestrator/internal/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Manager {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	return ws
}

func TestCreateOrLoadCreatesNewMissionWithWorkspace(t *testing.T) {
	ws := newTestWorkspace(t)
	m := New(ws, nil, nil)

	msn, err := m.CreateOrLoad(context.Background(), "Launch Widget", "Sell widgets online", false)
	if err != nil {
		t.Fatalf("create or load: %v", err)
	}
	if msn.MissionName != "Launch Widget" || msn.OverallMission != "Sell widgets online" {
		t.Fatalf("unexpected mission fields: %+v", msn)
	}
	if msn.Status != "active" {
		t.Fatalf("expected active status, got %q", msn.Status)
	}
	if msn.WorkspacePath == "" {
		t.Fatal("expected workspace path to be set")
	}
	if msn.MissionID == "" {
		t.Fatal("expected a generated mission id")
	}

	raw, err := ws.LoadMissionLog(context.Background(), msn.MissionID)
	if err != nil {
		t.Fatalf("load mission log: %v", err)
	}
	if raw == nil {
		t.Fatal("expected mission log to have been persisted on creation")
	}
}

func TestCreateOrLoadResumesMatchingActiveMission(t *testing.T) {
	ws := newTestWorkspace(t)
	m := New(ws, nil, nil)
	ctx := context.Background()

	first, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false)
	if err != nil {
		t.Fatalf("create or load: %v", err)
	}

	m2 := New(ws, nil, nil)
	resumed, err := m2.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", true)
	if err != nil {
		t.Fatalf("resume create or load: %v", err)
	}
	if resumed.MissionID != first.MissionID {
		t.Fatalf("expected to resume mission %q, got %q", first.MissionID, resumed.MissionID)
	}
}

func TestCreateOrLoadDoesNotResumeCompletedMission(t *testing.T) {
	ws := newTestWorkspace(t)
	m := New(ws, nil, nil)
	ctx := context.Background()

	first, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false)
	if err != nil {
		t.Fatalf("create or load: %v", err)
	}
	if err := m.SetStatus(ctx, "completed"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	m2 := New(ws, nil, nil)
	resumed, err := m2.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", true)
	if err != nil {
		t.Fatalf("resume create or load: %v", err)
	}
	if resumed.MissionID == first.MissionID {
		t.Fatal("expected a new mission since the prior one completed")
	}
}

func TestCreateOrLoadToleratesMissingWorkspace(t *testing.T) {
	m := New(nil, nil, nil)

	msn, err := m.CreateOrLoad(context.Background(), "No Workspace Mission", "Test without a workspace", false)
	if err != nil {
		t.Fatalf("create or load: %v", err)
	}
	if msn.WorkspacePath != "" {
		t.Fatalf("expected empty workspace path, got %q", msn.WorkspacePath)
	}
}

func TestUpdateFromCycleRollsUpCostAndCounters(t *testing.T) {
	ws := newTestWorkspace(t)
	m := New(ws, nil, nil)
	ctx := context.Background()

	if _, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false); err != nil {
		t.Fatalf("create or load: %v", err)
	}

	cycle := &Cycle{
		CycleID:         "cycle-1",
		Focus:           "customer_acquisition",
		Status:          "success",
		TotalCost:       1.25,
		DurationMinutes: 4.5,
		AgentsUsed:      []string{"CEO-Agent", "ScanAgent"},
		KPIOutcomes:     map[string]any{"summary": "Signed up 10 new customers"},
		Timestamp:       time.Now().UTC(),
	}
	if err := m.UpdateFromCycle(ctx, cycle); err != nil {
		t.Fatalf("update from cycle: %v", err)
	}

	msn, ok := m.Current()
	if !ok {
		t.Fatal("expected a current mission")
	}
	if msn.CompletedCycles != 1 || msn.FailedCycles != 0 {
		t.Fatalf("unexpected counters: completed=%d failed=%d", msn.CompletedCycles, msn.FailedCycles)
	}
	if msn.TotalCost != 1.25 {
		t.Fatalf("expected total cost 1.25, got %v", msn.TotalCost)
	}
	if len(msn.CycleSummaries) != 1 {
		t.Fatalf("expected one cycle summary, got %d", len(msn.CycleSummaries))
	}
	if len(msn.KeyLearnings) != 1 {
		t.Fatalf("expected one key learning on success, got %d", len(msn.KeyLearnings))
	}
	if len(msn.PersistentAgents) != 2 {
		t.Fatalf("expected two persistent agents, got %v", msn.PersistentAgents)
	}
}

func TestUpdateFromCycleCountsFailureWithoutKeyLearning(t *testing.T) {
	ws := newTestWorkspace(t)
	m := New(ws, nil, nil)
	ctx := context.Background()

	if _, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false); err != nil {
		t.Fatalf("create or load: %v", err)
	}

	cycle := &Cycle{CycleID: "cycle-1", Focus: "customer_acquisition", Status: "failed", TotalCost: 0.5}
	if err := m.UpdateFromCycle(ctx, cycle); err != nil {
		t.Fatalf("update from cycle: %v", err)
	}

	msn, _ := m.Current()
	if msn.FailedCycles != 1 || msn.CompletedCycles != 0 {
		t.Fatalf("unexpected counters: completed=%d failed=%d", msn.CompletedCycles, msn.FailedCycles)
	}
	if len(msn.KeyLearnings) != 0 {
		t.Fatalf("expected no key learning on failure, got %v", msn.KeyLearnings)
	}
}

func TestUpdateFromCycleErrorsWithoutCurrentMission(t *testing.T) {
	m := New(newTestWorkspace(t), nil, nil)
	if err := m.UpdateFromCycle(context.Background(), &Cycle{CycleID: "cycle-1"}); err == nil {
		t.Fatal("expected an error when no mission is current")
	}
}

func TestLinkCycleToPreviousSetsSequenceAndBackpatches(t *testing.T) {
	ws := newTestWorkspace(t)
	m := New(ws, nil, nil)
	ctx := context.Background()

	if _, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false); err != nil {
		t.Fatalf("create or load: %v", err)
	}

	first := m.LinkCycleToPrevious(ctx, &Cycle{CycleID: "cycle-1", Focus: "customer_acquisition"})
	if first.SequenceNumber != 1 {
		t.Fatalf("expected sequence number 1, got %d", first.SequenceNumber)
	}
	if first.PreviousCycleID != "" {
		t.Fatalf("expected no previous cycle id for the first cycle, got %q", first.PreviousCycleID)
	}
	if !m.SaveCycleLog(ctx, first) {
		t.Fatal("expected first cycle log to save")
	}
	if err := m.UpdateFromCycle(ctx, &Cycle{CycleID: "cycle-1", Focus: "customer_acquisition", Status: "success", KPIOutcomes: map[string]any{"summary": "ok"}}); err != nil {
		t.Fatalf("update from cycle: %v", err)
	}

	second := m.LinkCycleToPrevious(ctx, &Cycle{CycleID: "cycle-2", Focus: "retention"})
	if second.SequenceNumber != 2 {
		t.Fatalf("expected sequence number 2, got %d", second.SequenceNumber)
	}
	if second.PreviousCycleID != "cycle-1" {
		t.Fatalf("expected previous cycle id cycle-1, got %q", second.PreviousCycleID)
	}
	if len(second.PreviousCyclesContext) != 1 {
		t.Fatalf("expected one prior cycle summary carried forward, got %d", len(second.PreviousCyclesContext))
	}
	if len(second.KeyInsightsFromPrevious) != 1 {
		t.Fatalf("expected one key insight carried forward, got %d", len(second.KeyInsightsFromPrevious))
	}

	raw, err := ws.LoadCycleLog(ctx, first.ParentMissionID, "cycle-1")
	if err != nil {
		t.Fatalf("load cycle log: %v", err)
	}
	if raw == nil {
		t.Fatal("expected cycle-1 log to exist")
	}
}

func TestGetMissionContextForAgentsReflectsCurrentMission(t *testing.T) {
	ws := newTestWorkspace(t)
	m := New(ws, nil, nil)
	ctx := context.Background()

	if _, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false); err != nil {
		t.Fatalf("create or load: %v", err)
	}
	agentCtx := m.GetMissionContextForAgents()
	if agentCtx.OverallMission != "Sell widgets online" {
		t.Fatalf("unexpected overall mission: %q", agentCtx.OverallMission)
	}
	if agentCtx.MissionStatus != "active" {
		t.Fatalf("unexpected mission status: %q", agentCtx.MissionStatus)
	}
}

func TestGetMissionContextForAgentsEmptyWithoutCurrentMission(t *testing.T) {
	m := New(newTestWorkspace(t), nil, nil)
	agentCtx := m.GetMissionContextForAgents()
	if agentCtx.MissionID != "" {
		t.Fatalf("expected zero-value context, got %+v", agentCtx)
	}
}

func TestResumableMatchesSpecStatuses(t *testing.T) {
	for _, status := range []string{"active", "paused", "started", "ended_unexpectedly", "critical_error"} {
		if !Resumable(status) {
			t.Fatalf("expected status %q to be resumable", status)
		}
	}
	for _, status := range []string{"completed", "failed", "archived"} {
		if Resumable(status) {
			t.Fatalf("expected status %q to not be resumable", status)
		}
	}
}

func TestNewMissionIDSanitizesNameAndIsTimestampPrefixed(t *testing.T) {
	id := newMissionID("Launch Widget!! 2.0")
	if id == "" {
		t.Fatal("expected a non-empty id")
	}
	if len(id) < len("20060102_150405") {
		t.Fatalf("unexpected id shape: %q", id)
	}
	if _, err := time.Parse("20060102_150405", id[:15]); err != nil {
		t.Fatalf("expected a timestamp prefix, got %q", id)
	}
	if want := "_mission_launch_widget_2_0"; id[15:] != want {
		t.Fatalf("expected sanitized suffix %q, got %q", want, id[15:])
	}
}

func TestLoadByIDResumesAPreviouslyCreatedMission(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	m := New(ws, nil, nil)
	created, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false)
	if err != nil {
		t.Fatalf("create or load: %v", err)
	}
	if err := m.SetStatus(ctx, "critical_error"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	// A fresh Manager, as a new process would construct, has no current
	// mission until LoadByID rebuilds it from the persisted mission log.
	fresh := New(ws, nil, nil)
	resumed, err := fresh.LoadByID(ctx, created.MissionID)
	if err != nil {
		t.Fatalf("load by id: %v", err)
	}
	if resumed.MissionID != created.MissionID || resumed.OverallMission != "Sell widgets online" {
		t.Fatalf("unexpected resumed mission: %+v", resumed)
	}
	if current, ok := fresh.Current(); !ok || current.MissionID != created.MissionID {
		t.Fatal("expected LoadByID to set the manager's current mission")
	}
}

func TestLoadByIDRejectsNonResumableStatus(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	m := New(ws, nil, nil)
	created, err := m.CreateOrLoad(ctx, "Launch Widget", "Sell widgets online", false)
	if err != nil {
		t.Fatalf("create or load: %v", err)
	}
	if err := m.SetStatus(ctx, "completed"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	fresh := New(ws, nil, nil)
	if _, err := fresh.LoadByID(ctx, created.MissionID); err == nil {
		t.Fatal("expected an error loading a completed mission")
	}
}

func TestLoadByIDRejectsUnknownMission(t *testing.T) {
	m := New(newTestWorkspace(t), nil, nil)
	if _, err := m.LoadByID(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected an error for an unknown mission id")
	}
}

func TestListResumableFiltersByStatusAndRespectsLimit(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	m := New(ws, nil, nil)
	names := []string{"Launch Widget One", "Launch Widget Two", "Launch Widget Three"}
	for _, name := range names {
		if _, err := m.CreateOrLoad(ctx, name, "Sell widgets online", false); err != nil {
			t.Fatalf("create or load: %v", err)
		}
	}
	if err := m.SetStatus(ctx, "completed"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	resumable, err := m.ListResumable(5)
	if err != nil {
		t.Fatalf("list resumable: %v", err)
	}
	// Only the first two missions remain resumable; the third (current) was
	// just marked completed.
	if len(resumable) != 2 {
		t.Fatalf("expected 2 resumable missions, got %d", len(resumable))
	}

	limited, err := m.ListResumable(1)
	if err != nil {
		t.Fatalf("list resumable: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit of 1 to be respected, got %d", len(limited))
	}
}
