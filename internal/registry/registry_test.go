package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestAddAgentRejectsReservedAgentSuffixWithoutModule(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = r.AddAgent(context.Background(), Entry{Name: "CEO-Agent"})
	if !errors.Is(err, ErrReservedName) {
		t.Fatalf("expected ErrReservedName, got %v", err)
	}
}

func TestAddAgentAllowsAgentSuffixWithModule(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = r.AddAgent(context.Background(), Entry{Name: "ScanAgent", Module: "launchonomy.agents.workflow.scan", Class: "ScanAgent"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := r.GetAgentSpec("ScanAgent"); !ok {
		t.Fatal("expected ScanAgent to be registered")
	}
}

func TestApplyProposalInsertsTool(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = r.ApplyProposal(context.Background(), Proposal{
		Type: "add_tool",
		Name: "webhook-sender",
		Spec: map[string]any{"kind": "webhook"},
	})
	if err != nil {
		t.Fatalf("apply proposal: %v", err)
	}
	names := r.ListToolNames()
	if len(names) != 1 || names[0] != "webhook-sender" {
		t.Fatalf("unexpected tool names: %v", names)
	}
}

func TestSaveAndLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.AddTool(context.Background(), Entry{Name: "spreadsheet-tool", Spec: map[string]any{"a": 1.0}}); err != nil {
		t.Fatalf("add tool: %v", err)
	}
	if err := r.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.GetToolSpec("spreadsheet-tool"); !ok {
		t.Fatal("expected tool to survive reload")
	}
}

func TestListAgentNamesIsSorted(t *testing.T) {
	r, _ := Load(filepath.Join(t.TempDir(), "registry.json"))
	_ = r.AddAgent(context.Background(), Entry{Name: "ZAgent", Module: "m", Class: "c"})
	_ = r.AddAgent(context.Background(), Entry{Name: "AAgent", Module: "m", Class: "c"})
	names := r.ListAgentNames()
	if names[0] != "AAgent" || names[1] != "ZAgent" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}
