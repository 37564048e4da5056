package agentmanager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/launchonomy/orchestrator/internal/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	reg, err := registry.Load(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func TestLoadRegisteredSkipsEntriesWithoutModuleClass(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.AddAgent(context.Background(), registry.Entry{Name: "BareAgent"}); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	m := New(reg, &fakeAsker{}, nil, nil)

	loaded, skipped := m.LoadRegistered(context.Background(), FactoryDeps{Registry: reg, Manager: m})
	if loaded != 0 || skipped != 1 {
		t.Fatalf("expected 0 loaded, 1 skipped, got %d/%d", loaded, skipped)
	}
}

func TestLoadRegisteredSkipsUnknownFactory(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.AddAgent(context.Background(), registry.Entry{Name: "ScanAgent", Module: "scan", Class: "Unregistered"}); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	m := New(reg, &fakeAsker{}, nil, nil)

	loaded, skipped := m.LoadRegistered(context.Background(), FactoryDeps{Registry: reg, Manager: m})
	if loaded != 0 || skipped != 1 {
		t.Fatalf("expected 0 loaded, 1 skipped, got %d/%d", loaded, skipped)
	}
}

func TestLoadRegisteredInstantiatesMatchingFactory(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.AddAgent(context.Background(), registry.Entry{Name: "ScanAgent", Module: "scan", Class: "DemoScanAgent"}); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	RegisterFactory("scan", "DemoScanAgent", func(entry registry.Entry, deps FactoryDeps) (Agent, error) {
		return NewPromptAgent(entry.Name, "scans for opportunities", "system prompt", deps.Manager.asker), nil
	})

	m := New(reg, &fakeAsker{}, nil, nil)
	loaded, skipped := m.LoadRegistered(context.Background(), FactoryDeps{Registry: reg, Manager: m})
	if loaded != 1 || skipped != 0 {
		t.Fatalf("expected 1 loaded, 0 skipped, got %d/%d", loaded, skipped)
	}
	if _, ok := m.Get("ScanAgent"); !ok {
		t.Fatal("expected ScanAgent to be live")
	}
}

func TestLoadRegisteredSkipsFactoryConstructionError(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.AddAgent(context.Background(), registry.Entry{Name: "BrokenAgent", Module: "broken", Class: "AlwaysFails"}); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	RegisterFactory("broken", "AlwaysFails", func(entry registry.Entry, deps FactoryDeps) (Agent, error) {
		return nil, errors.New("construction failed")
	})

	m := New(reg, &fakeAsker{}, nil, nil)
	loaded, skipped := m.LoadRegistered(context.Background(), FactoryDeps{Registry: reg, Manager: m})
	if loaded != 0 || skipped != 1 {
		t.Fatalf("expected 0 loaded, 1 skipped, got %d/%d", loaded, skipped)
	}
}

func TestFileTemplateLoaderReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "generic.txt"), []byte("generic primer text"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	loader := FileTemplateLoader{Dir: dir}

	text, err := loader.Load("generic")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if text != "generic primer text" {
		t.Fatalf("unexpected template text: %s", text)
	}

	if _, err := loader.Load("missing"); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestNoPrimersAlwaysErrors(t *testing.T) {
	if _, err := (NoPrimers{}).Load("anything"); err == nil {
		t.Fatal("expected NoPrimers to always error")
	}
}
