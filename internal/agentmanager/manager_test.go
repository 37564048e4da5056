package agentmanager

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAgentDisambiguatesNameCollisions(t *testing.T) {
	m := New(nil, &fakeAsker{}, nil, nil)

	first, err := m.CreateAgent(context.Background(), "ScanAgent", "persona", "primer")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.Name() != "ScanAgent" {
		t.Fatalf("unexpected first name: %s", first.Name())
	}

	second, err := m.CreateAgent(context.Background(), "ScanAgent", "persona", "primer")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Name() != "ScanAgent_1" {
		t.Fatalf("expected disambiguated name, got %s", second.Name())
	}

	if len(m.Names()) != 2 {
		t.Fatalf("expected 2 live agents, got %d", len(m.Names()))
	}
}

func TestCreateSpecializedAgentUsesDesignedSpec(t *testing.T) {
	asker := &fakeAsker{result: map[string]any{
		"name":      "Code Review Agent",
		"persona":   "reviews code changes for correctness",
		"expertise": "static analysis, code review",
	}, cost: 0.02}
	m := New(nil, asker, nil, nil)

	agent, cost, err := m.CreateSpecializedAgent(context.Background(), "review pull requests")
	if err != nil {
		t.Fatalf("create specialized: %v", err)
	}
	if agent.Name() != "Code_Review_Agent" {
		t.Fatalf("unexpected sanitized name: %s", agent.Name())
	}
	if cost != 0.02 {
		t.Fatalf("unexpected cost: %v", cost)
	}
}

func TestCreateSpecializedAgentFallsBackOnDesignError(t *testing.T) {
	asker := &fakeAsker{err: errors.New("llm unavailable")}
	m := New(nil, asker, nil, nil)

	agent, _, err := m.CreateSpecializedAgent(context.Background(), "review pull requests")
	if err != nil {
		t.Fatalf("expected fallback to succeed, got error: %v", err)
	}
	if agent.Name() != "FallbackGenericSpecialist" {
		t.Fatalf("expected fallback name, got %s", agent.Name())
	}
}

func TestCreateSpecializedAgentFallsBackOnMissingName(t *testing.T) {
	asker := &fakeAsker{result: map[string]any{"persona": "no name here"}}
	m := New(nil, asker, nil, nil)

	agent, _, err := m.CreateSpecializedAgent(context.Background(), "review pull requests")
	if err != nil {
		t.Fatalf("expected fallback to succeed, got error: %v", err)
	}
	if agent.Name() != "FallbackGenericSpecialist" {
		t.Fatalf("expected fallback name, got %s", agent.Name())
	}
}

func TestCreateSpecializedAgentDisambiguatesFallbackName(t *testing.T) {
	m := New(nil, &fakeAsker{err: errors.New("down")}, nil, nil)
	if _, err := m.CreateAgent(context.Background(), "FallbackGenericSpecialist", "persona", "primer"); err != nil {
		t.Fatalf("seed agent: %v", err)
	}

	agent, _, err := m.CreateSpecializedAgent(context.Background(), "anything")
	if err != nil {
		t.Fatalf("create specialized: %v", err)
	}
	if agent.Name() != "FallbackGenericSpecialist_1" {
		t.Fatalf("expected disambiguated fallback name, got %s", agent.Name())
	}
}

func TestLoadSpecialistPrimerPrefersTemplateOverGenerated(t *testing.T) {
	primers := stubPrimers{"code_review_agent": "templated primer text"}
	m := New(nil, &fakeAsker{}, primers, nil)

	primer, source := m.loadSpecialistPrimer("Code Review Agent", "persona", "expertise", "Code_Review_Agent")
	if source != "template:code_review_agent" {
		t.Fatalf("unexpected source: %s", source)
	}
	if primer != "templated primer text" {
		t.Fatalf("unexpected primer: %s", primer)
	}
}

func TestLoadSpecialistPrimerFallsBackToGenerated(t *testing.T) {
	m := New(nil, &fakeAsker{}, nil, nil)

	primer, source := m.loadSpecialistPrimer("Code Review Agent", "reviews code", "static analysis", "Code_Review_Agent")
	if source != "generated_from_spec" {
		t.Fatalf("unexpected source: %s", source)
	}
	if primer == "" {
		t.Fatal("expected non-empty generated primer")
	}
}

func TestSanitizeIdentifierDefaultsWhenEmpty(t *testing.T) {
	if got := sanitizeIdentifier("!!!"); got != "Specialist" {
		t.Fatalf("expected default Specialist, got %s", got)
	}
	if got := sanitizeIdentifier("Code Review Agent"); got != "Code_Review_Agent" {
		t.Fatalf("unexpected sanitized name: %s", got)
	}
}

type stubPrimers map[string]string

func (s stubPrimers) Load(name string) (string, error) {
	if text, ok := s[name]; ok {
		return text, nil
	}
	return "", errNoTemplate
}

var errNoTemplate = errors.New("no template")
