package config

import (
	"os"
	"testing"
)

func TestLoadRequiresOpenAIAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")
	chdirToEmptyDir(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
}

func TestLoadDefaultsOpenAIModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("GOOGLE_ANALYTICS_TRACKING_ID", "")
	chdirToEmptyDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenAIModel != DefaultOpenAIModel {
		t.Fatalf("expected default model %q, got %q", DefaultOpenAIModel, cfg.OpenAIModel)
	}
	if cfg.GoogleAnalyticsTrackingID != "" {
		t.Fatalf("expected empty tracking id, got %q", cfg.GoogleAnalyticsTrackingID)
	}
}

func TestLoadHonorsExplicitModelAndTrackingID(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("GOOGLE_ANALYTICS_TRACKING_ID", "UA-TEST")
	chdirToEmptyDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("expected explicit model to win, got %q", cfg.OpenAIModel)
	}
	if cfg.GoogleAnalyticsTrackingID != "UA-TEST" {
		t.Fatalf("expected explicit tracking id, got %q", cfg.GoogleAnalyticsTrackingID)
	}
}

// chdirToEmptyDir points the process at a directory with no .env file, so
// Load's godotenv.Load call exercises the missing-file path rather than
// picking up a stray .env from the repo root.
func chdirToEmptyDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
