package workspace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := New(dir, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestSlugifySanitizesAndTruncates(t *testing.T) {
	got := Slugify("Launch My SaaS!! -- V2.0")
	if got != "launch_my_saas_v2_0" {
		t.Fatalf("unexpected slug: %q", got)
	}
	long := Slugify(string(make([]byte, 100)) + "abcdefghijklmnopqrstuvwxyz0123456789abcdefghijklmnopqrstuvwxyz")
	if len(long) > maxSlugLength {
		t.Fatalf("expected slug truncated to %d, got %d", maxSlugLength, len(long))
	}
}

func TestCreateLaysOutDirectoryTree(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	cfg, err := m.Create(ctx, "mission-1", "Launch My SaaS")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cfg.Slug != "launch_my_saas" {
		t.Fatalf("unexpected slug: %q", cfg.Slug)
	}
	for _, sub := range []string{"agents", "tools", "assets/code", "logs/cycles", "state/checkpoints", "docs/templates"} {
		if _, err := os.Stat(filepath.Join(cfg.Path, filepath.FromSlash(sub))); err != nil {
			t.Fatalf("expected %s to exist: %v", sub, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Path, "README.md")); err != nil {
		t.Fatalf("expected README.md: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Path, configFileName)); err != nil {
		t.Fatalf("expected workspace_config.json: %v", err)
	}
}

func TestSaveAssetUpdatesManifestTotals(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	cfg, err := m.Create(ctx, "mission-2", "Test Mission")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rel, err := m.SaveAsset(ctx, cfg.MissionID, "report.json", []byte(`{"ok":true}`), "json", "data")
	if err != nil {
		t.Fatalf("save asset: %v", err)
	}
	if rel == "" {
		t.Fatal("expected non-empty relative path")
	}
	manifest, err := readManifest(cfg.Path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if manifest.TotalCount != 1 {
		t.Fatalf("expected 1 asset, got %d", manifest.TotalCount)
	}
	if manifest.TotalBytes != int64(len(`{"ok":true}`)) {
		t.Fatalf("unexpected total bytes: %d", manifest.TotalBytes)
	}
}

func TestSaveAndLoadMissionStateRoundTrips(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	cfg, err := m.Create(ctx, "mission-3", "Test Mission")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	type state struct {
		Cycle int `json:"cycle"`
	}
	if err := m.SaveMissionState(ctx, cfg.MissionID, state{Cycle: 3}, "checkpoint_a"); err != nil {
		t.Fatalf("save state: %v", err)
	}

	raw, err := m.LoadMissionState(ctx, cfg.MissionID, "")
	if err != nil {
		t.Fatalf("load current state: %v", err)
	}
	var got state
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Cycle != 3 {
		t.Fatalf("expected cycle 3, got %d", got.Cycle)
	}

	raw, err = m.LoadMissionState(ctx, cfg.MissionID, "checkpoint_a")
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if raw == nil {
		t.Fatal("expected checkpoint data")
	}
}

func TestLoadMissionStateReturnsMostRecentCheckpoint(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	cfg, err := m.Create(ctx, "mission-4", "Test Mission")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.SaveMissionState(ctx, cfg.MissionID, map[string]int{"v": 1}, "checkpoint"); err != nil {
		t.Fatalf("save state 1: %v", err)
	}
	if err := m.SaveMissionState(ctx, cfg.MissionID, map[string]int{"v": 2}, "checkpoint"); err != nil {
		t.Fatalf("save state 2: %v", err)
	}
	raw, err := m.LoadMissionState(ctx, cfg.MissionID, "checkpoint")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["v"] != 2 {
		t.Fatalf("expected most recent checkpoint value 2, got %d", got["v"])
	}
}

func TestListSortsByCreationTimeDescending(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	if _, err := m.Create(ctx, "mission-a", "First"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Create(ctx, "mission-b", "Second"); err != nil {
		t.Fatalf("create: %v", err)
	}
	configs, err := m.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 workspaces, got %d", len(configs))
	}
	if configs[0].MissionID != "mission-b" || configs[1].MissionID != "mission-a" {
		t.Fatalf("expected newest first, got %s then %s", configs[0].MissionID, configs[1].MissionID)
	}
}

func TestArchiveMarksStatusArchived(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	cfg, err := m.Create(ctx, "mission-5", "Archivable")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err := m.Archive(ctx, cfg.MissionID, filepath.Join(t.TempDir(), "out.zip"))
	if err != nil || !ok {
		t.Fatalf("archive: ok=%v err=%v", ok, err)
	}
	updated, err := readConfig(cfg.Path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if updated.Status != "archived" {
		t.Fatalf("expected archived status, got %q", updated.Status)
	}
}
