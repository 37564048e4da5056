// Package workspace manages the on-disk directory tree that backs a
// mission: agent/tool specs, saved assets, cycle logs, and checkpointed
// state. This tree is the resume contract between runs of the orchestrator
// and the only state a mission needs to survive a process restart.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/launchonomy/orchestrator/internal/telemetry"
)

const (
	// DefaultBaseDir is used when no base directory is configured.
	DefaultBaseDir = ".launchonomy"

	maxSlugLength = 50

	configFileName   = "workspace_config.json"
	manifestFileName = "asset_manifest.json"
	currentStateName = "current_state.json"
	missionLogName   = "mission_log.json"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9_]+`)

// Config is the persisted workspace_config.json document.
type Config struct {
	MissionID   string    `json:"mission_id"`
	MissionName string    `json:"mission_name"`
	Slug        string    `json:"slug"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Path        string    `json:"-"`
}

// AssetEntry records one saved asset in the manifest.
type AssetEntry struct {
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	RelativePath string    `json:"relative_path"`
	Bytes        int64     `json:"bytes"`
	SavedAt      time.Time `json:"saved_at"`
}

// Manifest is the persisted asset_manifest.json document. Totals are
// recomputed from Assets on every mutation before the manifest is written.
type Manifest struct {
	Assets     []AssetEntry `json:"assets"`
	TotalBytes int64        `json:"total_bytes"`
	TotalCount int          `json:"total_count"`
}

// Manager creates and mutates mission workspace directories rooted under a
// single base directory. Mutations to a single mission's workspace_config.json
// are additionally serialized by an OS-level advisory lock, so two processes
// pointed at the same base directory cannot corrupt one workspace's state;
// concurrent access to two different missions' workspaces never blocks each
// other.
type Manager struct {
	baseDir string
	logger  telemetry.Logger

	mu        sync.Mutex
	pathCache map[string]string
}

// New constructs a Manager rooted at baseDir, creating it if necessary.
func New(baseDir string, logger telemetry.Logger) (*Manager, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create base dir: %w", err)
	}
	return &Manager{baseDir: baseDir, logger: logger, pathCache: make(map[string]string)}, nil
}

// Slugify reduces name to the [a-z0-9_] alphabet used in workspace directory
// names, truncated to 50 characters.
func Slugify(name string) string {
	lower := strings.ToLower(name)
	slug := nonSlugChars.ReplaceAllString(lower, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "mission"
	}
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "_")
	}
	return slug
}

// Create lays out a new workspace directory tree for missionID and writes
// its README, .gitignore, workspace_config.json, and an empty asset
// manifest. The directory name is "<mission_id>_<slug>".
func (m *Manager) Create(ctx context.Context, missionID, missionName string) (Config, error) {
	slug := Slugify(missionName)
	dirName := fmt.Sprintf("%s_%s", missionID, slug)
	path := filepath.Join(m.baseDir, dirName)

	for _, sub := range []string{
		"agents",
		"tools",
		filepath.Join("assets", "code"),
		filepath.Join("assets", "data"),
		filepath.Join("assets", "configs"),
		filepath.Join("assets", "media"),
		filepath.Join("logs", "agents"),
		filepath.Join("logs", "cycles"),
		filepath.Join("state", "checkpoints"),
		filepath.Join("state", "progress"),
		filepath.Join("docs", "generated"),
		filepath.Join("docs", "templates"),
	} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0o755); err != nil {
			return Config{}, fmt.Errorf("workspace: create %s: %w", sub, err)
		}
	}

	now := time.Now().UTC()
	cfg := Config{
		MissionID:   missionID,
		MissionName: missionName,
		Slug:        slug,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
		Path:        path,
	}

	readme := fmt.Sprintf("# %s\n\nWorkspace for mission %s, created %s.\n",
		missionName, missionID, now.Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(path, "README.md"), []byte(readme), 0o644); err != nil {
		return Config{}, fmt.Errorf("workspace: write README: %w", err)
	}
	gitignore := "state/checkpoints/*\nlogs/*\n*.tmp\n"
	if err := os.WriteFile(filepath.Join(path, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return Config{}, fmt.Errorf("workspace: write .gitignore: %w", err)
	}
	if err := m.writeConfigLocked(path, cfg); err != nil {
		return Config{}, err
	}
	if err := writeManifest(path, Manifest{}); err != nil {
		return Config{}, err
	}

	m.mu.Lock()
	m.pathCache[missionID] = path
	m.mu.Unlock()

	m.logger.Info(ctx, "workspace created", "mission_id", missionID, "path", path)
	return cfg, nil
}

// AddAgent writes an agent spec (and optional source code) into the
// workspace and updates the manifest.
func (m *Manager) AddAgent(ctx context.Context, missionID, name string, spec any, code string) error {
	return m.addEntry(ctx, missionID, "agents", name, spec, code)
}

// AddTool writes a tool spec (and optional source code) into the workspace
// and updates the manifest.
func (m *Manager) AddTool(ctx context.Context, missionID, name string, spec any, code string) error {
	return m.addEntry(ctx, missionID, "tools", name, spec, code)
}

func (m *Manager) addEntry(ctx context.Context, missionID, kind, name string, spec any, code string) error {
	path, err := m.resolve(missionID)
	if err != nil {
		return err
	}
	return m.withLock(path, func() error {
		dir := filepath.Join(path, kind, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		specBytes, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return fmt.Errorf("workspace: marshal %s spec: %w", kind, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "spec.json"), specBytes, 0o644); err != nil {
			return err
		}
		if code != "" {
			if err := os.WriteFile(filepath.Join(dir, name+".py"), []byte(code), 0o644); err != nil {
				return err
			}
		}
		m.logger.Debug(ctx, "workspace entry written", "mission_id", missionID, "kind", kind, "name", name)
		return m.recomputeManifest(path)
	})
}

// SaveAsset writes data into the category subdirectory under assets/,
// prefixed with a YYYYmmdd_HHMMSS timestamp, and returns the path relative
// to the workspace root.
func (m *Manager) SaveAsset(ctx context.Context, missionID, name string, data []byte, assetType, category string) (string, error) {
	path, err := m.resolve(missionID)
	if err != nil {
		return "", err
	}
	var relPath string
	err = m.withLock(path, func() error {
		categoryDir := filepath.Join(path, "assets", category)
		if err := os.MkdirAll(categoryDir, 0o755); err != nil {
			return err
		}
		fileName := fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102_150405"), name)
		fullPath := filepath.Join(categoryDir, fileName)
		if err := os.WriteFile(fullPath, data, 0o644); err != nil {
			return err
		}
		relPath = filepath.Join("assets", category, fileName)

		manifest, err := readManifest(path)
		if err != nil {
			return err
		}
		manifest.Assets = append(manifest.Assets, AssetEntry{
			Name:         name,
			Category:     category,
			RelativePath: relPath,
			Bytes:        int64(len(data)),
			SavedAt:      time.Now().UTC(),
		})
		recomputeTotals(&manifest)
		m.logger.Debug(ctx, "asset saved", "mission_id", missionID, "name", name, "type", assetType, "bytes", len(data))
		return writeManifest(path, manifest)
	})
	return relPath, err
}

// SaveMissionState always overwrites state/current_state.json and, when
// checkpoint is non-empty, additionally writes a timestamp-prefixed
// checkpoint file under state/checkpoints/.
func (m *Manager) SaveMissionState(ctx context.Context, missionID string, state any, checkpoint string) error {
	path, err := m.resolve(missionID)
	if err != nil {
		return err
	}
	return m.withLock(path, func() error {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("workspace: marshal state: %w", err)
		}
		if err := os.WriteFile(filepath.Join(path, "state", currentStateName), data, 0o644); err != nil {
			return err
		}
		if checkpoint != "" {
			fileName := fmt.Sprintf("%s_%s.json", time.Now().UTC().Format("20060102_150405"), checkpoint)
			if err := os.WriteFile(filepath.Join(path, "state", "checkpoints", fileName), data, 0o644); err != nil {
				return err
			}
		}
		m.logger.Debug(ctx, "mission state saved", "mission_id", missionID, "checkpoint", checkpoint)
		return nil
	})
}

// LoadMissionState loads state/current_state.json, or, when checkpoint is
// non-empty, the most recent file matching "*_<checkpoint>.json" under
// state/checkpoints/ (lexicographic order over the timestamp prefix).
func (m *Manager) LoadMissionState(ctx context.Context, missionID, checkpoint string) (json.RawMessage, error) {
	path, err := m.resolve(missionID)
	if err != nil {
		return nil, err
	}
	if checkpoint == "" {
		data, err := os.ReadFile(filepath.Join(path, "state", currentStateName))
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return data, err
	}

	dir := filepath.Join(path, "state", "checkpoints")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	suffix := "_" + checkpoint + ".json"
	var latest string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), suffix) && e.Name() > latest {
			latest = e.Name()
		}
	}
	if latest == "" {
		m.logger.Debug(ctx, "no checkpoint found", "mission_id", missionID, "checkpoint", checkpoint)
		return nil, nil
	}
	return os.ReadFile(filepath.Join(dir, latest))
}

// SaveMissionLog overwrites state/mission_log.json, the resume contract's
// source of truth, distinct from the generic checkpointed current_state.json.
func (m *Manager) SaveMissionLog(ctx context.Context, missionID string, missionLog any) error {
	path, err := m.resolve(missionID)
	if err != nil {
		return err
	}
	return m.withLock(path, func() error {
		data, err := json.MarshalIndent(missionLog, "", "  ")
		if err != nil {
			return fmt.Errorf("workspace: marshal mission log: %w", err)
		}
		if err := os.WriteFile(filepath.Join(path, "state", missionLogName), data, 0o644); err != nil {
			return err
		}
		m.logger.Debug(ctx, "mission log saved", "mission_id", missionID)
		return nil
	})
}

// LoadMissionLog loads state/mission_log.json, returning nil if it does not
// exist (a workspace with no mission log yet).
func (m *Manager) LoadMissionLog(ctx context.Context, missionID string) (json.RawMessage, error) {
	path, err := m.resolve(missionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(path, "state", missionLogName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// SaveCycleLog writes a cycle's JSON document to logs/cycles/<cycleID>.json.
func (m *Manager) SaveCycleLog(ctx context.Context, missionID, cycleID string, cycleLog any) error {
	path, err := m.resolve(missionID)
	if err != nil {
		return err
	}
	return m.withLock(path, func() error {
		data, err := json.MarshalIndent(cycleLog, "", "  ")
		if err != nil {
			return fmt.Errorf("workspace: marshal cycle log: %w", err)
		}
		if err := os.WriteFile(filepath.Join(path, "logs", "cycles", cycleID+".json"), data, 0o644); err != nil {
			return err
		}
		m.logger.Debug(ctx, "cycle log saved", "mission_id", missionID, "cycle_id", cycleID)
		return nil
	})
}

// LoadCycleLog reads a previously saved cycle log as raw JSON, for
// back-patching fields like next_cycle_id.
func (m *Manager) LoadCycleLog(ctx context.Context, missionID, cycleID string) (json.RawMessage, error) {
	path, err := m.resolve(missionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(path, "logs", "cycles", cycleID+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Archive zips the workspace tree (to path, or alongside the workspace if
// path is empty) and marks its status as archived.
func (m *Manager) Archive(ctx context.Context, missionID, destPath string) (bool, error) {
	path, err := m.resolve(missionID)
	if err != nil {
		return false, err
	}
	if destPath == "" {
		destPath = path + ".zip"
	}
	if err := zipDirectory(path, destPath); err != nil {
		m.logger.Warn(ctx, "archive failed", "mission_id", missionID, "error", err)
		return false, err
	}
	err = m.withLock(path, func() error {
		cfg, err := readConfig(path)
		if err != nil {
			return err
		}
		cfg.Status = "archived"
		cfg.UpdatedAt = time.Now().UTC()
		return m.writeConfigLocked(path, cfg)
	})
	if err != nil {
		return false, err
	}
	m.logger.Info(ctx, "workspace archived", "mission_id", missionID, "dest", destPath)
	return true, nil
}

// List returns every workspace under the base directory matching
// statusFilter (or all workspaces when statusFilter is empty), sorted by
// creation time descending.
func (m *Manager) List(statusFilter string) ([]Config, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, err
	}
	var configs []Config
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(m.baseDir, e.Name())
		cfg, err := readConfig(path)
		if err != nil {
			continue
		}
		if statusFilter != "" && cfg.Status != statusFilter {
			continue
		}
		cfg.Path = path
		configs = append(configs, cfg)

		m.mu.Lock()
		m.pathCache[cfg.MissionID] = path
		m.mu.Unlock()
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].CreatedAt.After(configs[j].CreatedAt) })
	return configs, nil
}

func (m *Manager) resolve(missionID string) (string, error) {
	m.mu.Lock()
	path, ok := m.pathCache[missionID]
	m.mu.Unlock()
	if ok {
		return path, nil
	}
	if _, err := m.List(""); err != nil {
		return "", err
	}
	m.mu.Lock()
	path, ok = m.pathCache[missionID]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("workspace: no workspace found for mission %s", missionID)
	}
	return path, nil
}

func (m *Manager) writeConfigLocked(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(path, configFileName), data, 0o644)
}

func (m *Manager) recomputeManifest(path string) error {
	manifest, err := readManifest(path)
	if err != nil {
		return err
	}
	recomputeTotals(&manifest)
	return writeManifest(path, manifest)
}

// withLock serializes mutation of one workspace's config/manifest files
// across processes sharing the same base directory, using an OS-level
// advisory lock on workspace_config.json.
func (m *Manager) withLock(path string, fn func() error) error {
	lock := flock.New(filepath.Join(path, configFileName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("workspace: acquire lock: %w", err)
	}
	defer lock.Unlock()
	return fn()
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(path, configFileName))
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(path, manifestFileName))
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

func writeManifest(path string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(path, manifestFileName), data, 0o644)
}

func recomputeTotals(manifest *Manifest) {
	manifest.TotalCount = len(manifest.Assets)
	var total int64
	for _, a := range manifest.Assets {
		total += a.Bytes
	}
	manifest.TotalBytes = total
}
