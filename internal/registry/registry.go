// Package registry persists the set of known GSD projects as a JSON file in
// the platform user-data directory.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/mitgor/openclawpack/internal/fsutil"
	"github.com/mitgor/openclawpack/internal/state"
)

// Entry is one registered project.
type Entry struct {
	Name           string                `json:"name"`
	Path           string                `json:"path"`
	RegisteredAt   string                `json:"registered_at"`
	LastCheckedAt  string                `json:"last_checked_at,omitempty"`
	LastKnownState *state.ProjectSummary `json:"last_known_state,omitempty"`
}

type registryData struct {
	Version  int               `json:"version"`
	Projects map[string]*Entry `json:"projects"`
}

// Registry manages the persistent project index. Not safe for concurrent
// use; the CLI loads, mutates, and saves within one invocation.
type Registry struct {
	path string
	data registryData
}

// DefaultPath returns the platform registry location:
// $XDG_DATA_HOME/openclawpack or ~/.local/share/openclawpack on Linux,
// ~/Library/Application Support/openclawpack on macOS,
// %LOCALAPPDATA%\openclawpack on Windows.
// OPENCLAWPACK_REGISTRY overrides the location entirely.
func DefaultPath() (string, error) {
	if p := os.Getenv("OPENCLAWPACK_REGISTRY"); p != "" {
		return p, nil
	}
	base, err := userDataDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user data dir: %w", err)
	}
	return filepath.Join(base, "openclawpack", "registry.json"), nil
}

func userDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "AppData", "Local"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// Load reads a registry file, or returns an empty registry when the file
// does not exist yet. An empty path uses DefaultPath.
func Load(path string) (*Registry, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	reg := &Registry{
		path: path,
		data: registryData{Version: 1, Projects: map[string]*Entry{}},
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	if err := json.Unmarshal(content, &reg.data); err != nil {
		return nil, fmt.Errorf("invalid or corrupt registry JSON at %s: %w", path, err)
	}
	if reg.data.Projects == nil {
		reg.data.Projects = map[string]*Entry{}
	}
	return reg, nil
}

// Path returns where this registry persists.
func (r *Registry) Path() string { return r.path }

// Save writes the registry to disk atomically, creating parent directories
// as needed.
func (r *Registry) Save() error {
	return fsutil.AtomicWriteJSON(r.path, r.data)
}

// Add registers a project directory. The directory must exist and contain
// .planning/; name defaults to the directory basename. Duplicate names and
// duplicate resolved paths are rejected. The entry records a best-effort
// state snapshot, and the registry is saved before returning.
func (r *Registry) Add(projectPath, name string) (*Entry, error) {
	if _, err := os.Stat(projectPath); err != nil {
		return nil, fmt.Errorf("path does not exist: %s", projectPath)
	}

	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	if info, err := os.Stat(filepath.Join(resolved, ".planning")); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("no .planning/ directory found at %s (is this a GSD-managed project?)", resolved)
	}

	if name == "" {
		name = filepath.Base(resolved)
	}

	if _, exists := r.data.Projects[name]; exists {
		return nil, fmt.Errorf("a project named '%s' already exists in the registry", name)
	}
	for _, existing := range r.data.Projects {
		if existing.Path == resolved {
			return nil, fmt.Errorf("path '%s' is already registered as '%s'", resolved, existing.Name)
		}
	}

	entry := &Entry{
		Name:         name,
		Path:         resolved,
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Snapshot is best effort; a half-initialized project still registers
	if summary, err := state.Summary(resolved); err == nil {
		entry.LastKnownState = summary
	}

	r.data.Projects[name] = entry
	if err := r.Save(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes a project by name, reporting whether it was present. The
// registry is saved after a successful removal.
func (r *Registry) Remove(name string) (bool, error) {
	if _, exists := r.data.Projects[name]; !exists {
		return false, nil
	}
	delete(r.data.Projects, name)
	if err := r.Save(); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the entry for a name, or nil.
func (r *Registry) Get(name string) *Entry {
	return r.data.Projects[name]
}

// List returns all entries sorted by name.
func (r *Registry) List() []*Entry {
	entries := make([]*Entry, 0, len(r.data.Projects))
	for _, entry := range r.data.Projects {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Refresh re-reads each project's planning summary and stamps
// last_checked_at. Projects that fail to read keep their previous snapshot.
func (r *Registry) Refresh() error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, entry := range r.data.Projects {
		entry.LastCheckedAt = now
		if summary, err := state.Summary(entry.Path); err == nil {
			entry.LastKnownState = summary
		}
	}
	return r.Save()
}
