// Package discovery locates GSD projects under a directory tree. A project
// is any directory holding a .planning/ subdirectory. The traversal is
// deterministic: entries are visited in sorted order and ignored directories
// are skipped, so the same tree always yields the same candidate list.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitgor/openclawpack/internal/fsutil"
	"github.com/mitgor/openclawpack/internal/state"
)

// maxStateFileBytes caps the STATE.md read during enrichment.
const maxStateFileBytes = 1 << 20

// DefaultIgnoredDirs lists directory names that are skipped during a scan.
var DefaultIgnoredDirs = []string{".git", "node_modules", ".idea", ".cache", "dist", "build", "vendor"}

const (
	// DefaultMaxDepth bounds how far below the root the scan descends.
	DefaultMaxDepth = 4
	// DefaultMaxResults caps the candidate list.
	DefaultMaxResults = 50
)

// Config configures a deterministic scan.
type Config struct {
	Root       string
	IgnoreDirs []string
	MaxDepth   int
	MaxResults int
}

// DefaultConfig returns a Config populated with deterministic defaults.
func DefaultConfig(root string) Config {
	return Config{
		Root:       root,
		IgnoreDirs: append([]string{}, DefaultIgnoredDirs...),
		MaxDepth:   DefaultMaxDepth,
		MaxResults: DefaultMaxResults,
	}
}

// Project is one discovered GSD project.
type Project struct {
	// Name is the project directory's base name.
	Name string `json:"name"`
	// Path is the absolute project directory.
	Path string `json:"path"`
	// RelPath is relative to the scanned root; "." for the root itself.
	RelPath string `json:"rel_path"`
	// Phase fields come from .planning/STATE.md when it is readable.
	CurrentPhase     int    `json:"current_phase,omitempty"`
	CurrentPhaseName string `json:"current_phase_name,omitempty"`
}

// Scan walks the configured root and returns discovered projects ordered by
// relative path.
func Scan(cfg Config) ([]Project, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errors.New("discovery: root is required")
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discovery: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discovery: root is not a directory: %s", root)
	}

	ignoreDirs := make(map[string]struct{}, len(cfg.IgnoreDirs))
	for _, name := range cfg.IgnoreDirs {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			ignoreDirs[trimmed] = struct{}{}
		}
	}

	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var projects []Project
	if err := walk(root, root, 0, maxDepth, ignoreDirs, &projects); err != nil {
		return nil, err
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].RelPath < projects[j].RelPath
	})

	limit := cfg.MaxResults
	if limit <= 0 || limit > len(projects) {
		limit = len(projects)
	}
	return projects[:limit], nil
}

// walk descends one directory. A match ends that branch: GSD projects do
// not nest, so nothing below a project directory is scanned.
func walk(path, root string, depth, maxDepth int, ignoreDirs map[string]struct{}, projects *[]Project) error {
	if isProject(path) {
		*projects = append(*projects, describe(path, root))
		return nil
	}

	if depth >= maxDepth {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("discovery: read dir %s: %w", path, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ignored := ignoreDirs[name]; ignored {
			continue
		}
		if err := walk(filepath.Join(path, name), root, depth+1, maxDepth, ignoreDirs, projects); err != nil {
			return err
		}
	}
	return nil
}

func isProject(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".planning"))
	return err == nil && info.IsDir()
}

// describe builds the candidate entry, enriching it with phase information
// when the project's STATE.md is readable.
func describe(dir, root string) Project {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = dir
	}
	p := Project{
		Name:    filepath.Base(dir),
		Path:    dir,
		RelPath: rel,
	}
	if content, err := fsutil.ReadFileCapped(dir, filepath.Join(".planning", "STATE.md"), maxStateFileBytes); err == nil {
		st := state.ParseState(string(content))
		p.CurrentPhase = st.CurrentPhase
		p.CurrentPhaseName = st.CurrentPhaseName
	}
	return p
}
