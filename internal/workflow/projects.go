package workflow

import (
	"fmt"

	"github.com/mitgor/openclawpack/internal/discovery"
	"github.com/mitgor/openclawpack/internal/events"
	"github.com/mitgor/openclawpack/internal/output"
	"github.com/mitgor/openclawpack/internal/registry"
)

// Projects exposes the multi-project registry operations behind the result
// envelope boundary.
type Projects struct {
	// RegistryPath overrides the platform-default registry location.
	RegistryPath string

	// Bus receives lifecycle events. Nil skips emission.
	Bus *events.Bus
}

// Add registers a GSD project under the given name. An empty name defaults
// to the directory basename.
func (p Projects) Add(path, name string) *output.Result {
	reg, err := registry.Load(p.RegistryPath)
	if err != nil {
		return p.fail("add_project", err)
	}
	entry, err := reg.Add(path, name)
	if err != nil {
		return p.fail("add_project", err)
	}
	emit(p.Bus, events.TypeProgressUpdate, map[string]any{
		"command": "add_project",
		"status":  "complete",
		"project": entry.Name,
	})
	return output.Ok(entry, "", nil, 0)
}

// List returns the registered projects sorted by name. With refresh, each
// project's planning summary is re-read and last_checked_at stamped first.
func (p Projects) List(refresh bool) *output.Result {
	reg, err := registry.Load(p.RegistryPath)
	if err != nil {
		return p.fail("list_projects", err)
	}
	if refresh {
		if err := reg.Refresh(); err != nil {
			return p.fail("list_projects", err)
		}
	}
	entries := reg.List()
	emit(p.Bus, events.TypeProgressUpdate, map[string]any{
		"command": "list_projects",
		"status":  "complete",
		"count":   len(entries),
	})
	return output.Ok(entries, "", nil, 0)
}

// Discover scans a directory tree for GSD projects and reports them as
// candidates. The registry is not touched; add what the listing suggests.
func (p Projects) Discover(root string) *output.Result {
	projects, err := discovery.Scan(discovery.DefaultConfig(root))
	if err != nil {
		return p.fail("discover_projects", err)
	}
	emit(p.Bus, events.TypeProgressUpdate, map[string]any{
		"command": "discover_projects",
		"status":  "complete",
		"count":   len(projects),
	})
	return output.Ok(projects, "", nil, 0)
}

// Remove drops a project from the registry. An unknown name yields a failed
// envelope without an error event.
func (p Projects) Remove(name string) *output.Result {
	reg, err := registry.Load(p.RegistryPath)
	if err != nil {
		return p.fail("remove_project", err)
	}
	removed, err := reg.Remove(name)
	if err != nil {
		return p.fail("remove_project", err)
	}
	if !removed {
		return output.Error(fmt.Sprintf("Project '%s' not found in registry.", name), 0)
	}
	emit(p.Bus, events.TypeProgressUpdate, map[string]any{
		"command": "remove_project",
		"status":  "complete",
		"project": name,
	})
	return output.Ok(map[string]any{"removed": name}, "", nil, 0)
}

func (p Projects) fail(command string, err error) *output.Result {
	emit(p.Bus, events.TypeError, map[string]any{
		"command": command,
		"errors":  []string{err.Error()},
	})
	return output.Error(err.Error(), 0)
}
