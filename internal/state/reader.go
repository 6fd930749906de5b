package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitgor/openclawpack/internal/fsutil"
)

// maxPlanningFileBytes caps individual .planning/ file reads. The files are
// human-written markdown; anything larger is corrupt.
const maxPlanningFileBytes = 1 << 20

// ReadProject reads and parses all .planning/ files of a project directory.
// STATE.md and PROJECT.md are required; config.json, ROADMAP.md, and
// REQUIREMENTS.md fall back to zero values when absent.
func ReadProject(dir string) (*PlanningDirectory, error) {
	projectPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}

	planningDir := filepath.Join(projectPath, ".planning")
	info, err := os.Stat(planningDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("no .planning/ directory found at %s (is this a GSD-managed project?)", projectPath)
	}

	pd := &PlanningDirectory{Config: DefaultConfig()}

	if content, ok, err := readPlanningFile(projectPath, "config.json"); err != nil {
		return nil, err
	} else if ok {
		cfg, err := ParseConfig(content)
		if err != nil {
			return nil, err
		}
		pd.Config = cfg
	}

	content, ok, err := readPlanningFile(projectPath, "STATE.md")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("required file STATE.md not found in %s", planningDir)
	}
	pd.State = ParseState(string(content))

	content, ok, err = readPlanningFile(projectPath, "PROJECT.md")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("required file PROJECT.md not found in %s", planningDir)
	}
	pd.Project = ParseProject(string(content))

	if content, ok, err := readPlanningFile(projectPath, "ROADMAP.md"); err != nil {
		return nil, err
	} else if ok {
		pd.Roadmap = ParseRoadmap(string(content))
	}

	if content, ok, err := readPlanningFile(projectPath, "REQUIREMENTS.md"); err != nil {
		return nil, err
	} else if ok {
		pd.Requirements = ParseRequirements(string(content))
	}

	return pd, nil
}

// Summary reads a project and condenses it into the status payload.
func Summary(dir string) (*ProjectSummary, error) {
	pd, err := ReadProject(dir)
	if err != nil {
		return nil, err
	}

	complete := 0
	for _, req := range pd.Requirements {
		if req.Completed {
			complete++
		}
	}

	blockers := pd.State.Blockers
	if blockers == nil {
		blockers = []string{}
	}

	return &ProjectSummary{
		CurrentPhase:         pd.State.CurrentPhase,
		CurrentPhaseName:     pd.State.CurrentPhaseName,
		ProgressPercent:      pd.State.ProgressPercent(),
		Blockers:             blockers,
		RequirementsComplete: complete,
		RequirementsTotal:    len(pd.Requirements),
	}, nil
}

func readPlanningFile(projectPath, name string) ([]byte, bool, error) {
	content, err := fsutil.ReadFileCapped(projectPath, filepath.Join(".planning", name), maxPlanningFileBytes)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return content, true, nil
}
