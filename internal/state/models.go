// Package state reads a GSD project's .planning/ directory into typed
// models. All parsing is tolerant: malformed or missing optional content
// degrades to zero values rather than failing the whole read.
package state

// ProjectConfig mirrors .planning/config.json. Unknown keys are ignored.
type ProjectConfig struct {
	Mode            string `json:"mode"`
	Depth           string `json:"depth"`
	Parallelization bool   `json:"parallelization"`
	CommitDocs      bool   `json:"commit_docs"`
	ModelProfile    string `json:"model_profile"`
}

// DefaultConfig returns the values assumed when config.json is absent or
// silent on a key.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Mode:            "yolo",
		Depth:           "standard",
		Parallelization: true,
		CommitDocs:      true,
		ModelProfile:    "quality",
	}
}

// PhaseInfo describes a single phase from ROADMAP.md.
type PhaseInfo struct {
	Number        int      `json:"number"`
	Name          string   `json:"name"`
	Goal          string   `json:"goal,omitempty"`
	Requirements  []string `json:"requirements,omitempty"`
	PlansComplete int      `json:"plans_complete"`
	PlansTotal    int      `json:"plans_total"`
	Status        string   `json:"status"`
	CompletedDate string   `json:"completed_date,omitempty"`
}

// RequirementInfo is a single requirement from REQUIREMENTS.md. Phase is 0
// when the traceability table does not assign one.
type RequirementInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Phase       int    `json:"phase,omitempty"`
	Completed   bool   `json:"completed"`
}

// ProjectState is the parsed STATE.md.
type ProjectState struct {
	CurrentPhase     int      `json:"current_phase"`
	CurrentPhaseName string   `json:"current_phase_name"`
	PlansComplete    int      `json:"plans_complete"`
	PlansTotal       int      `json:"plans_total"`
	LastActivity     string   `json:"last_activity,omitempty"`
	Blockers         []string `json:"blockers"`
	Decisions        []string `json:"decisions"`
}

// ProgressPercent reports plan completion within the current phase, 0-100.
func (s ProjectState) ProgressPercent() float64 {
	if s.PlansTotal > 0 {
		return float64(s.PlansComplete) / float64(s.PlansTotal) * 100
	}
	return 0
}

// ProjectInfo is the parsed PROJECT.md.
type ProjectInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CoreValue   string   `json:"core_value,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// RoadmapInfo is the parsed ROADMAP.md.
type RoadmapInfo struct {
	Phases   []PhaseInfo `json:"phases"`
	Overview string      `json:"overview,omitempty"`
}

// PlanningDirectory is the complete parsed state of a .planning/ directory.
type PlanningDirectory struct {
	Config       ProjectConfig     `json:"config"`
	State        ProjectState      `json:"state"`
	Project      ProjectInfo       `json:"project"`
	Roadmap      RoadmapInfo       `json:"roadmap"`
	Requirements []RequirementInfo `json:"requirements"`
}

// CurrentPhaseInfo returns the roadmap entry for the current phase, or nil
// when the roadmap does not list it.
func (d *PlanningDirectory) CurrentPhaseInfo() *PhaseInfo {
	for i := range d.Roadmap.Phases {
		if d.Roadmap.Phases[i].Number == d.State.CurrentPhase {
			return &d.Roadmap.Phases[i]
		}
	}
	return nil
}

// OverallProgress reports plan completion across all phases, 0-100.
func (d *PlanningDirectory) OverallProgress() float64 {
	var total, complete int
	for _, p := range d.Roadmap.Phases {
		total += p.PlansTotal
		complete += p.PlansComplete
	}
	if total > 0 {
		return float64(complete) / float64(total) * 100
	}
	return 0
}

// ProjectSummary is the status payload derived from a full read.
type ProjectSummary struct {
	CurrentPhase         int      `json:"current_phase"`
	CurrentPhaseName     string   `json:"current_phase_name"`
	ProgressPercent      float64  `json:"progress_percent"`
	Blockers             []string `json:"blockers"`
	RequirementsComplete int      `json:"requirements_complete"`
	RequirementsTotal    int      `json:"requirements_total"`
}
