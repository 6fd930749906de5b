package state

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	phasePosPattern     = regexp.MustCompile(`Phase:\s*(\d+)\s+of\s+\d+\s*(?:\(([^)]+)\))?`)
	planPosPattern      = regexp.MustCompile(`Plan:\s*(\d+)\s+of\s+(\d+)`)
	lastActivityPattern = regexp.MustCompile(`Last activity:\s*(.+)`)
	phaseHeadingPattern = regexp.MustCompile(`(?m)^###\s+Phase\s+(\d+):\s+(.+)$`)
	anyH3Pattern        = regexp.MustCompile(`(?m)^###\s`)
	goalPattern         = regexp.MustCompile(`\*\*Goal\*\*:\s*(.+)`)
	phaseReqsPattern    = regexp.MustCompile(`\*\*Requirements\*\*:\s*(.+)`)
	phaseNumberPattern  = regexp.MustCompile(`^(\d+)\.`)
	plansCountPattern   = regexp.MustCompile(`^(\d+)/(\d+)`)
	requirementPattern  = regexp.MustCompile(`(?m)^-\s+\[([ xX])\]\s+\*\*([A-Z]+-\d+)\*\*:\s*(.+)$`)
	digitsPattern       = regexp.MustCompile(`(\d+)`)
	h1Pattern           = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	constraintPattern   = regexp.MustCompile(`^-\s+\*\*[^*]+\*\*:\s*(.+)`)
)

// ParseConfig parses config.json content. Missing keys keep their defaults,
// unknown keys are ignored.
func ParseConfig(content []byte) (ProjectConfig, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(content, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("invalid config.json: %w", err)
	}
	return cfg, nil
}

// ParseState parses STATE.md content. Empty content yields phase 0 with
// name "unknown".
func ParseState(content string) ProjectState {
	st := ProjectState{CurrentPhaseName: "unknown"}
	if strings.TrimSpace(content) == "" {
		return st
	}

	if position := ExtractSection(content, "Current Position", 2); position != "" {
		// "Phase: 1 of 5 (Foundation)"
		if m := phasePosPattern.FindStringSubmatch(position); m != nil {
			st.CurrentPhase, _ = strconv.Atoi(m[1])
			if name := strings.TrimSpace(m[2]); name != "" {
				st.CurrentPhaseName = name
			}
		}
		// "Plan: 1 of 3 in current phase"
		if m := planPosPattern.FindStringSubmatch(position); m != nil {
			st.PlansComplete, _ = strconv.Atoi(m[1])
			st.PlansTotal, _ = strconv.Atoi(m[2])
		}
		if m := lastActivityPattern.FindStringSubmatch(position); m != nil {
			st.LastActivity = strings.TrimSpace(m[1])
		}
	}

	if blockers := ExtractSection(content, "Blockers/Concerns", 3); blockers != "" {
		for _, line := range strings.Split(blockers, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "- ") && line != "- None yet." {
				st.Blockers = append(st.Blockers, strings.TrimSpace(line[2:]))
			}
		}
	}

	if decisions := ExtractSection(content, "Decisions", 3); decisions != "" {
		for _, line := range strings.Split(decisions, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "- ") {
				st.Decisions = append(st.Decisions, strings.TrimSpace(line[2:]))
			}
		}
	}

	return st
}

// ParseRoadmap parses ROADMAP.md content: the overview, each
// "### Phase N: Name" block under Phase Details, and the Progress table,
// which overrides inferred plan counts and status.
func ParseRoadmap(content string) RoadmapInfo {
	if strings.TrimSpace(content) == "" {
		return RoadmapInfo{}
	}

	roadmap := RoadmapInfo{Overview: ExtractSection(content, "Overview", 2)}

	if details := ExtractSection(content, "Phase Details", 2); details != "" {
		headings := phaseHeadingPattern.FindAllStringSubmatchIndex(details, -1)
		// Any H3 heading ends the previous phase body, phase or not
		boundaries := anyH3Pattern.FindAllStringIndex(details, -1)
		for _, h := range headings {
			number, _ := strconv.Atoi(details[h[2]:h[3]])
			name := strings.TrimSpace(details[h[4]:h[5]])

			bodyEnd := len(details)
			for _, b := range boundaries {
				if b[0] > h[0] {
					bodyEnd = b[0]
					break
				}
			}
			body := details[h[1]:bodyEnd]

			phase := PhaseInfo{Number: number, Name: name, Status: "Not started"}
			if m := goalPattern.FindStringSubmatch(body); m != nil {
				phase.Goal = strings.TrimSpace(m[1])
			}
			if m := phaseReqsPattern.FindStringSubmatch(body); m != nil {
				for _, req := range strings.Split(m[1], ",") {
					if req = strings.TrimSpace(req); req != "" {
						phase.Requirements = append(phase.Requirements, req)
					}
				}
			}

			items := ParseCheckboxItems(body)
			phase.PlansTotal = len(items)
			for _, item := range items {
				if item.Checked {
					phase.PlansComplete++
				}
			}
			if phase.PlansComplete > 0 && phase.PlansComplete >= phase.PlansTotal {
				phase.Status = "Complete"
			} else if phase.PlansComplete > 0 {
				phase.Status = "In Progress"
			}

			roadmap.Phases = append(roadmap.Phases, phase)
		}
	}

	if progress := ExtractSection(content, "Progress", 2); progress != "" {
		for _, row := range ParseTableRows(progress) {
			// "1. Foundation" style phase column
			m := phaseNumberPattern.FindStringSubmatch(row["Phase"])
			if m == nil {
				continue
			}
			number, _ := strconv.Atoi(m[1])
			for i := range roadmap.Phases {
				if roadmap.Phases[i].Number != number {
					continue
				}
				if pc := plansCountPattern.FindStringSubmatch(row["Plans Complete"]); pc != nil {
					roadmap.Phases[i].PlansComplete, _ = strconv.Atoi(pc[1])
					roadmap.Phases[i].PlansTotal, _ = strconv.Atoi(pc[2])
				}
				if status := strings.TrimSpace(row["Status"]); status != "" && status != "-" {
					roadmap.Phases[i].Status = status
				}
				if completed := strings.TrimSpace(row["Completed"]); completed != "" && completed != "-" {
					roadmap.Phases[i].CompletedDate = completed
				}
			}
		}
	}

	return roadmap
}

// ParseRequirements parses REQUIREMENTS.md content: checkbox items with
// bold IDs under "v1 Requirements", phases assigned via the Traceability
// table.
func ParseRequirements(content string) []RequirementInfo {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	phaseByID := map[string]int{}
	if traceability := ExtractSection(content, "Traceability", 2); traceability != "" {
		for _, row := range ParseTableRows(traceability) {
			id := strings.TrimSpace(row["Requirement"])
			if m := digitsPattern.FindStringSubmatch(row["Phase"]); m != nil {
				phaseByID[id], _ = strconv.Atoi(m[1])
			}
		}
	}

	v1 := ExtractSection(content, "v1 Requirements", 2)
	if v1 == "" {
		return nil
	}

	var requirements []RequirementInfo
	for _, m := range requirementPattern.FindAllStringSubmatch(v1, -1) {
		requirements = append(requirements, RequirementInfo{
			ID:          m[2],
			Description: strings.TrimSpace(m[3]),
			Phase:       phaseByID[m[2]],
			Completed:   strings.EqualFold(m[1], "x"),
		})
	}
	return requirements
}

// ParseProject parses PROJECT.md content: name from the H1, description
// from "What This Is", core value, and constraints.
func ParseProject(content string) ProjectInfo {
	info := ProjectInfo{Name: "unknown", Description: "unknown"}
	if strings.TrimSpace(content) == "" {
		return info
	}

	if m := h1Pattern.FindStringSubmatch(content); m != nil {
		info.Name = strings.TrimSpace(m[1])
	}
	if what := ExtractSection(content, "What This Is", 2); what != "" {
		info.Description = what
	}
	info.CoreValue = ExtractSection(content, "Core Value", 2)

	if constraints := ExtractSection(content, "Constraints", 2); constraints != "" {
		for _, line := range strings.Split(constraints, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "- **"):
				// "- **Runtime**: Python 3.10+" keeps only the value
				if m := constraintPattern.FindStringSubmatch(line); m != nil {
					info.Constraints = append(info.Constraints, strings.TrimSpace(m[1]))
				} else {
					info.Constraints = append(info.Constraints, strings.TrimSpace(line[2:]))
				}
			case strings.HasPrefix(line, "- "):
				info.Constraints = append(info.Constraints, strings.TrimSpace(line[2:]))
			}
		}
	}

	return info
}
