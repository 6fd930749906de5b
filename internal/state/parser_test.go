package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStateMD = `# Project State

## Current Position

Phase: 1 of 5 (Foundation)
Plan: 1 of 3 in current phase
Status: Executing
Last activity: 2026-02-21 -- Completed 01-01-PLAN.md

Progress: [##--------] 9%

## Accumulated Context

### Decisions

- [Roadmap]: Some decision made
- [01-01]: Another decision

### Blockers/Concerns

- Claude Agent SDK is alpha
- GSD question mapping undocumented
`

const sampleRoadmapMD = `# Roadmap: TestProject

## Overview

This project has three phases.

## Phase Details

### Phase 1: Foundation
**Goal**: Build the base
**Requirements**: PKG-01, PKG-02
**Plans**: 3 plans

Plans:
- [x] 01-01-PLAN.md -- Package skeleton
- [ ] 01-02-PLAN.md -- State parser
- [ ] 01-03-PLAN.md -- Transport layer

### Phase 2: Commands
**Goal**: Build CLI commands
**Requirements**: CMD-01, CMD-02
**Plans**: 2 plans

Plans:
- [ ] 02-01-PLAN.md -- New project command
- [ ] 02-02-PLAN.md -- Plan phase command

## Progress

| Phase | Plans Complete | Status | Completed |
|-------|----------------|--------|-----------|
| 1. Foundation | 1/3 | In Progress | - |
| 2. Commands | 0/2 | Not started | - |
`

const sampleRequirementsMD = `# Requirements: TestProject

## v1 Requirements

### Transport

- [ ] **TRNS-01**: Spawn subprocess
- [ ] **TRNS-02**: Timeout handling

### Packaging

- [x] **PKG-01**: pip installable
- [x] **PKG-02**: Runtime 3.10+

## Traceability

| Requirement | Phase | Status |
|-------------|-------|--------|
| TRNS-01 | Phase 1 | Pending |
| TRNS-02 | Phase 1 | Pending |
| PKG-01 | Phase 1 | Complete |
| PKG-02 | Phase 1 | Complete |
`

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"mode": "yolo", "depth": "standard", "parallelization": true}`))
	require.NoError(t, err)
	assert.Equal(t, "yolo", cfg.Mode)
	assert.True(t, cfg.Parallelization)
	// Keys absent from the file keep their defaults
	assert.Equal(t, "quality", cfg.ModelProfile)
	assert.True(t, cfg.CommitDocs)
}

func TestParseConfigExtraFields(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"mode": "yolo", "workflow": {"research": true}}`))
	require.NoError(t, err)
	assert.Equal(t, "yolo", cfg.Mode)
}

func TestParseConfigInvalidJSON(t *testing.T) {
	_, err := ParseConfig([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseStateEmpty(t *testing.T) {
	st := ParseState("")
	assert.Equal(t, 0, st.CurrentPhase)
	assert.Equal(t, "unknown", st.CurrentPhaseName)
	assert.Equal(t, 0, st.PlansComplete)
	assert.Empty(t, st.Blockers)
	assert.Empty(t, st.Decisions)
}

func TestParseStateRealistic(t *testing.T) {
	st := ParseState(sampleStateMD)
	assert.Equal(t, 1, st.CurrentPhase)
	assert.Equal(t, "Foundation", st.CurrentPhaseName)
	assert.Equal(t, 1, st.PlansComplete)
	assert.Equal(t, 3, st.PlansTotal)
	assert.Equal(t, "2026-02-21 -- Completed 01-01-PLAN.md", st.LastActivity)
	require.Len(t, st.Blockers, 2)
	assert.Contains(t, st.Blockers[0], "Claude Agent SDK is alpha")
	assert.Len(t, st.Decisions, 2)
}

func TestParseStateNoPhaseName(t *testing.T) {
	st := ParseState("## Current Position\n\nPhase: 2 of 4\n")
	assert.Equal(t, 2, st.CurrentPhase)
	assert.Equal(t, "unknown", st.CurrentPhaseName)
}

func TestParseStateSkipsNoneYetBlocker(t *testing.T) {
	content := `## Current Position

Phase: 1 of 2 (Test)

### Blockers/Concerns

- None yet.
`
	st := ParseState(content)
	assert.Empty(t, st.Blockers)
}

func TestParseStateProgressPercent(t *testing.T) {
	st := ProjectState{PlansComplete: 1, PlansTotal: 3}
	assert.InDelta(t, 33.33, st.ProgressPercent(), 0.01)

	zero := ProjectState{}
	assert.Equal(t, 0.0, zero.ProgressPercent())
}

func TestParseRoadmapEmpty(t *testing.T) {
	roadmap := ParseRoadmap("")
	assert.Empty(t, roadmap.Phases)
	assert.Empty(t, roadmap.Overview)
}

func TestParseRoadmapRealistic(t *testing.T) {
	roadmap := ParseRoadmap(sampleRoadmapMD)
	assert.Contains(t, roadmap.Overview, "three phases")
	require.Len(t, roadmap.Phases, 2)

	first := roadmap.Phases[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "Foundation", first.Name)
	assert.Equal(t, "Build the base", first.Goal)
	assert.Contains(t, first.Requirements, "PKG-01")
	assert.Equal(t, 3, first.PlansTotal)
	assert.Equal(t, 1, first.PlansComplete)
	assert.Equal(t, "In Progress", first.Status)

	second := roadmap.Phases[1]
	assert.Equal(t, 2, second.PlansTotal)
	assert.Equal(t, 0, second.PlansComplete)
	assert.Equal(t, "Not started", second.Status)
}

func TestParseRoadmapProgressTableOverrides(t *testing.T) {
	content := `## Phase Details

### Phase 1: Foundation
**Goal**: Base

Plans:
- [x] 01-01-PLAN.md
- [x] 01-02-PLAN.md

## Progress

| Phase | Plans Complete | Status | Completed |
|-------|----------------|--------|-----------|
| 1. Foundation | 2/2 | Complete | 2026-02-20 |
`
	roadmap := ParseRoadmap(content)
	require.Len(t, roadmap.Phases, 1)
	assert.Equal(t, "Complete", roadmap.Phases[0].Status)
	assert.Equal(t, "2026-02-20", roadmap.Phases[0].CompletedDate)
	assert.Equal(t, 2, roadmap.Phases[0].PlansComplete)
}

func TestParseRequirementsEmpty(t *testing.T) {
	assert.Empty(t, ParseRequirements(""))
}

func TestParseRequirementsRealistic(t *testing.T) {
	reqs := ParseRequirements(sampleRequirementsMD)
	require.Len(t, reqs, 4)

	byID := map[string]RequirementInfo{}
	for _, r := range reqs {
		byID[r.ID] = r
	}

	trns01 := byID["TRNS-01"]
	assert.False(t, trns01.Completed)
	assert.Equal(t, 1, trns01.Phase)
	assert.Equal(t, "Spawn subprocess", trns01.Description)

	pkg01 := byID["PKG-01"]
	assert.True(t, pkg01.Completed)
	assert.Equal(t, 1, pkg01.Phase)
}

func TestParseProjectEmpty(t *testing.T) {
	info := ParseProject("")
	assert.Equal(t, "unknown", info.Name)
	assert.Equal(t, "unknown", info.Description)
}

func TestParseProjectRealistic(t *testing.T) {
	content := `# TestProject

## What This Is

A CLI automation layer for GSD workflows.

## Core Value

Non-interactive execution.

## Constraints

- **Runtime**: Go 1.25+
- **Dependency**: Claude Code CLI
- Plain constraint line
`
	info := ParseProject(content)
	assert.Equal(t, "TestProject", info.Name)
	assert.Equal(t, "A CLI automation layer for GSD workflows.", info.Description)
	assert.Equal(t, "Non-interactive execution.", info.CoreValue)
	require.Len(t, info.Constraints, 3)
	assert.Equal(t, "Go 1.25+", info.Constraints[0])
	assert.Equal(t, "Claude Code CLI", info.Constraints[1])
	assert.Equal(t, "Plain constraint line", info.Constraints[2])
}
