// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validator checks cross-file consistency between the unit table,
// the skill catalog, and the artifact contract: every referenced skill is
// documented, every documented script is usable, and every declared
// output has a consumer or a known terminal sink.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/surveyforge/internal/executor"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// SkillsDir is the catalog location, relative to the workspace root.
const SkillsDir = ".codex/skills"

// requiredDocSections must appear in SKILL.md when the skill ships an
// entry script.
var requiredDocSections = []string{"Quick Start", "All Options", "Examples"}

// terminalSinkPrefixes are output locations nothing needs to consume:
// reports and final deliverables.
var terminalSinkPrefixes = []string{"output/", "sections/", "index/"}

// Validate runs every consistency check and returns the findings.
func Validate(ws *workspace.Workspace) []types.QualityIssue {
	var issues []types.QualityIssue

	if _, err := ws.PipelineName(); err != nil {
		issues = append(issues, types.QualityIssue{
			Code:    "validator_missing_pipeline_lock",
			Message: fmt.Sprintf("PIPELINE.lock.md is missing or malformed: %v", err),
		})
	}

	units, err := executor.LoadUnits(ws)
	if err != nil {
		issues = append(issues, types.QualityIssue{
			Code:    "validator_invalid_units",
			Message: fmt.Sprintf("UNITS.csv failed to load: %v", err),
		})
		return issues
	}

	issues = append(issues, checkSkills(ws, units)...)
	issues = append(issues, checkArtifactFlow(units)...)
	return issues
}

// checkSkills verifies each referenced SCRIPT skill is documented and its
// documentation is complete.
func checkSkills(ws *workspace.Workspace, units []types.UnitRow) []types.QualityIssue {
	var issues []types.QualityIssue

	seen := make(map[string]bool)
	for _, u := range units {
		if u.Owner != types.OwnerScript || u.Skill == "" || seen[u.Skill] {
			continue
		}
		seen[u.Skill] = true

		docPath := filepath.Join(ws.Dir, SkillsDir, u.Skill, "SKILL.md")
		doc, err := os.ReadFile(docPath)
		if err != nil {
			issues = append(issues, types.QualityIssue{
				Code:    "validator_missing_skill_doc",
				Message: fmt.Sprintf("skill %s has no SKILL.md under %s", u.Skill, SkillsDir),
			})
			continue
		}

		scriptPath := filepath.Join(ws.Dir, SkillsDir, u.Skill, "scripts", "run.py")
		if _, err := os.Stat(scriptPath); err == nil {
			for _, section := range requiredDocSections {
				if !strings.Contains(string(doc), section) {
					issues = append(issues, types.QualityIssue{
						Code:    "validator_skill_doc_incomplete",
						Message: fmt.Sprintf("skill %s ships a script but SKILL.md lacks a %s section", u.Skill, section),
					})
				}
			}
		}

		issues = append(issues, checkInputsMentioned(u, string(doc))...)
	}
	return issues
}

// checkInputsMentioned requires every declared input to be referenced in
// the skill documentation outside its Inputs section, so the doc explains
// how the input is used rather than just listing it.
func checkInputsMentioned(u types.UnitRow, doc string) []types.QualityIssue {
	prose := stripSection(doc, "## Inputs")

	var issues []types.QualityIssue
	for _, input := range u.Inputs {
		input = strings.TrimPrefix(input, "?")
		if !strings.Contains(prose, input) && !strings.Contains(prose, filepath.Base(input)) {
			issues = append(issues, types.QualityIssue{
				Code:    "validator_input_unexplained",
				Message: fmt.Sprintf("skill %s never mentions input %s outside its Inputs section", u.Skill, input),
			})
		}
	}
	return issues
}

// stripSection removes one "## Heading" section (up to the next heading)
// from a markdown document.
func stripSection(doc, heading string) string {
	var kept []string
	skipping := false
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			skipping = strings.EqualFold(trimmed, heading)
		}
		if !skipping {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// checkArtifactFlow verifies every declared output is either consumed by
// some unit's inputs or lands in a terminal sink.
func checkArtifactFlow(units []types.UnitRow) []types.QualityIssue {
	consumed := make(map[string]bool)
	for _, u := range units {
		for _, input := range u.Inputs {
			consumed[strings.TrimPrefix(input, "?")] = true
		}
	}

	var orphans []string
	for _, u := range units {
		for _, out := range u.Outputs {
			out = strings.TrimPrefix(out, "?")
			if consumed[out] || terminalSink(out) {
				continue
			}
			orphans = append(orphans, fmt.Sprintf("%s (from %s)", out, u.UnitID))
		}
	}
	sort.Strings(orphans)

	var issues []types.QualityIssue
	for _, o := range orphans {
		issues = append(issues, types.QualityIssue{
			Code:    "validator_orphan_output",
			Message: fmt.Sprintf("output %s feeds no unit and is not a terminal sink", o),
		})
	}
	return issues
}

func terminalSink(out string) bool {
	for _, prefix := range terminalSinkPrefixes {
		if strings.HasPrefix(out, prefix) {
			return true
		}
	}
	return strings.HasSuffix(out, ".log") || strings.HasSuffix(out, ".pdf")
}
