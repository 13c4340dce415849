// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gate runs deterministic quality gates over workspace artifacts.
// Each skill maps to a checker that reads the declared outputs plus the
// well-known cross-artifact files and returns structured issues. Gates
// never modify artifacts; the executor decides what a non-empty issue
// list means (strict mode blocks the unit).
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// Skill names the registry recognizes.
const (
	SkillOutline   = "outline"
	SkillCitations = "citations"
	SkillVerified  = "verify-citations"
	SkillMapping   = "map-papers"
	SkillNotes     = "paper-notes"
	SkillDrafts    = "evidence-drafts"
	SkillBindings  = "evidence-bindings"
	SkillPacks     = "writer-packs"
	SkillSections  = "write-sections"
	SkillDraft     = "merge-draft"
	SkillAudit     = "audit"
	SkillLatex     = "latex-build"
)

// Checker inspects artifacts for one skill and returns issues in a
// deterministic order.
type Checker func(c *Context) []types.QualityIssue

// registry maps skill name to checker. Skills without an entry get only
// the generic declared-outputs check.
var registry = map[string]Checker{
	SkillOutline:   checkOutline,
	SkillCitations: checkCitations,
	SkillVerified:  checkVerified,
	SkillMapping:   checkMapping,
	SkillNotes:     checkNotes,
	SkillDrafts:    checkEvidenceDrafts,
	SkillBindings:  checkBindings,
	SkillPacks:     checkPacks,
	SkillSections:  checkSections,
	SkillDraft:     checkDraft,
	SkillAudit:     checkAudit,
	SkillLatex:     checkLatex,
}

// nextAction names the earliest responsible artifact per skill for the
// report's guidance block.
var nextAction = map[string]string{
	SkillOutline:   "Complete outline/outline.yml: every H3 needs its Intent, RQ, Evidence needs, and Expected cites bullets before mapping proceeds.",
	SkillCitations: "Regenerate citations/ref.bib; deduplicate keys before anything downstream consumes them.",
	SkillVerified:  "Re-run citation verification so every bib key has a complete citations/verified.jsonl record.",
	SkillMapping:   "Revisit outline/mapping.tsv: raise per-subsection coverage and rewrite thin rationales.",
	SkillNotes:     "Fix papers/paper_notes.jsonl: one record per paper with a valid evidence level and at least one limitation.",
	SkillDrafts:    "Enrich outline/evidence_drafts.jsonl: fill the missing blocks and attach provenance to every snippet.",
	SkillBindings:  "Re-run the binder after fixing the bank or the mapping; every subsection needs enough evidence ids.",
	SkillPacks:     "Rebuild outline/writer_context_packs.jsonl after the bindings and anchor sheet are healthy.",
	SkillSections:  "Fix the listed sections/*.md files; the writer contract is stated in each subsection's context pack.",
	SkillDraft:     "Fix the failing section files first, then re-merge output/DRAFT.md.",
	SkillAudit:     "Resolve the audit findings in output/AUDIT_REPORT.md until its status is PASS.",
	SkillLatex:     "Fix the LaTeX build inputs (bib entries, section prose) and rebuild.",
}

// Context carries the workspace and resolved thresholds through one gate
// run.
type Context struct {
	WS      *workspace.Workspace
	Profile types.Profile
	Th      types.Thresholds

	// Outputs are the unit's declared outputs, workspace-relative.
	// A "?" prefix marks an output optional.
	Outputs []string
}

// Run executes the gate for one skill and writes output/QUALITY_GATE.md.
// The returned issues are empty on PASS.
func Run(skill string, ws *workspace.Workspace, outputs []string, strict bool, profile types.Profile) ([]types.QualityIssue, error) {
	c := &Context{
		WS:      ws,
		Profile: profile,
		Th:      types.ThresholdsFor(profile),
		Outputs: outputs,
	}

	issues := checkDeclaredOutputs(c)
	if checker, ok := registry[skill]; ok {
		issues = append(issues, checker(c)...)
	}

	if err := writeReport(ws, skill, profile, strict, issues); err != nil {
		return issues, err
	}
	return issues, nil
}

// checkDeclaredOutputs verifies every non-optional declared output exists
// and is non-empty.
func checkDeclaredOutputs(c *Context) []types.QualityIssue {
	var issues []types.QualityIssue
	for _, out := range c.Outputs {
		if strings.HasPrefix(out, "?") {
			continue
		}
		if !c.WS.Exists(out) {
			issues = append(issues, types.QualityIssue{
				Code:    "missing_" + artifactSlug(out),
				Message: fmt.Sprintf("declared output %s is missing or empty", out),
			})
		}
	}
	return issues
}

// artifactSlug turns a workspace-relative path into a snake_case issue
// code fragment: "outline/mapping.tsv" → "mapping_tsv".
func artifactSlug(rel string) string {
	base := rel
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.ToLower(base)
	return nonSlugRe.ReplaceAllString(base, "_")
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// writeReport renders output/QUALITY_GATE.md. The report always goes
// through WriteArtifact so freeze markers and backups apply.
func writeReport(ws *workspace.Workspace, skill string, profile types.Profile, strict bool, issues []types.QualityIssue) error {
	status := "PASS"
	if len(issues) > 0 {
		status = "FAIL"
	}
	mode := "permissive"
	if strict {
		mode = "strict"
	}

	var sb strings.Builder
	sb.WriteString("# QUALITY GATE\n\n")
	fmt.Fprintf(&sb, "- Skill: %s\n", skill)
	fmt.Fprintf(&sb, "- Profile: %s\n", profile)
	fmt.Fprintf(&sb, "- Mode: %s\n", mode)
	fmt.Fprintf(&sb, "- Status: %s\n\n", status)

	sb.WriteString("## Issues\n\n")
	if len(issues) == 0 {
		sb.WriteString("- none\n")
	}
	for _, issue := range issues {
		fmt.Fprintf(&sb, "- `%s` %s\n", issue.Code, issue.Message)
	}

	sb.WriteString("\n## Next action\n\n")
	if len(issues) == 0 {
		sb.WriteString("- No action needed.\n")
	} else if action, ok := nextAction[skill]; ok {
		sb.WriteString("- " + action + "\n")
	} else {
		sb.WriteString("- Fix the artifacts named above and re-run the unit.\n")
	}

	if _, err := ws.WriteArtifact(workspace.FileQualityGate, []byte(sb.String())); err != nil {
		return fmt.Errorf("writing gate report: %w", err)
	}
	return nil
}

// issue is a terse constructor used throughout the checkers.
func issue(code, format string, args ...any) types.QualityIssue {
	return types.QualityIssue{Code: code, Message: fmt.Sprintf(format, args...)}
}
