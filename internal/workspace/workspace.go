// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace models the on-disk pipeline workspace: well-known
// artifact paths, workspace-level configuration files, approval state,
// freeze markers, and atomic artifact writes with backup rotation.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Well-known workspace files, relative to the workspace root.
const (
	FileUnits        = "UNITS.csv"
	FileStatus       = "STATUS.md"
	FileDecisions    = "DECISIONS.md"
	FileGoal         = "GOAL.md"
	FileQueries      = "queries.md"
	FilePipelineLock = "PIPELINE.lock.md"

	FileCoreSet      = "papers/core_set.csv"
	FilePaperNotes   = "papers/paper_notes.jsonl"
	FileEvidenceBank = "papers/evidence_bank.jsonl"

	FileRefBib   = "citations/ref.bib"
	FileVerified = "citations/verified.jsonl"

	FileOutline          = "outline/outline.yml"
	FileMapping          = "outline/mapping.tsv"
	FileSubsectionBriefs = "outline/subsection_briefs.jsonl"
	FileChapterBriefs    = "outline/chapter_briefs.jsonl"
	FileEvidenceDrafts   = "outline/evidence_drafts.jsonl"
	FileAnchorSheet      = "outline/anchor_sheet.jsonl"
	FileBindings         = "outline/evidence_bindings.jsonl"
	FileWriterPacks      = "outline/writer_context_packs.jsonl"

	FileSectionsManifest = "sections/sections_manifest.jsonl"

	FileDraft             = "output/DRAFT.md"
	FileMergeReport       = "output/MERGE_REPORT.md"
	FileQualityGate       = "output/QUALITY_GATE.md"
	FileAuditReport       = "output/AUDIT_REPORT.md"
	FileLatexBuildReport  = "output/LATEX_BUILD_REPORT.md"
	FileContractReport    = "output/CONTRACT_REPORT.md"
	FileCitationBudget    = "output/CITATION_BUDGET_REPORT.md"
	FileCitationInjection = "output/CITATION_INJECTION_REPORT.md"
	FileWriterSelfloop    = "output/WRITER_SELFLOOP_TODO.md"
)

// FreezeSuffix marks a finalized artifact: a sibling <artifact>.refined.ok
// file disables regeneration.
const FreezeSuffix = ".refined.ok"

// Dirs lists the subdirectories a workspace is expected to contain.
var Dirs = []string{"papers", "citations", "outline", "sections", "output", "index"}

// Workspace is a handle on one pipeline workspace directory.
type Workspace struct {
	Dir string
}

// Open returns a Workspace rooted at dir. The directory must exist.
func Open(dir string) (*Workspace, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening workspace: %s is not a directory", dir)
	}
	return &Workspace{Dir: dir}, nil
}

// Init creates the expected subdirectories under dir and returns the
// workspace handle.
func Init(dir string) (*Workspace, error) {
	for _, d := range Dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return &Workspace{Dir: dir}, nil
}

// Path resolves a workspace-relative path to an absolute one.
func (ws *Workspace) Path(rel string) string {
	return filepath.Join(ws.Dir, filepath.FromSlash(rel))
}

// Exists reports whether the workspace-relative file exists and is non-empty.
func (ws *Workspace) Exists(rel string) bool {
	info, err := os.Stat(ws.Path(rel))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Frozen reports whether a sibling .refined.ok marker exists for the
// workspace-relative artifact path.
func (ws *Workspace) Frozen(rel string) bool {
	_, err := os.Stat(ws.Path(rel) + FreezeSuffix)
	return err == nil
}

// WriteArtifact atomically writes data to the workspace-relative path.
// A frozen non-empty artifact is left byte-identical and the call reports
// written=false. A pre-existing non-empty artifact is rotated to a
// timestamped .bak.* sibling before the rename.
func (ws *Workspace) WriteArtifact(rel string, data []byte) (written bool, err error) {
	target := ws.Path(rel)

	if ws.Frozen(rel) && ws.Exists(rel) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", rel, err)
	}

	if info, statErr := os.Stat(target); statErr == nil && info.Size() > 0 {
		backup := fmt.Sprintf("%s.bak.%s", target, time.Now().UTC().Format("20060102T150405"))
		if err := os.Rename(target, backup); err != nil {
			return false, fmt.Errorf("rotating %s: %w", rel, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp*")
	if err != nil {
		return false, fmt.Errorf("creating temp file for %s: %w", rel, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("closing temp file for %s: %w", rel, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("renaming into %s: %w", rel, err)
	}
	return true, nil
}

// PipelineName reads the pipeline name from PIPELINE.lock.md
// (single line "pipeline: <name>").
func (ws *Workspace) PipelineName() (string, error) {
	data, err := os.ReadFile(ws.Path(FilePipelineLock))
	if err != nil {
		return "", fmt.Errorf("reading pipeline lock: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "pipeline:"); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("pipeline lock %s has no pipeline line", FilePipelineLock)
}

// LoadGoal returns the first non-metadata line of GOAL.md: the free-text
// one-line research goal.
func (ws *Workspace) LoadGoal() (string, error) {
	data, err := os.ReadFile(ws.Path(FileGoal))
	if err != nil {
		return "", fmt.Errorf("reading goal: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "<!--") {
			continue
		}
		return line, nil
	}
	return "", fmt.Errorf("goal file %s has no content line", FileGoal)
}

// approvalRe matches approval checkboxes in DECISIONS.md, e.g.
// "- [x] Approve C2" or "- [ ] Approve C0".
var approvalRe = regexp.MustCompile(`^-\s*\[([ xX])\]\s*Approve\s+(C\d+)\b`)

// Approvals parses the "## Approvals" section of DECISIONS.md and returns
// checkpoint → approved. A missing DECISIONS.md yields an empty map.
func (ws *Workspace) Approvals() (map[string]bool, error) {
	data, err := os.ReadFile(ws.Path(FileDecisions))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("reading decisions: %w", err)
	}

	approvals := make(map[string]bool)
	inSection := false
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			inSection = strings.EqualFold(trimmed, "## Approvals")
			continue
		}
		if !inSection {
			continue
		}
		if m := approvalRe.FindStringSubmatch(trimmed); m != nil {
			approvals[m[2]] = m[1] != " "
		}
	}
	return approvals, nil
}

// AppendStatus appends a timestamped line to the "## Run log" section of
// STATUS.md, creating the file if needed, and rewrites the
// "## Current checkpoint" section to the given checkpoint.
func (ws *Workspace) AppendStatus(line, checkpoint string) error {
	path := ws.Path(FileStatus)

	var runLog []string
	if data, err := os.ReadFile(path); err == nil {
		inLog := false
		for _, l := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(l)
			if strings.HasPrefix(trimmed, "## ") {
				inLog = strings.EqualFold(trimmed, "## Run log")
				continue
			}
			if inLog && strings.HasPrefix(trimmed, "- ") {
				runLog = append(runLog, trimmed)
			}
		}
	}

	stamp := time.Now().UTC().Format(time.RFC3339)
	runLog = append(runLog, fmt.Sprintf("- %s %s", stamp, line))

	var sb strings.Builder
	sb.WriteString("# STATUS\n\n## Run log\n\n")
	for _, l := range runLog {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n## Current checkpoint\n\n")
	sb.WriteString("- " + checkpoint + "\n")

	tmp, err := os.CreateTemp(ws.Dir, ".STATUS.md.tmp*")
	if err != nil {
		return fmt.Errorf("creating temp status file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing status file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming status file: %w", err)
	}
	return nil
}
