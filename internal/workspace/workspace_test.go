// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/surveyforge/pkg/types"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := Init(t.TempDir())
	require.NoError(t, err)
	return ws
}

func writeWS(t *testing.T, ws *Workspace, rel, content string) {
	t.Helper()
	path := ws.Path(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWriteArtifactRotatesBackup(t *testing.T) {
	ws := newTestWorkspace(t)

	written, err := ws.WriteArtifact("outline/mapping.tsv", []byte("v1\n"))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = ws.WriteArtifact("outline/mapping.tsv", []byte("v2\n"))
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(ws.Path("outline/mapping.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(data))

	// The first version must survive as a .bak.* sibling.
	matches, err := filepath.Glob(ws.Path("outline/mapping.tsv") + ".bak.*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	backup, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "v1\n", string(backup))
}

func TestWriteArtifactRespectsFreezeMarker(t *testing.T) {
	ws := newTestWorkspace(t)

	writeWS(t, ws, "outline/outline.yml", "sections: []\n")
	writeWS(t, ws, "outline/outline.yml"+FreezeSuffix, "")

	written, err := ws.WriteArtifact("outline/outline.yml", []byte("overwritten\n"))
	require.NoError(t, err)
	assert.False(t, written)

	data, err := os.ReadFile(ws.Path("outline/outline.yml"))
	require.NoError(t, err)
	assert.Equal(t, "sections: []\n", string(data), "frozen artifact must stay byte-identical")
}

func TestWriteArtifactFrozenButEmptyStillWrites(t *testing.T) {
	ws := newTestWorkspace(t)

	// A freeze marker next to an empty artifact does not block the write:
	// there is nothing finalized to protect.
	writeWS(t, ws, "outline/outline.yml", "")
	writeWS(t, ws, "outline/outline.yml"+FreezeSuffix, "")

	written, err := ws.WriteArtifact("outline/outline.yml", []byte("content\n"))
	require.NoError(t, err)
	assert.True(t, written)
}

func TestPipelineName(t *testing.T) {
	ws := newTestWorkspace(t)
	writeWS(t, ws, FilePipelineLock, "pipeline: arxiv-survey\n")

	name, err := ws.PipelineName()
	require.NoError(t, err)
	assert.Equal(t, "arxiv-survey", name)
}

func TestLoadGoalSkipsMetadata(t *testing.T) {
	ws := newTestWorkspace(t)
	writeWS(t, ws, FileGoal, "# Goal\n\n<!-- edited by kickoff -->\nSurvey of tool-using LLM agents\n")

	goal, err := ws.LoadGoal()
	require.NoError(t, err)
	assert.Equal(t, "Survey of tool-using LLM agents", goal)
}

func TestApprovals(t *testing.T) {
	ws := newTestWorkspace(t)
	writeWS(t, ws, FileDecisions, `# Decisions

## Approvals

- [x] Approve C0
- [ ] Approve C1
- [X] Approve C2

## Notes

- [x] Approve C5 (outside the approvals section, ignored)
`)

	approvals, err := ws.Approvals()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"C0": true, "C1": false, "C2": true}, approvals)
}

func TestApprovalsMissingFile(t *testing.T) {
	ws := newTestWorkspace(t)
	approvals, err := ws.Approvals()
	require.NoError(t, err)
	assert.Empty(t, approvals)
}

func TestLoadQueries(t *testing.T) {
	ws := newTestWorkspace(t)
	writeWS(t, ws, FileQueries, `# Queries

- keywords:
  - llm agents
  - tool use
- exclude:
  - diffusion
- max_results: 200
- core_size: 60
- from: 2022-01
- to: 2025-06
- evidence_mode: abstract
- draft_profile: survey
`)

	q, err := ws.LoadQueries()
	require.NoError(t, err)
	assert.Equal(t, []string{"llm agents", "tool use"}, q.Keywords)
	assert.Equal(t, []string{"diffusion"}, q.Exclude)
	assert.Equal(t, 200, q.MaxResults)
	assert.Equal(t, 60, q.CoreSize)
	assert.Equal(t, "2022-01", q.From)
	assert.Equal(t, "2025-06", q.To)
	assert.Equal(t, "abstract", q.EvidenceMode)
	assert.Equal(t, types.ProfileSurvey, q.DraftProfile)
}

func TestLoadQueriesUnknownProfileFallsBack(t *testing.T) {
	ws := newTestWorkspace(t)
	writeWS(t, ws, FileQueries, "- draft_profile: turbo\n")

	q, err := ws.LoadQueries()
	require.NoError(t, err)
	assert.Equal(t, types.ProfileDefault, q.DraftProfile)
}

func TestAppendStatus(t *testing.T) {
	ws := newTestWorkspace(t)

	require.NoError(t, ws.AppendStatus("U01 notes-stage -> DONE", "C3"))
	require.NoError(t, ws.AppendStatus("U02 evidence-bank -> DOING", "C3"))

	data, err := os.ReadFile(ws.Path(FileStatus))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "## Run log")
	assert.Contains(t, content, "U01 notes-stage -> DONE")
	assert.Contains(t, content, "U02 evidence-bank -> DOING")
	assert.Contains(t, content, "## Current checkpoint")
	assert.Contains(t, content, "- C3")
}

func TestJSONLRoundTrip(t *testing.T) {
	ws := newTestWorkspace(t)

	items := []types.EvidenceItem{
		{EvidenceID: "E-P0001-aaaaaaaaaa", PaperID: "P0001", ClaimType: types.ClaimMethod, Snippet: "uses a planner-executor split for tool calls"},
		{EvidenceID: "E-P0002-bbbbbbbbbb", PaperID: "P0002", ClaimType: types.ClaimResult, Snippet: "improves pass@1 by 12 points on the agent benchmark"},
	}

	written, err := WriteJSONL(ws, FileEvidenceBank, items)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := ReadJSONL[types.EvidenceItem](ws, FileEvidenceBank)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestReadJSONLSkipsBlankLines(t *testing.T) {
	ws := newTestWorkspace(t)
	writeWS(t, ws, FilePaperNotes, `{"paper_id":"P0001","title":"A","bibkey":"A2024","evidence_level":"abstract"}

{"paper_id":"P0002","title":"B","bibkey":"B2024","evidence_level":"fulltext"}
`)

	notes, err := ReadJSONL[types.PaperNote](ws, FilePaperNotes)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "P0002", notes[1].PaperID)
}

func TestReadJSONLReportsBadLine(t *testing.T) {
	ws := newTestWorkspace(t)
	writeWS(t, ws, FilePaperNotes, "{\"paper_id\":\"P0001\"}\nnot json\n")

	_, err := ReadJSONL[types.PaperNote](ws, FilePaperNotes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
