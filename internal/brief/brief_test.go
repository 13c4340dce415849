// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"strings"
	"testing"

	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/pkg/types"
)

func testNotes() map[string]types.PaperNote {
	return map[string]types.PaperNote{
		"P0001": {PaperID: "P0001", Title: "AgentBench: Evaluating Agents", Year: 2024, EvidenceLevel: types.LevelFulltext},
		"P0002": {PaperID: "P0002", Title: "Benchmark Suites for Tool Use", Year: 2023, EvidenceLevel: types.LevelAbstract},
		"P0003": {PaperID: "P0003", Title: "Planning with Feedback", Year: 2024, EvidenceLevel: types.LevelAbstract},
		"P0004": {PaperID: "P0004", Title: "Self-Correction in Agents", Year: 2022, EvidenceLevel: types.LevelTitle},
	}
}

func testSub() outline.Subsection {
	return outline.Subsection{
		SubID: "4.1", Title: "Planning", SectionID: "4", SectionTitle: "Tool Use",
		Bullets: []string{
			"Intent: frame planner-executor splits",
			"RQ: how do agents decide which tool to call?",
			"Evidence needs: benchmark results; ablations",
			"Comparison axes: planning depth, feedback use",
		},
	}
}

func TestBuildSubsectionBriefs(t *testing.T) {
	mapped := map[string][]string{"4.1": {"P0001", "P0002", "P0003", "P0004"}}
	briefs := BuildSubsectionBriefs([]outline.Subsection{testSub()}, mapped, testNotes(),
		"Survey of tool-using LLM agents", []string{"diffusion"})

	if len(briefs) != 1 {
		t.Fatalf("got %d briefs", len(briefs))
	}
	b := briefs[0]

	if b.RQ != "how do agents decide which tool to call?" {
		t.Errorf("RQ = %q", b.RQ)
	}

	// Axes merge evidence needs and comparison axes, capped at 5.
	if len(b.Axes) > 5 {
		t.Errorf("axes = %v, exceeds cap", b.Axes)
	}
	if b.Axes[0] != "benchmark results" || b.Axes[1] != "ablations" {
		t.Errorf("axes = %v", b.Axes)
	}

	// Two evaluation-titled papers form a cluster; the rest falls through.
	if len(b.Clusters) < 2 {
		t.Fatalf("clusters = %+v, want at least 2", b.Clusters)
	}

	if len(b.ParagraphPlan) != 3 {
		t.Fatalf("paragraph plan length = %d", len(b.ParagraphPlan))
	}
	if b.ParagraphPlan[0].Intent != "scope-and-thesis" {
		t.Errorf("para 1 intent = %s", b.ParagraphPlan[0].Intent)
	}
	if b.ParagraphPlan[0].Policy != "" {
		t.Error("fulltext evidence present; plan must not be provisional")
	}

	if b.EvidenceLevelSummary[types.LevelFulltext] != 1 ||
		b.EvidenceLevelSummary[types.LevelAbstract] != 2 ||
		b.EvidenceLevelSummary[types.LevelTitle] != 1 {
		t.Errorf("evidence level summary = %v", b.EvidenceLevelSummary)
	}

	if len(b.ScopeRule.Exclude) == 0 || b.ScopeRule.Exclude[0] != "diffusion" {
		t.Errorf("scope exclude = %v", b.ScopeRule.Exclude)
	}
}

func TestBuildSubsectionBriefsFallbacks(t *testing.T) {
	sub := outline.Subsection{SubID: "4.2", Title: "Execution", SectionID: "4"}
	notes := testNotes()
	mapped := map[string][]string{"4.2": {"P0002", "P0003", "P0004"}}

	briefs := BuildSubsectionBriefs([]outline.Subsection{sub}, mapped, notes, "goal", nil)
	b := briefs[0]

	if !strings.Contains(b.RQ, "execution") {
		t.Errorf("fallback RQ = %q", b.RQ)
	}
	if len(b.Axes) == 0 {
		t.Error("default axes expected when bullets are empty")
	}

	// No fulltext evidence among P0002-P0004: every paragraph is provisional.
	for _, p := range b.ParagraphPlan {
		if p.Policy != "provisional" {
			t.Errorf("para %d policy = %q, want provisional", p.Para, p.Policy)
		}
	}

	// Recency fallback keeps two clusters.
	if len(b.Clusters) != 2 {
		t.Fatalf("clusters = %+v", b.Clusters)
	}
	if b.Clusters[0].Label != "recent work" || b.Clusters[1].Label != "earlier work" {
		t.Errorf("cluster labels = %s / %s", b.Clusters[0].Label, b.Clusters[1].Label)
	}
}

func TestBuildChapterBriefs(t *testing.T) {
	o := &types.Outline{Sections: []types.OutlineSection{
		{
			ID: "4", Title: "Tool Use",
			Bullets: []string{"Scope: how agents call external tools"},
			Subsections: []types.OutlineSubsection{
				{ID: "4.1", Title: "Agent Planning Methods"},
				{ID: "4.2", Title: "Agent Execution Methods"},
			},
		},
		{ID: "9", Title: "Empty Chapter"},
	}}
	subBriefs := []types.SubsectionBrief{
		{SubID: "4.1", RQ: "how is planning done?", Axes: []string{"planning depth"}},
		{SubID: "4.2", RQ: "how is execution done?", Axes: []string{"failure handling"}},
	}

	chapters := BuildChapterBriefs(o, subBriefs)
	if len(chapters) != 1 {
		t.Fatalf("got %d chapters; sections without subsections are skipped", len(chapters))
	}
	c := chapters[0]

	if c.Throughline[0] != "how agents call external tools" {
		t.Errorf("throughline = %v", c.Throughline)
	}
	if len(c.Throughline) < 2 || len(c.Throughline) > 6 {
		t.Errorf("throughline length = %d", len(c.Throughline))
	}
	if len(c.KeyContrasts) != 2 {
		t.Errorf("key contrasts = %v", c.KeyContrasts)
	}
	if len(c.LeadParagraphPlan) != 2 {
		t.Errorf("lead plan = %v", c.LeadParagraphPlan)
	}

	// "agent" and "methods" appear in both subsection titles.
	wantTerms := map[string]bool{"agent": true, "methods": true}
	for _, term := range c.BridgeTerms {
		if !wantTerms[term] {
			t.Errorf("unexpected bridge term %q", term)
		}
		delete(wantTerms, term)
	}
	if len(wantTerms) != 0 {
		t.Errorf("missing bridge terms: %v", wantTerms)
	}
}
