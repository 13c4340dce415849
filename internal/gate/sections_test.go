// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gate

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// Mapped key sets for the two fixture subsections. Both are large enough
// to clear the lite profile's unique-citation floor.
var (
	keys41 = []string{"A", "B", "C", "F", "G", "H", "I"}
	keys42 = []string{"D", "E", "J", "K", "L", "M", "N"}
)

// goodBody builds an H3 body that satisfies the lite-profile writer
// contract using the given citation keys.
func goodBody(keys []string) string {
	cite := func(i int) string { return fmt.Sprintf("[@%s]", keys[i%len(keys)]) }

	var sb strings.Builder
	filler := func(p int) string {
		var f strings.Builder
		for i := 0; i < 8; i++ {
			fmt.Fprintf(&f, "The surveyed systems differ in how they decompose tasks, recover from errors, and report outcomes in configuration %d of study %d. ", i, p)
		}
		return f.String()
	}
	for p := 0; p < 8; p++ {
		switch p {
		case 0:
			sb.WriteString("Planner-centric agents decompose tasks up front, whereas reactive agents interleave acting and reading feedback ")
			sb.WriteString(cite(0) + " " + cite(1) + ". " + filler(p))
		case 1:
			sb.WriteString("On the AgentBench benchmark, tool-selection accuracy improves by 12 points under schema constraints ")
			sb.WriteString(cite(2) + ". " + filler(p))
		case 2:
			sb.WriteString("These evaluations remain limited to short-horizon tasks, however, and the reported protocol omits failure cases ")
			sb.WriteString(cite(3) + ". " + filler(p))
		default:
			sb.WriteString(fmt.Sprintf("Further work examines the same dataset from a different angle with deliberately varied paragraph %d content ", p))
			sb.WriteString(cite(p) + ". " + filler(p))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// sectionsFixture writes a two-subsection workspace: 4.1 and 4.2 map
// disjoint seven-key sets, and no key clears the global threshold.
func sectionsFixture(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := newWS(t)
	write(t, ws, workspace.FileOutline, twoSubOutline)

	var bib strings.Builder
	for _, key := range append(append([]string(nil), keys41...), keys42...) {
		fmt.Fprintf(&bib, "@misc{%s, title = {%s}, year = {2024}}\n", key, key)
	}
	write(t, ws, workspace.FileRefBib, bib.String())

	writeJSONL(t, ws, workspace.FileBindings,
		types.EvidenceBinding{SubID: "4.1", MappedBibkeys: keys41},
		types.EvidenceBinding{SubID: "4.2", MappedBibkeys: keys42},
	)

	write(t, ws, "sections/abstract.md", "An abstract.")
	write(t, ws, "sections/discussion.md", "A discussion.")
	write(t, ws, "sections/conclusion.md", "A conclusion.")
	write(t, ws, "sections/S4_lead.md", "A chapter lead.")
	write(t, ws, "sections/S4_1.md", goodBody(keys41))
	write(t, ws, "sections/S4_2.md", goodBody(keys42))
	return ws
}

func liteCtx(ws *workspace.Workspace) *Context {
	return ctx(ws, types.ProfileLite)
}

func TestSectionsCleanPass(t *testing.T) {
	ws := sectionsFixture(t)
	if issues := checkSections(liteCtx(ws)); len(issues) != 0 {
		t.Fatalf("clean fixture must pass, got %+v", issues)
	}
}

// uncitedPara builds a unique long paragraph with no citations.
func uncitedPara(n int) string {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&sb, "Survey pass %d sentence %d walks through how these systems schedule tool calls, cache intermediate results, and replay failed trajectories. ", n, i)
	}
	return sb.String()
}

func TestSectionsUncitedLongParagraphs(t *testing.T) {
	t.Run("within tolerance", func(t *testing.T) {
		ws := sectionsFixture(t)
		// One uncited long paragraph among nine; the table block does not
		// count toward the ratio.
		body := goodBody(keys41) + uncitedPara(0) + "\n\n| system | benchmark |\n|---|---|\n\n"
		write(t, ws, "sections/S4_1.md", body)

		if issues := checkSections(liteCtx(ws)); hasCode(issues, "sections_uncited_paragraphs") {
			t.Fatalf("one of nine uncited is within tolerance, got %+v", issues)
		}
	})

	t.Run("over tolerance", func(t *testing.T) {
		ws := sectionsFixture(t)
		body := goodBody(keys41)
		for n := 0; n < 6; n++ {
			body += uncitedPara(n) + "\n\n"
		}
		write(t, ws, "sections/S4_1.md", body)

		issues := checkSections(liteCtx(ws))
		if !hasCode(issues, "sections_uncited_paragraphs") {
			t.Fatalf("six of fourteen long paragraphs uncited must fail, got %+v", issues)
		}
	})
}

func TestSectionsUnicodeEllipsisBlocks(t *testing.T) {
	ws := sectionsFixture(t)
	body := goodBody(keys41) + "\nThe rest follows…\n"
	write(t, ws, "sections/S4_1.md", body)

	issues := checkSections(liteCtx(ws))
	if !hasCode(issues, "sections_contains_placeholders") {
		t.Fatalf("issues = %+v", issues)
	}

	// The executor path persists the exact code in the gate report.
	runIssues, err := Run(SkillSections, ws, nil, true, types.ProfileLite)
	if err != nil {
		t.Fatal(err)
	}
	if !hasCode(runIssues, "sections_contains_placeholders") {
		t.Fatalf("run issues = %+v", runIssues)
	}
	report, _ := os.ReadFile(ws.Path(workspace.FileQualityGate))
	if !strings.Contains(string(report), "sections_contains_placeholders") {
		t.Errorf("report must list the code:\n%s", report)
	}
}

func TestSectionsCitesOutsideMapping(t *testing.T) {
	ws := sectionsFixture(t)
	var bib strings.Builder
	for _, key := range append(append(append([]string(nil), keys41...), keys42...), "Z") {
		fmt.Fprintf(&bib, "@misc{%s, title = {%s}, year = {2024}}\n", key, key)
	}
	write(t, ws, workspace.FileRefBib, bib.String())
	write(t, ws, "sections/S4_1.md", goodBody([]string{"A", "B", "C", "Z"}))

	issues := checkSections(liteCtx(ws))
	found := false
	for _, i := range issues {
		if i.Code == "sections_cites_outside_mapping" {
			found = true
			if !strings.Contains(i.Message, "Z") || !strings.Contains(i.Message, "4.1") {
				t.Errorf("message must name the key and sub_id: %s", i.Message)
			}
		}
	}
	if !found {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestSectionsChapterReuseIsInScope(t *testing.T) {
	// D is outside 4.1's mapped set but inside the chapter union, so it
	// must not trip the scope gate.
	ws := sectionsFixture(t)
	write(t, ws, "sections/S4_1.md", goodBody([]string{"A", "B", "C", "D"}))

	for _, i := range checkSections(liteCtx(ws)) {
		if i.Code == "sections_cites_outside_mapping" {
			t.Errorf("chapter-union key flagged: %s", i.Message)
		}
	}
}

func TestSectionsSubsectionSpecificMinimum(t *testing.T) {
	// Chapter reuse is active; a body citing only sibling keys fails the
	// 2-subsection-specific-citations floor.
	ws := sectionsFixture(t)
	write(t, ws, "sections/S4_1.md", goodBody(keys42))

	issues := checkSections(liteCtx(ws))
	if !hasCode(issues, "sections_too_few_subsection_cites") {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestSectionsMissingFileAndHeadings(t *testing.T) {
	ws := sectionsFixture(t)
	if err := os.Remove(ws.Path("sections/S4_2.md")); err != nil {
		t.Fatal(err)
	}
	write(t, ws, "sections/S4_1.md", "## A heading\n\n"+goodBody(keys41))

	issues := checkSections(liteCtx(ws))
	if !hasCode(issues, "sections_missing_file") {
		t.Errorf("missing S4_2.md not flagged: %+v", issues)
	}
	if !hasCode(issues, "sections_contains_headings") {
		t.Errorf("heading not flagged: %+v", issues)
	}
}

func TestSectionsOutlineMetaLeak(t *testing.T) {
	ws := sectionsFixture(t)
	write(t, ws, "sections/S4_1.md", "RQ: how do agents plan?\n\n"+goodBody(keys41))

	issues := checkSections(liteCtx(ws))
	if !hasCode(issues, "sections_contains_outline_meta") {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestSectionsNumericRequirement(t *testing.T) {
	ws := sectionsFixture(t)
	writeJSONL(t, ws, workspace.FileEvidenceDrafts,
		types.EvidencePack{SubID: "4.1", ClaimCandidates: []types.PackSnippet{
			{Text: "improves accuracy by 12 points", Citations: []string{"@A"}},
		}},
	)

	// Replace every digit so no paragraph carries a cited number.
	body := goodBody(keys41)
	for _, d := range "0123456789" {
		body = strings.ReplaceAll(body, string(d), "twelve")
	}
	write(t, ws, "sections/S4_1.md", body)

	issues := checkSections(liteCtx(ws))
	if !hasCode(issues, "sections_missing_cited_numeric") {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestCheckDraft(t *testing.T) {
	ws := sectionsFixture(t)

	intro := strings.Repeat("This survey reviews tool-using agents across planning, feedback, and evaluation practice. ", 20)
	body := goodBody(keys41) + goodBody(keys42)
	write(t, ws, workspace.FileDraft,
		"# Survey\n\n## Introduction\n\n"+intro+"[@A]\n\n"+body+"\n## Discussion\n\nDiscussion text [@B].\n\n## Conclusion\n\nConclusion text [@C].\n")

	issues := checkDraft(ctx(ws, types.ProfileLite))
	// All 14 bib keys are cited, so the budget caps at the bib size and
	// stays quiet; headings are present.
	if hasCode(issues, "draft_missing_headings") {
		t.Errorf("headings present but flagged: %+v", issues)
	}
	if hasCode(issues, "draft_cites_missing_in_bib") {
		t.Errorf("all keys are in the bib: %+v", issues)
	}
	if hasCode(issues, "draft_too_few_citations") {
		t.Errorf("floor caps at bib size 5: %+v", issues)
	}
}

func TestCheckDraftFailures(t *testing.T) {
	ws := sectionsFixture(t)
	uncited := strings.Repeat("A long enough uncited paragraph that counts as substantive content for the ratio. ", 2)
	write(t, ws, workspace.FileDraft,
		"# Survey\n\nShort intro [@A].\n\n"+uncited+"\n\n"+uncited+"\n\n"+uncited+"\n\nCited one [@Ghost2020].\n")

	issues := checkDraft(ctx(ws, types.ProfileLite))
	for _, want := range []string{
		"draft_missing_headings",
		"draft_cites_missing_in_bib",
		"draft_too_few_citations",
		"draft_uncited_paragraphs",
	} {
		if !hasCode(issues, want) {
			t.Errorf("missing %s in %+v", want, issues)
		}
	}
}
