// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pack

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/surveyforge/internal/bibtex"
	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/pkg/types"
)

func testBib(t *testing.T) bibtex.Index {
	t.Helper()
	idx, _, err := bibtex.BuildIndex(`
@article{Smith2024Tool, title = {T}, year = {2024}}
@misc{Doe2023Survey, title = {S}, year = {2023}}
@article{Lee2024Bench, title = {B}, year = {2024}}
`)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func snip(text string, keys ...string) types.PackSnippet {
	return types.PackSnippet{Text: text, Citations: keys}
}

func testInputs(t *testing.T) Inputs {
	t.Helper()
	subs := []outline.Subsection{
		{SubID: "4.1", SectionID: "4", Title: "Planning"},
		{SubID: "4.2", SectionID: "4", Title: "Feedback"},
		{SubID: "5.1", SectionID: "5", Title: "Benchmarks"},
	}
	return Inputs{
		Subs: subs,
		Briefs: []types.SubsectionBrief{
			{SubID: "4.1", RQ: "How do agents plan?", Axes: []string{"depth"}},
			{SubID: "4.2", RQ: "How is feedback used?"},
			{SubID: "5.1", RQ: "How are agents evaluated?"},
		},
		Chapters: []types.ChapterBrief{
			{SectionID: "4", Throughline: []string{"from plans to feedback"}, KeyContrasts: []string{"depth"}},
			{SectionID: "5"},
		},
		Bindings: []types.EvidenceBinding{
			{SubID: "4.1", MappedBibkeys: []string{"Smith2024Tool", "Lee2024Bench"}, Bibkeys: []string{"Smith2024Tool"}, EvidenceIDs: []string{"E-P1-aaaaaaaaaa"}},
			{SubID: "4.2", MappedBibkeys: []string{"Doe2023Survey", "Lee2024Bench"}, Bibkeys: []string{"Doe2023Survey"}},
			{SubID: "5.1", MappedBibkeys: []string{"Lee2024Bench"}, Bibkeys: []string{"Lee2024Bench"}},
		},
		Sheet: []types.AnchorSheetEntry{
			{SubID: "4.1", Anchors: []types.Anchor{
				{HookType: types.HookQuant, Text: "improves accuracy by 12 points", Citations: []string{"@Smith2024Tool"}},
				{HookType: types.HookEval, Text: "evaluated on AgentBench", Citations: []string{"@Ghost2020"}},
			}},
		},
		Drafts: []types.EvidencePack{
			{
				SubID: "4.1",
				ConcreteComparisons: []types.Comparison{
					{Axis: "depth", ALabel: "shallow", BLabel: "deep",
						AHighlights: []types.PackSnippet{snip("one-step lookahead suffices", "@Smith2024Tool")},
						BHighlights: []types.PackSnippet{snip("tree search wins on long tasks", "@Lee2024Bench")},
						WritePrompt: "contrast shallow and deep planners"},
					{Axis: "", AHighlights: []types.PackSnippet{snip("axis-less comparison", "@Smith2024Tool")}},
					{Axis: "cost", AHighlights: []types.PackSnippet{snip("uncited highlight", "@Ghost2020")}},
				},
				EvaluationProtocol:  []types.PackSnippet{snip("held-out benchmark split", "@Doe2023Survey")},
				FailuresLimitations: []types.PackSnippet{snip("fails on long-horizon tasks", "@Lee2024Bench")},
			},
		},
		Bib: testBib(t),
	}
}

func packByID(t *testing.T, packs []types.WriterContextPack, subID string) types.WriterContextPack {
	t.Helper()
	for _, p := range packs {
		if p.SubID == subID {
			return p
		}
	}
	t.Fatalf("no pack for %s", subID)
	return types.WriterContextPack{}
}

func TestBuildAllowedSets(t *testing.T) {
	// Global threshold 3: Lee2024Bench is mapped in all three subsections
	// and becomes globally citable; the others stay local.
	th := types.ThresholdsFor(types.ProfileDefault)
	packs := Build(testInputs(t), th)
	if len(packs) != 3 {
		t.Fatalf("got %d packs, want 3", len(packs))
	}

	p := packByID(t, packs, "4.1")
	if !reflect.DeepEqual(p.AllowedBibkeysSelected, []string{"Smith2024Tool"}) {
		t.Errorf("selected = %v", p.AllowedBibkeysSelected)
	}
	if !reflect.DeepEqual(p.AllowedBibkeysMapped, []string{"Smith2024Tool", "Lee2024Bench"}) {
		t.Errorf("mapped = %v", p.AllowedBibkeysMapped)
	}
	if !reflect.DeepEqual(p.AllowedBibkeysChapter, []string{"Doe2023Survey", "Lee2024Bench", "Smith2024Tool"}) {
		t.Errorf("chapter union = %v", p.AllowedBibkeysChapter)
	}
	if !reflect.DeepEqual(p.AllowedBibkeysGlobal, []string{"Lee2024Bench"}) {
		t.Errorf("global = %v", p.AllowedBibkeysGlobal)
	}

	// 5.1 sits alone in its chapter.
	q := packByID(t, packs, "5.1")
	if !reflect.DeepEqual(q.AllowedBibkeysChapter, []string{"Lee2024Bench"}) {
		t.Errorf("5.1 chapter union = %v", q.AllowedBibkeysChapter)
	}
}

func TestBuildAnchorFiltering(t *testing.T) {
	th := types.ThresholdsFor(types.ProfileDefault)
	packs := Build(testInputs(t), th)
	p := packByID(t, packs, "4.1")

	// The @Ghost2020 anchor has no valid citation left and is dropped.
	if len(p.AnchorFacts) != 1 {
		t.Fatalf("anchor_facts = %+v", p.AnchorFacts)
	}
	if p.AnchorFacts[0].HookType != types.HookQuant {
		t.Errorf("kept anchor = %+v", p.AnchorFacts[0])
	}

	stats := p.PackStats["anchors"]
	if stats.Raw != 2 || stats.Considered != 2 || stats.Kept != 1 || stats.Dropped != 1 {
		t.Errorf("anchor stats = %+v", stats)
	}
}

func TestBuildComparisonCards(t *testing.T) {
	th := types.ThresholdsFor(types.ProfileDefault)
	packs := Build(testInputs(t), th)
	p := packByID(t, packs, "4.1")

	// Axis-less card and card with only invalid citations are both dropped.
	if len(p.ComparisonCards) != 1 {
		t.Fatalf("cards = %+v", p.ComparisonCards)
	}
	card := p.ComparisonCards[0]
	if card.Axis != "depth" || len(card.AHighlights) != 1 || len(card.BHighlights) != 1 {
		t.Errorf("card = %+v", card)
	}
	if stats := p.PackStats["comparisons"]; stats.Kept != 1 || stats.Dropped != 2 {
		t.Errorf("comparison stats = %+v", stats)
	}
}

func TestBuildAnchorKeepCap(t *testing.T) {
	in := testInputs(t)
	var anchors []types.Anchor
	for i := 0; i < 20; i++ {
		anchors = append(anchors, types.Anchor{
			HookType:  types.HookEval,
			Text:      fmt.Sprintf("distinct anchor fact number %d", i),
			Citations: []string{"@Smith2024Tool"},
		})
	}
	in.Sheet = []types.AnchorSheetEntry{{SubID: "4.1", Anchors: anchors}}

	th := types.ThresholdsFor(types.ProfileDefault) // pool 16, keep 8
	p := packByID(t, Build(in, th), "4.1")
	if len(p.AnchorFacts) != th.AnchorKeep {
		t.Errorf("kept %d anchors, want %d", len(p.AnchorFacts), th.AnchorKeep)
	}
	if stats := p.PackStats["anchors"]; stats.Considered != th.AnchorPool {
		t.Errorf("considered %d, want pool %d", stats.Considered, th.AnchorPool)
	}
}

func TestBuildTrimsLongFacts(t *testing.T) {
	in := testInputs(t)
	long := strings.Repeat("very long evaluation protocol detail ", 20) // ~740 chars
	in.Drafts[0].EvaluationProtocol = []types.PackSnippet{snip(long, "@Doe2023Survey")}

	th := types.ThresholdsFor(types.ProfileDefault)
	p := packByID(t, Build(in, th), "4.1")
	if len(p.EvaluationProtocol) != 1 {
		t.Fatalf("evaluation_protocol = %+v", p.EvaluationProtocol)
	}
	if got := len([]rune(p.EvaluationProtocol[0].Text)); got > factTrimLen {
		t.Errorf("text length = %d, want <= %d", got, factTrimLen)
	}
}

func TestBuildWarningsOnThinPacks(t *testing.T) {
	th := types.ThresholdsFor(types.ProfileDefault)
	packs := Build(testInputs(t), th)

	// 4.2 has no anchors, cards, eval bullets, or limitation hooks.
	p := packByID(t, packs, "4.2")
	want := map[string]bool{
		"pack_missing_thesis":        true,
		"pack_no_evaluation_bullets": true,
		"pack_no_limitation_hooks":   true,
	}
	got := make(map[string]bool)
	for _, w := range p.PackWarnings {
		got[strings.SplitN(w, ":", 2)[0]] = true
	}
	for w := range want {
		if !got[w] {
			t.Errorf("missing warning %s in %v", w, p.PackWarnings)
		}
	}
	if got["pack_missing_rq"] {
		t.Error("4.2 has an RQ; pack_missing_rq must not fire")
	}
}

func TestBuildMustUseFromProfile(t *testing.T) {
	th := types.ThresholdsFor(types.ProfileDeep)
	p := packByID(t, Build(testInputs(t), th), "4.1")
	if p.MustUse.Anchors != th.MustUseAnchors || p.MustUse.Comparisons != th.MustUseComparisons || p.MustUse.Limitations != th.MustUseLimitations {
		t.Errorf("must_use = %+v", p.MustUse)
	}
	if !p.MustUse.ThesisRequired || !p.MustUse.RequireMultiCiteSynthesisParagraph {
		t.Errorf("boolean obligations = %+v", p.MustUse)
	}
}

func TestBuildCarriesBriefAndChapterContext(t *testing.T) {
	th := types.ThresholdsFor(types.ProfileDefault)
	p := packByID(t, Build(testInputs(t), th), "4.1")
	if p.RQ != "How do agents plan?" {
		t.Errorf("rq = %q", p.RQ)
	}
	if !reflect.DeepEqual(p.ChapterThroughline, []string{"from plans to feedback"}) {
		t.Errorf("throughline = %v", p.ChapterThroughline)
	}
	if len(p.DoNotRepeatPhrases) == 0 {
		t.Error("do_not_repeat_phrases must be populated")
	}
}
