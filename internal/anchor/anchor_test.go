// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anchor

import (
	"strings"
	"testing"

	"github.com/pdiddy/surveyforge/internal/bibtex"
	"github.com/pdiddy/surveyforge/pkg/types"
)

func testBib(t *testing.T) bibtex.Index {
	t.Helper()
	idx, _, err := bibtex.BuildIndex(`
@article{Smith2024Tool, title = {T}, year = {2024}}
@misc{Doe2023Survey, title = {S}, year = {2023}}
`)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestBuildTrimAndDedupe(t *testing.T) {
	long := strings.Repeat("measured 37 points of improvement across tasks ", 10) // ~470 chars
	pack := types.EvidencePack{
		SubID: "4.2",
		ConcreteComparisons: []types.Comparison{
			{
				Axis: "accuracy",
				AHighlights: []types.PackSnippet{
					{Text: long, Citations: []string{"@Smith2024Tool"}},
					{Text: long, Citations: []string{"@Smith2024Tool"}}, // exact duplicate
				},
			},
		},
		EvaluationProtocol: []types.PackSnippet{
			{Text: "Evaluated on a held-out benchmark split", Citations: []string{"@Doe2023Survey"}},
		},
	}

	entries := Build([]types.EvidencePack{pack}, testBib(t))
	if len(entries) != 1 || entries[0].SubID != "4.2" {
		t.Fatalf("entries = %+v", entries)
	}
	anchors := entries[0].Anchors

	// One deduped quant anchor plus one eval anchor.
	if len(anchors) != 2 {
		t.Fatalf("got %d anchors, want 2: %+v", len(anchors), anchors)
	}
	if anchors[0].HookType != types.HookQuant {
		t.Errorf("first anchor hook = %s, want quant", anchors[0].HookType)
	}
	if got := len([]rune(anchors[0].Text)); got > 280 {
		t.Errorf("anchor text length = %d, want <= 280", got)
	}
	if strings.HasSuffix(anchors[0].Text, "...") || strings.ContainsRune(anchors[0].Text, '…') {
		t.Error("trimming must not append ellipsis markers")
	}
	if anchors[1].HookType != types.HookEval {
		t.Errorf("second anchor hook = %s, want eval", anchors[1].HookType)
	}
}

func TestBuildDropsInvalidCitations(t *testing.T) {
	pack := types.EvidencePack{
		SubID: "4.1",
		ClaimCandidates: []types.PackSnippet{
			{Text: "Claim with a key missing from the bib file entirely", Citations: []string{"@Ghost2020"}},
			{Text: "Claim with malformed citation syntax throughout", Citations: []string{"Smith2024Tool", "[@Key1]"}},
			{Text: "Claim with one valid and one invalid key attached", Citations: []string{"@Smith2024Tool", "@Ghost2020"}},
		},
	}

	entries := Build([]types.EvidencePack{pack}, testBib(t))
	anchors := entries[0].Anchors
	if len(anchors) != 1 {
		t.Fatalf("got %d anchors, want 1 (uncited anchors dropped): %+v", len(anchors), anchors)
	}
	if len(anchors[0].Citations) != 1 || anchors[0].Citations[0] != "@Smith2024Tool" {
		t.Errorf("citations = %v", anchors[0].Citations)
	}
}

func TestBuildLimitationSource(t *testing.T) {
	pack := types.EvidencePack{
		SubID: "4.3",
		FailuresLimitations: []types.PackSnippet{
			{Text: "Evaluation covers only two tool families", Citations: []string{"@Doe2023Survey"}, PaperID: "P0002", EvidenceID: "E-P0002-abcdef0123", Pointer: "limitations[0]"},
		},
	}
	entries := Build([]types.EvidencePack{pack}, testBib(t))
	anchors := entries[0].Anchors
	if len(anchors) != 1 || anchors[0].HookType != types.HookLimitation {
		t.Fatalf("anchors = %+v", anchors)
	}
	if anchors[0].PaperID != "P0002" || anchors[0].EvidenceID != "E-P0002-abcdef0123" {
		t.Errorf("provenance not carried: %+v", anchors[0])
	}
}

func TestBuildCapsAtTwelve(t *testing.T) {
	pack := types.EvidencePack{SubID: "4.4"}
	for i := 0; i < 20; i++ {
		pack.ClaimCandidates = append(pack.ClaimCandidates, types.PackSnippet{
			Text:      strings.Repeat("x", i+1) + " distinct claim about tool behavior",
			Citations: []string{"@Smith2024Tool"},
		})
	}
	entries := Build([]types.EvidencePack{pack}, testBib(t))
	if len(entries[0].Anchors) != 12 {
		t.Errorf("got %d anchors, want capped at 12", len(entries[0].Anchors))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want types.HookType
	}{
		{"improves accuracy by 12 points", types.HookQuant},
		{"evaluated on the AgentBench benchmark", types.HookEval},
		{"the approach fails on long-horizon tasks", types.HookLimitation},
		{"a general statement about agents", types.HookEval},
	}
	for _, tt := range tests {
		if got := classify(tt.text); got != tt.want {
			t.Errorf("classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestNormalizeTextStripsCitations(t *testing.T) {
	a := normalizeText("Improves accuracy [@Smith2024Tool] by a wide margin")
	b := normalizeText("improves  accuracy by a wide margin")
	if a != b {
		t.Errorf("normalized forms differ: %q vs %q", a, b)
	}
}
