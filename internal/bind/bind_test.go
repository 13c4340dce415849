// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bind

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/pdiddy/surveyforge/pkg/types"
)

func item(paperID string, n int, claim types.ClaimType, snippet string, tags ...string) types.EvidenceItem {
	return types.EvidenceItem{
		EvidenceID:    fmt.Sprintf("E-%s-%010d", paperID, n),
		PaperID:       paperID,
		Bibkey:        paperID + "key",
		ClaimType:     claim,
		EvidenceLevel: types.LevelFulltext,
		Snippet:       snippet,
		Tags:          tags,
	}
}

func TestBindDiversityCaps(t *testing.T) {
	// P1 has 10 items, P2 has 1. With max_per_paper=3 the binding holds
	// exactly 3 from P1 plus the single P2 item.
	var bank []types.EvidenceItem
	for i := 0; i < 10; i++ {
		bank = append(bank, item("P1", i, types.ClaimResult, fmt.Sprintf("result number %d with measurable gains", i)))
	}
	bank = append(bank, item("P2", 0, types.ClaimMethod, "a contrasting method from the second paper"))

	th := types.ThresholdsFor(types.ProfileDefault) // K=14
	b := Bind("4.1", []string{"P1", "P2"}, bank, nil, map[string]string{"P1": "P1key", "P2": "P2key"}, th)

	if b.Compliance.SelectedTotal != 4 {
		t.Fatalf("selected_total = %d, want 4", b.Compliance.SelectedTotal)
	}
	perPaper := map[string]int{}
	for _, id := range b.EvidenceIDs {
		perPaper[id[2:4]]++
	}
	if perPaper["P1"] != 3 || perPaper["P2"] != 1 {
		t.Errorf("per-paper counts = %v", perPaper)
	}

	total := 0
	for _, n := range b.Compliance.ByClaimType {
		total += n
	}
	if total != 4 {
		t.Errorf("by_claim_type sums to %d, want 4", total)
	}
}

func TestBindLimitationCap(t *testing.T) {
	var bank []types.EvidenceItem
	for i := 0; i < 6; i++ {
		bank = append(bank, item(fmt.Sprintf("P%d", i), i, types.ClaimLimitation,
			fmt.Sprintf("limitation %d that is long enough to qualify", i)))
	}
	th := types.ThresholdsFor(types.ProfileDefault)
	b := Bind("4.1", []string{"P0", "P1", "P2", "P3", "P4", "P5"}, bank, nil,
		map[string]string{}, th)

	if got := b.Compliance.ByClaimType[string(types.ClaimLimitation)]; got != 3 {
		t.Errorf("limitation count = %d, want capped at 3", got)
	}
}

func TestBindSeedsClaimDiversity(t *testing.T) {
	// Many high-scoring results must not crowd out the method and
	// limitation seeds.
	var bank []types.EvidenceItem
	for i := 0; i < 4; i++ {
		bank = append(bank, item(fmt.Sprintf("R%d", i), i, types.ClaimResult,
			"benchmark result 99 accuracy with metric detail", types.TagEvaluation, types.TagNumbers))
	}
	bank = append(bank, item("M0", 0, types.ClaimMethod, "the single method item in the pool"))
	bank = append(bank, item("L0", 0, types.ClaimLimitation, "the single limitation item in the pool"))

	th := types.ThresholdsFor(types.ProfileDefault)
	th.BindK = 4
	b := Bind("4.1", []string{"R0", "R1", "R2", "R3", "M0", "L0"}, bank, nil, map[string]string{}, th)

	if b.Compliance.ByClaimType[string(types.ClaimMethod)] != 1 {
		t.Error("method seed missing")
	}
	if b.Compliance.ByClaimType[string(types.ClaimLimitation)] != 1 {
		t.Error("limitation seed missing")
	}
	if b.Compliance.ByClaimType[string(types.ClaimResult)] != 2 {
		t.Errorf("result count = %d, want 2", b.Compliance.ByClaimType[string(types.ClaimResult)])
	}
}

func TestBindScoringPrefersWantOverlap(t *testing.T) {
	want := map[string]bool{"benchmark": true, "planner": true}

	plain := item("P1", 0, types.ClaimSummary, "an unrelated statement about something else")
	relevant := item("P2", 0, types.ClaimSummary, "planner accuracy on the agent benchmark", types.TagEvaluation)

	if score(plain, want) >= score(relevant, want) {
		t.Errorf("relevant item must outscore plain item: %f vs %f", score(relevant, want), score(plain, want))
	}

	th := types.ThresholdsFor(types.ProfileDefault)
	th.BindK = 1
	b := Bind("4.1", []string{"P1", "P2"}, []types.EvidenceItem{plain, relevant}, want, map[string]string{}, th)
	if !reflect.DeepEqual(b.EvidenceIDs, []string{relevant.EvidenceID}) {
		t.Errorf("selected = %v", b.EvidenceIDs)
	}
}

func TestBindStableOrderOnTies(t *testing.T) {
	a := item("P1", 1, types.ClaimSummary, "identical scoring snippet text alpha")
	b := item("P1", 0, types.ClaimSummary, "identical scoring snippet text alpha")

	th := types.ThresholdsFor(types.ProfileDefault)
	th.BindK = 1
	got := Bind("4.1", []string{"P1"}, []types.EvidenceItem{a, b}, nil, map[string]string{}, th)
	// Lower evidence_id wins the tie.
	if got.EvidenceIDs[0] != b.EvidenceID {
		t.Errorf("tie broken wrong: %v", got.EvidenceIDs)
	}
}

func TestBindPoolSmallerThanK(t *testing.T) {
	bank := []types.EvidenceItem{
		item("P1", 0, types.ClaimMethod, "only item available in this pool"),
	}
	th := types.ThresholdsFor(types.ProfileSurvey) // K=18
	b := Bind("4.1", []string{"P1"}, bank, nil, map[string]string{"P1": "P1key"}, th)

	if b.Compliance.SelectedTotal != 1 {
		t.Errorf("selected_total = %d, want 1", b.Compliance.SelectedTotal)
	}
	if !reflect.DeepEqual(b.MappedBibkeys, []string{"P1key"}) {
		t.Errorf("mapped bibkeys = %v", b.MappedBibkeys)
	}
	if !reflect.DeepEqual(b.Bibkeys, []string{"P1key"}) {
		t.Errorf("selected bibkeys = %v", b.Bibkeys)
	}
}

func TestWantTokens(t *testing.T) {
	b := types.SubsectionBrief{
		RQ:   "How do agents use benchmarks?",
		Axes: []string{"planning depth", "feedback use"},
	}
	want := WantTokens(b)
	for _, token := range []string{"agents", "benchmarks", "planning", "depth", "feedback", "use"} {
		if !want[token] {
			t.Errorf("missing want token %q", token)
		}
	}
	if want["do"] {
		t.Error("tokens shorter than 3 chars must be dropped")
	}
}
