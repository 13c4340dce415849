// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bind selects K evidence items per subsection from the bank,
// balancing relevance (want-token overlap), diversity (across papers and
// claim types), and budget caps.
package bind

import (
	"sort"
	"strings"

	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// Claim-type base scores. Results outrank methods outrank limitations.
var baseScore = map[types.ClaimType]float64{
	types.ClaimResult:     3.0,
	types.ClaimMethod:     2.0,
	types.ClaimLimitation: 1.5,
	types.ClaimSummary:    1.0,
	types.ClaimTitle:      0.5,
}

// evalWantTokens are the want tokens that activate the evaluation bonus.
var evalWantTokens = map[string]bool{
	"benchmark": true, "dataset": true, "metric": true, "evaluation": true,
}

type candidate struct {
	item  types.EvidenceItem
	score float64
}

// WantTokens tokenizes a brief's RQ and axes into the lowercase want set
// the scorer matches snippets against.
func WantTokens(b types.SubsectionBrief) map[string]bool {
	want := make(map[string]bool)
	add := func(s string) {
		for _, w := range strings.Fields(strings.ToLower(s)) {
			w = strings.Trim(w, ".,;:?!()")
			if len(w) >= 3 {
				want[w] = true
			}
		}
	}
	add(b.RQ)
	for _, axis := range b.Axes {
		add(axis)
	}
	return want
}

// score computes the relevance score of one bank item against the want set.
func score(item types.EvidenceItem, want map[string]bool) float64 {
	s := baseScore[item.ClaimType]

	tags := make(map[string]bool, len(item.Tags))
	for _, t := range item.Tags {
		tags[t] = true
	}

	if tags[types.TagEvaluation] {
		for w := range want {
			if evalWantTokens[w] {
				s += 1.0
				break
			}
		}
	}
	if tags[types.TagNumbers] {
		s += 0.5
	}
	if tags[types.TagSecurity] && (want["security"] || want["attack"] || want["injection"] || want["jailbreak"] || want["sandbox"]) {
		s += 0.8
	}
	if tags[types.TagTooling] && (want["tool"] || want["tools"] || want["tooling"] || want["api"] || want["mcp"] || want["schema"]) {
		s += 0.6
	}

	overlap := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(item.Snippet)) {
		w = strings.Trim(w, ".,;:?!()")
		if want[w] && !seen[w] {
			seen[w] = true
			overlap++
		}
	}
	s += 0.06 * float64(overlap)

	return s
}

// Bind selects evidence for one subsection. paperIDs come from the
// mapping; bibkeyOf resolves a paper's bibkey (empty entries are skipped
// in the union sets).
func Bind(subID string, paperIDs []string, bankItems []types.EvidenceItem, want map[string]bool, bibkeyOf map[string]string, th types.Thresholds) types.EvidenceBinding {
	mapped := make(map[string]bool, len(paperIDs))
	for _, pid := range paperIDs {
		mapped[pid] = true
	}

	var cands []candidate
	for _, item := range bankItems {
		if !mapped[item.PaperID] {
			continue
		}
		cands = append(cands, candidate{item: item, score: score(item, want)})
	}

	// Rank: score descending, evidence_id ascending for stability.
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].item.EvidenceID < cands[j].item.EvidenceID
	})

	var (
		selected   []types.EvidenceItem
		taken      = make(map[string]bool)
		perPaper   = make(map[string]int)
		limitCount = 0
	)

	admissible := func(item types.EvidenceItem) bool {
		if taken[item.EvidenceID] || len(selected) >= th.BindK {
			return false
		}
		if perPaper[item.PaperID] >= th.MaxPerPaper {
			return false
		}
		if item.ClaimType == types.ClaimLimitation && limitCount >= th.MaxLimitations {
			return false
		}
		return true
	}
	take := func(item types.EvidenceItem) {
		taken[item.EvidenceID] = true
		perPaper[item.PaperID]++
		if item.ClaimType == types.ClaimLimitation {
			limitCount++
		}
		selected = append(selected, item)
	}

	// Diversity seed: one method, two results, one limitation when available.
	for _, seedType := range []types.ClaimType{types.ClaimMethod, types.ClaimResult, types.ClaimResult, types.ClaimLimitation} {
		for _, c := range cands {
			if c.item.ClaimType == seedType && admissible(c.item) {
				take(c.item)
				break
			}
		}
	}

	// Greedy fill to K under the caps.
	for _, c := range cands {
		if len(selected) >= th.BindK {
			break
		}
		if admissible(c.item) {
			take(c.item)
		}
	}

	binding := types.EvidenceBinding{
		SubID:    subID,
		PaperIDs: append([]string(nil), paperIDs...),
		Compliance: types.BindingCompliance{
			SelectedTotal:   len(selected),
			ByClaimType:     make(map[string]int),
			ByEvidenceLevel: make(map[string]int),
		},
	}

	mappedKeys := make(map[string]bool)
	for _, pid := range paperIDs {
		if key := bibkeyOf[pid]; key != "" {
			mappedKeys[key] = true
		}
	}
	binding.MappedBibkeys = sortedKeys(mappedKeys)

	selectedKeys := make(map[string]bool)
	for _, item := range selected {
		binding.EvidenceIDs = append(binding.EvidenceIDs, item.EvidenceID)
		binding.Compliance.ByClaimType[string(item.ClaimType)]++
		binding.Compliance.ByEvidenceLevel[string(item.EvidenceLevel)]++
		if item.Bibkey != "" {
			selectedKeys[item.Bibkey] = true
		}
	}
	binding.Bibkeys = sortedKeys(selectedKeys)

	return binding
}

// BuildAll binds every subsection in outline order.
func BuildAll(subs []outline.Subsection, mapped map[string][]string, bankItems []types.EvidenceItem, briefs []types.SubsectionBrief, notes map[string]types.PaperNote, th types.Thresholds) []types.EvidenceBinding {
	briefBySub := make(map[string]types.SubsectionBrief, len(briefs))
	for _, b := range briefs {
		briefBySub[b.SubID] = b
	}
	bibkeyOf := make(map[string]string, len(notes))
	for pid, note := range notes {
		bibkeyOf[pid] = note.Bibkey
	}

	var bindings []types.EvidenceBinding
	for _, sub := range subs {
		want := WantTokens(briefBySub[sub.SubID])
		bindings = append(bindings, Bind(sub.SubID, mapped[sub.SubID], bankItems, want, bibkeyOf, th))
	}
	return bindings
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
