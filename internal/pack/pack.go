// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pack assembles writer context packs: the complete per-subsection
// writing contract of allowed citations, anchor facts, comparison cards,
// evaluation and limitation material, and must-use minima.
package pack

import (
	"fmt"
	"sort"

	"github.com/pdiddy/surveyforge/internal/anchor"
	"github.com/pdiddy/surveyforge/internal/bibtex"
	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// factTrimLen is the hard cut for anchor facts, write prompts, and
// evaluation/limitation text inside a pack.
const factTrimLen = 420

// doNotRepeatPhrases lists template openers and pipeline-voice phrases the
// writer must not reproduce.
var doNotRepeatPhrases = []string{
	"In this subsection, we",
	"This subsection discusses",
	"As mentioned above",
	"In recent years, there has been growing interest",
	"It is worth noting that",
	"evidence level:",
	"paragraph plan:",
	"research question:",
}

// Inputs bundles the artifacts the builder consumes.
type Inputs struct {
	Subs     []outline.Subsection
	Briefs   []types.SubsectionBrief
	Chapters []types.ChapterBrief
	Bindings []types.EvidenceBinding
	Sheet    []types.AnchorSheetEntry
	Drafts   []types.EvidencePack
	Bib      bibtex.Index
}

// Build assembles one writer context pack per subsection, in outline order.
func Build(in Inputs, th types.Thresholds) []types.WriterContextPack {
	briefBySub := make(map[string]types.SubsectionBrief)
	for _, b := range in.Briefs {
		briefBySub[b.SubID] = b
	}
	chapterByID := make(map[string]types.ChapterBrief)
	for _, c := range in.Chapters {
		chapterByID[c.SectionID] = c
	}
	bindingBySub := make(map[string]types.EvidenceBinding)
	for _, b := range in.Bindings {
		bindingBySub[b.SubID] = b
	}
	anchorsBySub := make(map[string][]types.Anchor)
	for _, e := range in.Sheet {
		anchorsBySub[e.SubID] = e.Anchors
	}
	draftBySub := make(map[string]types.EvidencePack)
	for _, d := range in.Drafts {
		draftBySub[d.SubID] = d
	}

	chapterUnion := chapterUnions(in.Subs, bindingBySub)
	globalSet := globalBibkeys(in.Bindings, th.GlobalThreshold)

	var packs []types.WriterContextPack
	for _, sub := range in.Subs {
		packs = append(packs, buildOne(sub, briefBySub[sub.SubID], chapterByID[sub.SectionID],
			bindingBySub[sub.SubID], anchorsBySub[sub.SubID], draftBySub[sub.SubID],
			chapterUnion[sub.SectionID], globalSet, in.Bib, th))
	}
	return packs
}

// chapterUnions computes, per H2, the union of mapped bibkeys across its
// subsections.
func chapterUnions(subs []outline.Subsection, bindingBySub map[string]types.EvidenceBinding) map[string][]string {
	sets := make(map[string]map[string]bool)
	for _, sub := range subs {
		if sets[sub.SectionID] == nil {
			sets[sub.SectionID] = make(map[string]bool)
		}
		for _, key := range bindingBySub[sub.SubID].MappedBibkeys {
			sets[sub.SectionID][key] = true
		}
	}
	unions := make(map[string][]string, len(sets))
	for sec, set := range sets {
		unions[sec] = sortedKeys(set)
	}
	return unions
}

// globalBibkeys returns keys mapped across at least threshold subsections:
// the cross-cutting benchmarks and surveys citable from anywhere.
func globalBibkeys(bindings []types.EvidenceBinding, threshold int) []string {
	counts := make(map[string]int)
	for _, b := range bindings {
		for _, key := range b.MappedBibkeys {
			counts[key]++
		}
	}
	set := make(map[string]bool)
	for key, n := range counts {
		if n >= threshold {
			set[key] = true
		}
	}
	return sortedKeys(set)
}

func buildOne(sub outline.Subsection, brief types.SubsectionBrief, chapter types.ChapterBrief,
	binding types.EvidenceBinding, anchors []types.Anchor, draft types.EvidencePack,
	chapterKeys, globalKeys []string, bib bibtex.Index, th types.Thresholds) types.WriterContextPack {

	p := types.WriterContextPack{
		SubID:               sub.SubID,
		Title:               sub.Title,
		RQ:                  brief.RQ,
		Axes:                brief.Axes,
		ParagraphPlan:       brief.ParagraphPlan,
		ChapterThroughline:  chapter.Throughline,
		ChapterKeyContrasts: chapter.KeyContrasts,

		AllowedBibkeysSelected: binding.Bibkeys,
		AllowedBibkeysMapped:   filterKeys(binding.MappedBibkeys, bib),
		AllowedBibkeysChapter:  chapterKeys,
		AllowedBibkeysGlobal:   globalKeys,

		EvidenceIDs: binding.EvidenceIDs,

		MustUse: types.MustUse{
			Anchors:                            th.MustUseAnchors,
			Comparisons:                        th.MustUseComparisons,
			Limitations:                        th.MustUseLimitations,
			RequireCitedNumericIfAvailable:     true,
			RequireMultiCiteSynthesisParagraph: true,
			ThesisRequired:                     true,
		},
		DoNotRepeatPhrases: append([]string(nil), doNotRepeatPhrases...),
		PackStats:          make(map[string]types.PackStats),
	}

	p.AnchorFacts = selectAnchors(anchors, bib, th, &p)
	p.ComparisonCards = selectCards(draft.ConcreteComparisons, bib, th, &p)
	p.EvaluationProtocol = selectSnippets("evaluation", draft.EvaluationProtocol, bib, th.EvalKeep, &p)
	p.LimitationHooks = selectSnippets("limitations", draft.FailuresLimitations, bib, th.LimitationKeep, &p)

	p.PackWarnings = warnings(p, th)
	return p
}

// selectAnchors filters the anchor pool down to the profile's keep count.
// The first AnchorPool facts are considered; facts with no surviving
// citation are dropped.
func selectAnchors(anchors []types.Anchor, bib bibtex.Index, th types.Thresholds, p *types.WriterContextPack) []types.Anchor {
	stats := types.PackStats{Raw: len(anchors)}

	pool := anchors
	if len(pool) > th.AnchorPool {
		pool = pool[:th.AnchorPool]
	}
	stats.Considered = len(pool)

	var kept []types.Anchor
	for _, a := range pool {
		if len(kept) >= th.AnchorKeep {
			break
		}
		citations := anchor.FilterCitations(a.Citations, bib)
		if len(citations) == 0 {
			continue
		}
		a.Citations = citations
		a.Text = anchor.Trim(a.Text, factTrimLen)
		kept = append(kept, a)
	}

	stats.Kept = len(kept)
	stats.Dropped = stats.Considered - stats.Kept
	p.PackStats["anchors"] = stats
	return kept
}

// selectCards validates comparison highlights and keeps up to CardKeep
// cards. A highlight without a valid citation is dropped; a card without
// an axis, or with no highlights left on either side, is dropped whole.
func selectCards(comparisons []types.Comparison, bib bibtex.Index, th types.Thresholds, p *types.WriterContextPack) []types.ComparisonCard {
	stats := types.PackStats{Raw: len(comparisons), Considered: len(comparisons)}

	var kept []types.ComparisonCard
	for _, cmp := range comparisons {
		if len(kept) >= th.CardKeep {
			break
		}
		card := types.ComparisonCard{
			Axis:        cmp.Axis,
			ALabel:      cmp.ALabel,
			BLabel:      cmp.BLabel,
			AHighlights: validSnippets(cmp.AHighlights, bib),
			BHighlights: validSnippets(cmp.BHighlights, bib),
			WritePrompt: anchor.Trim(cmp.WritePrompt, factTrimLen),
		}
		if card.Axis == "" || (len(card.AHighlights) == 0 && len(card.BHighlights) == 0) {
			continue
		}
		kept = append(kept, card)
	}

	stats.Kept = len(kept)
	stats.Dropped = stats.Considered - stats.Kept
	p.PackStats["comparisons"] = stats
	return kept
}

// selectSnippets trims and citation-validates a snippet list under a cap.
func selectSnippets(name string, snippets []types.PackSnippet, bib bibtex.Index, keep int, p *types.WriterContextPack) []types.PackSnippet {
	stats := types.PackStats{Raw: len(snippets), Considered: len(snippets)}

	kept := validSnippets(snippets, bib)
	if len(kept) > keep {
		kept = kept[:keep]
	}

	stats.Kept = len(kept)
	stats.Dropped = stats.Considered - stats.Kept
	p.PackStats[name] = stats
	return kept
}

// validSnippets keeps snippets that retain at least one valid citation
// after filtering, with text trimmed.
func validSnippets(snippets []types.PackSnippet, bib bibtex.Index) []types.PackSnippet {
	var kept []types.PackSnippet
	for _, s := range snippets {
		citations := anchor.FilterCitations(s.Citations, bib)
		if len(citations) == 0 {
			continue
		}
		s.Citations = citations
		s.Text = anchor.Trim(s.Text, factTrimLen)
		kept = append(kept, s)
	}
	return kept
}

// warnings surfaces non-fatal thinness hints.
func warnings(p types.WriterContextPack, th types.Thresholds) []string {
	var w []string
	if p.RQ == "" {
		w = append(w, "pack_missing_rq")
	}
	if p.Thesis == "" {
		w = append(w, "pack_missing_thesis")
	}
	if len(p.AnchorFacts) < th.MustUseAnchors {
		w = append(w, fmt.Sprintf("pack_anchors_below_minimum: %d < %d", len(p.AnchorFacts), th.MustUseAnchors))
	}
	if len(p.ComparisonCards) < th.MustUseComparisons {
		w = append(w, fmt.Sprintf("pack_comparisons_below_minimum: %d < %d", len(p.ComparisonCards), th.MustUseComparisons))
	}
	if len(p.EvaluationProtocol) == 0 {
		w = append(w, "pack_no_evaluation_bullets")
	}
	if len(p.LimitationHooks) == 0 {
		w = append(w, "pack_no_limitation_hooks")
	}
	if len(p.AllowedBibkeysMapped) == 0 {
		w = append(w, "pack_no_mapped_bibkeys")
	}
	return w
}

// filterKeys keeps bibkeys present in the index.
func filterKeys(keys []string, bib bibtex.Index) []string {
	var kept []string
	for _, k := range keys {
		if bib.Has(k) {
			kept = append(kept, k)
		}
	}
	return kept
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
