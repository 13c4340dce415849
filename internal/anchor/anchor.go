// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anchor projects evidence packs into per-subsection anchor
// sheets: short, citation-backed facts the writer can place in prose
// verbatim.
package anchor

import (
	"regexp"
	"strings"

	"github.com/pdiddy/surveyforge/internal/bibtex"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// maxAnchors caps anchors per subsection.
const maxAnchors = 12

// anchorTrimLen is the hard cut for anchor text. No ellipsis is appended;
// a trailing marker would trip the placeholder gates downstream.
const anchorTrimLen = 280

var (
	digitRe = regexp.MustCompile(`\d`)

	// evalCueRe marks evaluation-flavored snippets.
	evalCueRe = regexp.MustCompile(`(?i)\b(benchmark|dataset|metric|evaluation|protocol)`)

	// limitationCueRe marks limitation-flavored snippets.
	limitationCueRe = regexp.MustCompile(`(?i)\b(limitation|limited|fails?|failure|weakness|caveat|does not|cannot|brittle)`)

	// citationKeyRe is the accepted @bibkey form.
	citationKeyRe = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9:_-]*$`)

	// inlineCiteRe strips citation tokens during text normalization.
	inlineCiteRe = regexp.MustCompile(`\[?@[A-Za-z][A-Za-z0-9:_-]*\]?[;,]?`)
)

// Build projects evidence packs into anchor sheet entries, one per pack,
// in pack order. Citations are filtered to valid @bibkey form (and to the
// bib index when one is provided); anchors deduplicate by normalized text.
func Build(packs []types.EvidencePack, bib bibtex.Index) []types.AnchorSheetEntry {
	entries := make([]types.AnchorSheetEntry, 0, len(packs))
	for _, pack := range packs {
		entries = append(entries, types.AnchorSheetEntry{
			SubID:   pack.SubID,
			Anchors: buildAnchors(pack, bib),
		})
	}
	return entries
}

func buildAnchors(pack types.EvidencePack, bib bibtex.Index) []types.Anchor {
	var anchors []types.Anchor
	seen := make(map[string]bool)

	add := func(hook types.HookType, s types.PackSnippet) {
		if len(anchors) >= maxAnchors {
			return
		}
		text := Trim(s.Text, anchorTrimLen)
		if text == "" {
			return
		}
		key := normalizeText(text)
		if key == "" || seen[key] {
			return
		}
		citations := FilterCitations(s.Citations, bib)
		if len(citations) == 0 {
			return
		}
		seen[key] = true
		anchors = append(anchors, types.Anchor{
			HookType:   hook,
			Text:       text,
			Citations:  citations,
			PaperID:    s.PaperID,
			EvidenceID: s.EvidenceID,
			Pointer:    s.Pointer,
		})
	}

	// First preference: quantitative excerpts from comparison highlights.
	for _, cmp := range pack.ConcreteComparisons {
		for _, s := range cmp.AHighlights {
			if digitRe.MatchString(s.Text) {
				add(types.HookQuant, s)
			}
		}
		for _, s := range cmp.BHighlights {
			if digitRe.MatchString(s.Text) {
				add(types.HookQuant, s)
			}
		}
	}

	// Second: claim candidates and evaluation bullets, classified by cue.
	for _, s := range pack.ClaimCandidates {
		add(classify(s.Text), s)
	}
	for _, s := range pack.EvaluationProtocol {
		add(classify(s.Text), s)
	}

	// Third: dedicated limitation entries.
	for _, s := range pack.FailuresLimitations {
		add(types.HookLimitation, s)
	}

	return anchors
}

// classify picks the hook type for a raw snippet: digits win, then
// evaluation cues, then limitation cues; evaluation is the default for
// anything that reads like protocol text.
func classify(text string) types.HookType {
	switch {
	case digitRe.MatchString(text):
		return types.HookQuant
	case limitationCueRe.MatchString(text):
		return types.HookLimitation
	case evalCueRe.MatchString(text):
		return types.HookEval
	default:
		return types.HookEval
	}
}

// Trim whitespace-normalizes s and hard-cuts it at limit runes without
// appending an ellipsis.
func Trim(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}

// FilterCitations keeps keys of the form @bibkey whose key exists in the
// bib index (a nil index accepts every well-formed key).
func FilterCitations(citations []string, bib bibtex.Index) []string {
	var kept []string
	for _, c := range citations {
		c = strings.TrimSpace(c)
		if !citationKeyRe.MatchString(c) {
			continue
		}
		if !bib.Has(strings.TrimPrefix(c, "@")) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// normalizeText strips citation tokens, collapses whitespace, and
// lowercases, producing the dedupe key for anchor text.
func normalizeText(s string) string {
	s = inlineCiteRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
