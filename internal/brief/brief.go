// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package brief derives per-subsection and per-chapter planning briefs
// from the outline, the mapping, and paper notes.
package brief

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// maxAxes caps the decision-relevant dimensions per subsection.
const maxAxes = 5

// clusterPatterns maps cluster labels to title substrings.
var clusterPatterns = []struct {
	label    string
	patterns []string
}{
	{"evaluation", []string{"benchmark", "eval", "dataset", "metric"}},
	{"tooling", []string{"tool", "api", "plugin", "function"}},
	{"memory", []string{"memory", "retrieval", "rag"}},
	{"security", []string{"attack", "injection", "safety", "secur"}},
}

// defaultAxes are appended when the outline bullets yield too few axes.
var defaultAxes = []string{
	"evaluation protocol",
	"task generalization",
	"evidence strength",
}

// BuildSubsectionBriefs derives one brief per H3. mapped lists paper_ids
// per sub_id; notes is keyed by paper_id; goal is the GOAL.md line.
func BuildSubsectionBriefs(subs []outline.Subsection, mapped map[string][]string, notes map[string]types.PaperNote, goal string, exclude []string) []types.SubsectionBrief {
	var briefs []types.SubsectionBrief
	for _, sub := range subs {
		paperIDs := mapped[sub.SubID]

		levelSummary := make(map[types.EvidenceLevel]int)
		hasFulltext := false
		for _, pid := range paperIDs {
			if note, ok := notes[pid]; ok {
				levelSummary[note.EvidenceLevel]++
				if note.EvidenceLevel == types.LevelFulltext {
					hasFulltext = true
				}
			}
		}

		axes := deriveAxes(sub.Bullets)
		briefs = append(briefs, types.SubsectionBrief{
			SubID:                sub.SubID,
			Title:                sub.Title,
			RQ:                   deriveRQ(sub),
			Axes:                 axes,
			Clusters:             clusterPapers(paperIDs, notes),
			ParagraphPlan:        paragraphPlan(sub.Title, axes, hasFulltext),
			EvidenceLevelSummary: levelSummary,
			ScopeRule:            scopeRule(goal, exclude),
		})
	}
	return briefs
}

// deriveRQ extracts the RQ bullet or builds a deterministic fallback.
func deriveRQ(sub outline.Subsection) string {
	if rq := outline.Bullet(sub.Bullets, "RQ"); rq != "" {
		return rq
	}
	return fmt.Sprintf("What approaches address %s, and how do they compare?", strings.ToLower(sub.Title))
}

// deriveAxes merges the Evidence needs and Comparison axes bullets, then
// pads with domain defaults up to maxAxes.
func deriveAxes(bullets []string) []string {
	var axes []string
	seen := make(map[string]bool)
	add := func(raw string) {
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' }) {
			axis := strings.TrimSpace(part)
			key := strings.ToLower(axis)
			if axis == "" || seen[key] || len(axes) >= maxAxes {
				continue
			}
			seen[key] = true
			axes = append(axes, axis)
		}
	}

	add(outline.Bullet(bullets, "Evidence needs"))
	add(outline.Bullet(bullets, "Comparison axes"))
	for _, def := range defaultAxes {
		if len(axes) >= maxAxes {
			break
		}
		add(def)
	}
	return axes
}

// clusterPapers groups mapped papers by title heuristics, falling back to
// a recency split so at least two clusters of at least two papers exist
// whenever the pool allows it.
func clusterPapers(paperIDs []string, notes map[string]types.PaperNote) []types.PaperCluster {
	byLabel := make(map[string][]string)
	for _, pid := range paperIDs {
		title := strings.ToLower(notes[pid].Title)
		label := "general"
		for _, cp := range clusterPatterns {
			for _, p := range cp.patterns {
				if strings.Contains(title, p) {
					label = cp.label
					break
				}
			}
			if label != "general" {
				break
			}
		}
		byLabel[label] = append(byLabel[label], pid)
	}

	var clusters []types.PaperCluster
	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		if len(byLabel[l]) >= 2 {
			clusters = append(clusters, types.PaperCluster{Label: l, PaperIDs: byLabel[l]})
		}
	}
	if len(clusters) >= 2 {
		return clusters
	}

	// Recency fallback: newest half vs the rest.
	sorted := append([]string(nil), paperIDs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return notes[sorted[i]].Year > notes[sorted[j]].Year
	})
	half := len(sorted) / 2
	clusters = nil
	if half > 0 {
		clusters = append(clusters, types.PaperCluster{Label: "recent work", PaperIDs: sorted[:half]})
	}
	if len(sorted) > half {
		clusters = append(clusters, types.PaperCluster{Label: "earlier work", PaperIDs: sorted[half:]})
	}
	return clusters
}

// paragraphPlan produces the fixed three-paragraph plan. Paragraphs are
// marked provisional when no fulltext-level evidence backs the subsection.
func paragraphPlan(title string, axes []string, hasFulltext bool) []types.ParagraphPlanItem {
	policy := ""
	if !hasFulltext {
		policy = "provisional"
	}

	topAxes := axes
	if len(topAxes) > 2 {
		topAxes = topAxes[:2]
	}

	return []types.ParagraphPlanItem{
		{
			Para:   1,
			Intent: "scope-and-thesis",
			Focus:  fmt.Sprintf("frame %s and state the organizing thesis", strings.ToLower(title)),
			Policy: policy,
		},
		{
			Para:   2,
			Intent: "main-contrast",
			Focus:  "contrast the mapped approaches along " + strings.Join(topAxes, " and "),
			Policy: policy,
		},
		{
			Para:   3,
			Intent: "evaluation-and-limitations",
			Focus:  "summarize evaluation evidence and acknowledged limitations",
			Policy: policy,
		},
	}
}

// scopeRule derives include/exclude guidance from the goal line and the
// workspace exclude list.
func scopeRule(goal string, exclude []string) types.ScopeRule {
	rule := types.ScopeRule{Exclude: append([]string(nil), exclude...)}
	for _, w := range strings.Fields(strings.ToLower(goal)) {
		w = strings.Trim(w, ".,;:")
		if len(w) >= 4 && !scopeStopwords[w] {
			rule.Include = append(rule.Include, w)
		}
	}
	if strings.Contains(strings.ToLower(goal), "text-to-image") {
		rule.Exclude = append(rule.Exclude, "off-modality papers (audio, video, 3D)")
		rule.Notes = "goal is text-to-image; keep cited work on that modality"
	}
	return rule
}

var scopeStopwords = map[string]bool{
	"survey": true, "review": true, "with": true, "from": true, "that": true,
	"this": true, "into": true, "over": true, "using": true,
}
