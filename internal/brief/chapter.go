// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// BuildChapterBriefs derives one brief per H2 from the outline and the
// already-built subsection briefs.
func BuildChapterBriefs(o *types.Outline, subBriefs []types.SubsectionBrief) []types.ChapterBrief {
	briefBySub := make(map[string]types.SubsectionBrief, len(subBriefs))
	for _, b := range subBriefs {
		briefBySub[b.SubID] = b
	}

	var chapters []types.ChapterBrief
	for _, sec := range o.Sections {
		if len(sec.Subsections) == 0 {
			continue
		}

		throughline := make([]string, 0, len(sec.Subsections)+1)
		if scope := outline.Bullet(sec.Bullets, "Scope"); scope != "" {
			throughline = append(throughline, scope)
		}
		for _, sub := range sec.Subsections {
			if len(throughline) >= 6 {
				break
			}
			throughline = append(throughline,
				fmt.Sprintf("%s: %s", sub.ID, subsectionHook(briefBySub[sub.ID], sub.Title)))
		}

		chapters = append(chapters, types.ChapterBrief{
			SectionID:    sec.ID,
			Title:        sec.Title,
			Throughline:  throughline,
			KeyContrasts: keyContrasts(sec, briefBySub),
			LeadParagraphPlan: []string{
				fmt.Sprintf("position %s within the overall survey narrative", strings.ToLower(sec.Title)),
				"preview the subsections and the contrast each one resolves",
			},
			BridgeTerms: bridgeTerms(sec),
		})
	}
	return chapters
}

// subsectionHook summarizes a subsection for the throughline: its RQ when
// available, its title otherwise.
func subsectionHook(b types.SubsectionBrief, title string) string {
	if b.RQ != "" {
		return b.RQ
	}
	return title
}

// keyContrasts collects the leading axis of every subsection in order,
// deduplicated.
func keyContrasts(sec types.OutlineSection, briefBySub map[string]types.SubsectionBrief) []string {
	var contrasts []string
	seen := make(map[string]bool)
	for _, sub := range sec.Subsections {
		b := briefBySub[sub.ID]
		if len(b.Axes) == 0 {
			continue
		}
		axis := b.Axes[0]
		if !seen[strings.ToLower(axis)] {
			seen[strings.ToLower(axis)] = true
			contrasts = append(contrasts, axis)
		}
	}
	return contrasts
}

// bridgeTerms returns lowercase terms appearing in at least two subsection
// titles of the chapter.
func bridgeTerms(sec types.OutlineSection) []string {
	counts := make(map[string]int)
	for _, sub := range sec.Subsections {
		seen := make(map[string]bool)
		for _, w := range strings.Fields(strings.ToLower(sub.Title)) {
			w = strings.Trim(w, ".,;:()")
			if len(w) < 4 || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}

	var terms []string
	for w, n := range counts {
		if n >= 2 {
			terms = append(terms, w)
		}
	}
	sort.Strings(terms)
	return terms
}
