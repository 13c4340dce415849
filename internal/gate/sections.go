// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gate

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/surveyforge/internal/bibtex"
	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// Boilerplate thresholds: a normalized sentence this long repeated this
// often is template leakage, not prose.
const (
	boilerplateSentenceLen = 90
	sectionRepeatLimit     = 3
	draftRepeatLimit       = 6
)

// minParagraphRunes is the floor below which a block does not count as a
// substantive paragraph.
const minParagraphRunes = 40

// Long-paragraph citation coverage: within one H3 body, paragraphs of at
// least longParagraphChars content chars (headings, tables, and code
// blocks excluded) must carry a citation, tolerating an uncited share up
// to uncitedLongFrac.
const (
	longParagraphChars = 240
	uncitedLongFrac    = 0.25
)

// Draft-wide citation budget: the structural minimum is base + perH3 per
// subsection; the fractional minimum is a share of the bib; the larger
// wins, capped at the bib size.
const (
	draftCitesBase    = 30
	draftCitesPerH3   = 4
	draftCitesFrac    = 0.45
	draftUncitedFrac  = 0.25
	draftIntroMinWord = 120
)

// latexMinPages is the minimum page count for a credible survey PDF.
const latexMinPages = 8

var (
	headingLineRe = regexp.MustCompile(`(?m)^#{1,6}\s`)

	// outlineMetaRe catches stage-A bullets leaking into prose.
	outlineMetaRe = regexp.MustCompile(`(?mi)^(Intent|RQ|Evidence needs|Expected cites|Paragraph plan|Research question)\s*:`)

	contrastRe   = regexp.MustCompile(`(?i)\b(whereas|in contrast|by contrast|unlike|on the other hand|compared (to|with))\b`)
	evalAnchorRe = regexp.MustCompile(`(?i)\b(benchmark|dataset|metric|protocol|evaluation|success rate|accuracy)\b`)
	limitationRe = regexp.MustCompile(`(?i)\b(limitation|limited|however|fails?|failure|remains (open|unclear)|provisional|caveat|does not|cannot)\b`)

	digitRe = regexp.MustCompile(`\d`)

	latexUndefCiteRe = regexp.MustCompile(`(?i)citation .* undefined|undefined citations?`)
	latexUndefRefRe  = regexp.MustCompile(`(?i)undefined references?`)
	latexPagesRe     = regexp.MustCompile(`(?i)pages?:\s*(\d+)`)

	introHeadingRe      = regexp.MustCompile(`(?mi)^#{1,3}\s*Introduction\b`)
	discussionHeadingRe = regexp.MustCompile(`(?mi)^#{1,3}\s*Discussion\b`)
	conclusionHeadingRe = regexp.MustCompile(`(?mi)^#{1,3}\s*Conclusion\b`)
)

// allowedSets holds the citation scopes for one subsection.
type allowedSets struct {
	mapped  map[string]bool
	chapter map[string]bool
	global  map[string]bool
}

// inScope reports whether a key is citable from this subsection.
func (a allowedSets) inScope(key string) bool {
	return a.mapped[key] || a.chapter[key] || a.global[key]
}

// reuseActive reports whether chapter-scoped reuse widens the mapped set,
// which activates the subsection-specific citation minimum.
func (a allowedSets) reuseActive() bool {
	for key := range a.chapter {
		if !a.mapped[key] {
			return true
		}
	}
	return false
}

// scopeSets computes the mapped, chapter-union, and global-threshold
// citation scopes from the bindings.
func scopeSets(subs []outline.Subsection, bindings []types.EvidenceBinding, globalThreshold int) map[string]allowedSets {
	bySub := make(map[string]types.EvidenceBinding, len(bindings))
	for _, b := range bindings {
		bySub[b.SubID] = b
	}

	chapter := make(map[string]map[string]bool)
	for _, sub := range subs {
		if chapter[sub.SectionID] == nil {
			chapter[sub.SectionID] = make(map[string]bool)
		}
		for _, key := range bySub[sub.SubID].MappedBibkeys {
			chapter[sub.SectionID][key] = true
		}
	}

	counts := make(map[string]int)
	for _, b := range bindings {
		for _, key := range b.MappedBibkeys {
			counts[key]++
		}
	}
	global := make(map[string]bool)
	for key, n := range counts {
		if n >= globalThreshold {
			global[key] = true
		}
	}

	sets := make(map[string]allowedSets, len(subs))
	for _, sub := range subs {
		mapped := make(map[string]bool)
		for _, key := range bySub[sub.SubID].MappedBibkeys {
			mapped[key] = true
		}
		sets[sub.SubID] = allowedSets{mapped: mapped, chapter: chapter[sub.SectionID], global: global}
	}
	return sets
}

// checkSections is the writer gate: every expected body file exists and
// satisfies the per-subsection prose contract.
func checkSections(c *Context) []types.QualityIssue {
	subs, loadIssue := loadSubs(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}
	idx, _, _, bibIssue := loadBib(c.WS)
	if bibIssue != nil {
		return []types.QualityIssue{*bibIssue}
	}
	bindings, _ := workspace.ReadJSONL[types.EvidenceBinding](c.WS, workspace.FileBindings)
	drafts, _ := workspace.ReadJSONL[types.EvidencePack](c.WS, workspace.FileEvidenceDrafts)

	scopes := scopeSets(subs, bindings, c.Th.GlobalThreshold)
	numericBySub := numericSnippetSubs(drafts)

	var issues []types.QualityIssue

	for _, rel := range []string{"sections/abstract.md", "sections/discussion.md", "sections/conclusion.md"} {
		if !c.WS.Exists(rel) {
			issues = append(issues, issue("sections_missing_file", "%s is missing or empty", rel))
		}
	}
	leadSeen := make(map[string]bool)
	for _, sub := range subs {
		if leadSeen[sub.SectionID] {
			continue
		}
		leadSeen[sub.SectionID] = true
		if rel := outline.LeadFile(sub.SectionID); !c.WS.Exists(rel) {
			issues = append(issues, issue("sections_missing_file", "%s is missing or empty", rel))
		}
	}

	for _, sub := range subs {
		issues = append(issues, checkSectionBody(c, sub, idx, scopes[sub.SubID], numericBySub[sub.SubID])...)
	}
	return issues
}

// numericSnippetSubs reports which subsections have at least one numeric
// snippet in their evidence pack, making a cited numeric claim mandatory.
func numericSnippetSubs(drafts []types.EvidencePack) map[string]bool {
	numeric := make(map[string]bool)
	mark := func(subID string, snips []types.PackSnippet) {
		for _, s := range snips {
			if digitRe.MatchString(s.Text) {
				numeric[subID] = true
				return
			}
		}
	}
	for _, d := range drafts {
		mark(d.SubID, d.ClaimCandidates)
		mark(d.SubID, d.EvaluationProtocol)
		for _, cmp := range d.ConcreteComparisons {
			mark(d.SubID, cmp.AHighlights)
			mark(d.SubID, cmp.BHighlights)
		}
	}
	return numeric
}

// checkSectionBody validates one H3 body file against the writer contract.
func checkSectionBody(c *Context, sub outline.Subsection, idx bibtex.Index, scope allowedSets, wantNumeric bool) []types.QualityIssue {
	rel := outline.BodyFile(sub.SubID)
	data, err := os.ReadFile(c.WS.Path(rel))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return []types.QualityIssue{issue("sections_missing_file", "%s is missing or empty", rel)}
	}
	body := string(data)

	var issues []types.QualityIssue

	if headingLineRe.MatchString(body) {
		issues = append(issues, issue("sections_contains_headings",
			"%s contains headings; body files are prose-only", rel))
	}
	if markers := scanPlaceholders(body); len(markers) > 0 {
		issues = append(issues, issue("sections_contains_placeholders",
			"%s contains placeholder markers: %s", rel, strings.Join(markers, ", ")))
	}
	if outlineMetaRe.MatchString(body) {
		issues = append(issues, issue("sections_contains_outline_meta",
			"%s leaks outline-stage bullet prefixes into prose", rel))
	}

	keys := citedKeys(body)
	if len(keys) < c.Th.MinCitesPerSub {
		issues = append(issues, issue("sections_too_few_citations",
			"%s has %d unique citations, profile %s requires %d",
			rel, len(keys), c.Profile, c.Th.MinCitesPerSub))
	}

	paras := paragraphs(body)
	substantive := 0
	synthesis := false
	citedNumeric := false
	longTotal := 0
	uncitedLong := 0
	for _, p := range paras {
		contentLen := len([]rune(strings.TrimSpace(stripCitations(p))))
		if contentLen >= minParagraphRunes {
			substantive++
		}
		pKeys := citedKeys(p)
		if len(pKeys) >= 2 {
			synthesis = true
		}
		if len(pKeys) >= 1 && digitRe.MatchString(stripCitations(p)) {
			citedNumeric = true
		}

		trimmed := strings.TrimSpace(p)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "|") || strings.HasPrefix(trimmed, "`") {
			continue
		}
		if contentLen >= longParagraphChars {
			longTotal++
			if len(pKeys) == 0 {
				uncitedLong++
			}
		}
	}
	if longTotal > 0 && float64(uncitedLong) > uncitedLongFrac*float64(longTotal) {
		issues = append(issues, issue("sections_uncited_paragraphs",
			"%s leaves %d of %d long paragraphs uncited (limit %.0f%%)",
			rel, uncitedLong, longTotal, uncitedLongFrac*100))
	}
	if substantive < c.Th.MinParagraphs {
		issues = append(issues, issue("sections_too_few_paragraphs",
			"%s has %d substantive paragraphs, profile %s requires %d",
			rel, substantive, c.Profile, c.Th.MinParagraphs))
	}
	if n := len([]rune(stripCitations(body))); n < c.Th.MinChars {
		issues = append(issues, issue("sections_too_short",
			"%s has %d content chars after removing citations, profile %s requires %d",
			rel, n, c.Profile, c.Th.MinChars))
	}
	if !synthesis {
		issues = append(issues, issue("sections_no_synthesis_paragraph",
			"%s has no paragraph citing two or more papers", rel))
	}
	if wantNumeric && !citedNumeric {
		issues = append(issues, issue("sections_missing_cited_numeric",
			"%s has numeric evidence available but no paragraph with a digit and a citation", rel))
	}

	if !contrastRe.MatchString(body) {
		issues = append(issues, issue("sections_missing_contrast",
			"%s has no explicit contrast phrasing", rel))
	}
	if !evalAnchorRe.MatchString(body) {
		issues = append(issues, issue("sections_missing_evaluation_anchor",
			"%s never names a benchmark, dataset, metric, or protocol", rel))
	}
	if !limitationRe.MatchString(body) {
		issues = append(issues, issue("sections_missing_limitation",
			"%s has no limitation or provisional sentence", rel))
	}

	subSpecific := 0
	for _, key := range keys {
		if !idx.Has(key) {
			issues = append(issues, issue("sections_cites_missing_in_bib",
				"%s cites %s which is not in ref.bib", rel, key))
			continue
		}
		if !scope.inScope(key) {
			issues = append(issues, issue("sections_cites_outside_mapping",
				"subsection %s cites %s outside its mapped, chapter, and global sets", sub.SubID, key))
		}
		if scope.mapped[key] {
			subSpecific++
		}
	}
	if scope.reuseActive() && subSpecific < 2 {
		issues = append(issues, issue("sections_too_few_subsection_cites",
			"%s has %d subsection-specific citations, want at least 2 under chapter reuse", rel, subSpecific))
	}

	if repeats := repeatedSentences(body, boilerplateSentenceLen, sectionRepeatLimit); len(repeats) > 0 {
		issues = append(issues, issue("sections_repeated_boilerplate",
			"%s repeats %d long sentences", rel, len(repeats)))
	}

	return issues
}

// checkDraft gates the merged output/DRAFT.md.
func checkDraft(c *Context) []types.QualityIssue {
	data, err := os.ReadFile(c.WS.Path(workspace.FileDraft))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return []types.QualityIssue{issue("missing_draft", "output/DRAFT.md is missing or empty")}
	}
	draft := string(data)

	idx, _, bibCount, bibIssue := loadBib(c.WS)
	if bibIssue != nil {
		return []types.QualityIssue{*bibIssue}
	}
	subs, loadIssue := loadSubs(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}

	var issues []types.QualityIssue

	if markers := scanPlaceholders(draft); len(markers) > 0 {
		issues = append(issues, issue("draft_contains_placeholders",
			"DRAFT.md contains placeholder markers: %s", strings.Join(markers, ", ")))
	}

	keys := citedKeys(draft)
	for _, key := range keys {
		if !idx.Has(key) {
			issues = append(issues, issue("draft_cites_missing_in_bib",
				"DRAFT.md cites %s which is not in ref.bib", key))
		}
	}

	structural := draftCitesBase + draftCitesPerH3*len(subs)
	fractional := int(draftCitesFrac * float64(bibCount))
	minCites := structural
	if fractional > minCites {
		minCites = fractional
	}
	if minCites > bibCount {
		minCites = bibCount
	}
	if len(keys) < minCites {
		issues = append(issues, issue("draft_too_few_citations",
			"DRAFT.md has %d unique citations, want at least %d", len(keys), minCites))
	}

	paras := paragraphs(draft)
	uncited := 0
	content := 0
	for _, p := range paras {
		if strings.HasPrefix(p, "#") {
			continue
		}
		if len([]rune(strings.TrimSpace(stripCitations(p)))) < minParagraphRunes {
			continue
		}
		content++
		if len(citedKeys(p)) == 0 {
			uncited++
		}
	}
	if content > 0 && float64(uncited) > draftUncitedFrac*float64(content) {
		issues = append(issues, issue("draft_uncited_paragraphs",
			"%d of %d content paragraphs are uncited (limit %.0f%%)", uncited, content, draftUncitedFrac*100))
	}

	if repeats := repeatedSentences(draft, boilerplateSentenceLen, draftRepeatLimit); len(repeats) > 0 {
		issues = append(issues, issue("draft_repeated_paragraphs",
			"DRAFT.md repeats %d long sentences", len(repeats)))
	}

	for _, h := range []struct {
		re   *regexp.Regexp
		name string
	}{
		{introHeadingRe, "Introduction"},
		{discussionHeadingRe, "Discussion"},
		{conclusionHeadingRe, "Conclusion"},
	} {
		if !h.re.MatchString(draft) {
			issues = append(issues, issue("draft_missing_headings",
				"DRAFT.md has no %s heading", h.name))
		}
	}

	if introHeadingRe.MatchString(draft) {
		intro := sectionAfterHeading(draft, introHeadingRe)
		if len(strings.Fields(stripCitations(intro))) < draftIntroMinWord {
			issues = append(issues, issue("draft_intro_too_short",
				"the introduction runs under %d words", draftIntroMinWord))
		}
	}

	return issues
}

// sectionAfterHeading returns the text between the first match of re and
// the next heading of any level.
func sectionAfterHeading(text string, re *regexp.Regexp) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if next := headingLineRe.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return rest
}

// checkLatex gates output/LATEX_BUILD_REPORT.md and the build log: the
// build must report SUCCESS, resolve every citation and reference, and
// produce a PDF of credible length whose sampled text is placeholder-free.
func checkLatex(c *Context) []types.QualityIssue {
	data, err := os.ReadFile(c.WS.Path(workspace.FileLatexBuildReport))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return []types.QualityIssue{issue("missing_latex_build_report",
			"output/LATEX_BUILD_REPORT.md is missing or empty")}
	}
	report := string(data)

	var issues []types.QualityIssue

	if !strings.Contains(report, "SUCCESS") {
		issues = append(issues, issue("latex_build_failed",
			"the build report does not declare SUCCESS"))
	}

	// The raw log is authoritative for undefined citations; fall back to
	// the report when no log was kept.
	diagnostics := report
	if logData, err := os.ReadFile(c.WS.Path("output/latex_build.log")); err == nil {
		diagnostics = string(logData)
	}
	if latexUndefCiteRe.MatchString(diagnostics) {
		issues = append(issues, issue("latex_undefined_citations",
			"the build log reports undefined citations"))
	}
	if latexUndefRefRe.MatchString(diagnostics) {
		issues = append(issues, issue("latex_undefined_references",
			"the build log reports undefined references"))
	}

	if m := latexPagesRe.FindStringSubmatch(report); m != nil {
		if pages, err := strconv.Atoi(m[1]); err == nil && pages < latexMinPages {
			issues = append(issues, issue("latex_pdf_too_short",
				"the PDF has %d pages, want at least %d", pages, latexMinPages))
		}
	} else {
		issues = append(issues, issue("latex_pages_unreported",
			"the build report does not state a page count"))
	}

	if i := strings.Index(report, "## Sampled text"); i >= 0 {
		if markers := scanPlaceholders(report[i:]); len(markers) > 0 {
			issues = append(issues, issue("latex_pdf_contains_placeholders",
				"sampled PDF text contains placeholder markers: %s", strings.Join(markers, ", ")))
		}
	}

	return issues
}
