// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gate

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/surveyforge/internal/bibtex"
	"github.com/pdiddy/surveyforge/internal/outline"
	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

// mappingOverlapHigh is the rationale-to-title token overlap above which a
// mapping rationale counts as token-overlap filler.
const mappingOverlapHigh = 0.8

// mappingPaperShareMax is the fraction of subsections a single paper may
// occupy before the mapping gate flags it.
const mappingPaperShareMax = 0.35

// mappingCoverageFrac is the fraction of subsections that must meet the
// per-subsection coverage target.
const mappingCoverageFrac = 0.8

// loadBib reads and parses citations/ref.bib. A load failure is returned
// as the issue to report; the index is nil in that case.
func loadBib(ws *workspace.Workspace) (bibtex.Index, []string, int, *types.QualityIssue) {
	data, err := os.ReadFile(ws.Path(workspace.FileRefBib))
	if err != nil || len(data) == 0 {
		iss := issue("missing_ref_bib", "citations/ref.bib is missing or empty")
		return nil, nil, 0, &iss
	}
	entries, duplicates, err := bibtex.Parse(string(data))
	if err != nil {
		iss := issue("invalid_ref_bib", "citations/ref.bib does not parse: %v", err)
		return nil, nil, 0, &iss
	}
	idx := make(bibtex.Index, len(entries))
	for _, e := range entries {
		idx[e.Key] = e
	}
	return idx, duplicates, len(entries), nil
}

// loadSubs reads outline.yml and flattens it to H3 entries.
func loadSubs(ws *workspace.Workspace) ([]outline.Subsection, *types.QualityIssue) {
	o, err := outline.Load(ws.Path(workspace.FileOutline))
	if err != nil {
		iss := issue("missing_outline", "outline/outline.yml could not be loaded: %v", err)
		return nil, &iss
	}
	return outline.Subsections(o), nil
}

// requiredOutlineBullets are the stage-A bullets every H3 carries in a
// fully specified outline.
var requiredOutlineBullets = []string{"Intent", "RQ", "Evidence needs", "Expected cites"}

// checkOutline gates outline/outline.yml: it must load, contain H3
// subsections, and (survey profile) carry the stage-A bullets on every
// H3.
func checkOutline(c *Context) []types.QualityIssue {
	subs, loadIssue := loadSubs(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}

	var issues []types.QualityIssue
	if len(subs) == 0 {
		issues = append(issues, issue("outline_no_subsections",
			"outline/outline.yml has no H3 subsections"))
	}
	if c.Profile != types.ProfileSurvey {
		return issues
	}

	for _, sub := range subs {
		for _, name := range requiredOutlineBullets {
			if outline.Bullet(sub.Bullets, name) == "" {
				issues = append(issues, issue("outline_missing_bullet",
					"subsection %s lacks the %s bullet required by the %s profile",
					sub.SubID, name, c.Profile))
			}
		}
	}
	return issues
}

// checkCitations gates citations/ref.bib: parseable, no duplicate keys,
// and (survey profile) a minimum entry count.
func checkCitations(c *Context) []types.QualityIssue {
	_, duplicates, count, loadIssue := loadBib(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}

	var issues []types.QualityIssue
	if len(duplicates) > 0 {
		issues = append(issues, issue("citations_duplicate_bibkeys",
			"%d duplicated bibkeys: %s", len(duplicates), strings.Join(duplicates, ", ")))
	}
	if c.Th.MinBibEntries > 0 && count < c.Th.MinBibEntries {
		issues = append(issues, issue("citations_too_few_entries",
			"ref.bib has %d entries, profile %s requires at least %d", count, c.Profile, c.Th.MinBibEntries))
	}
	return issues
}

// checkVerified requires a complete citations/verified.jsonl record with a
// known verification status for every bib key.
func checkVerified(c *Context) []types.QualityIssue {
	idx, _, _, loadIssue := loadBib(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}

	records, err := workspace.ReadJSONL[types.VerifiedRecord](c.WS, workspace.FileVerified)
	if err != nil {
		return []types.QualityIssue{issue("missing_verified_jsonl",
			"citations/verified.jsonl could not be loaded: %v", err)}
	}
	byKey := make(map[string]types.VerifiedRecord, len(records))
	for _, r := range records {
		byKey[r.Bibkey] = r
	}

	var missing, incomplete, unknown []string
	for key := range idx {
		r, ok := byKey[key]
		switch {
		case !ok:
			missing = append(missing, key)
		case r.Title == "" || r.URL == "" || r.Date == "":
			incomplete = append(incomplete, key)
		case !types.KnownVerificationStatus(r.VerificationStatus):
			unknown = append(unknown, key)
		}
	}
	sort.Strings(missing)
	sort.Strings(incomplete)
	sort.Strings(unknown)

	var issues []types.QualityIssue
	if len(missing) > 0 {
		issues = append(issues, issue("verified_missing_record",
			"%d bib keys have no verification record: %s", len(missing), strings.Join(missing, ", ")))
	}
	if len(incomplete) > 0 {
		issues = append(issues, issue("verified_incomplete_record",
			"%d records lack title, url, or date: %s", len(incomplete), strings.Join(incomplete, ", ")))
	}
	if len(unknown) > 0 {
		issues = append(issues, issue("verified_unknown_status",
			"%d records carry an unknown verification_status: %s", len(unknown), strings.Join(unknown, ", ")))
	}
	return issues
}

// checkMapping gates outline/mapping.tsv: coverage, rationale quality, and
// single-paper dominance.
func checkMapping(c *Context) []types.QualityIssue {
	subs, loadIssue := loadSubs(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}
	rows, err := outline.LoadMapping(c.WS.Path(workspace.FileMapping))
	if err != nil {
		return []types.QualityIssue{issue("missing_mapping_tsv",
			"outline/mapping.tsv could not be loaded: %v", err)}
	}

	var issues []types.QualityIssue

	bySub := outline.MappingBySub(rows)
	covered := 0
	for _, sub := range subs {
		if len(bySub[sub.SubID]) >= c.Th.MinMappedPerSub {
			covered++
		}
	}
	if len(subs) > 0 && float64(covered) < mappingCoverageFrac*float64(len(subs)) {
		issues = append(issues, issue("mapping_coverage_shortfall",
			"%d of %d subsections meet the %d-paper coverage target (need %.0f%%)",
			covered, len(subs), c.Th.MinMappedPerSub, mappingCoverageFrac*100))
	}

	titleBySub := make(map[string]string, len(subs))
	for _, sub := range subs {
		titleBySub[sub.SubID] = sub.Title
	}
	lowQuality := 0
	for _, row := range rows {
		why := tokenize(row.Why)
		if len(why) == 0 {
			lowQuality++
			continue
		}
		title := tokenize(titleBySub[row.SectionID])
		overlap := 0
		for w := range why {
			if title[w] {
				overlap++
			}
		}
		if float64(overlap) >= mappingOverlapHigh*float64(len(why)) {
			lowQuality++
		}
	}
	if len(rows) > 0 && lowQuality*2 > len(rows) {
		issues = append(issues, issue("mapping_rationales_token_overlap",
			"%d of %d rationales are empty or restate the subsection title", lowQuality, len(rows)))
	}

	if len(subs) > 0 {
		for paper, n := range outline.PaperSubCounts(rows) {
			if float64(n) > mappingPaperShareMax*float64(len(subs)) {
				issues = append(issues, issue("mapping_paper_overused",
					"paper %s is mapped to %d of %d subsections (limit %.0f%%)",
					paper, n, len(subs), mappingPaperShareMax*100))
			}
		}
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Code+issues[i].Message < issues[j].Code+issues[j].Message })
	return issues
}

// loadCoreSetIDs reads the paper_id column of papers/core_set.csv.
func loadCoreSetIDs(ws *workspace.Workspace) ([]string, error) {
	f, err := os.Open(ws.Path(workspace.FileCoreSet))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing core_set.csv: %w", err)
	}

	var ids []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "paper_id") {
			continue
		}
		ids = append(ids, strings.TrimSpace(row[0]))
	}
	return ids, nil
}

// checkNotes gates papers/paper_notes.jsonl: unique paper ids, valid
// evidence levels, at least one limitation each, and full core-set
// coverage.
func checkNotes(c *Context) []types.QualityIssue {
	notes, err := workspace.ReadJSONL[types.PaperNote](c.WS, workspace.FilePaperNotes)
	if err != nil {
		return []types.QualityIssue{issue("missing_paper_notes",
			"papers/paper_notes.jsonl could not be loaded: %v", err)}
	}

	var issues []types.QualityIssue

	seen := make(map[string]bool)
	var dups, badLevel, noLimit []string
	for _, n := range notes {
		if seen[n.PaperID] {
			dups = append(dups, n.PaperID)
		}
		seen[n.PaperID] = true
		if !n.EvidenceLevel.Valid() {
			badLevel = append(badLevel, n.PaperID)
		}
		if len(n.Limitations) == 0 {
			noLimit = append(noLimit, n.PaperID)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		issues = append(issues, issue("paper_notes_duplicate_ids",
			"duplicate paper ids: %s", strings.Join(dups, ", ")))
	}
	if len(badLevel) > 0 {
		sort.Strings(badLevel)
		issues = append(issues, issue("paper_notes_invalid_evidence_level",
			"papers with an invalid evidence_level: %s", strings.Join(badLevel, ", ")))
	}
	if len(noLimit) > 0 {
		sort.Strings(noLimit)
		issues = append(issues, issue("paper_notes_missing_limitations",
			"papers with no limitation items: %s", strings.Join(noLimit, ", ")))
	}

	if coreIDs, err := loadCoreSetIDs(c.WS); err == nil {
		var missing []string
		for _, id := range coreIDs {
			if !seen[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			issues = append(issues, issue("paper_notes_missing_core_papers",
				"core-set papers without notes: %s", strings.Join(missing, ", ")))
		}
	}
	return issues
}

// checkEvidenceDrafts gates outline/evidence_drafts.jsonl: required
// blocks, resolvable citations, a comparison minimum, and per-snippet
// provenance.
func checkEvidenceDrafts(c *Context) []types.QualityIssue {
	packs, err := workspace.ReadJSONL[types.EvidencePack](c.WS, workspace.FileEvidenceDrafts)
	if err != nil {
		return []types.QualityIssue{issue("missing_evidence_drafts",
			"outline/evidence_drafts.jsonl could not be loaded: %v", err)}
	}
	idx, _, _, loadIssue := loadBib(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}

	var issues []types.QualityIssue
	for _, pack := range packs {
		blocks := map[string][]types.PackSnippet{
			"definitions_setup":    pack.DefinitionsSetup,
			"claim_candidates":     pack.ClaimCandidates,
			"evaluation_protocol":  pack.EvaluationProtocol,
			"failures_limitations": pack.FailuresLimitations,
		}
		for _, name := range []string{"definitions_setup", "claim_candidates", "evaluation_protocol", "failures_limitations"} {
			if len(blocks[name]) == 0 {
				issues = append(issues, issue("evidence_drafts_missing_block",
					"pack %s has an empty %s block", pack.SubID, name))
			}
		}
		if len(pack.ConcreteComparisons) == 0 {
			issues = append(issues, issue("evidence_drafts_missing_block",
				"pack %s has an empty concrete_comparisons block", pack.SubID))
		} else if len(pack.ConcreteComparisons) < c.Th.MinComparisons {
			issues = append(issues, issue("evidence_drafts_too_few_comparisons",
				"pack %s has %d comparisons, profile %s requires %d",
				pack.SubID, len(pack.ConcreteComparisons), c.Profile, c.Th.MinComparisons))
		}

		unknown := make(map[string]bool)
		missingProv := 0
		scan := func(snips []types.PackSnippet) {
			for _, s := range snips {
				for _, cite := range s.Citations {
					key := strings.TrimPrefix(strings.TrimSpace(cite), "@")
					if key != "" && !idx.Has(key) {
						unknown[key] = true
					}
				}
				if s.Source == "" || s.Pointer == "" {
					missingProv++
				}
			}
		}
		scan(pack.DefinitionsSetup)
		scan(pack.ClaimCandidates)
		scan(pack.EvaluationProtocol)
		scan(pack.FailuresLimitations)
		for _, cmp := range pack.ConcreteComparisons {
			scan(cmp.AHighlights)
			scan(cmp.BHighlights)
		}

		if len(unknown) > 0 {
			keys := make([]string, 0, len(unknown))
			for k := range unknown {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			issues = append(issues, issue("evidence_drafts_unknown_citation",
				"pack %s cites keys missing from ref.bib: %s", pack.SubID, strings.Join(keys, ", ")))
		}
		if missingProv > 0 {
			issues = append(issues, issue("evidence_drafts_missing_provenance",
				"pack %s has %d snippets without source and pointer", pack.SubID, missingProv))
		}
	}
	return issues
}

// checkBindings gates outline/evidence_bindings.jsonl: every subsection
// bound with enough evidence ids, and every id resolvable in the bank.
func checkBindings(c *Context) []types.QualityIssue {
	subs, loadIssue := loadSubs(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}
	bindings, err := workspace.ReadJSONL[types.EvidenceBinding](c.WS, workspace.FileBindings)
	if err != nil {
		return []types.QualityIssue{issue("missing_evidence_bindings",
			"outline/evidence_bindings.jsonl could not be loaded: %v", err)}
	}
	bySub := make(map[string]types.EvidenceBinding, len(bindings))
	for _, b := range bindings {
		bySub[b.SubID] = b
	}

	bankIDs := make(map[string]bool)
	if items, err := workspace.ReadJSONL[types.EvidenceItem](c.WS, workspace.FileEvidenceBank); err == nil {
		for _, item := range items {
			bankIDs[item.EvidenceID] = true
		}
	}

	var issues []types.QualityIssue
	for _, sub := range subs {
		b, ok := bySub[sub.SubID]
		if !ok {
			issues = append(issues, issue("bindings_missing_subsection",
				"subsection %s has no binding", sub.SubID))
			continue
		}
		if len(b.EvidenceIDs) < c.Th.MinBindingIDs {
			issues = append(issues, issue("bindings_too_few_ids",
				"subsection %s has %d evidence ids, profile %s requires %d",
				sub.SubID, len(b.EvidenceIDs), c.Profile, c.Th.MinBindingIDs))
		}
		if len(bankIDs) > 0 {
			for _, id := range b.EvidenceIDs {
				if !bankIDs[id] {
					issues = append(issues, issue("bindings_unknown_evidence_id",
						"subsection %s references %s which is not in the evidence bank", sub.SubID, id))
				}
			}
		}
	}
	return issues
}

// checkPacks gates outline/writer_context_packs.jsonl: the pack set must
// match the outline's H3 set exactly and each pack must meet the profile
// minima.
func checkPacks(c *Context) []types.QualityIssue {
	subs, loadIssue := loadSubs(c.WS)
	if loadIssue != nil {
		return []types.QualityIssue{*loadIssue}
	}
	packs, err := workspace.ReadJSONL[types.WriterContextPack](c.WS, workspace.FileWriterPacks)
	if err != nil {
		return []types.QualityIssue{issue("missing_writer_context_packs",
			"outline/writer_context_packs.jsonl could not be loaded: %v", err)}
	}

	var issues []types.QualityIssue

	want := make(map[string]bool, len(subs))
	for _, sub := range subs {
		want[sub.SubID] = true
	}
	got := make(map[string]bool, len(packs))
	for _, p := range packs {
		got[p.SubID] = true
	}
	var missing, extra []string
	for id := range want {
		if !got[id] {
			missing = append(missing, id)
		}
	}
	for id := range got {
		if !want[id] {
			extra = append(extra, id)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		outline.SortSubIDs(missing)
		outline.SortSubIDs(extra)
		issues = append(issues, issue("packs_subsection_mismatch",
			"pack set differs from outline (missing: %v, extra: %v)", missing, extra))
	}

	for _, p := range packs {
		if p.RQ == "" {
			issues = append(issues, issue("packs_missing_rq", "pack %s has no research question", p.SubID))
		}
		if len(p.Axes) == 0 {
			issues = append(issues, issue("packs_missing_axes", "pack %s has no comparison axes", p.SubID))
		}
		if len(p.ParagraphPlan) < 3 {
			issues = append(issues, issue("packs_short_paragraph_plan",
				"pack %s plans %d paragraphs, want at least 3", p.SubID, len(p.ParagraphPlan)))
		}
		if len(p.AnchorFacts) < c.Th.MustUseAnchors {
			issues = append(issues, issue("packs_anchors_below_minimum",
				"pack %s has %d anchor facts, profile %s requires %d",
				p.SubID, len(p.AnchorFacts), c.Profile, c.Th.MustUseAnchors))
		}
		if len(p.ComparisonCards) < c.Th.MustUseComparisons {
			issues = append(issues, issue("packs_comparisons_below_minimum",
				"pack %s has %d comparison cards, profile %s requires %d",
				p.SubID, len(p.ComparisonCards), c.Profile, c.Th.MustUseComparisons))
		}
		if len(p.LimitationHooks) < c.Th.MustUseLimitations {
			issues = append(issues, issue("packs_limitations_below_minimum",
				"pack %s has %d limitation hooks, profile %s requires %d",
				p.SubID, len(p.LimitationHooks), c.Profile, c.Th.MustUseLimitations))
		}
		if len(p.AllowedBibkeysMapped) == 0 {
			issues = append(issues, issue("packs_no_mapped_bibkeys",
				"pack %s has no mapped bibkeys", p.SubID))
		}
	}
	return issues
}

// checkAudit requires output/AUDIT_REPORT.md to declare a PASS status.
func checkAudit(c *Context) []types.QualityIssue {
	data, err := os.ReadFile(c.WS.Path(workspace.FileAuditReport))
	if err != nil || len(data) == 0 {
		return []types.QualityIssue{issue("missing_audit_report",
			"output/AUDIT_REPORT.md is missing or empty")}
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "- Status: PASS" {
			return nil
		}
	}
	return []types.QualityIssue{issue("audit_not_pass",
		"output/AUDIT_REPORT.md does not declare '- Status: PASS'")}
}
